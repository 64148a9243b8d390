package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pders01/ggr/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management for ggr",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config options",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a template " + config.FileName,
	Long: `Write a template ` + config.FileName + ` into the superproject directory (-C) or the
current directory. Edit scheme, base and the credentials afterwards.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := viper.ConfigFileUsed()
	if path == "" {
		return fmt.Errorf("conf file %s in the current and all parent directories: %w", config.FileName, config.ErrNotFound)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config file: %s\n", path)
	fmt.Fprintln(out, cfg)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := superproject
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, config.FileName)
	if err := config.WriteTemplate(path, configInitForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
