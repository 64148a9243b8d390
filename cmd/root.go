package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/pders01/ggr/internal/config"
	"github.com/pders01/ggr/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	verbosity    int
	superproject string

	// configErr is set when a config file was found but could not be read
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "ggr",
	Short: "Gerrit topic workspace synchronizer",
	Long: `ggr keeps a superproject and its submodules in step with a Gerrit topic:
  - query changes on a Gerrit server
  - fetch the newest revision of every project in a topic into a local branch
  - check that branch out across the whole workspace

Settings are read from .ggr.conf in the current or any parent directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.FileName+" in the current or a parent directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log progress to stderr (-vv for debug)")
	rootCmd.PersistentFlags().StringVarP(&superproject, "superproject", "C", "", "superproject directory (default from config or the enclosing repository)")
}

func initConfig() {
	logging.Setup(os.Stderr, verbosity)

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded")
	}

	viper.Reset()
	config.Setup(viper.GetViper())
	configErr = nil

	path := cfgFile
	if path == "" {
		found, err := config.Discover(".", config.FileName)
		if err != nil {
			log.Debug().Err(err).Msg("No config file")
			return
		}
		path = found
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		configErr = fmt.Errorf("failed to read config %s: %w", path, err)
		return
	}
	log.Info().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
}
