package cmd

import (
	"fmt"

	"github.com/pders01/ggr/internal/display"
	"github.com/pders01/ggr/internal/gerrit"
	"github.com/spf13/cobra"
)

var (
	changesFields []string
	changesFormat string
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Work with the Gerrit /changes/ endpoint",
}

var changesQueryCmd = &cobra.Command{
	Use:   "query <term>...",
	Short: "Query changes and print selected fields",
	Long: `Send a change query to Gerrit. Terms are passed through unchanged and must
all match.

Examples:
  ggr changes query status:open project:demo
  ggr changes query topic:feature --fields project,subject,current_revision
  ggr changes query owner:self --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChangesQuery,
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.AddCommand(changesQueryCmd)

	changesQueryCmd.Flags().StringSliceVar(&changesFields, "fields", nil, "fields to print (default project,_number,status,subject)")
	changesQueryCmd.Flags().StringVar(&changesFormat, "format", "text", "output format: text, json or toon")
}

func runChangesQuery(cmd *cobra.Command, args []string) error {
	format, err := display.ParseFormat(changesFormat)
	if err != nil {
		return err
	}

	cfg, err := loadGerritConfig()
	if err != nil {
		return err
	}

	q := gerrit.NewQuery(args...)
	infos, err := newGerritClient(cfg).Changes(cmd.Context(), q.Terms(), nil, cfg.Credentials())
	if err != nil {
		return fmt.Errorf("failed to query changes %s: %w", q, err)
	}
	return display.Changes(cmd.OutOrStdout(), infos, changesFields, format)
}
