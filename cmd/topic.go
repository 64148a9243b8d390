package cmd

import (
	"fmt"
	"io"

	"github.com/pders01/ggr/internal/display"
	"github.com/pders01/ggr/internal/models"
	"github.com/pders01/ggr/internal/topic"
	"github.com/spf13/cobra"
)

var (
	fetchBranch    string
	fetchForce     bool
	fetchTrack     string
	fetchFormat    string
	checkoutFormat string
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Fetch and check out Gerrit topics across the workspace",
}

var topicFetchCmd = &cobra.Command{
	Use:   "fetch <topic>",
	Short: "Fetch the newest revision of every project in a topic",
	Long: `Query the open changes of a topic and fetch, for every project, the newest
revision into a local branch of the superproject or the submodule whose remote
belongs to the project.

An existing local branch is left alone unless --force is given.

Examples:
  ggr topic fetch feature
  ggr topic fetch feature --branch work --track origin/master
  ggr topic fetch feature --force --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTopicFetch,
}

var topicCheckoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Check out a branch in the superproject and all submodules",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicCheckout,
}

func init() {
	rootCmd.AddCommand(topicCmd)
	topicCmd.AddCommand(topicFetchCmd)
	topicCmd.AddCommand(topicCheckoutCmd)

	topicFetchCmd.Flags().StringVarP(&fetchBranch, "branch", "b", "", "local branch to fetch into (default is the topic name)")
	topicFetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "overwrite existing local branches")
	topicFetchCmd.Flags().StringVarP(&fetchTrack, "track", "t", "", "upstream branch to track, e.g. origin/master")
	topicFetchCmd.Flags().StringVar(&fetchFormat, "format", "text", "report format: text, json or toon")

	topicCheckoutCmd.Flags().StringVar(&checkoutFormat, "format", "text", "report format: text, json or toon")
}

func runTopicFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := display.ParseFormat(fetchFormat)
	if err != nil {
		return err
	}
	cfg, err := loadGerritConfig()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	f := &topic.Fetcher{
		Gerrit:      newGerritClient(cfg),
		Credentials: cfg.Credentials(),
		Out:         progress(out, format),
	}
	report, err := f.Fetch(ctx, ws, topic.FetchOptions{
		Topic:       args[0],
		LocalBranch: fetchBranch,
		Force:       fetchForce,
		Tracking:    fetchTrack,
	})
	if err != nil {
		return err
	}
	return finish(out, report, format)
}

func runTopicCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := display.ParseFormat(checkoutFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report, err := topic.Checkout(ctx, ws, args[0], progress(out, format))
	if err != nil {
		return err
	}
	return finish(out, report, format)
}

// progress is where human-readable lines go: nowhere when a structured
// report will be printed instead.
func progress(out io.Writer, format display.Format) io.Writer {
	if format != display.FormatText {
		return io.Discard
	}
	return out
}

func finish(out io.Writer, report *models.Report, format display.Format) error {
	if err := display.Report(out, report, format); err != nil {
		return err
	}
	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%s failed in %d of %d repositories", report.Operation, failed, len(report.Results))
	}
	return nil
}
