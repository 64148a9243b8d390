package topic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pders01/ggr/internal/git"
	"github.com/pders01/ggr/internal/models"
	"github.com/rs/zerolog/log"
)

// CheckoutRepo checks out branch in one repository. A checkout that exits
// non-zero is a failed result; a bare repository is an error.
func CheckoutRepo(ctx context.Context, repo Repository, branch string) (*git.Result, error) {
	bare, err := repo.IsBare(ctx)
	if err != nil {
		return nil, err
	}
	if bare {
		return nil, fmt.Errorf("%s: %w", repo.Name(), git.ErrBareRepository)
	}
	return repo.Checkout(ctx, branch)
}

// Checkout checks out branch in the superproject, updates its submodules if
// that worked, then checks out branch in every sub-repository. Failures are
// collected, never fatal. The summary is written to out.
func Checkout(ctx context.Context, ws Workspace, branch string, out io.Writer) (*models.Report, error) {
	if branch == "" {
		return nil, errors.New("branch is required")
	}
	if out == nil {
		out = io.Discard
	}

	report := newReport(models.OperationCheckout, "", branch)
	logger := log.With().Str("op", report.ID).Str("branch", branch).Logger()

	root := ws.Superproject()
	rootRes := checkoutResult(ctx, root, branch)
	report.Add(rootRes)

	if rootRes.Outcome.Succeeded() {
		logger.Info().Msg("Updating submodules")
		up := models.Result{Repository: root.Name() + " (submodule update)"}
		res, err := ws.UpdateSubmodules(ctx)
		switch {
		case err != nil:
			up.Outcome = models.OutcomeError
			up.Message = err.Error()
		case !res.Success:
			up.Outcome = models.OutcomeFailed
			up.Message = strings.TrimSpace(res.Stderr)
		default:
			up.Outcome = models.OutcomeOK
			up.Output = res.Output()
		}
		report.Add(up)
	}

	subs, err := ws.SubRepos(ctx)
	if err != nil {
		report.Add(models.Result{Repository: root.Name(), Outcome: models.OutcomeError, Message: err.Error()})
	}
	for _, sub := range subs {
		report.Add(checkoutResult(ctx, sub, branch))
	}

	logger.Info().Int("succeeded", len(report.Succeeded())).Int("failed", len(report.Failed())).Msg("Checkout done")
	printCheckoutSummary(out, report)
	return report, nil
}

func checkoutResult(ctx context.Context, repo Repository, branch string) models.Result {
	res := models.Result{Repository: repo.Name()}
	r, err := CheckoutRepo(ctx, repo, branch)
	switch {
	case err != nil:
		res.Outcome = models.OutcomeError
		res.Message = err.Error()
	case !r.Success:
		res.Outcome = models.OutcomeFailed
		res.Message = strings.TrimSpace(r.Stderr)
	default:
		res.Outcome = models.OutcomeOK
		res.Output = r.Output()
	}
	return res
}

func printCheckoutSummary(out io.Writer, report *models.Report) {
	failed := report.Failed()
	succeeded := report.Succeeded()

	if len(failed) > 0 {
		fmt.Fprintf(out, "Checkout of %s failed in:\n", report.Branch)
		for _, r := range failed {
			fmt.Fprintf(out, "  %s\n", r.Line())
		}
	}
	if len(succeeded) == 0 {
		fmt.Fprintf(out, "Nothing checked out: %s failed in every repository\n", report.Branch)
		return
	}
	fmt.Fprintf(out, "Checked out %s in:\n", report.Branch)
	for _, r := range succeeded {
		fmt.Fprintf(out, "  %s\n", r.Line())
	}
}
