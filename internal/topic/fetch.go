package topic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pders01/ggr/internal/gerrit"
	"github.com/pders01/ggr/internal/git"
	"github.com/pders01/ggr/internal/models"
	"github.com/pders01/ggr/internal/remote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FetchProtocol is the Gerrit download scheme whose ref gets fetched.
const FetchProtocol = "http"

// QueryOptions are the extra fields a topic query asks Gerrit for.
var QueryOptions = []string{"CURRENT_REVISION", "CURRENT_COMMIT"}

// ChangeQuerier runs Gerrit change queries. *gerrit.Client implements it.
type ChangeQuerier interface {
	Changes(ctx context.Context, terms []string, options []string, creds gerrit.Credentials) (*gerrit.ChangeInfos, error)
}

// Query returns the search terms for the open changes of a topic.
func Query(topic string) []string {
	return []string{"topic:" + topic, "status:open"}
}

// Refspec maps ref onto the local branch, forced with a leading "+".
func Refspec(ref, localBranch string, force bool) string {
	spec := ref + ":" + localBranch
	if force {
		return "+" + spec
	}
	return spec
}

// FetchRequest describes the fetch of one project tip.
type FetchRequest struct {
	Project     string
	Tip         string
	LocalBranch string
	// Tracking is the upstream to set on LocalBranch after fetching; empty
	// means none.
	Tracking string
	Force    bool
}

// FetchResult is the outcome of FetchRepo against one repository.
type FetchResult struct {
	// Matched is true when one of the repository's remotes belongs to the
	// project. A matched repository owns the project even if the fetch
	// then fails.
	Matched bool
	Remote  string
	Refspec string
	Outcome models.Outcome
	Message string
	Output  string
}

// FetchRepo fetches the project tip into repo if one of its remotes
// belongs to the project. A result with Matched false means "not this
// repository". Errors returned with Matched false are repository errors;
// with Matched true they are entity errors for the project.
func FetchRepo(ctx context.Context, repo Repository, changes *gerrit.ChangeInfos, req FetchRequest) (FetchResult, error) {
	bare, err := repo.IsBare(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	if bare {
		return FetchResult{}, fmt.Errorf("%s: %w", repo.Name(), git.ErrBareRepository)
	}

	remotes, err := repo.Remotes(ctx)
	if err != nil {
		return FetchResult{}, err
	}

	for _, rm := range remotes {
		if !remote.Matches(rm.URL, req.Project) {
			continue
		}
		fr := FetchResult{Matched: true, Remote: rm.Name}

		entity, err := changes.EntityFromCommit(req.Tip)
		if err != nil {
			return fr, fmt.Errorf("%s: %w", req.Project, err)
		}
		fi, err := entity.CurrentFetchInfo(FetchProtocol)
		if err != nil {
			return fr, err
		}
		fr.Refspec = Refspec(fi.Ref, req.LocalBranch, req.Force)

		if !req.Force {
			exists, err := repo.BranchExists(ctx, req.LocalBranch)
			if err != nil {
				return fr, err
			}
			if exists {
				fr.Outcome = models.OutcomeBranchExists
				fr.Message = fmt.Sprintf("branch %s exists in %s, not fetching without force", req.LocalBranch, repo.Name())
				return fr, nil
			}
		}

		res, err := repo.Fetch(ctx, rm.Name, fr.Refspec)
		if err != nil {
			return fr, err
		}
		if !res.Success {
			fr.Outcome = models.OutcomeFailed
			fr.Output = strings.TrimSpace(res.Stderr)
			fr.Message = fr.Output
			return fr, nil
		}
		fr.Output = res.Output()

		if req.Tracking != "" {
			up, err := repo.SetUpstream(ctx, req.Tracking, req.LocalBranch)
			if err != nil {
				return fr, err
			}
			fr.Output = strings.TrimSpace(fr.Output + "\n" + up.Output())
			if !up.Success {
				fr.Outcome = models.OutcomeFailed
				fr.Message = fmt.Sprintf("fetched %s, but tracking %s failed: %s", fr.Refspec, req.Tracking, strings.TrimSpace(up.Stderr))
				return fr, nil
			}
		}

		fr.Outcome = models.OutcomeOK
		fr.Message = fmt.Sprintf("fetched %s from %s into %s", fr.Refspec, rm.Name, repo.Name())
		return fr, nil
	}
	return FetchResult{}, nil
}

// FetchOptions configures a topic fetch.
type FetchOptions struct {
	Topic string
	// LocalBranch receives each project's tip. Defaults to the topic name.
	LocalBranch string
	Force       bool
	Tracking    string
}

// Fetcher fetches the tips of a topic into a workspace.
type Fetcher struct {
	Gerrit      ChangeQuerier
	Credentials gerrit.Credentials
	// Out receives one line per project as work proceeds.
	Out io.Writer
}

// Fetch queries the open changes of the topic and fetches every project tip
// into the first repository whose remote matches the project: the
// superproject, then the sub-repositories in order. One project's failure
// never stops the others; only a failed query is an error.
func (f *Fetcher) Fetch(ctx context.Context, ws Workspace, opts FetchOptions) (*models.Report, error) {
	if opts.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if opts.LocalBranch == "" {
		opts.LocalBranch = opts.Topic
	}
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	report := newReport(models.OperationFetch, opts.Topic, opts.LocalBranch)
	logger := log.With().Str("op", report.ID).Str("topic", opts.Topic).Logger()

	changes, err := f.Gerrit.Changes(ctx, Query(opts.Topic), QueryOptions, f.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic %s: %w", opts.Topic, err)
	}

	tips := changes.ProjectTips()
	if len(tips) == 0 {
		fmt.Fprintf(out, "No open changes for topic %s\n", opts.Topic)
		return report, nil
	}
	logger.Info().Msgf("Fetching %d project(s) into branch %s", len(tips), opts.LocalBranch)

	for _, tip := range tips {
		req := FetchRequest{
			Project:     tip.Project,
			Tip:         tip.Commit,
			LocalBranch: opts.LocalBranch,
			Tracking:    opts.Tracking,
			Force:       opts.Force,
		}
		res := fetchProject(ctx, ws, changes, req, logger)
		report.Add(res)
		fmt.Fprintln(out, res.Line())
	}
	return report, nil
}

func fetchProject(ctx context.Context, ws Workspace, changes *gerrit.ChangeInfos, req FetchRequest, logger zerolog.Logger) models.Result {
	if res, ok := tryFetch(ctx, ws.Superproject(), changes, req, logger); ok {
		return res
	}

	subs, err := ws.SubRepos(ctx)
	if err != nil {
		return models.Result{Project: req.Project, Commit: req.Tip, Outcome: models.OutcomeError, Message: err.Error()}
	}
	for _, sub := range subs {
		if res, ok := tryFetch(ctx, sub, changes, req, logger); ok {
			return res
		}
	}

	logger.Warn().Str("project", req.Project).Msg("No repository has a remote for project")
	return models.Result{
		Project: req.Project,
		Commit:  req.Tip,
		Outcome: models.OutcomeNoMatch,
		Message: "no repository has a remote for this project",
	}
}

// tryFetch reports ok when repo owns the project, whatever the fetch did.
func tryFetch(ctx context.Context, repo Repository, changes *gerrit.ChangeInfos, req FetchRequest, logger zerolog.Logger) (models.Result, bool) {
	fr, err := FetchRepo(ctx, repo, changes, req)
	res := models.Result{
		Repository: repo.Name(),
		Project:    req.Project,
		Commit:     req.Tip,
	}
	if err != nil {
		if !fr.Matched {
			logger.Warn().Err(err).Str("repo", repo.Name()).Msg("Skipping repository")
			return res, false
		}
		logger.Warn().Err(err).Str("repo", repo.Name()).Str("project", req.Project).Msg("Project done")
		res.Outcome = models.OutcomeError
		res.Message = err.Error()
		return res, true
	}
	if !fr.Matched {
		logger.Debug().Str("repo", repo.Name()).Str("project", req.Project).Msg("Not this repository")
		return res, false
	}

	res.Outcome = fr.Outcome
	res.Message = fr.Message
	res.Output = fr.Output

	level := logger.Info
	if fr.Outcome == models.OutcomeFailed {
		level = logger.Warn
	}
	level().Str("repo", repo.Name()).Str("project", req.Project).Str("outcome", string(fr.Outcome)).Msg("Project done")
	return res, true
}
