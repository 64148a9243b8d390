// Package topic synchronizes a superproject and its sub-repositories with
// the open changes of a Gerrit topic.
package topic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/ggr/internal/git"
	"github.com/pders01/ggr/internal/models"
)

// Repository is the set of git operations the orchestrators run against one
// repository. *git.Repo implements it.
type Repository interface {
	Name() string
	IsBare(ctx context.Context) (bool, error)
	Remotes(ctx context.Context) ([]git.Remote, error)
	BranchExists(ctx context.Context, branch string) (bool, error)
	Checkout(ctx context.Context, branch string) (*git.Result, error)
	Fetch(ctx context.Context, remote, refspec string) (*git.Result, error)
	SetUpstream(ctx context.Context, tracking, local string) (*git.Result, error)
}

// Workspace is a superproject and its sub-repositories.
type Workspace interface {
	Superproject() Repository
	// SubRepos lists sub-repositories in visiting order.
	SubRepos(ctx context.Context) ([]Repository, error)
	// UpdateSubmodules runs a recursive, initializing submodule update in
	// the superproject.
	UpdateSubmodules(ctx context.Context) (*git.Result, error)
}

type gitWorkspace struct {
	ws     *git.Workspace
	subs   []Repository
	listed bool
}

// NewWorkspace returns the workspace of the superproject root.
func NewWorkspace(root *git.Repo) Workspace {
	return &gitWorkspace{ws: git.NewWorkspace(root)}
}

func (w *gitWorkspace) Superproject() Repository {
	return w.ws.Root()
}

// SubRepos lists sub-repositories once and reuses the list until the next
// submodule update.
func (w *gitWorkspace) SubRepos(ctx context.Context) ([]Repository, error) {
	if w.listed {
		return w.subs, nil
	}
	repos, err := w.ws.SubRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-repositories: %w", err)
	}
	w.subs = make([]Repository, 0, len(repos))
	for _, r := range repos {
		w.subs = append(w.subs, r)
	}
	w.listed = true
	return w.subs, nil
}

func (w *gitWorkspace) UpdateSubmodules(ctx context.Context) (*git.Result, error) {
	w.listed = false
	return w.ws.Root().SubmoduleUpdate(ctx)
}

func newReport(op models.Operation, topic, branch string) *models.Report {
	return &models.Report{
		ID:        uuid.NewString(),
		Operation: op,
		Topic:     topic,
		Branch:    branch,
		StartedAt: time.Now(),
	}
}
