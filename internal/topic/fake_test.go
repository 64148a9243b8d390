package topic

import (
	"context"
	"errors"

	"github.com/pders01/ggr/internal/gerrit"
	"github.com/pders01/ggr/internal/git"
)

type fakeRepo struct {
	name     string
	bare     bool
	remotes  []git.Remote
	branches map[string]bool

	remotesErr  error
	fetchFails  bool
	upFails     bool
	checkoutErr bool

	fetched    []string
	upstreams  []string
	checkedOut []string
}

func newFakeRepo(name string, remotes ...git.Remote) *fakeRepo {
	return &fakeRepo{name: name, remotes: remotes, branches: map[string]bool{}}
}

func (r *fakeRepo) Name() string { return r.name }

func (r *fakeRepo) IsBare(ctx context.Context) (bool, error) { return r.bare, nil }

func (r *fakeRepo) Remotes(ctx context.Context) ([]git.Remote, error) {
	return r.remotes, r.remotesErr
}

func (r *fakeRepo) BranchExists(ctx context.Context, branch string) (bool, error) {
	return r.branches[branch], nil
}

func (r *fakeRepo) Checkout(ctx context.Context, branch string) (*git.Result, error) {
	if r.checkoutErr || !r.branches[branch] {
		return &git.Result{Stderr: "error: pathspec '" + branch + "' did not match\n"}, nil
	}
	r.checkedOut = append(r.checkedOut, branch)
	return &git.Result{Success: true, Stderr: "Switched to branch '" + branch + "'\n"}, nil
}

func (r *fakeRepo) Fetch(ctx context.Context, remote, refspec string) (*git.Result, error) {
	r.fetched = append(r.fetched, remote+" "+refspec)
	if r.fetchFails {
		return &git.Result{Stderr: "fatal: couldn't find remote ref\n"}, nil
	}
	return &git.Result{Success: true}, nil
}

func (r *fakeRepo) SetUpstream(ctx context.Context, tracking, local string) (*git.Result, error) {
	r.upstreams = append(r.upstreams, local+"->"+tracking)
	if r.upFails {
		return &git.Result{Stderr: "fatal: the requested upstream branch does not exist\n"}, nil
	}
	return &git.Result{Success: true}, nil
}

type fakeWorkspace struct {
	root    *fakeRepo
	subs    []*fakeRepo
	subsErr error

	updates int
	upFails bool
}

func (w *fakeWorkspace) Superproject() Repository { return w.root }

func (w *fakeWorkspace) SubRepos(ctx context.Context) ([]Repository, error) {
	if w.subsErr != nil {
		return nil, w.subsErr
	}
	repos := make([]Repository, 0, len(w.subs))
	for _, s := range w.subs {
		repos = append(repos, s)
	}
	return repos, nil
}

func (w *fakeWorkspace) UpdateSubmodules(ctx context.Context) (*git.Result, error) {
	w.updates++
	if w.upFails {
		return &git.Result{Stderr: "fatal: submodule update failed\n"}, nil
	}
	return &git.Result{Success: true}, nil
}

type fakeGerrit struct {
	changes []gerrit.ChangeInfo
	err     error

	terms   []string
	options []string
	creds   gerrit.Credentials
}

func (g *fakeGerrit) Changes(ctx context.Context, terms []string, options []string, creds gerrit.Credentials) (*gerrit.ChangeInfos, error) {
	g.terms, g.options, g.creds = terms, options, creds
	if g.err != nil {
		return nil, g.err
	}
	return gerrit.NewChangeInfos(g.changes, nil), nil
}

func change(project, rev, ref string) gerrit.ChangeInfo {
	return gerrit.ChangeInfo{
		Project:         project,
		Status:          "NEW",
		CurrentRevision: rev,
		Revisions: map[string]*gerrit.RevisionInfo{
			rev: {Fetch: map[string]*gerrit.FetchInfo{
				FetchProtocol: {URL: "https://gerrit.example.com/" + project, Ref: ref},
			}},
		},
	}
}

var errBoom = errors.New("boom")
