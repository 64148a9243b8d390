package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Submodules returns the paths of the submodules declared in .gitmodules,
// relative to the repository root. A repository without .gitmodules has
// none.
func (r *Repo) Submodules(ctx context.Context) ([]string, error) {
	gitmodules := filepath.Join(r.path, ".gitmodules")
	if _, err := os.Stat(gitmodules); os.IsNotExist(err) {
		return nil, nil
	}

	res, err := r.run(ctx, "config", "--file", ".gitmodules", "--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		// git config exits 1 when nothing matches.
		if strings.TrimSpace(res.Stderr) == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list submodules of %s: %s", r.name, strings.TrimSpace(res.Stderr))
	}

	var paths []string
	for _, line := range lines(res.Stdout) {
		// submodule.<name>.path <path>
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		paths = append(paths, strings.TrimSpace(fields[1]))
	}
	return paths, nil
}

// OpenSubmodule opens the submodule at path, relative to r. An uninitialized
// submodule is ErrNotRepository.
func (r *Repo) OpenSubmodule(ctx context.Context, path string) (*Repo, error) {
	sub, err := Open(ctx, filepath.Join(r.path, path))
	if err != nil {
		return nil, err
	}
	sub.name = filepath.ToSlash(filepath.Join(r.name, path))
	return sub, nil
}

// Workspace is a superproject and the repositories nested below it.
type Workspace struct {
	root *Repo
}

// NewWorkspace returns the workspace rooted at the superproject root.
func NewWorkspace(root *Repo) *Workspace {
	return &Workspace{root: root}
}

// Root returns the superproject.
func (w *Workspace) Root() *Repo {
	return w.root
}

// SubRepos returns every initialized sub-repository, breadth-first, in
// .gitmodules order at each level. Nested submodules are walked with a
// worklist rather than recursion. Submodules that cannot be opened (not
// initialized, removed) are logged and skipped.
func (w *Workspace) SubRepos(ctx context.Context) ([]*Repo, error) {
	var out []*Repo
	queue := []*Repo{w.root}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]

		paths, err := r.Submodules(ctx)
		if err != nil {
			if r == w.root {
				return nil, err
			}
			log.Warn().Err(err).Str("repo", r.Name()).Msg("Skipping nested submodules")
			continue
		}
		for _, p := range paths {
			sub, err := r.OpenSubmodule(ctx, p)
			if err != nil {
				log.Warn().Err(err).Str("repo", r.Name()).Str("submodule", p).Msg("Skipping submodule")
				continue
			}
			out = append(out, sub)
			queue = append(queue, sub)
		}
	}
	return out, nil
}
