package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	ErrNotRepository  = errors.New("not a git repository")
	ErrBareRepository = errors.New("bare repository has no working tree")
)

// Result is the outcome of a git command that ran to completion. A non-zero
// exit is a Result with Success false, not an error.
type Result struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout,omitempty"`
	Stderr  string `json:"stderr,omitempty"`
}

// Output returns stdout and stderr joined, trimmed.
func (r *Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Remote is a configured remote of a repository.
type Remote struct {
	Name string
	URL  string
}

// Repo is a handle on one local repository.
type Repo struct {
	path string
	name string
}

// Open returns a handle on the repository at path. The path must be the
// top of a working tree or a bare repository, not a subdirectory.
func Open(ctx context.Context, path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	r := &Repo{path: abs, name: filepath.Base(abs)}

	bare, err := r.IsBare(ctx)
	if err != nil {
		return nil, err
	}
	if bare {
		return r, nil
	}

	top, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
	}
	if !samePath(top, abs) {
		return nil, fmt.Errorf("%s is inside %s: %w", path, top, ErrNotRepository)
	}
	return r, nil
}

// TopLevel returns the top of the working tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	r := &Repo{path: dir}
	top, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	return top, nil
}

// Path returns the absolute path of the repository.
func (r *Repo) Path() string {
	return r.path
}

// Name returns the repository name used in reports: the directory name for
// a superproject, joined with the submodule path for sub-repositories.
func (r *Repo) Name() string {
	return r.name
}

// IsBare reports whether the repository has no working tree.
func (r *Repo) IsBare(ctx context.Context) (bool, error) {
	out, err := r.output(ctx, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, fmt.Errorf("%s: %w", r.path, ErrNotRepository)
	}
	return out == "true", nil
}

// Remotes returns the configured remotes with their fetch URLs.
func (r *Repo) Remotes(ctx context.Context) ([]Remote, error) {
	out, err := r.output(ctx, "remote")
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}

	var remotes []Remote
	for _, name := range lines(out) {
		url, err := r.RemoteURL(ctx, name)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, Remote{Name: name, URL: url})
	}
	return remotes, nil
}

// RemoteURL returns the fetch URL of the named remote.
func (r *Repo) RemoteURL(ctx context.Context, name string) (string, error) {
	url, err := r.output(ctx, "remote", "get-url", name)
	if err != nil {
		return "", fmt.Errorf("failed to get url of remote %s: %w", name, err)
	}
	return url, nil
}

// BranchExists checks if a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, branch string) (bool, error) {
	res, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Checkout runs git checkout <branch>.
func (r *Repo) Checkout(ctx context.Context, branch string) (*Result, error) {
	return r.run(ctx, "checkout", branch)
}

// Fetch runs git fetch <remote> <refspec>.
func (r *Repo) Fetch(ctx context.Context, remote, refspec string) (*Result, error) {
	return r.run(ctx, "fetch", remote, refspec)
}

// SetUpstream makes local track the tracking branch.
func (r *Repo) SetUpstream(ctx context.Context, tracking, local string) (*Result, error) {
	return r.run(ctx, "branch", "--set-upstream-to", tracking, local)
}

// SubmoduleUpdate runs git submodule update --recursive --init.
func (r *Repo) SubmoduleUpdate(ctx context.Context) (*Result, error) {
	return r.run(ctx, "submodule", "update", "--recursive", "--init")
}

// run executes git in the repository. Commands that exit non-zero return a
// failed Result; only a command that could not be started is an error.
func (r *Repo) run(ctx context.Context, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Success: err == nil, Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run git %s: %w", strings.Join(args, " "), err)
		}
	}
	return res, nil
}

// output runs a query command and returns its trimmed stdout. A non-zero
// exit is an error carrying stderr.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	res, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func samePath(a, b string) bool {
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
