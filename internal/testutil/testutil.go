package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TempGitRepo is a git repository in a temporary directory
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates a temporary git repository with one commit
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "ggr-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return initRepo(t, tmpDir)
}

// NewTempGitRepoAt creates a git repository with one commit at path, which
// must not exist yet
func NewTempGitRepoAt(t *testing.T, path string) *TempGitRepo {
	t.Helper()

	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}
	return initRepo(t, path)
}

func initRepo(t *testing.T, dir string) *TempGitRepo {
	t.Helper()

	repo := &TempGitRepo{Path: dir, T: t}
	repo.Git("init")
	repo.configureUser()
	repo.CreateFile("README.md", "# Test Repository\n")
	repo.Commit("Initial commit")
	return repo
}

// NewBareRepo creates an empty bare repository at path. Name it "<project>.git"
// to get a remote URL that ends in the Gerrit project name.
func NewBareRepo(t *testing.T, path string) *TempGitRepo {
	t.Helper()

	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create bare repo dir: %v", err)
	}
	repo := &TempGitRepo{Path: path, T: t}
	repo.Git("init", "--bare")
	return repo
}

// Clone clones url into path
func Clone(t *testing.T, url, path string) *TempGitRepo {
	t.Helper()

	cmd := exec.Command("git", "clone", url, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to clone %s: %v\n%s", url, err, out)
	}
	repo := &TempGitRepo{Path: path, T: t}
	repo.configureUser()
	return repo
}

func (r *TempGitRepo) configureUser() {
	r.T.Helper()
	r.Git("config", "user.name", "Test User")
	r.Git("config", "user.email", "test@example.com")
	// Submodules cloned from local paths need the file protocol.
	r.Git("config", "protocol.file.allow", "always")
}

// Cleanup removes the temporary git repository
func (r *TempGitRepo) Cleanup() {
	r.T.Helper()
	if err := os.RemoveAll(r.Path); err != nil {
		r.T.Errorf("failed to cleanup temp repo: %v", err)
	}
}

// Git runs git in the repository and returns its trimmed output. It fails
// the test if git fails.
func (r *TempGitRepo) Git(args ...string) string {
	r.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.T.Fatalf("in %s, git %s: %v\n%s", filepath.Base(r.Path), strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
}

// Commit stages and commits all changes
func (r *TempGitRepo) Commit(message string) {
	r.T.Helper()
	r.Git("add", ".")
	r.Git("commit", "-m", message)
}

// Head returns the commit hash of HEAD
func (r *TempGitRepo) Head() string {
	r.T.Helper()
	return r.Git("rev-parse", "HEAD")
}

// AddRemote adds a remote
func (r *TempGitRepo) AddRemote(name, url string) {
	r.T.Helper()
	r.Git("remote", "add", name, url)
}

// AddSubmodule adds the repository at url as a submodule at path and
// commits it
func (r *TempGitRepo) AddSubmodule(url, path string) *TempGitRepo {
	r.T.Helper()
	r.Git("-c", "protocol.file.allow=always", "submodule", "add", url, path)
	r.Git("commit", "-m", "Add submodule "+path)

	sub := &TempGitRepo{Path: filepath.Join(r.Path, path), T: r.T}
	sub.configureUser()
	return sub
}

// PushChange commits a file and pushes the commit to ref on remote, the
// way Gerrit stores a patch set under refs/changes/. It returns the commit
// hash.
func (r *TempGitRepo) PushChange(remote, ref, file string) string {
	r.T.Helper()
	r.CreateFile(file, "change for "+ref+"\n")
	r.Commit("Change " + ref)
	commit := r.Head()
	r.Git("push", remote, "HEAD:"+ref)
	return commit
}

// GetBranches returns all branches in the repository
func (r *TempGitRepo) GetBranches() []string {
	r.T.Helper()
	return parseGitBranches(r.Git("branch", "--list"))
}

// BranchExists checks if a branch exists
func (r *TempGitRepo) BranchExists(branch string) bool {
	r.T.Helper()

	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = r.Path
	return cmd.Run() == nil
}

// BranchCommit returns the commit a local branch points to
func (r *TempGitRepo) BranchCommit(branch string) string {
	r.T.Helper()
	return r.Git("rev-parse", "refs/heads/"+branch)
}

// CurrentBranch returns the checked out branch
func (r *TempGitRepo) CurrentBranch() string {
	r.T.Helper()
	return r.Git("rev-parse", "--abbrev-ref", "HEAD")
}

// Upstream returns the upstream of a local branch
func (r *TempGitRepo) Upstream(branch string) string {
	r.T.Helper()
	return r.Git("rev-parse", "--abbrev-ref", branch+"@{u}")
}

// parseGitBranches parses git branch output
func parseGitBranches(output string) []string {
	var branches []string
	for _, line := range strings.Split(output, "\n") {
		branch := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if branch != "" {
			branches = append(branches, branch)
		}
	}
	return branches
}
