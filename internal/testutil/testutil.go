package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TempGitRepo creates a temporary git repository for testing
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates a new temporary git repository on branch main with
// one initial commit containing README.md
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	// Create temp directory
	tmpDir, err := os.MkdirTemp("", "closest-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	repo := &TempGitRepo{
		Path: tmpDir,
		T:    t,
	}

	// Initialize git repo and configure user (required for commits)
	setupCmds := [][]string{
		{"init", "--quiet"},
		{"symbolic-ref", "HEAD", "refs/heads/main"},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"config", "commit.gpgsign", "false"},
	}

	for _, args := range setupCmds {
		if _, err := repo.run(nil, args...); err != nil {
			os.RemoveAll(tmpDir)
			t.Fatalf("failed to set up git repo (git %s): %v", strings.Join(args, " "), err)
		}
	}

	// Create initial commit
	repo.CreateFile("README.md", "# Test Repository\n")
	repo.Commit("Initial commit")

	return repo
}

func (r *TempGitRepo) run(env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

func (r *TempGitRepo) mustRun(env []string, args ...string) string {
	r.T.Helper()
	output, err := r.run(env, args...)
	if err != nil {
		r.T.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
	return output
}

// Cleanup removes the temporary git repository
func (r *TempGitRepo) Cleanup() {
	r.T.Helper()
	if err := os.RemoveAll(r.Path); err != nil {
		r.T.Errorf("failed to cleanup temp repo: %v", err)
	}
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()
	WriteFiles(r.T, r.Path, map[string]string{name: content})
}

// RemoveFile deletes a file from the working directory
func (r *TempGitRepo) RemoveFile(name string) {
	r.T.Helper()
	if err := os.Remove(filepath.Join(r.Path, filepath.FromSlash(name))); err != nil {
		r.T.Fatalf("failed to remove file: %v", err)
	}
}

// Commit stages and commits all changes and returns the new commit hash
func (r *TempGitRepo) Commit(message string) string {
	r.T.Helper()
	return r.CommitAt(message, "")
}

// CommitAt is Commit with a fixed author and committer date (any format git
// accepts, e.g. "2024-01-02T03:04:05+00:00"). An empty date uses the clock.
func (r *TempGitRepo) CommitAt(message, date string) string {
	r.T.Helper()

	var env []string
	if date != "" {
		env = []string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date}
	}

	r.mustRun(nil, "add", "--all", ".")
	r.mustRun(env, "commit", "--quiet", "--allow-empty", "-m", message)
	return r.Head()
}

// Head returns the current commit hash
func (r *TempGitRepo) Head() string {
	r.T.Helper()
	return r.mustRun(nil, "rev-parse", "HEAD")
}

// CurrentBranch returns the checked out branch, or "HEAD" when detached
func (r *TempGitRepo) CurrentBranch() string {
	r.T.Helper()
	return r.mustRun(nil, "rev-parse", "--abbrev-ref", "HEAD")
}

// Checkout checks out a branch or commit
func (r *TempGitRepo) Checkout(ref string) {
	r.T.Helper()
	r.mustRun(nil, "checkout", "--quiet", ref)
}

// CreateBranch creates a branch at the current commit and checks it out
func (r *TempGitRepo) CreateBranch(branch string) {
	r.T.Helper()
	r.mustRun(nil, "checkout", "--quiet", "-b", branch)
}

// BranchExists checks if a branch exists
func (r *TempGitRepo) BranchExists(branch string) bool {
	r.T.Helper()
	_, err := r.run(nil, "rev-parse", "--verify", "--quiet", branch)
	return err == nil
}

// IsClean reports whether the working tree has no changes
func (r *TempGitRepo) IsClean() bool {
	r.T.Helper()
	return r.mustRun(nil, "status", "--porcelain") == ""
}

// WriteFiles writes files (forward-slash relative names) under dir
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

// NewSnapshotDir creates an untracked directory holding files
func NewSnapshotDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}
