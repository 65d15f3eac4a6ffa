package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pders01/git-closest/internal/models"
)

// mainlineRefs are tried in order when resolving the master-like ref
var mainlineRefs = []string{
	"refs/heads/master",
	"refs/heads/main",
	"refs/remotes/origin/master",
	"refs/remotes/origin/main",
}

// Repo runs git commands against the working copy at Dir
type Repo struct {
	Dir string
}

// Open returns a Repo for dir
func Open(dir string) *Repo {
	return &Repo{Dir: dir}
}

// Root returns the working directory of the repository
func (r *Repo) Root() string {
	return r.Dir
}

func (r *Repo) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.SysProcAttr = sysProcAttr()
	return cmd
}

// IsGitRepo checks that Dir is the top of a git working copy
func (r *Repo) IsGitRepo() bool {
	if _, err := os.Stat(filepath.Join(r.Dir, ".git")); err != nil {
		return false
	}
	return r.command("rev-parse", "--git-dir").Run() == nil
}

// CurrentBranch returns the checked out branch name, or "" on a detached HEAD
func (r *Repo) CurrentBranch() (string, error) {
	output, err := r.command("symbolic-ref", "--quiet", "--short", "HEAD").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentCommit returns the current commit hash
func (r *Repo) CurrentCommit() (string, error) {
	output, err := r.command("rev-parse", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current commit: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentRef returns what is checked out: the branch name when on a branch,
// otherwise the commit hash
func (r *Repo) CurrentRef() (string, error) {
	branch, err := r.CurrentBranch()
	if err != nil {
		return "", err
	}
	if branch != "" {
		return branch, nil
	}
	return r.CurrentCommit()
}

// RefExists checks if a ref resolves to a commit
func (r *Repo) RefExists(ref string) bool {
	return r.command("rev-parse", "--verify", "--quiet", ref+"^{commit}").Run() == nil
}

// Commits lists every commit reachable from any ref, in git's native
// --all order, with strict ISO-8601 committer dates
func (r *Repo) Commits() ([]models.Commit, error) {
	output, err := r.command("log", "--all", "--format=%H%x09%cI").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	return parseCommits(string(output))
}

func parseCommits(output string) ([]models.Commit, error) {
	var commits []models.Commit
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, timestamp, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("unexpected git log line: %q", line)
		}
		commits = append(commits, models.Commit{Hash: hash, Timestamp: timestamp})
	}
	return commits, nil
}

// Checkout checks out ref onto the working directory. Refs that are not
// local branches leave HEAD detached.
func (r *Repo) Checkout(ref string) error {
	args := []string{"checkout", "--quiet"}
	isBranch := r.command("show-ref", "--verify", "--quiet", "refs/heads/"+ref).Run() == nil
	if !isBranch {
		args = append(args, "--detach")
	}
	args = append(args, ref)

	output, err := r.command(args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %s: %w", ref, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// HasUncommittedChanges checks if there are uncommitted or untracked changes
func (r *Repo) HasUncommittedChanges() (bool, error) {
	output, err := r.command("status", "--porcelain").Output()
	if err != nil {
		return false, fmt.Errorf("failed to check git status: %w", err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// MainlineRef returns the first existing master-like ref
func (r *Repo) MainlineRef() (string, error) {
	for _, ref := range mainlineRefs {
		if r.RefExists(ref) {
			return ref, nil
		}
	}
	return "", fmt.Errorf("no master-like ref found")
}

// IsAncestor reports whether commit is reachable from ref
func (r *Repo) IsAncestor(commit, ref string) (bool, error) {
	err := r.command("merge-base", "--is-ancestor", commit, ref).Run()
	if err == nil {
		return true, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check ancestry of %s: %w", commit, err)
}
