package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/report"
	"github.com/pders01/git-closest/internal/search"
	"github.com/pders01/git-closest/internal/testutil"
)

func TestFindCommand(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()

	repo.CreateFile("main.go", "package main\n")
	head := repo.Commit("Add main")

	snapshot := testutil.NewSnapshotDir(t, map[string]string{
		"README.md": "# Test Repository\n",
		"main.go":   "package main\n",
	})
	output := filepath.Join(t.TempDir(), "scan.jsonl")

	stdout, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot, "--jsonl-output", output)
	if err != nil {
		t.Fatalf("find command failed: %v", err)
	}

	if !strings.Contains(stdout, head) {
		t.Errorf("expected best commit %s in output, got:\n%s", head, stdout)
	}
	if !strings.Contains(stdout, "Score:      2") {
		t.Errorf("expected score 2 in output, got:\n%s", stdout)
	}

	records, err := report.LoadRecords(output)
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CommitHash != head || !records[0].IsBest() {
		t.Errorf("expected first record to be the new best %s, got %+v", head, records[0])
	}
	if records[1].IsBest() {
		t.Error("older commit with a lower score should not be marked best")
	}

	if branch := repo.CurrentBranch(); branch != "main" {
		t.Errorf("expected branch main to be restored, got %s", branch)
	}
}

func TestFindAppendsWithAlias(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()

	snapshot := testutil.NewSnapshotDir(t, map[string]string{"README.md": "# Test Repository\n"})
	output := filepath.Join(t.TempDir(), "scan.jsonl")

	for i := 0; i < 2; i++ {
		if _, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot, "--jsonl", output); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	records, err := report.LoadRecords(output)
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected one record per run, got %d", len(records))
	}
	for _, rec := range records {
		if rec.CommitNumber != 1 {
			t.Errorf("expected each run to number from 1, got %d", rec.CommitNumber)
		}
	}
}

func TestFindHintsAndExclude(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()

	repo.CreateFile("config.yaml", "env: dev\n")
	repo.Commit("Add config")

	snapshot := testutil.NewSnapshotDir(t, map[string]string{
		"README.md":    "# Test Repository\n",
		"config.yaml":  "env: prod\n",
		"logs/app.log": "started\n",
	})
	hintFile := filepath.Join(t.TempDir(), "hints.txt")
	if err := os.WriteFile(hintFile, []byte("./README.md\n\nconfig.yaml\n"), 0644); err != nil {
		t.Fatalf("failed to write hint list: %v", err)
	}
	output := filepath.Join(t.TempDir(), "scan.jsonl")

	_, _, err := executeCommand(t, "find",
		"--git", repo.Path,
		"--non-git", snapshot,
		"--unchanged-files-hint-list", hintFile,
		"--exclude", "logs/**",
		"--exclude", "config.yaml",
		"--jsonl-output", output,
	)
	if err != nil {
		t.Fatalf("find command failed: %v", err)
	}

	records, err := report.LoadRecords(output)
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	for _, rec := range records {
		if rec.OneSidedFiles != 0 || rec.Mismatches != 0 {
			t.Errorf("excluded paths should not be compared: %+v", rec)
		}
		if rec.MatchedHintFiles == nil || *rec.MatchedHintFiles != 1 {
			t.Errorf("expected 1 matched hint, got %v", rec.MatchedHintFiles)
		}
	}
}

func TestFindRefusesDirtyRepository(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()

	repo.CreateFile("README.md", "local edit\n")
	snapshot := testutil.NewSnapshotDir(t, map[string]string{"README.md": "x"})

	_, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot)
	if !errors.Is(err, search.ErrDirtyWorktree) {
		t.Fatalf("expected dirty worktree error, got %v", err)
	}

	if _, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot, "--allow-dirty"); err != nil {
		t.Fatalf("expected --allow-dirty to scan, got %v", err)
	}
}

func TestFindValidation(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()
	snapshot := testutil.NewSnapshotDir(t, map[string]string{"README.md": "x"})

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "missing repository",
			args:    []string{"find", "--non-git", snapshot},
			wantErr: models.ErrMissingPath,
		},
		{
			name:    "missing snapshot",
			args:    []string{"find", "--git", repo.Path},
			wantErr: models.ErrMissingPath,
		},
		{
			name:    "snapshot does not exist",
			args:    []string{"find", "--git", repo.Path, "--non-git", filepath.Join(snapshot, "nope")},
			wantErr: search.ErrSnapshotMissing,
		},
		{
			name:    "not a repository",
			args:    []string{"find", "--git", t.TempDir(), "--non-git", snapshot},
			wantErr: search.ErrNotRepository,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFindConflictingBounds(t *testing.T) {
	_, _, err := executeCommand(t, "find", "--git", ".", "--non-git", ".",
		"--latest-commit", "abc", "--latest-date", "2024-01-01")
	if err == nil {
		t.Fatal("expected an error when both bounds are given")
	}
}

func TestFindUnknownAlgorithm(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()
	snapshot := testutil.NewSnapshotDir(t, map[string]string{"README.md": "x"})

	_, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot, "--algorithm", "md5")
	if err == nil || !strings.Contains(err.Error(), "unsupported hash algorithm") {
		t.Fatalf("expected unsupported algorithm error, got %v", err)
	}
}

func TestFindStartDateBeforeHistory(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()
	snapshot := testutil.NewSnapshotDir(t, map[string]string{"README.md": "x"})

	stdout, _, err := executeCommand(t, "find", "--git", repo.Path, "--non-git", snapshot, "--latest-date", "1999-01-01T00:00:00+00:00")
	if err == nil {
		t.Fatal("expected an error for a date before every commit")
	}
	if strings.Contains(stdout, "Best") {
		t.Errorf("unexpected best match output:\n%s", stdout)
	}
}
