package search

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/testutil"
)

// fakeWorkspace materializes in-memory trees into a directory on Checkout
type fakeWorkspace struct {
	t         *testing.T
	root      string
	head      string
	history   []models.Commit
	trees     map[string]map[string]string
	failOn    map[string]error
	checkouts []string
	dirty     bool
	mainline  string
	ancestors map[string]bool
}

func newFakeWorkspace(t *testing.T, head string) *fakeWorkspace {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{".git/HEAD": "ref: refs/heads/" + head + "\n"})
	return &fakeWorkspace{
		t:      t,
		root:   root,
		head:   head,
		trees:  make(map[string]map[string]string),
		failOn: make(map[string]error),
	}
}

// addCommit appends a commit to the enumeration order
func (f *fakeWorkspace) addCommit(hash, timestamp string, files map[string]string) {
	f.history = append(f.history, models.Commit{Hash: hash, Timestamp: timestamp})
	f.trees[hash] = files
}

func (f *fakeWorkspace) Root() string { return f.root }

func (f *fakeWorkspace) IsGitRepo() bool { return true }

func (f *fakeWorkspace) HasUncommittedChanges() (bool, error) { return f.dirty, nil }

func (f *fakeWorkspace) CurrentRef() (string, error) { return f.head, nil }

func (f *fakeWorkspace) Commits() ([]models.Commit, error) { return f.history, nil }

func (f *fakeWorkspace) MainlineRef() (string, error) {
	if f.mainline == "" {
		return "", errors.New("no master-like ref found")
	}
	return f.mainline, nil
}

func (f *fakeWorkspace) IsAncestor(commit, ref string) (bool, error) {
	return f.ancestors[commit], nil
}

func (f *fakeWorkspace) Checkout(ref string) error {
	f.checkouts = append(f.checkouts, ref)
	if err, ok := f.failOn[ref]; ok {
		return err
	}

	entries, err := os.ReadDir(f.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(f.root, e.Name())); err != nil {
			return err
		}
	}

	testutil.WriteFiles(f.t, f.root, f.trees[ref])
	return nil
}

func (f *fakeWorkspace) lastCheckout() string {
	if len(f.checkouts) == 0 {
		return ""
	}
	return f.checkouts[len(f.checkouts)-1]
}

// collectingSink keeps every emitted record
type collectingSink struct {
	records []models.CommitRecord
	failAt  int
	onEmit  func(models.CommitRecord)
}

func (c *collectingSink) Emit(rec models.CommitRecord) error {
	if c.failAt != 0 && rec.CommitNumber == c.failAt {
		return errors.New("sink unavailable")
	}
	c.records = append(c.records, rec)
	if c.onEmit != nil {
		c.onEmit(rec)
	}
	return nil
}
