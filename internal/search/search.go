// Package search finds the commit whose tree is most similar to an untracked
// snapshot by checking out every candidate commit in turn.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pders01/git-closest/internal/commits"
	"github.com/pders01/git-closest/internal/digest"
	"github.com/pders01/git-closest/internal/fsutil"
	"github.com/pders01/git-closest/internal/hints"
	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/report"
	"github.com/pders01/git-closest/internal/similarity"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNotRepository is returned when the repository location is not the
	// top of a git working copy
	ErrNotRepository = errors.New("not a git repository")

	// ErrSnapshotMissing is returned when the snapshot location does not exist
	ErrSnapshotMissing = errors.New("snapshot does not exist")

	// ErrDirtyWorktree is returned when the repository has local changes and
	// AllowDirty is not set
	ErrDirtyWorktree = errors.New("repository has uncommitted changes")

	// ErrNoCommit is returned by Inspect when no commit was given
	ErrNoCommit = errors.New("no commit given")
)

// Workspace is a repository whose working directory is checked out in place
type Workspace interface {
	commits.Lister
	Root() string
	IsGitRepo() bool
	HasUncommittedChanges() (bool, error)
	CurrentRef() (string, error)
	Checkout(ref string) error
	MainlineRef() (string, error)
	IsAncestor(commit, ref string) (bool, error)
}

// Options configures a Searcher
type Options struct {
	Hasher *digest.Hasher
	// SnapshotWorkers is the parallelism used to hash the snapshot copy.
	// The repository side is always hashed by a single worker.
	SnapshotWorkers int
	Lineage         bool
	AllowDirty      bool
	Logger          log.FieldLogger
}

// Outcome is the result of a completed or interrupted search
type Outcome struct {
	Found      bool
	Best       models.CommitRecord
	Candidates int
	Evaluated  int
	// RestoreErr is set when the original checkout could not be restored.
	// It never replaces the search result.
	RestoreErr error
}

// Searcher runs one similarity search at a time against a Workspace
type Searcher struct {
	ws       Workspace
	sink     report.Sink
	hasher   *digest.Hasher
	opts     Options
	logger   log.FieldLogger
	state    State
	tempCopy func(src string) (string, func() error, error)
}

// New creates a Searcher emitting records to sink
func New(ws Workspace, sink report.Sink, opts Options) (*Searcher, error) {
	hasher := opts.Hasher
	if hasher == nil {
		var err error
		hasher, err = digest.NewHasher(digest.Options{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Searcher{
		ws:       ws,
		sink:     sink,
		hasher:   hasher,
		opts:     opts,
		logger:   logger,
		state:    Idle,
		tempCopy: fsutil.TempCopy,
	}, nil
}

// State returns the current state of the searcher
func (s *Searcher) State() State {
	return s.state
}

func (s *Searcher) setState(state State) {
	s.logger.WithField("state", state).Debug("search state changed")
	s.state = state
}

// prepared is everything computed once before the scan
type prepared struct {
	candidates []models.Commit
	snapshot   models.FileDigestMap
	hints      []string
	mainline   string
	cleanup    func() error
}

// Run performs the search. The working directory of the workspace is
// restored to its original checkout on every exit path once scanning began.
func (s *Searcher) Run(ctx context.Context, params models.SearchParameters) (out Outcome, err error) {
	s.setState(Preparing)
	defer func() {
		if err != nil {
			s.setState(Failed)
			return
		}
		s.setState(Done)
	}()

	prep, err := s.prepare(ctx, params)
	if err != nil {
		return out, err
	}
	defer func() {
		if cerr := prep.cleanup(); cerr != nil {
			s.logger.WithError(cerr).Warn("failed to remove snapshot copy")
		}
	}()

	out.Candidates = len(prep.candidates)
	if out.Candidates == 0 {
		s.logger.Warn("no candidate commits to evaluate")
		return out, nil
	}

	original, err := s.ws.CurrentRef()
	if err != nil {
		return out, fmt.Errorf("failed to record current checkout: %w", err)
	}
	s.logger.WithField("ref", original).Info("current checkout recorded")

	defer func() {
		s.setState(Restoring)
		out.RestoreErr = s.restore(original)
	}()

	s.setState(Scanning)
	err = s.scan(ctx, prep, &out)
	return out, err
}

func (s *Searcher) prepare(ctx context.Context, params models.SearchParameters) (*prepared, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if !s.ws.IsGitRepo() {
		return nil, fmt.Errorf("%s: %w", s.ws.Root(), ErrNotRepository)
	}

	info, err := os.Stat(params.SnapshotPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", params.SnapshotPath, ErrSnapshotMissing)
	}

	if !s.opts.AllowDirty {
		dirty, err := s.ws.HasUncommittedChanges()
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, fmt.Errorf("%s: %w (commit or stash them, or allow a dirty tree)", s.ws.Root(), ErrDirtyWorktree)
		}
	}

	candidates, err := commits.Select(s.ws, commits.Bound{
		Commit: params.StartCommit,
		Date:   params.StartDate,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("commits", len(candidates)).Info("candidate commits selected")

	prep := &prepared{candidates: candidates}

	if params.HintListPath != "" {
		prep.hints, err = hints.Load(params.HintListPath)
		if err != nil {
			return nil, err
		}
		s.logger.WithField("hints", len(prep.hints)).Info("hint list loaded")
	}

	dir, cleanup, err := s.tempCopy(params.SnapshotPath)
	if err != nil {
		return nil, err
	}

	prep.snapshot, err = s.hasher.WithWorkers(s.opts.SnapshotWorkers).Collect(ctx, dir)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("failed to hash snapshot: %w", err)
	}
	prep.cleanup = cleanup
	s.logger.WithField("files", prep.snapshot.Len()).Info("snapshot hashed")

	if s.opts.Lineage {
		if ref, err := s.ws.MainlineRef(); err != nil {
			s.logger.WithError(err).Debug("lineage disabled")
		} else {
			prep.mainline = ref
			s.logger.WithField("ref", ref).Info("using mainline ref for lineage")
		}
	}

	return prep, nil
}

// scan folds over the candidates keeping the first commit with the highest
// score
func (s *Searcher) scan(ctx context.Context, prep *prepared, out *Outcome) error {
	bestScore := math.MinInt
	total := len(prep.candidates)

	for i, commit := range prep.candidates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("search interrupted after %d of %d commits: %w", i, total, err)
		}

		number := i + 1
		rec, _, err := s.evaluate(ctx, number, commit, prep)
		if err != nil {
			return fmt.Errorf("failed to evaluate commit %d (%s): %w", number, commit.Hash, err)
		}

		improved := rec.Score > bestScore
		if improved {
			rec.Best = models.BestMarker
		}

		if err := s.sink.Emit(rec); err != nil {
			return fmt.Errorf("failed to emit record for commit %d: %w", number, err)
		}
		out.Evaluated++

		// only records that reached the sink may become the best
		if improved {
			bestScore = rec.Score
			out.Best = rec
			out.Found = true
		}
	}

	return nil
}

func (s *Searcher) evaluate(ctx context.Context, number int, commit models.Commit, prep *prepared) (models.CommitRecord, models.FileDigestMap, error) {
	if err := s.ws.Checkout(commit.Hash); err != nil {
		return models.CommitRecord{}, nil, err
	}

	tree, err := s.hasher.WithWorkers(1).Collect(ctx, s.ws.Root())
	if err != nil {
		return models.CommitRecord{}, nil, err
	}

	rec := models.NewCommitRecord(number, commit, similarity.Compare(tree, prep.snapshot))

	if prep.hints != nil {
		matched := similarity.MatchedHints(prep.hints, tree, prep.snapshot)
		rec.MatchedHintFiles = &matched
	}

	if prep.mainline != "" {
		inLineage, err := s.ws.IsAncestor(commit.Hash, prep.mainline)
		if err != nil {
			return models.CommitRecord{}, nil, err
		}
		rec.InMasterLineage = &inLineage
	}

	return rec, tree, nil
}

// Inspection is the per-file comparison of a single commit
type Inspection struct {
	Record     models.CommitRecord
	Diff       similarity.FileDiff
	RestoreErr error
}

// Inspect compares the single commit named by params.StartCommit against the
// snapshot. The checkout is restored the same way Run restores it. Nothing
// is emitted to the sink.
func (s *Searcher) Inspect(ctx context.Context, params models.SearchParameters) (ins Inspection, err error) {
	if params.StartCommit == "" {
		return ins, ErrNoCommit
	}

	s.setState(Preparing)
	defer func() {
		if err != nil {
			s.setState(Failed)
			return
		}
		s.setState(Done)
	}()

	prep, err := s.prepare(ctx, params)
	if err != nil {
		return ins, err
	}
	defer func() {
		if cerr := prep.cleanup(); cerr != nil {
			s.logger.WithError(cerr).Warn("failed to remove snapshot copy")
		}
	}()

	original, err := s.ws.CurrentRef()
	if err != nil {
		return ins, fmt.Errorf("failed to record current checkout: %w", err)
	}
	defer func() {
		s.setState(Restoring)
		ins.RestoreErr = s.restore(original)
	}()

	s.setState(Scanning)
	commit := prep.candidates[0]
	rec, tree, err := s.evaluate(ctx, 1, commit, prep)
	if err != nil {
		return ins, fmt.Errorf("failed to evaluate commit %s: %w", commit.Hash, err)
	}

	ins.Record = rec
	ins.Diff = similarity.Diff(tree, prep.snapshot)
	return ins, nil
}

func (s *Searcher) restore(original string) error {
	if err := s.ws.Checkout(original); err != nil {
		s.logger.WithError(err).WithField("ref", original).Warn("failed to restore original checkout")
		return err
	}
	s.logger.WithField("ref", original).Info("original checkout restored")
	return nil
}
