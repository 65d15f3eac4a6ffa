package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pders01/git-closest/internal/config"
	"github.com/pders01/git-closest/internal/digest"
	"github.com/pders01/git-closest/internal/git"
	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/report"
	"github.com/pders01/git-closest/internal/search"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	findRepo        string
	findSnapshot    string
	findOutput      string
	findStartCommit string
	findStartDate   string
	findHintList    string
	findExclude     []string
	findIgnoreFile  string
	findAllowDirty  bool
)

var findCmd = &cobra.Command{
	Use:   "find --git <repo> --non-git <snapshot>",
	Short: "Find the commit closest to an untracked snapshot",
	Long: `Check out every commit of the repository in turn and compare its tree
against the snapshot directory.

One JSON record per evaluated commit is logged, and appended to the
output file when --jsonl-output is given. Records that improved on the
best score so far are marked as a new best.

The repository must have no uncommitted changes unless --allow-dirty is
set, since local changes would be carried into every checkout.

Example:
  closest find --git ./service --non-git /srv/service --jsonl-output scan.jsonl
  closest find --git . --non-git ../release --latest-commit 3f2a9c1
  closest find --git . --non-git ../release --latest-date 2024-06-01T00:00:00+00:00`,
	Args: cobra.NoArgs,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	flags := findCmd.Flags()
	flags.StringVar(&findRepo, "git", "", "Repository to scan (its working directory is checked out in place)")
	flags.StringVar(&findSnapshot, "non-git", "", "Untracked snapshot directory to match")
	flags.StringVar(&findOutput, "jsonl-output", "", "Append one JSON record per commit to this file")
	flags.StringVar(&findOutput, "jsonl", "", "Alias for --jsonl-output")
	flags.StringVar(&findStartCommit, "latest-commit", "", "Start at this commit (full hash or prefix) and scan older commits")
	flags.StringVar(&findStartDate, "latest-date", "", "Start at the first commit dated at or before this ISO-8601 timestamp")
	flags.StringVar(&findHintList, "unchanged-files-hint-list", "", "File listing paths expected to be unchanged, one per line")
	flags.StringArrayVar(&findExclude, "exclude", nil, "Glob of paths to ignore on both sides (repeatable)")
	flags.StringVar(&findIgnoreFile, "ignore-file", "", "gitignore-syntax file of paths to ignore on both sides")
	flags.BoolVar(&findAllowDirty, "allow-dirty", false, "Scan even if the repository has uncommitted changes")
	flags.String("algorithm", "", "Content digest (sha1, sha256)")
	flags.Int("workers", 0, "Parallel workers hashing the snapshot")

	flags.MarkHidden("jsonl")
	findCmd.MarkFlagsMutuallyExclusive("latest-commit", "latest-date")

	viper.BindPFlag(config.KeyHashAlgorithm, flags.Lookup("algorithm"))
	viper.BindPFlag(config.KeyHashWorkers, flags.Lookup("workers"))
}

func runFind(cmd *cobra.Command, args []string) error {
	params := models.SearchParameters{
		RepoPath:     findRepo,
		SnapshotPath: findSnapshot,
		StartCommit:  findStartCommit,
		StartDate:    findStartDate,
		HintListPath: findHintList,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	logger := log.WithField("run", uuid.NewString())

	sinks := []report.Sink{report.LogSink{Logger: logger}}
	if findOutput != "" {
		w, err := report.OpenJSONL(findOutput)
		if err != nil {
			return err
		}
		defer w.Close()
		sinks = append(sinks, w)
	}

	searcher, err := newSearcher(findRepo, findExclude, findIgnoreFile, findAllowDirty, report.Multi(sinks...), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{
		"repo":     findRepo,
		"snapshot": findSnapshot,
	}).Info("starting search")

	out, err := searcher.Run(ctx, params)
	printOutcome(cmd.OutOrStdout(), out, err)

	if out.RestoreErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not restore the original checkout of %s: %v\n", findRepo, out.RestoreErr)
	}

	return err
}

// newSearcher builds a Searcher over the repository at repo from the loaded
// config plus the per-command exclusion flags
func newSearcher(repo string, exclude []string, ignoreFile string, allowDirty bool, sink report.Sink, logger log.FieldLogger) (*search.Searcher, error) {
	patterns := append(config.GetExcludePatterns(), exclude...)
	matcher, err := digest.NewMatcher(patterns, ignoreFile)
	if err != nil {
		return nil, err
	}

	hasher, err := digest.NewHasher(digest.Options{
		Algorithm: config.GetHashAlgorithm(),
		ChunkSize: config.GetHashChunkSize(),
		Retries:   config.GetHashRetries(),
		Matcher:   matcher,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return search.New(git.Open(repo), sink, search.Options{
		Hasher:          hasher,
		SnapshotWorkers: config.GetHashWorkers(),
		Lineage:         config.GetLineageEnabled(),
		AllowDirty:      allowDirty || config.GetAllowDirty(),
		Logger:          logger,
	})
}

func printOutcome(w io.Writer, out search.Outcome, runErr error) {
	if !out.Found {
		if runErr == nil {
			fmt.Fprintln(w, "No matching commit found")
		}
		return
	}

	if runErr != nil {
		fmt.Fprintf(w, "Search stopped after %d of %d commits. Best so far:\n", out.Evaluated, out.Candidates)
	} else {
		fmt.Fprintf(w, "Evaluated %d commits. Best match:\n", out.Evaluated)
	}

	best := out.Best
	fmt.Fprintf(w, "  Commit:     %s\n", best.CommitHash)
	fmt.Fprintf(w, "  Date:       %s\n", best.Datetime)
	fmt.Fprintf(w, "  Position:   #%d\n", best.CommitNumber)
	fmt.Fprintf(w, "  Score:      %d\n", best.Score)
	fmt.Fprintf(w, "  Matches:    %d\n", best.Matches)
	fmt.Fprintf(w, "  Mismatches: %d\n", best.Mismatches)
	fmt.Fprintf(w, "  One-sided:  %d\n", best.OneSidedFiles)
	if best.MatchedHintFiles != nil {
		fmt.Fprintf(w, "  Hints:      %d\n", *best.MatchedHintFiles)
	}
	if best.InMasterLineage != nil {
		fmt.Fprintf(w, "  Mainline:   %t\n", *best.InMasterLineage)
	}
}
