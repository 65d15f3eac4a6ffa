package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alpkeskin/gotoon"
	"github.com/google/uuid"
	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/similarity"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	diffRepo       string
	diffSnapshot   string
	diffHintList   string
	diffExclude    []string
	diffIgnoreFile string
	diffAllowDirty bool
	diffJSON       bool
	diffToon       bool
)

var diffCmd = &cobra.Command{
	Use:   "diff --git <repo> --non-git <snapshot> <commit>",
	Short: "Compare one commit against the snapshot file by file",
	Long: `Check out a single commit and list which files:
  - match the snapshot
  - differ from the snapshot
  - exist only in the commit
  - exist only in the snapshot

Use it to inspect the best match reported by 'closest find'. The original
checkout is restored afterwards.

Example:
  closest diff --git ./service --non-git /srv/service 3f2a9c1`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	flags := diffCmd.Flags()
	flags.StringVar(&diffRepo, "git", "", "Repository containing the commit")
	flags.StringVar(&diffSnapshot, "non-git", "", "Untracked snapshot directory")
	flags.StringVar(&diffHintList, "unchanged-files-hint-list", "", "File listing paths expected to be unchanged, one per line")
	flags.StringArrayVar(&diffExclude, "exclude", nil, "Glob of paths to ignore on both sides (repeatable)")
	flags.StringVar(&diffIgnoreFile, "ignore-file", "", "gitignore-syntax file of paths to ignore on both sides")
	flags.BoolVar(&diffAllowDirty, "allow-dirty", false, "Proceed even if the repository has uncommitted changes")
	flags.BoolVar(&diffJSON, "json", false, "Output as JSON")
	flags.BoolVar(&diffToon, "toon", false, "Output in LLM-friendly toon format")

	diffCmd.MarkFlagsMutuallyExclusive("json", "toon")
}

type commitDiff struct {
	Record models.CommitRecord `json:"record"`
	Files  similarity.FileDiff `json:"files"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	params := models.SearchParameters{
		RepoPath:     diffRepo,
		SnapshotPath: diffSnapshot,
		StartCommit:  args[0],
		HintListPath: diffHintList,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	logger := log.WithField("run", uuid.NewString())

	searcher, err := newSearcher(diffRepo, diffExclude, diffIgnoreFile, diffAllowDirty, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ins, err := searcher.Inspect(ctx, params)
	if ins.RestoreErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not restore the original checkout of %s: %v\n", diffRepo, ins.RestoreErr)
	}
	if err != nil {
		return err
	}

	result := commitDiff{Record: ins.Record, Files: ins.Diff}
	out := cmd.OutOrStdout()

	if diffJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	if diffToon {
		output, err := gotoon.Encode(result)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(out, output)
		return nil
	}

	printDiff(out, result)
	return nil
}

func printDiff(w io.Writer, d commitDiff) {
	fmt.Fprintf(w, "Commit %s (%s)\n", d.Record.CommitHash, d.Record.Datetime)
	fmt.Fprintf(w, "Score %d: %d matching, %d mismatched, %d one-sided\n",
		d.Record.Score, d.Record.Matches, d.Record.Mismatches, d.Record.OneSidedFiles)
	if d.Record.MatchedHintFiles != nil {
		fmt.Fprintf(w, "Hint files matched: %d\n", *d.Record.MatchedHintFiles)
	}

	printPaths(w, "Mismatched", "~", d.Files.Mismatched)
	printPaths(w, "Only in commit", "-", d.Files.OnlyInTree)
	printPaths(w, "Only in snapshot", "+", d.Files.OnlyInSnap)
}

func printPaths(w io.Writer, title, marker string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(paths))
	for _, path := range paths {
		fmt.Fprintf(w, "  %s %s\n", marker, path)
	}
}
