package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/git-closest/internal/models"
	"github.com/pders01/git-closest/internal/report"
	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <results.jsonl>",
	Short: "Summarize the records of a previous search",
	Long: `Display statistics about a search result file including:
  - Number of evaluated commits and the best match
  - Score range and distribution
  - How often the running best improved
  - Mainline lineage and hint coverage, when recorded

Examples:
  closest stats scan.jsonl
  closest stats scan.jsonl --json
  closest stats scan.jsonl --toon`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
	statsCmd.MarkFlagsMutuallyExclusive("json", "toon")
}

type scanStats struct {
	TotalCommits    int                  `json:"total_commits"`
	Best            *models.CommitRecord `json:"best,omitempty"`
	Improvements    int                  `json:"improvements"`
	MinScore        int                  `json:"min_score"`
	MaxScore        int                  `json:"max_score"`
	MeanScore       float64              `json:"mean_score"`
	TiedForBest     int                  `json:"tied_for_best"`
	OldestCommit    string               `json:"oldest_commit_date,omitempty"`
	NewestCommit    string               `json:"newest_commit_date,omitempty"`
	InMainline      int                  `json:"in_mainline"`
	OutsideMainline int                  `json:"outside_mainline"`
	MaxHintMatches  *int                 `json:"max_hint_matches,omitempty"`
	TopScores       []scoreCount         `json:"top_scores"`
}

type scoreCount struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

func runStats(cmd *cobra.Command, args []string) error {
	records, err := report.LoadRecords(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}

	stats := summarize(records)

	if statsJSON {
		output, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	if statsToon {
		output, err := gotoon.Encode(stats)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(out, output)
		return nil
	}

	printStats(out, stats)
	return nil
}

// summarize expects records in evaluation order
func summarize(records []models.CommitRecord) *scanStats {
	stats := &scanStats{
		TotalCommits: len(records),
		MinScore:     records[0].Score,
		MaxScore:     records[0].Score,
	}

	byScore := make(map[int]int)
	total := 0

	for i, rec := range records {
		total += rec.Score
		byScore[rec.Score]++

		if rec.IsBest() {
			stats.Improvements++
		}
		if rec.Score < stats.MinScore {
			stats.MinScore = rec.Score
		}
		if stats.Best == nil || rec.Score > stats.Best.Score {
			stats.Best = &records[i]
			stats.MaxScore = rec.Score
		}

		if stats.OldestCommit == "" || rec.Datetime < stats.OldestCommit {
			stats.OldestCommit = rec.Datetime
		}
		if rec.Datetime > stats.NewestCommit {
			stats.NewestCommit = rec.Datetime
		}

		if rec.InMasterLineage != nil {
			if *rec.InMasterLineage {
				stats.InMainline++
			} else {
				stats.OutsideMainline++
			}
		}

		if rec.MatchedHintFiles != nil {
			if stats.MaxHintMatches == nil || *rec.MatchedHintFiles > *stats.MaxHintMatches {
				v := *rec.MatchedHintFiles
				stats.MaxHintMatches = &v
			}
		}
	}

	stats.MeanScore = float64(total) / float64(len(records))
	stats.TiedForBest = byScore[stats.MaxScore]

	for score, count := range byScore {
		stats.TopScores = append(stats.TopScores, scoreCount{Score: score, Count: count})
	}
	sort.Slice(stats.TopScores, func(i, j int) bool {
		return stats.TopScores[i].Score > stats.TopScores[j].Score
	})
	if len(stats.TopScores) > 5 {
		stats.TopScores = stats.TopScores[:5]
	}

	return stats
}

func printStats(w io.Writer, stats *scanStats) {
	fmt.Fprintln(w, "Search Statistics")
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Commits Evaluated: %d\n", stats.TotalCommits)
	if stats.OldestCommit != "" {
		fmt.Fprintf(w, "Date Range:        %s to %s\n", stats.OldestCommit, stats.NewestCommit)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Best Match:")
	fmt.Fprintf(w, "  %s  score %d  (#%d, %s)\n", stats.Best.CommitHash, stats.Best.Score, stats.Best.CommitNumber, stats.Best.Datetime)
	if stats.TiedForBest > 1 {
		fmt.Fprintf(w, "  %d commits share this score; the first evaluated is reported\n", stats.TiedForBest)
	}
	fmt.Fprintf(w, "  Running best improved %d times\n", stats.Improvements)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Scores:")
	fmt.Fprintf(w, "  Range: %d to %d\n", stats.MinScore, stats.MaxScore)
	fmt.Fprintf(w, "  Mean:  %.1f\n", stats.MeanScore)
	for _, sc := range stats.TopScores {
		bar := ""
		for j := 0; j < sc.Count && j < 20; j++ {
			bar += "█"
		}
		fmt.Fprintf(w, "  %6d  %4d  %s\n", sc.Score, sc.Count, bar)
	}

	if stats.InMainline+stats.OutsideMainline > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Mainline Lineage:")
		percentage := float64(stats.InMainline) / float64(stats.InMainline+stats.OutsideMainline) * 100
		fmt.Fprintf(w, "  In mainline:      %4d  (%.1f%%)\n", stats.InMainline, percentage)
		fmt.Fprintf(w, "  Outside mainline: %4d  (%.1f%%)\n", stats.OutsideMainline, 100-percentage)
	}

	if stats.MaxHintMatches != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Most hint files matched: %d\n", *stats.MaxHintMatches)
	}
}
