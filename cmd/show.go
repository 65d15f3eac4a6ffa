package cmd

import (
	"fmt"

	"github.com/pders01/git-closest/internal/report"
	"github.com/spf13/cobra"
)

var (
	showJSON     bool
	showToon     bool
	showTop      int
	showBestOnly bool
)

var showCmd = &cobra.Command{
	Use:   "show <results.jsonl>",
	Short: "Show the records of a previous search ranked by score",
	Long: `Load the JSON lines written by 'closest find --jsonl-output' and print
them sorted by score, highest first. Records with equal scores keep the
order in which they were evaluated.

Example:
  closest show scan.jsonl --top 10
  closest show scan.jsonl --best-only --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showToon, "toon", false, "Output in Toon format")
	showCmd.Flags().IntVar(&showTop, "top", 0, "Show only the N highest scoring records")
	showCmd.Flags().BoolVar(&showBestOnly, "best-only", false, "Show only records that were a new best when evaluated")

	showCmd.MarkFlagsMutuallyExclusive("json", "toon")
}

func runShow(cmd *cobra.Command, args []string) error {
	if showTop < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	records, err := report.LoadRecords(args[0])
	if err != nil {
		return err
	}

	if showBestOnly {
		records = report.BestOnly(records)
	}
	report.SortByScore(records)
	if showTop > 0 && len(records) > showTop {
		records = records[:showTop]
	}

	format := report.FormatTable
	switch {
	case showJSON:
		format = report.FormatJSON
	case showToon:
		format = report.FormatToon
	}

	return report.Render(cmd.OutOrStdout(), records, format)
}
