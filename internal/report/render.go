package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/alpkeskin/gotoon"
	"github.com/olekukonko/tablewriter"
	"github.com/pders01/git-closest/internal/models"
)

// Format selects how records are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatToon  Format = "toon"
)

// Render writes records to w in the given format
func Render(w io.Writer, records []models.CommitRecord, format Format) error {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []models.CommitRecord{}
		}
		output, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err

	case FormatToon:
		output, err := gotoon.Encode(records)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		_, err = fmt.Fprintln(w, output)
		return err

	case FormatTable, "":
		renderTable(w, records)
		return nil
	}

	return fmt.Errorf("unknown format: %s (must be: table, json, toon)", format)
}

func renderTable(w io.Writer, records []models.CommitRecord) {
	withHints := false
	for _, rec := range records {
		if rec.MatchedHintFiles != nil {
			withHints = true
			break
		}
	}

	header := []string{"#", "Commit", "Date", "Score", "Match", "Mismatch", "One-sided", "Shared"}
	if withHints {
		header = append(header, "Hints")
	}
	header = append(header, "Best")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.CommitNumber),
			shortHash(rec.CommitHash),
			rec.Datetime,
			strconv.Itoa(rec.Score),
			strconv.Itoa(rec.Matches),
			strconv.Itoa(rec.Mismatches),
			strconv.Itoa(rec.OneSidedFiles),
			strconv.Itoa(rec.TotalMatchedHashes),
		}
		if withHints {
			hints := "-"
			if rec.MatchedHintFiles != nil {
				hints = strconv.Itoa(*rec.MatchedHintFiles)
			}
			row = append(row, hints)
		}
		best := ""
		if rec.IsBest() {
			best = "*"
		}
		row = append(row, best)
		table.Append(row)
	}

	table.Render()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
