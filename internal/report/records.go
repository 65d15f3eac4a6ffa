package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pders01/git-closest/internal/models"
)

// maxLineBytes bounds a single JSONL row
const maxLineBytes = 1 << 20

// LoadRecords reads a JSONL result stream from path
func LoadRecords(path string) ([]models.CommitRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	return ReadRecords(file)
}

// ReadRecords decodes one record per non-blank line
func ReadRecords(r io.Reader) ([]models.CommitRecord, error) {
	var records []models.CommitRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec models.CommitRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid record on line %d: %w", lineNumber, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return records, nil
}

// SortByScore orders records by score, highest first. Records with equal
// scores keep their evaluation order.
func SortByScore(records []models.CommitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

// BestOnly returns the records that set a new running best
func BestOnly(records []models.CommitRecord) []models.CommitRecord {
	var out []models.CommitRecord
	for _, rec := range records {
		if rec.IsBest() {
			out = append(out, rec)
		}
	}
	return out
}
