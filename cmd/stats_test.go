package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pders01/git-closest/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func TestSummarize(t *testing.T) {
	records := []models.CommitRecord{
		{CommitNumber: 1, CommitHash: "c1", Datetime: "2024-03-01T00:00:00+00:00", Score: 1, Best: models.BestMarker, InMasterLineage: boolPtr(false), MatchedHintFiles: intPtr(1)},
		{CommitNumber: 2, CommitHash: "c2", Datetime: "2024-02-01T00:00:00+00:00", Score: 4, Best: models.BestMarker, InMasterLineage: boolPtr(true), MatchedHintFiles: intPtr(3)},
		{CommitNumber: 3, CommitHash: "c3", Datetime: "2024-01-01T00:00:00+00:00", Score: 4, InMasterLineage: boolPtr(true), MatchedHintFiles: intPtr(2)},
		{CommitNumber: 4, CommitHash: "c4", Datetime: "2023-12-01T00:00:00+00:00", Score: -3, InMasterLineage: boolPtr(true), MatchedHintFiles: intPtr(0)},
	}

	stats := summarize(records)

	if stats.TotalCommits != 4 {
		t.Errorf("expected 4 commits, got %d", stats.TotalCommits)
	}
	if stats.Best.CommitHash != "c2" {
		t.Errorf("expected the first commit with the top score, got %s", stats.Best.CommitHash)
	}
	if stats.TiedForBest != 2 {
		t.Errorf("expected 2 commits tied for best, got %d", stats.TiedForBest)
	}
	if stats.Improvements != 2 {
		t.Errorf("expected 2 improvements, got %d", stats.Improvements)
	}
	if stats.MinScore != -3 || stats.MaxScore != 4 {
		t.Errorf("unexpected score range %d..%d", stats.MinScore, stats.MaxScore)
	}
	if stats.MeanScore != 1.5 {
		t.Errorf("expected mean 1.5, got %v", stats.MeanScore)
	}
	if stats.OldestCommit != "2023-12-01T00:00:00+00:00" || stats.NewestCommit != "2024-03-01T00:00:00+00:00" {
		t.Errorf("unexpected date range %s..%s", stats.OldestCommit, stats.NewestCommit)
	}
	if stats.InMainline != 3 || stats.OutsideMainline != 1 {
		t.Errorf("unexpected lineage counts %d/%d", stats.InMainline, stats.OutsideMainline)
	}
	if stats.MaxHintMatches == nil || *stats.MaxHintMatches != 3 {
		t.Errorf("expected max hint matches 3, got %v", stats.MaxHintMatches)
	}
	if len(stats.TopScores) != 3 || stats.TopScores[0].Score != 4 || stats.TopScores[0].Count != 2 {
		t.Errorf("unexpected score distribution %+v", stats.TopScores)
	}
}

func TestStatsCommand(t *testing.T) {
	path := writeScan(t)

	stdout, _, err := executeCommand(t, "stats", path)
	if err != nil {
		t.Fatalf("stats command failed: %v", err)
	}
	if !strings.Contains(stdout, "Commits Evaluated: 4") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "2222222222222222222222222222222222222222") {
		t.Errorf("expected best commit in output:\n%s", stdout)
	}
	if strings.Contains(stdout, "Mainline Lineage") {
		t.Error("lineage section shown without lineage data")
	}

	stdout, _, err = executeCommand(t, "stats", path, "--json")
	if err != nil {
		t.Fatalf("stats --json failed: %v", err)
	}
	var stats scanStats
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if stats.Best == nil || stats.Best.CommitNumber != 2 {
		t.Errorf("unexpected best record %+v", stats.Best)
	}
}
