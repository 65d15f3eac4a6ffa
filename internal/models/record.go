package models

// BestMarker is written into the best field of rows that set a new running best
const BestMarker = "NEW BEST 🟢"

// CommitRecord is one row of the result stream, one per evaluated commit
type CommitRecord struct {
	CommitNumber       int    `json:"commit_number"`
	CommitHash         string `json:"commit_hash"`
	Datetime           string `json:"datetime"`
	Matches            int    `json:"matches"`
	Mismatches         int    `json:"mismatches"`
	OneSidedFiles      int    `json:"one_sided_files"`
	TotalMatchedHashes int    `json:"total_matched_hashes"`
	Score              int    `json:"score"`
	InMasterLineage    *bool  `json:"in_master_lineage,omitempty"`
	MatchedHintFiles   *int   `json:"matched_hint_files,omitempty"`
	Best               string `json:"best,omitempty"`
}

// NewCommitRecord builds the record for the commit at the given 1-based
// ordinal from its comparison result
func NewCommitRecord(number int, commit Commit, result ComparisonResult) CommitRecord {
	return CommitRecord{
		CommitNumber:       number,
		CommitHash:         commit.Hash,
		Datetime:           commit.Timestamp,
		Matches:            result.Matches,
		Mismatches:         result.Mismatches,
		OneSidedFiles:      result.OneSidedFiles,
		TotalMatchedHashes: result.TotalMatchedDigests,
		Score:              result.Score(),
	}
}

// IsBest reports whether this row set a new running best when it was emitted
func (r CommitRecord) IsBest() bool {
	return r.Best != ""
}
