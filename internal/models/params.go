package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConflictingBounds is returned when both a starting commit and a
	// starting date are supplied
	ErrConflictingBounds = errors.New("cannot specify both a starting commit and a starting date")

	// ErrMissingPath is returned when a required location is empty
	ErrMissingPath = errors.New("required path is empty")
)

// SearchParameters describes one similarity search
type SearchParameters struct {
	RepoPath     string
	SnapshotPath string

	// StartCommit is a full hash or prefix. Mutually exclusive with StartDate.
	StartCommit string
	// StartDate is an ISO-8601 string compared lexicographically against
	// commit timestamps
	StartDate string

	HintListPath string
}

// Validate checks the parameters that can be verified without touching disk
func (p SearchParameters) Validate() error {
	if p.RepoPath == "" {
		return fmt.Errorf("repository: %w", ErrMissingPath)
	}
	if p.SnapshotPath == "" {
		return fmt.Errorf("snapshot: %w", ErrMissingPath)
	}
	if p.StartCommit != "" && p.StartDate != "" {
		return ErrConflictingBounds
	}
	return nil
}
