// Package commits selects the candidate commits for a similarity search.
package commits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/git-closest/internal/models"
)

// ErrStartNotFound is returned when no commit satisfies the starting bound
var ErrStartNotFound = errors.New("starting point not found")

// Lister enumerates every commit reachable from any ref, in the version
// control system's native order
type Lister interface {
	Commits() ([]models.Commit, error)
}

// Bound truncates the enumeration to a suffix. At most one field may be set.
type Bound struct {
	// Commit is a full hash or a prefix of one
	Commit string
	// Date is compared lexicographically against commit timestamps
	Date string
}

// Select enumerates the commits of l and applies the bound
func Select(l Lister, bound Bound) ([]models.Commit, error) {
	if bound.Commit != "" && bound.Date != "" {
		return nil, models.ErrConflictingBounds
	}

	all, err := l.Commits()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate commits: %w", err)
	}

	return Filter(all, bound)
}

// Filter returns the suffix of all that begins at the first commit matching
// the bound. With no bound the full list is returned.
func Filter(all []models.Commit, bound Bound) ([]models.Commit, error) {
	switch {
	case bound.Commit != "" && bound.Date != "":
		return nil, models.ErrConflictingBounds

	case bound.Commit != "":
		for i, c := range all {
			if strings.HasPrefix(c.Hash, bound.Commit) {
				return all[i:], nil
			}
		}
		return nil, fmt.Errorf("starting commit %s: %w", bound.Commit, ErrStartNotFound)

	case bound.Date != "":
		// String comparison: only meaningful when every timestamp shares the
		// same format and offset convention
		for i, c := range all {
			if c.Timestamp <= bound.Date {
				return all[i:], nil
			}
		}
		return nil, fmt.Errorf("starting date %s: %w", bound.Date, ErrStartNotFound)
	}

	return all, nil
}
