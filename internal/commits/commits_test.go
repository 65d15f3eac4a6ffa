package commits

import (
	"errors"
	"testing"

	"github.com/pders01/git-closest/internal/models"
	"github.com/stretchr/testify/require"
)

var history = []models.Commit{
	{Hash: "e5a1c0ffee", Timestamp: "2024-05-04T10:00:00+00:00"},
	{Hash: "d4b2deadbe", Timestamp: "2024-05-03T10:00:00+00:00"},
	{Hash: "c3c3abcdef", Timestamp: "2024-05-03T09:00:00+00:00"},
	{Hash: "b2d4123456", Timestamp: "2024-05-01T10:00:00+00:00"},
	{Hash: "a1e5fedcba", Timestamp: "2024-04-30T10:00:00+00:00"},
}

type staticLister struct {
	commits []models.Commit
	err     error
}

func (s staticLister) Commits() ([]models.Commit, error) {
	return s.commits, s.err
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name      string
		bound     Bound
		wantFirst string
		wantLen   int
		wantErr   error
	}{
		{name: "no bound", bound: Bound{}, wantFirst: "e5a1c0ffee", wantLen: 5},
		{name: "full hash", bound: Bound{Commit: "c3c3abcdef"}, wantFirst: "c3c3abcdef", wantLen: 3},
		{name: "hash prefix", bound: Bound{Commit: "b2"}, wantFirst: "b2d4123456", wantLen: 2},
		{name: "first commit", bound: Bound{Commit: "e5"}, wantFirst: "e5a1c0ffee", wantLen: 5},
		{name: "last commit", bound: Bound{Commit: "a1e5"}, wantFirst: "a1e5fedcba", wantLen: 1},
		{name: "unknown hash", bound: Bound{Commit: "ffff"}, wantErr: ErrStartNotFound},
		{name: "exact date", bound: Bound{Date: "2024-05-03T10:00:00+00:00"}, wantFirst: "d4b2deadbe", wantLen: 4},
		{name: "date between commits", bound: Bound{Date: "2024-05-03T09:30:00+00:00"}, wantFirst: "c3c3abcdef", wantLen: 3},
		{name: "date only", bound: Bound{Date: "2024-05-02"}, wantFirst: "b2d4123456", wantLen: 2},
		{name: "date after everything", bound: Bound{Date: "2030-01-01"}, wantFirst: "e5a1c0ffee", wantLen: 5},
		{name: "date before everything", bound: Bound{Date: "2020-01-01"}, wantErr: ErrStartNotFound},
		{name: "both bounds", bound: Bound{Commit: "e5", Date: "2030-01-01"}, wantErr: models.ErrConflictingBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(history, tt.bound)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			require.Equal(t, tt.wantFirst, got[0].Hash)
			// always a suffix of the enumeration
			require.Equal(t, history[len(history)-tt.wantLen:], got)
		})
	}
}

func TestFilterEmpty(t *testing.T) {
	got, err := Filter(nil, Bound{})
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = Filter(nil, Bound{Commit: "abc"})
	require.ErrorIs(t, err, ErrStartNotFound)
}

func TestSelect(t *testing.T) {
	got, err := Select(staticLister{commits: history}, Bound{Commit: "d4"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	_, err = Select(staticLister{err: errors.New("boom")}, Bound{})
	require.Error(t, err)

	_, err = Select(staticLister{commits: history}, Bound{Commit: "d4", Date: "2024"})
	require.ErrorIs(t, err, models.ErrConflictingBounds)
}
