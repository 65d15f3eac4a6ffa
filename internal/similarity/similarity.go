package similarity

import (
	"sort"

	"github.com/pders01/git-closest/internal/models"
)

// Compare computes the comparison counts between two digest maps.
// The result is symmetric in a and b, and empty maps yield all zeros.
func Compare(a, b models.FileDigestMap) models.ComparisonResult {
	var result models.ComparisonResult

	for path, digestA := range a {
		digestB, ok := b[path]
		if !ok {
			result.OneSidedFiles++
			continue
		}
		if digestA == digestB {
			result.Matches++
		} else {
			result.Mismatches++
		}
	}

	for path := range b {
		if _, ok := a[path]; !ok {
			result.OneSidedFiles++
		}
	}

	result.TotalMatchedDigests = countSharedDigests(a, b)

	return result
}

// countSharedDigests returns the size of the intersection of the value sets
func countSharedDigests(a, b models.FileDigestMap) int {
	if len(b) < len(a) {
		a, b = b, a
	}

	values := make(map[string]struct{}, len(a))
	for _, digest := range a {
		values[digest] = struct{}{}
	}

	shared := 0
	for _, digest := range uniqueDigests(b) {
		if _, ok := values[digest]; ok {
			shared++
		}
	}
	return shared
}

func uniqueDigests(m models.FileDigestMap) []string {
	seen := make(map[string]struct{}, len(m))
	var out []string
	for _, digest := range m {
		if _, ok := seen[digest]; ok {
			continue
		}
		seen[digest] = struct{}{}
		out = append(out, digest)
	}
	return out
}

// MatchedHints counts hint paths whose digest is present and equal on both
// sides. A path missing on either side never matches.
func MatchedHints(hints []string, a, b models.FileDigestMap) int {
	matched := 0
	for _, path := range hints {
		digestA, okA := a[path]
		digestB, okB := b[path]
		if okA && okB && digestA == digestB {
			matched++
		}
	}
	return matched
}

// FileDiff lists the paths behind a ComparisonResult, each slice sorted
type FileDiff struct {
	Matching   []string `json:"matching"`
	Mismatched []string `json:"mismatched"`
	OnlyInTree []string `json:"only_in_tree"`
	OnlyInSnap []string `json:"only_in_snapshot"`
}

// Diff classifies every path of tree and snapshot the same way Compare
// counts them
func Diff(tree, snapshot models.FileDigestMap) FileDiff {
	var diff FileDiff

	for path, digest := range tree {
		other, ok := snapshot[path]
		switch {
		case !ok:
			diff.OnlyInTree = append(diff.OnlyInTree, path)
		case digest == other:
			diff.Matching = append(diff.Matching, path)
		default:
			diff.Mismatched = append(diff.Mismatched, path)
		}
	}
	for path := range snapshot {
		if _, ok := tree[path]; !ok {
			diff.OnlyInSnap = append(diff.OnlyInSnap, path)
		}
	}

	sort.Strings(diff.Matching)
	sort.Strings(diff.Mismatched)
	sort.Strings(diff.OnlyInTree)
	sort.Strings(diff.OnlyInSnap)

	return diff
}
