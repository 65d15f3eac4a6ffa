package models

// ComparisonResult holds the counts derived from comparing two FileDigestMaps.
//
// Matches + Mismatches is the number of paths present on both sides.
// OneSidedFiles counts paths present on exactly one side, both directions.
// TotalMatchedDigests is the size of the intersection of the digest value
// sets, regardless of where the content lives.
type ComparisonResult struct {
	Matches             int
	Mismatches          int
	OneSidedFiles       int
	TotalMatchedDigests int
}

// Score returns matches - mismatches - oneSidedFiles. Higher is better.
func (r ComparisonResult) Score() int {
	return r.Matches - r.Mismatches - r.OneSidedFiles
}
