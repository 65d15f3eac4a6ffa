package models

// Commit is a candidate commit as enumerated from the repository
type Commit struct {
	Hash string
	// Timestamp is the committer date in strict ISO-8601 with offset
	Timestamp string
}

// FileDigestMap maps a forward-slash relative path to the hex content digest
// of the file at that path. Built once per directory and not modified after.
type FileDigestMap map[string]string

// Len returns the number of files in the map
func (m FileDigestMap) Len() int {
	return len(m)
}
