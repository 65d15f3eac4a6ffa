package digest

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// MetadataDir is the version-control metadata directory name; any path with a
// segment equal to it is never hashed
const MetadataDir = ".git"

// Matcher decides which relative paths are excluded from hashing. The same
// Matcher is applied to both sides of a comparison.
type Matcher struct {
	patterns []string
	ignore   gitignore.GitIgnore
}

// NewMatcher builds a Matcher from doublestar patterns and an optional
// gitignore-syntax file
func NewMatcher(patterns []string, ignoreFile string) (*Matcher, error) {
	m := &Matcher{}

	for _, pattern := range patterns {
		pattern = strings.ReplaceAll(strings.TrimSpace(pattern), "\\", "/")
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
		m.patterns = append(m.patterns, pattern)
	}

	if ignoreFile != "" {
		f, err := os.Open(ignoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open ignore file: %w", err)
		}
		defer f.Close()

		var parseErr error
		m.ignore = gitignore.New(f, "/", func(e gitignore.Error) bool {
			parseErr = e
			return false
		})
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse ignore file %s: %w", ignoreFile, parseErr)
		}
	}

	return m, nil
}

// Excluded reports whether relPath (forward slashes) should be skipped
func (m *Matcher) Excluded(relPath string, isDir bool) bool {
	if HasMetadataSegment(relPath) {
		return true
	}
	if m == nil {
		return false
	}

	for _, pattern := range m.patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}

	if m.ignore != nil {
		if match := m.ignore.Relative(relPath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return false
}

// HasMetadataSegment reports whether any segment of relPath is MetadataDir
func HasMetadataSegment(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if part == MetadataDir {
			return true
		}
	}
	return false
}
