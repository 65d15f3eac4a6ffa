// Package hints loads the list of paths expected to be unchanged between the
// source commit and the snapshot.
package hints

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a newline-separated hint list from path
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hint list: %w", err)
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read hint list %s: %w", path, err)
	}
	return list, nil
}

// Parse returns one normalized relative path per non-blank line
func Parse(r io.Reader) ([]string, error) {
	list := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.ReplaceAll(line, "\\", "/")
		line = strings.TrimPrefix(line, "./")
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
