// Package input reads batch input: one domain per line.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const bom = "\uFEFF"

// Read reads lines from r, trims whitespace, and returns the remaining
// non-empty lines in order. Blank lines and lines starting with '#' are
// dropped, and a leading UTF-8 byte order mark is ignored. Duplicates are kept.
func Read(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// ReadFile reads the domain list at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	inputs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading input file %q: %w", path, err)
	}
	return inputs, nil
}
