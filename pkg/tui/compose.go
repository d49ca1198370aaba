package tui

import (
	"fmt"
	"os"
	"strings"
)

// writeBodyFile writes body to a temp file for an external editor and
// returns its path. The caller removes it.
func writeBodyFile(body string) (string, error) {
	f, err := os.CreateTemp("", "articles-body-*.md")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	return path, nil
}

// readBodyFile reads the edited body back, dropping the trailing newline
// most editors append.
func readBodyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading body file: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
