// Package testutil provides helpers for building throwaway repositories in tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteFiles creates each file under root, making parent directories as
// needed. Keys are slash-separated repo-relative paths.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// NewRepo writes files into a fresh temporary directory and returns its path.
func NewRepo(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// Sized returns a string of n bytes, useful for size-limit fixtures.
func Sized(n int) string {
	return strings.Repeat("x", n)
}
