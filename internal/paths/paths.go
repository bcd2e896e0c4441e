// Package paths holds repo-relative path helpers shared by the analysis stages.
// Every path produced by the engine is relative to the repository root and
// uses forward slashes; the root itself is ".".
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Root is the repo-relative name of the repository root.
const Root = "."

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks on the root so that temp dirs behind links still match
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}
	resolved := absolutePath
	if r, err := filepath.EvalSymlinks(filepath.Dir(absolutePath)); err == nil {
		resolved = filepath.Join(r, filepath.Base(absolutePath))
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relativePath), nil
}

// NormalizePath converts backslashes to forward slashes and cleans the result.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return Root
	}
	return path.Clean(p)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// Parent returns the repo-relative parent directory of p ("." for top-level entries).
func Parent(p string) string {
	dir := path.Dir(p)
	if dir == "" || dir == "/" {
		return Root
	}
	return dir
}

// Ancestors lists every directory containing p, nearest first, ending with the root.
func Ancestors(p string) []string {
	var out []string
	for dir := Parent(p); ; dir = Parent(dir) {
		out = append(out, dir)
		if dir == Root {
			return out
		}
	}
}

// Depth is the number of path segments in p; the root has depth 0.
func Depth(p string) int {
	if p == Root || p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// TrimExt drops the final extension of p.
func TrimExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// Stem returns the base name of p without its extension.
func Stem(p string) string {
	return TrimExt(path.Base(p))
}

// Ext returns the lowercased extension of p without the leading dot.
func Ext(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// Segments splits a repo-relative path into its components.
func Segments(p string) []string {
	if p == Root || p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
