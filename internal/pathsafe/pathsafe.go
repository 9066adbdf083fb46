// Package pathsafe centralizes the single filesystem-path validation
// primitive used by every external-facing path input — transcript
// readers and the docs source handler (spec §5, §9 "path sanitization").
package pathsafe

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when candidate does not resolve beneath any
// configured root.
var ErrOutsideRoot = errors.New("pathsafe: path escapes allowed roots")

// Resolve joins candidate against each root in order and returns the
// first resulting absolute, symlink-free path that still lies beneath
// its root. Parent traversal ("..") and absolute candidates that escape
// every root are rejected.
func Resolve(roots []string, candidate string) (string, error) {
	if candidate == "" {
		return "", ErrOutsideRoot
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		joined := filepath.Join(absRoot, candidate)
		resolved, err := filepath.EvalSymlinks(joined)
		if err != nil {
			// The target may not exist yet (e.g. a file about to be
			// written); fall back to the lexically-cleaned join and
			// still enforce the root-containment check below.
			resolved = filepath.Clean(joined)
		}
		if within(absRoot, resolved) {
			return resolved, nil
		}
	}
	return "", ErrOutsideRoot
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
