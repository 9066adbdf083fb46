package pathsafe_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/pathsafe"
)

func TestResolve_RejectsParentTraversal(t *testing.T) {
	root := t.TempDir()
	_, err := pathsafe.Resolve([]string{root}, "../outside")
	assert.ErrorIs(t, err, pathsafe.ErrOutsideRoot)
}

func TestResolve_RejectsEmptyCandidate(t *testing.T) {
	_, err := pathsafe.Resolve([]string{t.TempDir()}, "")
	assert.ErrorIs(t, err, pathsafe.ErrOutsideRoot)
}

func TestResolve_AllowsNestedExistingFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("hi"), 0o644))

	got, err := pathsafe.Resolve([]string{root}, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes.md"), got)
}

func TestResolve_AllowsNestedSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "doc.md"), []byte("hi"), 0o644))

	got, err := pathsafe.Resolve([]string{root}, filepath.Join("sub", "doc.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "doc.md"), got)
}
