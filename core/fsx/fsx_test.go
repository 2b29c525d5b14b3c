package fsx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicCreatesAndOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, WriteFileAtomic(target, []byte("first\n"), 0o600))
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "first\n", string(content))

	require.NoError(t, WriteFileAtomic(target, []byte("second\n"), 0o600))
	content, err = os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "second\n", string(content))
}

func TestWriteFileAtomicMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, WriteFileAtomic(target, []byte("{}\n"), 0o600))
	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileAtomicLeavesNoTempOnSuccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "out.json"), []byte("x"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "out.json", entries[0].Name())
}
