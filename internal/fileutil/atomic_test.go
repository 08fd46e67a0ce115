package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/fileutil"
)

func TestWriteAtomic_ReplacesContent(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "wallet.age")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644)) //nolint:gosec // test file
	require.NoError(t, fileutil.WriteAtomic(target, []byte("new"), fileutil.PrivateFile))

	data, err := os.ReadFile(target) //nolint:gosec // path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, fileutil.PrivateFile, info.Mode().Perm())
}

func TestWriteAtomic_CreatesParents(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "nested", "home", "config.yaml")

	require.NoError(t, fileutil.WriteAtomic(target, []byte("version: 1"), fileutil.PrivateFile))
	assert.True(t, fileutil.Exists(target))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestWriteAtomic_EmptyPath(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, fileutil.WriteAtomic("", nil, fileutil.PrivateFile), fileutil.ErrEmptyPath)
}

func TestWriteNew_RefusesOverwrite(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "wallet.age")

	require.NoError(t, fileutil.WriteNew(target, []byte("first"), fileutil.PrivateFile))
	require.ErrorIs(t, fileutil.WriteNew(target, []byte("second"), fileutil.PrivateFile), fileutil.ErrExists)

	data, err := os.ReadFile(target) //nolint:gosec // path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}
