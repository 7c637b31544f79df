package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	nested := filepath.Join(base, "a", "b", "c")

	assert.False(t, PathExists(nested))
	require.NoError(t, EnsureDirectory(nested, AdminOnlyPermission))
	assert.True(t, PathExists(nested))
	require.NoError(t, EnsureDirectory(nested, AdminOnlyPermission))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.Equal(t, AdminOnlyPermission.AsUnixDirExecPermission(), info.Mode().Perm())
	}

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, nil, AdminOnlyPermission.AsUnixFilePermission()))
	assert.Error(t, EnsureDirectory(file, AdminOnlyPermission))
	assert.Error(t, EnsureDirectory(filepath.Join(file, "sub"), AdminOnlyPermission))
}
