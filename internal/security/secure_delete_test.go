package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureDeleteFile_RemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.bin")
	require.NoError(t, os.WriteFile(path, []byte("sensitive staged document bytes"), 0o600))

	err := SecureDeleteFile(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSecureDeleteFile_RejectsPathTraversal(t *testing.T) {
	err := SecureDeleteFile("../etc/passwd")
	assert.Error(t, err)
}

func TestSecureDeleteFile_MissingFileErrors(t *testing.T) {
	err := SecureDeleteFile(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	assert.Error(t, err)
}

func TestSecureDeleteFile_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	err := SecureDeleteFile(dir)
	assert.Error(t, err)
}
