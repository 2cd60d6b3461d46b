package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile_Missing(t *testing.T) {
	err := loadEnvFile(filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err, "a missing .env is optional")
}

func TestLoadEnvFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRAPHSTORE-DB=/tmp/x.db\n"), 0o600))

	err := loadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadEnvFile_SetsVariables(t *testing.T) {
	const key = "GRAPHSTORE_ENVFILE_TEST"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=journal.db\n"), 0o600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "journal.db", os.Getenv(key))
}
