package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsStartupFailure(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "scanner.log")
	t.Setenv("SCANNER_LOG_FILE", logFile)
	t.Setenv("POSTGRES_HOST", "127.0.0.1")
	t.Setenv("POSTGRES_PORT", "1")
	t.Setenv("GRAPH_BACKEND", "memory")

	err := run()
	require.Error(t, err)

	// run returns instead of exiting, so its deferred cleanup has run.
	data, readErr := os.ReadFile(logFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "failed to initialize scanner")
}
