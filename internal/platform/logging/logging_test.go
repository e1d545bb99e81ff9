package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "debug",
		Dir:      tmpDir,
		Filename: "test.log",
	})

	assert.NoError(t, err)
	assert.NotNil(t, logger)

	err = logger.Close()
	assert.NoError(t, err)
}

func TestLogger_WritesToFile(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "info",
		Dir:      tmpDir,
		Filename: "info.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.InfoTag("HTTP", "GET /config -> %d", 200)
	logger.Error("upstream fetch failed: %s", "timeout")

	content, err := os.ReadFile(filepath.Join(tmpDir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[HTTP] GET /config -> 200")
	assert.Contains(t, string(content), "upstream fetch failed: timeout")
}

func TestLogger_LevelFilter(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "warn",
		Dir:      tmpDir,
		Filename: "filtered.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	content, err := os.ReadFile(filepath.Join(tmpDir, "filtered.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "should be dropped")
	assert.Contains(t, string(content), "should be kept")
}
