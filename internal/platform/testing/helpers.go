package testing

import (
	"path/filepath"
	"testing"

	"lobsterboard-server-go/internal/platform/config"
	"lobsterboard-server-go/internal/platform/logging"
)

// SetupTestConfig returns a configuration rooted in a per-test temp
// directory so tests never touch real data files.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	dir := t.TempDir()

	cfg.Log.Dir = filepath.Join(dir, "logs")
	cfg.Log.Level = "debug"
	cfg.Data.Dir = dir
	cfg.Data.ConfigFile = filepath.Join(dir, "config.json")
	cfg.Data.AuthFile = filepath.Join(dir, "auth.json")
	cfg.Data.SecretsFile = filepath.Join(dir, "secrets.json")
	cfg.Data.TodosFile = filepath.Join(dir, "todos.json")
	cfg.Data.NotesFile = filepath.Join(dir, "notes.json")
	cfg.Data.TemplatesDir = filepath.Join(dir, "templates")
	cfg.Data.GatewayLog = filepath.Join(dir, "gateway.log")

	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	return logger
}
