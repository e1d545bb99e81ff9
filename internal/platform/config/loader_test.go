package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "lobsterboard.yaml")

	configContent := `
server:
  host: "0.0.0.0"
  port: 9090
log:
  log_level: "debug"
proxy:
  timeout: 5s
  max_redirects: 2
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithDotEnv(false).WithPath(configFile)
	res, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := res.Config

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected server host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Proxy.Timeout != 5*time.Second {
		t.Errorf("expected proxy timeout 5s, got %s", cfg.Proxy.Timeout)
	}
	if cfg.Proxy.MaxRedirects != 2 {
		t.Errorf("expected 2 max redirects, got %d", cfg.Proxy.MaxRedirects)
	}
	// Untouched sections keep their defaults.
	if cfg.Proxy.MaxBodyBytes != 5*1024*1024 {
		t.Errorf("expected default body cap, got %d", cfg.Proxy.MaxBodyBytes)
	}
	if cfg.Stats.MaxSubscribers != 10 {
		t.Errorf("expected default subscriber cap, got %d", cfg.Stats.MaxSubscribers)
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "absent.yaml"))

	res, err := loader.Load()
	if err != nil {
		t.Fatalf("missing config file should fall back to defaults: %v", err)
	}
	if res.Path != "defaults" {
		t.Errorf("expected origin defaults, got %s", res.Path)
	}
	if res.Config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", res.Config.Server.Port)
	}
}

func TestLoader_Load_EnvOverride(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("ANTHROPIC_ADMIN_KEY", "sk-admin-test")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "absent.yaml"))
	res, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if res.Config.Server.Port != 7000 {
		t.Errorf("expected env port 7000, got %d", res.Config.Server.Port)
	}
	if res.Config.Usage.AnthropicAdminKey != "sk-admin-test" {
		t.Errorf("expected env admin key, got %q", res.Config.Usage.AnthropicAdminKey)
	}
}

func TestLoader_Load_DataDirDerivation(t *testing.T) {
	t.Setenv("LB_DATA_DIR", "/var/lib/lobsterboard")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "absent.yaml"))
	res, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if got := res.Config.Data.SecretsFile; got != "/var/lib/lobsterboard/secrets.json" {
		t.Errorf("expected derived secrets path, got %s", got)
	}
	if got := res.Config.Data.TemplatesDir; got != "/var/lib/lobsterboard/templates" {
		t.Errorf("expected derived templates dir, got %s", got)
	}
}
