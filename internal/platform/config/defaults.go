package config

import (
	"path/filepath"
	"time"
)

// Default returns the built-in configuration. A config file and
// environment variables override individual fields.
func Default() *Config {
	dataDir := "./data"
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "./logs",
			File:  "lobsterboard.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
		},
		Data: DataConfig{
			Dir:          dataDir,
			ConfigFile:   filepath.Join(dataDir, "config.json"),
			AuthFile:     filepath.Join(dataDir, "auth.json"),
			SecretsFile:  filepath.Join(dataDir, "secrets.json"),
			TodosFile:    filepath.Join(dataDir, "todos.json"),
			NotesFile:    filepath.Join(dataDir, "notes.json"),
			TemplatesDir: filepath.Join(dataDir, "templates"),
			GatewayLog:   "",
		},
		Proxy: ProxyConfig{
			Timeout:      15 * time.Second,
			MaxRedirects: 3,
			MaxBodyBytes: 5 * 1024 * 1024,
			CalendarTTL:  5 * time.Minute,
			ReleaseTTL:   time.Hour,
		},
		Stats: StatsConfig{
			MaxSubscribers: 10,
		},
		Releases: ReleasesConfig{
			UpstreamRepo: "openclaw/openclaw",
			BoardRepo:    "lobsterboard/lobsterboard",
		},
	}
}

// normalize fills derived paths left empty after overrides so that a
// config file only needs to set data.dir.
func (c *Config) normalize() {
	d := &c.Data
	if d.Dir == "" {
		d.Dir = "./data"
	}
	if d.ConfigFile == "" {
		d.ConfigFile = filepath.Join(d.Dir, "config.json")
	}
	if d.AuthFile == "" {
		d.AuthFile = filepath.Join(d.Dir, "auth.json")
	}
	if d.SecretsFile == "" {
		d.SecretsFile = filepath.Join(d.Dir, "secrets.json")
	}
	if d.TodosFile == "" {
		d.TodosFile = filepath.Join(d.Dir, "todos.json")
	}
	if d.NotesFile == "" {
		d.NotesFile = filepath.Join(d.Dir, "notes.json")
	}
	if d.TemplatesDir == "" {
		d.TemplatesDir = filepath.Join(d.Dir, "templates")
	}
}
