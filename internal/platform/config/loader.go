package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for a config file when none is given.
const DefaultPath = ".lobsterboard.yaml"

// Loader reads configuration from defaults, an optional YAML file and
// environment variables, in that order of increasing precedence.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      DefaultPath,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the config file location (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Result captures the loaded configuration and its origin.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		}
	}

	cfg := Default()
	origin := "defaults"

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", l.path, err)
		}
		origin = l.path
	case os.IsNotExist(err):
		// Defaults plus environment are enough to run.
	default:
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	applyEnv(cfg)
	cfg.normalize()

	return &Result{Config: cfg, Path: origin}, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LB_STATIC_DIR"); v != "" {
		cfg.Web.StaticDir = v
	}
	if v := os.Getenv("LB_DATA_DIR"); v != "" {
		cfg.Data = DataConfig{Dir: v, GatewayLog: cfg.Data.GatewayLog}
	}
	if v := os.Getenv("LB_GATEWAY_LOG"); v != "" {
		cfg.Data.GatewayLog = v
	}
	if v := os.Getenv("ANTHROPIC_ADMIN_KEY"); v != "" {
		cfg.Usage.AnthropicAdminKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Usage.OpenAIKey = v
	}
}
