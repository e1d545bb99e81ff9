package config

import "time"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Data     DataConfig     `yaml:"data"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Stats    StatsConfig    `yaml:"stats"`
	Usage    UsageConfig    `yaml:"usage"`
	Releases ReleasesConfig `yaml:"releases"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

// DataConfig locates the JSON documents and directories the server owns.
type DataConfig struct {
	Dir          string `yaml:"dir"`
	ConfigFile   string `yaml:"config_file"`
	AuthFile     string `yaml:"auth_file"`
	SecretsFile  string `yaml:"secrets_file"`
	TodosFile    string `yaml:"todos_file"`
	NotesFile    string `yaml:"notes_file"`
	TemplatesDir string `yaml:"templates_dir"`
	GatewayLog   string `yaml:"gateway_log"`
}

// ProxyConfig bounds outbound fetches made on behalf of the browser.
type ProxyConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRedirects int           `yaml:"max_redirects"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	CalendarTTL  time.Duration `yaml:"calendar_ttl"`
	ReleaseTTL   time.Duration `yaml:"release_ttl"`
}

type StatsConfig struct {
	MaxSubscribers int `yaml:"max_subscribers"`
}

// UsageConfig holds server-level API keys for the AI usage proxies.
// Widget-level keys from config/secrets take over when these are empty.
type UsageConfig struct {
	AnthropicAdminKey string `yaml:"anthropic_admin_key"`
	OpenAIKey         string `yaml:"openai_key"`
}

type ReleasesConfig struct {
	UpstreamRepo        string `yaml:"upstream_repo"`
	BoardRepo           string `yaml:"board_repo"`
	UpstreamVersionFile string `yaml:"upstream_version_file"`
}
