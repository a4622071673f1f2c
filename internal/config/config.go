package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Levels are separated by a
// double underscore: TIPSBOT_DISCORD__OWNER_ID sets discord.owner_id.
const EnvPrefix = "TIPSBOT_"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Discord   DiscordConfig   `koanf:"discord"`
	GitHub    GitHubConfig    `koanf:"github"`
	Content   ContentConfig   `koanf:"content"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Commit    CommitConfig    `koanf:"commit"`
	Log       LogConfig       `koanf:"log"`
	Secrets   SecretsConfig   `koanf:"secrets"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

type DiscordConfig struct {
	PublicKey     string `koanf:"public_key"`
	ApplicationID string `koanf:"application_id"`
	ClientSecret  string `koanf:"client_secret"`
	OwnerID       string `koanf:"owner_id"`
	CommandName   string `koanf:"command_name"`
	APIURL        string `koanf:"api_url"`
}

type GitHubConfig struct {
	Token          string `koanf:"token"`
	AppID          string `koanf:"app_id"`
	InstallationID int64  `koanf:"installation_id"`
	PrivateKeyPath string `koanf:"private_key_path"`
	APIURL         string `koanf:"api_url"`
	Owner          string `koanf:"owner"`
	Repo           string `koanf:"repo"`
	Branch         string `koanf:"branch"`
}

// UsesApp reports whether GitHub App credentials are configured.
func (g GitHubConfig) UsesApp() bool {
	return g.AppID != "" && g.InstallationID != 0 && g.PrivateKeyPath != ""
}

type ContentConfig struct {
	IndexPath   string         `koanf:"index_path"`
	Watch       bool           `koanf:"watch"`
	Root        string         `koanf:"root"`
	Ext         string         `koanf:"ext"`
	SiteHost    string         `koanf:"site_host"`
	AccentColor int            `koanf:"accent_color"`
	Palette     map[string]int `koanf:"palette"`
}

type RateLimitConfig struct {
	Store       string        `koanf:"store"` // memory, redis or postgres
	Limit       int           `koanf:"limit"`
	Window      time.Duration `koanf:"window"`
	FailOpen    bool          `koanf:"fail_open"`
	KeyPrefix   string        `koanf:"key_prefix"`
	RedisURL    string        `koanf:"redis_url"`
	DatabaseURL string        `koanf:"database_url"`
}

type CommitConfig struct {
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SecretsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":             ":8080",
		"server.read_timeout":     "10s",
		"server.write_timeout":    "30s",
		"server.shutdown_timeout": "10s",
		"server.max_body_bytes":   1 << 20,

		"discord.command_name": "tips",
		"discord.api_url":      "https://discord.com/api/v10",

		"github.api_url": "https://api.github.com",
		"github.branch":  "main",

		"content.index_path":   "content-index.json",
		"content.watch":        true,
		"content.root":         "app/_tips",
		"content.ext":          "mdx",
		"content.accent_color": 9792480,

		"ratelimit.store":      "memory",
		"ratelimit.limit":      5,
		"ratelimit.window":     "1m",
		"ratelimit.fail_open":  true,
		"ratelimit.key_prefix": "tipsbot:rl:",

		"commit.timeout":     "15s",
		"commit.max_retries": 0,
		"commit.base_delay":  "500ms",
		"commit.max_delay":   "5s",

		"log.level":  "info",
		"log.format": "json",

		"secrets.enabled": true,
	}
}

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"./tipsbot.toml", "$HOME/.tipsbot.toml"}

// LoadConfig loads defaults, then the TOML file, then TIPSBOT_ environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading config %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// envKey maps TIPSBOT_GITHUB__APP_ID to github.app_id.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# tipsbot configuration
# Every key can be overridden from the environment, e.g.
# TIPSBOT_DISCORD__OWNER_ID or TIPSBOT_GITHUB__TOKEN.

[server]
addr = ":8080"

[discord]
public_key = "your-application-public-key-hex"
application_id = "your-application-id"
owner_id = "your-discord-user-id"
command_name = "tips"

[github]
# Either a token or app_id + installation_id + private_key_path.
token = ""
owner = "your-github-user"
repo = "your-tips-site"
branch = "main"

[content]
index_path = "content-index.json"
root = "app/_tips"
ext = "mdx"
site_host = "tips.example.com"

[ratelimit]
store = "memory"
limit = 5
window = "1m"
fail_open = true

[commit]
timeout = "15s"
max_retries = 0

[log]
level = "info"
format = "json"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate reports every problem with the configuration at once.
func Validate(config *Config) error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if config.Discord.PublicKey == "" {
		fail("discord.public_key is required")
	}
	if config.Discord.OwnerID == "" {
		fail("discord.owner_id is required")
	}
	if config.Discord.CommandName == "" {
		fail("discord.command_name is required")
	}

	if config.GitHub.Owner == "" || config.GitHub.Repo == "" || config.GitHub.Branch == "" {
		fail("github.owner, github.repo and github.branch are required")
	}
	if config.GitHub.Token == "" && !config.GitHub.UsesApp() {
		fail("github.token or github app credentials are required")
	}

	if config.Content.IndexPath == "" {
		fail("content.index_path is required")
	}
	if config.Content.SiteHost == "" {
		fail("content.site_host is required")
	}

	switch config.RateLimit.Store {
	case "memory":
	case "redis":
		if config.RateLimit.RedisURL == "" {
			fail("ratelimit.redis_url is required for the redis store")
		}
	case "postgres":
		if config.RateLimit.DatabaseURL == "" {
			fail("ratelimit.database_url is required for the postgres store")
		}
	default:
		fail("unknown ratelimit.store %q", config.RateLimit.Store)
	}
	if config.RateLimit.Limit <= 0 || config.RateLimit.Window <= 0 {
		fail("ratelimit.limit and ratelimit.window must be positive")
	}

	if config.Commit.Timeout <= 0 {
		fail("commit.timeout must be positive")
	}
	if config.Commit.MaxRetries < 0 {
		fail("commit.max_retries must not be negative")
	}

	return errors.Join(errs...)
}
