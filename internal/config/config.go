// ABOUTME: Configuration loading and parsing for hookpanel
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MinJWTSecretLength is the minimum accepted length of auth.jwt_secret.
const MinJWTSecretLength = 32

// Defaults applied by Load when the file leaves a value empty.
const (
	DefaultHTTPAddr  = "127.0.0.1:8065"
	DefaultPluginID  = "com.zentavr.pingdom"
	DefaultSettingID = "PingdomHooksConfigs"
	DefaultDraftTTL  = 30 * time.Minute
	DefaultMaxDrafts = 256
	DefaultTokenTTL  = 24 * time.Hour
)

// Config represents the complete hookpanel configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Console  ConsoleConfig  `yaml:"console" toml:"console"`
	Matrix   MatrixConfig   `yaml:"matrix" toml:"matrix"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds admin token configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" toml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-" toml:"-"`

	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// ConsoleConfig holds settings for the admin console and its drafts
type ConsoleConfig struct {
	// BaseURL is the external chat server URL used to build webhook URLs
	BaseURL string `yaml:"base_url" toml:"base_url"`
	// PluginID is the plugin whose settings the console edits by default
	PluginID string `yaml:"plugin_id" toml:"plugin_id"`
	// SettingID names the webhook collection setting inside the plugin
	SettingID string `yaml:"setting_id" toml:"setting_id"`
	// HelpText is Markdown shown under the section header
	HelpText string `yaml:"help_text" toml:"help_text"`

	DraftTTL  time.Duration `yaml:"-" toml:"-"`
	MaxDrafts int           `yaml:"max_drafts" toml:"max_drafts"`

	DraftTTLRaw string `yaml:"draft_ttl" toml:"draft_ttl"`
}

// MatrixConfig holds the homeserver used to provision alert channels
type MatrixConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Homeserver  string `yaml:"homeserver" toml:"homeserver"`
	UserID      string `yaml:"user_id" toml:"user_id"`
	AccessToken string `yaml:"access_token" toml:"access_token"`
	// ServerName is the alias domain, e.g. "example.com" in #ops-alerts:example.com
	ServerName string `yaml:"server_name" toml:"server_name"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Console.PluginID == "" {
		c.Console.PluginID = DefaultPluginID
	}
	if c.Console.SettingID == "" {
		c.Console.SettingID = DefaultSettingID
	}
	if c.Console.DraftTTL == 0 {
		c.Console.DraftTTL = DefaultDraftTTL
	}
	if c.Console.MaxDrafts == 0 {
		c.Console.MaxDrafts = DefaultMaxDrafts
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}

	if c.Console.BaseURL != "" {
		u, err := url.Parse(c.Console.BaseURL)
		if err != nil {
			return fmt.Errorf("console.base_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("console.base_url must use http or https scheme")
		}
	}

	if c.Console.MaxDrafts < 0 {
		return fmt.Errorf("console.max_drafts must not be negative")
	}

	if c.Matrix.Enabled {
		if c.Matrix.Homeserver == "" {
			return fmt.Errorf("matrix.homeserver is required when matrix is enabled")
		}
		if _, err := url.Parse(c.Matrix.Homeserver); err != nil {
			return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
		}
		if c.Matrix.AccessToken == "" {
			return fmt.Errorf("matrix.access_token is required when matrix is enabled")
		}
		if c.Matrix.ServerName == "" {
			return fmt.Errorf("matrix.server_name is required when matrix is enabled")
		}
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Console.DraftTTLRaw != "" {
		cfg.Console.DraftTTL, err = time.ParseDuration(cfg.Console.DraftTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing draft_ttl %q: %w", cfg.Console.DraftTTLRaw, err)
		}
	}

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	return nil
}
