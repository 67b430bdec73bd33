package vultrdns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultTTL is the record TTL used when a target does not set one.
const DefaultTTL = 60

// EnvAPIKey is the environment variable consulted when no API key is given
// explicitly.
const EnvAPIKey = "VULTR_API_KEY"

// Config is the application configuration.
type Config struct {
	APIKey      string         `toml:"api_key"`
	Targets     []UpdateTarget `toml:"targets"`
	IPCheckURLs []string       `toml:"ip_check_urls"`
}

// DefaultConfigPaths returns the locations searched for a config file, in
// priority order.
func DefaultConfigPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", "vultr-dns-updater", "config.toml"),
		filepath.Join(home, ".vultr-dns-updater.toml"),
		"vultr-dns-updater.toml",
	}
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Reason: "configuration file not found: " + path}
		}
		return nil, &ConfigError{Reason: "reading " + path, Err: err}
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Reason: "invalid TOML in " + path, Err: err}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig loads the explicit path when given, otherwise the first
// existing file among DefaultConfigPaths.
func FindConfig(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return LoadConfig(explicitPath)
	}
	paths := DefaultConfigPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	var b strings.Builder
	b.WriteString("no configuration file found; searched:")
	for _, path := range paths {
		b.WriteString("\n  - ")
		b.WriteString(path)
	}
	b.WriteString("\n\ncreate one with: vultr-dns init-config")
	return nil, &ConfigError{Reason: b.String()}
}

func (c *Config) applyDefaults() {
	if len(c.IPCheckURLs) == 0 {
		c.IPCheckURLs = DefaultIPCheckURLs()
	}
	for i := range c.Targets {
		if c.Targets[i].TTL == 0 {
			c.Targets[i].TTL = DefaultTTL
		}
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return &ConfigError{Reason: "api_key must be set"}
	}
	for i, t := range c.Targets {
		if t.Domain == "" {
			return &ConfigError{Reason: fmt.Sprintf("targets[%d]: domain must be set", i)}
		}
		if t.TTL <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("targets[%d]: ttl must be a positive integer", i)}
		}
	}
	return nil
}

// ResolveAPIKey returns the first non-empty of: the explicit value, the
// VULTR_API_KEY environment variable (a local .env file is honored), and the
// config file's api_key. cfg may be nil.
func ResolveAPIKey(explicit string, cfg *Config) string {
	if explicit != "" {
		return explicit
	}
	_ = godotenv.Load()
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.APIKey
	}
	return ""
}

// ExampleConfig is the config file template written by init-config.
const ExampleConfig = `# Vultr DNS Updater Configuration
# Place this file at ~/.config/vultr-dns-updater/config.toml

# Your Vultr API key (required)
api_key = "YOUR_VULTR_API_KEY"

# DNS update targets
[[targets]]
domain = "example.com"      # Your domain in Vultr DNS
subdomain = "home"          # Subdomain to update (creates home.example.com)
ttl = 60                    # TTL in seconds (optional, default: 60)

# You can add multiple targets
# [[targets]]
# domain = "example.com"
# subdomain = "work"
# ttl = 60

# Optional: Custom IP check URLs (defaults are usually fine)
# ip_check_urls = [
#     "https://api.ipify.org",
#     "https://ifconfig.me/ip",
#     "https://icanhazip.com",
# ]
`

// WriteExampleConfig creates path with the example config content,
// substituting apiKey for the placeholder when non-empty. It refuses to
// overwrite an existing file.
func WriteExampleConfig(path, apiKey string) error {
	if _, err := os.Stat(path); err == nil {
		return &ConfigError{Reason: "configuration file already exists: " + path}
	}
	content := ExampleConfig
	if apiKey != "" {
		content = strings.Replace(content, `"YOUR_VULTR_API_KEY"`, fmt.Sprintf("%q", apiKey), 1)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &ConfigError{Reason: "creating config directory", Err: err}
	}
	// the file holds a credential
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return &ConfigError{Reason: "writing " + path, Err: err}
	}
	return nil
}
