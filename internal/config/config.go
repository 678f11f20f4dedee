package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/gerunddev/blockbridge/internal/parser"
)

// TokenEnv is the environment variable that overrides the configured token
const TokenEnv = "NOTION_TOKEN"

// Config represents the blockbridge configuration
type Config struct {
	Token           string        `json:"token,omitempty"`
	APIBaseURL      string        `json:"api_base_url"`
	NotionVersion   string        `json:"notion_version"`
	DefaultParent   string        `json:"default_parent,omitempty"`
	LogFile         string        `json:"log_file"`
	LogLevel        string        `json:"log_level"`
	RequestInterval time.Duration `json:"-"` // Custom JSON handling below
	WatchDebounce   time.Duration `json:"-"`
	EmbedDomains    []string      `json:"embed_domains,omitempty"`
}

// rawConfig is the on-disk shape, with durations as strings
type rawConfig struct {
	Token           string   `json:"token,omitempty"`
	APIBaseURL      string   `json:"api_base_url"`
	NotionVersion   string   `json:"notion_version"`
	DefaultParent   string   `json:"default_parent,omitempty"`
	LogFile         string   `json:"log_file"`
	LogLevel        string   `json:"log_level"`
	RequestInterval string   `json:"request_interval"`
	WatchDebounce   string   `json:"watch_debounce"`
	EmbedDomains    []string `json:"embed_domains,omitempty"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:      "https://api.notion.com/v1",
		NotionVersion:   "2022-06-28",
		LogFile:         filepath.Join(os.TempDir(), "blockbridge.log"),
		LogLevel:        "info",
		RequestInterval: 350 * time.Millisecond, // Notion allows ~3 requests/second
		WatchDebounce:   500 * time.Millisecond,
		EmbedDomains:    append([]string(nil), parser.DefaultEmbedDomains...),
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "blockbridge", "config.json")
	}
	return filepath.Join(home, ".config", "blockbridge", "config.json")
}

// StateFilePath returns the path to the state file
// Uses platform-specific XDG data directory
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "blockbridge", "state.json")
}

// Load reads configuration from the config directory. A missing file yields
// the defaults. The NOTION_TOKEN environment variable wins over the file.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		cfg.Token = token
	}

	return cfg, nil
}

func load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	defaults := DefaultConfig()
	raw := rawConfig{
		APIBaseURL:      defaults.APIBaseURL,
		NotionVersion:   defaults.NotionVersion,
		LogFile:         defaults.LogFile,
		LogLevel:        defaults.LogLevel,
		RequestInterval: defaults.RequestInterval.String(),
		WatchDebounce:   defaults.WatchDebounce.String(),
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	requestInterval, err := time.ParseDuration(raw.RequestInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid request_interval format '%s': %w", raw.RequestInterval, err)
	}

	watchDebounce, err := time.ParseDuration(raw.WatchDebounce)
	if err != nil {
		return nil, fmt.Errorf("invalid watch_debounce format '%s': %w", raw.WatchDebounce, err)
	}

	embedDomains := raw.EmbedDomains
	if embedDomains == nil {
		embedDomains = defaults.EmbedDomains
	}

	cfg := &Config{
		Token:           raw.Token,
		APIBaseURL:      strings.TrimRight(raw.APIBaseURL, "/"),
		NotionVersion:   raw.NotionVersion,
		DefaultParent:   raw.DefaultParent,
		LogFile:         raw.LogFile,
		LogLevel:        raw.LogLevel,
		RequestInterval: requestInterval,
		WatchDebounce:   watchDebounce,
		EmbedDomains:    embedDomains,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	configPath := ConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw := rawConfig{
		Token:           c.Token,
		APIBaseURL:      c.APIBaseURL,
		NotionVersion:   c.NotionVersion,
		DefaultParent:   c.DefaultParent,
		LogFile:         c.LogFile,
		LogLevel:        c.LogLevel,
		RequestInterval: c.RequestInterval.String(),
		WatchDebounce:   c.WatchDebounce.String(),
		EmbedDomains:    c.EmbedDomains,
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API token
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url cannot be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url '%s': must be an absolute URL", c.APIBaseURL)
	}
	if c.NotionVersion == "" {
		return fmt.Errorf("notion_version cannot be empty")
	}
	if c.LogFile == "" {
		return fmt.Errorf("log_file cannot be empty")
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("request_interval cannot be negative")
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("watch_debounce must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level '%s': must be one of: debug, info, warn, error", c.LogLevel)
	}

	return nil
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
