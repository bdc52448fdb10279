package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the remote calendar provider endpoints and the OAuth
// application registration used to authenticate against it.
type ProviderConfig struct {
	// BaseURL is the root of the provider REST API, without a trailing slash
	// (e.g. "https://graph.microsoft.com/v1.0").
	BaseURL string `yaml:"base_url"`

	// Authority is the OAuth authorization server base URL
	// (e.g. "https://login.microsoftonline.com/common").
	Authority string `yaml:"authority"`

	// ClientID is the OAuth application (client) id.
	ClientID string `yaml:"client_id"`

	// RedirectURI is where the authorization server sends the user back.
	RedirectURI string `yaml:"redirect_uri"`

	// Scopes are the OAuth scopes requested at sign-in.
	Scopes []string `yaml:"scopes"`
}

// SyncConfig holds event-fetch tuning.
type SyncConfig struct {
	// OngoingDays is how many days of past events the default fetch window
	// includes. The server query goes one day wider; the client-side filter
	// uses this value exactly.
	OngoingDays int `yaml:"ongoing_days"`

	// WatchInterval is the cron spec used by the watch command
	// (e.g. "@every 5m").
	WatchInterval string `yaml:"watch_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Sync     SyncConfig     `yaml:"sync"`

	// DataDir is the directory holding the local key/value store.
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:     "https://graph.microsoft.com/v1.0",
			Authority:   "https://login.microsoftonline.com/common",
			RedirectURI: "http://localhost:53682/callback",
			Scopes:      []string{"Calendars.ReadWrite", "User.Read", "offline_access"},
		},
		Sync: SyncConfig{
			OngoingDays:   1,
			WatchInterval: "@every 5m",
		},
		DataDir: defaultDataDir(),
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = def.Provider.BaseURL
	}
	if c.Provider.Authority == "" {
		c.Provider.Authority = def.Provider.Authority
	}
	if c.Provider.RedirectURI == "" {
		c.Provider.RedirectURI = def.Provider.RedirectURI
	}
	if len(c.Provider.Scopes) == 0 {
		c.Provider.Scopes = def.Provider.Scopes
	}
	if c.Sync.OngoingDays <= 0 {
		c.Sync.OngoingDays = def.Sync.OngoingDays
	}
	if c.Sync.WatchInterval == "" {
		c.Sync.WatchInterval = def.Sync.WatchInterval
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
}

// Load reads the configuration file at path. A missing file is not an
// error: defaults are returned so first runs work without any setup.
// Environment variables CALSYNC_CLIENT_ID and CALSYNC_DATA_DIR override
// the file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First run; defaults apply.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("CALSYNC_CLIENT_ID"); v != "" {
		cfg.Provider.ClientID = v
	}
	if v := os.Getenv("CALSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	cfg.Normalize()
	return cfg, nil
}

// Save writes the configuration to path with restrictive permissions,
// creating parent directories as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "calsync", "config.yaml")
	}
	return filepath.Join(homeDir(), ".config", "calsync", "config.yaml")
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "calsync")
	}
	return filepath.Join(homeDir(), ".local", "share", "calsync")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
