// Package config loads and saves the copilotpulse TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Default GitHub API settings.
const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultAPIVersion = "2022-11-28"
	DefaultServerAddr = "127.0.0.1:8787"
)

// Config holds all copilotpulse configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	GitHub     GitHubConfig     `toml:"github"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Inputs   []string `toml:"inputs,omitempty"` // files or directories loaded when none are given
	Users    []string `toml:"users,omitempty"`  // default user filter; empty means everyone
	TopUsers int      `toml:"top_users"`
	NoCache  bool     `toml:"no_cache"`
}

// GitHubConfig holds the metrics API settings used to fetch report links.
type GitHubConfig struct {
	Token      string `toml:"token,omitempty"`
	Org        string `toml:"org,omitempty"`
	BaseURL    string `toml:"base_url,omitempty"`
	APIVersion string `toml:"api_version,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds `serve` settings.
type ServerConfig struct {
	Addr           string `toml:"addr"`
	Watch          bool   `toml:"watch"`
	ReloadInterval string `toml:"reload_interval,omitempty"` // e.g. "5m"; empty disables polling
}

// Interval parses ReloadInterval. Invalid or empty values disable polling.
func (s ServerConfig) Interval() time.Duration {
	if s.ReloadInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.ReloadInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			TopUsers: 10,
		},
		GitHub: GitHubConfig{
			BaseURL:    DefaultBaseURL,
			APIVersion: DefaultAPIVersion,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "copilotpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "copilotpulse")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Token environment variables, checked in order.
var tokenEnvVars = []string{"COPILOTPULSE_TOKEN", "GITHUB_TOKEN"}

// GetToken returns the API token from env vars or config, in that order.
func GetToken(cfg Config) string {
	for _, name := range tokenEnvVars {
		if tok := os.Getenv(name); tok != "" {
			return tok
		}
	}
	return cfg.GitHub.Token
}

// GetOrg returns the organization from COPILOTPULSE_ORG or config.
func GetOrg(cfg Config) string {
	if org := os.Getenv("COPILOTPULSE_ORG"); org != "" {
		return org
	}
	return cfg.GitHub.Org
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
