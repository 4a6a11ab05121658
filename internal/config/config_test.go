package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.General.Inputs = []string{"./exports"}
	cfg.General.Users = []string{"octocat"}
	cfg.GitHub.Org = "acme"
	cfg.GitHub.Token = "ghp_secret"
	cfg.Server.ReloadInterval = "5m"
	require.NoError(t, SaveTo(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, 5*time.Minute, got.Server.Interval())
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[github]\norg = \"acme\"\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.GitHub.Org)
	assert.Equal(t, DefaultBaseURL, cfg.GitHub.BaseURL)
	assert.Equal(t, 10, cfg.General.TopUsers)
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[github\n"), 0o600))

	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestGetToken_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "from-config"

	t.Setenv("COPILOTPULSE_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	assert.Equal(t, "from-config", GetToken(cfg))

	t.Setenv("GITHUB_TOKEN", "from-gh")
	assert.Equal(t, "from-gh", GetToken(cfg))

	t.Setenv("COPILOTPULSE_TOKEN", "from-app")
	assert.Equal(t, "from-app", GetToken(cfg))
}

func TestServerInterval(t *testing.T) {
	assert.Zero(t, ServerConfig{}.Interval())
	assert.Zero(t, ServerConfig{ReloadInterval: "soon"}.Interval())
	assert.Equal(t, 30*time.Second, ServerConfig{ReloadInterval: "30s"}.Interval())
}
