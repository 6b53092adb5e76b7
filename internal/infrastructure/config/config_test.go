package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "http://localhost:3000", cfg.Manifest.PrimaryBaseURL)
	assert.Equal(t, "primary", cfg.Manifest.Preferred)
	assert.Equal(t, "manifest.json", cfg.Manifest.FullPath)
	assert.Equal(t, "public-manifest.json", cfg.Manifest.PublicPath)
	assert.Equal(t, 5*time.Second, cfg.Manifest.RefreshInterval)

	assert.Equal(t, []string{".js", ".jsx", ".ts", ".tsx"}, cfg.Loader.Extensions)
	assert.Equal(t, []string{"**"}, cfg.Loader.AllowPatterns)
	assert.Equal(t, time.Minute, cfg.Loader.Timeout)
	assert.Zero(t, cfg.Sandbox.Timeout)
	assert.Equal(t, 256, cfg.Sandbox.MaxRenderDepth)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                      "9000",
		"MANIFEST_PRIMARY_URL":      "http://bundles.local:3000",
		"MANIFEST_FALLBACK_URL":     "https://acme.github.io/super-app",
		"MANIFEST_PREFERRED":        "fallback",
		"MANIFEST_REFRESH_INTERVAL": "30s",
		"LOADER_EXTENSIONS":         ".js,.mjs",
		"SANDBOX_TIMEOUT":           "2s",
		"LOG_LEVEL":                 "debug",
		"RATE_LIMIT_ENABLED":        "false",
		"MANIFEST_VERIFY_PARTITION": "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "http://bundles.local:3000", cfg.Manifest.PrimaryBaseURL)
	assert.Equal(t, "https://acme.github.io/super-app", cfg.Manifest.FallbackBaseURL)
	assert.Equal(t, "fallback", cfg.Manifest.Preferred)
	assert.Equal(t, 30*time.Second, cfg.Manifest.RefreshInterval)
	assert.Equal(t, []string{".js", ".mjs"}, cfg.Loader.Extensions)
	assert.Equal(t, 2*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Manifest.VerifyPartition)

	// untouched fields keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "public-manifest.json", cfg.Manifest.PublicPath)
}

func TestLoadRejectsUnknownPreference(t *testing.T) {
	t.Setenv("MANIFEST_PREFERRED", "secondary")

	_, err := Load()
	assert.ErrorContains(t, err, "secondary")
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.yaml")
	content := `
server:
  port: "7000"
manifest:
  primary_base_url: http://overlay:3000
  refresh_interval: 1m
loader:
  allow_patterns:
    - "overlay:3000/**"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	// environment wins over the file
	assert.Equal(t, "7100", cfg.Server.Port)
	assert.Equal(t, "http://overlay:3000", cfg.Manifest.PrimaryBaseURL)
	assert.Equal(t, time.Minute, cfg.Manifest.RefreshInterval)
	assert.Equal(t, []string{"overlay:3000/**"}, cfg.Loader.AllowPatterns)
	assert.Equal(t, "public-manifest.json", cfg.Manifest.PublicPath)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
