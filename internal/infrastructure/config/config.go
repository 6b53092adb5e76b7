package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// FileEnv names the environment variable pointing at an optional YAML overlay.
const FileEnv = "SHELL_CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Manifest  ManifestConfig  `yaml:"manifest"`
	Loader    LoaderConfig    `yaml:"loader"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port"`
	Host string `envconfig:"HOST" yaml:"host"`
	Gzip bool   `envconfig:"SERVER_GZIP" yaml:"gzip"`
}

// ManifestConfig controls where the micro-app registry is fetched from.
type ManifestConfig struct {
	PrimaryBaseURL  string        `envconfig:"MANIFEST_PRIMARY_URL" yaml:"primary_base_url"`
	FallbackBaseURL string        `envconfig:"MANIFEST_FALLBACK_URL" yaml:"fallback_base_url"`
	Preferred       string        `envconfig:"MANIFEST_PREFERRED" yaml:"preferred"`
	FullPath        string        `envconfig:"MANIFEST_FULL_PATH" yaml:"full_path"`
	PublicPath      string        `envconfig:"MANIFEST_PUBLIC_PATH" yaml:"public_path"`
	RefreshInterval time.Duration `envconfig:"MANIFEST_REFRESH_INTERVAL" yaml:"refresh_interval"`
	VerifyPartition bool          `envconfig:"MANIFEST_VERIFY_PARTITION" yaml:"verify_partition"`
}

// LoaderConfig controls bundle loading.
type LoaderConfig struct {
	Timeout       time.Duration `envconfig:"LOADER_TIMEOUT" yaml:"timeout"`
	Extensions    []string      `envconfig:"LOADER_EXTENSIONS" yaml:"extensions"`
	AllowPatterns []string      `envconfig:"LOADER_ALLOW_PATTERNS" yaml:"allow_patterns"`
}

// SandboxConfig controls the JavaScript runtime.
type SandboxConfig struct {
	Timeout          time.Duration `envconfig:"SANDBOX_TIMEOUT" yaml:"timeout"`
	MaxCallStackSize int           `envconfig:"SANDBOX_MAX_CALL_STACK" yaml:"max_call_stack"`
	MaxRenderDepth   int           `envconfig:"SANDBOX_MAX_RENDER_DEPTH" yaml:"max_render_depth"`
	EnableConsole    bool          `envconfig:"SANDBOX_CONSOLE" yaml:"enable_console"`
}

// FetchConfig controls the outbound HTTP client.
type FetchConfig struct {
	Timeout           time.Duration `envconfig:"FETCH_TIMEOUT" yaml:"timeout"`
	RetryCount        int           `envconfig:"FETCH_RETRIES" yaml:"retries"`
	RequestsPerSecond float64       `envconfig:"FETCH_RPS" yaml:"requests_per_second"`
	UserAgent         string        `envconfig:"FETCH_USER_AGENT" yaml:"user_agent"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled"`
}

// Load reads the optional YAML overlay named by SHELL_CONFIG_FILE, then applies
// environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Manifest.Preferred {
	case "primary", "fallback":
	default:
		return fmt.Errorf("invalid MANIFEST_PREFERRED %q: want primary or fallback", c.Manifest.Preferred)
	}
	if c.Manifest.PrimaryBaseURL == "" && c.Manifest.FallbackBaseURL == "" {
		return fmt.Errorf("at least one manifest base URL is required")
	}
	if c.Manifest.RefreshInterval < 0 {
		return fmt.Errorf("manifest refresh interval must not be negative")
	}
	if len(c.Loader.Extensions) == 0 {
		return fmt.Errorf("at least one loader extension is required")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
			Gzip: true,
		},
		Manifest: ManifestConfig{
			PrimaryBaseURL:  "http://localhost:3000",
			Preferred:       "primary",
			FullPath:        "manifest.json",
			PublicPath:      "public-manifest.json",
			RefreshInterval: 5 * time.Second,
		},
		Loader: LoaderConfig{
			Timeout:       time.Minute,
			Extensions:    []string{".js", ".jsx", ".ts", ".tsx"},
			AllowPatterns: []string{"**"},
		},
		Sandbox: SandboxConfig{
			MaxCallStackSize: 1024,
			MaxRenderDepth:   256,
			EnableConsole:    true,
		},
		Fetch: FetchConfig{
			Timeout:    30 * time.Second,
			RetryCount: 1,
			UserAgent:  "SuperApp-Shell/1.0",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
