// Package config loads layered service configuration: an optional base TOML
// file, an optional environment overlay, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/scribe/internal/backend"
	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/poller"
	"github.com/JaimeStill/scribe/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvScribeEnv             = "SCRIBE_ENV"
	EnvScribeShutdownTimeout = "SCRIBE_SHUTDOWN_TIMEOUT"
	EnvScribeVersion         = "SCRIBE_VERSION"
)

var backendEnv = &backend.Env{
	BaseURL:        "SCRIBE_BACKEND_BASE_URL",
	RequestTimeout: "SCRIBE_BACKEND_REQUEST_TIMEOUT",
	DownloadKinds:  "SCRIBE_BACKEND_DOWNLOAD_KINDS",
}

var pollerEnv = &poller.Env{
	Interval:    "SCRIBE_POLLER_INTERVAL",
	MaxRetries:  "SCRIBE_POLLER_MAX_RETRIES",
	BackoffBase: "SCRIBE_POLLER_BACKOFF_BASE",
	BackoffMax:  "SCRIBE_POLLER_BACKOFF_MAX",
}

var uploadEnv = &documents.Env{
	MaxSize:      "SCRIBE_UPLOAD_MAX_SIZE",
	AllowedTypes: "SCRIBE_UPLOAD_ALLOWED_TYPES",
}

var storageEnv = &storage.Env{
	Provider:         "SCRIBE_STORAGE_PROVIDER",
	Root:             "SCRIBE_STORAGE_ROOT",
	ContainerName:    "SCRIBE_STORAGE_CONTAINER_NAME",
	ConnectionString: "SCRIBE_STORAGE_CONNECTION_STRING",
	ServiceURL:       "SCRIBE_STORAGE_SERVICE_URL",
}

// Config is the root configuration for the Scribe service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Backend         backend.Config   `toml:"backend"`
	Poller          poller.Config    `toml:"poller"`
	Upload          documents.Config `toml:"upload"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Logging         LoggingConfig    `toml:"logging"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the SCRIBE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvScribeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load applies a .env file to the process environment (without replacing
// variables already set), reads the base config if present, applies any
// environment overlay, and finalizes all values.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Backend.Merge(&overlay.Backend)
	c.Poller.Merge(&overlay.Poller)
	c.Upload.Merge(&overlay.Upload)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Backend.Finalize(backendEnv); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Poller.Finalize(pollerEnv); err != nil {
		return fmt.Errorf("poller: %w", err)
	}
	if err := c.Upload.Finalize(uploadEnv); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvScribeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvScribeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvScribeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
