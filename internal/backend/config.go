package backend

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds the job engine endpoint and per-request limits.
type Config struct {
	BaseURL        string   `toml:"base_url"`
	RequestTimeout string   `toml:"request_timeout"`
	DownloadKinds  []string `toml:"download_kinds"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	RequestTimeout string
	DownloadKinds  string
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.DownloadKinds != nil {
		c.DownloadKinds = overlay.DownloadKinds
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
	if len(c.DownloadKinds) == 0 {
		c.DownloadKinds = []string{"markdown", "docx"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.RequestTimeout != "" {
		if v := os.Getenv(env.RequestTimeout); v != "" {
			c.RequestTimeout = v
		}
	}
	if env.DownloadKinds != "" {
		if v := os.Getenv(env.DownloadKinds); v != "" {
			kinds := strings.Split(v, ",")
			c.DownloadKinds = make([]string, 0, len(kinds))
			for _, kind := range kinds {
				if trimmed := strings.TrimSpace(kind); trimmed != "" {
					c.DownloadKinds = append(c.DownloadKinds, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url requires a host")
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
