package poller

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls poll cadence and the transport retry policy.
// MaxRetries of zero stops the loop on the first transport failure.
type Config struct {
	Interval    string `toml:"interval"`
	MaxRetries  int    `toml:"max_retries"`
	BackoffBase string `toml:"backoff_base"`
	BackoffMax  string `toml:"backoff_max"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Interval    string
	MaxRetries  string
	BackoffBase string
	BackoffMax  string
}

// IntervalDuration returns Interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// BackoffBaseDuration returns BackoffBase as a time.Duration.
func (c *Config) BackoffBaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackoffBase)
	return d
}

// BackoffMaxDuration returns BackoffMax as a time.Duration.
func (c *Config) BackoffMaxDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackoffMax)
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
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.BackoffBase != "" {
		c.BackoffBase = overlay.BackoffBase
	}
	if overlay.BackoffMax != "" {
		c.BackoffMax = overlay.BackoffMax
	}
}

func (c *Config) loadDefaults() {
	if c.Interval == "" {
		c.Interval = "2s"
	}
	if c.BackoffBase == "" {
		c.BackoffBase = "1s"
	}
	if c.BackoffMax == "" {
		c.BackoffMax = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Interval != "" {
		if v := os.Getenv(env.Interval); v != "" {
			c.Interval = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
	if env.BackoffBase != "" {
		if v := os.Getenv(env.BackoffBase); v != "" {
			c.BackoffBase = v
		}
	}
	if env.BackoffMax != "" {
		if v := os.Getenv(env.BackoffMax); v != "" {
			c.BackoffMax = v
		}
	}
}

func (c *Config) validate() error {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	base, err := time.ParseDuration(c.BackoffBase)
	if err != nil {
		return fmt.Errorf("invalid backoff_base: %w", err)
	}
	ceiling, err := time.ParseDuration(c.BackoffMax)
	if err != nil {
		return fmt.Errorf("invalid backoff_max: %w", err)
	}
	if base <= 0 || ceiling < base {
		return fmt.Errorf("backoff requires 0 < backoff_base <= backoff_max")
	}
	return nil
}
