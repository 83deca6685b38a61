package documents

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

// Config bounds what may be selected for upload.
type Config struct {
	MaxSize      string   `toml:"max_size"`
	AllowedTypes []string `toml:"allowed_types"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxSize      string
	AllowedTypes string
}

// MaxSizeBytes returns MaxSize parsed as a byte count.
func (c *Config) MaxSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
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
	if overlay.MaxSize != "" {
		c.MaxSize = overlay.MaxSize
	}
	if overlay.AllowedTypes != nil {
		c.AllowedTypes = overlay.AllowedTypes
	}
}

func (c *Config) loadDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = "50MB"
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = []string{"application/pdf"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxSize != "" {
		if v := os.Getenv(env.MaxSize); v != "" {
			c.MaxSize = v
		}
	}
	if env.AllowedTypes != "" {
		if v := os.Getenv(env.AllowedTypes); v != "" {
			types := strings.Split(v, ",")
			c.AllowedTypes = make([]string, 0, len(types))
			for _, t := range types {
				if trimmed := strings.TrimSpace(t); trimmed != "" {
					c.AllowedTypes = append(c.AllowedTypes, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	size, err := formatting.ParseBytes(c.MaxSize)
	if err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	return nil
}
