package storage

import (
	"fmt"
	"os"
)

// Providers selectable through Config.Provider.
const (
	ProviderLocal = "local"
	ProviderAzure = "azure"
)

// Config selects and parameterizes the artifact store.
// The azure provider authenticates with ConnectionString when set, otherwise
// with the default Azure credential chain against ServiceURL.
type Config struct {
	Provider         string `toml:"provider"`
	Root             string `toml:"root"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Root             string
	ContainerName    string
	ConnectionString string
	ServiceURL       string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Root == "" {
		c.Root = "artifacts"
	}
	if c.ContainerName == "" {
		c.ContainerName = "reports"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, field *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
	set(env.Provider, &c.Provider)
	set(env.Root, &c.Root)
	set(env.ContainerName, &c.ContainerName)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.ServiceURL, &c.ServiceURL)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.Root == "" {
			return fmt.Errorf("root required")
		}
	case ProviderAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.ServiceURL == "" {
			return fmt.Errorf("connection_string or service_url required")
		}
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
	return nil
}
