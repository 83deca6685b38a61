package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/scribe/pkg/middleware"
	"github.com/JaimeStill/scribe/pkg/openapi"
)

const EnvAPIBasePath = "SCRIBE_API_BASE_PATH"

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SCRIBE_CORS_ENABLED",
	Origins:          "SCRIBE_CORS_ORIGINS",
	AllowedMethods:   "SCRIBE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SCRIBE_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "SCRIBE_CORS_EXPOSED_HEADERS",
	AllowCredentials: "SCRIBE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SCRIBE_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "SCRIBE_OPENAPI_TITLE",
	Description: "SCRIBE_OPENAPI_DESCRIPTION",
}

// APIConfig holds the control surface mount point, its CORS policy, and the
// metadata of its OpenAPI document.
type APIConfig struct {
	BasePath string                `toml:"base_path"`
	CORS     middleware.CORSConfig `toml:"cors"`
	OpenAPI  openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
}

func (c *APIConfig) validate() error {
	if len(c.BasePath) < 2 || c.BasePath[0] != '/' {
		return fmt.Errorf("invalid base_path: %q", c.BasePath)
	}
	return nil
}
