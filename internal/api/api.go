// Package api assembles the API module: the workflow session, artifact
// access, and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/pkg/middleware"
	"github.com/JaimeStill/scribe/pkg/module"
)

// NewModule creates the API module with the session handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)

	return m, nil
}
