// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (lifecycle, logging, artifact storage,
// job engine client) that the workflow and API modules require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JaimeStill/scribe/internal/backend"
	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Storage   storage.System
	Backend   *backend.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(lc *lifecycle.Coordinator, cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	client, err := backend.New(&cfg.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("backend client init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Storage:   store,
		Backend:   client,
	}, nil
}

// NewLogger builds the process logger on stderr from the logging config.
func NewLogger(cfg *config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Start registers infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
