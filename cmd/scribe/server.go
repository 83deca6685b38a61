package main

import (
	"context"
	"time"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

// Server wires infrastructure, modules, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

// NewServer builds every subsystem without starting any of them.
func NewServer(cfg *config.Config) (*Server, error) {
	lc := lifecycle.New(context.Background())

	infra, err := infrastructure.New(lc, cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	if err := modules.Mount(router); err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"scribe initialized",
		"addr", cfg.Server.Addr(),
		"backend", cfg.Backend.BaseURL,
		"storage", cfg.Storage.Provider,
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers startup and shutdown hooks and begins listening.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle and waits for hooks within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return err
	}
	s.infra.Logger.Info("scribe stopped")
	return nil
}
