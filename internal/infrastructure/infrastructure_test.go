package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.Root = t.TempDir()
	cfg.Logging.Level = "error"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	lc := lifecycle.New(context.Background())
	infra, err := infrastructure.New(lc, validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle != lc {
		t.Error("Lifecycle not retained")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Backend == nil {
		t.Error("Backend is nil")
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewUnknownStorageProvider(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Provider = "tape"

	if _, err := infrastructure.New(lifecycle.New(context.Background()), cfg); err == nil {
		t.Error("expected error for unknown storage provider")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"text", "text"},
		{"json", "json"},
		{"json uppercase", "JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "debug", Format: tt.format})
			if logger == nil {
				t.Fatal("logger is nil")
			}
			if !logger.Enabled(context.Background(), -4) {
				t.Error("debug level not enabled")
			}
		})
	}
}
