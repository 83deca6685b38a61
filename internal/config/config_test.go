package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/config"
)

const baseConfig = `
shutdown_timeout = "20s"
version = "0.2.0"

[server]
host = "0.0.0.0"
port = 8090

[backend]
base_url = "http://engine:8000"
request_timeout = "10s"
download_kinds = ["markdown", "docx"]

[poller]
interval = "1s"
max_retries = 2

[upload]
max_size = "20MB"

[storage]
provider = "local"
root = "out"

[api]
base_path = "/api"

[api.cors]
enabled = true
origins = ["http://localhost:5173"]

[logging]
level = "debug"
format = "json"
`

const overlayConfig = `
[server]
port = 9090

[backend]
base_url = "https://engine.example.com"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8090" {
		t.Errorf("server addr: got %s, want 0.0.0.0:8090", cfg.Server.Addr())
	}
	if cfg.Backend.BaseURL != "http://engine:8000" {
		t.Errorf("backend url: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeoutDuration() != 10*time.Second {
		t.Errorf("request timeout: got %v, want 10s", cfg.Backend.RequestTimeoutDuration())
	}
	if cfg.Poller.IntervalDuration() != time.Second || cfg.Poller.MaxRetries != 2 {
		t.Errorf("poller: got %+v", cfg.Poller)
	}
	if cfg.Upload.MaxSizeBytes() != 20*1024*1024 {
		t.Errorf("upload max size: got %d", cfg.Upload.MaxSizeBytes())
	}
	if cfg.Storage.Root != "out" {
		t.Errorf("storage root: got %s, want out", cfg.Storage.Root)
	}
	if !cfg.API.CORS.Enabled || len(cfg.API.CORS.Origins) != 1 {
		t.Errorf("cors: got %+v", cfg.API.CORS)
	}
	if cfg.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", cfg.Logging.SlogLevel())
	}
	if cfg.ShutdownTimeoutDuration() != 20*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	t.Chdir(dir)

	t.Setenv(config.EnvScribeEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://engine.example.com" {
		t.Errorf("backend url: got %s (from overlay)", cfg.Backend.BaseURL)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server host: got %s, want 0.0.0.0 (from base)", cfg.Server.Host)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	t.Setenv("SCRIBE_VERSION", "2.0.0")
	t.Setenv("SCRIBE_SERVER_PORT", "3000")
	t.Setenv("SCRIBE_POLLER_INTERVAL", "250ms")
	t.Setenv("SCRIBE_BACKEND_DOWNLOAD_KINDS", "markdown")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Poller.IntervalDuration() != 250*time.Millisecond {
		t.Errorf("poll interval: got %v", cfg.Poller.IntervalDuration())
	}
	if len(cfg.Backend.DownloadKinds) != 1 {
		t.Errorf("download kinds: got %v", cfg.Backend.DownloadKinds)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.DotEnvFile, "SCRIBE_BACKEND_BASE_URL=http://dotenv:7000\n")
	t.Chdir(dir)

	// godotenv writes to the process environment directly.
	t.Cleanup(func() { os.Unsetenv("SCRIBE_BACKEND_BASE_URL") })

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://dotenv:7000" {
		t.Errorf("backend url: got %s, want http://dotenv:7000", cfg.Backend.BaseURL)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config file failed: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:8090" {
		t.Errorf("server addr default: got %s", cfg.Server.Addr())
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("backend default: got %s", cfg.Backend.BaseURL)
	}
	if cfg.Poller.IntervalDuration() != 2*time.Second || cfg.Poller.MaxRetries != 0 {
		t.Errorf("poller defaults: got %+v", cfg.Poller)
	}
	if cfg.Storage.Provider != "local" {
		t.Errorf("storage provider default: got %s", cfg.Storage.Provider)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path default: got %s", cfg.API.BasePath)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "server = ["},
		{"bad port", "[server]\nport = 70000\n"},
		{"bad backend url", "[backend]\nbase_url = \"ftp://engine\"\n"},
		{"bad poll interval", "[poller]\ninterval = \"never\"\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"bad base path", "[api]\nbase_path = \"api\"\n"},
		{"bad storage provider", "[storage]\nprovider = \"s3\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.content)
			t.Chdir(dir)

			if _, err := config.Load(); err == nil {
				t.Error("expected load error")
			}
		})
	}
}
