// Package storage persists report artifacts: files downloaded from the job
// engine and exports of locally edited reports. Artifacts live either in a
// local directory or in an Azure Blob Storage container.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

// System stores and retrieves artifacts by slash-separated key.
type System interface {
	// Start registers a startup hook that prepares the backing location.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to the artifact at key and returns the bytes written.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (int64, error)
	// Download returns a stream for the artifact at key. The caller must close the reader.
	// Returns ErrNotFound if the artifact does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the artifact at key. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an artifact exists at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the provider named by cfg.Provider.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Provider {
	case ProviderLocal:
		return newLocal(cfg, logger), nil
	case ProviderAzure:
		return newAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Provider)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
