package workflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/JaimeStill/scribe/internal/backend"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/poller"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// Backend is the job engine contract a Session drives.
type Backend interface {
	pages.Fetcher
	poller.Fetcher
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*backend.UploadResult, error)
	GenerateReport(ctx context.Context, jobID, clientName string) error
	Download(ctx context.Context, jobID, kind string) (*backend.Download, error)
}

// Runtime bundles the dependencies a Session requires.
// It is constructed by higher-level composition code from Infrastructure and configuration.
type Runtime struct {
	Backend       Backend
	Poller        *poller.Config
	Storage       storage.System
	DownloadKinds []string
	Logger        *slog.Logger
}
