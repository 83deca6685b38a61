package documents

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/scribe/pkg/formatting"
)

// Intake validates selected files against the upload policy.
type Intake struct {
	maxSize int64
	allowed []string
	logger  *slog.Logger
}

// NewIntake creates an Intake from a finalized Config.
func NewIntake(cfg *Config, logger *slog.Logger) *Intake {
	return &Intake{
		maxSize: cfg.MaxSizeBytes(),
		allowed: cfg.AllowedTypes,
		logger:  logger.With("system", "documents"),
	}
}

// MaxSize returns the upload limit in bytes.
func (i *Intake) MaxSize() int64 {
	return i.maxSize
}

// Open reads and validates a file from disk.
func (i *Intake) Open(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return i.Read(filepath.Base(path), f)
}

// Read consumes r and validates it as a file named filename.
func (i *Intake) Read(filename string, r io.Reader) (*Document, error) {
	if r == nil || strings.TrimSpace(filename) == "" {
		return nil, ErrNoFile
	}

	data, err := io.ReadAll(io.LimitReader(r, i.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > i.maxSize {
		return nil, fmt.Errorf(
			"%w: %s exceeds %s",
			ErrFileTooLarge,
			filename,
			formatting.FormatBytes(i.maxSize, 0),
		)
	}

	contentType := detectContentType(data)
	if !i.accepts(contentType) {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, filename, contentType)
	}

	doc := &Document{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		PageCount:   i.pageCount(data, contentType),
		Data:        data,
	}

	i.logger.Info(
		"document selected",
		"filename", doc.Filename,
		"content_type", doc.ContentType,
		"size", formatting.FormatBytes(doc.Size, 1),
	)

	return doc, nil
}

func (i *Intake) accepts(contentType string) bool {
	return slices.Contains(i.allowed, contentType)
}

func (i *Intake) pageCount(data []byte, contentType string) (pages *int) {
	if contentType != "application/pdf" {
		return nil
	}

	// Malformed page trees can panic inside the parser.
	defer func() {
		if r := recover(); r != nil {
			i.logger.Warn("failed to read PDF page count", "panic", r)
			pages = nil
		}
	}()

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		i.logger.Warn("failed to read PDF page count", "error", err)
		return nil
	}

	return &count
}

// detectContentType drops mimetype parameters (e.g. "; charset=utf-8").
func detectContentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(mt, ";"); ok {
		return strings.TrimSpace(base)
	}
	return mt
}
