package documents_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/jobs"
)

// pdfHeader sniffs as a PDF but carries no readable page tree.
const pdfHeader = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"

func newIntake(t *testing.T, cfg documents.Config) *documents.Intake {
	t.Helper()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return documents.NewIntake(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRead(t *testing.T) {
	intake := newIntake(t, documents.Config{MaxSize: "1KB"})

	tests := []struct {
		name     string
		filename string
		body     io.Reader
		wantErr  error
	}{
		{"pdf", "scan.pdf", strings.NewReader(pdfHeader), nil},
		{"no reader", "scan.pdf", nil, documents.ErrNoFile},
		{"no name", " ", strings.NewReader(pdfHeader), documents.ErrNoFile},
		{"empty", "scan.pdf", strings.NewReader(""), documents.ErrEmptyFile},
		{"too large", "scan.pdf", strings.NewReader(pdfHeader + strings.Repeat("x", 1024)), documents.ErrFileTooLarge},
		{"text file", "notes.pdf", strings.NewReader("just some notes"), documents.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := intake.Read(tt.filename, tt.body)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, jobs.ErrValidation) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.ContentType != "application/pdf" {
				t.Errorf("content type: got %s", doc.ContentType)
			}
			if doc.Size != int64(len(pdfHeader)) {
				t.Errorf("size: got %d, want %d", doc.Size, len(pdfHeader))
			}
			if doc.PageCount != nil {
				t.Errorf("page count: got %d, want nil for an unreadable page tree", *doc.PageCount)
			}
		})
	}
}

func TestReadAllowedTypes(t *testing.T) {
	intake := newIntake(t, documents.Config{AllowedTypes: []string{"application/pdf", "text/plain"}})

	doc, err := intake.Read("notes.txt", strings.NewReader("plain text body"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.ContentType != "text/plain" {
		t.Errorf("content type: got %s, want text/plain", doc.ContentType)
	}
	if doc.PageCount != nil {
		t.Error("page count set for a non-PDF")
	}
}

func TestOpen(t *testing.T) {
	intake := newIntake(t, documents.Config{})

	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte(pdfHeader), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := intake.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if doc.Filename != "scan.pdf" {
		t.Errorf("filename: got %s", doc.Filename)
	}

	if _, err := intake.Open(""); !errors.Is(err, documents.ErrNoFile) {
		t.Errorf("empty path: got %v", err)
	}
	if _, err := intake.Open(filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     documents.Config
		want    int64
		wantErr bool
	}{
		{"defaults", documents.Config{}, 50 * 1024 * 1024, false},
		{"kilobytes", documents.Config{MaxSize: "2KB"}, 2048, false},
		{"invalid", documents.Config{MaxSize: "lots"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("finalize: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.cfg.MaxSizeBytes() != tt.want {
				t.Errorf("max size: got %d, want %d", tt.cfg.MaxSizeBytes(), tt.want)
			}
		})
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_UPLOAD_TYPES", "application/pdf, image/png")

	cfg := documents.Config{}
	if err := cfg.Finalize(&documents.Env{AllowedTypes: "TEST_UPLOAD_TYPES"}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(cfg.AllowedTypes) != 2 || cfg.AllowedTypes[1] != "image/png" {
		t.Errorf("allowed types: got %v", cfg.AllowedTypes)
	}
}
