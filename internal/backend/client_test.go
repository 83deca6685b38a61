package backend_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/internal/backend"
	"github.com/JaimeStill/scribe/internal/backend/backendtest"
	"github.com/JaimeStill/scribe/internal/jobs"
)

func newClient(t *testing.T, baseURL string) *backend.Client {
	t.Helper()

	cfg := &backend.Config{BaseURL: baseURL, RequestTimeout: "5s"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	c, err := backend.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestUpload(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	c := newClient(t, engine.URL())

	res, err := c.Upload(context.Background(), "scan.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.SessionID != "job-1" {
		t.Errorf("session id: got %s, want job-1", res.SessionID)
	}
	if got := engine.LastFilename(); got != "scan.pdf" {
		t.Errorf("filename: got %s, want scan.pdf", got)
	}
}

func TestUploadRejected(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	engine.FailUpload(http.StatusBadRequest)
	c := newClient(t, engine.URL())

	_, err := c.Upload(context.Background(), "scan.pdf", "application/pdf", strings.NewReader("x"))
	if !errors.Is(err, jobs.ErrTransport) {
		t.Fatalf("error: got %v, want transport error", err)
	}

	var te *backend.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type: got %T", err)
	}
	if te.StatusCode != http.StatusBadRequest || te.Detail != "upload rejected" {
		t.Errorf("transport error: got %+v", te)
	}
}

func TestStatus(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	report := "# Report"
	engine.Script(
		backendtest.Status{Status: "processing", Progress: 0.4, TotalPages: 3, ProcessedPages: 1},
		backendtest.Status{Status: "completed", Progress: 1, FinalOutput: &report},
	)
	c := newClient(t, engine.URL())
	ctx := context.Background()

	st, err := c.Status(ctx, "job-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != jobs.StatusProcessing || st.Progress != 0.4 || st.TotalPages != 3 {
		t.Errorf("first status: got %+v", st)
	}
	if st.FinalOutput != nil {
		t.Error("final output should be nil while processing")
	}

	st, err = c.Status(ctx, "job-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.FinalOutput == nil || *st.FinalOutput != report {
		t.Errorf("final output: got %v", st.FinalOutput)
	}
}

func TestStatusUnknownValue(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	engine.Script(backendtest.Status{Status: "paused"})
	c := newClient(t, engine.URL())

	_, err := c.Status(context.Background(), "job-1")
	if !errors.Is(err, jobs.ErrUnknownStatus) {
		t.Fatalf("error: got %v, want ErrUnknownStatus", err)
	}
	if errors.Is(err, jobs.ErrTransport) {
		t.Error("unknown status must not classify as transport")
	}
}

func TestStatusUnknownJob(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	c := newClient(t, engine.URL())

	_, err := c.Status(context.Background(), "other")
	var te *backend.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusNotFound {
		t.Fatalf("error: got %v, want 404 transport error", err)
	}
}

func TestPageAndImage(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	engine.SetPage(2, backendtest.Page{
		RawText:        "raw",
		TranslatedText: "translated",
		FormData:       map[string]any{"name": "Ada"},
	})
	c := newClient(t, engine.URL())
	ctx := context.Background()

	page, err := c.Page(ctx, "job-1", 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.RawText != "raw" || page.TranslatedText != "translated" || page.FormData["name"] != "Ada" {
		t.Errorf("page: got %+v", page)
	}

	img, err := c.Image(ctx, "job-1", 2)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if img != backendtest.PNG {
		t.Error("image payload not passed through")
	}
}

func TestSavePageAndGenerateReport(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	c := newClient(t, engine.URL())
	ctx := context.Background()

	if err := c.SavePage(ctx, "job-1", 3, "edited"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := engine.Saved(3); got != "edited" {
		t.Errorf("saved: got %q, want edited", got)
	}

	if err := c.GenerateReport(ctx, "job-1", "Acme"); err != nil {
		t.Fatalf("generate report: %v", err)
	}
	reports := engine.Reports()
	if len(reports) != 1 || reports[0].SessionID != "job-1" || reports[0].ClientName != "Acme" {
		t.Errorf("reports: got %+v", reports)
	}
}

func TestDownload(t *testing.T) {
	engine := backendtest.New(t, "job-1")
	engine.SetFile("docx", backendtest.File{
		Filename:    "../summary.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Body:        []byte("PK"),
	})
	c := newClient(t, engine.URL())

	d, err := c.Download(context.Background(), "job-1", "docx")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer d.Body.Close()

	if d.Filename != "summary.docx" {
		t.Errorf("filename: got %s, want summary.docx", d.Filename)
	}
	data, _ := io.ReadAll(d.Body)
	if string(data) != "PK" {
		t.Errorf("body: got %q", data)
	}

	if _, err := c.Download(context.Background(), "job-1", "markdown"); !errors.Is(err, jobs.ErrTransport) {
		t.Errorf("missing file: got %v, want transport error", err)
	}
}

func TestUnreachableEngine(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1")

	_, err := c.Status(context.Background(), "job-1")
	if !errors.Is(err, jobs.ErrTransport) {
		t.Fatalf("error: got %v, want transport error", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     backend.Config
		wantErr bool
	}{
		{"defaults", backend.Config{}, false},
		{"https", backend.Config{BaseURL: "https://engine.example.com/api"}, false},
		{"bad scheme", backend.Config{BaseURL: "ftp://engine"}, true},
		{"no host", backend.Config{BaseURL: "http://"}, true},
		{"bad timeout", backend.Config{RequestTimeout: "soon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("finalize: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "http://engine:9000")
	t.Setenv("TEST_BACKEND_KINDS", "markdown, pdf")

	cfg := &backend.Config{}
	env := &backend.Env{BaseURL: "TEST_BACKEND_URL", DownloadKinds: "TEST_BACKEND_KINDS"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.BaseURL != "http://engine:9000" {
		t.Errorf("base url: got %s", cfg.BaseURL)
	}
	if len(cfg.DownloadKinds) != 2 || cfg.DownloadKinds[1] != "pdf" {
		t.Errorf("download kinds: got %v", cfg.DownloadKinds)
	}
}
