// Package backend is a typed client for the document job engine's HTTP contract:
// upload, status, page text and image, page save, report start, and download.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// Client issues requests against a single job engine.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client from a finalized Config.
func New(cfg *Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger:  logger.With("system", "backend"),
	}, nil
}

// Upload sends a document as the multipart field "file" and returns the
// engine's job identifier.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*UploadResult, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set(
		"Content-Disposition",
		mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": filename}),
	)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var result UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, c.endpoint("upload"), body, w.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	if result.SessionID == "" {
		return nil, &TransportError{Op: "upload", StatusCode: http.StatusOK, Detail: "response missing session_id"}
	}
	return &result, nil
}

// Status fetches the current job status. A status outside the closed
// vocabulary yields an error wrapping jobs.ErrUnknownStatus.
func (c *Client) Status(ctx context.Context, jobID string) (jobs.JobStatus, error) {
	var resp statusResponse
	if err := c.do(ctx, "status", http.MethodGet, c.endpoint("status", jobID), nil, "", &resp); err != nil {
		return jobs.JobStatus{}, err
	}
	return resp.toJobStatus()
}

// Page fetches the text content of a page.
func (c *Client) Page(ctx context.Context, jobID string, page int) (*PageContent, error) {
	var content PageContent
	if err := c.do(ctx, "page", http.MethodGet, c.endpoint("pages", jobID, strconv.Itoa(page)), nil, "", &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Image fetches the encoded bitmap of a page as delivered by the engine.
func (c *Client) Image(ctx context.Context, jobID string, page int) (string, error) {
	var resp imageResponse
	if err := c.do(ctx, "image", http.MethodGet, c.endpoint("image", jobID, strconv.Itoa(page)), nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Image, nil
}

// SavePage pushes an edited text variant for a page.
func (c *Client) SavePage(ctx context.Context, jobID string, page int, text string) error {
	body, err := json.Marshal(pageUpdateRequest{PageNumber: page, EditedText: text})
	if err != nil {
		return fmt.Errorf("encode page update: %w", err)
	}
	return c.do(ctx, "save page", http.MethodPut, c.endpoint("update-page", jobID), bytes.NewReader(body), "application/json", nil)
}

// GenerateReport asks the engine to start report generation for a reviewed job.
func (c *Client) GenerateReport(ctx context.Context, jobID, clientName string) error {
	body, err := json.Marshal(reportRequest{SessionID: jobID, ClientName: clientName})
	if err != nil {
		return fmt.Errorf("encode report request: %w", err)
	}
	return c.do(ctx, "generate report", http.MethodPost, c.endpoint("generate-report", jobID), bytes.NewReader(body), "application/json", nil)
}

// Download opens a generated report file of the given kind (e.g. "markdown", "docx").
func (c *Client) Download(ctx context.Context, jobID, kind string) (*Download, error) {
	resp, err := c.send(ctx, "download", http.MethodGet, c.endpoint("download", jobID, kind), nil, "")
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    attachmentName(resp.Header.Get("Content-Disposition"), kind),
		Size:        resp.ContentLength,
	}, nil
}

func (c *Client) endpoint(elem ...string) string {
	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	return c.baseURL.JoinPath(escaped...).String()
}

func (c *Client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, op, method, target, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// send performs the request and returns the response only for 2xx statuses.
func (c *Client) send(ctx context.Context, op, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(
			ctx, "backend request failed",
			"req_id", reqID,
			"op", op,
			"error", err,
			"elapsed", time.Since(start),
		)
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.DebugContext(
		ctx, "backend response",
		"req_id", reqID,
		"op", op,
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}

	return resp, nil
}

func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && len(er.Detail) > 0 {
		return er.message()
	}
	return string(bytes.TrimSpace(raw))
}

func attachmentName(disposition, kind string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := path.Base(params["filename"]); name != "." && name != "/" && name != ".." {
			return name
		}
	}

	switch kind {
	case "markdown":
		return "report.md"
	case "docx":
		return "report.docx"
	default:
		return "report." + kind
	}
}
