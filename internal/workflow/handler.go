package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/transform"
	"github.com/JaimeStill/scribe/pkg/handlers"
	"github.com/JaimeStill/scribe/pkg/routes"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// MaxWait bounds a long-polling snapshot read.
const MaxWait = 30 * time.Second

// Handler exposes a Session over HTTP for a presentation layer.
type Handler struct {
	session *Session
	intake  *documents.Intake
	logger  *slog.Logger
}

// NewHandler creates a Handler over session. Uploaded files pass through intake.
func NewHandler(session *Session, intake *documents.Intake, logger *slog.Logger) *Handler {
	return &Handler{
		session: session,
		intake:  intake,
		logger:  logger.With("handler", "session"),
	}
}

var transformOps = map[string]func(*transform.State){
	"zoom-in":      (*transform.State).ZoomIn,
	"zoom-out":     (*transform.State).ZoomOut,
	"rotate-left":  (*transform.State).RotateLeft,
	"rotate-right": (*transform.State).RotateRight,
	"reset":        func(s *transform.State) { s.Reset(s.Image()) },
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/session",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get, Description: "session snapshot; ?since=<version> long-polls"},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload, Description: "upload a document (multipart field file)"},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset, Description: "return to idle"},
		},
		Children: []routes.Group{
			{
				Prefix: "/pages",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/next", Handler: h.NextPage},
					{Method: "POST", Pattern: "/prev", Handler: h.PrevPage},
					{Method: "POST", Pattern: "/{n}", Handler: h.GoToPage},
				},
			},
			{
				Prefix: "/page",
				Routes: []routes.Route{
					{Method: "PUT", Pattern: "/text", Handler: h.EditPage},
					{Method: "PUT", Pattern: "/mode", Handler: h.SetEditMode},
					{Method: "POST", Pattern: "/save", Handler: h.SavePage},
					{Method: "GET", Pattern: "/image", Handler: h.PageImage},
				},
			},
			{
				Prefix: "/transform",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/drag/{phase}", Handler: h.Drag},
					{Method: "PUT", Pattern: "/viewport", Handler: h.Viewport},
					{Method: "POST", Pattern: "/{op}", Handler: h.Transform},
				},
			},
			{
				Prefix: "/report",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.ProceedToReport, Description: "start report generation"},
					{Method: "PUT", Pattern: "", Handler: h.EditReport},
					{Method: "POST", Pattern: "/fetch", Handler: h.FetchReport},
					{Method: "POST", Pattern: "/edit-mode", Handler: h.ToggleReportEditMode},
					{Method: "POST", Pattern: "/revert", Handler: h.RevertReport},
					{Method: "POST", Pattern: "/export", Handler: h.ExportReport},
					{Method: "GET", Pattern: "/preview", Handler: h.ReportPreview},
				},
			},
			{
				Prefix: "/download",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{kind}", Handler: h.Download},
				},
			},
		},
	}
}

// Get returns the session snapshot. With ?since=<version> it blocks until
// the version moves or MaxWait elapses.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		handlers.RespondJSON(w, http.StatusOK, h.session.Snapshot())
		return
	}

	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid since: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), MaxWait)
	defer cancel()

	snap, err := h.session.Wait(ctx, since)
	if err != nil {
		snap = h.session.Snapshot()
	}
	handlers.RespondJSON(w, http.StatusOK, snap)
}

// Upload validates the multipart file and starts the workflow.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.intake.MaxSize()+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = documents.ErrFileTooLarge
		case errors.Is(err, http.ErrMissingFile):
			err = documents.ErrNoFile
		default:
			err = fmt.Errorf("%w: %v", documents.ErrNoFile, err)
		}
		h.fail(w, err)
		return
	}
	defer file.Close()

	doc, err := h.intake.Read(header.Filename, file)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.session.Upload(r.Context(), doc); err != nil {
		h.fail(w, err)
		return
	}
	h.snapshot(w)
}

// Reset returns the session to idle.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.snapshot(w)
}

// GoToPage loads the page in the path.
func (h *Handler) GoToPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %q", pages.ErrPageOutOfRange, r.PathValue("n")))
		return
	}
	h.act(w, h.session.GoToPage(r.Context(), n))
}

// NextPage loads the following page.
func (h *Handler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.NextPage(r.Context()))
}

// PrevPage loads the preceding page.
func (h *Handler) PrevPage(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.PrevPage(r.Context()))
}

type textRequest struct {
	Text string `json:"text"`
}

// EditPage replaces the edit-mode text of the resident page.
func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.act(w, h.session.EditPage(req.Text))
}

type modeRequest struct {
	Mode pages.Mode `json:"mode"`
}

// SetEditMode selects the raw or translated variant.
func (h *Handler) SetEditMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.act(w, h.session.SetEditMode(req.Mode))
}

// SavePage pushes the resident page text.
func (h *Handler) SavePage(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.SavePage(r.Context()))
}

// PageImage writes the decoded resident page image.
func (h *Handler) PageImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.session.PageImage()
	if err != nil {
		h.fail(w, err)
		return
	}
	if len(img.Data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

// Transform applies a named zoom, rotate, or reset step.
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	op, ok := transformOps[r.PathValue("op")]
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("unknown transform: %q", r.PathValue("op")))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, h.session.Transform(op))
}

// Drag forwards a press, move, or release pointer phase.
func (h *Handler) Drag(w http.ResponseWriter, r *http.Request) {
	phase := r.PathValue("phase")

	var p transform.Vec
	if phase != "release" {
		if err := handlers.DecodeJSON(r, &p); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	var op func(*transform.State)
	switch phase {
	case "press":
		op = func(s *transform.State) { s.Press(p) }
	case "move":
		op = func(s *transform.State) { s.Move(p) }
	case "release":
		op = (*transform.State).Release
	default:
		handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("unknown drag phase: %q", phase))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, h.session.Transform(op))
}

// Viewport records the rendered viewport size.
func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var size transform.Size
	if err := handlers.DecodeJSON(r, &size); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, h.session.Transform(func(s *transform.State) {
		s.SetViewport(size)
	}))
}

type reportRequest struct {
	ClientName string `json:"client_name"`
}

// ProceedToReport starts report generation.
func (h *Handler) ProceedToReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.act(w, h.session.ProceedToReport(r.Context(), req.ClientName))
}

// FetchReport re-reads the canonical report.
func (h *Handler) FetchReport(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.FetchReport(r.Context()))
}

// EditReport overwrites the editable report copy.
func (h *Handler) EditReport(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.act(w, h.session.EditReport(req.Text))
}

// ToggleReportEditMode flips the report edit flag.
func (h *Handler) ToggleReportEditMode(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.ToggleReportEditMode())
}

// RevertReport discards report edits.
func (h *Handler) RevertReport(w http.ResponseWriter, r *http.Request) {
	h.act(w, h.session.RevertReport())
}

// ExportReport stores the editable report and its HTML rendering.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.session.ExportReport(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, artifacts)
}

// ReportPreview writes the editable report rendered as HTML.
func (h *Handler) ReportPreview(w http.ResponseWriter, r *http.Request) {
	html, err := h.session.ReportPreview()
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// Download stores the engine's report file of the given kind.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.session.Download(r.Context(), r.PathValue("kind"))
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, artifact)
}

func (h *Handler) act(w http.ResponseWriter, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	h.snapshot(w)
}

func (h *Handler) snapshot(w http.ResponseWriter) {
	handlers.RespondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status == http.StatusInternalServerError {
		status = storage.MapHTTPStatus(err)
	}
	handlers.RespondError(w, h.logger, status, err)
}
