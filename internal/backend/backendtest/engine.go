// Package backendtest runs an in-process job engine that speaks the backend
// HTTP contract, for tests of the packages that drive it.
package backendtest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// Routes counted by Calls and accepted by Hold and Fail.
const (
	RouteUpload         = "upload"
	RouteStatus         = "status"
	RoutePages          = "pages"
	RouteImage          = "image"
	RouteUpdatePage     = "update-page"
	RouteGenerateReport = "generate-report"
	RouteDownload       = "download"
)

// Fixture image dimensions.
const (
	ImageWidth  = 40
	ImageHeight = 20
)

// PNG is a base64-encoded ImageWidth x ImageHeight PNG served for every page.
var PNG = encodePNG()

func encodePNG() string {
	img := image.NewGray(image.Rect(0, 0, ImageWidth, ImageHeight))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// Status is one scripted status response.
type Status struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	Progress       float64 `json:"progress"`
	CurrentStage   string  `json:"current_stage"`
	TotalPages     int     `json:"total_pages"`
	ProcessedPages int     `json:"processed_pages"`
	FinalOutput    *string `json:"final_output"`
}

// Page is the text payload served for one page.
type Page struct {
	RawText        string         `json:"raw_text"`
	TranslatedText string         `json:"translated_text"`
	FormData       map[string]any `json:"form_data,omitempty"`
}

// ReportRequest is a recorded generate-report body.
type ReportRequest struct {
	SessionID  string `json:"session_id"`
	ClientName string `json:"client_name"`
}

// File is a downloadable report.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Engine is a scripted job engine. Status responses are consumed in order
// and the last one repeats. The zero value is not usable; call New.
type Engine struct {
	server *httptest.Server

	mu        sync.Mutex
	jobID     string
	statuses  []Status
	onReport  []Status
	pages     map[int]Page
	images    map[int]string
	saved     map[int]string
	reports   []ReportRequest
	files     map[string]File
	calls     map[string]int
	failures  map[string]int
	holds     map[string]chan struct{}
	lastFile  string
	uploadErr int
}

// New starts an Engine that acknowledges uploads with jobID. It is closed
// when the test ends.
func New(t interface{ Cleanup(func()) }, jobID string) *Engine {
	e := &Engine{
		jobID:    jobID,
		pages:    make(map[int]Page),
		images:   make(map[int]string),
		saved:    make(map[int]string),
		files:    make(map[string]File),
		calls:    make(map[string]int),
		failures: make(map[string]int),
		holds:    make(map[string]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", e.upload)
	mux.HandleFunc("GET /status/{id}", e.status)
	mux.HandleFunc("GET /pages/{id}/{n}", e.page)
	mux.HandleFunc("GET /image/{id}/{n}", e.image)
	mux.HandleFunc("PUT /update-page/{id}", e.updatePage)
	mux.HandleFunc("POST /generate-report/{id}", e.generateReport)
	mux.HandleFunc("GET /download/{id}/{kind}", e.download)

	e.server = httptest.NewServer(mux)
	t.Cleanup(e.Close)
	return e
}

// URL returns the engine base URL.
func (e *Engine) URL() string { return e.server.URL }

// Close releases held requests and stops the server.
func (e *Engine) Close() {
	e.mu.Lock()
	for route, ch := range e.holds {
		close(ch)
		delete(e.holds, route)
	}
	e.mu.Unlock()
	e.server.Close()
}

// Script replaces the status sequence.
func (e *Engine) Script(statuses ...Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statuses = statuses
}

// OnReport sets the status sequence installed when a report is requested.
func (e *Engine) OnReport(statuses ...Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReport = statuses
}

// SetPage serves text and the PNG fixture for page n.
func (e *Engine) SetPage(n int, p Page) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pages[n] = p
	e.images[n] = PNG
}

// SetFile serves f for the download kind.
func (e *Engine) SetFile(kind string, f File) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[kind] = f
}

// Fail makes the next n requests to route answer 500.
func (e *Engine) Fail(route string, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[route] = n
}

// FailUpload makes uploads answer with code.
func (e *Engine) FailUpload(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploadErr = code
}

// Hold blocks requests to route until the returned release is called.
func (e *Engine) Hold(route string) (release func()) {
	ch := make(chan struct{})
	e.mu.Lock()
	e.holds[route] = ch
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.holds[route] == ch {
				delete(e.holds, route)
				close(ch)
			}
			e.mu.Unlock()
		})
	}
}

// Calls returns how many requests route has received.
func (e *Engine) Calls(route string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[route]
}

// Saved returns the last text saved for page n.
func (e *Engine) Saved(n int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, ok := e.saved[n]
	return text, ok
}

// Reports returns the recorded report requests.
func (e *Engine) Reports() []ReportRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ReportRequest(nil), e.reports...)
}

// LastFilename returns the filename of the most recent upload.
func (e *Engine) LastFilename() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFile
}

// enter counts the call, waits on any hold, and reports whether the request
// should fail.
func (e *Engine) enter(w http.ResponseWriter, r *http.Request, route string) bool {
	e.mu.Lock()
	e.calls[route]++
	hold := e.holds[route]
	fail := e.failures[route] > 0
	if fail {
		e.failures[route]--
	}
	e.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return false
		}
	}

	if fail {
		detail(w, http.StatusInternalServerError, route+" failed")
		return false
	}
	return true
}

func (e *Engine) known(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("id") != e.jobID {
		detail(w, http.StatusNotFound, "Session not found")
		return false
	}
	return true
}

func (e *Engine) upload(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteUpload) {
		return
	}

	e.mu.Lock()
	code := e.uploadErr
	e.mu.Unlock()
	if code != 0 {
		detail(w, code, "upload rejected")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "file required")
		return
	}
	io.Copy(io.Discard, file)
	file.Close()

	e.mu.Lock()
	e.lastFile = header.Filename
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": e.jobID,
		"message":    "File uploaded successfully. Processing started.",
	})
}

func (e *Engine) status(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteStatus) || !e.known(w, r) {
		return
	}

	e.mu.Lock()
	if len(e.statuses) == 0 {
		e.mu.Unlock()
		detail(w, http.StatusNotFound, "no status")
		return
	}
	st := e.statuses[0]
	if len(e.statuses) > 1 {
		e.statuses = e.statuses[1:]
	}
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, st)
}

func (e *Engine) page(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RoutePages) || !e.known(w, r) {
		return
	}
	n, _ := strconv.Atoi(r.PathValue("n"))

	e.mu.Lock()
	p, ok := e.pages[n]
	e.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Page not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page_number":     n,
		"raw_text":        p.RawText,
		"translated_text": p.TranslatedText,
		"form_data":       p.FormData,
	})
}

func (e *Engine) image(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteImage) || !e.known(w, r) {
		return
	}
	n, _ := strconv.Atoi(r.PathValue("n"))

	e.mu.Lock()
	img, ok := e.images[n]
	e.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Image not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image": img})
}

func (e *Engine) updatePage(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteUpdatePage) || !e.known(w, r) {
		return
	}

	var req struct {
		PageNumber int    `json:"page_number"`
		EditedText string `json:"edited_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	e.mu.Lock()
	e.saved[req.PageNumber] = req.EditedText
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Page updated successfully"})
}

func (e *Engine) generateReport(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteGenerateReport) || !e.known(w, r) {
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	e.mu.Lock()
	e.reports = append(e.reports, req)
	if len(e.onReport) > 0 {
		e.statuses = e.onReport
	}
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Report generation started"})
}

func (e *Engine) download(w http.ResponseWriter, r *http.Request) {
	if !e.enter(w, r, RouteDownload) || !e.known(w, r) {
		return
	}

	e.mu.Lock()
	f, ok := e.files[r.PathValue("kind")]
	e.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Report not found")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(f.Body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
