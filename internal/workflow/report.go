package workflow

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/report"
)

// Artifact keys for report exports, relative to the job prefix.
const (
	ExportMarkdownName = "report.edited.md"
	ExportHTMLName     = "report.html"
)

// ProceedToReport asks the engine to generate the report and polls until the
// job succeeds or fails. It is refused while the resident page has unsaved
// edits or a page load or save is in flight. A failed request leaves the
// session in Reviewing.
func (s *Session) ProceedToReport(ctx context.Context, clientName string) error {
	s.mu.Lock()
	if s.stage != jobs.StageReviewing {
		err := invalidTransition("generate report", s.stage)
		s.mu.Unlock()
		return err
	}
	if s.generating {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.cache.Loading() || s.saving > 0 || s.cache.Unsaved() {
		s.mu.Unlock()
		return ErrPendingChanges
	}
	s.generating = true
	jobID := s.job.ID
	epoch := s.epoch
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.mu.Unlock()
	defer cancel()

	err := s.backend.GenerateReport(ctx, jobID, strings.TrimSpace(clientName))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrSessionReset
	}
	s.generating = false
	if err != nil {
		err = fmt.Errorf("generate report: %w", err)
		s.notice = failure(err)
		s.bumpLocked()
		s.mu.Unlock()
		return err
	}
	s.advanceLocked(jobs.StageGeneratingReport)
	s.notice = notice(LevelSuccess, "report generation started")
	s.bumpLocked()
	s.mu.Unlock()

	s.startPolling(epoch, jobID, untilReport)
	return nil
}

// FetchReport re-reads the job status and installs its final output as the
// canonical report. A dirty editable copy is kept.
func (s *Session) FetchReport(ctx context.Context) error {
	s.mu.Lock()
	if s.stage != jobs.StageComplete {
		err := invalidTransition("fetch report", s.stage)
		s.mu.Unlock()
		return err
	}
	jobID := s.job.ID
	epoch := s.epoch
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.mu.Unlock()
	defer cancel()

	st, err := s.backend.Status(ctx, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrSessionReset
	}
	if err != nil {
		err = fmt.Errorf("fetch report: %w", err)
		s.notice = failure(err)
		s.bumpLocked()
		return err
	}
	if !st.Status.Succeeded() {
		return fmt.Errorf("%w: job status %s", ErrReportUnavailable, st.Status)
	}

	s.installReportLocked(st)
	s.bumpLocked()
	return nil
}

// EditReport overwrites the editable report copy.
func (s *Session) EditReport(text string) error {
	return s.withReport("edit report", func(b *report.Buffer) { b.Edit(text) })
}

// RevertReport discards local report edits.
func (s *Session) RevertReport() error {
	return s.withReport("revert report", (*report.Buffer).Revert)
}

// ToggleReportEditMode flips the report presentation edit flag.
func (s *Session) ToggleReportEditMode() error {
	return s.withReport("toggle edit mode", func(b *report.Buffer) { b.ToggleEditMode() })
}

func (s *Session) withReport(op string, fn func(*report.Buffer)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != jobs.StageComplete {
		return invalidTransition(op, s.stage)
	}
	if !s.report.Fetched() {
		return ErrReportUnavailable
	}
	fn(&s.report)
	s.bumpLocked()
	return nil
}

// ReportPreview renders the editable report copy as HTML.
func (s *Session) ReportPreview() (string, error) {
	s.mu.Lock()
	if !s.report.Fetched() {
		s.mu.Unlock()
		return "", ErrReportUnavailable
	}
	source := s.report.Editable()
	s.mu.Unlock()

	return report.Render(source)
}

// ExportReport stores the editable report copy and its HTML rendering as
// artifacts under the job prefix.
func (s *Session) ExportReport(ctx context.Context) ([]Artifact, error) {
	s.mu.Lock()
	if s.stage != jobs.StageComplete {
		err := invalidTransition("export report", s.stage)
		s.mu.Unlock()
		return nil, err
	}
	if !s.report.Fetched() {
		s.mu.Unlock()
		return nil, ErrReportUnavailable
	}
	jobID := s.job.ID
	source := s.report.Editable()
	epoch := s.epoch
	s.mu.Unlock()

	html, err := report.Render(source)
	if err != nil {
		return nil, err
	}

	exports := []struct {
		name, contentType, body string
	}{
		{ExportMarkdownName, "text/markdown; charset=utf-8", source},
		{ExportHTMLName, "text/html; charset=utf-8", html},
	}

	written := make([]Artifact, 0, len(exports))
	for _, e := range exports {
		key := path.Join(jobID, e.name)
		n, err := s.store.Upload(ctx, key, strings.NewReader(e.body), e.contentType)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", e.name, err)
		}
		written = append(written, Artifact{Key: key, ContentType: e.contentType, Size: n})
	}

	s.recordArtifacts(epoch, written, "report exported")
	return written, nil
}

// Download streams the engine's report file of the given kind into artifact
// storage under the job prefix.
func (s *Session) Download(ctx context.Context, kind string) (*Artifact, error) {
	if !slices.Contains(s.downloadKinds, kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDownload, kind)
	}

	s.mu.Lock()
	if s.stage != jobs.StageComplete {
		err := invalidTransition("download", s.stage)
		s.mu.Unlock()
		return nil, err
	}
	jobID := s.job.ID
	epoch := s.epoch
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.mu.Unlock()
	defer cancel()

	d, err := s.backend.Download(ctx, jobID, kind)
	if err != nil {
		err = fmt.Errorf("download %s: %w", kind, err)
		s.mu.Lock()
		if s.epoch == epoch {
			s.notice = failure(err)
			s.bumpLocked()
		}
		s.mu.Unlock()
		return nil, err
	}
	defer d.Body.Close()

	key := path.Join(jobID, d.Filename)
	n, err := s.store.Upload(ctx, key, d.Body, d.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}

	a := Artifact{Key: key, ContentType: d.ContentType, Size: n}
	s.recordArtifacts(epoch, []Artifact{a}, "downloaded "+d.Filename)
	return &a, nil
}

func (s *Session) recordArtifacts(epoch uint64, written []Artifact, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return
	}
	for _, a := range written {
		i := slices.IndexFunc(s.artifacts, func(x Artifact) bool { return x.Key == a.Key })
		if i >= 0 {
			s.artifacts[i] = a
			continue
		}
		s.artifacts = append(s.artifacts, a)
	}
	s.notice = notice(LevelSuccess, msg)
	s.bumpLocked()
}
