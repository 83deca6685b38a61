package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/poller"
	"github.com/JaimeStill/scribe/internal/report"
	"github.com/JaimeStill/scribe/internal/transform"
	"github.com/JaimeStill/scribe/pkg/formatting"
)

// untilReport ends report polling only on success or failure; a job that
// still reads ready_for_review has not picked up the report request yet.
var untilReport poller.Until = func(st jobs.Status) bool {
	return st.Succeeded() || st.Failed()
}

// ingest applies one poller event. Events from a previous epoch or for
// another job are dropped.
func (s *Session) ingest(epoch uint64, ev poller.Event) {
	s.mu.Lock()
	if s.epoch != epoch || s.job == nil || s.job.ID != ev.JobID {
		s.mu.Unlock()
		return
	}

	if ev.Err != nil {
		s.failLocked(ev.Err)
		s.bumpLocked()
		s.mu.Unlock()
		return
	}

	st := ev.Status
	s.job.Apply(st)
	s.logger.Debug(
		"job status",
		"job_id", s.job.ID,
		"status", st.Status,
		"progress", formatting.FormatProgress(s.job.Progress),
		"pages", s.job.ProcessedPages,
		"total", s.job.TotalPages,
	)

	var (
		first    pages.Ticket
		loadPage bool
	)

	switch {
	case st.Status.Failed():
		msg := st.Message
		if msg == "" {
			msg = "job failed"
		}
		s.failLocked(fmt.Errorf("%w: %s", jobs.ErrRemoteJob, msg))

	case st.Status.Succeeded():
		if s.stage == jobs.StageComplete || s.advanceLocked(jobs.StageComplete) {
			s.installReportLocked(st)
		}

	case st.Status == jobs.StatusReadyForReview && s.stage == jobs.StageAwaitingOcr:
		s.advanceLocked(jobs.StageReviewing)
		s.cache.Bind(s.job.ID, st.TotalPages)
		t, err := s.cache.BeginFirst()
		if err == nil {
			first, loadPage = t, true
		}
		s.notice = notice(LevelSuccess, "document processed, ready for review")
	}

	ctx := s.epochCtx
	s.bumpLocked()
	s.mu.Unlock()

	if loadPage {
		s.wg.Go(func() {
			s.load(ctx, epoch, first)
		})
	}
}

// installReportLocked feeds canonical text into the report buffer. A dirty
// editable copy is kept.
func (s *Session) installReportLocked(st jobs.JobStatus) {
	canonical := report.DefaultCanonical
	if st.FinalOutput != nil && *st.FinalOutput != "" {
		canonical = *st.FinalOutput
	}

	if !s.report.Fetch(canonical) {
		s.logger.Info("report refreshed, local edits kept", "job_id", s.job.ID)
	}

	if st.Status == jobs.StatusCompletedWithWarning {
		msg := st.Message
		if msg == "" {
			msg = "report generated with warnings"
		}
		s.notice = notice(LevelWarning, msg)
		return
	}
	s.notice = notice(LevelSuccess, "report generated")
}

// load fetches the ticketed page and commits it together with a transform
// reset. A failed or superseded load leaves the resident page untouched.
func (s *Session) load(ctx context.Context, epoch uint64, t pages.Ticket) error {
	rec, err := s.loader.Fetch(ctx, t.JobID(), t.Page())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrSessionReset
	}

	if err != nil {
		s.cache.Abort(t)
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Warn("page load failed", "job_id", t.JobID(), "page", t.Page(), "error", err)
		s.notice = failure(err)
		s.bumpLocked()
		return err
	}

	if !s.cache.Commit(t, rec) {
		return pages.ErrSuperseded
	}
	s.transform.Reset(transform.Size{
		Width:  float64(rec.Image.Width),
		Height: float64(rec.Image.Height),
	})
	s.bumpLocked()
	return nil
}
