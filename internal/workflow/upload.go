package workflow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/jobs"
)

// Upload sends doc to the job engine and starts OCR polling once the engine
// acknowledges a job identifier. A nil document is rejected before any
// network call. Upload failures move the session to Error.
func (s *Session) Upload(ctx context.Context, doc *documents.Document) error {
	if doc == nil {
		return documents.ErrNoFile
	}

	s.mu.Lock()
	if s.stage != jobs.StageIdle {
		err := invalidTransition("upload", s.stage)
		s.mu.Unlock()
		return err
	}
	s.advanceLocked(jobs.StageUploading)
	s.notice = nil
	epoch := s.epoch
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.bumpLocked()
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("uploading document", "filename", doc.Filename, "size", doc.Size)
	res, err := s.backend.Upload(ctx, doc.Filename, doc.ContentType, bytes.NewReader(doc.Data))

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrSessionReset
	}
	if err != nil {
		err = fmt.Errorf("upload %s: %w", doc.Filename, err)
		s.failLocked(err)
		s.bumpLocked()
		s.mu.Unlock()
		return err
	}

	s.job = jobs.New(res.SessionID)
	s.advanceLocked(jobs.StageAwaitingOcr)
	msg := res.Message
	if msg == "" {
		msg = "document uploaded, processing started"
	}
	s.notice = notice(LevelSuccess, msg)
	s.bumpLocked()
	s.mu.Unlock()

	s.logger.Info("upload acknowledged", "job_id", res.SessionID)
	s.startPolling(epoch, res.SessionID, jobs.Status.Terminal)
	return nil
}
