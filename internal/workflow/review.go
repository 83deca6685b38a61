package workflow

import (
	"context"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/transform"
)

// GoToPage loads page n of the job under review. Pages outside
// [1, total pages] are rejected without a network call.
func (s *Session) GoToPage(ctx context.Context, n int) error {
	return s.navigate(ctx, "go to page", func() int { return n })
}

// NextPage loads the page after the resident one.
func (s *Session) NextPage(ctx context.Context) error {
	return s.navigate(ctx, "next page", func() int { return s.cache.Neighbor(1) })
}

// PrevPage loads the page before the resident one.
func (s *Session) PrevPage(ctx context.Context) error {
	return s.navigate(ctx, "previous page", func() int { return s.cache.Neighbor(-1) })
}

func (s *Session) navigate(ctx context.Context, op string, target func() int) error {
	s.mu.Lock()
	if s.stage != jobs.StageReviewing {
		err := invalidTransition(op, s.stage)
		s.mu.Unlock()
		return err
	}

	t, err := s.cache.Begin(target())
	if err != nil {
		s.mu.Unlock()
		return err
	}

	epoch := s.epoch
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.bumpLocked()
	s.mu.Unlock()
	defer cancel()

	return s.load(ctx, epoch, t)
}

// EditPage replaces the text variant selected by the edit mode on the
// resident page. Nothing is sent until SavePage.
func (s *Session) EditPage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != jobs.StageReviewing {
		return invalidTransition("edit page", s.stage)
	}
	if err := s.cache.Edit(text); err != nil {
		return err
	}
	s.bumpLocked()
	return nil
}

// SetEditMode selects which text variant is edited and saved.
func (s *Session) SetEditMode(mode pages.Mode) error {
	if _, err := pages.ParseMode(string(mode)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != jobs.StageReviewing {
		return invalidTransition("set edit mode", s.stage)
	}
	if s.cache.Mode() != mode {
		s.cache.SetMode(mode)
		s.bumpLocked()
	}
	return nil
}

// SavePage pushes the edit-mode text of the resident page. Local text is
// not reloaded; a failure is surfaced and not retried.
func (s *Session) SavePage(ctx context.Context) error {
	s.mu.Lock()
	if s.stage != jobs.StageReviewing {
		err := invalidTransition("save page", s.stage)
		s.mu.Unlock()
		return err
	}
	rec := s.cache.Current()
	if rec == nil {
		s.mu.Unlock()
		return pages.ErrNoPage
	}
	mode := s.cache.Mode()
	text := rec.Text(mode)
	epoch := s.epoch
	s.saving++
	ctx, cancel := s.opContext(ctx, s.epochCtx)
	s.bumpLocked()
	s.mu.Unlock()
	defer cancel()

	err := s.loader.Save(ctx, rec.JobID, rec.PageNumber, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrSessionReset
	}
	s.saving--
	if err != nil {
		s.notice = failure(err)
	} else {
		s.cache.MarkSaved(rec.JobID, rec.PageNumber, mode, text)
		s.notice = notice(LevelSuccess, "page saved")
	}
	s.bumpLocked()
	return err
}

// PageImage returns the image of the resident page.
func (s *Session) PageImage() (pages.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.cache.Current()
	if rec == nil {
		return pages.Image{}, pages.ErrNoPage
	}
	return rec.Image, nil
}

// Transform applies fn to the image transform and returns the result.
// Pan is re-clamped by the transform operations themselves.
func (s *Session) Transform(fn func(*transform.State)) transform.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.transform
	fn(&s.transform)
	if s.transform != before {
		s.bumpLocked()
	}
	return s.transform
}
