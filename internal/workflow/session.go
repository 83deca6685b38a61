// Package workflow drives one document-processing job from upload to report
// download. A Session owns the job mirror, the resident review page, the
// image transform, and the report buffer, and reconciles them with the job
// engine through the status poller.
//
// Every operation that crosses the network records the session epoch before
// the call and discards its result when a reset happened in the meantime.
package workflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/poller"
	"github.com/JaimeStill/scribe/internal/report"
	"github.com/JaimeStill/scribe/internal/transform"
	"github.com/JaimeStill/scribe/pkg/storage"
)

// Session is the explicit context object for a single active job.
// It is safe for concurrent use.
type Session struct {
	id            string
	backend       Backend
	loader        *pages.Loader
	poller        *poller.Poller
	store         storage.System
	downloadKinds []string
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// pollMu orders poller starts against the stop issued by Reset.
	// It is never acquired while mu is held.
	pollMu sync.Mutex

	mu          sync.Mutex
	epoch       uint64
	epochCtx    context.Context
	epochCancel context.CancelFunc
	version     uint64
	changed     chan struct{}
	closed      bool

	stage      jobs.Stage
	job        *jobs.Job
	cache      *pages.Cache
	transform  transform.State
	report     report.Buffer
	notice     *Notice
	saving     int
	generating bool
	artifacts  []Artifact
}

// New creates an idle Session. Close releases it.
func New(rt *Runtime) *Session {
	id := uuid.NewString()
	logger := rt.Logger.With("system", "workflow", "session_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	epochCtx, epochCancel := context.WithCancel(ctx)

	return &Session{
		id:            id,
		backend:       rt.Backend,
		loader:        pages.NewLoader(rt.Backend, logger),
		poller:        poller.New(rt.Backend, rt.Poller, logger),
		store:         rt.Storage,
		downloadKinds: rt.DownloadKinds,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		epochCtx:      epochCtx,
		epochCancel:   epochCancel,
		changed:       make(chan struct{}),
		stage:         jobs.StageIdle,
		cache:         pages.NewCache(),
		transform:     transform.Identity(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Stage returns the active stage.
func (s *Session) Stage() jobs.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Reset returns the session to Idle from any stage. Job, page, transform,
// report, and artifacts are discarded, the polling loop is stopped, and
// results of operations still in flight become no-ops.
func (s *Session) Reset() {
	s.mu.Lock()
	from := s.stage
	s.epoch++
	s.epochCancel()
	s.epochCtx, s.epochCancel = context.WithCancel(s.ctx)

	s.stage = jobs.StageIdle
	s.job = nil
	s.cache.Clear()
	s.transform.Reset(transform.Size{})
	s.report.Reset()
	s.notice = nil
	s.saving = 0
	s.generating = false
	s.artifacts = nil
	s.bumpLocked()
	s.mu.Unlock()

	s.pollMu.Lock()
	s.poller.Stop()
	s.pollMu.Unlock()

	s.logger.Info("session reset", "from", from)
}

// Close resets the session and waits for its background work to exit.
func (s *Session) Close() {
	s.Reset()

	s.mu.Lock()
	s.closed = true
	s.epochCancel()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("session closed")
}

// Wait blocks until the session version differs from since, then returns a
// snapshot. It returns immediately when they already differ.
func (s *Session) Wait(ctx context.Context, since uint64) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.version != since || s.closed {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return s.withPolling(snap), nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Snapshot returns a copy of the session state for readers.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.withPolling(snap)
}

func (s *Session) withPolling(snap Snapshot) Snapshot {
	_, snap.Polling = s.poller.Active()
	return snap
}

func (s *Session) bumpLocked() {
	s.version++
	close(s.changed)
	s.changed = make(chan struct{})
}

// failLocked surfaces err and moves to Error when the stage allows it.
func (s *Session) failLocked(err error) {
	if s.stage.CanFail() {
		s.logger.Warn("workflow failed", "stage", s.stage, "error", err)
		s.stage = jobs.StageError
	}
	s.notice = failure(err)
}

func (s *Session) advanceLocked(next jobs.Stage) bool {
	if !s.stage.CanAdvance(next) {
		return false
	}
	s.logger.Info("stage changed", "from", s.stage, "to", next)
	s.stage = next
	return true
}

// opContext derives a context cancelled by either ctx or the next reset.
func (s *Session) opContext(ctx context.Context, epochCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(epochCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// startPolling begins a polling loop for jobID unless the epoch has moved on.
// Events are applied by a consumer goroutine owned by the session.
func (s *Session) startPolling(epoch uint64, jobID string, until poller.Until) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	ctx := s.epochCtx
	s.mu.Unlock()

	events := s.poller.Start(ctx, jobID, until)
	s.wg.Go(func() {
		for ev := range events {
			s.ingest(epoch, ev)
		}
	})
}
