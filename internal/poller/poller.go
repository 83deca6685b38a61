// Package poller repeatedly fetches a job's status until a terminal condition
// is observed, delivering each observation as an Event on a channel.
// A Poller runs at most one loop at a time.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// Fetcher retrieves the current status of a job.
type Fetcher interface {
	Status(ctx context.Context, jobID string) (jobs.JobStatus, error)
}

// Until decides whether a status ends the loop.
type Until func(jobs.Status) bool

// Event is one loop observation. Err is set when the loop gave up; Final is
// set on the last event a loop delivers.
type Event struct {
	JobID  string
	Status jobs.JobStatus
	Err    error
	Final  bool
}

// Poller owns a single cancellable polling loop.
type Poller struct {
	fetcher     Fetcher
	interval    time.Duration
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	active *loop
}

type loop struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Poller from a finalized Config.
func New(fetcher Fetcher, cfg *Config, logger *slog.Logger) *Poller {
	return &Poller{
		fetcher:     fetcher,
		interval:    cfg.IntervalDuration(),
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBaseDuration(),
		backoffMax:  cfg.BackoffMaxDuration(),
		logger:      logger.With("system", "poller"),
	}
}

// Start cancels any running loop, waits for it to exit, and begins polling
// jobID. The returned channel is closed when the loop ends. A nil until stops
// on jobs.Status.Terminal.
func (p *Poller) Start(ctx context.Context, jobID string, until Until) <-chan Event {
	if until == nil {
		until = jobs.Status.Terminal
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	l := &loop{
		jobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.active = l

	events := make(chan Event)
	go p.run(ctx, l, until, events)

	p.logger.Info("polling started", "job_id", jobID, "interval", p.interval)
	return events
}

// Stop cancels the running loop, if any, and waits for it to exit.
// Results of a fetch still in flight are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Active reports the job identifier of a loop that has not yet exited.
func (p *Poller) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return "", false
	}
	select {
	case <-p.active.done:
		return "", false
	default:
		return p.active.jobID, true
	}
}

func (p *Poller) stopLocked() {
	if p.active == nil {
		return
	}
	p.active.cancel()
	<-p.active.done
	p.active = nil
}

func (p *Poller) run(ctx context.Context, l *loop, until Until, events chan<- Event) {
	defer close(events)
	defer close(l.done)
	defer l.cancel()

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		status, err := p.fetcher.Status(ctx, l.jobID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			if errors.Is(err, jobs.ErrTransport) && failures < p.maxRetries {
				failures++
				delay := p.backoff(failures)
				p.logger.Warn(
					"status fetch failed, retrying",
					"job_id", l.jobID,
					"attempt", failures,
					"delay", delay,
					"error", err,
				)
				timer.Reset(delay)
				continue
			}

			p.logger.Error("polling stopped", "job_id", l.jobID, "error", err)
			p.emit(ctx, events, Event{JobID: l.jobID, Err: err, Final: true})
			return
		}

		failures = 0
		final := until(status.Status)
		if !p.emit(ctx, events, Event{JobID: l.jobID, Status: status, Final: final}) {
			return
		}
		if final {
			p.logger.Info("polling finished", "job_id", l.jobID, "status", status.Status)
			return
		}

		timer.Reset(p.interval)
	}
}

func (p *Poller) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Poller) backoff(attempt int) time.Duration {
	d := p.backoffBase
	for range attempt - 1 {
		d *= 2
		if d >= p.backoffMax {
			return p.backoffMax
		}
	}
	return min(d, p.backoffMax)
}
