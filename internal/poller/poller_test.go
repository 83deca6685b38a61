package poller_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/poller"
)

var errOffline = &offlineError{}

type offlineError struct{}

func (*offlineError) Error() string        { return "engine offline" }
func (*offlineError) Is(target error) bool { return target == jobs.ErrTransport }

// scripted returns its results in order and repeats the last one.
type scripted struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	status jobs.Status
	err    error
}

func (s *scripted) Status(ctx context.Context, jobID string) (jobs.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	if r.err != nil {
		return jobs.JobStatus{}, r.err
	}
	return jobs.JobStatus{Status: r.status}, nil
}

func (s *scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newPoller(t *testing.T, f poller.Fetcher, retries int) *poller.Poller {
	t.Helper()

	cfg := &poller.Config{
		Interval:    "5ms",
		MaxRetries:  retries,
		BackoffBase: "1ms",
		BackoffMax:  "4ms",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	p := poller.New(f, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(p.Stop)
	return p
}

func collect(t *testing.T, events <-chan poller.Event) []poller.Event {
	t.Helper()

	var out []poller.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("loop did not finish")
		}
	}
}

func TestPollUntilTerminal(t *testing.T) {
	f := &scripted{results: []result{
		{status: jobs.StatusUploaded},
		{status: jobs.StatusProcessing},
		{status: jobs.StatusReadyForReview},
	}}
	p := newPoller(t, f, 0)

	events := collect(t, p.Start(context.Background(), "job-1", nil))

	if len(events) != 3 {
		t.Fatalf("events: got %d, want 3", len(events))
	}
	last := events[2]
	if !last.Final || last.Status.Status != jobs.StatusReadyForReview {
		t.Errorf("last event: got %+v", last)
	}
	for _, ev := range events[:2] {
		if ev.Final || ev.JobID != "job-1" {
			t.Errorf("intermediate event: got %+v", ev)
		}
	}
	if _, ok := p.Active(); ok {
		t.Error("poller still active after terminal status")
	}
}

func TestPollCustomUntil(t *testing.T) {
	f := &scripted{results: []result{
		{status: jobs.StatusReadyForReview},
		{status: jobs.StatusGeneratingReport},
		{status: jobs.StatusCompleted},
	}}
	p := newPoller(t, f, 0)

	until := func(s jobs.Status) bool { return s.Succeeded() || s.Failed() }
	events := collect(t, p.Start(context.Background(), "job-1", until))

	if len(events) != 3 {
		t.Fatalf("events: got %d, want 3", len(events))
	}
	if events[0].Final {
		t.Error("ready_for_review ended a loop that waits for completion")
	}
	if events[2].Status.Status != jobs.StatusCompleted {
		t.Errorf("final status: got %s", events[2].Status.Status)
	}
}

func TestPollFailFast(t *testing.T) {
	f := &scripted{results: []result{{err: errOffline}}}
	p := newPoller(t, f, 0)

	events := collect(t, p.Start(context.Background(), "job-1", nil))

	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if !errors.Is(events[0].Err, jobs.ErrTransport) || !events[0].Final {
		t.Errorf("event: got %+v", events[0])
	}
	if f.Calls() != 1 {
		t.Errorf("calls: got %d, want 1", f.Calls())
	}
}

func TestPollRetriesTransport(t *testing.T) {
	f := &scripted{results: []result{
		{err: errOffline},
		{err: errOffline},
		{status: jobs.StatusProcessing},
		{err: errOffline},
		{status: jobs.StatusReadyForReview},
	}}
	p := newPoller(t, f, 2)

	events := collect(t, p.Start(context.Background(), "job-1", nil))

	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Err != nil {
			t.Errorf("unexpected error event: %v", ev.Err)
		}
	}
	if f.Calls() != 5 {
		t.Errorf("calls: got %d, want 5", f.Calls())
	}
}

func TestPollRetriesExhausted(t *testing.T) {
	f := &scripted{results: []result{{err: errOffline}}}
	p := newPoller(t, f, 2)

	events := collect(t, p.Start(context.Background(), "job-1", nil))

	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("events: got %+v", events)
	}
	if f.Calls() != 3 {
		t.Errorf("calls: got %d, want 3", f.Calls())
	}
}

func TestPollRemoteErrorNotRetried(t *testing.T) {
	f := &scripted{results: []result{{err: jobs.ErrUnknownStatus}}}
	p := newPoller(t, f, 3)

	events := collect(t, p.Start(context.Background(), "job-1", nil))

	if len(events) != 1 || !errors.Is(events[0].Err, jobs.ErrRemoteJob) {
		t.Fatalf("events: got %+v", events)
	}
	if f.Calls() != 1 {
		t.Errorf("calls: got %d, want 1", f.Calls())
	}
}

func TestStartReplacesLoop(t *testing.T) {
	f := &scripted{results: []result{{status: jobs.StatusProcessing}}}
	p := newPoller(t, f, 0)
	ctx := context.Background()

	first := p.Start(ctx, "job-1", nil)
	second := p.Start(ctx, "job-2", nil)

	// The first loop exits before Start returns.
	select {
	case _, ok := <-first:
		if ok {
			t.Error("first loop delivered an event after being replaced")
		}
	case <-time.After(time.Second):
		t.Fatal("first loop still running")
	}

	id, ok := p.Active()
	if !ok || id != "job-2" {
		t.Errorf("active: got %q %v, want job-2", id, ok)
	}

	ev := <-second
	if ev.JobID != "job-2" {
		t.Errorf("event job: got %s, want job-2", ev.JobID)
	}

	p.Stop()
	for range second {
	}
	if _, ok := p.Active(); ok {
		t.Error("poller active after Stop")
	}
}

func TestStopWithoutLoop(t *testing.T) {
	p := newPoller(t, &scripted{results: []result{{status: jobs.StatusProcessing}}}, 0)
	p.Stop()
	if _, ok := p.Active(); ok {
		t.Error("idle poller reports active")
	}
}

func TestContextCancelEndsLoop(t *testing.T) {
	f := &scripted{results: []result{{status: jobs.StatusProcessing}}}
	p := newPoller(t, f, 0)

	ctx, cancel := context.WithCancel(context.Background())
	events := p.Start(ctx, "job-1", nil)
	<-events
	cancel()

	collect(t, events)
	if _, ok := p.Active(); ok {
		t.Error("poller active after parent cancel")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     poller.Config
		wantErr bool
	}{
		{"defaults", poller.Config{}, false},
		{"negative retries", poller.Config{MaxRetries: -1}, true},
		{"zero interval", poller.Config{Interval: "0s"}, true},
		{"bad interval", poller.Config{Interval: "often"}, true},
		{"ceiling below base", poller.Config{BackoffBase: "10s", BackoffMax: "1s"}, true},
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
