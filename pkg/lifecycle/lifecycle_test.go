package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

func TestNotReadyBeforeStartup(t *testing.T) {
	lc := lifecycle.New(context.Background())
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
	if !lc.Ready() {
		t.Error("should be ready after successful startup")
	}
}

func TestStartupHookFailure(t *testing.T) {
	lc := lifecycle.New(context.Background())
	boom := errors.New("boom")

	lc.OnStartup(func() error { return nil })
	lc.OnStartup(func() error { return boom })

	err := lc.WaitForStartup()
	if !errors.Is(err, boom) {
		t.Fatalf("startup error: got %v, want %v", err, boom)
	}
	if lc.Ready() {
		t.Error("should not be ready after a failed hook")
	}
}

func TestShutdownHooksRunAfterCancel(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		if lc.Context().Err() == nil {
			t.Error("shutdown hook ran before cancellation")
		}
		cleaned.Store(true)
	})

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
	if lc.Ready() {
		t.Error("should not be ready after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New(context.Background())

	lc.OnShutdown(func() {
		time.Sleep(500 * time.Millisecond)
	})

	if err := lc.Shutdown(50 * time.Millisecond); err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	lc := lifecycle.New(parent)
	cancel()

	select {
	case <-lc.Context().Done():
	case <-time.After(time.Second):
		t.Error("context should follow parent cancellation")
	}
}
