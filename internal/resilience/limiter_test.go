package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiterCapsConcurrency(t *testing.T) {
	const limit = 3
	const workers = 10
	l := NewLimiter(limit)

	var running atomic.Int32
	var maxSeen atomic.Int32

	ctx := context.Background()
	done := make(chan struct{}, workers)

	for range workers {
		go func() {
			defer func() { done <- struct{}{} }()
			err := l.Run(ctx, func() error {
				cur := running.Add(1)
				// Record high-water mark
				for {
					old := maxSeen.Load()
					if cur <= old || maxSeen.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	for range workers {
		<-done
	}

	if m := maxSeen.Load(); m > limit {
		t.Errorf("max concurrent = %d, want <= %d", m, limit)
	}
	if l.InFlight() != 0 {
		t.Errorf("expected no runs in flight, got %d", l.InFlight())
	}
}

func TestLimiterContextCancellation(t *testing.T) {
	l := NewLimiter(1)
	ctx := context.Background()

	// Fill the single slot
	occupied := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.Run(ctx, func() error {
			close(occupied)
			<-release
			return nil
		})
	}()
	<-occupied

	if l.InFlight() != 1 {
		t.Errorf("expected 1 run in flight, got %d", l.InFlight())
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	err := l.Run(cancelCtx, func() error {
		t.Error("fn should not have been called")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(release)
}

func TestLimiterPropagatesError(t *testing.T) {
	l := NewLimiter(2)
	want := errors.New("boom")
	if err := l.Run(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("expected fn error, got %v", err)
	}
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0)
	if l != nil {
		t.Fatal("expected nil limiter for limit 0")
	}
	called := false
	if err := l.Run(context.Background(), func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("fn should run without a limit")
	}
	if l.Limit() != 0 || l.InFlight() != 0 {
		t.Error("nil limiter should report zero")
	}
}
