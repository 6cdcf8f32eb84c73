package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// errorWait is how long an error record waits for queue space before it
// is written inline.
const errorWait = time.Second

// Closer flushes buffered log records on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// DropCounts tallies records discarded because the queue was full.
// Error records are never discarded.
type DropCounts struct {
	Debug int64
	Info  int64
	Warn  int64
}

// Total returns the number of discarded records.
func (d DropCounts) Total() int64 { return d.Debug + d.Info + d.Warn }

// DropSource is implemented by closers that may discard records.
type DropSource interface {
	Dropped() DropCounts
}

// AsyncHandler hands records to writer goroutines so crew progress logging
// never waits on the output. Below error level a record is dropped when the
// queue is full. Error records wait for room and are written inline when
// none frees up, because they carry run failures.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// asyncQueue is shared by every handler derived through WithAttrs and
// WithGroup. Each entry keeps the handler that produced it so derived
// attributes survive the hop.
type asyncQueue struct {
	mu     sync.RWMutex // guards closed and sends on ch
	closed bool
	ch     chan queued
	wg     sync.WaitGroup

	debug, info, warn atomic.Int64
}

type queued struct {
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler creates an AsyncHandler with a queue of size records and
// the given number of writers.
func NewAsyncHandler(inner slog.Handler, size, writers int) *AsyncHandler {
	q := &asyncQueue{ch: make(chan queued, size)}
	for range writers {
		q.wg.Add(1)
		go q.write()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (q *asyncQueue) write() {
	defer q.wg.Done()
	for item := range q.ch {
		_ = item.h.Handle(context.Background(), item.rec)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.q.mu.RLock()
	defer h.q.mu.RUnlock()
	if h.q.closed {
		return h.inner.Handle(ctx, rec)
	}

	item := queued{h: h.inner, rec: rec.Clone()}
	select {
	case h.q.ch <- item:
		return nil
	default:
	}

	if rec.Level < slog.LevelError {
		h.q.countDrop(rec.Level)
		return nil
	}
	timer := time.NewTimer(errorWait)
	defer timer.Stop()
	select {
	case h.q.ch <- item:
		return nil
	case <-timer.C:
		return h.inner.Handle(ctx, rec)
	}
}

func (q *asyncQueue) countDrop(level slog.Level) {
	switch {
	case level < slog.LevelInfo:
		q.debug.Add(1)
	case level < slog.LevelWarn:
		q.info.Add(1)
	default:
		q.warn.Add(1)
	}
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// Dropped returns how many records were discarded so far, by level.
func (h *AsyncHandler) Dropped() DropCounts {
	return DropCounts{Debug: h.q.debug.Load(), Info: h.q.info.Load(), Warn: h.q.warn.Load()}
}

// Close drains the queue and stops the writers. Records handled afterwards
// are written inline. When anything was dropped, a final warning reports
// the counts.
func (h *AsyncHandler) Close() {
	h.q.mu.Lock()
	if h.q.closed {
		h.q.mu.Unlock()
		return
	}
	h.q.closed = true
	close(h.q.ch)
	h.q.mu.Unlock()
	h.q.wg.Wait()

	if d := h.Dropped(); d.Total() > 0 {
		rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log records dropped", 0)
		rec.AddAttrs(slog.Int64("debug", d.Debug), slog.Int64("info", d.Info), slog.Int64("warn", d.Warn))
		_ = h.inner.Handle(context.Background(), rec)
	}
}
