// Package llm defines the language-model client port shared by all crew agents.
package llm

import (
	"context"
	"log/slog"
	"time"
)

// Request is one prompt sent on behalf of an agent.
type Request struct {
	System string // persona: role, backstory, goal
	Prompt string // task instruction plus context from earlier tasks
}

// Client generates text for a single request. Implementations must be safe
// for concurrent use; the crew shares one client across its agents.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging logs prompt size, latency and failures of every call.
func WithLogging(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next Client
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, req)
	attrs := []any{
		"client", l.next.Name(),
		"prompt_bytes", len(req.System) + len(req.Prompt),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		l.log.ErrorContext(ctx, "llm call failed", append(attrs, "error", err)...)
		return "", err
	}
	l.log.DebugContext(ctx, "llm call completed", append(attrs, "output_bytes", len(out))...)
	return out, nil
}
