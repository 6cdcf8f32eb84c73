// Package fakellm provides an offline llm.Client that echoes its prompts.
// It backs the "fake" provider and the crew tests.
package fakellm

import (
	"context"
	"errors"
	"sync"

	"github.com/Strob0t/TripCrew/internal/port/llm"
)

// ErrInjected is returned on the call configured with FailOn.
var ErrInjected = errors.New("fakellm: injected failure")

// Client echoes each request's prompt back as its answer.
type Client struct {
	mu       sync.Mutex
	calls    []llm.Request
	failOn   int // 1-based call number that fails; 0 never fails
	failWith error
	prefix   string
}

// Option configures a Client.
type Option func(*Client)

// FailOn makes the n-th call (1-based) return err, or ErrInjected when err is nil.
func FailOn(n int, err error) Option {
	return func(c *Client) {
		c.failOn = n
		c.failWith = err
	}
}

// WithPrefix prepends prefix to every echoed answer.
func WithPrefix(prefix string) Option {
	return func(c *Client) { c.prefix = prefix }
}

// New creates an echo client.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ llm.Client = (*Client)(nil)

func (c *Client) Name() string { return "fake:echo" }

// Complete records the request and returns its prompt.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.calls = append(c.calls, req)
	n := len(c.calls)
	c.mu.Unlock()

	if c.failOn > 0 && n == c.failOn {
		if c.failWith != nil {
			return "", c.failWith
		}
		return "", ErrInjected
	}
	return c.prefix + req.Prompt, nil
}

// Calls returns a copy of the requests received so far.
func (c *Client) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.calls))
	copy(out, c.calls)
	return out
}
