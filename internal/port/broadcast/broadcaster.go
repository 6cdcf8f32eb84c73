// Package broadcast defines the port for pushing run progress to connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Scoped is implemented by payloads that belong to a single run. Clients
// watching one run only receive events whose Scope matches it.
type Scoped interface {
	Scope() string
}

// Event type constants.
const (
	EventRunStarted    = "run.started"
	EventTaskStarted   = "task.started"
	EventTaskCompleted = "task.completed"
	EventRunCompleted  = "run.completed"
	EventRunFailed     = "run.failed"
)

// RunEvent is broadcast when a run starts or finishes.
type RunEvent struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

func (e RunEvent) Scope() string { return e.RunID }

// TaskEvent is broadcast when a pipeline task starts or completes.
type TaskEvent struct {
	RunID string `json:"run_id"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	Kind  string `json:"kind"`
	Agent string `json:"agent"`
}

func (e TaskEvent) Scope() string { return e.RunID }

// Nop discards all events.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any) {}
