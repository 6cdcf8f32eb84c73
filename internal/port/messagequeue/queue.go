// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Publisher is the port interface for publishing run events.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the connection.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by TripCrew.
const (
	SubjectRunCompleted = "trips.run.completed"
	SubjectRunFailed    = "trips.run.failed"
)
