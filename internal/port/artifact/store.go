// Package artifact defines the port for archiving rendered plans.
package artifact

import "context"

// Store persists rendered plan documents under a key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// PlanKey returns the object key a run's markdown plan is stored under.
func PlanKey(runID string) string {
	return "runs/" + runID + ".md"
}
