package messagequeue

// RunEventPayload is the schema for trips.run.* messages.
type RunEventPayload struct {
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	Provider    string `json:"provider"`
	Destination string `json:"destination"`
	TravelType  string `json:"travel_type"`
	Season      string `json:"season"`
	Duration    int    `json:"duration"`
	Budget      string `json:"budget"`
	DurationMS  int64  `json:"duration_ms"`
	FailedTask  string `json:"failed_task,omitempty"`
}
