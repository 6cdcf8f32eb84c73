package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/TripCrew/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a typed event and broadcasts it. Payloads that
// implement broadcast.Scoped only reach clients watching that run.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	msg := Message{Type: eventType, Payload: json.RawMessage(data)}
	if s, ok := payload.(broadcast.Scoped); ok {
		msg.scope = s.Scope()
	}
	h.Broadcast(ctx, msg)
}
