package server

import (
	"log"
	"net/http"
	"time"

	"github.com/michael/vc-council/internal/events"
)

// pingInterval is the heartbeat period for idle SSE connections.
const pingInterval = 30 * time.Second

// handleSSE streams session events to one subscriber until the stream is
// closed by the producer or the client disconnects.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	writer, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	bus := s.coordinator.Bus()
	ch := bus.Subscribe(sessionID)
	defer bus.Unsubscribe(sessionID, ch)

	if err := writer.WriteMessage(events.Connected(sessionID)); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[sse] client disconnected from session %s", sessionID)
			return
		case <-ticker.C:
			if err := writer.WriteMessage(events.Ping()); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				// Producer closed the stream; the terminal phase_change
				// has already been delivered.
				return
			}
			if err := writer.WriteMessage(ev); err != nil {
				return
			}
		}
	}
}
