package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tfmusic/workflow-assistant/internal/app"
	"github.com/tfmusic/workflow-assistant/internal/events"
)

// handleSessionEvents streams a session's activity as Server-Sent Events.
// The stream ends when the client disconnects or the session is reset.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	stream := s.assistant.Events().Subscribe(ctx, events.FilterBySessionID[app.Activity](session.ID()))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				s.logger.Warn("Failed to write SSE event", "session", session.ID(), "err", err)
				return
			}
			flusher.Flush()
			if event.Type == events.SessionReset {
				return
			}
		}
	}
}

func writeSSEEvent(w io.Writer, event events.Event[app.Activity]) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
	return err
}
