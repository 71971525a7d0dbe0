package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// subscribeEvents handles GET /v1/events: a server-sent event stream of
// engine activity. ?sessionId= narrows to one session and ?type= to one
// event type; both may be combined.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming not supported")
		return
	}

	sessionFilter := r.URL.Query().Get("sessionId")
	typeFilter := domain.EventType(r.URL.Query().Get("type"))

	events, cancel := s.stream.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("event stream client disconnected")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if sessionFilter != "" && event.SessionID != sessionFilter {
				continue
			}
			if typeFilter != "" && event.Type != typeFilter {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.log.Warn("event encode failed", "type", event.Type, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
