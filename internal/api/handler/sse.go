package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/domain"
)

// streamEvents writes a progress event sequence as Server-Sent Events,
// flushing after every event so chunks reach the client immediately.
func streamEvents(w http.ResponseWriter, r *http.Request, events <-chan domain.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; drain the producer via context cancellation.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
