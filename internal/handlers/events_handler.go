package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/interfaces"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// EventsHandler streams job status updates over Server-Sent Events.
type EventsHandler struct {
	broker interfaces.JobBroker
	logger arbor.ILogger
}

func NewEventsHandler(broker interfaces.JobBroker, logger arbor.ILogger) *EventsHandler {
	return &EventsHandler{broker: broker, logger: logger}
}

// HandleEvents serves GET /events. Each update is one "data:" frame;
// comment frames act as heartbeats.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, cancel := h.broker.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-updates:
			if !open {
				// Dropped for falling behind; the client reconnects.
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to encode job update")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
