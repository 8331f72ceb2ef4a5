package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler streams job status updates over a websocket, for
// clients that prefer it over SSE.
type WebSocketHandler struct {
	broker interfaces.JobBroker
	logger arbor.ILogger
}

func NewWebSocketHandler(broker interfaces.JobBroker, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{broker: broker, logger: logger}
}

// HandleWS serves GET /ws.
func (h *WebSocketHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.broker.Subscribe()
	defer cancel()

	// Reader exists only to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(heartbeatInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case update, open := <-updates:
			if !open {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
