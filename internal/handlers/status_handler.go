package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/interfaces"
)

// EngineStatus is what the health endpoint needs to know about the
// fetch engine.
type EngineStatus interface {
	BrowserConnected() bool
	ActiveContexts() int
}

// StatusHandler serves liveness and capacity information.
type StatusHandler struct {
	broker interfaces.JobBroker
	engine EngineStatus
	config *common.Config
	logger arbor.ILogger
}

func NewStatusHandler(broker interfaces.JobBroker, engine EngineStatus, config *common.Config, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{broker: broker, engine: engine, config: config, logger: logger}
}

// HandleHealth serves GET /health.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":                  "ok",
		"version":                 common.Version,
		"browser_connected":       h.engine.BrowserConnected(),
		"active_jobs_queue":       h.broker.QueueSize(),
		"active_browser_contexts": h.engine.ActiveContexts(),
		"concurrency_limit":       h.config.Scraper.MaxConcurrentBrowsers,
	})
}
