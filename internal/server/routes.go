package server

import (
	"net/http"

	"github.com/ternarybob/ghostfetch/internal/app"
	"github.com/ternarybob/ghostfetch/internal/metrics"
)

func registerRoutes(mux *http.ServeMux, a *app.App) {
	mux.HandleFunc("/fetch", a.FetchHandler.HandleFetch)
	mux.HandleFunc("/fetch/sync", a.FetchHandler.HandleFetchSync)
	mux.HandleFunc("/job/", a.JobHandler.HandleJob)
	mux.HandleFunc("/events", a.EventsHandler.HandleEvents)
	mux.HandleFunc("/ws", a.WebSocketHandler.HandleWS)
	mux.HandleFunc("/health", a.StatusHandler.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())
}
