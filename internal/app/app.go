// Package app wires the service's components together and owns their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/handlers"
	"github.com/ternarybob/ghostfetch/internal/interfaces"
	"github.com/ternarybob/ghostfetch/internal/queue"
	"github.com/ternarybob/ghostfetch/internal/services/events"
	"github.com/ternarybob/ghostfetch/internal/services/fingerprint"
	"github.com/ternarybob/ghostfetch/internal/services/proxy"
	"github.com/ternarybob/ghostfetch/internal/services/scraper"
	"github.com/ternarybob/ghostfetch/internal/storage"
)

// App holds every long-lived component and the handlers the server
// mounts.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Store   interfaces.JobStore
	Events  *events.Service
	Proxies *proxy.Manager
	Scraper *scraper.Service
	Broker  *queue.Manager

	FetchHandler     *handlers.FetchHandler
	JobHandler       *handlers.JobHandler
	EventsHandler    *handlers.EventsHandler
	WebSocketHandler *handlers.WebSocketHandler
	StatusHandler    *handlers.StatusHandler
}

// New builds the full dependency graph. Nothing is running yet; call
// Start.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	if err := os.MkdirAll(config.Storage.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	store, err := storage.NewJobStore(config.Storage.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}

	bus := events.NewService(logger)

	proxyList := proxy.LoadProxyFile(config.Proxy.File, logger)
	var proxies *proxy.Manager
	if len(proxyList) > 0 {
		proxies = proxy.NewManager(proxyList, config.Proxy.Strategy, logger)
		logger.Info().
			Int("pool_size", proxies.PoolSize()).
			Str("strategy", config.Proxy.Strategy).
			Msg("Proxy rotation enabled")
	} else {
		logger.Info().Msg("No proxies configured, fetching directly")
	}

	prints := fingerprint.NewCache(fingerprint.DefaultTTL)
	engine := scraper.NewService(config, proxies, prints, logger)
	broker := queue.NewManager(config, store, engine, bus, logger)

	a := &App{
		Config:  config,
		Logger:  logger,
		Store:   store,
		Events:  bus,
		Proxies: proxies,
		Scraper: engine,
		Broker:  broker,
	}

	a.FetchHandler = handlers.NewFetchHandler(broker, config, logger)
	a.JobHandler = handlers.NewJobHandler(broker, logger)
	a.EventsHandler = handlers.NewEventsHandler(broker, logger)
	a.WebSocketHandler = handlers.NewWebSocketHandler(broker, logger)
	a.StatusHandler = handlers.NewStatusHandler(broker, engine, config, logger)

	return a, nil
}

// Start brings up the browser and the worker pool.
func (a *App) Start(ctx context.Context) error {
	if err := a.Scraper.Start(); err != nil {
		return fmt.Errorf("failed to start scraper: %w", err)
	}
	if err := a.Broker.Start(ctx); err != nil {
		a.Scraper.Stop()
		return fmt.Errorf("failed to start job broker: %w", err)
	}
	return nil
}

// Shutdown stops components in dependency order: no new jobs, drain
// workers, close the browser, then release storage.
func (a *App) Shutdown() {
	a.Broker.Stop()
	a.Scraper.Stop()
	a.Events.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close job store")
	}
	a.Logger.Info().Msg("Application shut down")
}
