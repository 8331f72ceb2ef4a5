// Package scraper drives a headless browser to fetch pages as a plausible
// human visitor: per-domain pacing, synthetic fingerprints, proxy
// rotation, and periodic browser recycling.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/models"
	"github.com/ternarybob/ghostfetch/internal/services/extract"
	"github.com/ternarybob/ghostfetch/internal/services/fingerprint"
	"github.com/ternarybob/ghostfetch/internal/services/proxy"
)

// Service fetches URLs through a shared headless browser. Safe for
// concurrent use; at most MaxConcurrentBrowsers fetches run at once.
type Service struct {
	config  *common.Config
	proxies *proxy.Manager
	prints  *fingerprint.Cache
	logger  arbor.ILogger

	sem   chan struct{}
	pacer *domainPacer

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	requestCount  int
	tabs          sync.WaitGroup
	stopped       bool

	activeContexts atomic.Int64
}

// NewService builds the fetch engine. The proxy manager may be nil when
// no proxies are configured.
func NewService(config *common.Config, proxies *proxy.Manager, prints *fingerprint.Cache, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		proxies: proxies,
		prints:  prints,
		logger:  logger,
		sem:     make(chan struct{}, config.Scraper.MaxConcurrentBrowsers),
		pacer:   newDomainPacer(config.Scraper.MinDomainDelay),
	}
}

// Start launches the shared browser eagerly so the first fetch does not
// pay the startup cost.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return nil
	}
	return s.launchBrowserLocked()
}

// Stop drains in-flight fetches and shuts the browser down.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.tabs.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeBrowserLocked()
	s.logger.Info().Msg("Scraper stopped")
}

// Fetch retrieves one URL and extracts its content. Failures come back
// as *models.ScrapeError carrying a code and retryability.
func (s *Service) Fetch(ctx context.Context, rawURL, sessionKey string) (*models.Artifact, error) {
	host := common.ExtractHost(rawURL)
	if host == "" {
		return nil, models.NewScrapeError(fmt.Sprintf("invalid URL: %s", rawURL), models.ErrCodeFetchError, false)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, models.NewScrapeError("cancelled while waiting for a browser slot", models.ErrCodeTimeout, true)
	}
	defer func() { <-s.sem }()

	if err := s.pacer.Wait(ctx, host); err != nil {
		return nil, models.NewScrapeError(fmt.Sprintf("cancelled while pacing %s", host), models.ErrCodeTimeout, true)
	}

	bundle := s.prints.For(host)

	var proxyURL string
	if s.proxies != nil {
		proxyURL = s.proxies.Next()
	}

	var (
		tabCtx  context.Context
		release context.CancelFunc
	)
	if proxyURL != "" {
		tabCtx, release = s.proxiedTab(proxyURL)
	} else {
		var err error
		tabCtx, release, err = s.sharedTab()
		if err != nil {
			return nil, models.NewScrapeError(fmt.Sprintf("browser unavailable: %v", err), models.ErrCodeNoResponse, true)
		}
	}
	defer release()

	s.logger.Debug().
		Str("url", rawURL).
		Str("host", host).
		Str("proxy", proxyURL).
		Str("os", bundle.OS).
		Msg("Fetching page")

	start := time.Now()
	html, ferr := s.fetchHTML(tabCtx, rawURL, host, bundle)
	s.accountProxy(proxyURL, ferr, time.Since(start))
	if ferr != nil {
		return nil, ferr
	}

	artifact, err := extract.Extract(html)
	if err != nil {
		return nil, models.NewScrapeError(fmt.Sprintf("content extraction failed: %v", err), models.ErrCodeInternal, false)
	}
	return artifact, nil
}

// accountProxy records exactly one health verdict per proxied attempt:
// any navigation failure counts against the proxy, a fetched page counts
// for it with latency recorded.
func (s *Service) accountProxy(proxyURL string, err error, elapsed time.Duration) {
	if proxyURL == "" {
		return
	}
	if proxyFault(err) {
		s.proxies.MarkBad(proxyURL)
		return
	}
	s.proxies.MarkGood(proxyURL)
	s.proxies.RecordLatency(proxyURL, float64(elapsed.Milliseconds()))
}

// proxyFault reports whether a failed attempt counts against the proxy:
// no response, timeouts, navigation errors, and HTTP error statuses all
// do. Empty-page and internal failures happened after the proxy
// delivered, so they do not.
func proxyFault(err error) bool {
	if err == nil {
		return false
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case models.ErrCodeNoResponse, models.ErrCodeTimeout, models.ErrCodeFetchError:
		return true
	}
	return strings.HasPrefix(se.Code, "http_")
}

// ActiveContexts returns the number of live browsing contexts, for the
// health endpoint.
func (s *Service) ActiveContexts() int {
	return int(s.activeContexts.Load())
}

// BrowserConnected reports whether the shared browser process is up.
func (s *Service) BrowserConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browserCtx != nil && s.browserCtx.Err() == nil
}
