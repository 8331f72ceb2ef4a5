package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/ghostfetch/internal/metrics"
)

// allocatorOptions returns the Chrome launch flags shared by every
// browser process this service starts.
func allocatorOptions(headless bool, extra ...chromedp.ExecAllocatorOption) []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	return append(opts, extra...)
}

// launchBrowserLocked starts the shared browser process and verifies it
// responds before handing out tabs. Caller holds s.mu.
func (s *Service) launchBrowserLocked() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		allocatorOptions(s.config.Scraper.Headless)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel

	s.logger.Info().Bool("headless", s.config.Scraper.Headless).Msg("Browser launched")
	return nil
}

// closeBrowserLocked tears down the shared browser process. Caller holds
// s.mu and must have drained in-flight tabs first.
func (s *Service) closeBrowserLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.browserCtx = nil
}

// sharedTab opens a tab in the shared browser, recycling the whole
// process once it has served MaxRequestsPerBrowser navigations. The
// returned cancel is idempotent and must be called on every path.
func (s *Service) sharedTab() (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, nil, fmt.Errorf("scraper is shut down")
	}
	if s.browserCtx == nil {
		if err := s.launchBrowserLocked(); err != nil {
			return nil, nil, err
		}
	}

	s.requestCount++
	if s.requestCount > s.config.Scraper.MaxRequestsPerBrowser {
		s.logger.Info().
			Int("requests_served", s.requestCount-1).
			Msg("Recycling browser process")

		// New fetches queue on s.mu; in-flight tabs finish without it.
		s.tabs.Wait()
		s.closeBrowserLocked()
		if err := s.launchBrowserLocked(); err != nil {
			return nil, nil, err
		}
		s.requestCount = 1
		metrics.IncBrowserRestart()
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	s.tabs.Add(1)
	s.activeContexts.Add(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			tabCancel()
			s.tabs.Done()
			s.activeContexts.Add(-1)
		})
	}
	return tabCtx, cancel, nil
}

// proxiedTab runs one attempt in a dedicated browser process, since
// Chrome only accepts --proxy-server at launch. The process lives for
// exactly one navigation.
func (s *Service) proxiedTab(proxyURL string) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		allocatorOptions(s.config.Scraper.Headless, chromedp.ProxyServer(proxyURL))...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s.activeContexts.Add(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			browserCancel()
			allocCancel()
			s.activeContexts.Add(-1)
		})
	}
	return browserCtx, cancel
}
