package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/models"
	"github.com/ternarybob/ghostfetch/internal/services/fingerprint"
)

const (
	tweetTextSelector  = `[data-testid="tweetText"]`
	tweetTextWait      = 30 * time.Second
	postScrollSettle   = 2 * time.Second
	settleMinSeconds   = 1.5
	settleExtraSeconds = 1.5
)

// fetchHTML applies the identity, navigates, settles, and captures the
// rendered document. Every failure comes back classified.
func (s *Service) fetchHTML(tabCtx context.Context, rawURL, host string, bundle fingerprint.Bundle) (string, error) {
	if err := chromedp.Run(tabCtx, identityTasks(bundle)); err != nil {
		return "", classifyNavigationError(host, err)
	}

	jar := sessionFile(s.config.Storage.Dir, common.NormalizedHost(host))
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return restoreSession(ctx, jar)
	}))
	if err != nil {
		s.logger.Warn().Err(err).Str("host", host).Msg("Failed to restore session state")
	}

	navCtx, cancel := context.WithTimeout(tabCtx, s.config.Scraper.NavigationTimeout)
	defer cancel()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(rawURL))
	if err != nil {
		return "", classifyNavigationError(host, err)
	}
	if resp == nil {
		return "", models.NewScrapeError(fmt.Sprintf("no response received from %s", host), models.ErrCodeNoResponse, true)
	}
	if resp.Status >= 400 {
		status := int(resp.Status)
		return "", models.NewScrapeError(
			fmt.Sprintf("HTTP %d from %s", status, host),
			models.HTTPErrorCode(status),
			models.RetryableHTTPStatus(status),
		)
	}

	s.settle(tabCtx, host)

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", classifyNavigationError(host, err)
	}

	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return saveSession(ctx, jar)
	}))
	if err != nil {
		s.logger.Warn().Err(err).Str("host", host).Msg("Failed to persist session state")
	}

	if strings.TrimSpace(html) == "" {
		return "", models.NewScrapeError(fmt.Sprintf("empty document from %s", host), models.ErrCodeNoContent, true)
	}
	return html, nil
}

// identityTasks applies the fingerprint bundle to a fresh tab: CDP
// overrides for what the network sees, injected script for what page
// JavaScript sees.
func identityTasks(bundle fingerprint.Bundle) chromedp.Tasks {
	return chromedp.Tasks{
		emulation.SetUserAgentOverride(bundle.UserAgent).
			WithAcceptLanguage(bundle.AcceptLanguage()).
			WithPlatform(bundle.Platform),
		emulation.SetDeviceMetricsOverride(
			int64(bundle.Viewport.Width), int64(bundle.Viewport.Height),
			bundle.DeviceScaleFactor, false),
		emulation.SetTimezoneOverride(bundle.Timezone),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(fingerprint.StealthScript(bundle)).Do(ctx)
			return err
		}),
	}
}

// settle lets late-loading content arrive before capture. Twitter
// renders tweets well after DOMContentLoaded, so it gets an explicit
// wait plus a scroll to trigger lazy hydration; a missing tweet is
// logged, not fatal.
func (s *Service) settle(tabCtx context.Context, host string) {
	_ = chromedp.Run(tabCtx, chromedp.Sleep(settleDelay()))

	if !isTwitterHost(host) {
		return
	}

	waitCtx, cancel := context.WithTimeout(tabCtx, tweetTextWait)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(tweetTextSelector, chromedp.ByQuery)); err != nil {
		s.logger.Warn().Str("host", host).Err(err).Msg("Tweet text did not appear before timeout")
	}

	_ = chromedp.Run(tabCtx,
		chromedp.Evaluate("window.scrollBy(0, 500)", nil),
		chromedp.Sleep(postScrollSettle),
	)
}

// settleDelay draws a human-ish pause between load and capture.
func settleDelay() time.Duration {
	return time.Duration((settleMinSeconds + rand.Float64()*settleExtraSeconds) * float64(time.Second))
}

func isTwitterHost(host string) bool {
	h := common.NormalizedHost(host)
	return h == "x.com" || h == "twitter.com"
}

// classifyNavigationError maps a chromedp failure onto the error
// taxonomy: deadline means timeout, a net:: error means the origin never
// answered, anything else is a generic fetch failure. All retryable.
func classifyNavigationError(host string, err error) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(fmt.Sprintf("navigation to %s timed out", host), models.ErrCodeTimeout, true)
	case strings.Contains(err.Error(), "net::ERR_"):
		return models.NewScrapeError(fmt.Sprintf("no response from %s: %v", host, err), models.ErrCodeNoResponse, true)
	default:
		return models.NewScrapeError(fmt.Sprintf("navigation to %s failed: %v", host, err), models.ErrCodeFetchError, true)
	}
}
