package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// domainPacer enforces a minimum start-to-start spacing between
// navigations to the same host. Limiters are created lazily per host and
// never expire; the set of distinct hosts is bounded by the workload.
type domainPacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delay    time.Duration
}

func newDomainPacer(delay time.Duration) *domainPacer {
	return &domainPacer{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

func (p *domainPacer) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.delay), 1)
		p.limiters[host] = l
	}
	return l
}

// Wait blocks until the host's next navigation slot opens, or until ctx
// is cancelled. The first navigation to a host proceeds immediately.
func (p *domainPacer) Wait(ctx context.Context, host string) error {
	if p.delay <= 0 {
		return nil
	}
	return p.limiter(host).Wait(ctx)
}
