package proxy

import (
	"math/rand"
	"net/url"
	"sync"

	"github.com/ternarybob/arbor"
)

// quarantine threshold: consecutive failures before a proxy is excluded
// from rotation until a MarkGood or a full-pool reset.
const maxConsecutiveFailures = 3

// latencyWindow is the number of recent latency samples kept per proxy.
const latencyWindow = 10

// Strategy selects a proxy from the currently available (non-quarantined)
// subset.
type Strategy interface {
	Pick(available []string) string
}

// RoundRobinStrategy cycles through the available subset with a
// monotonically increasing index taken modulo the subset size at call time.
type RoundRobinStrategy struct {
	index int
}

func (s *RoundRobinStrategy) Pick(available []string) string {
	if len(available) == 0 {
		return ""
	}
	p := available[s.index%len(available)]
	s.index++
	return p
}

// RandomStrategy picks uniformly from the available subset.
type RandomStrategy struct{}

func (s *RandomStrategy) Pick(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return available[rand.Intn(len(available))]
}

// Manager tracks proxy rotation, health, and latency. All methods are
// safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	proxies   []string
	strategy  Strategy
	bad       map[string]struct{}
	failures  map[string]int
	latencies map[string][]float64
	logger    arbor.ILogger
}

// NewManager builds a manager over the given proxy URLs. Entries that are
// not http(s)://host:port are discarded with a warning. Strategy is
// "round_robin" or "random".
func NewManager(proxies []string, strategy string, logger arbor.ILogger) *Manager {
	valid := make([]string, 0, len(proxies))
	for _, p := range proxies {
		if validProxyURL(p) {
			valid = append(valid, p)
		} else {
			logger.Warn().Str("proxy", p).Msg("Discarding invalid proxy entry")
		}
	}
	if len(valid) < len(proxies) {
		logger.Warn().
			Int("removed", len(proxies)-len(valid)).
			Int("kept", len(valid)).
			Msg("Removed invalid proxies from the pool")
	}

	var strat Strategy
	if strategy == "random" {
		strat = &RandomStrategy{}
	} else {
		strat = &RoundRobinStrategy{}
	}

	return &Manager{
		proxies:   valid,
		strategy:  strat,
		bad:       make(map[string]struct{}),
		failures:  make(map[string]int),
		latencies: make(map[string][]float64),
		logger:    logger,
	}
}

// Next returns one proxy from the non-quarantined subset, or "" when the
// pool is empty. When every proxy is quarantined the quarantine set is
// cleared and the full pool becomes available again.
func (m *Manager) Next() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.proxies) == 0 {
		return ""
	}

	available := m.availableLocked()
	if len(available) == 0 {
		m.logger.Warn().Msg("All proxies quarantined, resetting proxy pool")
		m.bad = make(map[string]struct{})
		available = m.proxies
	}

	return m.strategy.Pick(available)
}

// MarkBad records a failure. At maxConsecutiveFailures the proxy is
// quarantined.
func (m *Manager) MarkBad(proxyURL string) {
	if proxyURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[proxyURL]++
	if m.failures[proxyURL] >= maxConsecutiveFailures {
		m.logger.Error().Str("proxy", proxyURL).Msg("Quarantining proxy after repeated failures")
		m.bad[proxyURL] = struct{}{}
	}
}

// MarkGood clears the failure count and lifts any quarantine.
func (m *Manager) MarkGood(proxyURL string) {
	if proxyURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.failures, proxyURL)
	delete(m.bad, proxyURL)
}

// RecordLatency appends a latency sample, keeping the last latencyWindow
// measurements.
func (m *Manager) RecordLatency(proxyURL string, latencyMs float64) {
	if proxyURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := append(m.latencies[proxyURL], latencyMs)
	if len(samples) > latencyWindow {
		samples = samples[len(samples)-latencyWindow:]
	}
	m.latencies[proxyURL] = samples
}

// Latencies returns a copy of the recent latency window for a proxy.
func (m *Manager) Latencies(proxyURL string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.latencies[proxyURL]
	out := make([]float64, len(samples))
	copy(out, samples)
	return out
}

// PoolSize returns the number of valid proxies loaded.
func (m *Manager) PoolSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.proxies)
}

func (m *Manager) availableLocked() []string {
	available := make([]string, 0, len(m.proxies))
	for _, p := range m.proxies {
		if _, quarantined := m.bad[p]; !quarantined {
			available = append(available, p)
		}
	}
	return available
}

// validProxyURL accepts http(s)://host:port entries only.
func validProxyURL(proxyURL string) bool {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != "" && u.Port() != ""
}
