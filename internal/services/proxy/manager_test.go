package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func TestNewManagerDiscardsInvalidEntries(t *testing.T) {
	m := NewManager([]string{
		"http://10.0.0.1:8080",
		"https://proxy.example.com:3128",
		"socks5://10.0.0.2:1080", // wrong scheme
		"http://noport.example.com", // missing port
		"not a url",
	}, "round_robin", testLogger())

	assert.Equal(t, 2, m.PoolSize())
}

func TestRoundRobinRotation(t *testing.T) {
	m := NewManager([]string{"http://p1:8080", "http://p2:8080"}, "round_robin", testLogger())

	assert.Equal(t, "http://p1:8080", m.Next())
	assert.Equal(t, "http://p2:8080", m.Next())
	assert.Equal(t, "http://p1:8080", m.Next())
}

func TestNextReturnsEmptyOnEmptyPool(t *testing.T) {
	m := NewManager(nil, "round_robin", testLogger())
	assert.Equal(t, "", m.Next())
}

func TestQuarantineAfterThreeFailures(t *testing.T) {
	m := NewManager([]string{"http://p1:8080", "http://p2:8080"}, "round_robin", testLogger())

	for i := 0; i < 3; i++ {
		m.MarkBad("http://p1:8080")
	}

	// P1 is quarantined: every draw returns P2.
	for i := 0; i < 4; i++ {
		assert.Equal(t, "http://p2:8080", m.Next())
	}

	// Quarantine P2 as well: the pool resets and P1 comes back.
	for i := 0; i < 3; i++ {
		m.MarkBad("http://p2:8080")
	}
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		got[m.Next()] = true
	}
	assert.True(t, got["http://p1:8080"])
}

func TestMarkGoodLiftsQuarantine(t *testing.T) {
	m := NewManager([]string{"http://p1:8080"}, "round_robin", testLogger())

	for i := 0; i < 3; i++ {
		m.MarkBad("http://p1:8080")
	}
	m.MarkGood("http://p1:8080")

	assert.Equal(t, "http://p1:8080", m.Next())

	// Failure count was cleared, so two more failures do not quarantine.
	m.MarkBad("http://p1:8080")
	m.MarkBad("http://p1:8080")
	assert.Equal(t, "http://p1:8080", m.Next())
}

func TestLatencySlidingWindow(t *testing.T) {
	m := NewManager([]string{"http://p1:8080"}, "round_robin", testLogger())

	for i := 0; i < 15; i++ {
		m.RecordLatency("http://p1:8080", float64(i))
	}

	samples := m.Latencies("http://p1:8080")
	require.Len(t, samples, 10)
	assert.Equal(t, 5.0, samples[0])
	assert.Equal(t, 14.0, samples[9])
}

func TestRandomStrategyDrawsFromPool(t *testing.T) {
	m := NewManager([]string{"http://p1:8080", "http://p2:8080"}, "random", testLogger())

	for i := 0; i < 20; i++ {
		p := m.Next()
		assert.Contains(t, []string{"http://p1:8080", "http://p2:8080"}, p)
	}
}
