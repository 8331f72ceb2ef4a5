package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, 2, config.Scraper.MaxConcurrentBrowsers)
	assert.Equal(t, 10*time.Second, config.Scraper.MinDomainDelay)
	assert.Equal(t, 50, config.Scraper.MaxRequestsPerBrowser)
	assert.Equal(t, 3, config.Queue.MaxRetries)
	assert.Equal(t, 24*time.Hour, config.Queue.JobTTL)
	assert.False(t, config.Queue.RequeueProcessing)
	assert.Equal(t, "round_robin", config.Proxy.Strategy)
	assert.Equal(t, 120*time.Second, config.Sync.TimeoutDefault)
	assert.Equal(t, 300*time.Second, config.Sync.MaxTimeout)
	require.NoError(t, config.Validate())
}

func TestLoadFromFilesOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[scraper]
max_concurrent_browsers = 4

[proxy]
strategy = "random"
`), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 4, config.Scraper.MaxConcurrentBrowsers)
	assert.Equal(t, "random", config.Proxy.Strategy)
	// Untouched values keep their defaults.
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 3, config.Queue.MaxRetries)
}

func TestEnvOverridesBeatFiles(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("MIN_DOMAIN_DELAY", "2.5")
	t.Setenv("JOB_TTL_SECONDS", "3600")
	t.Setenv("REQUEUE_PROCESSING", "true")
	t.Setenv("PROXY_STRATEGY", "random")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, 5, config.Queue.MaxRetries)
	assert.Equal(t, 2500*time.Millisecond, config.Scraper.MinDomainDelay)
	assert.Equal(t, time.Hour, config.Queue.JobTTL)
	assert.True(t, config.Queue.RequeueProcessing)
	assert.Equal(t, "random", config.Proxy.Strategy)
}

func TestApplyFlagOverridesWins(t *testing.T) {
	config := DefaultConfig()
	ApplyFlagOverrides(config, 8081, "127.0.0.1")

	assert.Equal(t, 8081, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)

	// Zero values leave the config alone.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8081, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero browsers", func(c *Config) { c.Scraper.MaxConcurrentBrowsers = 0 }},
		{"zero recycle threshold", func(c *Config) { c.Scraper.MaxRequestsPerBrowser = 0 }},
		{"negative retries", func(c *Config) { c.Queue.MaxRetries = -1 }},
		{"unknown strategy", func(c *Config) { c.Proxy.Strategy = "sticky" }},
		{"sync default above max", func(c *Config) { c.Sync.TimeoutDefault = 10 * time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestParseSecondsOrDuration(t *testing.T) {
	d, ok := parseSecondsOrDuration("90")
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, d)

	d, ok = parseSecondsOrDuration("1.5")
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, ok = parseSecondsOrDuration("2m")
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)

	_, ok = parseSecondsOrDuration("soon")
	assert.False(t, ok)
}
