package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Scraper ScraperConfig `toml:"scraper"`
	Queue   QueueConfig   `toml:"queue"`
	Storage StorageConfig `toml:"storage"`
	Proxy   ProxyConfig   `toml:"proxy"`
	Sync    SyncConfig    `toml:"sync"`
	GitHub  GitHubConfig  `toml:"github"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type ScraperConfig struct {
	MaxConcurrentBrowsers int           `toml:"max_concurrent_browsers"` // Browsing-context gate, also worker pool size
	MinDomainDelay        time.Duration `toml:"min_domain_delay"`        // Minimum start-to-start spacing per host
	MaxRequestsPerBrowser int           `toml:"max_requests_per_browser"` // Navigations before the shared browser is recycled
	NavigationTimeout     time.Duration `toml:"navigation_timeout"`
	Headless              bool          `toml:"headless"`
}

type QueueConfig struct {
	MaxRetries        int           `toml:"max_retries"`        // Additional attempts after the first
	JobTTL            time.Duration `toml:"job_ttl"`            // Retention after completion
	RequeueProcessing bool          `toml:"requeue_processing"` // Resurface jobs left in "processing" at startup
}

type StorageConfig struct {
	DatabaseURL string `toml:"database_url"` // sqlite:///path or badger://path
	Dir         string `toml:"dir"`          // Session files, logs
}

type ProxyConfig struct {
	File     string `toml:"file"`
	Strategy string `toml:"strategy"` // "round_robin" or "random"
}

type SyncConfig struct {
	TimeoutDefault time.Duration `toml:"timeout_default"`
	MaxTimeout     time.Duration `toml:"max_timeout"`
}

type GitHubConfig struct {
	Repo  string `toml:"repo"` // "owner/name" for issue comments
	Token string `toml:"token"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// DefaultConfig returns the built-in defaults, matching the documented
// environment variable defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Scraper: ScraperConfig{
			MaxConcurrentBrowsers: 2,
			MinDomainDelay:        10 * time.Second,
			MaxRequestsPerBrowser: 50,
			NavigationTimeout:     60 * time.Second,
			Headless:              true,
		},
		Queue: QueueConfig{
			MaxRetries:        3,
			JobTTL:            24 * time.Hour,
			RequeueProcessing: false,
		},
		Storage: StorageConfig{
			DatabaseURL: "sqlite:///./storage/jobs.db",
			Dir:         "storage",
		},
		Proxy: ProxyConfig{
			File:     "proxies.txt",
			Strategy: "round_robin",
		},
		Sync: SyncConfig{
			TimeoutDefault: 120 * time.Second,
			MaxTimeout:     300 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration in priority order:
// defaults -> config files (later files override earlier) -> environment.
// CLI flag overrides are applied separately via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks configuration invariants that would otherwise surface
// as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Scraper.MaxConcurrentBrowsers <= 0 {
		return fmt.Errorf("max_concurrent_browsers must be positive, got %d", c.Scraper.MaxConcurrentBrowsers)
	}
	if c.Scraper.MaxRequestsPerBrowser <= 0 {
		return fmt.Errorf("max_requests_per_browser must be positive, got %d", c.Scraper.MaxRequestsPerBrowser)
	}
	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.Queue.MaxRetries)
	}
	switch c.Proxy.Strategy {
	case "round_robin", "random":
	default:
		return fmt.Errorf("invalid proxy strategy: %q", c.Proxy.Strategy)
	}
	if c.Sync.TimeoutDefault > c.Sync.MaxTimeout {
		return fmt.Errorf("sync timeout_default (%s) exceeds max_timeout (%s)", c.Sync.TimeoutDefault, c.Sync.MaxTimeout)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if host := os.Getenv("HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("MAX_CONCURRENT_BROWSERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.MaxConcurrentBrowsers = n
		}
	}
	if v := os.Getenv("MIN_DOMAIN_DELAY"); v != "" {
		if d, ok := parseSecondsOrDuration(v); ok {
			config.Scraper.MinDomainDelay = d
		}
	}
	if v := os.Getenv("MAX_REQUESTS_PER_BROWSER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.MaxRequestsPerBrowser = n
		}
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Queue.MaxRetries = n
		}
	}
	if v := os.Getenv("JOB_TTL_SECONDS"); v != "" {
		if d, ok := parseSecondsOrDuration(v); ok {
			config.Queue.JobTTL = d
		}
	}
	if v := os.Getenv("REQUEUE_PROCESSING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Queue.RequeueProcessing = b
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		config.Storage.Dir = v
	}
	if v := os.Getenv("PROXIES_FILE"); v != "" {
		config.Proxy.File = v
	}
	if v := os.Getenv("PROXY_STRATEGY"); v != "" {
		config.Proxy.Strategy = v
	}
	if v := os.Getenv("SYNC_TIMEOUT_DEFAULT"); v != "" {
		if d, ok := parseSecondsOrDuration(v); ok {
			config.Sync.TimeoutDefault = d
		}
	}
	if v := os.Getenv("MAX_SYNC_TIMEOUT"); v != "" {
		if d, ok := parseSecondsOrDuration(v); ok {
			config.Sync.MaxTimeout = d
		}
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		config.GitHub.Repo = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		config.GitHub.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// parseSecondsOrDuration accepts either a bare number of seconds
// ("10", "120.5") or a Go duration string ("10s", "2m").
func parseSecondsOrDuration(v string) (time.Duration, bool) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	return 0, false
}
