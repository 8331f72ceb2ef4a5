// Package metrics exposes Prometheus counters and gauges for the fetch
// pipeline. All collectors live in a package-local registry so tests can
// reset state between runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	jobsTotal      *prometheus.CounterVec
	jobDuration    prometheus.Histogram
	activeWorkers  prometheus.Gauge
	queueSize      prometheus.Gauge
	browserRestart prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()
	registerCollectors()
}

func registerCollectors() {
	jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ghostfetch_jobs_total",
		Help: "Total number of jobs reaching a terminal state, by status.",
	}, []string{"status"})

	jobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ghostfetch_job_duration_seconds",
		Help:    "Wall-clock job duration from start of processing to terminal state.",
		Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghostfetch_active_workers",
		Help: "Number of workers currently processing a job.",
	})

	queueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghostfetch_queue_size",
		Help: "Number of jobs waiting in the queue.",
	})

	browserRestart = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostfetch_browser_restarts_total",
		Help: "Number of times the shared browser process was recycled.",
	})

	registry.MustRegister(jobsTotal, jobDuration, activeWorkers, queueSize, browserRestart)
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Reset replaces the registry with a fresh one. Intended for tests.
func Reset() {
	registry = prometheus.NewRegistry()
	registerCollectors()
}

// IncJob records a job reaching a terminal state.
func IncJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveJobDuration records how long a job took from first attempt to
// terminal state.
func ObserveJobDuration(seconds float64) {
	jobDuration.Observe(seconds)
}

// WorkerStarted marks a worker as busy.
func WorkerStarted() {
	activeWorkers.Inc()
}

// WorkerFinished marks a worker as idle again.
func WorkerFinished() {
	activeWorkers.Dec()
}

// SetQueueSize reports the current queue depth.
func SetQueueSize(n int) {
	queueSize.Set(float64(n))
}

// IncBrowserRestart records a browser recycle.
func IncBrowserRestart() {
	browserRestart.Inc()
}
