package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/models"
	"github.com/ternarybob/ghostfetch/internal/services/events"
	"github.com/ternarybob/ghostfetch/internal/storage/sqlite"
)

// stubFetcher plays back a scripted sequence of results, one per call.
type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	results []stubResult
}

type stubResult struct {
	artifact *models.Artifact
	err      error
	panics   bool
}

func (f *stubFetcher) Fetch(ctx context.Context, url, sessionKey string) (*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.results[len(f.results)-1]
	if f.calls < len(f.results) {
		r = f.results[f.calls]
	}
	f.calls++

	if r.panics {
		panic("browser exploded")
	}
	return r.artifact, r.err
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func okArtifact() *models.Artifact {
	return &models.Artifact{
		Metadata: models.Metadata{Title: "Example"},
		Markdown: "# Example",
	}
}

func newTestManager(t *testing.T, fetcher *stubFetcher) (*Manager, func()) {
	t.Helper()

	logger := arbor.NewLogger()
	config := common.DefaultConfig()
	config.Scraper.MaxConcurrentBrowsers = 1

	store, err := sqlite.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)

	bus := events.NewService(logger)

	m := NewManager(config, store, fetcher, bus, logger)
	m.backoff = func(int) time.Duration { return 0 }
	require.NoError(t, m.Start(context.Background()))

	return m, func() {
		m.Stop()
		bus.Close()
		store.Close()
	}
}

// waitTerminal blocks until the job reaches a terminal state.
func waitTerminal(t *testing.T, m *Manager, jobID string) *models.Job {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		job, err := m.Get(context.Background(), jobID)
		require.NoError(t, err)
		if job != nil && (job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed) {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state", jobID)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestJobCompletesOnFirstAttempt(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{artifact: okArtifact()}}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, "Example", done.Result.Metadata.Title)
	assert.Empty(t, done.Error)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestRetryableFailureThenSuccess(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{
		{err: models.NewScrapeError("HTTP 503", models.HTTPErrorCode(503), true)},
		{artifact: okArtifact()},
	}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestNonRetryableFailureUsesSingleAttempt(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{
		{err: models.NewScrapeError("HTTP 404", models.HTTPErrorCode(404), false)},
	}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://example.com/404", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Equal(t, 1, fetcher.callCount())
	require.NotNil(t, done.ErrorDetails)
	assert.Equal(t, "http_404", done.ErrorDetails.Code)
	assert.False(t, done.ErrorDetails.Retryable)
}

func TestRetriesExhaustedReportsLastError(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{
		{err: models.NewScrapeError("no response", models.ErrCodeNoResponse, true)},
	}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://down.example.com", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	// First attempt plus max_retries extras.
	assert.Equal(t, 1+m.config.Queue.MaxRetries, fetcher.callCount())
	require.NotNil(t, done.ErrorDetails)
	assert.Equal(t, models.ErrCodeNoResponse, done.ErrorDetails.Code)
}

func TestPanicBecomesInternalError(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{panics: true}}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Equal(t, 1, fetcher.callCount())
	require.NotNil(t, done.ErrorDetails)
	assert.Equal(t, models.ErrCodeInternal, done.ErrorDetails.Code)
	assert.False(t, done.ErrorDetails.Retryable)
}

func TestUnclassifiedErrorWrapsAsInternal(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{err: errors.New("unexpected")}}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	job, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
	require.NoError(t, err)

	done := waitTerminal(t, m, job.ID)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, models.ErrCodeInternal, done.ErrorDetails.Code)
}

func TestStatusUpdatesArriveInOrder(t *testing.T) {
	fetcher := &stubFetcher{results: []stubResult{{artifact: okArtifact()}}}
	m, stop := newTestManager(t, fetcher)
	defer stop()

	ch, cancel := m.Subscribe()
	defer cancel()

	job, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
	require.NoError(t, err)

	var statuses []models.JobStatus
	for len(statuses) < 3 {
		select {
		case u := <-ch:
			if u.JobID == job.ID {
				statuses = append(statuses, u.Status)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, saw %v", statuses)
		}
	}

	assert.Equal(t, []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusProcessing,
		models.JobStatusCompleted,
	}, statuses)
}

func TestRequeueAbandonedProcessingJobs(t *testing.T) {
	logger := arbor.NewLogger()
	config := common.DefaultConfig()
	config.Scraper.MaxConcurrentBrowsers = 1
	config.Queue.RequeueProcessing = true

	store, err := sqlite.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	defer store.Close()

	// A job a previous run died holding.
	started := time.Now().UTC()
	require.NoError(t, store.SaveJob(context.Background(), &models.Job{
		ID:        "abandoned",
		URL:       "https://example.com",
		Status:    models.JobStatusProcessing,
		CreatedAt: time.Now().UTC(),
		StartedAt: &started,
	}))

	bus := events.NewService(logger)
	defer bus.Close()

	fetcher := &stubFetcher{results: []stubResult{{artifact: okArtifact()}}}
	m := NewManager(config, store, fetcher, bus, logger)
	m.backoff = func(int) time.Duration { return 0 }
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	done := waitTerminal(t, m, "abandoned")
	assert.Equal(t, models.JobStatusCompleted, done.Status)
}

func TestProcessSkipsDeletedJob(t *testing.T) {
	logger := arbor.NewLogger()
	config := common.DefaultConfig()

	store, err := sqlite.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	defer store.Close()

	bus := events.NewService(logger)
	defer bus.Close()

	fetcher := &stubFetcher{results: []stubResult{{artifact: okArtifact()}}}
	m := NewManager(config, store, fetcher, bus, logger)

	// The job was swept from the store while it sat in the backlog.
	job := &models.Job{
		ID:        "swept",
		URL:       "https://example.com",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	m.process(context.Background(), job)

	assert.Equal(t, 0, fetcher.callCount())
	stored, err := store.GetJob(context.Background(), "swept")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSubmitOverflowFailsJobAndPublishes(t *testing.T) {
	logger := arbor.NewLogger()
	config := common.DefaultConfig()

	store, err := sqlite.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"), logger)
	require.NoError(t, err)
	defer store.Close()

	bus := events.NewService(logger)
	defer bus.Close()

	fetcher := &stubFetcher{results: []stubResult{{artifact: okArtifact()}}}
	// Never started, so nothing drains the backlog.
	m := NewManager(config, store, fetcher, bus, logger)

	for i := 0; i < queueCapacity; i++ {
		_, err := m.Submit(context.Background(), "https://example.com", "", "", 0)
		require.NoError(t, err)
	}

	ch, cancel := m.Subscribe()
	defer cancel()

	job, err := m.Submit(context.Background(), "https://example.com/overflow", "", "", 0)
	require.Error(t, err)
	assert.Nil(t, job)

	// The overflow still lands as a resolvable failed job.
	var update models.JobUpdate
	select {
	case update = <-ch:
	case <-time.After(time.Second):
		t.Fatal("no update published for the overflowed job")
	}
	assert.Equal(t, models.JobStatusFailed, update.Status)

	stored, err := store.GetJob(context.Background(), update.JobID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, "job queue is full", stored.Error)
	require.NotNil(t, stored.ErrorDetails)
	assert.Equal(t, models.ErrCodeInternal, stored.ErrorDetails.Code)
	assert.NotNil(t, stored.CompletedAt)
}

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	for attempt, base := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		for i := 0; i < 20; i++ {
			d := backoffDelay(attempt)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, base+time.Second)
		}
	}
}
