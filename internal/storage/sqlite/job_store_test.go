package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/models"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	store, err := NewJobStore(filepath.Join(t.TempDir(), "jobs.db"), arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetJobRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(time.Second).Truncate(time.Second).UTC()
	completed := started.Add(3 * time.Second)
	job := &models.Job{
		ID:          "job-1",
		URL:         "https://example.com",
		SessionKey:  "sess",
		CallbackURL: "https://hooks.example.com/cb",
		IssueRef:    42,
		Status:      models.JobStatusCompleted,
		Result: &models.Artifact{
			Metadata: models.Metadata{Title: "Example Domain", Images: []string{"https://example.com/a.png"}},
			Markdown: "# Example Domain",
		},
		CreatedAt:   time.Now().Truncate(time.Second).UTC(),
		StartedAt:   &started,
		CompletedAt: &completed,
	}

	require.NoError(t, store.SaveJob(ctx, job))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, job.URL, got.URL)
	assert.Equal(t, job.SessionKey, got.SessionKey)
	assert.Equal(t, job.CallbackURL, got.CallbackURL)
	assert.Equal(t, job.IssueRef, got.IssueRef)
	assert.Equal(t, job.Status, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Example Domain", got.Result.Metadata.Title)
	assert.Equal(t, started, *got.StartedAt)
	assert.Equal(t, completed, *got.CompletedAt)
}

func TestGetUnknownJobReturnsNil(t *testing.T) {
	store := newTestStore(t)

	job, err := store.GetJob(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestSaveJobPersistsErrorDetails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{
		ID:           "job-2",
		URL:          "https://example.com/404",
		Status:       models.JobStatusFailed,
		Error:        "HTTP 404 from example.com",
		ErrorDetails: &models.ErrorDetails{Code: "http_404", Retryable: false},
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.SaveJob(ctx, job))

	got, err := store.GetJob(ctx, "job-2")
	require.NoError(t, err)
	require.NotNil(t, got.ErrorDetails)
	assert.Equal(t, "http_404", got.ErrorDetails.Code)
	assert.False(t, got.ErrorDetails.Retryable)
	assert.Nil(t, got.Result)
}

func TestListJobsByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, status := range []models.JobStatus{
		models.JobStatusQueued, models.JobStatusProcessing, models.JobStatusProcessing,
	} {
		require.NoError(t, store.SaveJob(ctx, &models.Job{
			ID:        string(rune('a' + i)),
			URL:       "https://example.com",
			Status:    status,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	processing, err := store.ListJobsByStatus(ctx, models.JobStatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 2)

	queued, err := store.ListJobsByStatus(ctx, models.JobStatusQueued)
	require.NoError(t, err)
	assert.Len(t, queued, 1)
}

func TestDeleteCompletedBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	require.NoError(t, store.SaveJob(ctx, &models.Job{
		ID: "old", URL: "https://a.com", Status: models.JobStatusCompleted,
		CreatedAt: old, CompletedAt: &old,
	}))
	require.NoError(t, store.SaveJob(ctx, &models.Job{
		ID: "recent", URL: "https://b.com", Status: models.JobStatusCompleted,
		CreatedAt: recent, CompletedAt: &recent,
	}))
	require.NoError(t, store.SaveJob(ctx, &models.Job{
		ID: "pending", URL: "https://c.com", Status: models.JobStatusQueued,
		CreatedAt: old,
	}))

	deleted, err := store.DeleteCompletedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	gone, err := store.GetJob(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.GetJob(ctx, "recent")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	pending, err := store.GetJob(ctx, "pending")
	require.NoError(t, err)
	assert.NotNil(t, pending)
}
