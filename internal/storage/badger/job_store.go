package badger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// JobStore persists jobs in an embedded Badger database via badgerhold.
// Selected with a badger:// DATABASE_URL.
type JobStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewJobStore opens (creating if needed) the badgerhold store at path.
func NewJobStore(path string, logger arbor.ILogger) (*JobStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Info().Str("path", path).Msg("Badger job store initialized")
	return &JobStore{store: store, logger: logger}, nil
}

// SaveJob inserts or replaces a job by ID.
func (s *JobStore) SaveJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if err := s.store.Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob returns the job or (nil, nil) when unknown.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := s.store.Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobsByStatus returns all jobs currently in the given status.
func (s *JobStore) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.store.Find(&jobs, badgerhold.Where("Status").Eq(status).SortBy("CreatedAt")); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// DeleteCompletedBefore removes jobs whose completion timestamp is older
// than the cutoff. badgerhold cannot compare through pointer fields, so
// terminal jobs are filtered in Go.
func (s *JobStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var jobs []models.Job
	query := badgerhold.Where("Status").In(models.JobStatusCompleted, models.JobStatusFailed)
	if err := s.store.Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to list terminal jobs: %w", err)
	}

	deleted := 0
	for i := range jobs {
		if jobs[i].CompletedAt == nil || !jobs[i].CompletedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(jobs[i].ID, &models.Job{}); err != nil {
			return deleted, fmt.Errorf("failed to delete job %s: %w", jobs[i].ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	return s.store.Close()
}
