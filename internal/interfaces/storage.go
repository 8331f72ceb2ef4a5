package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// JobStore persists jobs across state transitions. Implementations are
// selected by the DATABASE_URL scheme (sqlite or badger).
type JobStore interface {
	// SaveJob inserts or replaces a job by ID.
	SaveJob(ctx context.Context, job *models.Job) error

	// GetJob returns the job or (nil, nil) when unknown.
	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// ListJobsByStatus returns all jobs currently in the given status.
	ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	// DeleteCompletedBefore removes jobs whose completion timestamp is
	// older than the cutoff. Returns the number of rows removed.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases the underlying store.
	Close() error
}
