package interfaces

import (
	"context"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// JobBroker is the handler-facing surface of the job queue.
type JobBroker interface {
	// Submit enqueues a fetch job and returns it in the queued state.
	Submit(ctx context.Context, url, sessionKey, callbackURL string, issueRef int) (*models.Job, error)

	// Get returns a job by ID, or nil when unknown.
	Get(ctx context.Context, jobID string) (*models.Job, error)

	// Subscribe returns a live feed of job status updates and a cancel
	// function that must be called when done.
	Subscribe() (<-chan models.JobUpdate, func())

	// QueueSize returns the number of jobs waiting for a worker.
	QueueSize() int
}
