package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/ghostfetch/internal/metrics"
	"github.com/ternarybob/ghostfetch/internal/models"
)

// worker pulls jobs from the backlog until its context is cancelled.
func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-m.jobs:
			metrics.SetQueueSize(len(m.jobs))
			m.process(ctx, job)
		}
	}
}

// process runs one job through the retry loop and lands it in exactly
// one terminal state. Side effects (webhook, issue comment) fire after
// the terminal persist and never block the worker.
func (m *Manager) process(ctx context.Context, job *models.Job) {
	metrics.WorkerStarted()
	defer metrics.WorkerFinished()

	// The retention sweep may have deleted the job while it waited in the
	// backlog; a job that no longer exists is not fetched.
	current, err := m.store.GetJob(ctx, job.ID)
	if err != nil {
		m.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to load job before processing")
		return
	}
	if current == nil {
		m.logger.Warn().Str("job_id", job.ID).Msg("Job deleted while queued, skipping")
		return
	}

	started := time.Now().UTC()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &started
	m.persistAndBroadcast(ctx, job)

	artifact, ferr := m.runWithRetries(ctx, job)

	completed := time.Now().UTC()
	job.CompletedAt = &completed
	if ferr != nil {
		job.Status = models.JobStatusFailed
		job.Error = ferr.Message
		job.ErrorDetails = &models.ErrorDetails{Code: ferr.Code, Retryable: ferr.Retryable}
		m.logger.Warn().
			Str("job_id", job.ID).
			Str("url", job.URL).
			Str("code", ferr.Code).
			Msg("Job failed")
	} else {
		job.Status = models.JobStatusCompleted
		job.Result = artifact
		m.logger.Info().
			Str("job_id", job.ID).
			Str("url", job.URL).
			Dur("duration", completed.Sub(started)).
			Msg("Job completed")
	}
	m.persistAndBroadcast(ctx, job)

	metrics.IncJob(string(job.Status))
	metrics.ObserveJobDuration(completed.Sub(started).Seconds())

	if job.CallbackURL != "" {
		go m.webhook.Notify(job)
	}
	if m.announcer != nil && job.IssueRef != 0 {
		go m.announcer.Announce(job)
	}
}

// runWithRetries attempts the fetch up to MaxRetries extra times. Only
// retryable failures earn another attempt; the wait between attempts
// grows exponentially with sub-second jitter.
func (m *Manager) runWithRetries(ctx context.Context, job *models.Job) (*models.Artifact, *models.ScrapeError) {
	maxRetries := m.config.Queue.MaxRetries

	var last *models.ScrapeError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		artifact, err := m.fetchOnce(ctx, job)
		if err == nil {
			return artifact, nil
		}

		last = asScrapeError(err)
		if !last.Retryable || attempt == maxRetries {
			break
		}

		delay := m.backoff(attempt)
		m.logger.Info().
			Str("job_id", job.ID).
			Str("code", last.Code).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Msg("Retrying after transient failure")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, models.NewScrapeError("shut down while waiting to retry", models.ErrCodeInternal, false)
		}
	}
	return nil, last
}

// fetchOnce shields the worker from engine panics: a panic becomes a
// non-retryable internal error instead of killing the pool.
func (m *Manager) fetchOnce(ctx context.Context, job *models.Job) (artifact *models.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Str("job_id", job.ID).Msgf("Panic during fetch: %v", r)
			err = models.NewScrapeError(fmt.Sprintf("panic during fetch: %v", r), models.ErrCodeInternal, false)
		}
	}()
	return m.fetcher.Fetch(ctx, job.URL, job.SessionKey)
}

// asScrapeError returns the classified error, wrapping anything that
// escaped the engine unclassified as a non-retryable internal error.
func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(err.Error(), models.ErrCodeInternal, false)
}

// backoffDelay returns the wait before retrying after the given failed
// attempt (0-based): 2^(attempt+1) seconds plus up to one second of
// jitter.
func backoffDelay(failedAttempt int) time.Duration {
	base := time.Duration(1<<(failedAttempt+1)) * time.Second
	jitter := time.Duration(rand.Float64() * float64(time.Second))
	return base + jitter
}

func (m *Manager) persistAndBroadcast(ctx context.Context, job *models.Job) {
	if err := m.store.SaveJob(ctx, job); err != nil {
		m.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job state")
	}
	m.events.Publish(models.NewJobUpdate(job.ID, job.Status))
}
