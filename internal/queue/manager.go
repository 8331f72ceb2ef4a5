// Package queue is the job broker: it accepts fetch jobs, runs them on a
// bounded worker pool with typed retries, and fans status changes out to
// subscribers, webhooks, and GitHub issues.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/interfaces"
	"github.com/ternarybob/ghostfetch/internal/metrics"
	"github.com/ternarybob/ghostfetch/internal/models"
)

// queueCapacity bounds the in-memory job backlog. Submit fails once the
// backlog is full rather than blocking the caller.
const queueCapacity = 1024

// Manager owns the job lifecycle from Submit to terminal state.
type Manager struct {
	config    *common.Config
	store     interfaces.JobStore
	fetcher   interfaces.Fetcher
	events    interfaces.EventBus
	logger    arbor.ILogger
	webhook   *WebhookSender
	announcer *IssueAnnouncer

	jobs    chan *models.Job
	cron    *cron.Cron
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	backoff func(failedAttempt int) time.Duration
}

// NewManager wires the broker. The issue announcer is only active when
// both a GitHub repo and token are configured.
func NewManager(config *common.Config, store interfaces.JobStore, fetcher interfaces.Fetcher, events interfaces.EventBus, logger arbor.ILogger) *Manager {
	m := &Manager{
		config:  config,
		store:   store,
		fetcher: fetcher,
		events:  events,
		logger:  logger,
		webhook: NewWebhookSender(logger),
		jobs:    make(chan *models.Job, queueCapacity),
		backoff: backoffDelay,
	}

	if config.GitHub.Repo != "" && config.GitHub.Token != "" {
		announcer, err := NewIssueAnnouncer(config.GitHub.Repo, config.GitHub.Token, logger)
		if err != nil {
			logger.Warn().Err(err).Str("repo", config.GitHub.Repo).Msg("Issue announcer disabled")
		} else {
			m.announcer = announcer
		}
	}
	return m
}

// Submit persists a new queued job and hands it to the worker pool.
// Returns an error when the backlog is full; the job is then recorded as
// failed so its ID still resolves.
func (m *Manager) Submit(ctx context.Context, url, sessionKey, callbackURL string, issueRef int) (*models.Job, error) {
	job := &models.Job{
		ID:          uuid.NewString(),
		URL:         url,
		SessionKey:  sessionKey,
		CallbackURL: callbackURL,
		IssueRef:    issueRef,
		Status:      models.JobStatusQueued,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	select {
	case m.jobs <- job:
	default:
		now := time.Now().UTC()
		job.Status = models.JobStatusFailed
		job.Error = "job queue is full"
		job.ErrorDetails = &models.ErrorDetails{Code: models.ErrCodeInternal, Retryable: false}
		job.CompletedAt = &now
		if err := m.store.SaveJob(ctx, job); err != nil {
			m.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to record queue overflow")
		}
		m.events.Publish(models.NewJobUpdate(job.ID, job.Status))
		return nil, fmt.Errorf("job queue is full (%d pending)", queueCapacity)
	}

	m.events.Publish(models.NewJobUpdate(job.ID, job.Status))
	metrics.SetQueueSize(len(m.jobs))

	m.logger.Info().Str("job_id", job.ID).Str("url", url).Msg("Job queued")
	return job, nil
}

// Get returns the job by ID, or nil when unknown.
func (m *Manager) Get(ctx context.Context, jobID string) (*models.Job, error) {
	return m.store.GetJob(ctx, jobID)
}

// Subscribe returns a live feed of job status updates.
func (m *Manager) Subscribe() (<-chan models.JobUpdate, func()) {
	return m.events.Subscribe()
}

// QueueSize returns the number of jobs waiting for a worker.
func (m *Manager) QueueSize() int {
	return len(m.jobs)
}

// Start launches the worker pool and the hourly retention sweep. When
// requeue_processing is enabled, jobs abandoned mid-flight by a previous
// run are re-enqueued first.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if m.config.Queue.RequeueProcessing {
		if err := m.requeueAbandoned(ctx); err != nil {
			return err
		}
	}

	workers := m.config.Scraper.MaxConcurrentBrowsers
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i)
	}

	m.cron = cron.New()
	if _, err := m.cron.AddFunc("@hourly", func() { m.cleanup(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	m.cron.Start()

	m.logger.Info().
		Int("workers", workers).
		Dur("job_ttl", m.config.Queue.JobTTL).
		Msg("Job broker started")
	return nil
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cron != nil {
		m.cron.Stop()
	}
	m.wg.Wait()
	m.logger.Info().Msg("Job broker stopped")
}

// requeueAbandoned flips jobs left in "processing" by an earlier run
// back to "queued" and re-enqueues them.
func (m *Manager) requeueAbandoned(ctx context.Context) error {
	abandoned, err := m.store.ListJobsByStatus(ctx, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to list abandoned jobs: %w", err)
	}

	for _, job := range abandoned {
		job.Status = models.JobStatusQueued
		job.StartedAt = nil
		if err := m.store.SaveJob(ctx, job); err != nil {
			m.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to requeue abandoned job")
			continue
		}
		select {
		case m.jobs <- job:
			m.logger.Info().Str("job_id", job.ID).Msg("Requeued abandoned job")
		default:
			m.logger.Warn().Str("job_id", job.ID).Msg("Queue full, abandoned job left queued")
		}
	}
	return nil
}

// cleanup deletes terminal jobs older than the retention window.
func (m *Manager) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-m.config.Queue.JobTTL)
	deleted, err := m.store.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		m.logger.Error().Err(err).Msg("Job cleanup failed")
		return
	}
	if deleted > 0 {
		m.logger.Info().Int("deleted", deleted).Msg("Expired jobs removed")
	}
}
