package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// JobStore persists jobs in a local SQLite database. Result and error
// details are JSON-encoded columns; timestamps are stored as unix
// seconds.
type JobStore struct {
	db     *sql.DB
	logger arbor.ILogger
}

// NewJobStore opens (creating if needed) the database at path and
// ensures the jobs table exists.
func NewJobStore(path string, logger arbor.ILogger) (*JobStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite uses "sqlite" driver name (not "sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &JobStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite job store initialized")
	return s, nil
}

func (s *JobStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			session_key TEXT,
			callback_url TEXT,
			issue_ref INTEGER,
			status TEXT NOT NULL,
			result TEXT,
			error TEXT,
			error_details TEXT,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			completed_at INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at);
	`)
	return err
}

// SaveJob inserts or replaces a job by ID.
func (s *JobStore) SaveJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	var result, errorDetails sql.NullString
	if job.Result != nil {
		data, err := json.Marshal(job.Result)
		if err != nil {
			return fmt.Errorf("failed to encode job result: %w", err)
		}
		result = sql.NullString{String: string(data), Valid: true}
	}
	if job.ErrorDetails != nil {
		data, err := json.Marshal(job.ErrorDetails)
		if err != nil {
			return fmt.Errorf("failed to encode error details: %w", err)
		}
		errorDetails = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs
		(id, url, session_key, callback_url, issue_ref, status, result, error, error_details, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.URL,
		nullString(job.SessionKey),
		nullString(job.CallbackURL),
		nullInt(job.IssueRef),
		string(job.Status),
		result,
		nullString(job.Error),
		errorDetails,
		job.CreatedAt.Unix(),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob returns the job or (nil, nil) when unknown.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, session_key, callback_url, issue_ref, status, result, error, error_details, created_at, started_at, completed_at
		FROM jobs WHERE id = ?`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobsByStatus returns all jobs currently in the given status.
func (s *JobStore) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, session_key, callback_url, issue_ref, status, result, error, error_details, created_at, started_at, completed_at
		FROM jobs WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteCompletedBefore removes jobs whose completion timestamp is older
// than the cutoff.
func (s *JobStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE completed_at IS NOT NULL AND completed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job          models.Job
		sessionKey   sql.NullString
		callbackURL  sql.NullString
		issueRef     sql.NullInt64
		status       string
		result       sql.NullString
		jobError     sql.NullString
		errorDetails sql.NullString
		createdAt    int64
		startedAt    sql.NullInt64
		completedAt  sql.NullInt64
	)

	if err := row.Scan(&job.ID, &job.URL, &sessionKey, &callbackURL, &issueRef, &status,
		&result, &jobError, &errorDetails, &createdAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	job.SessionKey = sessionKey.String
	job.CallbackURL = callbackURL.String
	job.IssueRef = int(issueRef.Int64)
	job.Status = models.JobStatus(status)
	job.Error = jobError.String
	job.CreatedAt = time.Unix(createdAt, 0).UTC()

	if result.Valid {
		var artifact models.Artifact
		if err := json.Unmarshal([]byte(result.String), &artifact); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &artifact
	}
	if errorDetails.Valid {
		var details models.ErrorDetails
		if err := json.Unmarshal([]byte(errorDetails.String), &details); err != nil {
			return nil, fmt.Errorf("failed to decode error details: %w", err)
		}
		job.ErrorDetails = &details
	}
	if startedAt.Valid {
		t := time.Unix(startedAt.Int64, 0).UTC()
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		job.CompletedAt = &t
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
