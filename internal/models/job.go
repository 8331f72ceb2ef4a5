package models

import "time"

// JobStatus represents the lifecycle state of a fetch job.
// Transitions are monotonic: queued -> processing -> completed|failed.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Metadata holds the structured fields extracted from a fetched page.
// String fields are empty when the page does not carry them.
type Metadata struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	PublishDate string   `json:"publish_date"`
	Images      []string `json:"images"`
}

// Artifact is the result of one successful fetch: page metadata plus
// the extracted body rendered as Markdown.
type Artifact struct {
	Metadata Metadata `json:"metadata"`
	Markdown string   `json:"markdown"`
}

// Job is a single fetch request tracked from submission to terminal state.
type Job struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	SessionKey   string        `json:"session_key,omitempty"`
	CallbackURL  string        `json:"callback_url,omitempty"`
	IssueRef     int           `json:"issue_ref,omitempty"`
	Status       JobStatus     `json:"status"`
	Result       *Artifact     `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	ErrorDetails *ErrorDetails `json:"error_details,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// ErrorDetails carries the machine-readable classification of a failure.
type ErrorDetails struct {
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// JobUpdate is broadcast to subscribers on every job state transition.
type JobUpdate struct {
	Type   string    `json:"type"`
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// NewJobUpdate builds the standard job_update event for a job.
func NewJobUpdate(jobID string, status JobStatus) JobUpdate {
	return JobUpdate{Type: "job_update", JobID: jobID, Status: status}
}
