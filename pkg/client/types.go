package client

import "time"

// Job statuses as reported by the service.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Metadata holds the structured fields extracted from a fetched page.
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

// ErrorDetails carries the machine-readable classification of a failure.
type ErrorDetails struct {
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// Job is one fetch request as the service reports it.
type Job struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	SessionKey   string        `json:"session_key,omitempty"`
	CallbackURL  string        `json:"callback_url,omitempty"`
	IssueRef     int           `json:"issue_ref,omitempty"`
	Status       string        `json:"status"`
	Result       *Artifact     `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	ErrorDetails *ErrorDetails `json:"error_details,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
