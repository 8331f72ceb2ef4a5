package queue

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// webhookTimeout caps each delivery attempt. There is exactly one
// attempt per terminal job; a failed delivery is logged and dropped.
const webhookTimeout = 10 * time.Second

// WebhookSender POSTs terminal job results to caller-supplied URLs.
type WebhookSender struct {
	client *http.Client
	logger arbor.ILogger
}

func NewWebhookSender(logger arbor.ILogger) *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

type webhookPayload struct {
	JobID        string               `json:"job_id"`
	URL          string               `json:"url"`
	Status       models.JobStatus     `json:"status"`
	Data         *models.Artifact     `json:"data,omitempty"`
	Error        string               `json:"error,omitempty"`
	ErrorDetails *models.ErrorDetails `json:"error_details,omitempty"`
}

// Notify delivers the job's terminal state to its callback URL.
func (w *WebhookSender) Notify(job *models.Job) {
	payload := webhookPayload{
		JobID:        job.ID,
		URL:          job.URL,
		Status:       job.Status,
		Data:         job.Result,
		Error:        job.Error,
		ErrorDetails: job.ErrorDetails,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to encode webhook payload")
		return
	}

	resp, err := w.client.Post(job.CallbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("job_id", job.ID).
			Str("callback_url", job.CallbackURL).
			Msg("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn().
			Str("job_id", job.ID).
			Str("callback_url", job.CallbackURL).
			Int("status", resp.StatusCode).
			Msg("Webhook rejected by receiver")
		return
	}

	w.logger.Debug().Str("job_id", job.ID).Msg("Webhook delivered")
}
