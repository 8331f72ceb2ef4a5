package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/interfaces"
	"github.com/ternarybob/ghostfetch/internal/models"
)

var validate = validator.New()

// FetchHandler accepts fetch jobs, async and sync.
type FetchHandler struct {
	broker interfaces.JobBroker
	config *common.Config
	logger arbor.ILogger
}

func NewFetchHandler(broker interfaces.JobBroker, config *common.Config, logger arbor.ILogger) *FetchHandler {
	return &FetchHandler{broker: broker, config: config, logger: logger}
}

type fetchRequest struct {
	URL         string  `json:"url" validate:"required,url"`
	SessionKey  string  `json:"session_key"`
	CallbackURL string  `json:"callback_url" validate:"omitempty,url"`
	IssueRef    int     `json:"issue_ref" validate:"omitempty,min=1"`
	Timeout     float64 `json:"timeout" validate:"omitempty,gt=0"`
}

// HandleFetch enqueues a job and returns immediately.
// POST /fetch -> 202 {job_id, url, status}
func (h *FetchHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	job, err := h.broker.Submit(r.Context(), req.URL, req.SessionKey, req.CallbackURL, req.IssueRef)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"url":    job.URL,
		"status": job.Status,
	})
}

// HandleFetchSync enqueues a job and blocks until it reaches a terminal
// state or the deadline passes.
// GET/POST /fetch/sync -> 200 artifact | 502 transient | 400 permanent | 504 deadline
func (h *FetchHandler) HandleFetchSync(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	switch r.Method {
	case http.MethodGet:
		req.URL = r.URL.Query().Get("url")
		req.SessionKey = r.URL.Query().Get("session_key")
		if t := r.URL.Query().Get("timeout"); t != "" {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid timeout: "+t)
				return
			}
			req.Timeout = f
		}
		if err := validate.Struct(req); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
	case http.MethodPost:
		var ok bool
		req, ok = h.decodeRequest(w, r)
		if !ok {
			return
		}
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	timeout := h.syncTimeout(req.Timeout)

	job, err := h.broker.Submit(r.Context(), req.URL, req.SessionKey, req.CallbackURL, req.IssueRef)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	final := h.waitForJob(r, job.ID, timeout)
	if final == nil {
		WriteJSON(w, http.StatusGatewayTimeout, map[string]interface{}{
			"job_id": job.ID,
			"error":  fmt.Sprintf("timed out after %s waiting for job", timeout),
		})
		return
	}

	if final.Status == models.JobStatusCompleted {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"job_id": final.ID,
			"url":    final.URL,
			"status": final.Status,
			"data":   final.Result,
		})
		return
	}

	// Transient failures map to a gateway error, permanent ones to a
	// client error: the URL itself is the problem.
	statusCode := http.StatusBadRequest
	if final.ErrorDetails != nil && final.ErrorDetails.Retryable {
		statusCode = http.StatusBadGateway
	}
	WriteJSON(w, statusCode, map[string]interface{}{
		"job_id":        final.ID,
		"url":           final.URL,
		"status":        final.Status,
		"error":         final.Error,
		"error_details": final.ErrorDetails,
	})
}

func (h *FetchHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (fetchRequest, bool) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return req, false
	}
	return req, true
}

// syncTimeout resolves the caller's timeout against the configured
// default and ceiling.
func (h *FetchHandler) syncTimeout(requested float64) time.Duration {
	timeout := h.config.Sync.TimeoutDefault
	if requested > 0 {
		timeout = time.Duration(requested * float64(time.Second))
	}
	if timeout > h.config.Sync.MaxTimeout {
		timeout = h.config.Sync.MaxTimeout
	}
	return timeout
}

// waitForJob polls until the job is terminal, the deadline passes, or
// the client goes away. Returns nil when no terminal state was reached.
func (h *FetchHandler) waitForJob(r *http.Request, jobID string, timeout time.Duration) *models.Job {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-deadline.C:
			return nil
		case <-poll.C:
			job, err := h.broker.Get(r.Context(), jobID)
			if err != nil {
				h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to poll job state")
				continue
			}
			if job != nil && (job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed) {
				return job
			}
		}
	}
}
