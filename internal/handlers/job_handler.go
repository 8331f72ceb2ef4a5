package handlers

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"

	"github.com/ternarybob/ghostfetch/internal/interfaces"
	"github.com/ternarybob/ghostfetch/internal/models"
)

// JobHandler serves job state and rendered previews.
type JobHandler struct {
	broker interfaces.JobBroker
	logger arbor.ILogger
}

func NewJobHandler(broker interfaces.JobBroker, logger arbor.ILogger) *JobHandler {
	return &JobHandler{broker: broker, logger: logger}
}

// HandleJob routes GET /job/{id} and GET /job/{id}/html.
func (h *JobHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/job/"), "/")
	parts := strings.Split(rest, "/")
	jobID := parts[0]
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job, err := h.broker.Get(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}

	if len(parts) == 2 && parts[1] == "html" {
		h.servePreview(w, job)
		return
	}
	if len(parts) > 1 {
		WriteError(w, http.StatusNotFound, "not found")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// servePreview renders the job's markdown result as a standalone HTML
// page.
func (h *JobHandler) servePreview(w http.ResponseWriter, job *models.Job) {
	if job.Status != models.JobStatusCompleted || job.Result == nil {
		WriteError(w, http.StatusConflict, fmt.Sprintf("job %s has no result (status %s)", job.ID, job.Status))
		return
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(job.Result.Markdown), &body); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to render markdown")
		return
	}

	title := job.Result.Metadata.Title
	if title == "" {
		title = job.URL
	}
	title = html.EscapeString(title)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s
</body>
</html>
`, title, body.String())
}
