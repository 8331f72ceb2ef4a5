package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeEngine struct {
	connected bool
	contexts  int
}

func (e *fakeEngine) BrowserConnected() bool { return e.connected }
func (e *fakeEngine) ActiveContexts() int    { return e.contexts }

func TestHandleHealth(t *testing.T) {
	broker := newFakeBroker()
	engine := &fakeEngine{connected: true, contexts: 1}
	h := NewStatusHandler(broker, engine, testConfig(), arbor.NewLogger())

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status                string `json:"status"`
		BrowserConnected      bool   `json:"browser_connected"`
		ActiveJobsQueue       int    `json:"active_jobs_queue"`
		ActiveBrowserContexts int    `json:"active_browser_contexts"`
		ConcurrencyLimit      int    `json:"concurrency_limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.BrowserConnected)
	assert.Equal(t, 1, resp.ActiveBrowserContexts)
	assert.Equal(t, 2, resp.ConcurrencyLimit)
}

func TestHandleHealthRejectsPost(t *testing.T) {
	h := NewStatusHandler(newFakeBroker(), &fakeEngine{}, testConfig(), arbor.NewLogger())

	r := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
