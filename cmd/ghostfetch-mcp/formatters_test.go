package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/ghostfetch/pkg/client"
)

func TestFormatArtifact(t *testing.T) {
	out := formatArtifact(&client.Artifact{
		Metadata: client.Metadata{Title: "Example", Author: "Jo", PublishDate: "2024-03-01"},
		Markdown: "Body text",
	})

	assert.Contains(t, out, "# Example")
	assert.Contains(t, out, "**Author:** Jo")
	assert.Contains(t, out, "**Date:** 2024-03-01")
	assert.Contains(t, out, "Body text")
}

func TestFormatArtifactFillsMissingFields(t *testing.T) {
	out := formatArtifact(&client.Artifact{Markdown: "Body"})

	assert.Contains(t, out, "# Fetched Content")
	assert.Contains(t, out, "**Author:** Unknown")
	assert.Contains(t, out, "**Date:** Unknown")
}

func TestFormatJobFailed(t *testing.T) {
	completed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := formatJob(&client.Job{
		ID:           "abc",
		URL:          "https://example.com",
		Status:       client.StatusFailed,
		Error:        "HTTP 503 from example.com",
		ErrorDetails: &client.ErrorDetails{Code: "http_503", Retryable: true},
		CreatedAt:    completed.Add(-time.Minute),
		CompletedAt:  &completed,
	})

	assert.Contains(t, out, "## Job abc")
	assert.Contains(t, out, "**Status:** failed")
	assert.Contains(t, out, "HTTP 503 from example.com")
	assert.Contains(t, out, "code: http_503, retryable: true")
}

func TestFormatHealth(t *testing.T) {
	out := formatHealth(&client.Health{
		Status:                "healthy",
		Version:               "dev",
		BrowserConnected:      true,
		ActiveJobsQueue:       3,
		ActiveBrowserContexts: 1,
		ConcurrencyLimit:      2,
	})

	assert.Contains(t, out, "**Status:** healthy")
	assert.Contains(t, out, "**Browser connected:** true")
	assert.Contains(t, out, "**Jobs queued:** 3")
	assert.Contains(t, out, "1 of 2")
}
