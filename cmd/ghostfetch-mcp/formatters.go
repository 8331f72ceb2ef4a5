package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/ghostfetch/pkg/client"
)

// formatArtifact formats a fetch result as markdown
func formatArtifact(artifact *client.Artifact) string {
	title := artifact.Metadata.Title
	if title == "" {
		title = "Fetched Content"
	}
	author := artifact.Metadata.Author
	if author == "" {
		author = "Unknown"
	}
	date := artifact.Metadata.PublishDate
	if date == "" {
		date = "Unknown"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Author:** %s\n", author))
	sb.WriteString(fmt.Sprintf("**Date:** %s\n\n", date))
	sb.WriteString("---\n\n")
	sb.WriteString(artifact.Markdown)
	sb.WriteString("\n")
	return sb.String()
}

// formatJob formats a job's state as markdown
func formatJob(job *client.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Job %s\n\n", job.ID))
	sb.WriteString(fmt.Sprintf("**URL:** %s\n", job.URL))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", job.CreatedAt.Format(time.RFC3339)))
	if job.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("**Completed:** %s\n", job.CompletedAt.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	if job.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s", job.Error))
		if job.ErrorDetails != nil {
			sb.WriteString(fmt.Sprintf(" (code: %s, retryable: %t)", job.ErrorDetails.Code, job.ErrorDetails.Retryable))
		}
		sb.WriteString("\n")
	}

	if job.Result != nil {
		sb.WriteString("\n")
		sb.WriteString(formatArtifact(job.Result))
	}

	return sb.String()
}

// formatHealth formats the service health report as markdown
func formatHealth(h *client.Health) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## GhostFetch %s\n\n", h.Version))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", h.Status))
	sb.WriteString(fmt.Sprintf("**Browser connected:** %t\n", h.BrowserConnected))
	sb.WriteString(fmt.Sprintf("**Jobs queued:** %d\n", h.ActiveJobsQueue))
	sb.WriteString(fmt.Sprintf("**Browser contexts:** %d of %d\n", h.ActiveBrowserContexts, h.ConcurrencyLimit))
	return sb.String()
}
