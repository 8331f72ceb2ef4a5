package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// maxCommentLength keeps comments under GitHub's 65536-character cap
// with room for the framing around the markdown body.
const maxCommentLength = 60000

// IssueAnnouncer posts job results as comments on GitHub issues, for
// jobs submitted with an issue reference.
type IssueAnnouncer struct {
	client *github.Client
	owner  string
	repo   string
	logger arbor.ILogger
}

// NewIssueAnnouncer builds an announcer for an "owner/name" repo.
func NewIssueAnnouncer(repo, token string, logger arbor.ILogger) (*IssueAnnouncer, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("github repo must be \"owner/name\", got %q", repo)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &IssueAnnouncer{
		client: github.NewClient(tc),
		owner:  parts[0],
		repo:   parts[1],
		logger: logger,
	}, nil
}

// Announce comments the job's outcome on its issue. Failures are logged
// and dropped; the job outcome is already persisted.
func (a *IssueAnnouncer) Announce(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body := commentBody(job)
	_, _, err := a.client.Issues.CreateComment(ctx, a.owner, a.repo, job.IssueRef,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("job_id", job.ID).
			Int("issue", job.IssueRef).
			Msg("Failed to comment on issue")
		return
	}

	a.logger.Info().Str("job_id", job.ID).Int("issue", job.IssueRef).Msg("Posted issue comment")
}

func commentBody(job *models.Job) string {
	if job.Status != models.JobStatusCompleted || job.Result == nil {
		code := ""
		if job.ErrorDetails != nil {
			code = fmt.Sprintf(" (`%s`)", job.ErrorDetails.Code)
		}
		return fmt.Sprintf("❌ Fetch failed for %s%s\n\n> %s", job.URL, code, job.Error)
	}

	title := job.Result.Metadata.Title
	if title == "" {
		title = job.URL
	}

	markdown := job.Result.Markdown
	if len(markdown) > maxCommentLength {
		markdown = markdown[:maxCommentLength] + "\n\n*(truncated)*"
	}

	return fmt.Sprintf("✅ Fetched **%s**\n\n%s\n\n---\n\n%s", title, job.URL, markdown)
}
