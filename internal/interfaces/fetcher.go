package interfaces

import (
	"context"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// Fetcher drives one fetch attempt end-to-end and returns the parsed
// artifact or a classified *models.ScrapeError. Safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url, sessionKey string) (*models.Artifact, error)
}
