package storage

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/interfaces"
	"github.com/ternarybob/ghostfetch/internal/storage/badger"
	"github.com/ternarybob/ghostfetch/internal/storage/sqlite"
)

// NewJobStore selects a job store backend from the DATABASE_URL scheme:
// sqlite:///path/to/jobs.db or badger://path/to/dir.
func NewJobStore(databaseURL string, logger arbor.ILogger) (interfaces.JobStore, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path in database URL %q", databaseURL)
		}
		return sqlite.NewJobStore(path, logger)
	case strings.HasPrefix(databaseURL, "badger://"):
		path := strings.TrimPrefix(databaseURL, "badger://")
		if path == "" {
			return nil, fmt.Errorf("empty badger path in database URL %q", databaseURL)
		}
		return badger.NewJobStore(path, logger)
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %s", databaseURL)
	}
}
