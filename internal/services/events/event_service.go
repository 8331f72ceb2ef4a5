package events

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// mailboxSize bounds each subscriber's buffer. A subscriber that falls
// this far behind is dropped so the broker never blocks on delivery.
const mailboxSize = 64

// Service is the job-update pub/sub bus. Subscribers receive every
// update published after they subscribe; there is no replay.
type Service struct {
	mu          sync.Mutex
	subscribers map[chan models.JobUpdate]struct{}
	closed      bool
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		subscribers: make(map[chan models.JobUpdate]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new mailbox. The returned cancel function is
// idempotent and must be called when the consumer disconnects.
func (s *Service) Subscribe() (<-chan models.JobUpdate, func()) {
	ch := make(chan models.JobUpdate, mailboxSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	count := len(s.subscribers)
	s.mu.Unlock()

	s.logger.Debug().Int("subscriber_count", count).Msg("Event subscriber added")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber with a non-blocking
// send. Subscribers whose mailbox is full are dropped, not waited on.
func (s *Service) Publish(update models.JobUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			delete(s.subscribers, ch)
			close(ch)
			s.logger.Warn().
				Str("job_id", update.JobID).
				Msg("Dropping slow event subscriber with full mailbox")
		}
	}
}

// Close drops all subscribers and rejects future publishes.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
