package interfaces

import "github.com/ternarybob/ghostfetch/internal/models"

// EventBus is the job-update pub/sub channel between the broker and the
// streaming endpoints. Delivery is non-blocking: a subscriber whose
// mailbox overflows is dropped rather than slowing the broker.
type EventBus interface {
	// Subscribe returns a mailbox receiving every update published after
	// the call, and a cancel function that must be invoked on disconnect.
	Subscribe() (<-chan models.JobUpdate, func())

	// Publish delivers an update to all current subscribers.
	Publish(update models.JobUpdate)

	// Close drops all subscribers.
	Close()
}
