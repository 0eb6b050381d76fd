package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a pending event in the outbox table.
// It follows the transactional outbox pattern for reliable event publishing.
type Entry struct {
	ID            uuid.UUID
	AggregateType string     // e.g. "iban"
	AggregateID   string     // e.g. the IBAN record id
	EventType     string     // e.g. "iban_status_changed"
	Payload       []byte     // JSON-encoded audit.Event
	CreatedAt     time.Time  // When the entry was created
	ProcessedAt   *time.Time // NULL = pending, non-NULL = published to Kafka
}

// IsPending returns true if this entry has not been processed yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
// A zero createdAt falls back to the current time.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, createdAt time.Time) *Entry {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     createdAt,
	}
}
