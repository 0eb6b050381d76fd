package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject"`
	ActorID    string    `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	// Free-form attributes such as the IBAN string or country.
	Attributes map[string]string `json:"attributes,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventIBANAllocated     AuditEvent = "iban_allocated"
	EventIBANStatusChanged AuditEvent = "iban_status_changed"
)

// Store is the append-only sink behind a publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
}
