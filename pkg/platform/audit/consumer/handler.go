// Package consumer projects audit events from the audit topic into the
// audit trail store.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ibanmanager/internal/platform/kafka/consumer"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/metrics"
)

// EventStore is the idempotent sink the handler writes to.
type EventStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler implements consumer.Handler. The message key carries the outbox
// entry id, which becomes the audit row id.
type Handler struct {
	store   EventStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(store EventStore, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns nil for malformed messages so they do not block the
// partition. Store failures are returned and the message is redelivered.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.Error("dropping audit message with invalid key",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		h.skipped()
		return nil
	}

	var event audit.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("dropping undecodable audit message",
			"event_id", eventID,
			"error", err,
		)
		h.skipped()
		return nil
	}
	if event.Action == "" || event.Subject == "" {
		h.logger.Error("dropping incomplete audit message",
			"event_id", eventID,
			"action", event.Action,
			"subject", event.Subject,
		)
		h.skipped()
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = msg.Timestamp
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		if h.metrics != nil {
			h.metrics.IncProjectionFailures()
		}
		return fmt.Errorf("store audit event %s: %w", eventID, err)
	}

	if h.metrics != nil {
		h.metrics.IncProjected(event.Action)
	}
	h.logger.Debug("stored audit event",
		"event_id", eventID,
		"action", event.Action,
		"iban_id", event.Subject,
	)
	return nil
}

func (h *Handler) skipped() {
	if h.metrics != nil {
		h.metrics.IncSkipped()
	}
}
