// Package outbox adapts the transactional outbox into an audit.Store.
// Events appended inside a unit of work commit or roll back with it.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/outbox"
)

const aggregateType = "iban"

// Store writes audit events as outbox entries.
type Store struct {
	entries outbox.Store
}

func New(entries outbox.Store) *Store {
	return &Store{entries: entries}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	entry := outbox.NewEntry(aggregateType, event.Subject, event.Action, payload, event.Timestamp)
	if err := s.entries.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit event to outbox: %w", err)
	}
	return nil
}
