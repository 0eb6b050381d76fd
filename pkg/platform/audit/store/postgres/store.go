// Package postgres persists the audit trail read model.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"

	"ibanmanager/pkg/platform/audit"
	txcontext "ibanmanager/pkg/platform/tx"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertEvent = `
	INSERT INTO audit_events (
		id, action, subject, actor_id, reason,
		from_status, to_status, attributes, request_id, occurred_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`

const selectEvents = `
	SELECT action, subject, actor_id, reason, from_status,
		   to_status, attributes, request_id, occurred_at
	FROM audit_events
`

// Append inserts an audit event under a fresh id.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts an audit event with a specific ID. Re-inserting an
// existing ID is a no-op. It joins the transaction carried by ctx, if any.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	attrs := event.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode audit attributes: %w", err)
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertEvent,
		eventID,
		event.Action,
		event.Subject,
		event.ActorID,
		nullString(event.Reason),
		nullString(event.FromStatus),
		nullString(event.ToStatus),
		encoded,
		nullString(event.RequestID),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the events for one subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+`
		WHERE subject = $1
		ORDER BY occurred_at ASC, recorded_at ASC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	rows, err := s.db.QueryContext(ctx, selectEvents+`
		ORDER BY occurred_at DESC
		LIMIT $1
	`, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event                               audit.Event
			reason, fromStatus, toStatus, reqID sql.NullString
			attrs                               []byte
		)
		err := rows.Scan(
			&event.Action,
			&event.Subject,
			&event.ActorID,
			&reason,
			&fromStatus,
			&toStatus,
			&attrs,
			&reqID,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Reason = reason.String
		event.FromStatus = fromStatus.String
		event.ToStatus = toStatus.String
		event.RequestID = reqID.String
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &event.Attributes); err != nil {
				return nil, fmt.Errorf("decode audit attributes: %w", err)
			}
			if len(event.Attributes) == 0 {
				event.Attributes = nil
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
