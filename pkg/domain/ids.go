// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "ibanmanager/pkg/domain-errors"
)

// IBANID identifies an issued IBAN record.
type IBANID uuid.UUID

// AccountID references an external DAES account. It is opaque to this service.
type AccountID string

// NewIBANID generates a fresh random identifier.
func NewIBANID() IBANID { return IBANID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseIBANID(s string) (IBANID, error) {
	id, err := parseUUID(s, "IBAN ID")
	return IBANID(id), err
}

func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account ID cannot be empty")
	}
	return AccountID(s), nil
}

func (id IBANID) String() string    { return uuid.UUID(id).String() }
func (id AccountID) String() string { return string(id) }

func (id IBANID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool { return id == "" }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; services check IsNil so store lookups can
// still report a proper "not found".
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
