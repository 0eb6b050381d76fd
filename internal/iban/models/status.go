package models

import (
	"strings"

	dErrors "ibanmanager/pkg/domain-errors"
)

// Status is the lifecycle state of an issued IBAN.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusClosed  Status = "CLOSED"
)

// transitions lists the allowed targets per state. CLOSED has none.
var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusClosed},
	StatusActive:  {StatusBlocked, StatusClosed},
	StatusBlocked: {StatusActive, StatusClosed},
}

// ParseStatus normalizes to upper case and rejects unknown states.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusActive, StatusBlocked, StatusClosed:
		return status, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid IBAN status: "+s)
}

// CanTransitionTo reports whether the graph allows moving to target.
// It never fails: unknown states simply have no outbound edges.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsFinal() {
		return false
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Status) IsPending() bool { return s == StatusPending }
func (s Status) IsActive() bool  { return s == StatusActive }
func (s Status) IsBlocked() bool { return s == StatusBlocked }
func (s Status) IsClosed() bool  { return s == StatusClosed }

// IsFinal reports a terminal state.
func (s Status) IsFinal() bool { return s == StatusClosed }

func (s Status) Equals(other Status) bool { return s == other }
func (s Status) String() string           { return string(s) }
