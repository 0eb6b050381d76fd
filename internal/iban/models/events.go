package models

import (
	"time"

	id "ibanmanager/pkg/domain"
)

// Domain events capture what happened to an IBAN. They are pure data; the
// service layer publishes them to the audit pipeline.

// IBANAllocated is emitted when a new IBAN is issued in PENDING state.
type IBANAllocated struct {
	IBANID    id.IBANID
	AccountID id.AccountID
	IBAN      string
	Country   CountryCode
	ActorID   string
}

// StatusChanged is the audit record of a lifecycle transition.
type StatusChanged struct {
	IBANID     id.IBANID
	IBAN       string
	From       Status
	To         Status
	ActorID    string
	Reason     string
	OccurredAt time.Time
}
