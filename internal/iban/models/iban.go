package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	id "ibanmanager/pkg/domain"
	dErrors "ibanmanager/pkg/domain-errors"
)

// IBAN is one issued account identifier and its lifecycle state.
// Status and UpdatedAt change only through ChangeStatus and its wrappers.
type IBAN struct {
	ID                    id.IBANID
	DaesAccountID         id.AccountID
	IBAN                  string
	CountryCode           CountryCode
	Currency              string
	BankCode              string
	BranchCode            string
	InternalAccountNumber string
	Status                Status
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateParams are the caller-supplied attributes of a new IBAN.
// The IBAN string is expected to come from the generation service.
type CreateParams struct {
	ID                    id.IBANID
	DaesAccountID         id.AccountID
	IBAN                  string
	CountryCode           CountryCode
	Currency              string
	BankCode              string
	BranchCode            string
	InternalAccountNumber string
	CreatedBy             string
}

// NewIBAN creates a PENDING IBAN with both timestamps set to now.
// Check digits are not verified here.
func NewIBAN(p CreateParams, now time.Time) (*IBAN, error) {
	switch {
	case p.ID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "IBAN ID is required")
	case p.DaesAccountID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "DAES account ID is required")
	case p.IBAN == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "IBAN is required")
	case p.CountryCode == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "country code is required")
	case p.Currency == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "currency is required")
	case p.BankCode == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bank code is required")
	case p.InternalAccountNumber == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "internal account number is required")
	case p.CreatedBy == "":
		return nil, dErrors.New(dErrors.CodeInvalidInput, "creator is required")
	}
	return &IBAN{
		ID:                    p.ID,
		DaesAccountID:         p.DaesAccountID,
		IBAN:                  p.IBAN,
		CountryCode:           p.CountryCode,
		Currency:              p.Currency,
		BankCode:              p.BankCode,
		BranchCode:            p.BranchCode,
		InternalAccountNumber: p.InternalAccountNumber,
		Status:                StatusPending,
		CreatedBy:             p.CreatedBy,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Props is the full persisted attribute set.
type Props struct {
	ID                    id.IBANID
	DaesAccountID         id.AccountID
	IBAN                  string
	CountryCode           CountryCode
	Currency              string
	BankCode              string
	BranchCode            string
	InternalAccountNumber string
	Status                Status
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Reconstitute rebuilds an IBAN loaded from storage. The record is trusted as-is.
func Reconstitute(p Props) *IBAN {
	i := IBAN(p)
	return &i
}

// ChangeStatus moves the IBAN to target and returns the audit record of the move.
func (i *IBAN) ChangeStatus(target Status, performedBy, reason string, now time.Time) (*StatusChanged, error) {
	if !i.Status.CanTransitionTo(target) {
		return nil, &InvalidStatusTransitionError{From: i.Status, To: target}
	}
	if now.Before(i.UpdatedAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "status change cannot predate last update")
	}
	from := i.Status
	i.Status = target
	i.UpdatedAt = now
	return &StatusChanged{
		IBANID:     i.ID,
		IBAN:       i.IBAN,
		From:       from,
		To:         target,
		ActorID:    performedBy,
		Reason:     reason,
		OccurredAt: now,
	}, nil
}

func (i *IBAN) Activate(performedBy string, now time.Time) (*StatusChanged, error) {
	return i.ChangeStatus(StatusActive, performedBy, "Activation", now)
}

func (i *IBAN) Block(performedBy, reason string, now time.Time) (*StatusChanged, error) {
	return i.ChangeStatus(StatusBlocked, performedBy, reason, now)
}

func (i *IBAN) Close(performedBy, reason string, now time.Time) (*StatusChanged, error) {
	return i.ChangeStatus(StatusClosed, performedBy, reason, now)
}

// IsUsable reports whether payments may be routed to this IBAN.
func (i *IBAN) IsUsable() bool {
	return i.Status.IsActive()
}

// Formatted returns the IBAN grouped in blocks of four for display.
func (i *IBAN) Formatted() string {
	return GroupByFour(i.IBAN)
}

// GroupByFour inserts a space after every fourth character.
func GroupByFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for idx, r := range s {
		if idx > 0 && idx%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type ibanJSON struct {
	ID                    string `json:"id"`
	DaesAccountID         string `json:"daesAccountId"`
	IBAN                  string `json:"iban"`
	IBANFormatted         string `json:"ibanFormatted"`
	CountryCode           string `json:"countryCode"`
	Currency              string `json:"currency"`
	BankCode              string `json:"bankCode"`
	BranchCode            string `json:"branchCode,omitempty"`
	InternalAccountNumber string `json:"internalAccountNumber"`
	Status                string `json:"status"`
	CreatedBy             string `json:"createdBy"`
	CreatedAt             string `json:"createdAt"`
	UpdatedAt             string `json:"updatedAt"`
}

// MarshalJSON renders the flat transport shape with ISO-8601 UTC timestamps.
func (i IBAN) MarshalJSON() ([]byte, error) {
	return json.Marshal(ibanJSON{
		ID:                    i.ID.String(),
		DaesAccountID:         i.DaesAccountID.String(),
		IBAN:                  i.IBAN,
		IBANFormatted:         i.Formatted(),
		CountryCode:           i.CountryCode.Code(),
		Currency:              i.Currency,
		BankCode:              i.BankCode,
		BranchCode:            i.BranchCode,
		InternalAccountNumber: i.InternalAccountNumber,
		Status:                i.Status.String(),
		CreatedBy:             i.CreatedBy,
		CreatedAt:             i.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:             i.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON reconstitutes an IBAN from its transport shape.
func (i *IBAN) UnmarshalJSON(data []byte) error {
	var raw ibanJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsedID, err := uuid.Parse(raw.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid IBAN id")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, raw.CreatedAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid createdAt")
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, raw.UpdatedAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid updatedAt")
	}
	*i = *Reconstitute(Props{
		ID:                    id.IBANID(parsedID),
		DaesAccountID:         id.AccountID(raw.DaesAccountID),
		IBAN:                  raw.IBAN,
		CountryCode:           CountryCode(raw.CountryCode),
		Currency:              raw.Currency,
		BankCode:              raw.BankCode,
		BranchCode:            raw.BranchCode,
		InternalAccountNumber: raw.InternalAccountNumber,
		Status:                Status(raw.Status),
		CreatedBy:             raw.CreatedBy,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	})
	return nil
}
