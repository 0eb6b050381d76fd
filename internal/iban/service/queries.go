package service

import (
	"context"

	"ibanmanager/internal/iban/models"
	"ibanmanager/internal/iban/validation"
	id "ibanmanager/pkg/domain"
	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/audit"
)

// Get returns the IBAN with ibanID.
func (s *Service) Get(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	if ibanID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "IBAN ID required")
	}
	iban, err := s.store.FindByID(ctx, ibanID)
	if err != nil {
		return nil, wrapIBANErr(err, ibanID.String(), "failed to load IBAN")
	}
	return iban, nil
}

// GetByIBAN looks an IBAN up by its string form. Input may contain spaces or
// lower case; it must pass validation before the store is queried.
func (s *Service) GetByIBAN(ctx context.Context, value string) (*models.IBAN, error) {
	res := s.validator.Validate(value, "")
	if !res.Valid {
		return nil, models.NewInvalidIBANError(res.Errors[0])
	}
	iban, err := s.store.FindByIBAN(ctx, res.IBAN)
	if err != nil {
		return nil, wrapIBANErr(err, res.IBAN, "failed to load IBAN")
	}
	return iban, nil
}

// ListByAccount returns every IBAN issued for a DAES account.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]*models.IBAN, error) {
	parsed, err := id.ParseAccountID(accountID)
	if err != nil {
		return nil, err
	}
	ibans, err := s.store.FindByDaesAccountID(ctx, parsed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list IBANs by account")
	}
	return ibans, nil
}

// ListByStatus returns every IBAN currently in status.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.IBAN, error) {
	ibans, err := s.store.FindByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list IBANs by status")
	}
	return ibans, nil
}

// List pages through all IBANs in creation order. A non-positive limit uses
// the default page size; limits above the maximum are clamped.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.IBAN, error) {
	limit, offset = normalizePage(limit, offset)
	ibans, err := s.store.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list IBANs")
	}
	return ibans, nil
}

// History returns the recorded audit events for an IBAN, oldest first.
// With Kafka in between, the trail lags the write path.
func (s *Service) History(ctx context.Context, ibanID id.IBANID) ([]audit.Event, error) {
	if _, err := s.Get(ctx, ibanID); err != nil {
		return nil, err
	}
	if s.trail == nil {
		return []audit.Event{}, nil
	}
	events, err := s.trail.ListBySubject(ctx, ibanID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}

// ValidateIBAN checks a user-supplied IBAN without touching storage.
func (s *Service) ValidateIBAN(iban, expectedCountry string) validation.Result {
	return s.validator.Validate(iban, expectedCountry)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
