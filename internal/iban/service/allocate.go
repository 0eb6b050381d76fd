package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ibanmanager/internal/iban/generation"
	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/requestcontext"
)

// AllocateCommand carries the inputs for issuing a new IBAN.
type AllocateCommand struct {
	DaesAccountID         string
	CountryCode           string
	Currency              string
	BankCode              string
	BranchCode            string
	InternalAccountNumber string
}

// Allocate generates, verifies and stores a new PENDING IBAN for an account.
func (s *Service) Allocate(ctx context.Context, cmd AllocateCommand) (iban *models.IBAN, err error) {
	ctx, span := s.startSpan(ctx, "iban.Allocate",
		attribute.String("iban.country", strings.ToUpper(strings.TrimSpace(cmd.CountryCode))),
	)
	defer func() { endSpan(span, err) }()
	start := time.Now()

	iban, err = s.allocate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("iban.id", iban.ID.String()))
	if s.metrics != nil {
		s.metrics.IncrementAllocated(iban.CountryCode.Code())
		s.metrics.ObserveAllocation(start)
	}
	return iban, nil
}

func (s *Service) allocate(ctx context.Context, cmd AllocateCommand) (*models.IBAN, error) {
	accountID, err := id.ParseAccountID(cmd.DaesAccountID)
	if err != nil {
		return nil, err
	}
	country, err := models.ParseCountryCode(cmd.CountryCode)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if !s.currencyAllowed(country, currency) {
		return nil, models.NewCurrencyNotAllowedError(currency, country)
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	value, err := s.generate(country, cmd)
	if err != nil {
		return nil, err
	}

	actor := actorFrom(ctx)
	now := requestcontext.Now(ctx)

	var created *models.IBAN
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.store.ExistsByIBAN(ctx, value)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check IBAN uniqueness")
		}
		if exists {
			return models.NewDuplicateIBANError(value)
		}

		iban, err := models.NewIBAN(models.CreateParams{
			ID:                    id.NewIBANID(),
			DaesAccountID:         accountID,
			IBAN:                  value,
			CountryCode:           country,
			Currency:              currency,
			BankCode:              strings.TrimSpace(cmd.BankCode),
			BranchCode:            strings.TrimSpace(cmd.BranchCode),
			InternalAccountNumber: strings.TrimSpace(cmd.InternalAccountNumber),
			CreatedBy:             actor,
		}, now)
		if err != nil {
			return err
		}

		if err := s.store.Save(ctx, iban); err != nil {
			return wrapSaveErr(err, value)
		}

		if err := s.auditor.emit(ctx, audit.Event{
			Timestamp: now,
			Action:    string(audit.EventIBANAllocated),
			Subject:   iban.ID.String(),
			ActorID:   actor,
			ToStatus:  iban.Status.String(),
			Attributes: map[string]string{
				"iban":            iban.IBAN,
				"country_code":    country.Code(),
				"currency":        currency,
				"daes_account_id": accountID.String(),
			},
			RequestID: requestcontext.RequestID(ctx),
		}); err != nil {
			return err
		}

		created = iban
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) requireAccount(ctx context.Context, accountID id.AccountID) error {
	if s.accounts == nil {
		return nil
	}
	exists, err := s.accounts.Exists(ctx, accountID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}
	if !exists {
		return models.NewAccountNotFoundError(accountID.String())
	}
	return nil
}

// generate builds the IBAN and re-checks it. Generation pads short fields but
// never truncates long ones, so an oversized field surfaces here as a length
// mismatch rather than as a silently altered account number.
func (s *Service) generate(country models.CountryCode, cmd AllocateCommand) (string, error) {
	value, err := s.generator.Generate(generation.Components{
		CountryCode:   country.Code(),
		BankCode:      strings.TrimSpace(cmd.BankCode),
		BranchCode:    strings.TrimSpace(cmd.BranchCode),
		AccountNumber: strings.TrimSpace(cmd.InternalAccountNumber),
	})
	if err != nil {
		return "", wrapGenerationErr(err)
	}

	if expected := s.generator.ExpectedLength(country.Code()); len(value) != expected {
		return "", models.NewIBANAllocationError(
			fmt.Sprintf("generated IBAN has length %d, expected %d for %s", len(value), expected, country), nil)
	}
	if res := s.validator.Validate(value, country.Code()); !res.Valid {
		return "", models.NewIBANAllocationError(
			fmt.Sprintf("generated IBAN failed validation: %s", strings.Join(res.Errors, "; ")), nil)
	}
	return value, nil
}
