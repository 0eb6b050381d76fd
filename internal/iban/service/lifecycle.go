package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/requestcontext"
)

// transitionFunc applies one lifecycle move to a loaded IBAN.
type transitionFunc func(iban *models.IBAN, actor string, now time.Time) (*models.StatusChanged, error)

// ChangeStatus moves an IBAN to target. Allowed moves follow the status graph.
func (s *Service) ChangeStatus(ctx context.Context, ibanID id.IBANID, target models.Status, reason string) (*models.IBAN, error) {
	return s.transition(ctx, "iban.ChangeStatus", ibanID, func(iban *models.IBAN, actor string, now time.Time) (*models.StatusChanged, error) {
		return iban.ChangeStatus(target, actor, reason, now)
	})
}

// Activate moves a PENDING or BLOCKED IBAN to ACTIVE.
func (s *Service) Activate(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	return s.transition(ctx, "iban.Activate", ibanID, func(iban *models.IBAN, actor string, now time.Time) (*models.StatusChanged, error) {
		return iban.Activate(actor, now)
	})
}

// Block suspends an ACTIVE IBAN.
func (s *Service) Block(ctx context.Context, ibanID id.IBANID, reason string) (*models.IBAN, error) {
	return s.transition(ctx, "iban.Block", ibanID, func(iban *models.IBAN, actor string, now time.Time) (*models.StatusChanged, error) {
		return iban.Block(actor, reason, now)
	})
}

// Close retires an IBAN permanently.
func (s *Service) Close(ctx context.Context, ibanID id.IBANID, reason string) (*models.IBAN, error) {
	return s.transition(ctx, "iban.Close", ibanID, func(iban *models.IBAN, actor string, now time.Time) (*models.StatusChanged, error) {
		return iban.Close(actor, reason, now)
	})
}

func (s *Service) transition(ctx context.Context, spanName string, ibanID id.IBANID, apply transitionFunc) (updated *models.IBAN, err error) {
	ctx, span := s.startSpan(ctx, spanName, attribute.String("iban.id", ibanID.String()))
	defer func() { endSpan(span, err) }()

	if ibanID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "IBAN ID required")
	}

	actor := actorFrom(ctx)
	now := requestcontext.Now(ctx)

	var change *models.StatusChanged
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		iban, err := s.store.FindByID(ctx, ibanID)
		if err != nil {
			return wrapIBANErr(err, ibanID.String(), "failed to load IBAN")
		}

		change, err = apply(iban, actor, now)
		if err != nil {
			return err
		}

		if err := s.store.Update(ctx, iban); err != nil {
			return wrapIBANErr(err, ibanID.String(), "failed to update IBAN")
		}

		if err := s.auditor.emit(ctx, audit.Event{
			Timestamp:  change.OccurredAt,
			Action:     string(audit.EventIBANStatusChanged),
			Subject:    change.IBANID.String(),
			ActorID:    change.ActorID,
			Reason:     change.Reason,
			FromStatus: change.From.String(),
			ToStatus:   change.To.String(),
			Attributes: map[string]string{"iban": change.IBAN},
			RequestID:  requestcontext.RequestID(ctx),
		}); err != nil {
			return err
		}

		updated = iban
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("iban.status.from", change.From.String()),
		attribute.String("iban.status.to", change.To.String()),
	)
	if s.metrics != nil {
		s.metrics.IncrementTransition(change.From.String(), change.To.String())
	}
	return updated, nil
}
