package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ibanmanager/internal/iban/models"
	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/sentinel"
	"ibanmanager/pkg/requestcontext"
)

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapIBANErr(err error, ref, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewIBANNotFoundError(ref)
	}
	if isDomainErr(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapSaveErr(err error, value string) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return models.NewDuplicateIBANError(value)
	}
	if isDomainErr(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save IBAN")
}

// wrapGenerationErr keeps classified generation failures (unsupported
// country, bad characters) and turns anything else into an allocation error.
func wrapGenerationErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		return err
	}
	return models.NewIBANAllocationError("IBAN generation failed", err)
}

func isDomainErr(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}

func actorFrom(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != "" {
		return actor
	}
	return systemActor
}

// Tracing helpers.

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// auditEmitter writes an audit log line and hands the event to the publisher.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

// emit runs inside the mutation's transaction. A publisher failure aborts the
// mutation so no state change goes unaudited.
func (e *auditEmitter) emit(ctx context.Context, event audit.Event) error {
	e.logToText(ctx, event)
	if e.publisher == nil {
		return nil
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event",
			"event", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (e *auditEmitter) logToText(ctx context.Context, event audit.Event) {
	args := []any{
		"event", event.Action,
		"log_type", "audit",
		"iban_id", event.Subject,
		"actor_id", event.ActorID,
	}
	if event.FromStatus != "" {
		args = append(args, "from_status", event.FromStatus)
	}
	if event.ToStatus != "" {
		args = append(args, "to_status", event.ToStatus)
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	e.logger.InfoContext(ctx, event.Action, args...)
}
