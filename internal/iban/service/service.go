package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ibanmanager/internal/iban/generation"
	ibanmetrics "ibanmanager/internal/iban/metrics"
	"ibanmanager/internal/iban/models"
	"ibanmanager/internal/iban/validation"
	id "ibanmanager/pkg/domain"
	"ibanmanager/pkg/platform/audit"
)

type IBANStore interface {
	Save(ctx context.Context, iban *models.IBAN) error
	Update(ctx context.Context, iban *models.IBAN) error
	FindByID(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error)
	FindByIBAN(ctx context.Context, iban string) (*models.IBAN, error)
	FindByDaesAccountID(ctx context.Context, accountID id.AccountID) ([]*models.IBAN, error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.IBAN, error)
	ExistsByIBAN(ctx context.Context, iban string) (bool, error)
	FindAll(ctx context.Context, limit, offset int) ([]*models.IBAN, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// AuditTrail reads back recorded audit events. Optional; without one
// History returns an empty trail.
type AuditTrail interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
}

// AccountDirectory answers whether a DAES account exists. Optional; without
// one every account id is accepted.
type AccountDirectory interface {
	Exists(ctx context.Context, accountID id.AccountID) (bool, error)
}

type Generator interface {
	Generate(c generation.Components) (string, error)
	ExpectedLength(code string) int
}

type Validator interface {
	Validate(iban, expectedCountry string) validation.Result
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
	systemActor      = "system"
)

// defaultAllowedCurrencies lists the currencies an IBAN may be opened in per country.
var defaultAllowedCurrencies = map[models.CountryCode][]string{
	models.CountryAE: {"AED", "USD", "EUR", "GBP"},
	models.CountryDE: {"EUR"},
	models.CountryES: {"EUR"},
}

// Service orchestrates IBAN allocation, lookup and lifecycle changes.
type Service struct {
	store      IBANStore
	tx         StoreTx
	generator  Generator
	validator  Validator
	accounts   AccountDirectory
	trail      AuditTrail
	logger     *slog.Logger
	publisher  AuditPublisher
	auditor    *auditEmitter
	metrics    *ibanmetrics.Metrics
	tracer     trace.Tracer
	currencies map[models.CountryCode]map[string]struct{}
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *ibanmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the transactional boundary. Defaults to an in-process lock.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithAccountDirectory(accounts AccountDirectory) Option {
	return func(s *Service) {
		s.accounts = accounts
	}
}

func WithAuditTrail(trail AuditTrail) Option {
	return func(s *Service) {
		s.trail = trail
	}
}

func WithGenerator(g Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

func WithValidator(v Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAllowedCurrencies replaces the per-country currency allow-list.
// Countries missing from the map accept no currency.
func WithAllowedCurrencies(allowed map[models.CountryCode][]string) Option {
	return func(s *Service) {
		s.currencies = currencySet(allowed)
	}
}

func New(store IBANStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		tx:         newInMemoryStoreTx(),
		generator:  generation.New(),
		validator:  validation.New(),
		tracer:     otel.Tracer("ibanmanager/iban"),
		currencies: currencySet(defaultAllowedCurrencies),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.auditor = newAuditEmitter(s.logger, s.publisher)
	return s
}

func currencySet(allowed map[models.CountryCode][]string) map[models.CountryCode]map[string]struct{} {
	out := make(map[models.CountryCode]map[string]struct{}, len(allowed))
	for country, list := range allowed {
		set := make(map[string]struct{}, len(list))
		for _, c := range list {
			set[c] = struct{}{}
		}
		out[country] = set
	}
	return out
}

func (s *Service) currencyAllowed(country models.CountryCode, currency string) bool {
	_, ok := s.currencies[country][currency]
	return ok
}
