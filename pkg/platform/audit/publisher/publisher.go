package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "ibanmanager/pkg/domain-errors"
	audit "ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/metrics"
	"ibanmanager/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// In synchronous mode Emit runs on the caller's context, so a store that joins
// the transaction carried by ctx (the outbox store) commits or rolls back with
// the business change.
type Publisher struct {
	store   audit.Store
	events  chan audit.Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	async   bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine, outside any
// caller transaction. Only use it with non-transactional stores.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithPublisherMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if p.metrics != nil {
			p.metrics.DecQueueDepth()
		}
		if err := p.store.Append(context.Background(), event); err != nil {
			p.recordFailure()
			if p.logger != nil {
				p.logger.Error("failed to persist audit event",
					"error", err,
					"action", event.Action,
					"subject", event.Subject,
				)
			}
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit stamps the event with the request clock, request id and client
// metadata when they are missing, then hands it to the store.
func (p *Publisher) Emit(ctx context.Context, base audit.Event) error {
	start := time.Now()
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	base.Timestamp = base.Timestamp.UTC()
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	base.Attributes = withClientAttributes(ctx, base.Attributes)

	if p.async {
		select {
		case p.events <- base:
			if p.metrics != nil {
				p.metrics.IncQueueDepth()
				p.metrics.ObserveEmit(base.Action, start)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
			if p.metrics != nil {
				p.metrics.IncEventsDropped()
			}
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", base.Action,
					"subject", base.Subject,
				)
			}
			return dErrors.New(dErrors.CodeInternal, "audit buffer full")
		}
	}
	if err := p.store.Append(ctx, base); err != nil {
		p.recordFailure()
		return err
	}
	if p.metrics != nil {
		p.metrics.ObserveEmit(base.Action, start)
	}
	return nil
}

func (p *Publisher) recordFailure() {
	if p.metrics != nil {
		p.metrics.IncPersistFailures()
	}
}

// withClientAttributes copies attrs and adds client_ip and client from ctx
// unless already set.
func withClientAttributes(ctx context.Context, attrs map[string]string) map[string]string {
	ip, client := requestcontext.ClientIP(ctx), requestcontext.Client(ctx)
	if ip == "" && client == "" {
		return attrs
	}
	out := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		out[k] = v
	}
	if _, ok := out["client_ip"]; !ok && ip != "" {
		out["client_ip"] = ip
	}
	if _, ok := out["client"]; !ok && client != "" {
		out["client"] = client
	}
	return out
}
