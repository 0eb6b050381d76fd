package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"ibanmanager/internal/platform/kafka/consumer"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/metrics"
)

type fakeEventStore struct {
	events map[uuid.UUID]audit.Event
	err    error
}

func (f *fakeEventStore) AppendWithID(_ context.Context, eventID uuid.UUID, event audit.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events[eventID] = event
	return nil
}

// HandlerSuite covers the commit-or-redeliver decision for each message shape.
type HandlerSuite struct {
	suite.Suite
	store   *fakeEventStore
	metrics *metrics.Metrics
	handler *Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = &fakeEventStore{events: map[uuid.UUID]audit.Event{}}
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.handler = NewHandler(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithMetrics(s.metrics))
}

func (s *HandlerSuite) message(key string, event audit.Event) *consumer.Message {
	value, err := json.Marshal(event)
	s.Require().NoError(err)
	return &consumer.Message{Key: []byte(key), Value: value, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func (s *HandlerSuite) TestStoresEventUnderMessageKey() {
	eventID := uuid.New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := s.message(eventID.String(), audit.Event{
		Timestamp:  at,
		Action:     string(audit.EventIBANStatusChanged),
		Subject:    "iban-1",
		ActorID:    "ops-user",
		FromStatus: "ACTIVE",
		ToStatus:   "BLOCKED",
		Reason:     "fraud review",
	})

	s.Require().NoError(s.handler.Handle(context.Background(), msg))

	stored, ok := s.store.events[eventID]
	s.Require().True(ok)
	s.Equal("BLOCKED", stored.ToStatus)
	s.Equal("fraud review", stored.Reason)
	s.Equal(at, stored.Timestamp)
	s.InDelta(1, promtest.ToFloat64(s.metrics.EventsProjected.WithLabelValues(string(audit.EventIBANStatusChanged))), 0)
}

func (s *HandlerSuite) TestMissingTimestampFallsBackToRecordTime() {
	eventID := uuid.New()
	msg := s.message(eventID.String(), audit.Event{Action: "iban_allocated", Subject: "iban-1"})

	s.Require().NoError(s.handler.Handle(context.Background(), msg))
	s.Equal(msg.Timestamp, s.store.events[eventID].Timestamp)
}

func (s *HandlerSuite) TestMalformedMessagesAreSkipped() {
	tests := []struct {
		name string
		msg  *consumer.Message
	}{
		{"invalid key", &consumer.Message{Key: []byte("not-a-uuid"), Value: []byte(`{}`)}},
		{"invalid json", &consumer.Message{Key: []byte(uuid.NewString()), Value: []byte(`{`)}},
		{"missing subject", s.message(uuid.NewString(), audit.Event{Action: "iban_allocated"})},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.NoError(s.handler.Handle(context.Background(), tt.msg))
		})
	}
	s.Empty(s.store.events)
	s.InDelta(3, promtest.ToFloat64(s.metrics.MessagesSkipped), 0)
}

func (s *HandlerSuite) TestStoreFailureIsReturned() {
	s.store.err = errors.New("connection refused")
	msg := s.message(uuid.NewString(), audit.Event{Action: "iban_allocated", Subject: "iban-1"})

	err := s.handler.Handle(context.Background(), msg)
	s.Require().Error(err)
	s.Contains(err.Error(), "connection refused")
	s.InDelta(1, promtest.ToFloat64(s.metrics.ProjectionFailures), 0)
}
