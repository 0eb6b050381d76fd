package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/metrics"
	"ibanmanager/pkg/platform/audit/store/memory"
	"ibanmanager/pkg/requestcontext"
)

type failingStore struct {
	err error
}

func (s *failingStore) Append(_ context.Context, _ audit.Event) error {
	return s.err
}

func TestPublisher_EmitStoresEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "iban-1",
		Action:  string(audit.EventIBANAllocated),
	})
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), "iban-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventIBANAllocated), events[0].Action)
}

func TestPublisher_StampsFromRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	require.NoError(t, pub.Emit(ctx, audit.Event{Subject: "iban-1", Action: string(audit.EventIBANStatusChanged)}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, fixed.Equal(events[0].Timestamp))
	assert.Equal(t, time.UTC, events[0].Timestamp.Location())
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject:   "iban-1",
		Action:    string(audit.EventIBANAllocated),
		Timestamp: customTime,
		RequestID: "explicit",
	}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
	assert.Equal(t, "explicit", events[0].RequestID)
}

func TestPublisher_EmitReturnsError(t *testing.T) {
	storeErr := errors.New("append failed")
	pub := NewPublisher(&failingStore{err: storeErr})

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventIBANAllocated)})
	require.ErrorIs(t, err, storeErr)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	for range 5 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "iban-1", Action: string(audit.EventIBANAllocated)}))
	}
	pub.Close()

	events, err := store.ListBySubject(context.Background(), "iban-1")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestPublisher_AsyncBufferFull(t *testing.T) {
	block := make(chan struct{})
	pub := NewPublisher(&blockingStore{release: block}, WithAsyncBuffer(1))
	defer func() {
		close(block)
		pub.Close()
	}()

	var lastErr error
	for range 5 {
		if err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventIBANAllocated)}); err != nil {
			lastErr = err
		}
	}
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "audit buffer full")
}

func TestPublisher_StampsClientMetadata(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.9", "Chrome 120 on Linux")

	attrs := map[string]string{"iban": "DE89370400440532013000"}
	require.NoError(t, pub.Emit(ctx, audit.Event{Subject: "iban-1", Action: "iban_allocated", Attributes: attrs}))

	events, err := store.ListBySubject(context.Background(), "iban-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "203.0.113.9", events[0].Attributes["client_ip"])
	assert.Equal(t, "Chrome 120 on Linux", events[0].Attributes["client"])
	assert.Equal(t, "DE89370400440532013000", events[0].Attributes["iban"])
	assert.Len(t, attrs, 1, "caller map is not mutated")
}

func TestPublisher_RecordsMetrics(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	ok := NewPublisher(memory.NewInMemoryStore(), WithPublisherMetrics(m))
	require.NoError(t, ok.Emit(context.Background(), audit.Event{Action: string(audit.EventIBANAllocated)}))

	failing := NewPublisher(&failingStore{err: errors.New("down")}, WithPublisherMetrics(m))
	require.Error(t, failing.Emit(context.Background(), audit.Event{Action: string(audit.EventIBANAllocated)}))

	assert.InDelta(t, 1, promtest.ToFloat64(m.EventsEmitted.WithLabelValues(string(audit.EventIBANAllocated))), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.PersistFailures), 0)
}

type blockingStore struct {
	release chan struct{}
}

func (s *blockingStore) Append(_ context.Context, _ audit.Event) error {
	<-s.release
	return nil
}
