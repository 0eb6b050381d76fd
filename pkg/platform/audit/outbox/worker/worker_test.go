package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibanmanager/internal/platform/kafka/producer"
	"ibanmanager/pkg/platform/audit/outbox"
	"ibanmanager/pkg/platform/audit/outbox/metrics"
	outboxmemory "ibanmanager/pkg/platform/audit/outbox/store/memory"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []*producer.Message
	failures int
}

func (f *fakePublisher) Produce(_ context.Context, msg *producer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) published() []*producer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*producer.Message(nil), f.messages...)
}

func appendEntry(t *testing.T, store outbox.Store, aggregateID string, at time.Time) *outbox.Entry {
	t.Helper()
	entry := outbox.NewEntry("iban", aggregateID, "iban_allocated", []byte(`{"k":"v"}`), at)
	require.NoError(t, store.Append(context.Background(), entry))
	return entry
}

func TestPollPublishesInCreationOrder(t *testing.T) {
	store := outboxmemory.New()
	pub := &fakePublisher{}
	base := time.Now().Add(-time.Hour)
	second := appendEntry(t, store, "b", base.Add(time.Second))
	first := appendEntry(t, store, "a", base)

	w := New(store, pub, WithTopic("audit"), WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())))
	w.poll()

	msgs := pub.published()
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID.String(), string(msgs[0].Key))
	assert.Equal(t, second.ID.String(), string(msgs[1].Key))
	assert.Equal(t, "audit", msgs[0].Topic)
	assert.Equal(t, map[string]string{
		"aggregate_type": "iban",
		"aggregate_id":   "a",
		"event_type":     "iban_allocated",
	}, msgs[0].Headers)

	pending, err := store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestFailedEntryStaysPendingUntilNextPoll(t *testing.T) {
	store := outboxmemory.New()
	pub := &fakePublisher{failures: 1}
	appendEntry(t, store, "a", time.Now())

	w := New(store, pub)

	w.poll()
	pending, err := store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	assert.Empty(t, pub.published())

	w.poll()
	pending, err = store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Len(t, pub.published(), 1)
}

func TestBatchSizeLimitsEachPoll(t *testing.T) {
	store := outboxmemory.New()
	pub := &fakePublisher{}
	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		appendEntry(t, store, uuid.NewString(), base.Add(time.Duration(i)*time.Millisecond))
	}

	w := New(store, pub, WithBatchSize(2))
	w.poll()

	assert.Len(t, pub.published(), 2)
	pending, err := store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)
}

func TestRetentionPrunesProcessedEntries(t *testing.T) {
	store := outboxmemory.New()
	entry := appendEntry(t, store, "a", time.Now().Add(-2*time.Hour))
	require.NoError(t, store.MarkProcessed(context.Background(), entry.ID, time.Now().Add(-2*time.Hour)))

	w := New(store, &fakePublisher{}, WithRetention(time.Hour))
	w.poll()

	deleted, err := store.DeleteProcessedBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted, "entry should already have been pruned")
}

func TestStopDrainsPendingEntries(t *testing.T) {
	store := outboxmemory.New()
	pub := &fakePublisher{}

	w := New(store, pub, WithPollInterval(time.Hour))
	w.Start()
	appendEntry(t, store, "late", time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	assert.Len(t, pub.published(), 1)
}

func TestStopGivesUpWhenBrokerIsDown(t *testing.T) {
	store := outboxmemory.New()
	pub := &fakePublisher{failures: 1000}

	w := New(store, pub, WithPollInterval(time.Hour))
	w.Start()
	appendEntry(t, store, "stuck", time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	pending, err := store.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
