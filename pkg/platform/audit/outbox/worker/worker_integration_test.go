//go:build integration

package worker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"ibanmanager/internal/platform/kafka/producer"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/audit/outbox"
	outboxpostgres "ibanmanager/pkg/platform/audit/outbox/store/postgres"
	"ibanmanager/pkg/platform/audit/outbox/worker"
	auditoutbox "ibanmanager/pkg/platform/audit/store/outbox"
	"ibanmanager/pkg/testutil/containers"
)

type WorkerIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	kafka    *containers.KafkaContainer
	store    *outboxpostgres.Store
	producer *producer.Producer
}

func TestWorkerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(WorkerIntegrationSuite))
}

func (s *WorkerIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.kafka = mgr.GetKafka(s.T())

	s.store = outboxpostgres.New(s.postgres.DB)

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *WorkerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *WorkerIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *WorkerIntegrationSuite) startWorker(topic string, interval time.Duration, batch int) *worker.Worker {
	w := worker.New(s.store, s.producer,
		worker.WithTopic(topic),
		worker.WithPollInterval(interval),
		worker.WithBatchSize(batch),
	)
	w.Start()
	return w
}

func (s *WorkerIntegrationSuite) stop(w *worker.Worker) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Require().NoError(w.Stop(ctx))
}

func (s *WorkerIntegrationSuite) waitDrained(timeout time.Duration) {
	s.Eventually(func() bool {
		count, _ := s.store.CountPending(context.Background())
		return count == 0
	}, timeout, 50*time.Millisecond)
}

// An audit event appended through the outbox audit store ends up on the topic
// keyed by entry id with the aggregate headers set.
func (s *WorkerIntegrationSuite) TestAuditEventReachesKafka() {
	ctx := context.Background()
	topic := "test-iban-audit"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	subject := uuid.New().String()
	auditStore := auditoutbox.New(s.store)
	s.Require().NoError(auditStore.Append(ctx, audit.Event{
		Timestamp:  time.Now().UTC(),
		Action:     string(audit.EventIBANStatusChanged),
		Subject:    subject,
		ActorID:    "ops-user",
		FromStatus: "PENDING",
		ToStatus:   "ACTIVE",
	}))

	pending, err := s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), pending)

	w := s.startWorker(topic, 50*time.Millisecond, 10)
	s.waitDrained(5 * time.Second)
	s.stop(w)

	consumer, err := s.kafka.NewConsumer("test-iban-audit-consumer", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		for _, h := range r.Headers {
			if h.Key == "aggregate_id" && string(h.Value) == subject {
				return true
			}
		}
		return false
	})
	s.Require().NotNil(record, "message should be in Kafka")

	headers := make(map[string]string)
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("iban", headers["aggregate_type"])
	s.Equal(string(audit.EventIBANStatusChanged), headers["event_type"])

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal("PENDING", got.FromStatus)
	s.Equal("ACTIVE", got.ToStatus)
	s.Equal("ops-user", got.ActorID)
}

func (s *WorkerIntegrationSuite) TestBatchIsFullyProcessed() {
	ctx := context.Background()
	topic := "test-iban-batch"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(map[string]int{"index": i})
		entry := outbox.NewEntry("iban", uuid.New().String(), string(audit.EventIBANAllocated), payload, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Append(ctx, entry))
	}

	w := s.startWorker(topic, 50*time.Millisecond, 2)
	s.waitDrained(10 * time.Second)
	s.stop(w)
}

// Entries appended after the last poll are flushed by Stop.
func (s *WorkerIntegrationSuite) TestDrainOnShutdown() {
	ctx := context.Background()
	topic := "test-iban-drain"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	w := s.startWorker(topic, 10*time.Second, 10)

	payload, _ := json.Marshal(map[string]string{"test": "drain"})
	s.Require().NoError(s.store.Append(ctx, outbox.NewEntry("iban", uuid.New().String(), "drain_event", payload, time.Now())))

	time.Sleep(100 * time.Millisecond)
	pending, err := s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), pending)

	s.stop(w)

	pending, err = s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), pending)
}

// Two workers sharing the table rely on FOR UPDATE SKIP LOCKED.
func (s *WorkerIntegrationSuite) TestConcurrentWorkersWithSkipLocked() {
	ctx := context.Background()
	topic := "test-iban-concurrent"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	for i := 0; i < 20; i++ {
		payload, _ := json.Marshal(map[string]int{"index": i})
		s.Require().NoError(s.store.Append(ctx, outbox.NewEntry("iban", uuid.New().String(), "concurrent_event", payload, time.Now())))
	}

	w1 := s.startWorker(topic, 50*time.Millisecond, 5)
	w2 := s.startWorker(topic, 50*time.Millisecond, 5)

	s.waitDrained(15 * time.Second)

	s.stop(w1)
	s.stop(w2)
}
