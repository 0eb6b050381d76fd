package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	"ibanmanager/pkg/platform/circuit"
	txcontext "ibanmanager/pkg/platform/tx"
)

const (
	ibanIDKeyPrefix    = "iban:id:"
	ibanValueKeyPrefix = "iban:value:"

	defaultCacheTTL = 10 * time.Minute
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ibanmanager_iban_cache_hits_total",
		Help: "IBAN lookups served from Redis",
	}, []string{"lookup"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ibanmanager_iban_cache_misses_total",
		Help: "IBAN lookups that fell through to the backing store",
	}, []string{"lookup"})
	cacheCircuitOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ibanmanager_iban_cache_circuit_open",
		Help: "1 while Redis is being skipped after repeated failures",
	})
)

// Repository is the persistence contract the cache decorates.
type Repository interface {
	Save(ctx context.Context, iban *models.IBAN) error
	Update(ctx context.Context, iban *models.IBAN) error
	FindByID(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error)
	FindByIBAN(ctx context.Context, iban string) (*models.IBAN, error)
	FindByDaesAccountID(ctx context.Context, accountID id.AccountID) ([]*models.IBAN, error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.IBAN, error)
	ExistsByIBAN(ctx context.Context, iban string) (bool, error)
	FindAll(ctx context.Context, limit, offset int) ([]*models.IBAN, error)
}

// CachedStore is a read-through Redis cache in front of a Repository.
// Point lookups are cached; list queries always hit the backing store.
// Redis failures degrade to the backing store and never fail a call; after
// repeated failures the breaker opens and reads skip Redis until a probe
// succeeds.
type CachedStore struct {
	Repository
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type CacheOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedStore) {
		if b != nil {
			c.breaker = b
		}
	}
}

func NewCached(backend Repository, client redis.Cmdable, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		Repository: backend,
		client:     client,
		ttl:        defaultCacheTTL,
		breaker:    circuit.New("iban_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindByID serves from Redis except inside a transaction, where the caller
// needs the locked row from the backing store.
func (c *CachedStore) FindByID(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return c.Repository.FindByID(ctx, ibanID)
	}
	if cached, ok := c.get(ctx, ibanIDKeyPrefix+ibanID.String()); ok {
		cacheHits.WithLabelValues("id").Inc()
		return cached, nil
	}
	cacheMisses.WithLabelValues("id").Inc()

	iban, err := c.Repository.FindByID(ctx, ibanID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, iban)
	return iban, nil
}

func (c *CachedStore) FindByIBAN(ctx context.Context, value string) (*models.IBAN, error) {
	if c.breaker.Allow() {
		rawID, err := c.client.Get(ctx, ibanValueKeyPrefix+value).Result()
		c.record(ctx, err)
		if err == nil {
			if cached, ok := c.get(ctx, ibanIDKeyPrefix+rawID); ok {
				cacheHits.WithLabelValues("iban").Inc()
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "iban cache read failed", err)
		}
	}
	cacheMisses.WithLabelValues("iban").Inc()

	iban, err := c.Repository.FindByIBAN(ctx, value)
	if err != nil {
		return nil, err
	}
	c.put(ctx, iban)
	return iban, nil
}

func (c *CachedStore) Save(ctx context.Context, iban *models.IBAN) error {
	if err := c.Repository.Save(ctx, iban); err != nil {
		return err
	}
	c.evictOnCommit(ctx, iban)
	return nil
}

// Update evicts rather than refreshes so a rolled-back transaction cannot leave
// its uncommitted state in the cache.
func (c *CachedStore) Update(ctx context.Context, iban *models.IBAN) error {
	if err := c.Repository.Update(ctx, iban); err != nil {
		return err
	}
	c.evictOnCommit(ctx, iban)
	return nil
}

// evictOnCommit evicts now and, inside a transaction, again after commit: a
// reader that missed in between may have cached the pre-commit row.
func (c *CachedStore) evictOnCommit(ctx context.Context, iban *models.IBAN) {
	c.evict(ctx, iban.ID)
	ibanID := iban.ID
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		c.evict(ctx, ibanID)
	})
}

// CircuitState reports whether Redis is currently being skipped.
func (c *CachedStore) CircuitState() circuit.State {
	return c.breaker.State()
}

func (c *CachedStore) get(ctx context.Context, key string) (*models.IBAN, bool) {
	if !c.breaker.Allow() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	c.record(ctx, err)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "iban cache read failed", err)
		}
		return nil, false
	}
	var iban models.IBAN
	if err := json.Unmarshal(data, &iban); err != nil {
		c.warn(ctx, "iban cache entry corrupt", err)
		return nil, false
	}
	return &iban, true
}

func (c *CachedStore) put(ctx context.Context, iban *models.IBAN) {
	if !c.breaker.Allow() {
		return
	}
	data, err := json.Marshal(iban)
	if err != nil {
		c.warn(ctx, "iban cache encode failed", err)
		return
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ibanIDKeyPrefix+iban.ID.String(), data, c.ttl)
		pipe.Set(ctx, ibanValueKeyPrefix+iban.IBAN, iban.ID.String(), c.ttl)
		return nil
	})
	c.record(ctx, err)
	if err != nil {
		c.warn(ctx, "iban cache write failed", err)
	}
}

// evict ignores the breaker: a skipped eviction could serve a stale status
// once Redis comes back.
func (c *CachedStore) evict(ctx context.Context, ibanID id.IBANID) {
	err := c.client.Del(ctx, ibanIDKeyPrefix+ibanID.String()).Err()
	c.record(ctx, err)
	if err != nil {
		c.warn(ctx, "iban cache eviction failed", fmt.Errorf("evict %s: %w", ibanID, err))
	}
}

// record feeds a Redis outcome to the breaker. redis.Nil is a healthy miss.
func (c *CachedStore) record(ctx context.Context, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		if c.breaker.RecordSuccess().Closed {
			cacheCircuitOpen.Set(0)
			if c.logger != nil {
				c.logger.InfoContext(ctx, "iban cache circuit closed", "circuit", c.breaker.Name())
			}
		}
		return
	}
	if c.breaker.RecordFailure().Opened {
		cacheCircuitOpen.Set(1)
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "iban cache circuit opened", "circuit", c.breaker.Name(), "error", err)
		}
	}
}

func (c *CachedStore) warn(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}
