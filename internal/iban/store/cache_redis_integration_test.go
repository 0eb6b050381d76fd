//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ibanmanager/internal/iban/models"
	"ibanmanager/internal/iban/store"
	id "ibanmanager/pkg/domain"
	txcontext "ibanmanager/pkg/platform/tx"
	"ibanmanager/pkg/testutil/containers"
)

// countingRepo counts backing-store point lookups so tests can tell cache
// hits from misses.
type countingRepo struct {
	store.Repository
	findByID   int
	findByIBAN int
}

func (r *countingRepo) FindByID(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	r.findByID++
	return r.Repository.FindByID(ctx, ibanID)
}

func (r *countingRepo) FindByIBAN(ctx context.Context, value string) (*models.IBAN, error) {
	r.findByIBAN++
	return r.Repository.FindByIBAN(ctx, value)
}

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *countingRepo
	cache   *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
	s.backend = &countingRepo{Repository: store.NewInMemory()}
	s.cache = store.NewCached(s.backend, s.redis.Client, store.WithCacheTTL(time.Minute))
}

func (s *CachedStoreSuite) saved() *models.IBAN {
	iban, err := models.NewIBAN(models.CreateParams{
		ID:                    id.NewIBANID(),
		DaesAccountID:         "acc-1",
		IBAN:                  "DE89370400440532013000",
		CountryCode:           models.CountryDE,
		Currency:              "EUR",
		BankCode:              "37040044",
		InternalAccountNumber: "0532013000",
		CreatedBy:             "tester",
	}, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Save(context.Background(), iban))
	return iban
}

func (s *CachedStoreSuite) TestFindByIDReadsThrough() {
	ctx := context.Background()
	iban := s.saved()

	first, err := s.cache.FindByID(ctx, iban.ID)
	s.Require().NoError(err)
	second, err := s.cache.FindByID(ctx, iban.ID)
	s.Require().NoError(err)

	s.Equal(1, s.backend.findByID)
	s.Equal(first.IBAN, second.IBAN)
	s.Equal(iban.ID, second.ID)
}

func (s *CachedStoreSuite) TestFindByIBANSharesEntry() {
	ctx := context.Background()
	iban := s.saved()

	_, err := s.cache.FindByID(ctx, iban.ID)
	s.Require().NoError(err)
	_, err = s.cache.FindByIBAN(ctx, iban.IBAN)
	s.Require().NoError(err)
	found, err := s.cache.FindByIBAN(ctx, iban.IBAN)
	s.Require().NoError(err)

	s.Equal(iban.ID, found.ID)
	s.Equal(1, s.backend.findByIBAN)
}

func (s *CachedStoreSuite) TestUpdateEvicts() {
	ctx := context.Background()
	iban := s.saved()

	_, err := s.cache.FindByID(ctx, iban.ID)
	s.Require().NoError(err)

	_, err = iban.Activate("tester", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Update(ctx, iban))

	fresh, err := s.cache.FindByID(ctx, iban.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, fresh.Status)
	s.Equal(2, s.backend.findByID)
}

func (s *CachedStoreSuite) TestUpdateEvictsAgainAfterCommit() {
	iban := s.saved()
	stale, err := s.backend.FindByID(context.Background(), iban.ID)
	s.Require().NoError(err)

	// A reader on another connection still sees the committed PENDING row.
	snapshot := store.NewInMemory()
	s.Require().NoError(snapshot.Save(context.Background(), stale))
	reader := store.NewCached(snapshot, s.redis.Client, store.WithCacheTTL(time.Minute))

	txCtx := txcontext.WithCommitHooks(context.Background())
	_, err = iban.Activate("tester", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Update(txCtx, iban))

	refilled, err := reader.FindByID(context.Background(), iban.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, refilled.Status)

	txcontext.RunCommitHooks(txCtx)

	fresh, err := s.cache.FindByID(context.Background(), iban.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, fresh.Status)
}
