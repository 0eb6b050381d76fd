package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	"ibanmanager/pkg/platform/sentinel"
)

func newTestIBAN(t *testing.T, value string, account id.AccountID, createdAt time.Time) *models.IBAN {
	t.Helper()
	iban, err := models.NewIBAN(models.CreateParams{
		ID:                    id.NewIBANID(),
		DaesAccountID:         account,
		IBAN:                  value,
		CountryCode:           models.CountryDE,
		Currency:              "EUR",
		BankCode:              "37040044",
		InternalAccountNumber: "0532013000",
		CreatedBy:             "tester",
	}, createdAt)
	require.NoError(t, err)
	return iban
}

func TestInMemory_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	iban := newTestIBAN(t, "DE89370400440532013000", "acc-1", time.Now())

	require.NoError(t, s.Save(ctx, iban))

	byID, err := s.FindByID(ctx, iban.ID)
	require.NoError(t, err)
	assert.Equal(t, iban.IBAN, byID.IBAN)

	byValue, err := s.FindByIBAN(ctx, iban.IBAN)
	require.NoError(t, err)
	assert.Equal(t, iban.ID, byValue.ID)

	exists, err := s.ExistsByIBAN(ctx, iban.IBAN)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInMemory_DuplicateIBANReturnsAlreadyUsed(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Save(ctx, newTestIBAN(t, "DE89370400440532013000", "acc-1", time.Now())))

	err := s.Save(ctx, newTestIBAN(t, "DE89370400440532013000", "acc-2", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestInMemory_MissesReturnNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	_, err := s.FindByID(ctx, id.NewIBANID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = s.FindByIBAN(ctx, "DE00")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.Update(ctx, newTestIBAN(t, "DE89370400440532013000", "acc-1", time.Now()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	iban := newTestIBAN(t, "DE89370400440532013000", "acc-1", time.Now())
	require.NoError(t, s.Save(ctx, iban))

	iban.Status = models.StatusClosed
	loaded, err := s.FindByID(ctx, iban.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, loaded.Status)

	loaded.Status = models.StatusBlocked
	again, err := s.FindByID(ctx, iban.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestInMemory_UpdatePersistsLifecycleFields(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	now := time.Now()
	iban := newTestIBAN(t, "DE89370400440532013000", "acc-1", now)
	require.NoError(t, s.Save(ctx, iban))

	_, err := iban.Activate("tester", now.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, iban))

	loaded, err := s.FindByID(ctx, iban.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, loaded.Status)
	assert.Equal(t, now.Add(time.Second), loaded.UpdatedAt)

	active, err := s.FindByStatus(ctx, models.StatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestInMemory_ListQueries(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Now()
	for i := 0; i < 5; i++ {
		account := id.AccountID("acc-a")
		if i%2 == 1 {
			account = "acc-b"
		}
		require.NoError(t, s.Save(ctx, newTestIBAN(t, fmt.Sprintf("DE%020d", i), account, base.Add(time.Duration(i)*time.Second))))
	}

	byAccount, err := s.FindByDaesAccountID(ctx, "acc-a")
	require.NoError(t, err)
	assert.Len(t, byAccount, 3)

	none, err := s.FindByDaesAccountID(ctx, "acc-z")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	page, err := s.FindAll(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, fmt.Sprintf("DE%020d", 1), page[0].IBAN)
	assert.Equal(t, fmt.Sprintf("DE%020d", 2), page[1].IBAN)

	all, err := s.FindAll(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	past, err := s.FindAll(ctx, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, past)
}
