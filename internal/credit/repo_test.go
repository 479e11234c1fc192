package credit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:credit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CreditAccount{}))
	return db
}

func TestEnsureAccountIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	first, err := r.EnsureAccount(ctx, customerID)
	require.NoError(t, err)
	require.True(t, first.Balance.IsZero())

	require.NoError(t, db.Model(&models.CreditAccount{}).
		Where("customer_id = ?", customerID).
		Update("balance", decimal.RequireFromString("75.00")).Error)

	again, err := r.EnsureAccount(ctx, customerID)
	require.NoError(t, err)
	require.True(t, again.Balance.Equal(decimal.RequireFromString("75.00")),
		"second ensure must not reset the balance, got %s", again.Balance)
}

func TestGetAccountNotFound(t *testing.T) {
	t.Parallel()

	r := NewRepository(newTestDB(t))
	_, err := r.GetAccount(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateBalanceCASRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	account, err := r.EnsureAccount(ctx, customerID)
	require.NoError(t, err)

	// First writer wins and bumps the version.
	ok, err := r.UpdateBalanceCAS(ctx, customerID, account.Version, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	require.True(t, ok)

	// Second writer still holds the version it read before the first write.
	ok, err = r.UpdateBalanceCAS(ctx, customerID, account.Version, decimal.RequireFromString("40.00"))
	require.NoError(t, err)
	require.False(t, ok, "stale version must not overwrite the balance")

	current, err := r.GetAccount(ctx, customerID)
	require.NoError(t, err)
	require.True(t, current.Balance.Equal(decimal.RequireFromString("100.00")))
	require.Equal(t, account.Version+1, current.Version)
}
