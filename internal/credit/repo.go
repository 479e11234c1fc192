package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmoralesc/movilpos-backend/internal/repo"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

// Repository persists credit accounts and their audit entries.
type Repository interface {
	GetAccount(ctx context.Context, customerID uuid.UUID) (*models.CreditAccount, error)
	EnsureAccount(ctx context.Context, customerID uuid.UUID) (*models.CreditAccount, error)
	// UpdateBalanceCAS writes the new balance only when the stored version
	// still matches the one the caller read. It reports false when another
	// writer got there first.
	UpdateBalanceCAS(ctx context.Context, customerID uuid.UUID, version int64, balance decimal.Decimal) (bool, error)
	InsertEntry(ctx context.Context, entry *models.CreditEntry) error
	ListEntries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CreditEntry, error)
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed credit repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) GetAccount(ctx context.Context, customerID uuid.UUID) (*models.CreditAccount, error) {
	var account models.CreditAccount
	err := r.DB(ctx).Where("customer_id = ?", customerID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading credit account: %w", err)
	}
	return &account, nil
}

func (r *gormRepository) EnsureAccount(ctx context.Context, customerID uuid.UUID) (*models.CreditAccount, error) {
	account := models.CreditAccount{CustomerID: customerID, Balance: decimal.Zero}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "customer_id"}}, DoNothing: true}).
		Create(&account).Error
	if err != nil {
		return nil, fmt.Errorf("ensuring credit account: %w", err)
	}
	return r.GetAccount(ctx, customerID)
}

func (r *gormRepository) UpdateBalanceCAS(ctx context.Context, customerID uuid.UUID, version int64, balance decimal.Decimal) (bool, error) {
	res := r.DB(ctx).Model(&models.CreditAccount{}).
		Where("customer_id = ? AND version = ?", customerID, version).
		Updates(map[string]any{
			"balance": balance,
			"version": version + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("updating credit balance: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) InsertEntry(ctx context.Context, entry *models.CreditEntry) error {
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("inserting credit entry: %w", err)
	}
	return nil
}

func (r *gormRepository) ListEntries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CreditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.CreditEntry
	err := r.DB(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing credit entries: %w", err)
	}
	return entries, nil
}
