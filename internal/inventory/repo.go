package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/internal/repo"
	"github.com/rmoralesc/movilpos-backend/pkg/db"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

// Repository owns serialized units and the stock counters of bulk products.
type Repository interface {
	GetUnits(ctx context.Context, ids []uuid.UUID) ([]models.InventoryUnit, error)
	ListInStock(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error)
	FindByIMEI(ctx context.Context, imei string) (*models.InventoryUnit, error)
	// Claim flips the units to sold with the sale linkage, but only the ones
	// still in stock. Any unit that lost the race fails the whole claim.
	Claim(ctx context.Context, unitIDs []uuid.UUID, saleID uuid.UUID, customerID *uuid.UUID) error
	// Release reverts sold units back to in stock and clears the linkage.
	Release(ctx context.Context, unitIDs []uuid.UUID) error
	// Intake registers a new in-stock unit. A duplicate IMEI is a conflict.
	Intake(ctx context.Context, unit *models.InventoryUnit) error
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
	now func() time.Time
}

// NewRepository builds the GORM-backed inventory repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn), now: time.Now}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx), now: r.now}
}

func (r *gormRepository) GetUnits(ctx context.Context, ids []uuid.UUID) ([]models.InventoryUnit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var units []models.InventoryUnit
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("loading units: %w", err)
	}
	if len(units) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more units do not exist")
	}
	return units, nil
}

func (r *gormRepository) ListInStock(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	err := r.DB(ctx).
		Where("product_id = ? AND status = ?", productID, enums.UnitStatusInStock).
		Order("created_at ASC").
		Find(&units).Error
	if err != nil {
		return nil, fmt.Errorf("listing in-stock units: %w", err)
	}
	return units, nil
}

func (r *gormRepository) FindByIMEI(ctx context.Context, imei string) (*models.InventoryUnit, error) {
	var unit models.InventoryUnit
	err := r.DB(ctx).Where("imei = ?", imei).First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no unit with that imei")
	}
	if err != nil {
		return nil, fmt.Errorf("finding unit by imei: %w", err)
	}
	return &unit, nil
}

func (r *gormRepository) Claim(ctx context.Context, unitIDs []uuid.UUID, saleID uuid.UUID, customerID *uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	soldAt := r.now().UTC()
	res := r.DB(ctx).Model(&models.InventoryUnit{}).
		Where("id IN ? AND status = ?", unitIDs, enums.UnitStatusInStock).
		Updates(map[string]any{
			"status":      enums.UnitStatusSold,
			"sale_id":     saleID,
			"customer_id": customerID,
			"sold_at":     soldAt,
		})
	if res.Error != nil {
		return fmt.Errorf("claiming units: %w", res.Error)
	}
	if res.RowsAffected == int64(len(unitIDs)) {
		return nil
	}
	return r.claimConflict(ctx, unitIDs, saleID)
}

// claimConflict names the units that were no longer in stock so the cashier
// knows which devices to pull from the cart. Units the claim did flip carry
// our sale id; everything else in the set lost the race.
func (r *gormRepository) claimConflict(ctx context.Context, unitIDs []uuid.UUID, saleID uuid.UUID) error {
	var lost []models.InventoryUnit
	err := r.DB(ctx).
		Where("id IN ? AND (sale_id IS NULL OR sale_id != ?)", unitIDs, saleID).
		Find(&lost).Error
	if err != nil || len(lost) == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "one or more units are no longer available")
	}
	serials := make([]string, 0, len(lost))
	for _, u := range lost {
		serials = append(serials, u.IMEI)
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "units no longer available").WithDetails(map[string]any{
		"imeis": serials,
	})
}

func (r *gormRepository) Release(ctx context.Context, unitIDs []uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	err := r.DB(ctx).Model(&models.InventoryUnit{}).
		Where("id IN ?", unitIDs).
		Updates(map[string]any{
			"status":      enums.UnitStatusInStock,
			"sale_id":     nil,
			"customer_id": nil,
			"sold_at":     nil,
		}).Error
	if err != nil {
		return fmt.Errorf("releasing units: %w", err)
	}
	return nil
}

func (r *gormRepository) Intake(ctx context.Context, unit *models.InventoryUnit) error {
	if unit.Status == "" {
		unit.Status = enums.UnitStatusInStock
	}
	if err := r.DB(ctx).Create(unit).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("a unit with imei %s already exists", unit.IMEI))
		}
		return fmt.Errorf("creating unit: %w", err)
	}
	return nil
}

func (r *gormRepository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrementing stock: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	// The counter is advisory for bulk goods, so an undercount zeroes it
	// rather than blocking the sale.
	err := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", 0).Error
	if err != nil {
		return fmt.Errorf("flooring stock: %w", err)
	}
	return nil
}

func (r *gormRepository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	err := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
	if err != nil {
		return fmt.Errorf("restoring stock: %w", err)
	}
	return nil
}
