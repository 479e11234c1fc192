package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/internal/repo"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/pagination"
)

// Repository persists sales and their line items.
type Repository interface {
	// Create assigns the sale number, writes the row and its items.
	Create(ctx context.Context, sale *models.Sale) error
	// Replace rewrites a sale's mutable fields and swaps out its items,
	// keeping the id and number. Used by the edit flow after reconciling
	// the original side effects.
	Replace(ctx context.Context, sale *models.Sale) error
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error)
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
	now func() time.Time
}

// NewRepository builds the GORM-backed sales repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn), now: time.Now}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx), now: r.now}
}

// newNumber builds the receipt number surfaced to the cashier. Uniqueness is
// enforced by the column index; the uuid suffix makes collisions a
// non-event in practice.
func (r *gormRepository) newNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("S-%s-%s", r.now().UTC().Format("20060102"), suffix)
}

func (r *gormRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.Number == "" {
		sale.Number = r.newNumber()
	}
	if err := r.DB(ctx).Create(sale).Error; err != nil {
		return fmt.Errorf("creating sale: %w", err)
	}
	return nil
}

func (r *gormRepository) Replace(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceSale(tx, sale)
	})
}

func replaceSale(db *gorm.DB, sale *models.Sale) error {
	if err := db.Where("sale_id = ?", sale.ID).Delete(&models.SaleLineItem{}).Error; err != nil {
		return fmt.Errorf("clearing sale items: %w", err)
	}
	for i := range sale.Items {
		sale.Items[i].ID = uuid.Nil
		sale.Items[i].SaleID = sale.ID
	}
	res := db.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(map[string]any{
		"customer_id":      sale.CustomerID,
		"subtotal":         sale.Subtotal,
		"discount_percent": sale.DiscountPercent,
		"discount_amount":  sale.DiscountAmount,
		"tax_amount":       sale.TaxAmount,
		"total":            sale.Total,
		"credit_applied":   sale.CreditApplied,
		"cash_needed":      sale.CashNeeded,
		"payment_method":   sale.PaymentMethod,
		"status":           sale.Status,
		"notes":            sale.Notes,
	})
	if res.Error != nil {
		return fmt.Errorf("updating sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	if len(sale.Items) > 0 {
		if err := db.Create(&sale.Items).Error; err != nil {
			return fmt.Errorf("writing sale items: %w", err)
		}
	}
	return nil
}

func (r *gormRepository) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.DB(ctx).Preload("Items").First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading sale: %w", err)
	}
	return &sale, nil
}

func (r *gormRepository) List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.DB(ctx).Preload("Items")
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Sale
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", fmt.Errorf("listing sales: %w", err)
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
