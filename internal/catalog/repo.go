package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/internal/repo"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/pagination"
)

// ListQuery filters the paginated product listing.
type ListQuery struct {
	Pagination      pagination.Params
	Search          string
	IncludeInactive bool
	UnitTrackedOnly bool
}

// ListResult is one page of products plus the cursor for the next.
type ListResult struct {
	Products   []models.Product
	NextCursor string
}

// Repository persists the product catalog.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed catalog repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *gormRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":               product.Name,
			"base_price":         product.BasePrice,
			"new_price":          product.NewPrice,
			"used_price":         product.UsedPrice,
			"physical_sim_price": product.PhysicalSimPrice,
			"esim_price":         product.ESimPrice,
			"product_model_id":   product.ProductModelID,
			"stock":              product.Stock,
			"is_active":          product.IsActive,
		})
	if res.Error != nil {
		return fmt.Errorf("updating product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	return &product, nil
}

func (r *gormRepository) FindActiveByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(name)), true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding product by name: %w", err)
	}
	return &product, nil
}

func (r *gormRepository) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.DB(ctx).Model(&models.Product{})
	if !query.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if query.UnitTrackedOnly {
		qb = qb.Where("product_model_id IS NOT NULL")
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		qb = qb.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &ListResult{Products: rows, NextCursor: nextCursor}, nil
}

func (r *gormRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("listing active products: %w", err)
	}
	return products, nil
}
