package swaps

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

// Repository persists swap records.
type Repository interface {
	Create(ctx context.Context, swap *models.Swap) error
	Get(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	List(ctx context.Context, params pagination.Params) ([]models.Swap, string, error)
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
	now func() time.Time
}

// NewRepository builds the GORM-backed swap repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn), now: time.Now}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx), now: r.now}
}

func (r *gormRepository) newNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("T-%s-%s", r.now().UTC().Format("20060102"), suffix)
}

func (r *gormRepository) Create(ctx context.Context, swap *models.Swap) error {
	if swap.Number == "" {
		swap.Number = r.newNumber()
	}
	if err := r.DB(ctx).Create(swap).Error; err != nil {
		return fmt.Errorf("creating swap: %w", err)
	}
	return nil
}

func (r *gormRepository) Get(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	var swap models.Swap
	err := r.DB(ctx).First(&swap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "swap not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading swap: %w", err)
	}
	return &swap, nil
}

func (r *gormRepository) List(ctx context.Context, params pagination.Params) ([]models.Swap, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.DB(ctx).Model(&models.Swap{})
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Swap
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", fmt.Errorf("listing swaps: %w", err)
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
