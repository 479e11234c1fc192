package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesc/movilpos-backend/internal/cache"
	"github.com/rmoralesc/movilpos-backend/internal/repo"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

// Repository persists customer identity records.
type Repository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListAll(ctx context.Context) ([]models.Customer, error)
	WithTx(tx *gorm.DB) Repository
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds the GORM-backed customer repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, customer *models.Customer) error {
	if err := r.DB(ctx).Create(customer).Error; err != nil {
		return fmt.Errorf("creating customer: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading customer: %w", err)
	}
	return &customer, nil
}

func (r *gormRepository) ListAll(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := r.DB(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return out, nil
}

// Service exposes the customer directory with a cache-first read path.
type Service struct {
	repo   Repository
	reader *cache.Reader[models.Customer]
}

// NewService wires the customer service.
func NewService(repo Repository, store *cache.Store) (*Service, error) {
	if repo == nil {
		return nil, errors.New("customers: repository is required")
	}
	if store == nil {
		return nil, errors.New("customers: cache store is required")
	}
	svc := &Service{repo: repo}
	svc.reader = cache.NewReader(store, enums.CacheEntityCustomers,
		func(c models.Customer) uuid.UUID { return c.ID },
		repo.ListAll)
	return svc, nil
}

// All returns every customer, from cache when fresh.
func (s *Service) All(ctx context.Context) ([]models.Customer, error) {
	return s.reader.All(ctx)
}

// Get loads one customer directly from the database.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates and persists a new customer, then patches the cache.
func (s *Service) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer payload is required")
	}
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	s.reader.PatchOne(*customer)
	return customer, nil
}
