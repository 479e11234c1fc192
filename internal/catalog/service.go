package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/internal/cache"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
)

// Service owns product lifecycle. Products are never deleted, only
// deactivated, because historic sales reference them.
type Service struct {
	repo   Repository
	reader *cache.Reader[models.Product]
	log    *logger.Logger
}

// NewService wires the catalog service and its cache-first reader.
func NewService(repo Repository, store *cache.Store, log *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	if store == nil {
		return nil, errors.New("catalog: cache store is required")
	}
	if log == nil {
		return nil, errors.New("catalog: logger is required")
	}
	svc := &Service{repo: repo, log: log}
	svc.reader = cache.NewReader(store, enums.CacheEntityProducts,
		func(p models.Product) uuid.UUID { return p.ID },
		repo.ListActive)
	return svc, nil
}

// Reader exposes the cache-first product view for the commit paths.
func (s *Service) Reader() *cache.Reader[models.Product] {
	return s.reader
}

// PatchCache write-throughs one product after a committer mutates its stock.
func (s *Service) PatchCache(product models.Product) {
	if product.IsActive {
		s.reader.PatchOne(product)
		return
	}
	s.reader.RemoveOne(product.ID)
}

// All returns the active catalog, from cache when fresh.
func (s *Service) All(ctx context.Context) ([]models.Product, error) {
	return s.reader.All(ctx)
}

// Get loads one product directly from the database.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// FindActiveByName matches a product by normalized name, for trade-in reuse.
func (s *Service) FindActiveByName(ctx context.Context, name string) (*models.Product, error) {
	return s.repo.FindActiveByName(ctx, name)
}

// List returns a filtered page of products.
func (s *Service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	return s.repo.List(ctx, query)
}

// Create validates and persists a new product, then patches the cache.
func (s *Service) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.IsActive = true
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.reader.PatchOne(*product)
	s.log.Info(s.log.WithField(ctx, "product_id", product.ID.String()), "product created")
	return product, nil
}

// Update persists changes to an existing product and patches the cache.
func (s *Service) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	if product.IsActive {
		s.reader.PatchOne(*product)
	} else {
		s.reader.RemoveOne(product.ID)
	}
	return product, nil
}

// Deactivate hides the product from active listings and drops it from cache.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.IsActive = false
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	s.reader.RemoveOne(id)
	s.log.Info(s.log.WithField(ctx, "product_id", id.String()), "product deactivated")
	return nil
}

func validateProduct(product *models.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product payload is required")
	}
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if product.BasePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	for _, tier := range []*decimal.Decimal{product.NewPrice, product.UsedPrice, product.PhysicalSimPrice, product.ESimPrice} {
		if tier != nil && tier.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price tiers cannot be negative")
		}
	}
	if product.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}
