package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/fallback"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
	"github.com/Mahir9011/Cupid-Crochy/pkg/pagination"
	"github.com/Mahir9011/Cupid-Crochy/pkg/validator"
)

// ProductStats summarizes the catalog for the admin dashboard.
type ProductStats struct {
	TotalProducts  int              `json:"total_products"`
	RecentProducts []domain.Product `json:"recent_products"`
}

// CatalogService serves the product catalog from the hosted backend, falling
// back to the last cached copy when the backend cannot be reached.
type CatalogService struct {
	repo    repository.ProductRepository
	cache   *fallback.Cache
	breaker *breaker.Breaker
	logger  *slog.Logger
	now     func() time.Time
}

// NewCatalogService creates a new catalog service. repo may be nil, in which
// case reads are served from the cache and writes fail.
func NewCatalogService(repo repository.ProductRepository, cache *fallback.Cache, b *breaker.Breaker, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		cache:   cache,
		breaker: b,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns one page of the products matching filter, newest first.
func (s *CatalogService) List(ctx context.Context, filter domain.ProductFilter) (pagination.Result[domain.Product], error) {
	if !domain.IsValidAvailability(filter.Availability) {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput("availability must be one of all, available, soldout")
	}

	products := s.all(ctx)
	matched := filter.Filter(products)
	return pagination.Slice(matched, pagination.New(filter.Page, filter.PerPage)), nil
}

// Get returns a single product.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.Product, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err == nil {
		return p, nil
	}
	if !shouldFallback(err) {
		return nil, err
	}

	logFallback(ctx, s.logger, "get_product", err)
	for _, cached := range s.cache.Products(ctx) {
		if cached.ID == id {
			return &cached, nil
		}
	}
	return nil, apperrors.NotFound("product", id)
}

// Stats counts the catalog and returns its newest products.
func (s *CatalogService) Stats(ctx context.Context) ProductStats {
	products := s.all(ctx)
	if products == nil {
		products = make([]domain.Product, 0)
	}
	return ProductStats{
		TotalProducts:  len(products),
		RecentProducts: products[:min(len(products), RecentLimit)],
	}
}

// Tags returns the sorted distinct tags used across the catalog.
func (s *CatalogService) Tags(ctx context.Context) []string {
	return domain.DistinctTags(s.all(ctx))
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, input *domain.CreateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	now := s.now().UTC()
	p := &domain.Product{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(input.Name),
		Price:            input.Price,
		Image:            input.Image,
		Category:         strings.TrimSpace(input.Category),
		Tags:             nonNilStrings(input.Tags),
		IsNew:            input.IsNew,
		IsSoldOut:        input.IsSoldOut,
		Description:      input.Description,
		Features:         nonNilStrings(input.Features),
		CareInstructions: nonNilStrings(input.CareInstructions),
		AdditionalImages: nonNilStrings(input.AdditionalImages),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, backendError("catalog backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("product created",
		slog.String("product_id", p.ID),
		slog.String("name", p.Name),
	)
	s.refreshCache(ctx)
	return p, nil
}

// Update applies a partial update to a product.
func (s *CatalogService) Update(ctx context.Context, id string, input *domain.UpdateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	p, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.Product, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		input.Apply(p)
		p.UpdatedAt = s.now().UTC()
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, backendError("catalog backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("product updated", slog.String("product_id", id))
	s.refreshCache(ctx)
	return p, nil
}

// Delete removes a product from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	_, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	if err != nil {
		return backendError("catalog backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("product deleted", slog.String("product_id", id))
	s.refreshCache(ctx)
	return nil
}

// all returns the whole catalog. A successful backend read refreshes the
// cache; a failed one is answered from it.
func (s *CatalogService) all(ctx context.Context) []domain.Product {
	products, err := callBackend(ctx, s.breaker, s.repo != nil, s.listBackend)
	if err != nil {
		logFallback(ctx, s.logger, "list_products", err)
		return s.cache.Products(ctx)
	}

	if err := s.cache.SaveProducts(ctx, products); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to refresh product cache",
			slog.String("error", err.Error()),
		)
	}
	return products
}

func (s *CatalogService) listBackend(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *CatalogService) refreshCache(ctx context.Context) {
	_ = s.all(context.WithoutCancel(ctx))
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
