package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
	"github.com/Mahir9011/Cupid-Crochy/pkg/slug"
	"github.com/Mahir9011/Cupid-Crochy/pkg/validator"
)

// CategoryService manages product categories.
type CategoryService struct {
	repo    repository.CategoryRepository
	breaker *breaker.Breaker
	logger  *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, b *breaker.Breaker, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:    repo,
		breaker: b,
		logger:  logger,
	}
}

// List returns all categories. The built-in set is served when the backend
// has none or cannot be reached.
func (s *CategoryService) List(ctx context.Context) []domain.Category {
	categories, err := callBackend(ctx, s.breaker, s.repo != nil, s.repoList)
	if err != nil {
		logFallback(ctx, s.logger, "list_categories", err)
		return domain.DefaultCategories()
	}
	if len(categories) == 0 {
		return domain.DefaultCategories()
	}
	return categories
}

// Create adds a category. The slug is derived from the name when omitted.
func (s *CategoryService) Create(ctx context.Context, input *domain.CreateCategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	c := &domain.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.TrimSpace(input.Slug),
		Description: input.Description,
	}
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}
	if c.Slug == "" {
		return nil, apperrors.InvalidInput("name must contain at least one letter or digit")
	}

	_, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, backendError("category backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("category created",
		slog.Int64("category_id", c.ID),
		slog.String("slug", c.Slug),
	)
	return c, nil
}

// Update applies a partial update to a category.
func (s *CategoryService) Update(ctx context.Context, id int64, input *domain.UpdateCategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	c, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.Category, error) {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if input.Name != nil {
			c.Name = strings.TrimSpace(*input.Name)
		}
		if input.Slug != nil {
			c.Slug = strings.TrimSpace(*input.Slug)
		}
		if c.Slug == "" {
			c.Slug = slug.Generate(c.Name)
		}
		if input.Description != nil {
			c.Description = *input.Description
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return nil, backendError("category backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("category updated", slog.Int64("category_id", id))
	return c, nil
}

// Delete removes a category. Products keep their category name.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	_, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	if err != nil {
		return backendError("category backend unavailable", err)
	}

	logger.WithContext(ctx, s.logger).Info("category deleted", slog.Int64("category_id", id))
	return nil
}

func (s *CategoryService) repoList(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}
