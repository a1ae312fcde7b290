package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/fallback"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
	"github.com/Mahir9011/Cupid-Crochy/pkg/validator"
)

// SettingsService reads and writes the site settings.
type SettingsService struct {
	repo    repository.SettingsRepository
	cache   *fallback.Cache
	breaker *breaker.Breaker
	logger  *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingsRepository, cache *fallback.Cache, b *breaker.Breaker, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:    repo,
		cache:   cache,
		breaker: b,
		logger:  logger,
	}
}

// Get returns the backend settings, then the cached copy, then the defaults.
func (s *SettingsService) Get(ctx context.Context) domain.SiteSettings {
	settings, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.SiteSettings, error) {
		return s.repo.Get(ctx)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logFallback(ctx, s.logger, "get_settings", err)
		}
		return s.cache.Settings(ctx)
	}

	if err := s.cache.SaveSettings(ctx, *settings); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to refresh settings cache",
			slog.String("error", err.Error()),
		)
	}
	return *settings
}

// Update replaces the settings. The cache is always written; the backend
// write is best effort.
func (s *SettingsService) Update(ctx context.Context, settings *domain.SiteSettings) (*domain.SiteSettings, error) {
	if err := validator.Validate(settings); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.logger)
	if err := s.cache.SaveSettings(ctx, *settings); err != nil {
		return nil, apperrors.Unavailable("settings could not be saved", err)
	}

	_, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Save(ctx, settings)
	})
	if err != nil && !errors.Is(err, errNoBackend) {
		log.Warn("failed to save settings to backend", slog.String("error", err.Error()))
	}

	log.Info("site settings updated")
	return settings, nil
}
