package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

func TestSettings_GetFromBackendRefreshesCache(t *testing.T) {
	repo := new(mockSettingsRepository)
	cache := newTestCache()
	svc := NewSettingsService(repo, cache, newTestBreaker(t), newTestLogger())
	ctx := context.Background()

	stored := domain.DefaultSiteSettings()
	stored.HeroTitle = "Spring Collection"
	repo.On("Get", mock.Anything).Return(&stored, nil)

	got := svc.Get(ctx)
	assert.Equal(t, "Spring Collection", got.HeroTitle)
	assert.Equal(t, "Spring Collection", cache.Settings(ctx).HeroTitle)
}

func TestSettings_GetFallsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("cached copy", func(t *testing.T) {
		repo := new(mockSettingsRepository)
		cache := newTestCache()
		svc := NewSettingsService(repo, cache, newTestBreaker(t), newTestLogger())

		cached := domain.DefaultSiteSettings()
		cached.CompanyName = "Cached Crochet"
		require.NoError(t, cache.SaveSettings(ctx, cached))
		repo.On("Get", mock.Anything).Return(nil, errConnRefused)

		assert.Equal(t, "Cached Crochet", svc.Get(ctx).CompanyName)
	})

	t.Run("defaults", func(t *testing.T) {
		repo := new(mockSettingsRepository)
		svc := NewSettingsService(repo, newTestCache(), newTestBreaker(t), newTestLogger())
		repo.On("Get", mock.Anything).Return(nil, apperrors.NotFound("settings", "site"))

		assert.Equal(t, domain.DefaultSiteSettings(), svc.Get(ctx))
	})

	t.Run("no backend", func(t *testing.T) {
		svc := NewSettingsService(nil, newTestCache(), nil, newTestLogger())
		assert.Equal(t, domain.DefaultSiteSettings(), svc.Get(ctx))
	})
}

func TestSettings_UpdateWritesCacheWhenBackendFails(t *testing.T) {
	repo := new(mockSettingsRepository)
	cache := newTestCache()
	svc := NewSettingsService(repo, cache, newTestBreaker(t), newTestLogger())
	ctx := context.Background()

	repo.On("Save", mock.Anything, mock.Anything).Return(errConnRefused)

	in := domain.DefaultSiteSettings()
	in.HeroSubtitle = "Made by hand"
	got, err := svc.Update(ctx, &in)
	require.NoError(t, err)
	assert.Equal(t, "Made by hand", got.HeroSubtitle)
	assert.Equal(t, "Made by hand", cache.Settings(ctx).HeroSubtitle)

	repo.AssertExpectations(t)
}

func TestSettings_UpdateValidation(t *testing.T) {
	repo := new(mockSettingsRepository)
	cache := newTestCache()
	svc := NewSettingsService(repo, cache, newTestBreaker(t), newTestLogger())
	ctx := context.Background()

	in := domain.DefaultSiteSettings()
	in.CompanyEmail = "nope"
	_, err := svc.Update(ctx, &in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	in = domain.DefaultSiteSettings()
	in.HeroTitle = " "
	_, err = svc.Update(ctx, &in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Equal(t, domain.DefaultSiteSettings(), cache.Settings(ctx))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
