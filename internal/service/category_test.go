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

func TestCategory_ListFromBackend(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())

	repo.On("List", mock.Anything).Return([]domain.Category{{ID: 9, Name: "Backpack", Slug: "backpack"}}, nil)

	got := svc.List(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "backpack", got[0].Slug)
}

func TestCategory_ListDefaults(t *testing.T) {
	t.Run("empty backend", func(t *testing.T) {
		repo := new(mockCategoryRepository)
		svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())
		repo.On("List", mock.Anything).Return([]domain.Category{}, nil)

		assert.Equal(t, domain.DefaultCategories(), svc.List(context.Background()))
	})

	t.Run("backend down", func(t *testing.T) {
		repo := new(mockCategoryRepository)
		svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())
		repo.On("List", mock.Anything).Return(nil, errConnRefused)

		assert.Len(t, svc.List(context.Background()), 6)
	})

	t.Run("no backend", func(t *testing.T) {
		svc := NewCategoryService(nil, nil, newTestLogger())
		assert.Len(t, svc.List(context.Background()), 6)
	})
}

func TestCategory_CreateGeneratesSlug(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Category")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Category).ID = 7 }).
		Return(nil)

	c, err := svc.Create(context.Background(), &domain.CreateCategoryInput{Name: "Mini Backpack"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "mini-backpack", c.Slug)
}

func TestCategory_CreateKeepsExplicitSlug(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Category")).Return(nil)

	c, err := svc.Create(context.Background(), &domain.CreateCategoryInput{Name: "Mini Backpack", Slug: "minis"})
	require.NoError(t, err)
	assert.Equal(t, "minis", c.Slug)
}

func TestCategory_CreateDuplicate(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.AlreadyExists("category", "name or slug", "Tote"))

	_, err := svc.Create(context.Background(), &domain.CreateCategoryInput{Name: "Tote"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestCategory_CreateValidation(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())

	_, err := svc.Create(context.Background(), &domain.CreateCategoryInput{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(context.Background(), &domain.CreateCategoryInput{Name: "!!!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategory_Update(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())

	repo.On("GetByID", mock.Anything, int64(1)).Return(&domain.Category{ID: 1, Name: "Tote", Slug: "tote"}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Category")).Return(nil)

	name := "Big Tote"
	desc := "Roomy"
	c, err := svc.Update(context.Background(), 1, &domain.UpdateCategoryInput{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Big Tote", c.Name)
	assert.Equal(t, "tote", c.Slug)
	assert.Equal(t, "Roomy", c.Description)
}

func TestCategory_DeleteNotFound(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestBreaker(t), newTestLogger())
	repo.On("Delete", mock.Anything, int64(42)).Return(apperrors.NotFound("category", "42"))

	err := svc.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
