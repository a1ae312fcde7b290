package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

var categoryCols = []string{"id", "name", "slug", "description", "created_at"}

func TestCategoryRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(listCategoriesSQL)).
		WillReturnRows(pgxmock.NewRows(categoryCols).
			AddRow(int64(2), "Clutch", "clutch", "Small", now).
			AddRow(int64(1), "Tote", "tote", "Big", now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "tote", got[1].Slug)
}

func TestCategoryRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(getCategorySQL)).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(categoryCols))

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "42")
}

func TestCategoryRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)
	c := &domain.Category{Name: "Tote", Slug: "tote", Description: "Big"}

	mock.ExpectQuery(regexp.QuoteMeta(insertCategorySQL)).
		WithArgs("Tote", "tote", "Big").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, now, c.CreatedAt)
}

func TestCategoryRepository_Create_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(insertCategorySQL)).
		WithArgs("Tote", "tote", "").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.Category{Name: "Tote", Slug: "tote"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestCategoryRepository_UpdateAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(updateCategorySQL)).
		WithArgs("Totes", "totes", "", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteCategorySQL)).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Update(context.Background(), &domain.Category{ID: 1, Name: "Totes", Slug: "totes"}))
	assert.ErrorIs(t, repo.Delete(context.Background(), 9), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
