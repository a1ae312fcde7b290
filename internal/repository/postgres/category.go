package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

const (
	categoryColumns = `id, name, slug, description, created_at`

	listCategoriesSQL = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	getCategorySQL    = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	insertCategorySQL = `INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`
	updateCategorySQL = `UPDATE categories SET name = $1, slug = $2, description = $3 WHERE id = $4`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (_ []domain.Category, err error) {
	ctx, end := database.TraceQuery(ctx, "categories.list", listCategoriesSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// GetByID retrieves a category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (_ *domain.Category, err error) {
	ctx, end := database.TraceQuery(ctx, "categories.get", getCategorySQL)
	defer func() { end(err) }()

	var c domain.Category
	err = r.pool.QueryRow(ctx, getCategorySQL, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// Create inserts a category and fills in its generated ID and CreatedAt.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	ctx, end := database.TraceQuery(ctx, "categories.create", insertCategorySQL)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, insertCategorySQL, c.Name, c.Slug, c.Description).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name or slug", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update modifies an existing category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	ctx, end := database.TraceQuery(ctx, "categories.update", updateCategorySQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, updateCategorySQL, c.Name, c.Slug, c.Description, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "name or slug", c.Name)
		}
		return fmt.Errorf("update category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", strconv.FormatInt(c.ID, 10))
	}
	return nil
}

// Delete removes a category. Products keep their category name.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "categories.delete", deleteCategorySQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", strconv.FormatInt(id, 10))
	}
	return nil
}
