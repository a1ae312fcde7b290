package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

// productColumns is the standard SELECT column list for products.
const productColumns = `id, name, price::text, image, category, tags, is_new, is_sold_out,
	description, features, care_instructions, additional_images, created_at, updated_at`

const (
	listProductsSQL  = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	getProductSQL    = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	insertProductSQL = `
		INSERT INTO products (id, name, price, image, category, tags, is_new, is_sold_out,
			description, features, care_instructions, additional_images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	updateProductSQL = `
		UPDATE products
		SET name = $1, price = $2, image = $3, category = $4, tags = $5, is_new = $6,
		    is_sold_out = $7, description = $8, features = $9, care_instructions = $10,
		    additional_images = $11, updated_at = $12
		WHERE id = $13`
	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns every product, newest first.
func (r *ProductRepository) List(ctx context.Context) (_ []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "products.list", listProductsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "products.get", getProductSQL)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, getProductSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.create", insertProductSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertProductSQL,
		p.ID,
		p.Name,
		p.Price.String(),
		p.Image,
		p.Category,
		nonNil(p.Tags),
		p.IsNew,
		p.IsSoldOut,
		p.Description,
		nonNil(p.Features),
		nonNil(p.CareInstructions),
		nonNil(p.AdditionalImages),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.update", updateProductSQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, updateProductSQL,
		p.Name,
		p.Price.String(),
		p.Image,
		p.Category,
		nonNil(p.Tags),
		p.IsNew,
		p.IsSoldOut,
		p.Description,
		nonNil(p.Features),
		nonNil(p.CareInstructions),
		nonNil(p.AdditionalImages),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "products.delete", deleteProductSQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&price,
		&p.Image,
		&p.Category,
		&p.Tags,
		&p.IsNew,
		&p.IsSoldOut,
		&p.Description,
		&p.Features,
		&p.CareInstructions,
		&p.AdditionalImages,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := scanMoney(price, &p.Price); err != nil {
		return nil, err
	}
	return &p, nil
}
