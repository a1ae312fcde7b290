package repository

import (
	"context"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
)

// CartRepository persists the line items of one session's cart.
type CartRepository interface {
	// Load returns the stored items. A missing cart yields an ErrNotFound error.
	Load(ctx context.Context, sessionID string) ([]domain.LineItem, error)

	// Save overwrites the stored items for the session.
	Save(ctx context.Context, sessionID string, items []domain.LineItem) error

	// Delete removes the stored cart.
	Delete(ctx context.Context, sessionID string) error
}

// KVStore is the string key-value fallback cache.
type KVStore interface {
	// Get returns the value under key, or an ErrNotFound error.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// ProductRepository defines the hosted backend product operations.
type ProductRepository interface {
	// List returns all products, newest first.
	List(ctx context.Context) ([]domain.Product, error)

	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines the hosted backend category operations.
type CategoryRepository interface {
	// List returns all categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)

	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// Create inserts c and sets its generated ID and CreatedAt.
	Create(ctx context.Context, c *domain.Category) error

	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

// OrderRepository defines the hosted backend order operations.
type OrderRepository interface {
	// Create inserts the order and its items atomically and sets the IDs.
	Create(ctx context.Context, o *domain.Order) error

	// GetByNumber returns the order with its items.
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// List returns all orders with their items, newest first.
	List(ctx context.Context) ([]domain.Order, error)

	UpdateStatus(ctx context.Context, orderNumber, status string) error
}

// SettingsRepository stores the site settings document.
type SettingsRepository interface {
	// Get returns the stored settings, or an ErrNotFound error.
	Get(ctx context.Context) (*domain.SiteSettings, error)

	// Save upserts the settings.
	Save(ctx context.Context, s *domain.SiteSettings) error
}
