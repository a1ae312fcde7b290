// Package fallback is the typed view over the key-value cache that serves
// catalog and settings reads while the hosted backend is unreachable and
// retains orders whose backend write failed.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// Cache keys.
const (
	KeyProducts      = "products"
	KeyOrders        = "orders"
	KeySiteSettings  = "siteSettings"
	KeyLatestOrderID = "latestOrderId"
)

// Cache reads and writes JSON documents in a repository.KVStore. Reads never
// fail: absent or unparsable values yield an empty collection or defaults.
type Cache struct {
	store  repository.KVStore
	logger *slog.Logger

	// ordersMu serializes read-modify-write of the orders list.
	ordersMu sync.Mutex
}

// New creates a Cache over store.
func New(store repository.KVStore, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Products returns the cached catalog.
func (c *Cache) Products(ctx context.Context) []domain.Product {
	var products []domain.Product
	if !c.read(ctx, KeyProducts, &products) || products == nil {
		return make([]domain.Product, 0)
	}
	return products
}

// SaveProducts replaces the cached catalog.
func (c *Cache) SaveProducts(ctx context.Context, products []domain.Product) error {
	return c.write(ctx, KeyProducts, products)
}

// Orders returns the locally retained orders.
func (c *Cache) Orders(ctx context.Context) []domain.Order {
	var orders []domain.Order
	if !c.read(ctx, KeyOrders, &orders) || orders == nil {
		return make([]domain.Order, 0)
	}
	return orders
}

// AppendOrder adds o to the retained orders.
func (c *Cache) AppendOrder(ctx context.Context, o domain.Order) error {
	c.ordersMu.Lock()
	defer c.ordersMu.Unlock()

	orders := c.Orders(ctx)
	orders = append(orders, o)
	return c.write(ctx, KeyOrders, orders)
}

// UpdateOrder applies fn to the retained order with orderNumber and stores
// the result. It returns an ErrNotFound error when no such order is retained.
func (c *Cache) UpdateOrder(ctx context.Context, orderNumber string, fn func(*domain.Order)) (*domain.Order, error) {
	c.ordersMu.Lock()
	defer c.ordersMu.Unlock()

	orders := c.Orders(ctx)
	for i := range orders {
		if orders[i].OrderNumber != orderNumber {
			continue
		}
		fn(&orders[i])
		if err := c.write(ctx, KeyOrders, orders); err != nil {
			return nil, err
		}
		updated := orders[i]
		return &updated, nil
	}
	return nil, apperrors.NotFound("order", orderNumber)
}

// RemoveOrders drops the retained copies of synced orders and returns how
// many were dropped. A copy whose status changed since it was read is kept
// so the change reaches the backend on the next sync.
func (c *Cache) RemoveOrders(ctx context.Context, synced []domain.Order) (int, error) {
	statuses := make(map[string]string, len(synced))
	for _, o := range synced {
		statuses[o.OrderNumber] = o.Status
	}

	c.ordersMu.Lock()
	defer c.ordersMu.Unlock()

	orders := c.Orders(ctx)
	kept := orders[:0]
	for _, o := range orders {
		if status, ok := statuses[o.OrderNumber]; ok && status == o.Status {
			continue
		}
		kept = append(kept, o)
	}
	removed := len(orders) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		if err := c.store.Delete(ctx, KeyOrders); err != nil {
			return 0, fmt.Errorf("delete %s: %w", KeyOrders, err)
		}
		return removed, nil
	}
	if err := c.write(ctx, KeyOrders, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Settings returns the cached site settings, or the defaults.
func (c *Cache) Settings(ctx context.Context) domain.SiteSettings {
	var s domain.SiteSettings
	if !c.read(ctx, KeySiteSettings, &s) {
		return domain.DefaultSiteSettings()
	}
	return s
}

// SaveSettings replaces the cached site settings.
func (c *Cache) SaveSettings(ctx context.Context, s domain.SiteSettings) error {
	return c.write(ctx, KeySiteSettings, s)
}

// LatestOrderID returns the last order number placed by sessionID, or "".
func (c *Cache) LatestOrderID(ctx context.Context, sessionID string) string {
	v, err := c.store.Get(ctx, latestOrderKey(sessionID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.log(ctx).Warn("fallback cache read failed",
				slog.String("key", KeyLatestOrderID),
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	return v
}

// SetLatestOrderID records the last order number placed by sessionID.
func (c *Cache) SetLatestOrderID(ctx context.Context, sessionID, orderNumber string) error {
	if err := c.store.Set(ctx, latestOrderKey(sessionID), orderNumber); err != nil {
		return fmt.Errorf("set %s: %w", KeyLatestOrderID, err)
	}
	return nil
}

func latestOrderKey(sessionID string) string {
	return KeyLatestOrderID + ":" + sessionID
}

// read decodes key into dst and reports whether a usable value was found.
func (c *Cache) read(ctx context.Context, key string, dst any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.log(ctx).Warn("fallback cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log(ctx).Warn("fallback cache value is corrupt, ignoring",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (c *Cache) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, c.logger)
}
