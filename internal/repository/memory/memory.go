// Package memory provides in-process repository implementations used when no
// Redis is configured and as fakes in service tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

// CartRepository keeps carts as serialized JSON, like the Redis store.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string][]byte)}
}

// Load returns the stored items for sessionID.
func (r *CartRepository) Load(_ context.Context, sessionID string) ([]domain.LineItem, error) {
	r.mu.RLock()
	data, ok := r.carts[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}

// Save stores a serialized copy of items.
func (r *CartRepository) Save(_ context.Context, sessionID string, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	r.mu.Lock()
	r.carts[sessionID] = data
	r.mu.Unlock()
	return nil
}

// Delete removes the cart for sessionID.
func (r *CartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}

// SetRaw stores an arbitrary payload for sessionID.
func (r *CartRepository) SetRaw(sessionID, raw string) {
	r.mu.Lock()
	r.carts[sessionID] = []byte(raw)
	r.mu.Unlock()
}

// KVStore is a map-backed fallback cache.
type KVStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewKVStore creates an empty in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]string)}
}

// Get returns the value under key.
func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", apperrors.NotFound("cache key", key)
	}
	return v, nil
}

// Set stores value under key.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
