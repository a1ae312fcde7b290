package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// DefaultSaveTimeout bounds one cart write to storage.
const DefaultSaveTimeout = 500 * time.Millisecond

// Cart operations, used as metric and log labels.
const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update_quantity"
	opClear  = "clear"
	opOrder  = "checkout"
)

// CartView is a point-in-time copy of a cart.
type CartView struct {
	SessionID string            `json:"session_id"`
	Items     []domain.LineItem `json:"items"`
	Count     int               `json:"count"`
	Total     domain.Money      `json:"total"`
	IsOpen    bool              `json:"is_open"`
}

// CartStore is the cart of one session. Operations are serialized and
// applied in call order. Every mutation writes the full item list to the
// repository; a failed write is logged and never undoes the mutation. The
// store stays dirty until a later write succeeds.
type CartStore struct {
	mu     sync.Mutex
	loaded bool
	dirty  bool

	sessionID   string
	cart        domain.Cart
	isOpen      bool
	repo        repository.CartRepository
	logger      *slog.Logger
	saveTimeout time.Duration
}

// NewCartStore creates a store for sessionID and loads its persisted items.
func NewCartStore(ctx context.Context, sessionID string, repo repository.CartRepository, logger *slog.Logger) *CartStore {
	s := newCartStore(sessionID, repo, logger, DefaultSaveTimeout)
	s.mu.Lock()
	s.ensureLoaded(ctx)
	s.mu.Unlock()
	return s
}

func newCartStore(sessionID string, repo repository.CartRepository, logger *slog.Logger, saveTimeout time.Duration) *CartStore {
	return &CartStore{
		sessionID:   sessionID,
		cart:        domain.Cart{Items: []domain.LineItem{}},
		repo:        repo,
		logger:      logger,
		saveTimeout: saveTimeout,
	}
}

// ensureLoaded reads the persisted items once. Absent or unreadable state
// yields an empty cart. Callers hold s.mu.
func (s *CartStore) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	items, err := s.repo.Load(ctx, s.sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log(ctx).Warn("failed to load cart, starting empty",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	s.cart.Items = items
	s.cart.Normalize()
}

// AddItem adds qty of item, merging into an existing line with the same id.
// It does not open the cart panel.
func (s *CartStore) AddItem(ctx context.Context, item domain.LineItem, qty int) CartView {
	return s.mutate(ctx, opAdd, func(c *domain.Cart) { c.Add(item, qty) })
}

// RemoveItem removes the line for id, if present.
func (s *CartStore) RemoveItem(ctx context.Context, id string) CartView {
	return s.mutate(ctx, opRemove, func(c *domain.Cart) { c.Remove(id) })
}

// UpdateQuantity sets the quantity of the line for id. A quantity of zero or
// less is ignored and never removes the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, id string, qty int) CartView {
	return s.mutate(ctx, opUpdate, func(c *domain.Cart) { c.SetQuantity(id, qty) })
}

// ClearCart empties the cart.
func (s *CartStore) ClearCart(ctx context.Context) CartView {
	return s.mutate(ctx, opClear, func(c *domain.Cart) { c.Clear() })
}

// RemoveOrdered takes the ordered lines off the cart. Units added since the
// lines were read stay in the cart.
func (s *CartStore) RemoveOrdered(ctx context.Context, lines []domain.LineItem) CartView {
	return s.mutate(ctx, opOrder, func(c *domain.Cart) { c.Subtract(lines) })
}

// Flush retries a write that failed earlier. It reports whether storage
// holds the current cart.
func (s *CartStore) Flush(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return true
	}
	if err := s.save(ctx); err != nil {
		s.log(ctx).Warn("cart is still unsaved", slog.String("error", err.Error()))
		return false
	}
	s.dirty = false
	return true
}

// Total returns the cart total.
func (s *CartStore) Total(ctx context.Context) domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.cart.Total()
}

// Count returns the number of units in the cart.
func (s *CartStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.cart.Count()
}

// Items returns a copy of the line items.
func (s *CartStore) Items(ctx context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.cart.Snapshot()
}

// Open shows the cart panel.
func (s *CartStore) Open(ctx context.Context) CartView {
	return s.setOpen(ctx, true)
}

// Close hides the cart panel.
func (s *CartStore) Close(ctx context.Context) CartView {
	return s.setOpen(ctx, false)
}

// IsOpen reports whether the cart panel is shown.
func (s *CartStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// View returns a snapshot of the cart.
func (s *CartStore) View(ctx context.Context) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.viewLocked()
}

func (s *CartStore) setOpen(ctx context.Context, open bool) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	s.isOpen = open
	return s.viewLocked()
}

func (s *CartStore) mutate(ctx context.Context, op string, fn func(*domain.Cart)) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	fn(&s.cart)
	cartMutationsTotal.WithLabelValues(op).Inc()
	s.persist(ctx, op)
	return s.viewLocked()
}

// persist writes the cart after op and tracks whether the write landed.
// Callers hold s.mu, so writes reach storage in mutation order.
func (s *CartStore) persist(ctx context.Context, op string) {
	if err := s.save(ctx); err != nil {
		s.dirty = true
		cartPersistFailuresTotal.WithLabelValues(op).Inc()
		s.log(ctx).Warn("failed to persist cart",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return
	}
	s.dirty = false
}

// save writes the full item list, or deletes the stored cart once it is
// empty. The write is detached from the caller's cancellation and bounded
// by saveTimeout. Callers hold s.mu.
func (s *CartStore) save(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if len(s.cart.Items) == 0 {
		return s.repo.Delete(saveCtx, s.sessionID)
	}
	return s.repo.Save(saveCtx, s.sessionID, s.cart.Snapshot())
}

func (s *CartStore) viewLocked() CartView {
	return CartView{
		SessionID: s.sessionID,
		Items:     s.cart.Snapshot(),
		Count:     s.cart.Count(),
		Total:     s.cart.Total(),
		IsOpen:    s.isOpen,
	}
}

func (s *CartStore) log(ctx context.Context) *slog.Logger {
	l := logger.WithContext(ctx, s.logger)
	if logger.SessionIDFromContext(ctx) == "" {
		l = l.With(slog.String("session_id", s.sessionID))
	}
	return l
}
