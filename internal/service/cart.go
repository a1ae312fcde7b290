package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/event"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// MaxQuantityPerRequest caps the quantity accepted in one add or update call.
const MaxQuantityPerRequest = 100

// ProductLookup resolves a product for adding to a cart.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// AddItemInput adds a line with explicit display data. A Quantity below 1
// adds one.
type AddItemInput struct {
	ID       string
	Name     string
	Price    domain.Money
	Image    string
	Quantity int
}

type cartSession struct {
	store    *CartStore
	lastUsed time.Time
}

// CartService owns the CartStore of every active session. Stores are created
// on first use and rehydrated from the repository.
type CartService struct {
	repo        repository.CartRepository
	producer    *event.Producer
	products    ProductLookup
	logger      *slog.Logger
	saveTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*cartSession
}

// NewCartService creates a new cart service. products may be nil, in which
// case AddProduct is unavailable.
func NewCartService(repo repository.CartRepository, producer *event.Producer, products ProductLookup, logger *slog.Logger, saveTimeout time.Duration) *CartService {
	if saveTimeout <= 0 {
		saveTimeout = DefaultSaveTimeout
	}
	return &CartService{
		repo:        repo,
		producer:    producer,
		products:    products,
		logger:      logger,
		saveTimeout: saveTimeout,
		now:         time.Now,
		sessions:    make(map[string]*cartSession),
	}
}

// Store returns the live store for sessionID, creating it on first use.
func (s *CartService) Store(ctx context.Context, sessionID string) (*CartStore, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &cartSession{store: newCartStore(sessionID, s.repo, s.logger, s.saveTimeout)}
		s.sessions[sessionID] = sess
		cartSessionsActive.Set(float64(len(s.sessions)))
	}
	sess.lastUsed = s.now()
	s.mu.Unlock()

	return sess.store, nil
}

// Sweep drops the stores of sessions unused for longer than maxIdle and
// returns how many were dropped. A store whose last write failed is kept
// until the write is retried successfully, so it can still be rehydrated.
func (s *CartService) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	idle := make(map[string]*cartSession)
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			idle[id] = sess
		}
	}
	s.mu.Unlock()

	dropped := 0
	for id, sess := range idle {
		if !sess.store.Flush(ctx) {
			continue
		}
		s.mu.Lock()
		if s.sessions[id] == sess && sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	cartSessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *CartService) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx, maxIdle); n > 0 {
				s.logger.Debug("swept idle cart sessions", slog.Int("count", n))
			}
		}
	}
}

// Get returns the cart of sessionID.
func (s *CartService) Get(ctx context.Context, sessionID string) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return store.View(ctx), nil
}

// AddItem adds a line with caller-supplied display data.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (CartView, error) {
	if strings.TrimSpace(input.ID) == "" {
		return CartView{}, apperrors.InvalidInput("item id is required")
	}
	if input.Price.IsNegative() {
		return CartView{}, apperrors.InvalidInput("price must not be negative")
	}
	if input.Quantity > MaxQuantityPerRequest {
		return CartView{}, errQuantityTooLarge()
	}

	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	item := domain.LineItem{ID: input.ID, Name: input.Name, Price: input.Price, Image: input.Image}
	view := store.AddItem(ctx, item, input.Quantity)
	s.publishUpdated(ctx, sessionID, view)
	return view, nil
}

// AddProduct adds qty of a catalog product, capturing its current name,
// price and image. Sold-out products are rejected.
func (s *CartService) AddProduct(ctx context.Context, sessionID, productID string, qty int) (CartView, error) {
	if s.products == nil {
		return CartView{}, apperrors.Unavailable("catalog is not configured", nil)
	}
	if strings.TrimSpace(productID) == "" {
		return CartView{}, apperrors.InvalidInput("product id is required")
	}
	if qty > MaxQuantityPerRequest {
		return CartView{}, errQuantityTooLarge()
	}

	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if p.IsSoldOut {
		return CartView{}, apperrors.Conflict("product " + p.Name + " is sold out")
	}

	view := store.AddItem(ctx, p.LineItem(), qty)
	s.publishUpdated(ctx, sessionID, view)
	return view, nil
}

// RemoveItem removes a line from the cart of sessionID.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, id string) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	view := store.RemoveItem(ctx, id)
	s.publishUpdated(ctx, sessionID, view)
	return view, nil
}

// UpdateQuantity sets the quantity of a line. Non-positive quantities are
// accepted and ignored.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, id string, qty int) (CartView, error) {
	if qty > MaxQuantityPerRequest {
		return CartView{}, errQuantityTooLarge()
	}
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	view := store.UpdateQuantity(ctx, id, qty)
	s.publishUpdated(ctx, sessionID, view)
	return view, nil
}

// RemoveOrdered takes the lines of a placed order off the cart of sessionID.
func (s *CartService) RemoveOrdered(ctx context.Context, sessionID string, lines []domain.LineItem) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	view := store.RemoveOrdered(ctx, lines)
	if len(view.Items) > 0 {
		s.publishUpdated(ctx, sessionID, view)
		return view, nil
	}
	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.warnPublish(ctx, event.TopicCartCleared, err)
	}
	return view, nil
}

// Clear empties the cart of sessionID.
func (s *CartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	view := store.ClearCart(ctx)
	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.warnPublish(ctx, event.TopicCartCleared, err)
	}
	return view, nil
}

// Open shows the cart panel of sessionID.
func (s *CartService) Open(ctx context.Context, sessionID string) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return store.Open(ctx), nil
}

// Close hides the cart panel of sessionID.
func (s *CartService) Close(ctx context.Context, sessionID string) (CartView, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return store.Close(ctx), nil
}

func errQuantityTooLarge() error {
	return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerRequest))
}

func (s *CartService) publishUpdated(ctx context.Context, sessionID string, view CartView) {
	cart := domain.Cart{Items: view.Items}
	if err := s.producer.PublishCartUpdated(ctx, sessionID, &cart); err != nil {
		s.warnPublish(ctx, event.TopicCartUpdated, err)
	}
}

func (s *CartService) warnPublish(ctx context.Context, topic string, err error) {
	logger.WithContext(ctx, s.logger).Warn("failed to publish event",
		slog.String("topic", topic),
		slog.String("error", err.Error()),
	)
}
