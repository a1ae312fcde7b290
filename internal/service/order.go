package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/event"
	"github.com/Mahir9011/Cupid-Crochy/internal/fallback"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
	"github.com/Mahir9011/Cupid-Crochy/pkg/pagination"
	"github.com/Mahir9011/Cupid-Crochy/pkg/validator"
)

// TrackedOrder is an order with its position on the tracking bar.
type TrackedOrder struct {
	Order *domain.Order `json:"order"`
	Step  int           `json:"step"`
}

// RecentLimit is how many recent orders and products the dashboard shows.
const RecentLimit = 5

// OrderStats summarizes the orders for the admin dashboard.
type OrderStats struct {
	TotalOrders   int            `json:"total_orders"`
	PendingOrders int            `json:"pending_orders"`
	TotalRevenue  domain.Money   `json:"total_revenue"`
	RecentOrders  []domain.Order `json:"recent_orders"`
}

// OrderService implements checkout, order tracking and order administration.
type OrderService struct {
	repo        repository.OrderRepository
	carts       *CartService
	cache       *fallback.Cache
	producer    *event.Producer
	breaker     *breaker.Breaker
	shippingFee domain.Money
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. repo may be nil, in which
// case orders are only retained in the fallback cache.
func NewOrderService(
	repo repository.OrderRepository,
	carts *CartService,
	cache *fallback.Cache,
	producer *event.Producer,
	b *breaker.Breaker,
	shippingFee domain.Money,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:        repo,
		carts:       carts,
		cache:       cache,
		producer:    producer,
		breaker:     b,
		shippingFee: shippingFee,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder turns the cart of sessionID into an order. The order is written
// to the backend, or retained locally when the backend is unreachable. Once
// the order is stored its lines are taken off the cart; items added while
// the order was being written stay in the cart.
func (s *OrderService) PlaceOrder(ctx context.Context, sessionID string, input *domain.CheckoutInput) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	store, err := s.carts.Store(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines := store.Items(ctx)
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	cart := domain.Cart{Items: lines}
	subtotal := cart.Total()
	order := &domain.Order{
		OrderNumber: domain.NewOrderNumber(s.now()),
		Email:       input.Email,
		Name:        input.Name,
		Address:     input.Address,
		Phone:       input.Phone,
		City:        input.City,
		Notes:       input.Notes,
		Subtotal:    subtotal,
		Shipping:    s.shippingFee,
		Total:       subtotal.Add(s.shippingFee),
		Status:      domain.OrderStatusProcessing,
		Date:        s.now().UTC(),
		Items:       domain.ItemsFromCart(lines),
	}

	log := logger.WithContext(ctx, s.logger)

	_, err = callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, order)
	})
	switch {
	case err == nil:
		order.Synced = true
	case shouldFallback(err):
		logFallback(ctx, s.logger, "create_order", err)
		order.Synced = false
		if cacheErr := s.cache.AppendOrder(ctx, *order); cacheErr != nil {
			log.Error("failed to retain order locally",
				slog.String("order_number", order.OrderNumber),
				slog.String("error", cacheErr.Error()),
			)
			return nil, apperrors.Unavailable("order could not be stored, please try again", err)
		}
	default:
		return nil, err
	}

	if _, err := s.carts.RemoveOrdered(ctx, sessionID, lines); err != nil {
		log.Warn("failed to empty cart after checkout", slog.String("error", err.Error()))
	}
	if err := s.cache.SetLatestOrderID(ctx, sessionID, order.OrderNumber); err != nil {
		log.Warn("failed to record latest order", slog.String("error", err.Error()))
	}
	if err := s.producer.PublishOrderPlaced(ctx, sessionID, order); err != nil {
		log.Warn("failed to publish event",
			slog.String("topic", event.TopicOrderPlaced),
			slog.String("error", err.Error()),
		)
	}

	log.Info("order placed",
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.Total.String()),
		slog.Bool("synced", order.Synced),
	)
	return order, nil
}

// Track looks up an order by number in the backend and then among the
// locally retained orders.
func (s *OrderService) Track(ctx context.Context, orderNumber string) (*TrackedOrder, error) {
	o, err := s.find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return &TrackedOrder{Order: o, Step: domain.TrackingStep(o.Status)}, nil
}

// LatestOrderID returns the number of the last order placed by sessionID.
func (s *OrderService) LatestOrderID(ctx context.Context, sessionID string) (string, error) {
	id := s.cache.LatestOrderID(ctx, sessionID)
	if id == "" {
		return "", apperrors.NotFound("latest order", sessionID)
	}
	return id, nil
}

// List returns one page of orders matching filter, newest first. Orders only
// retained locally are merged in.
func (s *OrderService) List(ctx context.Context, filter domain.OrderFilter) (pagination.Result[domain.Order], error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return pagination.Result[domain.Order]{}, apperrors.InvalidInput("invalid order status: " + filter.Status)
	}

	orders, err := s.all(ctx)
	if err != nil {
		return pagination.Result[domain.Order]{}, err
	}

	matched := make([]domain.Order, 0, len(orders))
	for i := range orders {
		if filter.Matches(&orders[i]) {
			matched = append(matched, orders[i])
		}
	}
	return pagination.Slice(matched, pagination.New(filter.Page, filter.PerPage)), nil
}

// Stats summarizes every order, including the ones only retained locally.
// Revenue is the sum of order totals regardless of status.
func (s *OrderService) Stats(ctx context.Context) (OrderStats, error) {
	orders, err := s.all(ctx)
	if err != nil {
		return OrderStats{}, err
	}

	stats := OrderStats{
		TotalOrders:  len(orders),
		TotalRevenue: domain.Zero,
		RecentOrders: orders[:min(len(orders), RecentLimit)],
	}
	for i := range orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(orders[i].Total)
		if orders[i].Status == domain.OrderStatusProcessing {
			stats.PendingOrders++
		}
	}
	return stats, nil
}

// UpdateStatus changes the status of an order, in the backend when it holds
// the order and in the local copy otherwise.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber, status string) (*domain.Order, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput("invalid order status: " + status)
	}

	var oldStatus string
	updated, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.Order, error) {
		o, err := s.repo.GetByNumber(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		oldStatus = o.Status
		if err := s.repo.UpdateStatus(ctx, orderNumber, status); err != nil {
			return nil, err
		}
		o.Status = status
		return o, nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !shouldFallback(err) {
			return nil, err
		}
		if shouldFallback(err) {
			logFallback(ctx, s.logger, "update_order_status", err)
		}

		updated, err = s.cache.UpdateOrder(ctx, orderNumber, func(o *domain.Order) {
			oldStatus = o.Status
			o.Status = status
		})
		if err != nil {
			return nil, err
		}
	}

	log := logger.WithContext(ctx, s.logger)
	if err := s.producer.PublishOrderStatusChanged(ctx, orderNumber, oldStatus, status); err != nil {
		log.Warn("failed to publish event",
			slog.String("topic", event.TopicOrderStatusChanged),
			slog.String("error", err.Error()),
		)
	}
	log.Info("order status updated",
		slog.String("order_number", orderNumber),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)
	return updated, nil
}

// SyncPending writes locally retained orders to the backend and drops the
// local copies that did not change meanwhile. An order the backend already
// holds gets the retained status. It returns how many orders were written.
func (s *OrderService) SyncPending(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}

	var synced []domain.Order
	for _, o := range s.cache.Orders(ctx) {
		if o.Synced {
			continue
		}
		o.Synced = true
		_, err := callBackend(ctx, s.breaker, true, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.pushOrder(ctx, &o)
		})
		if err != nil {
			if len(synced) > 0 {
				break
			}
			return 0, err
		}
		synced = append(synced, o)
	}

	if len(synced) == 0 {
		return 0, nil
	}
	removed, err := s.cache.RemoveOrders(ctx, synced)
	if err != nil {
		return 0, err
	}

	logger.WithContext(ctx, s.logger).Info("synced retained orders",
		slog.Int("count", len(synced)),
		slog.Int("removed", removed),
	)
	return len(synced), nil
}

func (s *OrderService) pushOrder(ctx context.Context, o *domain.Order) error {
	err := s.repo.Create(ctx, o)
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return err
	}
	return s.repo.UpdateStatus(ctx, o.OrderNumber, o.Status)
}

// RunSync calls SyncPending every interval until ctx is done.
func (s *OrderService) RunSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SyncPending(ctx); err != nil {
				s.logger.Debug("order sync skipped", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *OrderService) find(ctx context.Context, orderNumber string) (*domain.Order, error) {
	o, err := callBackend(ctx, s.breaker, s.repo != nil, func(ctx context.Context) (*domain.Order, error) {
		return s.repo.GetByNumber(ctx, orderNumber)
	})
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) && !shouldFallback(err) {
		return nil, err
	}
	if shouldFallback(err) {
		logFallback(ctx, s.logger, "get_order", err)
	}

	for _, cached := range s.cache.Orders(ctx) {
		if cached.OrderNumber == orderNumber {
			return &cached, nil
		}
	}
	return nil, apperrors.NotFound("order", orderNumber)
}

// all returns the backend orders merged with the locally retained ones,
// newest first. A backend order wins over a local copy with the same number.
func (s *OrderService) all(ctx context.Context) ([]domain.Order, error) {
	orders, err := callBackend(ctx, s.breaker, s.repo != nil, s.repoList)
	if err != nil {
		if !shouldFallback(err) {
			return nil, err
		}
		logFallback(ctx, s.logger, "list_orders", err)
		orders = nil
	}

	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		seen[o.OrderNumber] = struct{}{}
	}
	for _, o := range s.cache.Orders(ctx) {
		if _, dup := seen[o.OrderNumber]; !dup {
			orders = append(orders, o)
		}
	}
	if orders == nil {
		orders = make([]domain.Order, 0)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date.After(orders[j].Date)
	})
	return orders, nil
}

func (s *OrderService) repoList(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}
