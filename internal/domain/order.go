package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Order status constants.
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Order is a placed storefront order.
type Order struct {
	ID          int64       `json:"id,omitempty"`
	OrderNumber string      `json:"order_number"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	City        string      `json:"city"`
	Notes       string      `json:"notes"`
	Subtotal    Money       `json:"subtotal"`
	Shipping    Money       `json:"shipping"`
	Total       Money       `json:"total"`
	Status      string      `json:"status"`
	Date        time.Time   `json:"date"`
	Items       []OrderItem `json:"items"`

	// Synced is false for orders only retained in the fallback cache.
	Synced bool `json:"synced"`
}

// OrderItem is one purchased line of an order.
type OrderItem struct {
	OrderID   int64  `json:"order_id,omitempty"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

// CheckoutInput is the customer form submitted at checkout.
type CheckoutInput struct {
	Email   string `json:"email" validate:"required,email,max=255"`
	Name    string `json:"name" validate:"required,notblank,max=255"`
	Address string `json:"address" validate:"required,notblank,max=1000"`
	Phone   string `json:"phone" validate:"required,notblank,max=50"`
	City    string `json:"city" validate:"max=100"`
	Notes   string `json:"notes" validate:"max=2000"`
}

// UpdateOrderStatusInput changes the status of an order.
type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required,oneof=Processing Shipped Delivered Cancelled"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// Matches reports whether o passes f. Search is case-insensitive over the
// order number, customer name and email.
func (f OrderFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.OrderNumber), q) ||
		strings.Contains(strings.ToLower(o.Name), q) ||
		strings.Contains(strings.ToLower(o.Email), q)
}

// ValidStatuses returns all order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// TrackingStep maps a status to its position on the tracking bar:
// Processing 1, Shipped 2, Delivered 3, anything else 0.
func TrackingStep(status string) int {
	switch status {
	case OrderStatusProcessing:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	default:
		return 0
	}
}

// NewOrderNumber formats ORD-<unix ms>-<0..999>.
func NewOrderNumber(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), rand.IntN(1000)))
}

// ItemsFromCart converts cart lines into order items.
func ItemsFromCart(lines []LineItem) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID: l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Image:     l.Image,
			Quantity:  l.Quantity,
		})
	}
	return items
}
