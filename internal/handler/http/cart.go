package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/service"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/httputil"
	"github.com/Mahir9011/Cupid-Crochy/pkg/middleware"
	"github.com/Mahir9011/Cupid-Crochy/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest adds a catalog product by product_id, or an explicit line
// by id with its display data.
type AddItemRequest struct {
	ProductID string        `json:"product_id" validate:"omitempty,max=100"`
	ID        string        `json:"id" validate:"omitempty,max=100"`
	Name      string        `json:"name" validate:"max=255"`
	Price     *domain.Money `json:"price"`
	Image     string        `json:"image" validate:"max=2048"`
	Quantity  int           `json:"quantity" validate:"gte=0,lte=100"`
}

// UpdateQuantityRequest is the JSON request body for updating an item's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), middleware.SessionIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	sessionID := middleware.SessionIDFromRequest(r)

	var (
		view service.CartView
		err  error
	)
	switch {
	case strings.TrimSpace(req.ProductID) != "":
		view, err = h.service.AddProduct(r.Context(), sessionID, req.ProductID, req.Quantity)
	case strings.TrimSpace(req.ID) != "":
		if req.Price == nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("price is required"), h.logger)
			return
		}
		view, err = h.service.AddItem(r.Context(), sessionID, service.AddItemInput{
			ID:       req.ID,
			Name:     req.Name,
			Price:    *req.Price,
			Image:    req.Image,
			Quantity: req.Quantity,
		})
	default:
		err = apperrors.InvalidInput("product_id or id is required")
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), middleware.SessionIDFromRequest(r), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveItem(r.Context(), middleware.SessionIDFromRequest(r), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Clear(r.Context(), middleware.SessionIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// OpenCart handles POST /api/v1/cart/open
func (h *CartHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Open(r.Context(), middleware.SessionIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// CloseCart handles POST /api/v1/cart/close
func (h *CartHandler) CloseCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Close(r.Context(), middleware.SessionIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}
