package http

import (
	"log/slog"
	"net/http"

	"github.com/Mahir9011/Cupid-Crochy/internal/service"
	"github.com/Mahir9011/Cupid-Crochy/pkg/httputil"
)

// DashboardHandler serves the admin dashboard summary.
type DashboardHandler struct {
	orders  *service.OrderService
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(orders *service.OrderService, catalog *service.CatalogService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		orders:  orders,
		catalog: catalog,
		logger:  logger,
	}
}

type dashboardResponse struct {
	service.OrderStats
	service.ProductStats
}

// GetStats handles GET /api/v1/admin/stats
//
// @Summary Order and catalog totals with the most recent entries
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/stats [get]
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, dashboardResponse{
		OrderStats:   orders,
		ProductStats: h.catalog.Stats(r.Context()),
	})
}
