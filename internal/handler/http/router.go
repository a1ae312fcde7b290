package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mahir9011/Cupid-Crochy/internal/service"
	"github.com/Mahir9011/Cupid-Crochy/pkg/health"
	"github.com/Mahir9011/Cupid-Crochy/pkg/middleware"
)

// catalogMaxAge is the browser cache lifetime of catalog reads, in seconds.
const catalogMaxAge = 60

// Services groups the services exposed over HTTP.
type Services struct {
	Cart       *service.CartService
	Catalog    *service.CatalogService
	Categories *service.CategoryService
	Orders     *service.OrderService
	Settings   *service.SettingsService
}

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	ServiceName     string
	CORS            middleware.CORSConfig
	ValidateToken   middleware.TokenValidator
	AdminRoles      []string
	CheckoutLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, cfg RouterConfig, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Session)
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(svcs.Cart, logger)
	productHandler := NewProductHandler(svcs.Catalog, logger)
	categoryHandler := NewCategoryHandler(svcs.Categories, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	settingsHandler := NewSettingsHandler(svcs.Settings, logger)
	dashboardHandler := NewDashboardHandler(svcs.Orders, svcs.Catalog, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/open", cartHandler.OpenCart)
			r.Post("/close", cartHandler.CloseCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))

			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{id}", productHandler.GetProduct)
			r.Get("/tags", productHandler.ListTags)
			r.Get("/categories", categoryHandler.ListCategories)
			r.Get("/settings", settingsHandler.GetSettings)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.With(checkoutLimit(cfg.CheckoutLimiter, logger)).Post("/checkout", orderHandler.Checkout)
			r.Get("/orders/latest", orderHandler.LatestOrder)
			r.Get("/orders/{orderNumber}", orderHandler.TrackOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.Auth(cfg.ValidateToken))
			r.Use(middleware.RequireRole(cfg.AdminRoles...))

			r.Get("/stats", dashboardHandler.GetStats)

			r.Post("/products", productHandler.CreateProduct)
			r.Put("/products/{id}", productHandler.UpdateProduct)
			r.Delete("/products/{id}", productHandler.DeleteProduct)

			r.Post("/categories", categoryHandler.CreateCategory)
			r.Put("/categories/{id}", categoryHandler.UpdateCategory)
			r.Delete("/categories/{id}", categoryHandler.DeleteCategory)

			r.Get("/orders", orderHandler.ListOrders)
			r.Patch("/orders/{orderNumber}/status", orderHandler.UpdateOrderStatus)

			r.Put("/settings", settingsHandler.UpdateSettings)
		})
	})

	return r
}

func checkoutLimit(limiter *middleware.RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(limiter, logger)
}
