package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Mahir9011/Cupid-Crochy/internal/auth"
	"github.com/Mahir9011/Cupid-Crochy/internal/config"
	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/event"
	"github.com/Mahir9011/Cupid-Crochy/internal/fallback"
	handler "github.com/Mahir9011/Cupid-Crochy/internal/handler/http"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository/memory"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository/postgres"
	redisrepo "github.com/Mahir9011/Cupid-Crochy/internal/repository/redis"
	"github.com/Mahir9011/Cupid-Crochy/internal/service"
	"github.com/Mahir9011/Cupid-Crochy/pkg/breaker"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	"github.com/Mahir9011/Cupid-Crochy/pkg/health"
	pkgkafka "github.com/Mahir9011/Cupid-Crochy/pkg/kafka"
	"github.com/Mahir9011/Cupid-Crochy/pkg/middleware"
	"github.com/Mahir9011/Cupid-Crochy/pkg/tracing"
)

// ServiceName identifies the storefront in logs, metrics and traces.
const ServiceName = "storefront"

const (
	cartSweepInterval  = 10 * time.Minute
	cartMaxIdle        = time.Hour
	orderSyncInterval  = time.Minute
	rateLimiterTTL     = 10 * time.Minute
	slowQueryThreshold = 200 * time.Millisecond
)

var errAdminDisabled = errors.New("admin api disabled: no jwt secret configured")

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error

	carts   *service.CartService
	orders  *service.OrderService
	limiter *middleware.RateLimiter

	httpServer *http.Server
}

// repositories holds the backend ports. Every field is nil when the service
// runs from the fallback cache only.
type repositories struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	orders     repository.OrderRepository
	settings   repository.SettingsRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing.
	tcfg := tracing.DefaultConfig(ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Enabled = cfg.OTELEnabled
	shutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	// Hosted backend.
	var repos repositories
	if cfg.BackendEnabled {
		pool, err := a.connectBackend(ctx)
		if err != nil {
			logger.Warn("backend unreachable, serving from fallback cache",
				slog.String("error", err.Error()),
			)
		} else {
			a.pool = pool
			repos = repositories{
				products:   postgres.NewProductRepository(pool),
				categories: postgres.NewCategoryRepository(pool),
				orders:     postgres.NewOrderRepository(pool),
				settings:   postgres.NewSettingsRepository(pool),
			}
			healthHandler.RegisterNonCritical("postgres", func(ctx context.Context) error {
				return pool.Ping(ctx)
			})
		}
	} else {
		logger.Info("backend disabled, serving from fallback cache")
	}

	// Cart persistence and fallback cache.
	var (
		cartRepo repository.CartRepository
		kv       repository.KVStore
	)
	switch cfg.FallbackStore {
	case config.FallbackRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			a.closeBackend()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		a.rdb = rdb
		cartRepo = redisrepo.NewCartRepository(rdb, cfg.CartTTL())
		kv = redisrepo.NewKVStore(rdb)
		healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	default:
		logger.Warn("using in-memory fallback store; carts do not survive restarts")
		cartRepo = memory.NewCartRepository()
		kv = memory.NewKVStore()
	}
	cache := fallback.New(kv, logger)

	// Kafka producer. A nil Publisher drops events.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Build the dependency graph.
	bcfg := breaker.DefaultConfig("backend")
	bcfg.Timeout = cfg.BreakerTimeout()
	backendBreaker := breaker.New(bcfg, logger)

	catalog := service.NewCatalogService(repos.products, cache, backendBreaker, logger)
	a.carts = service.NewCartService(cartRepo, eventProducer, catalog, logger, cfg.CartSaveTimeout())
	shippingFee := domain.NewMoney(cfg.ShippingFeeAmount())
	a.orders = service.NewOrderService(repos.orders, a.carts, cache, eventProducer, backendBreaker, shippingFee, logger)

	svcs := handler.Services{
		Cart:       a.carts,
		Catalog:    catalog,
		Categories: service.NewCategoryService(repos.categories, backendBreaker, logger),
		Orders:     a.orders,
		Settings:   service.NewSettingsService(repos.settings, cache, backendBreaker, logger),
	}

	a.limiter = middleware.NewRateLimiter(cfg.CheckoutRateLimitRPS, cfg.CheckoutRateLimitBurst, rateLimiterTTL)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(svcs, handler.RouterConfig{
		ServiceName:     ServiceName,
		CORS:            cors,
		ValidateToken:   tokenValidator(cfg, logger),
		AdminRoles:      cfg.AdminRoles,
		CheckoutLimiter: a.limiter,
	}, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func (a *App) connectBackend(ctx context.Context) (*pgxpool.Pool, error) {
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = a.cfg.PostgresHost
	pgCfg.Port = a.cfg.PostgresPort
	pgCfg.User = a.cfg.PostgresUser
	pgCfg.Password = a.cfg.PostgresPassword
	pgCfg.DBName = a.cfg.PostgresDB
	pgCfg.SSLMode = a.cfg.PostgresSSLMode

	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
		a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}
	database.SetSlowQueryLogging(slowQueryThreshold, a.logger)
	return pool, nil
}

// tokenValidator returns the admin token check. Without a secret every token
// is rejected.
func tokenValidator(cfg *config.Config, logger *slog.Logger) middleware.TokenValidator {
	mgr, err := auth.NewManager(cfg.JWTSecret, auth.DefaultExpiry)
	if err != nil {
		logger.Warn("admin api disabled", slog.String("error", err.Error()))
		return func(string) (*middleware.Claims, error) {
			return nil, errAdminDisabled
		}
	}
	return mgr.Validate
}

// Run starts the HTTP server and background workers, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go a.carts.Run(workerCtx, cartSweepInterval, cartMaxIdle)
	go a.orders.RunSync(workerCtx, orderSyncInterval)
	go a.limiter.Run(workerCtx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		stopWorkers()
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.closeBackend()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeBackend() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
