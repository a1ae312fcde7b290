// Package main seeds the hosted backend with the demo catalog, the default
// categories and the default site settings. Running it twice is harmless:
// product IDs are derived from product names and existing rows are skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Mahir9011/Cupid-Crochy/internal/auth"
	"github.com/Mahir9011/Cupid-Crochy/internal/config"
	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/internal/repository/postgres"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
	"github.com/Mahir9011/Cupid-Crochy/pkg/logger"
)

// productNamespace derives stable product IDs from product names.
var productNamespace = uuid.MustParse("5f1c8a52-8d0e-4b8f-9a3e-6c2d1b7e4f10")

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

type productDef struct {
	name     string
	price    string
	image    string
	category string
	tags     []string
	isNew    bool
	soldOut  bool
}

var catalog = []productDef{
	{
		name: "Daisy Tote Bag", price: "89.99", category: "Tote", isNew: true,
		image: "https://images.unsplash.com/photo-1590874103328-eac38a683ce7?w=500&q=80",
		tags:  []string{"floral", "summer", "everyday"},
	},
	{
		name: "Summer Crossbody", price: "64.99", category: "Crossbody",
		image: "https://images.unsplash.com/photo-1566150905458-1bf1fc113f0d?w=500&q=80",
		tags:  []string{"summer", "travel"},
	},
	{
		name: "Boho Bucket Bag", price: "79.99", category: "Bucket", isNew: true,
		image: "https://images.unsplash.com/photo-1591561954557-26941169b49e?w=500&q=80",
		tags:  []string{"boho", "drawstring"},
	},
	{
		name: "Mini Clutch", price: "49.99", category: "Clutch",
		image: "https://images.unsplash.com/photo-1584917865442-de89df76afd3?w=500&q=80",
		tags:  []string{"evening", "mini"},
	},
	{
		name: "Pastel Shoulder Bag", price: "69.99", category: "Shoulder",
		image: "https://images.unsplash.com/photo-1575032617751-6ddec2089882?w=500&q=80",
		tags:  []string{"pastel", "everyday"},
	},
	{
		name: "Floral Handbag", price: "94.99", category: "Handbag", soldOut: true,
		image: "https://images.unsplash.com/photo-1566150905458-1bf1fc113f0d?w=500&q=80",
		tags:  []string{"floral", "gift"},
	},
}

func (d productDef) product(now time.Time) *domain.Product {
	return &domain.Product{
		ID:               uuid.NewSHA1(productNamespace, []byte(d.name)).String(),
		Name:             d.name,
		Price:            domain.MustMoney(d.price),
		Image:            d.image,
		Category:         d.category,
		Tags:             d.tags,
		IsNew:            d.isNew,
		IsSoldOut:        d.soldOut,
		Description:      fmt.Sprintf("Handmade %s crocheted from soft cotton yarn.", d.name),
		Features:         []string{"100% cotton yarn", "Fully lined interior", "Handmade"},
		CareInstructions: []string{"Hand wash cold", "Lay flat to dry"},
		AdditionalImages: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// --------------------------------------------------------------------------
// main
// --------------------------------------------------------------------------

func main() {
	adminToken := flag.Bool("admin-token", false, "print an admin access token after seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *adminToken {
		mgr, err := auth.NewManager(cfg.JWTSecret, auth.DefaultExpiry)
		if err != nil {
			log.Error("cannot issue admin token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		token, err := mgr.Issue("seed-admin", "", "admin")
		if err != nil {
			log.Error("cannot issue admin token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPassword
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSLMode

	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Categories
	categories := postgres.NewCategoryRepository(pool)
	for _, c := range domain.DefaultCategories() {
		err := categories.Create(ctx, &c)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			log.Info("category exists, skipped", slog.String("slug", c.Slug))
		case err != nil:
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		default:
			log.Info("category seeded", slog.String("slug", c.Slug), slog.Int64("id", c.ID))
		}
	}

	// Products
	products := postgres.NewProductRepository(pool)
	now := time.Now().UTC()
	for i, def := range catalog {
		// Older entries get older timestamps so the catalog keeps this order.
		p := def.product(now.Add(-time.Duration(i) * time.Minute))
		err := products.Create(ctx, p)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			log.Info("product exists, skipped", slog.String("name", p.Name))
		case err != nil:
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		default:
			log.Info("product seeded", slog.String("name", p.Name), slog.String("id", p.ID))
		}
	}

	// Settings
	settings := postgres.NewSettingsRepository(pool)
	if _, err := settings.Get(ctx); errors.Is(err, apperrors.ErrNotFound) {
		defaults := domain.DefaultSiteSettings()
		if err := settings.Save(ctx, &defaults); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		log.Info("default settings seeded")
	} else if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	log.Info("seed complete",
		slog.Int("products", len(catalog)),
		slog.Int("categories", len(domain.DefaultCategories())),
	)
	return nil
}
