package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/marais-jewelry/marais-backend/api/routes"
	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/catalog"
	"github.com/marais-jewelry/marais-backend/internal/checkout"
	"github.com/marais-jewelry/marais-backend/internal/inventory"
	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/internal/orders"
	"github.com/marais-jewelry/marais-backend/internal/pricing"
	"github.com/marais-jewelry/marais-backend/internal/users"
	"github.com/marais-jewelry/marais-backend/pkg/config"
	"github.com/marais-jewelry/marais-backend/pkg/db"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
	"github.com/marais-jewelry/marais-backend/pkg/metrics"
	"github.com/marais-jewelry/marais-backend/pkg/migrate"
	"github.com/marais-jewelry/marais-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, storefrontMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Gatherer:    registry,
		}, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, storefrontMetrics *metrics.StorefrontMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	previews, err := pricing.NewRedisPreviewStore(redisClient, cfg.Pricing.PreviewTTL)
	if err != nil {
		return routes.Services{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	userRepo := users.NewRepository(conn)
	usersSvc, err := users.NewService(userRepo, ledgerSvc)
	if err != nil {
		return routes.Services{}, err
	}

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, catalog.Options{
		PerPage:      cfg.Storefront.CatalogPerPage,
		RelatedLimit: cfg.Storefront.RelatedLimit,
	})
	if err != nil {
		return routes.Services{}, err
	}

	stock, err := inventory.NewLedger(inventory.NewRepository(conn), logg)
	if err != nil {
		return routes.Services{}, err
	}

	orderRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orderRepo, dbClient, userRepo, ledgerSvc, storefrontMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, dbClient, catalogRepo, userRepo, previews, ordersSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:             dbClient,
		Carts:          cartRepo,
		Orders:         orderRepo,
		Accounts:       userRepo,
		Ledger:         ledgerSvc,
		Stock:          stock,
		Previews:       previews,
		Metrics:        storefrontMetrics,
		Logger:         logg,
		WhatsAppNumber: cfg.Storefront.WhatsAppNumber,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Users:    usersSvc,
	}, nil
}
