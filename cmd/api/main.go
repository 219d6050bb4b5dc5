package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storeops-dev/backoffice-backend/api"
	"github.com/storeops-dev/backoffice-backend/api/routes"
	"github.com/storeops-dev/backoffice-backend/internal/audit"
	"github.com/storeops-dev/backoffice-backend/internal/cart"
	"github.com/storeops-dev/backoffice-backend/internal/catalog"
	"github.com/storeops-dev/backoffice-backend/internal/checkout"
	"github.com/storeops-dev/backoffice-backend/internal/orders"
	"github.com/storeops-dev/backoffice-backend/internal/stock"
	"github.com/storeops-dev/backoffice-backend/pkg/config"
	"github.com/storeops-dev/backoffice-backend/pkg/db"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/metrics"
	"github.com/storeops-dev/backoffice-backend/pkg/migrate"
	"github.com/storeops-dev/backoffice-backend/pkg/outbox"
	"github.com/storeops-dev/backoffice-backend/pkg/redis"
)

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

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	auditRecorder := audit.NewRecorder(gormDB)

	checkoutService, err := checkout.NewService(
		dbClient,
		cart.NewRepository(gormDB),
		catalog.NewRepository(gormDB),
		orders.NewRepository(gormDB),
		stock.NewLedger(),
		auditRecorder,
		outboxService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(gormDB), cart.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		DBPinger:         dbClient,
		RedisPinger:      redisClient,
		IdempotencyStore: redisClient,
		HTTPMetrics:      httpMetrics,
		MetricsGatherer:  registry,
		CheckoutService:  checkoutService,
		OrdersService:    ordersService,
		AuditRecorder:    auditRecorder,
	})

	server := api.NewServer(addr, handler, logg)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
