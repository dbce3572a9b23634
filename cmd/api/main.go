package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dkwapong/storefront-backend/api/routes"
	"github.com/dkwapong/storefront-backend/internal/accounts"
	"github.com/dkwapong/storefront-backend/internal/cart"
	"github.com/dkwapong/storefront-backend/internal/catalog"
	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/db"
	"github.com/dkwapong/storefront-backend/pkg/logger"
	"github.com/dkwapong/storefront-backend/pkg/metrics"
	"github.com/dkwapong/storefront-backend/pkg/migrate"
	"github.com/dkwapong/storefront-backend/pkg/phone"
	"github.com/dkwapong/storefront-backend/pkg/redis"
	"github.com/dkwapong/storefront-backend/pkg/storage/images"
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

	phoneClient, err := phone.NewClient(cfg.Phone, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create phone validation client", err)
		os.Exit(1)
	}

	imagesClient, err := images.NewClient(context.Background(), cfg.Images, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create image store client", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		UserRepo:       accounts.NewRepository(dbClient.DB()),
		Tx:             dbClient,
		PhoneValidator: phoneClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		ProductRepo:  catalog.NewProductRepo(dbClient.DB()),
		CategoryRepo: catalog.NewCategoryRepo(dbClient.DB()),
		Uploader:     imagesClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo:    cart.NewRepository(dbClient.DB()),
		Tx:          dbClient,
		ProductRepo: catalog.NewProductRepo(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			imagesClient,
			httpMetrics,
			accountsService,
			catalogService,
			cartService,
		),
	}

	errs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
		os.Exit(1)
	}
}
