package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/client"
	"github.com/wenwu/saas-platform/marketplace-service/internal/config"
	"github.com/wenwu/saas-platform/marketplace-service/internal/db"
	httpapi "github.com/wenwu/saas-platform/marketplace-service/internal/http"
	"github.com/wenwu/saas-platform/marketplace-service/internal/logging"
	"github.com/wenwu/saas-platform/marketplace-service/internal/notification"
	"github.com/wenwu/saas-platform/marketplace-service/internal/repository"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"github.com/wenwu/saas-platform/marketplace-service/internal/wizard"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting marketplace service", zap.String("version", Version))

	ctx := context.Background()

	// Catalog
	provider, err := catalog.Load(catalog.OpenFS(cfg.Catalog.Dir), cfg.Catalog.HubVendorID)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Storage
	purchaseRepo, eventRepo, pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	// Wizard sessions
	sessionStore, rdb, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Payment gateway
	var gateway service.CheckoutGateway
	if cfg.Stripe.CheckoutEnabled() {
		stripeClient, err := client.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		if err != nil {
			return fmt.Errorf("init stripe: %w", err)
		}
		gateway = stripeClient
		if cfg.Stripe.WebhookSecret == "" {
			logger.Warn("STRIPE_WEBHOOK_SECRET is not set; payment webhooks will be rejected")
		}
	} else {
		logger.Warn("checkout disabled: set STRIPE_SECRET_KEY and STRIPE_PUBLISHABLE_KEY to enable payments")
	}

	// Services
	purchaseService := service.NewPurchaseService(purchaseRepo, eventRepo, provider, cfg.Stripe.Currency, logger)
	checkoutService := service.NewCheckoutService(gateway, purchaseRepo, eventRepo, provider, logger)
	notifier := notification.NewNotifier(
		notification.NewFormatter(cfg.Notification.Recipient),
		notification.NewSender(cfg.Notification, logger),
		purchaseRepo,
		eventRepo,
		logger,
	)
	wizardService := wizard.NewService(sessionStore, provider, purchaseService, notifier, checkoutService, wizard.Options{
		PublishableKey: cfg.Stripe.PublishableKey,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
	}, logger)

	// HTTP server
	server := httpapi.NewServer(cfg, provider, purchaseService, checkoutService, notifier, wizardService, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (
	repository.PurchaseRepository, repository.PurchaseEventRepository, *pgxpool.Pool, error,
) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory purchase storage; records are lost on restart")
		return repository.NewMemoryPurchaseRepository(), repository.NewMemoryPurchaseEventRepository(), nil, nil
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(&cfg.Database, logger); err != nil {
			return nil, nil, nil, err
		}
	}

	pool, err := db.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return repository.NewPostgresPurchaseRepository(pool), repository.NewPostgresPurchaseEventRepository(pool), pool, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (wizard.SessionStore, *redis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-memory wizard session store")
		return wizard.NewMemorySessionStore(cfg.Redis.SessionTTL), nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	return wizard.NewRedisSessionStore(rdb, cfg.Redis.SessionTTL), rdb, nil
}
