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

	"gig-marketplace/internal/client"
	"gig-marketplace/internal/config"
	"gig-marketplace/internal/logger"
	"gig-marketplace/internal/metrics"
	"gig-marketplace/internal/repository"
	"gig-marketplace/internal/server"
	"gig-marketplace/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDBClient(cfg, log)
	if err != nil {
		return err
	}

	rdb, err := client.InitRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	lock := repository.NewNoopDeliveryLock()
	if rdb != nil {
		defer rdb.Close()
		lock = repository.NewRedisDeliveryLock(rdb)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPrometheusMetrics(reg, "marketplace")

	processor, err := client.NewStripeProcessor(&cfg.Stripe, m)
	if err != nil {
		return err
	}
	verifier, err := client.NewStripeEventVerifier(cfg.Stripe.WebhookSecret)
	if err != nil {
		return err
	}

	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	diagnostics := service.NewDiagnosticLogger(webhookLogRepo, log)
	reconciler := service.NewOrderReconciler(db, offerRepo, orderRepo, lock, diagnostics, m, log)

	srv := server.NewServer(cfg, log, reg, server.Services{
		Checkout: service.NewCheckoutService(processor, userRepo, service.CheckoutConfig{
			BaseURL:            cfg.BaseURL,
			Currency:           cfg.Stripe.Currency,
			PlatformFeePercent: cfg.Stripe.PlatformFeePercent,
		}, log),
		Webhook: service.NewWebhookService(verifier, reconciler, diagnostics, m, log),
		Offer:   service.NewOfferService(processor, offerRepo, cfg.Stripe.Currency, log),
		Seller:  service.NewSellerService(processor, userRepo, log),
		Order:   service.NewOrderService(orderRepo),
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	errCh := make(chan error, 1)

	log.Info("starting HTTP server", zap.String("addr", serverAddr), zap.String("env", cfg.Environment.Name))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("shutdown complete")
	return nil
}
