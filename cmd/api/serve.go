package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-payments/config"
	httpHandler "storefront-payments/internal/adapter/http/handler"
	"storefront-payments/internal/adapter/messaging/kafka"
	"storefront-payments/internal/adapter/paypal"
	pgStorage "storefront-payments/internal/adapter/storage/postgres"
	redisStorage "storefront-payments/internal/adapter/storage/redis"
	"storefront-payments/internal/core/ports"
	"storefront-payments/internal/metrics"
	"storefront-payments/internal/service"
	"storefront-payments/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load configLoader) *cobra.Command {
	var withRelay bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (webhooks, checkout callbacks, operator API)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServe(cmd.Context(), cfg, withRelay)
		},
	}
	cmd.Flags().BoolVar(&withRelay, "with-relay", false, "also run the outbox relay in this process")
	return cmd
}

func newMetricsRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg)
}

func runServe(parent context.Context, cfg *config.Config, withRelay bool) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting storefront payments")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	reg, m := newMetricsRegistry()

	// Initialize repositories
	orderRepo := pgStorage.NewOrderRepo(pool)
	outboxRepo := pgStorage.NewOutboxRepo(pool)
	operatorRepo := pgStorage.NewOperatorRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	verifier := paypal.NewClient(cfg.PayPal, &http.Client{}, log)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	webhookSvc := service.NewWebhookService(orderRepo, outboxRepo, transactor, verifier, service.NewReconciler(), m,
		service.WebhookOptions{
			WebhookID:         cfg.PayPal.WebhookID,
			MaxCommitAttempts: cfg.Webhook.MaxCommitAttempts,
		}, log)
	checkoutSvc := service.NewCheckoutService(redisStorage.NewCheckoutStateStore(rdb), cfg.Checkout.StateTTL, log)
	orderSvc := service.NewOrderQueryService(orderRepo)
	authSvc := service.NewAuthService(operatorRepo, hashSvc, tokenSvc)

	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WebhookSvc:     webhookSvc,
		CheckoutSvc:    checkoutSvc,
		OrderSvc:       orderSvc,
		AuthSvc:        authSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Checkout: httpHandler.CheckoutOptions{
			CookieName:   cfg.Checkout.CookieName,
			CookieSecure: cfg.Checkout.CookieSecure,
			SessionTTL:   cfg.Checkout.StateTTL,
		},
		MaxBodyBytes:     cfg.Webhook.MaxBodyBytes,
		WebhookRateLimit: cfg.Webhook.RateLimit,
		Logger:           log,
	})

	relayDone := make(chan error, 1)
	if withRelay {
		writer := kafka.NewWriter(cfg.Kafka)
		publisher := kafka.NewPublisher(writer, log)
		defer publisher.Close()

		relay := service.NewOutboxRelay(outboxRepo, transactor, publisher, m, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, log)
		go func() { relayDone <- relay.Run(ctx) }()
	} else {
		relayDone <- nil
	}

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()
	if err := <-relayDone; err != nil {
		log.Error().Err(err).Msg("outbox relay stopped with error")
	}

	log.Info().Msg("Server exited")
	return nil
}

func newRelayCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Publish committed payment events from the outbox to Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
			return runRelay(cmd.Context(), cfg, log)
		},
	}
}

func runRelay(parent context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	_, m := newMetricsRegistry()
	publisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka), log)
	defer publisher.Close()

	relay := service.NewOutboxRelay(pgStorage.NewOutboxRepo(pool), pgStorage.NewTransactor(pool), publisher, m,
		cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, log)
	return relay.Run(ctx)
}
