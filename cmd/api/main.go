package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gymhub-backend/api/routes"
	"github.com/angelmondragon/gymhub-backend/internal/accounts"
	"github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/internal/payments"
	"github.com/angelmondragon/gymhub-backend/internal/plans"
	"github.com/angelmondragon/gymhub-backend/internal/refunds"
	paystackwebhook "github.com/angelmondragon/gymhub-backend/internal/webhooks/paystack"
	"github.com/angelmondragon/gymhub-backend/pkg/auth/session"
	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/db"
	"github.com/angelmondragon/gymhub-backend/pkg/env"
	"github.com/angelmondragon/gymhub-backend/pkg/instance"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/metrics"
	"github.com/angelmondragon/gymhub-backend/pkg/migrate"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
	"github.com/angelmondragon/gymhub-backend/pkg/redis"
)

const webhookIdempotencyScope = "paystack-webhook"

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}
	sessionIssuer, err := session.NewIssuer(sessionManager, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session issuer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gatewayMetrics := metrics.NewGatewayMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	paystackClient, err := paystack.NewClient(cfg.Paystack, logg, paystack.WithObserver(gatewayMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	accountService, err := accounts.NewService(accounts.ServiceParams{
		Repo:           accounts.NewRepository(dbClient.DB()),
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	planRepo := plans.NewRepository(dbClient.DB())
	planService, err := plans.NewService(plans.ServiceParams{
		Repo:            planRepo,
		Gateway:         paystackClient,
		DefaultCurrency: cfg.Billing.Currency,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create plans service", err)
		os.Exit(1)
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:   billingRepo,
		DB:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	registrationFee, err := cfg.Billing.RegistrationFeeAmount()
	if err != nil {
		logg.Error(context.Background(), "invalid registration fee", err)
		os.Exit(1)
	}
	verifyService, err := payments.NewService(payments.ServiceParams{
		Gateway:         paystackClient,
		Plans:           planRepo,
		Accounts:        accountService,
		Billing:         billingService,
		Sessions:        sessionIssuer,
		RegistrationFee: registrationFee,
		Currency:        cfg.Billing.Currency,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	refundService, err := refunds.NewService(refunds.ServiceParams{
		Repo:    billingRepo,
		DB:      dbClient,
		Gateway: paystackClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}

	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Accounts: accountService,
		Plans:    planRepo,
		Billing:  billingService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := paystackwebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, webhookIdempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"gateway":  cfg.Paystack.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			sessionManager,
			metricsHandler,
			accountService,
			planService,
			verifyService,
			refundService,
			webhookService,
			paystackClient.SecretKey(),
			webhookGuard,
			webhookMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
