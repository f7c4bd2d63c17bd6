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
	"go.uber.org/multierr"

	"github.com/fortuneatelier/fortune-backend/api/controllers"
	"github.com/fortuneatelier/fortune-backend/api/routes"
	"github.com/fortuneatelier/fortune-backend/internal/checkout"
	"github.com/fortuneatelier/fortune-backend/internal/fortune"
	"github.com/fortuneatelier/fortune-backend/internal/fulfillment"
	"github.com/fortuneatelier/fortune-backend/internal/notifications"
	"github.com/fortuneatelier/fortune-backend/internal/orders"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	"github.com/fortuneatelier/fortune-backend/internal/report"
	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/db"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
	"github.com/fortuneatelier/fortune-backend/pkg/mailer"
	"github.com/fortuneatelier/fortune-backend/pkg/metrics"
	"github.com/fortuneatelier/fortune-backend/pkg/migrate"
	"github.com/fortuneatelier/fortune-backend/pkg/redis"
)

const (
	webhookScope    = "payment_webhook"
	shutdownTimeout = 15 * time.Second
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	readiness := map[string]controllers.Pinger{}

	var store orders.Store = orders.NewMemoryStore()
	if cfg.DB.Durable() {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		closers = append(closers, dbClient.Close)
		readiness["database"] = dbClient

		if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		store = orders.NewRepository(dbClient.DB())
	}

	var idemStore redis.IdempotencyStore = fulfillment.NewMemoryIdempotencyStore()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = redisClient
		idemStore = redisClient
	}
	guard, err := fulfillment.NewIdempotencyGuard(idemStore, cfg.Redis.WebhookIdempotencyTTL, webhookScope)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency guard", err)
		os.Exit(1)
	}

	provider, err := payments.NewProvider(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment provider", err)
		os.Exit(1)
	}

	var completer fortune.Completer
	if cfg.OpenAI.Enabled() {
		openai, err := fortune.NewOpenAICompleter(cfg.OpenAI)
		if err != nil {
			logg.Error(ctx, "failed to create text generator", err)
			os.Exit(1)
		}
		completer = openai
	} else {
		logg.Warn(ctx, "openai key not set, reports use template sections")
	}

	artifacts, err := report.NewArtifacts(cfg)
	if err != nil {
		logg.Error(ctx, "failed to prepare report storage", err)
		os.Exit(1)
	}
	reportsDir := ""
	if local, ok := artifacts.(*report.LocalArtifacts); ok {
		reportsDir = local.Dir()
	}

	sender, err := mailer.New(cfg.Mail, cfg.App.BrandName, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mailer", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewService(sender, cfg.App)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fulfillmentSvc, err := fulfillment.NewService(fulfillment.ServiceParams{
		Store:         store,
		Generator:     fortune.NewGenerator(completer, cfg.OpenAI.Timeout, logg),
		Renderer:      report.NewRenderer(report.Options{FontPath: cfg.Reports.FontPath, Logger: logg}),
		Artifacts:     artifacts,
		Notifier:      notifier,
		Guard:         guard,
		Metrics:       metrics.NewFulfillmentMetrics(registry),
		Logger:        logg,
		App:           cfg.App,
		NotifyTimeout: cfg.Mail.NotifyTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create fulfillment service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(provider, store, cfg.Order, logg)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(store)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"provider": provider.Name(),
		"storage":  cfg.Reports.Storage,
		"mail":     sender.Name(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			Checkout:    checkoutSvc,
			Orders:      ordersSvc,
			Fulfillment: fulfillmentSvc,
			Provider:    provider,
			Readiness:   readiness,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			ReportsDir:  reportsDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(logCtx), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	fulfillmentSvc.Wait()
	for i := len(closers) - 1; i >= 0; i-- {
		shutdownErr = multierr.Append(shutdownErr, closers[i]())
	}
	if shutdownErr != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", shutdownErr)
		exitCode = 1
	}
	os.Exit(exitCode)
}
