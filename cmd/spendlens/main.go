package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/backend"
	"spendlens/internal/cache"
	"spendlens/internal/cli"
	"spendlens/internal/core"
	apphttp "spendlens/internal/http"
	applog "spendlens/internal/log"
	"spendlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// One slot: the whole record snapshot, dropped on every write.
	records := cache.NewLRUCache[[]core.Record](1, cfg.CacheTTL)
	var caches *cache.Manager
	if cfg.CacheTTL > 0 {
		caches = cache.NewManager()
		caches.Register(records)
		caches.StartCleanup(cfg.CacheTTL)
	}

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync events", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	settings := services.Settings{
		DateFormat:   cfg.DateFormat,
		InputFormats: cfg.DateInputFormats,
		Currency:     cfg.Currency,
		Locale:       cfg.DisplayLocale,
	}
	expenses := services.NewExpenseService(be.Repository, publisher, records, settings)
	an := services.NewAnalyticsService(be.Repository, records, settings)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Logger:            logger.WithComponent(applog.ComponentHTTP),
		Readiness:         be.Readiness,
	}, expenses, an)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if caches != nil {
			caches.Stop()
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := be.Close(); err != nil {
			logger.Warn("Backend close error", "error", err)
		}
	})

	logger.Info("Starting spendlens server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
