package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/trogers1052/strategy-forge/internal/api"
	"github.com/trogers1052/strategy-forge/internal/cache"
	"github.com/trogers1052/strategy-forge/internal/config"
	"github.com/trogers1052/strategy-forge/internal/database"
	"github.com/trogers1052/strategy-forge/internal/engine"
	"github.com/trogers1052/strategy-forge/internal/kafka"
	"github.com/trogers1052/strategy-forge/internal/logging"
	"github.com/trogers1052/strategy-forge/internal/notify"
	"github.com/trogers1052/strategy-forge/internal/observability"
	"github.com/trogers1052/strategy-forge/internal/strategy"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg, observability.DefaultNamespace)

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}
	logger.Info("database ready", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	var prices engine.PriceSource = db
	var priceCache *cache.PriceCache
	if cfg.Redis.Enabled {
		client := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cache reads will fall through", "addr", cfg.Redis.Addr, "error", err)
		}
		priceCache = cache.NewPriceCache(client, db, cfg.Redis.TTL, logger)
		prices = priceCache
	}

	smtpCfg := notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		UseTLS:   cfg.SMTP.UseTLS,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.Recipients,
		Timeout:  cfg.SMTP.Timeout,
	}
	email := notify.NewEmailNotifier(smtpCfg)
	if !smtpCfg.Configured() {
		logger.Info("smtp not configured, signal emails disabled")
	}

	deps := engine.Deps{
		Prices:    prices,
		Registry:  db,
		Signals:   db,
		Notifier:  notify.NewMulti(logger, email),
		Generator: strategy.NewTemplateGenerator(),
		Metrics:   metrics,
		Logger:    logger,
	}

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SignalTopic)
		defer producer.Close()
		deps.Publisher = producer

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.MarketDataTopic, cfg.Kafka.GroupID, db, metrics, logger)
		if priceCache != nil {
			consumer.WithInvalidator(priceCache)
		}
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	eng := engine.New(engine.Config{
		DefaultInitialCapital: cfg.Engine.DefaultInitialCapital,
		SignalLookbackDays:    cfg.Engine.SignalLookbackDays,
	}, deps)

	router := api.SetupRoutes(api.NewHandler(eng, logger), api.Options{
		APIKey:         cfg.Server.APIKey,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        metrics,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "api_key_required", cfg.Server.APIKey != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}

	stop()
	wg.Wait()
	return serveErr
}
