package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pricecart/pricecart/internal/api"
	"github.com/pricecart/pricecart/internal/browser"
	"github.com/pricecart/pricecart/internal/config"
	"github.com/pricecart/pricecart/internal/database"
	"github.com/pricecart/pricecart/internal/jobs"
	"github.com/pricecart/pricecart/internal/processor"
	"github.com/pricecart/pricecart/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.MaxConnLife,
		MaxConnIdle: cfg.Database.MaxConnIdle,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	relay := database.NewRelay(db, redisClient, logger, database.RelayConfig{
		PollInterval: cfg.Redis.RelayPollInterval,
		BatchSize:    cfg.Redis.RelayBatchSize,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay stopped with error", "error", err)
		}
	}()

	retention := database.NewRetention(db, cfg.Retention.Window)
	go func() {
		if err := retention.Start(ctx, cfg.Retention.Interval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("retention stopped with error", "error", err)
		}
	}()

	browserOpts := browserOptions(cfg.Browser)
	proc := processor.New(database.NewCatalogRepo(db))

	jobQueue := queue.NewInMemoryQueue()
	defer jobQueue.Close()

	scheduler := jobs.NewScheduler(db, jobQueue, cfg.Jobs.ScheduleInterval)
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped with error", "error", err)
		}
	}()

	pool := jobs.NewPool(jobQueue, db,
		jobs.ScrapeRunner(browserOpts, cfg.Jobs.RunTimeout),
		proc.Process,
		cfg.Jobs.Workers)
	go func() {
		if err := pool.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker pool stopped with error", "error", err)
		}
	}()

	handlers := api.NewHandlers(db, scheduler, relay, logger)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func browserOptions(cfg config.BrowserConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.Timeout = cfg.Timeout
	opts.ViewportWidth = cfg.ViewportWidth
	opts.ViewportHeight = cfg.ViewportHeight
	opts.Locale = cfg.Locale
	opts.TimezoneID = cfg.TimezoneID
	opts.DelayMin = cfg.DelayMin
	opts.DelayMax = cfg.DelayMax
	opts.RetryBaseDelay = cfg.RetryBaseDelay
	return opts
}
