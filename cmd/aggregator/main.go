package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"contest_aggregator/internal/cache"
	"contest_aggregator/internal/config"
	"contest_aggregator/internal/extraction"
	"contest_aggregator/internal/publisher"
	"contest_aggregator/internal/scheduler"
	"contest_aggregator/internal/server"
	"contest_aggregator/internal/service"
	"contest_aggregator/internal/source/cfblog"
	"contest_aggregator/internal/source/digitomize"
	"contest_aggregator/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	// Build sources: structured API first, extraction second, so
	// deduplication prefers the structured record when both announce the
	// same contest.
	extractor := extraction.NewClient(extraction.Config{
		BaseURL: cfg.Extraction.BaseURL,
		APIKey:  cfg.Extraction.APIKey,
		Model:   cfg.Extraction.Model,
		Timeout: cfg.Extraction.Timeout,
	}, logger)

	sources := []service.Source{
		digitomize.New(digitomize.Config{
			BaseURL:        cfg.ContestAPI.BaseURL,
			Timeout:        cfg.ContestAPI.Timeout,
			MaxAttempts:    cfg.ContestAPI.MaxAttempts,
			InitialBackoff: cfg.ContestAPI.InitialBackoff,
			MaxBackoff:     cfg.ContestAPI.MaxBackoff,
		}, logger),
		cfblog.New(cfblog.Config{
			FeedURL:     cfg.Feed.URL,
			Timeout:     cfg.Feed.Timeout,
			PageTimeout: cfg.Feed.PageTimeout,
		}, extractor, logger),
	}

	// Optional archive store
	var (
		contestStore service.ContestStore
		stateStore   service.RefreshStateStore
		txManager    service.TransactionManager
	)
	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		contestStore = postgres.NewContestStore(db)
		stateStore = postgres.NewRefreshStateStore(db)
		txManager = postgres.NewTransactionManager(db)
		logger.Info("contest archive enabled")
	}

	// Optional discovery publisher
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	contestCache := cache.New()
	aggregator := service.NewAggregator(sources, contestCache, contestStore, stateStore, txManager, pub, logger)
	sched := scheduler.NewScheduler(aggregator, cfg.Refresh.Interval, cfg.Refresh.Timeout, logger)

	mux := http.NewServeMux()
	server.New(contestCache, logger).Register(mux)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("contest aggregator started",
		"port", cfg.Server.Port,
		"refresh_interval", cfg.Refresh.Interval,
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
