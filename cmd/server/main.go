package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"comore/internal/config"
	"comore/internal/feedparser"
	"comore/internal/feeds"
	"comore/internal/ingest"
	"comore/internal/opengraph"
	"comore/internal/publisher"
	"comore/internal/scheduler"
	"comore/internal/server"
	"comore/internal/storage/postgres"
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

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher when enabled; the ingestion pipeline
	// treats a nil publisher as "events disabled".
	var articlePublisher ingest.Publisher
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
		articlePublisher = rabbitMQ
	}

	// Initialize stores
	feedStore := postgres.NewFeedStore(db)
	articleStore := postgres.NewArticleStore(db)
	txManager := postgres.NewTransactionManager(db)

	parser := feedparser.New(feedparser.Config{
		Timeout:   cfg.Fetch.ParseTimeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, logger)

	enricher := opengraph.New(opengraph.Config{
		Timeout:   cfg.Fetch.OGTimeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, logger)

	ingestService := ingest.NewService(
		feedStore,
		articleStore,
		parser,
		enricher,
		articlePublisher,
		logger,
		cfg.Fetch,
	)

	feedService := feeds.NewService(
		feedStore,
		articleStore,
		txManager,
		logger,
		cfg.Feeds.MaxPerUser,
	)

	srv := server.New(ingestService, feedService, cfg.Server, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interval-driven ingestion is optional; deployments that trigger the
	// fetch endpoint from an external cron leave the interval at zero.
	if cfg.Fetch.Interval > 0 {
		sched := scheduler.NewScheduler(ingestService, cfg.Fetch.Interval, logger)
		go func() {
			if err := sched.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
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
