// Package main is the entry point for the Newsreel API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/newsreel/newsreel/internal/api"
	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/db"
	"github.com/newsreel/newsreel/internal/feed"
	"github.com/newsreel/newsreel/internal/follow"
	"github.com/newsreel/newsreel/internal/health"
	"github.com/newsreel/newsreel/internal/interaction"
	"github.com/newsreel/newsreel/internal/interest"
	"github.com/newsreel/newsreel/internal/jobs"
	"github.com/newsreel/newsreel/internal/middleware"
	"github.com/newsreel/newsreel/internal/ranking"
	"github.com/newsreel/newsreel/internal/tracing"
	"github.com/newsreel/newsreel/internal/trending"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Newsreel API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if cfg == nil {
		for _, err := range errs {
			slog.Error("configuration error", "error", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	for _, err := range errs {
		logger.Warn("configuration incomplete", "error", err)
	}
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	// Tracing
	provider, err := tracing.NewProvider(tracing.ConfigFromEnv("newsreel-api", cfg.Env))
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	feedMetrics := feed.NewMetrics()
	interestMetrics := interest.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	mwMetrics := middleware.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{feedMetrics, interestMetrics, jobMetrics, mwMetrics} {
		if err := m.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		catalog      article.Catalog
		interactions interaction.Store
		interests    interest.Store
		txRunner     db.TxRunner
		dbChecker    api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Warn("failed to close database", "error", err)
			}
		}()
		catalog = article.NewPostgresCatalog(conn, logger)
		interactions = interaction.NewPostgresStore(conn, logger)
		interests = interest.NewPostgresStore(conn, logger)
		txRunner = db.NewTxRunner(conn)
		dbChecker = health.NewDBChecker(conn)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		catalog = article.NewInMemoryCatalog()
		interactions = interaction.NewInMemoryStore()
		interests = interest.NewInMemoryStore()
	}

	// Trending snapshots: Redis when configured, in-memory otherwise.
	var (
		snapshots    trending.SnapshotStore
		redisChecker api.HealthChecker
	)
	rateLimitStore := middleware.RateLimitStore(middleware.NewInMemoryRateLimitStore())
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		snapshots = trending.NewRedisSnapshotStore(client, 0)
		redisChecker = health.NewRedisChecker(client)
		rateLimitStore = middleware.NewRedisRateLimitStore(client, mwMetrics, logger)
	} else {
		snapshots = trending.NewInMemorySnapshotStore()
	}

	// Ranking weight calibration
	weights := ranking.DefaultWeights()
	if cfg.CalibrationPath != "" {
		loaded, err := ranking.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			logger.Warn("failed to load calibration, using defaults", "error", err)
		} else {
			weights = loaded
		}
	}
	// Core components
	configs := feed.NewInMemoryConfigStoreWithWeights(*weights)
	follows := follow.NewInMemoryGraph()
	scorer := ranking.NewScorer(0, 0)
	assembler := feed.NewAssembler(catalog, interests, follows, snapshots, configs, scorer, feedMetrics, logger)
	accumulator := interest.NewAccumulator(catalog, interactions, interests, interestMetrics, logger)
	if txRunner != nil {
		accumulator.WithTxRunner(txRunner)
	}

	// Background trending refresh
	tracker := trending.NewTracker(interactions, catalog, 0, 0, logger)
	refreshJob := trending.NewRefreshJob(trending.RefreshJobConfig{
		Interval:   time.Duration(cfg.TrendingIntervalMinutes) * time.Minute,
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, tracker, snapshots)
	if err := refreshJob.Start(ctx); err != nil {
		logger.Error("failed to start trending refresh job", "error", err)
		os.Exit(1)
	}

	// Handlers
	feedHandlers := api.NewFeedHandlers(assembler, configs)
	interactionHandlers := api.NewInteractionHandlers(accumulator)
	articleHandlers := api.NewArticleHandlers(catalog)
	followHandlers := api.NewFollowHandlers(follows)
	trendingHandlers := api.NewTrendingHandlers(snapshots)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:      dbChecker,
		RedisChecker:   redisChecker,
		MetricsEnabled: true,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	feedLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultFeedLimit(), middleware.UserKeyFunc())
	interactionLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultInteractionLimit(), middleware.UserKeyFunc())

	mux.Handle("/feed", feedLimiter(http.HandlerFunc(feedHandlers.GetFeed)))
	mux.HandleFunc("/feed/config", feedHandlers.Config)
	mux.Handle("/interactions", interactionLimiter(http.HandlerFunc(interactionHandlers.RecordInteraction)))
	mux.HandleFunc("/articles", articleHandlers.Articles)
	mux.HandleFunc("/articles/", articleHandlers.ArticleByID)
	mux.HandleFunc("/follows", followHandlers.Follows)
	mux.HandleFunc("/trending", trendingHandlers.GetTrending)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"newsreel-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Tracing -> HTTPMetrics -> Logging
	handler := middleware.RequestID(
		middleware.Tracing("newsreel-api")(
			middleware.HTTPMetrics(mwMetrics)(
				middleware.Logging(logger)(mux))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	refreshJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shut down tracing", "error", err)
	}

	logger.Info("server stopped")
}
