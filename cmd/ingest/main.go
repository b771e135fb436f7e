// Package main is the entry point for the Newsreel ingest worker. It
// consumes the provider firehose over websocket and, for providers without
// streaming support, polls an HTTP endpoint on an interval. Both transports
// apply articles through the same processor.
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

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/db"
	"github.com/newsreel/newsreel/internal/ingest"
	"github.com/newsreel/newsreel/internal/jobs"
	"github.com/newsreel/newsreel/internal/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Newsreel Ingest Worker")
		fmt.Println()
		fmt.Println("Usage: ingest [options]")
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

	if cfg.FirehoseURL == "" && cfg.PollURL == "" {
		logger.Error("no ingest source configured, set FIREHOSE_URL or POLL_URL")
		os.Exit(1)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ingestMetrics := ingest.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{ingestMetrics, jobMetrics} {
		if err := m.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise.
	var catalog article.Catalog
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
		catalog = article.NewPostgresCatalog(sqlDB, logger)
		logger.Info("using postgres article catalog")
	} else {
		catalog = article.NewInMemoryCatalog()
		logger.Warn("no database configured, articles will not survive restarts")
	}

	processor := ingest.NewProcessor(catalog, ingestMetrics, logger)

	// Firehose websocket consumer
	clientErrCh := make(chan error, 1)
	if cfg.FirehoseURL != "" {
		client, err := ingest.NewClient(ingest.DefaultConfig(cfg.FirehoseURL), processor.HandleMessage, logger)
		if err != nil {
			logger.Error("failed to create firehose client", "error", err)
			os.Exit(1)
		}
		go func() {
			clientErrCh <- client.Run(ctx)
		}()
		logger.Info("firehose consumer started", "url", cfg.FirehoseURL)
	}

	// HTTP poll fallback
	var poller *ingest.Poller
	if cfg.PollURL != "" {
		p, err := ingest.NewPoller(ingest.PollerConfig{
			URL:        cfg.PollURL,
			Interval:   time.Duration(cfg.PollIntervalMinutes) * time.Minute,
			Timeout:    ingest.DefaultPollTimeout,
			Logger:     logger,
			JobMetrics: jobMetrics,
		}, processor)
		if err != nil {
			logger.Error("failed to create poller", "error", err)
			os.Exit(1)
		}
		if err := p.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
		poller = p
		logger.Info("article poller started", "url", cfg.PollURL, "interval_minutes", cfg.PollIntervalMinutes)
	}

	// Health and metrics endpoints
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("ingest worker listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-clientErrCh:
		if err != nil {
			logger.Error("firehose consumer exited", "error", err)
		}
	case <-ctx.Done():
	}

	cancel()
	if poller != nil {
		poller.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("ingest worker stopped")
}
