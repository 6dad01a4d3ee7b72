// Package main provides the unified radar service:
// - Scan (scheduled): drain social signals, match tokens, create alerts
// - Correlation (scheduled): link signals to tokens, re-score alerts
// - Metrics: Prometheus endpoint
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"meme-token-radar/internal/alerting"
	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/analysis/stub"
	"meme-token-radar/internal/config"
	"meme-token-radar/internal/correlation"
	"meme-token-radar/internal/observability"
	"meme-token-radar/internal/optimizer"
	"meme-token-radar/internal/scan"
	"meme-token-radar/internal/social"
	"meme-token-radar/internal/storage"
	chstore "meme-token-radar/internal/storage/clickhouse"
	"meme-token-radar/internal/storage/memory"
	"meme-token-radar/internal/storage/migrations"
	pgstore "meme-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (env vars apply on top)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	if err := run(ctx, cfg, logger); err != nil && err != context.Canceled {
		logger.Fatal("radar exited with error", zap.Error(err))
	}
	close(done)

	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	stores, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	signals, tokens, closeSource, err := createSources(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create sources: %w", err)
	}
	defer closeSource()

	var notifier alerting.Notifier
	if cfg.Telegram.Enabled {
		tg, err := alerting.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 0, 0)
		if err != nil {
			return fmt.Errorf("create telegram notifier: %w", err)
		}
		notifier = tg
		logger.Info("telegram notifications enabled")
	}

	// External scorers. Without an explicit opt-in no scorers are wired
	// and their inputs contribute zero downstream.
	var (
		sentiment analysis.SentimentAnalyzer
		virality  analysis.ViralityPredictor
		safety    analysis.SafetyAnalyzer
		whales    analysis.WhaleAnalyzer
	)
	if cfg.Scorers.Stubs {
		logger.Warn("deterministic stub scorers enabled, scores are fake and must not be trusted")
		sentiment = &stub.SentimentAnalyzer{}
		virality = &stub.ViralityPredictor{}
		safety = &stub.SafetyAnalyzer{}
		whales = &stub.WhaleAnalyzer{}
	}

	manager, err := alerting.NewManager(ctx, alerting.Options{
		Store:    stores.alerts,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create alert manager: %w", err)
	}

	engine := correlation.NewEngine(correlation.Options{
		Store:        stores.correlations,
		Sentiment:    sentiment,
		Virality:     virality,
		RecentWindow: cfg.Scan.RecentTokenWindow,
		Logger:       logger,
	})

	opt, err := optimizer.New(ctx, optimizer.Options{
		RuleStore: stores.rules,
		History:   stores.history,
		Sentiment: sentiment,
		Virality:  virality,
		Whales:    whales,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create optimizer: %w", err)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.Addr, logger)
		go trackUptime(ctx)
	}

	runner := scan.NewRunner(scan.Options{
		Signals:             signals,
		Tokens:              tokens,
		Safety:              safety,
		Alerts:              manager,
		Engine:              engine,
		Optimizer:           opt,
		AlertStore:          stores.alerts,
		Interval:            cfg.Scan.Interval,
		CorrelationInterval: cfg.Scan.CorrelationInterval,
		Logger:              logger,
	})

	return runner.Run(ctx)
}

// allStores holds the storage implementations behind the service.
type allStores struct {
	alerts       storage.AlertStore
	correlations storage.CorrelationStore
	rules        storage.RuleStore
	history      storage.OptimizationHistoryStore
}

// createStores wires storage from config. An empty Postgres DSN selects
// in-memory stores; an empty ClickHouse DSN disables history recording.
func createStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*allStores, func(), error) {
	stores := &allStores{}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Postgres.DSN == "" {
		logger.Info("postgres dsn not set, using in-memory stores")
		stores.alerts = memory.NewAlertStore()
		stores.correlations = memory.NewCorrelationStore()
		stores.rules = memory.NewRuleStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}

		stores.alerts = pgstore.NewAlertStore(pool)
		stores.correlations = pgstore.NewCorrelationStore(pool)
		stores.rules = pgstore.NewRuleStore(pool)
	}

	if cfg.ClickHouse.DSN == "" {
		logger.Info("clickhouse dsn not set, optimization history disabled")
	} else {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		stores.history = chstore.NewOptimizationHistoryStore(conn)
	}

	return stores, cleanup, nil
}

// createSources wires the signal and token feeds. An empty stream URL
// selects an empty static source, useful for manual correlation runs.
func createSources(ctx context.Context, cfg *config.Config, logger *zap.Logger) (social.SignalSource, social.TokenSource, func(), error) {
	if cfg.Sources.StreamURL == "" {
		logger.Info("stream url not set, using static source")
		src := social.NewStaticSource(nil, nil, nil)
		return src, src, func() {}, nil
	}

	stream, err := social.NewStreamSource(ctx, cfg.Sources.StreamURL, nil, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to stream: %w", err)
	}
	return stream, stream, func() { stream.Close() }, nil
}

// serveMetrics exposes the Prometheus endpoint until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", zap.Error(err))
	}
}

// trackUptime advances the uptime counter once per second until ctx is
// cancelled.
func trackUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}

// buildLogger constructs the service logger from config.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
