// Package main provides a one-shot correlation run. Signals, tweets and
// tokens are read from JSON files, correlated against stored alerts, and
// the resulting log entries are printed. Also supports listing the
// correlation log and updating confirmation status.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/analysis/stub"
	"meme-token-radar/internal/config"
	"meme-token-radar/internal/correlation"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
	"meme-token-radar/internal/storage/memory"
	"meme-token-radar/internal/storage/migrations"
	pgstore "meme-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	signalsPath := flag.String("signals", "", "JSON file with social signals to correlate")
	tweetsPath := flag.String("tweets", "", "JSON file with analyzed tweets to correlate")
	tokensPath := flag.String("tokens", "", "JSON file with token records")
	list := flag.Bool("list", false, "List the correlation log instead of correlating")
	source := flag.String("source", "", "Filter listing by source (alert, manual, tweet)")
	status := flag.String("status", "", "Filter listing by status (potential, confirmed, rejected)")
	limit := flag.Int("limit", 0, "Limit listing to N entries (0 = all)")
	confirm := flag.String("confirm", "", "Set confirmation status, format: <correlation-id>=<status>")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, cleanup, err := createStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var (
		sentiment analysis.SentimentAnalyzer
		virality  analysis.ViralityPredictor
	)
	if cfg.Scorers.Stubs {
		fmt.Fprintln(os.Stderr, "Warning: deterministic stub scorers enabled, scores are fake")
		sentiment = &stub.SentimentAnalyzer{}
		virality = &stub.ViralityPredictor{}
	}

	engine := correlation.NewEngine(correlation.Options{
		Store:        store,
		Sentiment:    sentiment,
		Virality:     virality,
		RecentWindow: cfg.Scan.RecentTokenWindow,
		Logger:       zap.NewNop(),
	})

	switch {
	case *confirm != "":
		if err := updateStatus(ctx, engine, *confirm); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating status: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Status updated")

	case *list:
		if err := listCorrelations(ctx, engine, *source, *status, *limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing correlations: %v\n", err)
			os.Exit(1)
		}

	default:
		if err := correlate(ctx, cfg, engine, *signalsPath, *tweetsPath, *tokensPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error correlating: %v\n", err)
			os.Exit(1)
		}
	}
}

// createStore connects the correlation store per config. An empty
// Postgres DSN selects an in-memory store.
func createStore(ctx context.Context, cfg *config.Config) (storage.CorrelationStore, func(), error) {
	if cfg.Postgres.DSN == "" {
		return memory.NewCorrelationStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return pgstore.NewCorrelationStore(pool), pool.Close, nil
}

func correlate(ctx context.Context, cfg *config.Config, engine *correlation.Engine, signalsPath, tweetsPath, tokensPath string) error {
	if tokensPath == "" {
		return fmt.Errorf("--tokens is required")
	}
	if signalsPath == "" && tweetsPath == "" {
		return fmt.Errorf("--signals or --tweets is required")
	}

	var tokens []*domain.TokenRecord
	if err := readJSON(tokensPath, &tokens); err != nil {
		return fmt.Errorf("read tokens: %w", err)
	}

	var appended []*domain.Correlation

	if signalsPath != "" {
		var signals []*domain.SocialSignal
		if err := readJSON(signalsPath, &signals); err != nil {
			return fmt.Errorf("read signals: %w", err)
		}

		alerts, err := loadActiveAlerts(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load alerts: %w", err)
		}

		batch, err := engine.Correlate(ctx, signals, tokens, alerts)
		if err != nil {
			return err
		}
		appended = append(appended, batch...)
	}

	if tweetsPath != "" {
		var tweets []*domain.SocialSignal
		if err := readJSON(tweetsPath, &tweets); err != nil {
			return fmt.Errorf("read tweets: %w", err)
		}

		batch, err := engine.CorrelateTweets(ctx, tweets, tokens)
		if err != nil {
			return err
		}
		appended = append(appended, batch...)
	}

	fmt.Printf("Appended %d correlations\n", len(appended))
	return printJSON(appended)
}

// loadActiveAlerts fetches active alerts when Postgres is configured.
// Without persistence there are no prior alerts to correlate against.
func loadActiveAlerts(ctx context.Context, cfg *config.Config) ([]*domain.Alert, error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	return pgstore.NewAlertStore(pool).ListActive(ctx)
}

func listCorrelations(ctx context.Context, engine *correlation.Engine, source, status string, limit int) error {
	entries, err := engine.List(ctx, correlation.Filter{
		Source: domain.CorrelationSource(source),
		Status: domain.ConfirmationStatus(status),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d correlations\n", len(entries))
	return printJSON(entries)
}

func updateStatus(ctx context.Context, engine *correlation.Engine, arg string) error {
	id, status, ok := strings.Cut(arg, "=")
	if !ok || id == "" || status == "" {
		return fmt.Errorf("expected <correlation-id>=<status>, got %q", arg)
	}
	return engine.UpdateStatus(ctx, id, domain.ConfirmationStatus(status))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
