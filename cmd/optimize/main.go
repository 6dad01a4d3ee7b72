// Package main provides a one-shot optimizer run: re-score all active
// alerts against the persisted rule set. Also supports inspecting and
// updating individual rules.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/analysis/stub"
	"meme-token-radar/internal/config"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/optimizer"
	"meme-token-radar/internal/storage"
	chstore "meme-token-radar/internal/storage/clickhouse"
	"meme-token-radar/internal/storage/memory"
	"meme-token-radar/internal/storage/migrations"
	pgstore "meme-token-radar/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	showRules := flag.Bool("rules", false, "Print the current rule set and exit")
	set := flag.String("set", "", "Update a rule, format: <name>=<value> (comma-separated list for keyword_blacklist)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var (
		sentiment analysis.SentimentAnalyzer
		virality  analysis.ViralityPredictor
		whales    analysis.WhaleAnalyzer
	)
	if cfg.Scorers.Stubs {
		fmt.Fprintln(os.Stderr, "Warning: deterministic stub scorers enabled, scores are fake")
		sentiment = &stub.SentimentAnalyzer{}
		virality = &stub.ViralityPredictor{}
		whales = &stub.WhaleAnalyzer{}
	}

	opt, err := optimizer.New(ctx, optimizer.Options{
		RuleStore: stores.rules,
		History:   stores.history,
		Sentiment: sentiment,
		Virality:  virality,
		Whales:    whales,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating optimizer: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *showRules:
		printJSON(opt.Rules())

	case *set != "":
		if err := setRule(ctx, opt, *set); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating rule: %v\n", err)
			os.Exit(1)
		}
		printJSON(opt.Rules())

	default:
		results, err := opt.BatchOptimize(ctx, stores.alerts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error optimizing: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Optimized %d alerts\n", len(results))
		printJSON(results)
	}
}

type optStores struct {
	alerts  storage.AlertStore
	rules   storage.RuleStore
	history storage.OptimizationHistoryStore
}

func createStores(ctx context.Context, cfg *config.Config) (*optStores, func(), error) {
	stores := &optStores{}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Postgres.DSN == "" {
		stores.alerts = memory.NewAlertStore()
		stores.rules = memory.NewRuleStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		stores.alerts = pgstore.NewAlertStore(pool)
		stores.rules = pgstore.NewRuleStore(pool)
	}

	if cfg.ClickHouse.DSN != "" {
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

// setRule parses and applies a single rule update. Threshold values are
// floats; the blacklist takes a comma-separated list.
func setRule(ctx context.Context, opt *optimizer.Optimizer, arg string) error {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected <name>=<value>, got %q", arg)
	}

	var value any
	if name == domain.RuleKeywordBlacklist {
		var list []string
		for _, kw := range strings.Split(raw, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				list = append(list, kw)
			}
		}
		value = list
	} else {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse value %q: %w", raw, err)
		}
		value = f
	}

	return opt.UpdateRule(ctx, name, value)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
