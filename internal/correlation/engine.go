// Package correlation links social signals to newly observed tokens.
//
// All correlation IDs are deterministic over their source data, so
// re-running any correlation pass over the same inputs is a no-op: the
// set of existing IDs is loaded before a batch generates new ones, and
// each batch is appended to the log atomically.
package correlation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/chain"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/idhash"
	"meme-token-radar/internal/keywords"
	"meme-token-radar/internal/matcher"
	"meme-token-radar/internal/storage"
)

// DefaultRecentWindow bounds how old a token may be to participate in
// correlation.
const DefaultRecentWindow = 7 * 24 * time.Hour

// Engine derives correlations between signals and tokens.
type Engine struct {
	store     storage.CorrelationStore
	sentiment analysis.SentimentAnalyzer
	virality  analysis.ViralityPredictor
	window    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// Options configures an Engine.
type Options struct {
	Store     storage.CorrelationStore
	Sentiment analysis.SentimentAnalyzer
	Virality  analysis.ViralityPredictor

	// RecentWindow overrides DefaultRecentWindow when positive.
	RecentWindow time.Duration
	Logger       *zap.Logger

	// Now overrides the clock, for deterministic tests.
	Now func() time.Time
}

// NewEngine creates a correlation engine.
func NewEngine(opts Options) *Engine {
	window := opts.RecentWindow
	if window <= 0 {
		window = DefaultRecentWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:     opts.Store,
		sentiment: opts.Sentiment,
		virality:  opts.Virality,
		window:    window,
		logger:    logger,
		now:       now,
	}
}

// Correlate derives new correlations from signals, tokens, and existing
// alerts, and appends them to the log in one atomic batch.
//
// Alerts are processed first: each alert not yet represented in the log
// becomes a confirmed correlation built from the alert's own snapshot.
// Then every processed signal with keywords is matched against recent
// tokens that are not already covered by an alert; the first keyword
// scoring at or above the acceptance threshold claims the pair.
func (e *Engine) Correlate(ctx context.Context, signals []*domain.SocialSignal, tokens []*domain.TokenRecord, alerts []*domain.Alert) ([]*domain.Correlation, error) {
	seen, err := e.store.SeenIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen correlation ids: %w", err)
	}

	recent := e.recentTokens(tokens)
	e.logger.Debug("correlating signals with tokens",
		zap.Int("signals", len(signals)),
		zap.Int("recent_tokens", len(recent)),
		zap.Int("alerts", len(alerts)))

	var batch []*domain.Correlation

	// Alerts are pre-confirmed correlations.
	alertAddresses := make(map[string]struct{}, len(alerts))
	for _, alert := range alerts {
		alertAddresses[alert.Token.Address] = struct{}{}

		id := idhash.AlertCorrelationID(alert.ID)
		if _, ok := seen[id]; ok {
			continue
		}

		c := e.correlationFromAlert(ctx, id, alert)
		batch = append(batch, c)
		seen[id] = struct{}{}
	}

	for _, signal := range signals {
		if !signal.Processed || len(signal.Keywords) == 0 {
			continue
		}

		for _, token := range recent {
			if _, covered := alertAddresses[token.Address]; covered {
				continue
			}

			id := idhash.CorrelationID(domain.SourceManual, signal.ID, token.Address)
			if _, ok := seen[id]; ok {
				continue
			}

			c := e.matchPair(ctx, id, domain.SourceManual, signal, token)
			if c == nil {
				continue
			}
			batch = append(batch, c)
			seen[id] = struct{}{}
		}
	}

	if err := e.append(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// CorrelateTweets derives correlations from influencer tweets. Tweets
// lacking pre-extracted keywords get them extracted on the fly, and
// sentiment/virality already carried on the tweet are reused unless zero.
func (e *Engine) CorrelateTweets(ctx context.Context, tweets []*domain.SocialSignal, tokens []*domain.TokenRecord) ([]*domain.Correlation, error) {
	seen, err := e.store.SeenIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen correlation ids: %w", err)
	}

	recent := e.recentTokens(tokens)
	var batch []*domain.Correlation

	for _, tweet := range tweets {
		kws := tweet.Keywords
		if len(kws) == 0 {
			kws = keywords.Extract(tweet.Text)
		}
		if len(kws) == 0 {
			continue
		}

		withKeywords := *tweet
		withKeywords.Keywords = kws

		for _, token := range recent {
			id := idhash.CorrelationID(domain.SourceTweet, tweet.ID, token.Address)
			if _, ok := seen[id]; ok {
				continue
			}

			c := e.matchPair(ctx, id, domain.SourceTweet, &withKeywords, token)
			if c == nil {
				continue
			}
			batch = append(batch, c)
			seen[id] = struct{}{}
		}
	}

	if err := e.append(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// matchPair scans a signal's keywords against one token and builds a
// correlation for the first keyword scoring at or above the acceptance
// threshold. Returns nil when no keyword qualifies.
func (e *Engine) matchPair(ctx context.Context, id string, source domain.CorrelationSource, signal *domain.SocialSignal, token *domain.TokenRecord) *domain.Correlation {
	if err := chain.ValidateAddress(token.Address, token.Blockchain); err != nil {
		e.logger.Warn("skipping token with malformed address", zap.Error(err))
		return nil
	}

	for _, keyword := range signal.Keywords {
		res := matcher.Match(keyword, token.Name, token.Symbol)
		if !res.Matched || res.Score < matcher.SignificantScore {
			continue
		}

		c := &domain.Correlation{
			ID:                 id,
			Source:             source,
			Signal:             *signal,
			Token:              *token,
			Keywords:           []string{keyword},
			MatchScore:         res.Score,
			SentimentScore:     signal.SentimentScore,
			ViralScore:         signal.ViralScore,
			ConfirmationStatus: domain.StatusPotential,
			CreatedAt:          e.now(),
		}

		if c.SentimentScore == 0 {
			c.SentimentScore = e.scoreSentiment(ctx, signal.FullText())
		}
		if c.ViralScore == 0 {
			c.ViralScore = e.scoreVirality(ctx, signal.FullText(), signal.Author)
		}

		// Only one correlation per signal-token pair.
		return c
	}
	return nil
}

// correlationFromAlert synthesizes a confirmed correlation from an
// alert's embedded snapshot. Scores cached on the alert's signal are
// reused; otherwise they are computed from the signal text.
func (e *Engine) correlationFromAlert(ctx context.Context, id string, alert *domain.Alert) *domain.Correlation {
	c := &domain.Correlation{
		ID:                 id,
		Source:             domain.SourceAlert,
		Signal:             alert.Signal,
		Token:              alert.Token,
		Keywords:           append([]string(nil), alert.Keywords...),
		MatchScore:         alert.Match.Score,
		SentimentScore:     alert.Signal.SentimentScore,
		ViralScore:         alert.Signal.ViralScore,
		ConfirmationStatus: domain.StatusConfirmed,
		CreatedAt:          e.now(),
	}

	text := alert.Signal.FullText()
	if text != "" {
		if c.SentimentScore == 0 {
			c.SentimentScore = e.scoreSentiment(ctx, text)
		}
		if c.ViralScore == 0 {
			c.ViralScore = e.scoreVirality(ctx, text, alert.Signal.Author)
		}
	}
	return c
}

func (e *Engine) recentTokens(tokens []*domain.TokenRecord) []*domain.TokenRecord {
	cutoff := e.now().Add(-e.window)
	var recent []*domain.TokenRecord
	for _, token := range tokens {
		if token.CreatedAt.After(cutoff) {
			recent = append(recent, token)
		}
	}
	return recent
}

func (e *Engine) append(ctx context.Context, batch []*domain.Correlation) error {
	if len(batch) == 0 {
		return nil
	}
	if err := e.store.AppendBatch(ctx, batch); err != nil {
		return fmt.Errorf("append correlation batch: %w", err)
	}
	e.logger.Info("appended new correlations", zap.Int("count", len(batch)))
	return nil
}

// A scorer failure degrades the correlation to a neutral score instead
// of aborting the batch.

func (e *Engine) scoreSentiment(ctx context.Context, text string) float64 {
	if e.sentiment == nil || text == "" {
		return 0
	}
	score, err := e.sentiment.Analyze(ctx, text)
	if err != nil {
		e.logger.Warn("sentiment scoring failed", zap.Error(err))
		return 0
	}
	return score
}

func (e *Engine) scoreVirality(ctx context.Context, text, author string) float64 {
	if e.virality == nil || text == "" {
		return 0
	}
	score, err := e.virality.Predict(ctx, text, author)
	if err != nil {
		e.logger.Warn("virality scoring failed", zap.Error(err))
		return 0
	}
	return score
}
