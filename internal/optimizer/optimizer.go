// Package optimizer re-scores triggered alerts against a configurable
// rule set to filter false positives. Every rule is evaluated on every
// pass so the rejection reasons list the full set of failed rules, not
// just the first.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// Confidence factor weights, heavier on match and safety. When a factor
// drops out the surviving factors keep their positional weights and the
// score is renormalized over the weights actually used.
var confidenceWeights = [...]float64{0.3, 0.3, 0.15, 0.1, 0.15}

// Optimizer evaluates alerts against the active rule set.
type Optimizer struct {
	rulesStore storage.RuleStore
	history    storage.OptimizationHistoryStore
	sentiment  analysis.SentimentAnalyzer
	virality   analysis.ViralityPredictor
	whales     analysis.WhaleAnalyzer
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	rules domain.RuleSet
}

// Options configures an Optimizer.
type Options struct {
	RuleStore storage.RuleStore

	// History receives every evaluation for offline analysis. Optional.
	History storage.OptimizationHistoryStore

	Sentiment analysis.SentimentAnalyzer
	Virality  analysis.ViralityPredictor
	Whales    analysis.WhaleAnalyzer

	Logger *zap.Logger
	Now    func() time.Time
}

// New creates an Optimizer, loading the persisted rule set. When no rule
// set has been saved yet the defaults are used.
func New(ctx context.Context, opts Options) (*Optimizer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	o := &Optimizer{
		rulesStore: opts.RuleStore,
		history:    opts.History,
		sentiment:  opts.Sentiment,
		virality:   opts.Virality,
		whales:     opts.Whales,
		logger:     logger,
		now:        now,
		rules:      domain.DefaultRules(),
	}

	if o.rulesStore != nil {
		rules, err := o.rulesStore.Load(ctx)
		switch {
		case err == nil:
			o.rules = *rules
			logger.Info("loaded persisted optimization rules")
		case errors.Is(err, storage.ErrNotFound):
			logger.Info("no persisted rules, using defaults")
		default:
			return nil, fmt.Errorf("load optimization rules: %w", err)
		}
	}
	return o, nil
}

// Rules returns a copy of the active rule set.
func (o *Optimizer) Rules() domain.RuleSet {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rules := o.rules
	rules.KeywordBlacklist = append([]string(nil), o.rules.KeywordBlacklist...)
	return rules
}

// UpdateRule sets one rule and persists the full rule set.
func (o *Optimizer) UpdateRule(ctx context.Context, name string, value any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	updated := o.rules
	updated.KeywordBlacklist = append([]string(nil), o.rules.KeywordBlacklist...)
	if err := updated.Update(name, value); err != nil {
		return err
	}

	if o.rulesStore != nil {
		if err := o.rulesStore.Save(ctx, &updated); err != nil {
			return fmt.Errorf("persist rules: %w", err)
		}
	}
	o.rules = updated
	o.logger.Info("updated optimization rule", zap.String("rule", name))
	return nil
}

// Optimize evaluates one alert against the active rules. Collaborator
// failures degrade the affected metric to zero rather than failing the
// evaluation.
func (o *Optimizer) Optimize(ctx context.Context, alert *domain.Alert) *domain.OptimizationResult {
	rules := o.Rules()
	now := o.now()

	matchScore := alert.Match.Score
	safetyScore := alert.Safety.Score
	text := alert.Signal.FullText()

	var sentimentScore float64
	if text != "" && o.sentiment != nil {
		score, err := o.sentiment.Analyze(ctx, text)
		if err != nil {
			o.logger.Warn("sentiment scoring failed", zap.String("alert_id", alert.ID), zap.Error(err))
		} else {
			sentimentScore = score
		}
	}

	var whaleConcentration float64
	if alert.Token.Address != "" && o.whales != nil {
		res, err := o.whales.Analyze(ctx, alert.Token.Address, alert.Token.Blockchain)
		if err != nil {
			o.logger.Warn("whale analysis failed", zap.String("alert_id", alert.ID), zap.Error(err))
		} else if res != nil {
			whaleConcentration = res.Top5Percentage / 100
		}
	}

	var memeVirality float64
	if text != "" && o.virality != nil {
		score, err := o.virality.Predict(ctx, text, alert.Signal.Author)
		if err != nil {
			o.logger.Warn("virality prediction failed", zap.String("alert_id", alert.ID), zap.Error(err))
		} else {
			memeVirality = score
		}
	}

	var memeAgeHours float64
	if !alert.Signal.CreatedAt.IsZero() {
		memeAgeHours = now.Sub(alert.Signal.CreatedAt).Hours()
	}
	var coinAgeHours float64
	if !alert.Token.CreatedAt.IsZero() {
		coinAgeHours = now.Sub(alert.Token.CreatedAt).Hours()
	}

	var blacklisted []string
	for _, kw := range alert.Keywords {
		lower := strings.ToLower(kw)
		for _, banned := range rules.KeywordBlacklist {
			if lower == banned {
				blacklisted = append(blacklisted, kw)
				break
			}
		}
	}

	result := &domain.OptimizationResult{
		AlertID:             alert.ID,
		OriginalMatchScore:  matchScore,
		OriginalSafetyScore: safetyScore,
		SentimentScore:      sentimentScore,
		WhaleConcentration:  whaleConcentration,
		MemeVirality:        memeVirality,
		MemeAgeHours:        memeAgeHours,
		CoinAgeHours:        coinAgeHours,
		BlacklistedKeywords: blacklisted,
		EvaluatedAt:         now,
	}

	shouldTrigger := true
	var reasons []string
	reject := func(reason string) {
		shouldTrigger = false
		reasons = append(reasons, reason)
	}

	if matchScore < rules.MinimumMatchScore {
		reject(fmt.Sprintf("Match score too low: %.2f < %v", matchScore, rules.MinimumMatchScore))
	}
	if safetyScore < rules.MinimumSafetyScore {
		reject(fmt.Sprintf("Safety score too low: %.2f < %v", safetyScore, rules.MinimumSafetyScore))
	}
	if whaleConcentration > rules.MaximumWhaleConcentration {
		reject(fmt.Sprintf("Whale concentration too high: %.2f%% > %v%%", whaleConcentration*100, rules.MaximumWhaleConcentration*100))
	}
	if sentimentScore < rules.MinimumSentimentScore {
		reject(fmt.Sprintf("Sentiment too negative: %.2f < %v", sentimentScore, rules.MinimumSentimentScore))
	}
	if memeVirality < rules.MinimumMemeVirality {
		reject(fmt.Sprintf("Meme virality too low: %.2f < %v", memeVirality, rules.MinimumMemeVirality))
	}
	if len(blacklisted) > 0 {
		reject(fmt.Sprintf("Blacklisted keywords found: %s", strings.Join(blacklisted, ", ")))
	}
	if memeAgeHours < rules.MinimumMemeAgeHours {
		reject(fmt.Sprintf("Meme too new: %.2fh < %vh", memeAgeHours, rules.MinimumMemeAgeHours))
	}
	if coinAgeHours < rules.MinimumCoinAgeHours {
		reject(fmt.Sprintf("Coin too new: %.2fh < %vh", coinAgeHours, rules.MinimumCoinAgeHours))
	}

	result.ShouldTrigger = shouldTrigger
	result.RejectionReasons = reasons
	result.OptimizedScore = confidenceScore(
		matchScore,
		safetyScore,
		(sentimentScore+1)/2,
		1-whaleConcentration,
		memeVirality,
	)
	return result
}

// confidenceScore is a weighted average over the non-zero factors,
// renormalized over the weights those factors occupy.
func confidenceScore(factors ...float64) float64 {
	var valid []float64
	for _, f := range factors {
		if f > 0 {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		return 0
	}

	var score, weightSum float64
	for i, f := range valid {
		score += f * confidenceWeights[i]
		weightSum += confidenceWeights[i]
	}
	if len(valid) < len(confidenceWeights) && weightSum > 0 {
		score /= weightSum
	}
	return score
}
