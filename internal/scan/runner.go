// Package scan drives the periodic pipeline: drain signal and token
// sources, match keywords, create alerts, correlate, and re-score.
package scan

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"meme-token-radar/internal/alerting"
	"meme-token-radar/internal/analysis"
	"meme-token-radar/internal/chain"
	"meme-token-radar/internal/correlation"
	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/keywords"
	"meme-token-radar/internal/matcher"
	"meme-token-radar/internal/observability"
	"meme-token-radar/internal/optimizer"
	"meme-token-radar/internal/social"
	"meme-token-radar/internal/storage"
)

// pendingLimit caps signals carried between scan and correlation passes.
const pendingLimit = 10000

// Runner executes scan and correlation passes on their own intervals.
// Pass failures are logged and retried on the next tick, never fatal.
type Runner struct {
	signals social.SignalSource
	tokens  social.TokenSource
	safety  analysis.SafetyAnalyzer

	alerts     *alerting.Manager
	engine     *correlation.Engine
	optimizer  *optimizer.Optimizer
	alertStore storage.AlertStore

	interval            time.Duration
	correlationInterval time.Duration
	logger              *zap.Logger

	mu      sync.Mutex
	pending []*domain.SocialSignal
}

// Options configures a Runner.
type Options struct {
	Signals social.SignalSource
	Tokens  social.TokenSource
	Safety  analysis.SafetyAnalyzer

	Alerts     *alerting.Manager
	Engine     *correlation.Engine
	Optimizer  *optimizer.Optimizer
	AlertStore storage.AlertStore

	// Interval is the scan pass cadence. Defaults to one minute.
	Interval time.Duration
	// CorrelationInterval is the correlation pass cadence. Defaults to
	// five minutes.
	CorrelationInterval time.Duration

	Logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	correlationInterval := opts.CorrelationInterval
	if correlationInterval <= 0 {
		correlationInterval = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		signals:             opts.Signals,
		tokens:              opts.Tokens,
		safety:              opts.Safety,
		alerts:              opts.Alerts,
		engine:              opts.Engine,
		optimizer:           opts.Optimizer,
		alertStore:          opts.AlertStore,
		interval:            interval,
		correlationInterval: correlationInterval,
		logger:              logger,
	}
}

// Run executes passes until the context is cancelled. Both passes run
// once immediately on startup.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scan runner starting",
		zap.Duration("interval", r.interval),
		zap.Duration("correlation_interval", r.correlationInterval))

	r.ScanPass(ctx)
	r.CorrelationPass(ctx)

	scanTicker := time.NewTicker(r.interval)
	defer scanTicker.Stop()
	correlationTicker := time.NewTicker(r.correlationInterval)
	defer correlationTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scan runner stopping")
			return ctx.Err()
		case <-scanTicker.C:
			r.ScanPass(ctx)
		case <-correlationTicker.C:
			r.CorrelationPass(ctx)
		}
	}
}

// ScanPass drains the signal and token sources, extracts keywords, and
// creates alerts for matches clearing the threshold.
func (r *Runner) ScanPass(ctx context.Context) {
	started := time.Now()
	defer func() {
		observability.DefaultMetrics.ScanDuration.WithLabelValues("scan").Observe(time.Since(started).Seconds())
	}()

	signals, err := r.signals.ListSignals(ctx)
	if err != nil {
		r.logger.Error("listing signals failed", zap.Error(err))
		observability.RecordScanError("signals")
		return
	}
	observability.RecordSignalsScanned(len(signals))

	tokens := r.validTokens(ctx)
	if len(signals) == 0 || len(tokens) == 0 {
		r.remember(signals)
		return
	}

	for _, signal := range signals {
		kws := signal.Keywords
		if len(kws) == 0 {
			kws = keywords.Extract(signal.FullText())
		}
		if len(kws) == 0 {
			continue
		}
		signal.Keywords = kws
		signal.Processed = true

		matches := matcher.FindMatches(kws, tokens)
		for _, match := range matches {
			observability.RecordKeywordMatch(string(match.Type))

			safety := r.analyzeSafety(ctx, &match.Token)
			alert, err := r.alerts.CreateAlert(ctx, signal, match, safety, kws)
			if err != nil {
				r.logger.Error("alert creation failed",
					zap.String("token", match.Token.Address), zap.Error(err))
				observability.RecordScanError("alerting")
				continue
			}
			if alert == nil {
				observability.RecordAlertSuppressed()
				continue
			}
			observability.RecordAlertCreated()
		}
	}

	r.remember(signals)
	observability.DefaultMetrics.LastSuccessfulScan.SetToCurrentTime()
}

// CorrelationPass links pending signals, tweets, and alerts to recent
// tokens and re-scores the active alerts.
func (r *Runner) CorrelationPass(ctx context.Context) {
	started := time.Now()
	defer func() {
		observability.DefaultMetrics.ScanDuration.WithLabelValues("correlation").Observe(time.Since(started).Seconds())
	}()

	tokens := r.validTokens(ctx)

	active, err := r.alerts.ActiveAlerts(ctx)
	if err != nil {
		r.logger.Error("listing active alerts failed", zap.Error(err))
		observability.RecordScanError("alerts")
		return
	}

	signals := r.takePending()
	batch, err := r.engine.Correlate(ctx, signals, tokens, active)
	if err != nil {
		r.logger.Error("correlation failed", zap.Error(err))
		observability.RecordScanError("correlation")
		// Signals go back so the next pass retries them.
		r.remember(signals)
	} else if len(batch) > 0 {
		observability.RecordCorrelationBatch("signals", len(batch))
	}

	tweets, err := r.signals.ListTweets(ctx)
	if err != nil {
		r.logger.Error("listing tweets failed", zap.Error(err))
		observability.RecordScanError("tweets")
	} else if len(tweets) > 0 {
		observability.RecordTweetsScanned(len(tweets))
		tweetBatch, err := r.engine.CorrelateTweets(ctx, tweets, tokens)
		if err != nil {
			r.logger.Error("tweet correlation failed", zap.Error(err))
			observability.RecordScanError("correlation")
		} else if len(tweetBatch) > 0 {
			observability.RecordCorrelationBatch("tweets", len(tweetBatch))
		}
	}

	if r.optimizer != nil && r.alertStore != nil {
		results, err := r.optimizer.BatchOptimize(ctx, r.alertStore)
		if err != nil {
			r.logger.Error("batch optimization failed", zap.Error(err))
			observability.RecordScanError("optimizer")
			return
		}
		for _, result := range results {
			observability.RecordOptimization(result.OptimizedScore, !result.ShouldTrigger)
		}
	}
}

// validTokens lists recent tokens and drops the ones with malformed
// addresses.
func (r *Runner) validTokens(ctx context.Context) []*domain.TokenRecord {
	tokens, err := r.tokens.ListRecentTokens(ctx)
	if err != nil {
		r.logger.Error("listing tokens failed", zap.Error(err))
		observability.RecordScanError("tokens")
		return nil
	}

	valid := tokens[:0]
	for _, token := range tokens {
		if err := chain.ValidateAddress(token.Address, token.Blockchain); err != nil {
			r.logger.Warn("skipping token with malformed address", zap.Error(err))
			continue
		}
		valid = append(valid, token)
	}
	observability.DefaultMetrics.TokensConsidered.Add(float64(len(valid)))
	return valid
}

func (r *Runner) analyzeSafety(ctx context.Context, token *domain.TokenRecord) *domain.SafetyReport {
	if r.safety == nil {
		return nil
	}
	res, err := r.safety.Analyze(ctx, token.Address, token.Blockchain)
	if err != nil {
		r.logger.Warn("safety analysis failed",
			zap.String("token", token.Address), zap.Error(err))
		return nil
	}

	report := &domain.SafetyReport{Score: res.OverallScore, RiskFactors: res.RiskFactors}

	// Off-curve solana mints are program-derived addresses. Still valid,
	// but worth flagging since wallet-held mints are on-curve.
	if strings.EqualFold(token.Blockchain, chain.Solana) && !chain.IsOnCurve(token.Address) {
		report.RiskFactors = append(report.RiskFactors, "off-curve (PDA) mint")
	}

	return report
}

func (r *Runner) remember(signals []*domain.SocialSignal) {
	if len(signals) == 0 {
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, signals...)
	if len(r.pending) > pendingLimit {
		r.pending = r.pending[len(r.pending)-pendingLimit:]
	}
	r.mu.Unlock()
}

func (r *Runner) takePending() []*domain.SocialSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}
