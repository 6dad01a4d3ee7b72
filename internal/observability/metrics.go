// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	SignalsScanned   prometheus.Counter
	TweetsScanned    prometheus.Counter
	TokensConsidered prometheus.Counter
	KeywordMatches   *prometheus.CounterVec
	ScanErrors       *prometheus.CounterVec
	ScanDuration     *prometheus.HistogramVec

	// Alert metrics
	AlertsCreated    prometheus.Counter
	AlertsSuppressed prometheus.Counter
	AlertsByStatus   *prometheus.GaugeVec
	NotifyErrors     prometheus.Counter

	// Correlation metrics
	CorrelationsAppended *prometheus.CounterVec
	CorrelationBatchSize prometheus.Histogram

	// Optimizer metrics
	AlertsOptimized prometheus.Counter
	AlertsRejected  *prometheus.CounterVec
	OptimizedScore  prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "meme_token_radar"
	}

	return &Metrics{
		SignalsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signals_scanned_total",
			Help:      "Total number of social signals scanned",
		}),
		TweetsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tweets_scanned_total",
			Help:      "Total number of influencer tweets scanned",
		}),
		TokensConsidered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_considered_total",
			Help:      "Total number of token records considered for matching",
		}),
		KeywordMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "keyword_matches_total",
			Help:      "Total number of keyword matches by match type",
		}, []string{"type"}),
		ScanErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "errors_total",
			Help:      "Total number of scan errors by stage",
		}, []string{"stage"}),
		ScanDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan pass duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"pass"}),

		AlertsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Total number of alerts created",
		}),
		AlertsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "suppressed_total",
			Help:      "Total number of matches below the alert threshold",
		}),
		AlertsByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "by_status",
			Help:      "Number of alerts by lifecycle status",
		}, []string{"status"}),
		NotifyErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "notify_errors_total",
			Help:      "Total number of failed alert notifications",
		}),

		CorrelationsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "correlation",
			Name:      "appended_total",
			Help:      "Total number of correlations appended by source",
		}, []string{"source"}),
		CorrelationBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "correlation",
			Name:      "batch_size",
			Help:      "Number of correlations per appended batch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		AlertsOptimized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "alerts_evaluated_total",
			Help:      "Total number of alerts evaluated by the optimizer",
		}),
		AlertsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "alerts_rejected_total",
			Help:      "Total number of optimizer rejections by rule",
		}, []string{"rule"}),
		OptimizedScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "score",
			Help:      "Distribution of optimized confidence scores",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan pass",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignalsScanned adds to the signals scanned counter.
func RecordSignalsScanned(n int) {
	DefaultMetrics.SignalsScanned.Add(float64(n))
}

// RecordTweetsScanned adds to the tweets scanned counter.
func RecordTweetsScanned(n int) {
	DefaultMetrics.TweetsScanned.Add(float64(n))
}

// RecordKeywordMatch increments the match counter for a match type.
func RecordKeywordMatch(matchType string) {
	DefaultMetrics.KeywordMatches.WithLabelValues(matchType).Inc()
}

// RecordAlertCreated increments the alerts created counter.
func RecordAlertCreated() {
	DefaultMetrics.AlertsCreated.Inc()
}

// RecordAlertSuppressed increments the suppressed matches counter.
func RecordAlertSuppressed() {
	DefaultMetrics.AlertsSuppressed.Inc()
}

// RecordNotifyError increments the notifier failure counter.
func RecordNotifyError() {
	DefaultMetrics.NotifyErrors.Inc()
}

// RecordAlertStatusChange moves an alert between status gauges. An
// empty from marks a newly created alert.
func RecordAlertStatusChange(from, to string) {
	if from != "" {
		DefaultMetrics.AlertsByStatus.WithLabelValues(from).Dec()
	}
	DefaultMetrics.AlertsByStatus.WithLabelValues(to).Inc()
}

// RecordScanError records a scan error for a pipeline stage.
func RecordScanError(stage string) {
	DefaultMetrics.ScanErrors.WithLabelValues(stage).Inc()
}

// RecordCorrelationBatch records an appended correlation batch.
func RecordCorrelationBatch(source string, size int) {
	DefaultMetrics.CorrelationsAppended.WithLabelValues(source).Add(float64(size))
	DefaultMetrics.CorrelationBatchSize.Observe(float64(size))
}

// RecordOptimization records one optimizer evaluation.
func RecordOptimization(score float64, rejected bool) {
	DefaultMetrics.AlertsOptimized.Inc()
	DefaultMetrics.OptimizedScore.Observe(score)
	if rejected {
		DefaultMetrics.AlertsRejected.WithLabelValues("any").Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
