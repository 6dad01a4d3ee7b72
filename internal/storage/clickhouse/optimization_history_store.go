package clickhouse

import (
	"context"
	"fmt"
	"time"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// OptimizationHistoryStore implements storage.OptimizationHistoryStore
// using ClickHouse. The table is append-only; re-evaluations of the
// same alert produce additional rows.
type OptimizationHistoryStore struct {
	conn *Conn
}

// NewOptimizationHistoryStore creates a new OptimizationHistoryStore.
func NewOptimizationHistoryStore(conn *Conn) *OptimizationHistoryStore {
	return &OptimizationHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OptimizationHistoryStore = (*OptimizationHistoryStore)(nil)

// InsertBulk appends multiple evaluation results. Fails the entire
// batch on error.
func (s *OptimizationHistoryStore) InsertBulk(ctx context.Context, results []*domain.OptimizationResult) error {
	if len(results) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO optimization_history (
			alert_id, original_match_score, original_safety_score,
			sentiment_score, whale_concentration, meme_virality,
			meme_age_hours, coin_age_hours, blacklisted_keywords,
			should_trigger, rejection_reasons, optimized_score, evaluated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			r.AlertID, r.OriginalMatchScore, r.OriginalSafetyScore,
			r.SentimentScore, r.WhaleConcentration, r.MemeVirality,
			r.MemeAgeHours, r.CoinAgeHours, r.BlacklistedKeywords,
			boolToUint8(r.ShouldTrigger), r.RejectionReasons,
			r.OptimizedScore, r.EvaluatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAlertID retrieves all evaluations for an alert, ordered by
// evaluated_at ASC.
func (s *OptimizationHistoryStore) GetByAlertID(ctx context.Context, alertID string) ([]*domain.OptimizationResult, error) {
	query := `
		SELECT alert_id, original_match_score, original_safety_score,
		       sentiment_score, whale_concentration, meme_virality,
		       meme_age_hours, coin_age_hours, blacklisted_keywords,
		       should_trigger, rejection_reasons, optimized_score, evaluated_at
		FROM optimization_history
		WHERE alert_id = ?
		ORDER BY evaluated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("query by alert id: %w", err)
	}
	defer rows.Close()

	return scanOptimizationResults(rows)
}

// GetByTimeRange retrieves evaluations within [start, end] (inclusive).
func (s *OptimizationHistoryStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.OptimizationResult, error) {
	query := `
		SELECT alert_id, original_match_score, original_safety_score,
		       sentiment_score, whale_concentration, meme_virality,
		       meme_age_hours, coin_age_hours, blacklisted_keywords,
		       should_trigger, rejection_reasons, optimized_score, evaluated_at
		FROM optimization_history
		WHERE evaluated_at >= ? AND evaluated_at <= ?
		ORDER BY evaluated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanOptimizationResults(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanOptimizationResults scans multiple rows into a slice.
func scanOptimizationResults(rows chRows) ([]*domain.OptimizationResult, error) {
	var results []*domain.OptimizationResult

	for rows.Next() {
		var r domain.OptimizationResult
		var shouldTrigger uint8

		err := rows.Scan(
			&r.AlertID, &r.OriginalMatchScore, &r.OriginalSafetyScore,
			&r.SentimentScore, &r.WhaleConcentration, &r.MemeVirality,
			&r.MemeAgeHours, &r.CoinAgeHours, &r.BlacklistedKeywords,
			&shouldTrigger, &r.RejectionReasons, &r.OptimizedScore,
			&r.EvaluatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan optimization history row: %w", err)
		}

		r.ShouldTrigger = shouldTrigger > 0
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate optimization history rows: %w", err)
	}

	return results, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
