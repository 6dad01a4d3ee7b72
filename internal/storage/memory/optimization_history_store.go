package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// OptimizationHistoryStore is an in-memory implementation of
// storage.OptimizationHistoryStore.
type OptimizationHistoryStore struct {
	mu   sync.RWMutex
	data []*domain.OptimizationResult
}

// NewOptimizationHistoryStore creates a new in-memory history store.
func NewOptimizationHistoryStore() *OptimizationHistoryStore {
	return &OptimizationHistoryStore{}
}

// InsertBulk appends evaluation results.
func (s *OptimizationHistoryStore) InsertBulk(_ context.Context, results []*domain.OptimizationResult) error {
	for _, r := range results {
		if r == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		s.data = append(s.data, copyResult(r))
	}
	return nil
}

// GetByAlertID retrieves all evaluations for an alert, ordered by
// evaluated_at ascending.
func (s *OptimizationHistoryStore) GetByAlertID(_ context.Context, alertID string) ([]*domain.OptimizationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimizationResult
	for _, r := range s.data {
		if r.AlertID == alertID {
			result = append(result, copyResult(r))
		}
	}

	sortResults(result)
	return result, nil
}

// GetByTimeRange retrieves evaluations within [start, end] inclusive.
func (s *OptimizationHistoryStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.OptimizationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimizationResult
	for _, r := range s.data {
		if !r.EvaluatedAt.Before(start) && !r.EvaluatedAt.After(end) {
			result = append(result, copyResult(r))
		}
	}

	sortResults(result)
	return result, nil
}

func sortResults(results []*domain.OptimizationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].EvaluatedAt.Before(results[j].EvaluatedAt)
	})
}

func copyResult(r *domain.OptimizationResult) *domain.OptimizationResult {
	resultCopy := *r
	resultCopy.BlacklistedKeywords = append([]string(nil), r.BlacklistedKeywords...)
	resultCopy.RejectionReasons = append([]string(nil), r.RejectionReasons...)
	return &resultCopy
}

// Verify interface compliance at compile time.
var _ storage.OptimizationHistoryStore = (*OptimizationHistoryStore)(nil)
