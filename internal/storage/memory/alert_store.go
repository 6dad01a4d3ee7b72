package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Alert // keyed by alert ID, both partitions
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[string]*domain.Alert),
	}
}

// Insert adds a new alert. Returns ErrDuplicateKey if the ID exists.
func (s *AlertStore) Insert(_ context.Context, a *domain.Alert) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.ID] = copyAlert(a)
	return nil
}

// GetByID retrieves an alert from either partition.
func (s *AlertStore) GetByID(_ context.Context, alertID string) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[alertID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAlert(a), nil
}

// ListActive retrieves all alerts in the active partition,
// ordered by created_at descending.
func (s *AlertStore) ListActive(_ context.Context) ([]*domain.Alert, error) {
	return s.listByPartition(true), nil
}

// ListInactive retrieves all alerts in the inactive partition,
// ordered by created_at descending.
func (s *AlertStore) ListInactive(_ context.Context) ([]*domain.Alert, error) {
	return s.listByPartition(false), nil
}

func (s *AlertStore) listByPartition(active bool) []*domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Alert
	for _, a := range s.data {
		if a.Status.Active() == active {
			result = append(result, copyAlert(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// Update overwrites an existing alert. Returns ErrNotFound for an
// unknown ID. Partition membership follows the new status.
func (s *AlertStore) Update(_ context.Context, a *domain.Alert) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[a.ID] = copyAlert(a)
	return nil
}

// copyAlert returns a deep-enough copy to prevent external mutation.
func copyAlert(a *domain.Alert) *domain.Alert {
	alertCopy := *a
	alertCopy.Keywords = append([]string(nil), a.Keywords...)
	alertCopy.Safety.RiskFactors = append([]string(nil), a.Safety.RiskFactors...)
	alertCopy.Signal.Keywords = append([]string(nil), a.Signal.Keywords...)
	if a.UpdatedAt != nil {
		updated := *a.UpdatedAt
		alertCopy.UpdatedAt = &updated
	}
	if a.Optimization != nil {
		opt := *a.Optimization
		opt.BlacklistedKeywords = append([]string(nil), a.Optimization.BlacklistedKeywords...)
		opt.RejectionReasons = append([]string(nil), a.Optimization.RejectionReasons...)
		alertCopy.Optimization = &opt
	}
	return &alertCopy
}

// Verify interface compliance at compile time.
var _ storage.AlertStore = (*AlertStore)(nil)
