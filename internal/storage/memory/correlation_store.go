package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// CorrelationStore is an in-memory implementation of storage.CorrelationStore.
type CorrelationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Correlation // keyed by correlation ID
}

// NewCorrelationStore creates a new in-memory correlation store.
func NewCorrelationStore() *CorrelationStore {
	return &CorrelationStore{
		data: make(map[string]*domain.Correlation),
	}
}

// AppendBatch appends correlations atomically. The batch is validated
// against the log in full before any record is stored, so a duplicate
// anywhere in the batch leaves the log untouched.
func (s *CorrelationStore) AppendBatch(_ context.Context, batch []*domain.Correlation) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(batch))
	for _, c := range batch {
		if c == nil || c.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[c.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[c.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[c.ID] = struct{}{}
	}

	for _, c := range batch {
		s.data[c.ID] = copyCorrelation(c)
	}
	return nil
}

// GetAll retrieves the full log, ordered by created_at descending.
func (s *CorrelationStore) GetAll(_ context.Context) ([]*domain.Correlation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Correlation, 0, len(s.data))
	for _, c := range s.data {
		result = append(result, copyCorrelation(c))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// SeenIDs returns the set of all correlation IDs in the log.
func (s *CorrelationStore) SeenIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.data))
	for id := range s.data {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// UpdateStatus sets the confirmation status and updated_at of one
// correlation. Returns ErrNotFound for an unknown ID.
func (s *CorrelationStore) UpdateStatus(_ context.Context, id string, status domain.ConfirmationStatus, updatedAt time.Time) error {
	if !domain.ValidConfirmationStatus(status) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	c.ConfirmationStatus = status
	updated := updatedAt
	c.UpdatedAt = &updated
	return nil
}

func copyCorrelation(c *domain.Correlation) *domain.Correlation {
	corrCopy := *c
	corrCopy.Keywords = append([]string(nil), c.Keywords...)
	corrCopy.Signal.Keywords = append([]string(nil), c.Signal.Keywords...)
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		corrCopy.UpdatedAt = &updated
	}
	return &corrCopy
}

// Verify interface compliance at compile time.
var _ storage.CorrelationStore = (*CorrelationStore)(nil)
