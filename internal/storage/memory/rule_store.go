package memory

import (
	"context"
	"sync"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// RuleStore is an in-memory implementation of storage.RuleStore.
type RuleStore struct {
	mu    sync.RWMutex
	rules *domain.RuleSet
}

// NewRuleStore creates a new in-memory rule store with no saved document.
func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// Load retrieves the persisted rule set.
func (s *RuleStore) Load(_ context.Context) (*domain.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rules == nil {
		return nil, storage.ErrNotFound
	}
	return copyRules(s.rules), nil
}

// Save persists the entire rule set, replacing any previous document.
func (s *RuleStore) Save(_ context.Context, rules *domain.RuleSet) error {
	if rules == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = copyRules(rules)
	return nil
}

func copyRules(r *domain.RuleSet) *domain.RuleSet {
	rulesCopy := *r
	rulesCopy.KeywordBlacklist = append([]string(nil), r.KeywordBlacklist...)
	return &rulesCopy
}

// Verify interface compliance at compile time.
var _ storage.RuleStore = (*RuleStore)(nil)
