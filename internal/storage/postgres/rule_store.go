package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// RuleStore implements storage.RuleStore using PostgreSQL. The rule set
// is a single JSONB document in a one-row table.
type RuleStore struct {
	pool *Pool
}

// NewRuleStore creates a new RuleStore.
func NewRuleStore(pool *Pool) *RuleStore {
	return &RuleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RuleStore = (*RuleStore)(nil)

// Load retrieves the persisted rule set. Returns ErrNotFound if none
// has been saved yet.
func (s *RuleStore) Load(ctx context.Context) (_ *domain.RuleSet, err error) {
	start := time.Now()
	defer func() { observe("rules.load", start, err) }()

	var rulesJSON []byte
	err = s.pool.QueryRow(ctx, `SELECT rules FROM optimization_rules WHERE id = 1`).Scan(&rulesJSON)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load rules: %w", err)
	}

	var rules domain.RuleSet
	if err := json.Unmarshal(rulesJSON, &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return &rules, nil
}

// Save persists the entire rule set, replacing any previous document.
func (s *RuleStore) Save(ctx context.Context, rules *domain.RuleSet) (err error) {
	if rules == nil {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("rules.save", start, err) }()

	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	query := `
		INSERT INTO optimization_rules (id, rules, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET rules = EXCLUDED.rules, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, rulesJSON); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}
