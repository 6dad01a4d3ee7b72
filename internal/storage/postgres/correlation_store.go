package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// CorrelationStore implements storage.CorrelationStore using PostgreSQL.
// AppendBatch runs in one transaction so a duplicate anywhere in the
// batch rolls back the whole append.
type CorrelationStore struct {
	pool *Pool
}

// NewCorrelationStore creates a new CorrelationStore.
func NewCorrelationStore(pool *Pool) *CorrelationStore {
	return &CorrelationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CorrelationStore = (*CorrelationStore)(nil)

const correlationColumns = `
	correlation_id, source, signal, token, keywords, match_score,
	sentiment_score, viral_score, confirmation_status, created_at, updated_at
`

// AppendBatch appends correlations atomically. Returns ErrDuplicateKey
// if any ID already exists in the log or repeats within the batch.
func (s *CorrelationStore) AppendBatch(ctx context.Context, batch []*domain.Correlation) (err error) {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("correlations.append_batch", start, err) }()
	for _, c := range batch {
		if c == nil || c.ID == "" {
			return storage.ErrInvalidInput
		}
		if !domain.ValidConfirmationStatus(c.ConfirmationStatus) {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO correlations (
			correlation_id, source, signal, token, keywords, match_score,
			sentiment_score, viral_score, confirmation_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, c := range batch {
		signalJSON, err := json.Marshal(c.Signal)
		if err != nil {
			return fmt.Errorf("marshal signal: %w", err)
		}
		tokenJSON, err := json.Marshal(c.Token)
		if err != nil {
			return fmt.Errorf("marshal token: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			c.ID,
			string(c.Source),
			signalJSON,
			tokenJSON,
			c.Keywords,
			c.MatchScore,
			c.SentimentScore,
			c.ViralScore,
			string(c.ConfirmationStatus),
			c.CreatedAt,
			c.UpdatedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("append correlation %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append batch: %w", err)
	}
	return nil
}

// GetAll retrieves the full log, newest first.
func (s *CorrelationStore) GetAll(ctx context.Context) (_ []*domain.Correlation, err error) {
	start := time.Now()
	defer func() { observe("correlations.get_all", start, err) }()

	query := `
		SELECT ` + correlationColumns + `
		FROM correlations
		ORDER BY created_at DESC, correlation_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get correlations: %w", err)
	}
	defer rows.Close()

	return scanCorrelations(rows)
}

// SeenIDs returns the set of all correlation IDs in the log.
func (s *CorrelationStore) SeenIDs(ctx context.Context) (_ map[string]struct{}, err error) {
	start := time.Now()
	defer func() { observe("correlations.seen_ids", start, err) }()

	rows, err := s.pool.Query(ctx, `SELECT correlation_id FROM correlations`)
	if err != nil {
		return nil, fmt.Errorf("list correlation ids: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan correlation id: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correlation ids: %w", err)
	}
	return seen, nil
}

// UpdateStatus sets the confirmation status of one correlation.
func (s *CorrelationStore) UpdateStatus(ctx context.Context, id string, status domain.ConfirmationStatus, updatedAt time.Time) (err error) {
	if !domain.ValidConfirmationStatus(status) {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("correlations.update_status", start, err) }()

	query := `
		UPDATE correlations
		SET confirmation_status = $2, updated_at = $3
		WHERE correlation_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update correlation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanCorrelations(rows pgx.Rows) ([]*domain.Correlation, error) {
	var correlations []*domain.Correlation
	for rows.Next() {
		var (
			c          domain.Correlation
			sourceStr  string
			statusStr  string
			signalJSON []byte
			tokenJSON  []byte
			updatedAt  *time.Time
		)

		err := rows.Scan(
			&c.ID,
			&sourceStr,
			&signalJSON,
			&tokenJSON,
			&c.Keywords,
			&c.MatchScore,
			&c.SentimentScore,
			&c.ViralScore,
			&statusStr,
			&c.CreatedAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan correlation row: %w", err)
		}

		c.Source = domain.CorrelationSource(sourceStr)
		c.ConfirmationStatus = domain.ConfirmationStatus(statusStr)
		c.UpdatedAt = updatedAt
		if err := json.Unmarshal(signalJSON, &c.Signal); err != nil {
			return nil, fmt.Errorf("unmarshal signal: %w", err)
		}
		if err := json.Unmarshal(tokenJSON, &c.Token); err != nil {
			return nil, fmt.Errorf("unmarshal token: %w", err)
		}
		correlations = append(correlations, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correlation rows: %w", err)
	}
	return correlations, nil
}
