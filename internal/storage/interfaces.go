package storage

import (
	"context"
	"time"

	"meme-token-radar/internal/domain"
)

// AlertStore provides access to persisted alerts. Alerts live in one of
// two logical partitions: active (triggered, pending) and inactive
// (dismissed, resolved). Status updates relocate records between them.
type AlertStore interface {
	// Insert adds a new alert. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, a *domain.Alert) error

	// GetByID retrieves an alert from either partition.
	// Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, alertID string) (*domain.Alert, error)

	// ListActive retrieves all alerts in the active partition,
	// ordered by created_at descending.
	ListActive(ctx context.Context) ([]*domain.Alert, error)

	// ListInactive retrieves all alerts in the inactive partition,
	// ordered by created_at descending.
	ListInactive(ctx context.Context) ([]*domain.Alert, error)

	// Update overwrites an existing alert, relocating it between
	// partitions if its status changed. Returns ErrNotFound for an
	// unknown ID.
	Update(ctx context.Context, a *domain.Alert) error
}

// CorrelationStore provides access to the append-only correlation log.
type CorrelationStore interface {
	// AppendBatch appends correlations atomically: a failure mid-batch
	// must never be observable as partial progress. Returns
	// ErrDuplicateKey if any ID already exists in the log.
	AppendBatch(ctx context.Context, batch []*domain.Correlation) error

	// GetAll retrieves the full log, ordered by created_at descending.
	GetAll(ctx context.Context) ([]*domain.Correlation, error)

	// SeenIDs returns the set of all correlation IDs in the log.
	SeenIDs(ctx context.Context) (map[string]struct{}, error)

	// UpdateStatus sets the confirmation status and updated_at of one
	// correlation. Returns ErrNotFound for an unknown ID.
	UpdateStatus(ctx context.Context, id string, status domain.ConfirmationStatus, updatedAt time.Time) error
}

// RuleStore persists the optimizer rule set as a single document.
type RuleStore interface {
	// Load retrieves the persisted rule set.
	// Returns ErrNotFound if none has been saved yet.
	Load(ctx context.Context) (*domain.RuleSet, error)

	// Save persists the entire rule set, replacing any previous document.
	Save(ctx context.Context, rules *domain.RuleSet) error
}

// OptimizationHistoryStore records every optimizer evaluation for
// offline analysis of threshold quality. Append-only.
type OptimizationHistoryStore interface {
	// InsertBulk appends evaluation results. Fails the entire batch on error.
	InsertBulk(ctx context.Context, results []*domain.OptimizationResult) error

	// GetByAlertID retrieves all evaluations for an alert, ordered by
	// evaluated_at ascending.
	GetByAlertID(ctx context.Context, alertID string) ([]*domain.OptimizationResult, error)

	// GetByTimeRange retrieves evaluations within [start, end] inclusive,
	// ordered by evaluated_at ascending.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.OptimizationResult, error)
}
