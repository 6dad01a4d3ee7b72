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

// AlertStore implements storage.AlertStore using PostgreSQL. The signal
// and token snapshots are stored as JSONB documents; queries partition
// on the status column.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

const alertColumns = `
	alert_id, status, signal, token, match, safety, keywords,
	optimization, created_at, updated_at
`

// Insert adds a new alert. Returns ErrDuplicateKey if the ID exists.
func (s *AlertStore) Insert(ctx context.Context, a *domain.Alert) (err error) {
	start := time.Now()
	defer func() { observe("alerts.insert", start, err) }()

	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidAlertStatus(a.Status) {
		return storage.ErrInvalidInput
	}

	signalJSON, tokenJSON, matchJSON, safetyJSON, optJSON, err := marshalAlert(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO alerts (
			alert_id, status, signal, token, match, safety, keywords,
			optimization, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		a.ID,
		string(a.Status),
		signalJSON,
		tokenJSON,
		matchJSON,
		safetyJSON,
		a.Keywords,
		optJSON,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetByID retrieves an alert by ID regardless of status.
func (s *AlertStore) GetByID(ctx context.Context, alertID string) (_ *domain.Alert, err error) {
	start := time.Now()
	defer func() { observe("alerts.get", start, err) }()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE alert_id = $1`

	row := s.pool.QueryRow(ctx, query, alertID)
	a, err := scanAlert(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by id: %w", err)
	}
	return a, nil
}

// ListActive retrieves alerts in triggered or pending status, newest first.
func (s *AlertStore) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	return s.listByStatuses(ctx, domain.AlertTriggered, domain.AlertPending)
}

// ListInactive retrieves alerts in dismissed or resolved status, newest first.
func (s *AlertStore) ListInactive(ctx context.Context) ([]*domain.Alert, error) {
	return s.listByStatuses(ctx, domain.AlertDismissed, domain.AlertResolved)
}

func (s *AlertStore) listByStatuses(ctx context.Context, statuses ...domain.AlertStatus) (_ []*domain.Alert, err error) {
	start := time.Now()
	defer func() { observe("alerts.list", start, err) }()

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE status = ANY($1)
		ORDER BY created_at DESC, alert_id ASC
	`

	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}

	rows, err := s.pool.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// Update overwrites an existing alert. Returns ErrNotFound for an
// unknown ID.
func (s *AlertStore) Update(ctx context.Context, a *domain.Alert) (err error) {
	start := time.Now()
	defer func() { observe("alerts.update", start, err) }()

	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidAlertStatus(a.Status) {
		return storage.ErrInvalidInput
	}

	signalJSON, tokenJSON, matchJSON, safetyJSON, optJSON, err := marshalAlert(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE alerts
		SET status = $2, signal = $3, token = $4, match = $5, safety = $6,
		    keywords = $7, optimization = $8, created_at = $9, updated_at = $10
		WHERE alert_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		a.ID,
		string(a.Status),
		signalJSON,
		tokenJSON,
		matchJSON,
		safetyJSON,
		a.Keywords,
		optJSON,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func marshalAlert(a *domain.Alert) (signal, token, match, safety, optimization []byte, err error) {
	if signal, err = json.Marshal(a.Signal); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal signal: %w", err)
	}
	if token, err = json.Marshal(a.Token); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal token: %w", err)
	}
	if match, err = json.Marshal(a.Match); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal match: %w", err)
	}
	if safety, err = json.Marshal(a.Safety); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal safety: %w", err)
	}
	if a.Optimization != nil {
		if optimization, err = json.Marshal(a.Optimization); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("marshal optimization: %w", err)
		}
	}
	return signal, token, match, safety, optimization, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a          domain.Alert
		statusStr  string
		signalJSON []byte
		tokenJSON  []byte
		matchJSON  []byte
		safetyJSON []byte
		optJSON    []byte
		updatedAt  *time.Time
	)

	err := row.Scan(
		&a.ID,
		&statusStr,
		&signalJSON,
		&tokenJSON,
		&matchJSON,
		&safetyJSON,
		&a.Keywords,
		&optJSON,
		&a.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = domain.AlertStatus(statusStr)
	a.UpdatedAt = updatedAt
	if err := json.Unmarshal(signalJSON, &a.Signal); err != nil {
		return nil, fmt.Errorf("unmarshal signal: %w", err)
	}
	if err := json.Unmarshal(tokenJSON, &a.Token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	if err := json.Unmarshal(matchJSON, &a.Match); err != nil {
		return nil, fmt.Errorf("unmarshal match: %w", err)
	}
	if err := json.Unmarshal(safetyJSON, &a.Safety); err != nil {
		return nil, fmt.Errorf("unmarshal safety: %w", err)
	}
	if len(optJSON) > 0 {
		a.Optimization = &domain.OptimizationResult{}
		if err := json.Unmarshal(optJSON, a.Optimization); err != nil {
			return nil, fmt.Errorf("unmarshal optimization: %w", err)
		}
	}
	return &a, nil
}

func scanAlerts(rows pgx.Rows) ([]*domain.Alert, error) {
	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}
	return alerts, nil
}
