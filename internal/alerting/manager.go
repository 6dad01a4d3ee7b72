// Package alerting creates and manages alerts for signal-token matches
// clearing the trigger threshold.
package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/observability"
	"meme-token-radar/internal/storage"
)

// TriggerThreshold is the minimum match score for an alert to be created.
const TriggerThreshold = 0.7

// Notifier delivers an alert to an external channel.
type Notifier interface {
	Notify(ctx context.Context, alert *domain.Alert) error
}

// Manager creates alerts and tracks the active set. The in-memory cache
// mirrors the store's active partition and is refreshed on every
// ActiveAlerts call.
type Manager struct {
	store    storage.AlertStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu     sync.Mutex
	active []*domain.Alert
}

// Options configures a Manager.
type Options struct {
	Store storage.AlertStore

	// Notifier is optional. Delivery failures are logged, never fatal.
	Notifier Notifier

	Logger *zap.Logger
	Now    func() time.Time

	// NewID overrides alert ID generation, for deterministic tests.
	NewID func() string
}

// NewManager creates a Manager and primes the active cache from the store.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	m := &Manager{
		store:    opts.Store,
		notifier: opts.Notifier,
		logger:   logger,
		now:      now,
		newID:    newID,
	}

	active, err := m.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active alerts: %w", err)
	}
	m.active = active
	logger.Info("loaded active alerts", zap.Int("count", len(active)))
	return m, nil
}

// CreateAlert builds and persists an alert for a matched token. Returns
// (nil, nil) when the match score is below TriggerThreshold.
func (m *Manager) CreateAlert(ctx context.Context, signal *domain.SocialSignal, match *domain.TokenMatch, safety *domain.SafetyReport, keywords []string) (*domain.Alert, error) {
	if match.Score < TriggerThreshold {
		m.logger.Debug("match score below trigger threshold, skipping alert",
			zap.Float64("score", match.Score),
			zap.String("token", match.Token.Name))
		return nil, nil
	}

	alert := &domain.Alert{
		ID:     m.newID(),
		Status: domain.AlertTriggered,
		Signal: *signal,
		Token:  match.Token,
		Match: domain.AlertMatch{
			Keyword: match.Keyword,
			Score:   match.Score,
			Type:    match.Type,
		},
		Keywords:  append([]string(nil), keywords...),
		CreatedAt: m.now(),
	}
	if safety != nil {
		alert.Safety = domain.SafetyReport{
			Score:       safety.Score,
			RiskFactors: append([]string(nil), safety.RiskFactors...),
		}
	}

	if err := m.store.Insert(ctx, alert); err != nil {
		return nil, fmt.Errorf("persist alert: %w", err)
	}

	m.mu.Lock()
	m.active = append(m.active, alert)
	m.mu.Unlock()

	m.logger.Info("created alert",
		zap.String("alert_id", alert.ID),
		zap.String("token", alert.Token.Name),
		zap.Float64("match_score", alert.Match.Score))
	observability.RecordAlertStatusChange("", string(alert.Status))

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, alert); err != nil {
			m.logger.Error("alert notification failed",
				zap.String("alert_id", alert.ID), zap.Error(err))
			observability.RecordNotifyError()
		}
	}
	return alert, nil
}

// ActiveAlerts refreshes the cache from the store and returns all alerts
// in triggered or pending status.
func (m *Manager) ActiveAlerts(ctx context.Context) ([]*domain.Alert, error) {
	active, err := m.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}

	m.mu.Lock()
	m.active = active
	m.mu.Unlock()
	return active, nil
}

// GetAlert returns one alert by ID regardless of status.
func (m *Manager) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	alert, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", id, err)
	}
	return alert, nil
}

// UpdateStatus transitions an alert to a new lifecycle status. Alerts
// moved to a terminal status leave the active cache but stay queryable
// by ID.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status domain.AlertStatus) error {
	if !domain.ValidAlertStatus(status) {
		return fmt.Errorf("invalid alert status %q", status)
	}

	alert, err := m.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get alert %s: %w", id, err)
	}

	previous := alert.Status
	updatedAt := m.now()
	alert.Status = status
	alert.UpdatedAt = &updatedAt

	if err := m.store.Update(ctx, alert); err != nil {
		return fmt.Errorf("update alert %s: %w", id, err)
	}
	observability.RecordAlertStatusChange(string(previous), string(status))

	m.mu.Lock()
	if status.Active() {
		replaced := false
		for i, cached := range m.active {
			if cached.ID == id {
				m.active[i] = alert
				replaced = true
				break
			}
		}
		if !replaced {
			m.active = append(m.active, alert)
		}
	} else {
		kept := m.active[:0]
		for _, cached := range m.active {
			if cached.ID != id {
				kept = append(kept, cached)
			}
		}
		m.active = kept
	}
	m.mu.Unlock()

	m.logger.Info("updated alert status",
		zap.String("alert_id", id), zap.String("status", string(status)))
	return nil
}
