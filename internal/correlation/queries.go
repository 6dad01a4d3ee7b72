package correlation

import (
	"context"
	"fmt"

	"meme-token-radar/internal/domain"
)

// Filter narrows the result of List. Zero values match everything.
type Filter struct {
	Source domain.CorrelationSource
	Status domain.ConfirmationStatus
	Limit  int
}

// List returns correlations newest first, optionally filtered by source
// and confirmation status and truncated to Limit entries.
func (e *Engine) List(ctx context.Context, filter Filter) ([]*domain.Correlation, error) {
	all, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list correlations: %w", err)
	}

	var out []*domain.Correlation
	for _, c := range all {
		if filter.Source != "" && c.Source != filter.Source {
			continue
		}
		if filter.Status != "" && c.ConfirmationStatus != filter.Status {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// UpdateStatus moves a correlation to a new confirmation status and
// stamps the transition time.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status domain.ConfirmationStatus) error {
	if !domain.ValidConfirmationStatus(status) {
		return fmt.Errorf("invalid confirmation status %q", status)
	}
	if err := e.store.UpdateStatus(ctx, id, status, e.now()); err != nil {
		return fmt.Errorf("update correlation %s: %w", id, err)
	}
	return nil
}
