package optimizer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

// BatchOptimize evaluates every active alert in the store, stamps the
// evaluation onto the alert record, and records the run in the
// optimization history when one is configured. One failing alert is
// logged and skipped, not fatal for the batch.
func (o *Optimizer) BatchOptimize(ctx context.Context, alerts storage.AlertStore) ([]*domain.OptimizationResult, error) {
	active, err := alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	o.logger.Info("batch optimizing alerts", zap.Int("count", len(active)))

	results := make([]*domain.OptimizationResult, 0, len(active))
	for _, alert := range active {
		result := o.Optimize(ctx, alert)
		results = append(results, result)

		alert.Optimization = result
		if err := alerts.Update(ctx, alert); err != nil {
			o.logger.Error("failed to persist optimization onto alert",
				zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}

	if o.history != nil && len(results) > 0 {
		if err := o.history.InsertBulk(ctx, results); err != nil {
			o.logger.Error("failed to record optimization history", zap.Error(err))
		}
	}
	return results, nil
}
