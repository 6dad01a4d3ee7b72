package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/observability"
	"meme-token-radar/internal/storage"
)

func testAlert(id string, createdAt time.Time) *domain.Alert {
	return &domain.Alert{
		ID:     id,
		Status: domain.AlertTriggered,
		Signal: domain.SocialSignal{
			ID:        "sig-1",
			Platform:  "reddit",
			Title:     "dogecoin to the moon",
			Text:      "new doge meme going viral",
			CreatedAt: createdAt.Add(-time.Hour),
			Processed: true,
			Keywords:  []string{"doge", "moon"},
		},
		Token: domain.TokenRecord{
			Address:    "0x1111111111111111111111111111111111111111",
			Name:       "dogecoin",
			Symbol:     "DOGE",
			Blockchain: "ethereum",
			CreatedAt:  createdAt.Add(-30 * time.Minute),
		},
		Match: domain.AlertMatch{
			Keyword: "doge",
			Score:   0.9,
			Type:    domain.MatchTypeName,
		},
		Safety: domain.SafetyReport{
			Score:       0.65,
			RiskFactors: []string{"unverified contract"},
		},
		Keywords:  []string{"doge", "moon"},
		CreatedAt: createdAt,
	}
}

func TestAlertStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	alert := testAlert("alert-1", now)

	err := store.Insert(ctx, alert)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, "alert-1", got.ID)
	assert.Equal(t, domain.AlertTriggered, got.Status)
	assert.Equal(t, "sig-1", got.Signal.ID)
	assert.Equal(t, "dogecoin", got.Token.Name)
	assert.Equal(t, "doge", got.Match.Keyword)
	assert.Equal(t, 0.65, got.Safety.Score)
	assert.Equal(t, []string{"doge", "moon"}, got.Keywords)
	assert.Nil(t, got.UpdatedAt)
	assert.Nil(t, got.Optimization)
}

func TestAlertStore_RecordsQueryMetrics(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	insert := observability.DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "alerts.insert")
	errorsBefore := testutil.ToFloat64(insert)

	require.NoError(t, store.Insert(ctx, testAlert("alert-metrics", time.Now().UTC())))
	_, err := store.GetByID(ctx, "alert-metrics")
	require.NoError(t, err)

	// Timings are recorded for every query, errors only for failed ones.
	samples := testutil.CollectAndCount(observability.DefaultMetrics.DBQueryDuration)
	assert.GreaterOrEqual(t, samples, 2)
	assert.Equal(t, 0.0, testutil.ToFloat64(insert)-errorsBefore)

	err = store.Insert(ctx, testAlert("alert-metrics", time.Now().UTC()))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, 1.0, testutil.ToFloat64(insert)-errorsBefore)
}

func TestAlertStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	alert := testAlert("alert-1", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, alert))

	err := store.Insert(ctx, alert)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAlertStore_Insert_Invalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	noID := testAlert("", time.Now().UTC())
	assert.ErrorIs(t, store.Insert(ctx, noID), storage.ErrInvalidInput)

	badStatus := testAlert("alert-1", time.Now().UTC())
	badStatus.Status = "archived"
	assert.ErrorIs(t, store.Insert(ctx, badStatus), storage.ErrInvalidInput)
}

func TestAlertStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAlertStore_ListActiveAndInactive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)

	triggered := testAlert("alert-1", now.Add(-2*time.Hour))
	pending := testAlert("alert-2", now.Add(-time.Hour))
	pending.Status = domain.AlertPending
	dismissed := testAlert("alert-3", now)
	dismissed.Status = domain.AlertDismissed

	require.NoError(t, store.Insert(ctx, triggered))
	require.NoError(t, store.Insert(ctx, pending))
	require.NoError(t, store.Insert(ctx, dismissed))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// Ordered by created_at descending
	assert.Equal(t, "alert-2", active[0].ID)
	assert.Equal(t, "alert-1", active[1].ID)

	inactive, err := store.ListInactive(ctx)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "alert-3", inactive[0].ID)
}

func TestAlertStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	alert := testAlert("alert-1", now)
	require.NoError(t, store.Insert(ctx, alert))

	updatedAt := now.Add(time.Minute)
	alert.Status = domain.AlertDismissed
	alert.UpdatedAt = &updatedAt
	alert.Optimization = &domain.OptimizationResult{
		AlertID:          "alert-1",
		ShouldTrigger:    false,
		RejectionReasons: []string{"Meme virality too low: 0.10 < 0.3"},
		OptimizedScore:   0.42,
		EvaluatedAt:      updatedAt,
	}

	require.NoError(t, store.Update(ctx, alert))

	got, err := store.GetByID(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AlertDismissed, got.Status)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(updatedAt))
	require.NotNil(t, got.Optimization)
	assert.Equal(t, 0.42, got.Optimization.OptimizedScore)
	assert.False(t, got.Optimization.ShouldTrigger)

	// Status change moved it out of the active partition.
	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAlertStore_Update_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAlertStore(pool)

	err := store.Update(context.Background(), testAlert("missing", time.Now().UTC()))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
