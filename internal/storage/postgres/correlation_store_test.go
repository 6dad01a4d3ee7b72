package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-token-radar/internal/domain"
	"meme-token-radar/internal/storage"
)

func testCorrelation(id string, createdAt time.Time) *domain.Correlation {
	return &domain.Correlation{
		ID:     id,
		Source: domain.SourceManual,
		Signal: domain.SocialSignal{
			ID:        "sig-1",
			Platform:  "reddit",
			Text:      "pepe season is back",
			CreatedAt: createdAt.Add(-time.Hour),
			Processed: true,
			Keywords:  []string{"pepe"},
		},
		Token: domain.TokenRecord{
			Address:    "0x2222222222222222222222222222222222222222",
			Name:       "pepe",
			Symbol:     "PEPE",
			Blockchain: "ethereum",
			CreatedAt:  createdAt.Add(-30 * time.Minute),
		},
		Keywords:           []string{"pepe"},
		MatchScore:         1.0,
		SentimentScore:     0.4,
		ViralScore:         0.6,
		ConfirmationStatus: domain.StatusPotential,
		CreatedAt:          createdAt,
	}
}

func TestCorrelationStore_AppendBatchAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCorrelationStore(pool)
	ctx := context.Background()

	// Empty batch is a no-op.
	require.NoError(t, store.AppendBatch(ctx, nil))

	now := time.Now().UTC().Truncate(time.Millisecond)
	batch := []*domain.Correlation{
		testCorrelation("corr-1", now.Add(-time.Hour)),
		testCorrelation("corr-2", now),
	}
	require.NoError(t, store.AppendBatch(ctx, batch))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by created_at descending
	assert.Equal(t, "corr-2", got[0].ID)
	assert.Equal(t, "corr-1", got[1].ID)
	assert.Equal(t, "pepe", got[1].Token.Name)
	assert.Equal(t, []string{"pepe"}, got[1].Keywords)
	assert.Equal(t, 1.0, got[1].MatchScore)
	assert.Equal(t, domain.StatusPotential, got[1].ConfirmationStatus)
}

func TestCorrelationStore_AppendBatch_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCorrelationStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.AppendBatch(ctx, []*domain.Correlation{
		testCorrelation("corr-1", now),
	}))

	// A batch containing one duplicate must not land any of its rows.
	err := store.AppendBatch(ctx, []*domain.Correlation{
		testCorrelation("corr-2", now),
		testCorrelation("corr-1", now),
		testCorrelation("corr-3", now),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "corr-1", got[0].ID)
}

func TestCorrelationStore_AppendBatch_Invalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCorrelationStore(pool)
	ctx := context.Background()

	noID := testCorrelation("", time.Now().UTC())
	err := store.AppendBatch(ctx, []*domain.Correlation{noID})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	badStatus := testCorrelation("corr-1", time.Now().UTC())
	badStatus.ConfirmationStatus = "maybe"
	err = store.AppendBatch(ctx, []*domain.Correlation{badStatus})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestCorrelationStore_SeenIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCorrelationStore(pool)
	ctx := context.Background()

	seen, err := store.SeenIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	now := time.Now().UTC()
	require.NoError(t, store.AppendBatch(ctx, []*domain.Correlation{
		testCorrelation("corr-1", now),
		testCorrelation("corr-2", now),
	}))

	seen, err = store.SeenIDs(ctx)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Contains(t, seen, "corr-1")
	assert.Contains(t, seen, "corr-2")
}

func TestCorrelationStore_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCorrelationStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.AppendBatch(ctx, []*domain.Correlation{
		testCorrelation("corr-1", now),
	}))

	updatedAt := now.Add(time.Minute)
	require.NoError(t, store.UpdateStatus(ctx, "corr-1", domain.StatusConfirmed, updatedAt))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusConfirmed, got[0].ConfirmationStatus)
	require.NotNil(t, got[0].UpdatedAt)
	assert.True(t, got[0].UpdatedAt.Equal(updatedAt))

	err = store.UpdateStatus(ctx, "missing", domain.StatusRejected, updatedAt)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.UpdateStatus(ctx, "corr-1", "maybe", updatedAt)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
