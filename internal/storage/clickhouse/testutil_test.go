package clickhouse

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	runMigrations(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// runMigrations applies the optimization history schema. Reads the SQL
// from the migrations directory on disk; the embedded copy lives in a
// package that imports this one.
func runMigrations(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	paths := []string{
		"../migrations/clickhouse/001_optimization_history.sql",
		"internal/storage/migrations/clickhouse/001_optimization_history.sql",
	}

	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		require.NoError(t, conn.Exec(ctx, string(content)), "failed to apply migration %s", p)
		return
	}

	// Fall back to an inline copy of the schema.
	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS optimization_history (
			alert_id              String,
			original_match_score  Float64,
			original_safety_score Float64,
			sentiment_score       Float64,
			whale_concentration   Float64,
			meme_virality         Float64,
			meme_age_hours        Float64,
			coin_age_hours        Float64,
			blacklisted_keywords  Array(String),
			should_trigger        UInt8,
			rejection_reasons     Array(String),
			optimized_score       Float64,
			evaluated_at          DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (alert_id, evaluated_at)
	`)
	require.NoError(t, err)
}
