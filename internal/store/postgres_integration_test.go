//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/donaldgifford/retail-price-tracker/internal/store"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("rpt_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// truncateAll empties every table so each suite case starts clean.
func truncateAll(t *testing.T, connStr string) {
	t.Helper()
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx,
		`TRUNCATE notification_intents, alerts, price_observations, products RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func TestPostgresStore(t *testing.T) {
	connStr := startPostgres(t)

	newStore := func(t *testing.T) store.Store {
		t.Helper()
		ctx := context.Background()

		s, err := store.NewPostgresStore(ctx, connStr)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Migrate(ctx))
		truncateAll(t, connStr)
		return s
	}

	// Cases share one database, so they run sequentially.
	runStoreSuite(t, newStore, false)
}

func TestPostgresStore_MigrateIdempotent(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	s, err := store.NewPostgresStore(ctx, connStr+"&pool_max_conns=2")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	assert.NoError(t, s.Ping(ctx))
}
