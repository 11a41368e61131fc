package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres provisions a migrated database for repository tests. It uses
// TEST_DATABASE_URL when set (faster for CI and local runs against an
// existing database) and otherwise starts a throwaway postgres container.
func setupPostgres(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		url = startPostgresContainer(t, ctx)
	}

	require.NoError(t, migrateUpWithRetry(url, "migrations", 10*time.Second))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE events, accounts RESTART IDENTITY`)
	require.NoError(t, err)

	repo, err := NewRepository(pool)
	require.NoError(t, err)
	return repo
}

func startPostgresContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gatherpoint_test"),
		tcpostgres.WithUsername("gatherpoint"),
		tcpostgres.WithPassword("gatherpoint-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	return url
}

// migrateUpWithRetry absorbs the brief window where a fresh container accepts
// TCP connections but is still restarting after initdb.
func migrateUpWithRetry(databaseURL string, migrationsPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := MigrateUp(databaseURL, migrationsPath)
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}
