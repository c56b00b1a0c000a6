package database

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	testPool, err = Connect(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	defer testPool.Close()

	if err := ProvisionSchema(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to provision schema: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupTestDB returns the shared pool and registers cleanup to truncate tables.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Cleanup(func() {
		_, err := testPool.Exec(context.Background(), "TRUNCATE streamers")
		require.NoError(t, err)
	})

	return testPool
}

func strPtr(s string) *string {
	return &s
}

func TestProvisionSchema_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	// The schema already exists from TestMain; two further runs must succeed
	// without error and without touching existing rows.
	repo := NewStreamerRepo(pool)
	_, err := repo.Upsert(ctx, "123", strPtr("Alice"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, ProvisionSchema(ctx, pool))
	require.NoError(t, ProvisionSchema(ctx, pool))

	streamer, err := repo.GetByTwitchID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", *streamer.DisplayName)
}

func TestUpsertStreamer_Insert(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStreamerRepo(pool)
	ctx := context.Background()

	streamer, err := repo.Upsert(ctx, "123", strPtr("Alice"), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "123", streamer.TwitchID)
	require.NotNil(t, streamer.DisplayName)
	assert.Equal(t, "Alice", *streamer.DisplayName)
	assert.Nil(t, streamer.Description)
	assert.Nil(t, streamer.ProfileImageURL)
	assert.False(t, streamer.CreatedAt.IsZero())
}

func TestUpsertStreamer_UpdateOverwritesFieldsButNotCreatedAt(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStreamerRepo(pool)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "123", strPtr("Alice"), nil, nil)
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, "123", strPtr("Alice2"), strPtr("hi"), nil)
	require.NoError(t, err)

	assert.Equal(t, "123", second.TwitchID)
	assert.Equal(t, "Alice2", *second.DisplayName)
	assert.Equal(t, "hi", *second.Description)
	assert.Nil(t, second.ProfileImageURL)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at is never modified after first insert")
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestUpsertStreamer_OmittedFieldOverwritesWithNull(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStreamerRepo(pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "123", strPtr("Alice"), strPtr("a description"), strPtr("https://example.com/a.png"))
	require.NoError(t, err)

	// No partial-field-preserving merge: omitted fields clear stored values.
	updated, err := repo.Upsert(ctx, "123", strPtr("Alice"), nil, nil)
	require.NoError(t, err)

	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.ProfileImageURL)
}

func TestGetByTwitchID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStreamerRepo(pool)

	_, err := repo.GetByTwitchID(context.Background(), "does-not-exist")

	assert.ErrorIs(t, err, ErrStreamerNotFound)
}

func TestListStreamers_OrderedByRegistration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStreamerRepo(pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "1", strPtr("Alice"), nil, nil)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "2", strPtr("Bob"), nil, nil)
	require.NoError(t, err)

	// Re-registering the first creator must not move it in the roster.
	_, err = repo.Upsert(ctx, "1", strPtr("Alice2"), nil, nil)
	require.NoError(t, err)

	streamers, err := repo.List(ctx)
	require.NoError(t, err)

	require.Len(t, streamers, 2)
	assert.Equal(t, "1", streamers[0].TwitchID)
	assert.Equal(t, "Alice2", *streamers[0].DisplayName)
	assert.Equal(t, "2", streamers[1].TwitchID)
}
