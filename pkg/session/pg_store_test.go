package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetkit/pkg/session"
)

// newTestPGStore connects to the database named by TEST_POSTGRES_URL and
// prepares an empty refresh_tokens table. The test is skipped when the
// variable is unset so the suite stays runnable without infrastructure.
func newTestPGStore(t *testing.T) *session.PGStore {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			token TEXT NOT NULL,
			device_info TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT refresh_tokens_token_key UNIQUE (token)
		)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE refresh_tokens`)
	require.NoError(t, err)

	return session.NewPGStore(pool)
}

func TestPGStore_Roundtrip(t *testing.T) {
	store := newTestPGStore(t)
	ctx := context.Background()

	userID := uuid.New()
	record := session.New(userID, "pg-token", "Firefox on Linux", time.Now().Add(time.Hour))
	require.NoError(t, store.Insert(ctx, record))

	t.Run("duplicate token is rejected", func(t *testing.T) {
		dup := session.New(uuid.New(), "pg-token", "", time.Now().Add(time.Hour))
		require.ErrorIs(t, store.Insert(ctx, dup), session.ErrDuplicateToken)
	})

	t.Run("find returns the stored record", func(t *testing.T) {
		found, err := store.FindByToken(ctx, "pg-token")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
		assert.Equal(t, userID, found.UserID)
		assert.Equal(t, "Firefox on Linux", found.DeviceInfo)
		assert.WithinDuration(t, record.ExpiresAt, found.ExpiresAt, time.Second)
	})

	t.Run("missing token is not found", func(t *testing.T) {
		_, err := store.FindByToken(ctx, "missing")
		require.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("delete reports the affected count", func(t *testing.T) {
		n, err := store.DeleteByToken(ctx, "pg-token")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.DeleteByToken(ctx, "pg-token")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestPGStore_UserAndExpiryOperations(t *testing.T) {
	store := newTestPGStore(t)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	now := time.Now()

	older := session.New(userID, "older", "laptop", now.Add(time.Hour))
	older.CreatedAt = now.Add(-2 * time.Hour)
	newer := session.New(userID, "newer", "phone", now.Add(time.Hour))
	newer.CreatedAt = now.Add(-time.Hour)
	expired := session.New(userID, "expired", "", now.Add(-time.Minute))
	foreign := session.New(otherID, "foreign", "", now.Add(time.Hour))

	for _, s := range []*session.Session{older, newer, expired, foreign} {
		require.NoError(t, store.Insert(ctx, s))
	}

	t.Run("list active newest first", func(t *testing.T) {
		active, err := store.ListActiveByUser(ctx, userID, now)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "newer", active[0].Token)
		assert.Equal(t, "older", active[1].Token)
	})

	t.Run("counts distinguish total and active", func(t *testing.T) {
		total, err := store.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)

		activeN, err := store.CountActive(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), activeN)
	})

	t.Run("delete expired removes only dead records", func(t *testing.T) {
		n, err := store.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = store.FindByToken(ctx, "expired")
		require.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("delete by user spares other users", func(t *testing.T) {
		n, err := store.DeleteByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = store.FindByToken(ctx, "foreign")
		require.NoError(t, err)
	})
}
