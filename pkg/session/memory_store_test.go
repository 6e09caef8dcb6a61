package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetkit/pkg/session"
)

func TestMemoryStore_Insert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores a copy of the session", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		original := session.New(uuid.New(), "token-1", "device", time.Now().Add(time.Hour))
		require.NoError(t, store.Insert(ctx, original))

		original.DeviceInfo = "mutated after insert"

		found, err := store.FindByToken(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, "device", found.DeviceInfo)
	})

	t.Run("rejects duplicate tokens", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dup", "", time.Now().Add(time.Hour))))
		err := store.Insert(ctx, session.New(uuid.New(), "dup", "", time.Now().Add(time.Hour)))
		require.ErrorIs(t, err, session.ErrDuplicateToken)
	})

	t.Run("rejects invalid sessions", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		require.ErrorIs(t, store.Insert(ctx, nil), session.ErrInvalidSession)
		require.ErrorIs(t, store.Insert(ctx, session.New(uuid.New(), "", "", time.Now())), session.ErrInvalidSession)
		require.ErrorIs(t, store.Insert(ctx, session.New(uuid.Nil, "tok", "", time.Now())), session.ErrInvalidSession)
	})
}

func TestMemoryStore_FindByToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	// Expired records are still findable until a sweep removes them.
	expired := session.New(uuid.New(), "expired", "", time.Now().Add(-time.Hour))
	require.NoError(t, store.Insert(ctx, expired))

	found, err := store.FindByToken(ctx, "expired")
	require.NoError(t, err)
	assert.True(t, found.IsExpired(time.Now()))

	_, err = store.FindByToken(ctx, "missing")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStore_DeleteByToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "tok", "", time.Now().Add(time.Hour))))

	n, err := store.DeleteByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// The count distinguishes the winner of a rotation race from everyone else.
	n, err = store.DeleteByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryStore_DeleteByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	userID := uuid.New()
	otherID := uuid.New()
	require.NoError(t, store.Insert(ctx, session.New(userID, "a", "", time.Now().Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, session.New(userID, "b", "", time.Now().Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, session.New(otherID, "c", "", time.Now().Add(time.Hour))))

	n, err := store.DeleteByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	total, err := store.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	now := time.Now()
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead", "", now.Add(-time.Minute))))
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "live", "", now.Add(time.Minute))))
	// Exactly-at-cutoff records are not expired yet.
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "edge", "", now)))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.FindByToken(ctx, "dead")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = store.FindByToken(ctx, "live")
	require.NoError(t, err)
	_, err = store.FindByToken(ctx, "edge")
	require.NoError(t, err)
}

func TestMemoryStore_ListActiveByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	userID := uuid.New()
	now := time.Now()

	older := session.New(userID, "older", "old laptop", now.Add(time.Hour))
	older.CreatedAt = now.Add(-2 * time.Hour)
	newer := session.New(userID, "newer", "new phone", now.Add(time.Hour))
	newer.CreatedAt = now.Add(-time.Hour)
	expired := session.New(userID, "gone", "", now.Add(-time.Minute))
	foreign := session.New(uuid.New(), "foreign", "", now.Add(time.Hour))

	for _, s := range []*session.Session{older, newer, expired, foreign} {
		require.NoError(t, store.Insert(ctx, s))
	}

	active, err := store.ListActiveByUser(ctx, userID, now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "newer", active[0].Token)
	assert.Equal(t, "older", active[1].Token)
}

func TestMemoryStore_Counts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	now := time.Now()
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "live", "", now.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead", "", now.Add(-time.Hour))))

	total, err := store.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	active, err := store.CountActive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(10 * time.Millisecond)
	defer store.Close()

	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead", "", time.Now().Add(-time.Hour))))
	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "live", "", time.Now().Add(time.Hour))))

	require.Eventually(t, func() bool {
		total, err := store.CountAll(ctx)
		return err == nil && total == 1
	}, time.Second, 10*time.Millisecond)

	_, err := store.FindByToken(ctx, "live")
	require.NoError(t, err)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(10 * time.Millisecond)
	require.NoError(t, store.Close())
	require.NotPanics(t, func() {
		require.NoError(t, store.Close())
	})

	// A store without a cleanup loop closes the same way.
	plain := session.NewMemoryStore(0)
	require.NoError(t, plain.Close())
	require.NoError(t, plain.Close())
}

func TestMemoryStore_ConcurrentDeleteHasOneWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	defer store.Close()

	require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "contested", "", time.Now().Add(time.Hour))))

	const goroutines = 16
	var wg sync.WaitGroup
	results := make(chan int64, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.DeleteByToken(ctx, "contested")
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	var winners int64
	for n := range results {
		winners += n
	}
	assert.Equal(t, int64(1), winners)
}
