package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetkit/pkg/session"
)

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("removes only expired sessions and reports counts", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		now := time.Now()
		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead-1", "", now.Add(-time.Hour))))
		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead-2", "", now.Add(-time.Minute))))
		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "live", "", now.Add(time.Hour))))

		sweeper := session.NewSweeper(store)
		report, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.Deleted)
		assert.Equal(t, int64(1), report.RemainingTotal)
		assert.Equal(t, int64(1), report.RemainingActive)

		_, err = store.FindByToken(ctx, "live")
		require.NoError(t, err)
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		now := time.Now()
		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead", "", now.Add(-time.Hour))))

		sweeper := session.NewSweeper(store)

		report, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.Deleted)

		report, err = sweeper.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Deleted)
	})

	t.Run("empty store sweeps cleanly", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		report, err := session.NewSweeper(store).Sweep(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, session.SweepReport{}, report)
	})
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	t.Run("sweeps on the interval until cancelled", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		defer store.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, store.Insert(ctx, session.New(uuid.New(), "dead", "", time.Now().Add(-time.Hour))))

		sweeper := session.NewSweeper(store, session.WithSweepInterval(10*time.Millisecond))

		done := make(chan error, 1)
		go func() { done <- sweeper.Run(ctx) }()

		require.Eventually(t, func() bool {
			total, err := store.CountAll(ctx)
			return err == nil && total == 0
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancellation")
		}
	})
}
