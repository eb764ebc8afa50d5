package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueService(t *testing.T) {
	t.Parallel()

	t.Run("returns links in queue order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQueueService(db)
		ctx := context.Background()

		require.NoError(t, svc.EnqueueLinks(ctx, "otodom", links("otodom", "/c", "/a")))
		require.NoError(t, svc.EnqueueLinks(ctx, "otodom", links("otodom", "/b", "/c")))

		queued, err := svc.QueuedLinks(ctx, "otodom")
		require.NoError(t, err)
		assert.Equal(t, links("otodom", "/c", "/a", "/b"), queued)
	})

	t.Run("dequeues only given links", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQueueService(db)
		ctx := context.Background()

		require.NoError(t, svc.EnqueueLinks(ctx, "otodom", links("otodom", "/a", "/b", "/c")))
		require.NoError(t, svc.DequeueLinks(ctx, "otodom", links("otodom", "/a", "/c", "/unknown")))

		queued, err := svc.QueuedLinks(ctx, "otodom")
		require.NoError(t, err)
		assert.Equal(t, links("otodom", "/b"), queued)
	})

	t.Run("keeps queues of sites apart", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQueueService(db)
		ctx := context.Background()

		require.NoError(t, svc.EnqueueLinks(ctx, "otodom", links("otodom", "/a")))
		require.NoError(t, svc.EnqueueLinks(ctx, "gratka", links("gratka", "/a")))
		require.NoError(t, svc.DequeueLinks(ctx, "gratka", links("gratka", "/a")))

		queued, err := svc.QueuedLinks(ctx, "otodom")
		require.NoError(t, err)
		assert.Equal(t, links("otodom", "/a"), queued)
	})

	t.Run("rejects empty site", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewQueueService(db)

		err := svc.EnqueueLinks(context.Background(), "", nil)
		assert.Equal(t, estate.EINVALID, estate.ErrorCode(err))
	})
}
