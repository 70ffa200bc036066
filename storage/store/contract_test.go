package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqsync/internal/models"
)

func newRecord(id string) *models.Record {
	return &models.Record{
		ID:        id,
		Payload:   models.Payload{Name: "name-" + id, Mobile: "07711111111"},
		Status:    models.StatusNew,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func ids(recs []models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// runStoreContract exercises the behaviour every Store backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("append starts unsynced", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, got.SyncedToRemote)
		assert.Equal(t, models.SyncPending, got.SyncState)
		assert.Equal(t, "name-a", got.Payload.Name)
		assert.Equal(t, models.StatusNew, got.Status)
		assert.Nil(t, got.SyncedAt)
	})

	t.Run("append ignores incoming sync state", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("x")
		at := time.Now().UTC()
		rec.SyncState = models.SyncSynced
		rec.SyncedToRemote = true
		rec.SyncedAt = &at
		rec.RejectReason = "stale"
		require.NoError(t, s.Append(ctx, rec))

		got, err := s.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, models.SyncPending, got.SyncState)
		assert.False(t, got.SyncedToRemote)
		assert.Nil(t, got.SyncedAt)
		assert.Empty(t, got.RejectReason)

		pending, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, ids(pending))
	})

	t.Run("most recent first", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.Append(ctx, newRecord(id)))
		}

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids(all))

		unsynced, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids(unsynced))
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))
		assert.ErrorIs(t, s.Append(ctx, newRecord("a")), ErrDuplicateID)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mark synced is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))
		require.NoError(t, s.Append(ctx, newRecord("b")))

		require.NoError(t, s.MarkSynced(ctx, "a"))
		first, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, first.SyncedToRemote)
		require.NotNil(t, first.SyncedAt)

		require.NoError(t, s.MarkSynced(ctx, "a"))
		require.NoError(t, s.MarkSynced(ctx, "unknown"))

		again, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, again.SyncedToRemote)
		assert.Equal(t, models.SyncSynced, again.SyncState)
		assert.True(t, first.SyncedAt.Equal(*again.SyncedAt), "second mark must not move syncedAt")

		other, err := s.Get(ctx, "b")
		require.NoError(t, err)
		assert.False(t, other.SyncedToRemote)

		unsynced, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(unsynced))
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))

		require.NoError(t, s.MarkRejected(ctx, "a", "mobile is invalid"))
		require.NoError(t, s.MarkRejected(ctx, "unknown", "x"))
		require.NoError(t, s.MarkSynced(ctx, "a"))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, models.SyncRejected, got.SyncState)
		assert.False(t, got.SyncedToRemote)
		assert.Equal(t, "mobile is invalid", got.RejectReason)

		unsynced, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		assert.Empty(t, unsynced)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1, "rejected records are kept")
	})

	t.Run("synced is never reverted", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))
		require.NoError(t, s.MarkSynced(ctx, "a"))
		require.NoError(t, s.MarkRejected(ctx, "a", "late rejection"))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, got.SyncedToRemote)
		assert.Empty(t, got.RejectReason)
	})

	t.Run("snapshot ignores later appends", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))

		snap, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, newRecord("b")))
		require.NoError(t, s.MarkSynced(ctx, "a"))

		assert.Equal(t, []string{"a"}, ids(snap))
		assert.False(t, snap[0].SyncedToRemote, "snapshot holds copies")
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newRecord("a")))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		got.SyncedToRemote = true
		got.Payload.Name = "changed"

		again, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, again.SyncedToRemote)
		assert.Equal(t, "name-a", again.Payload.Name)
	})

	t.Run("concurrent appends and marks", func(t *testing.T) {
		s := newStore(t)
		const n = 50

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("r%02d", i)
				assert.NoError(t, s.Append(ctx, newRecord(id)))
				if i%2 == 0 {
					assert.NoError(t, s.MarkSynced(ctx, id))
				}
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, n)

		unsynced, err := s.ListUnsynced(ctx)
		require.NoError(t, err)
		assert.Len(t, unsynced, n/2)
	})
}
