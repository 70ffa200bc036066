package store

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqsync/internal/models"
)

func openTestPebble(t *testing.T, dir string, maxRecords int) *PebbleStore {
	t.Helper()
	s, err := OpenPebbleStore(dir, maxRecords, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return s
}

func TestPebbleStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s := openTestPebble(t, t.TempDir(), 0)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPebbleStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openTestPebble(t, dir, 0)
	require.NoError(t, s.Append(ctx, newRecord("a")))
	require.NoError(t, s.Append(ctx, newRecord("b")))
	require.NoError(t, s.MarkSynced(ctx, "a"))
	require.NoError(t, s.Close())

	s = openTestPebble(t, dir, 0)
	defer s.Close()

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(all))

	unsynced, err := s.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(unsynced))

	// sequence continues after reopen, so new records still sort first
	require.NoError(t, s.Append(ctx, newRecord("c")))
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, got.SyncState)
}

func TestPebbleStore_CapacityCountsExistingRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openTestPebble(t, dir, 2)
	require.NoError(t, s.Append(ctx, newRecord("a")))
	require.NoError(t, s.Close())

	s = openTestPebble(t, dir, 2)
	defer s.Close()
	require.NoError(t, s.Append(ctx, newRecord("b")))
	assert.ErrorIs(t, s.Append(ctx, newRecord("c")), ErrCapacityExceeded)
}

func TestPebbleStore_ListHonoursContext(t *testing.T) {
	s := openTestPebble(t, t.TempDir(), 0)
	defer s.Close()
	require.NoError(t, s.Append(context.Background(), newRecord("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ListUnsynced(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
