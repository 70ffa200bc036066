package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore(0)
	})
}

func TestMemoryStore_Capacity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	require.NoError(t, s.Append(ctx, newRecord("a")))
	require.NoError(t, s.Append(ctx, newRecord("b")))
	assert.ErrorIs(t, s.Append(ctx, newRecord("c")), ErrCapacityExceeded)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(all))
}
