package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestbot/internal/engine"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	m := NewMemoryStore()

	sess, err := m.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStorePutGetIsolated(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	in := engine.NewSession("u1")
	in.PhoneCandidates = []string{"+972501111111"}
	require.NoError(t, m.Put(ctx, in))

	// Mutating the original after Put must not leak into the store.
	in.PhoneCandidates[0] = "changed"
	in.GuestName = "changed"

	out, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"+972501111111"}, out.PhoneCandidates)
	assert.Empty(t, out.GuestName)

	// And mutating the returned copy must not change stored state.
	out.GuestName = "also changed"
	again, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.GuestName)
}

func TestMemoryStoreDeleteAndCount(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, engine.NewSession("u1")))
	require.NoError(t, m.Put(ctx, engine.NewSession("u2")))
	assert.Equal(t, 2, m.Count())

	require.NoError(t, m.Delete(ctx, "u1"))
	assert.Equal(t, 1, m.Count())

	sess, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}
