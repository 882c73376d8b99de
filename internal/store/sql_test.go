package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestbot/internal/engine"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStoreGetMissing(t *testing.T) {
	s := openTestStore(t)

	sess, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	likely := true
	in := &engine.Session{
		SubjectID:       "972501234567",
		State:           engine.StatePickLikely,
		PhoneCandidates: []string{"+972501111111", "+972502222222"},
		SelectedPhone:   "+972502222222",
		GuestName:       "Dana Cohen",
		SelectedPerson:  "leehe",
		SelectedType:    "family",
		SelectedFamily:  "keisari",
		NumGuests:       3,
		Likely:          &likely,
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, s.Put(ctx, in))

	out, err := s.Get(ctx, in.SubjectID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.State, out.State)
	assert.Equal(t, in.PhoneCandidates, out.PhoneCandidates)
	assert.Equal(t, in.SelectedPhone, out.SelectedPhone)
	assert.Equal(t, in.GuestName, out.GuestName)
	assert.Equal(t, in.SelectedPerson, out.SelectedPerson)
	assert.Equal(t, in.SelectedType, out.SelectedType)
	assert.Equal(t, in.SelectedFamily, out.SelectedFamily)
	assert.Equal(t, in.NumGuests, out.NumGuests)
	require.NotNil(t, out.Likely)
	assert.True(t, *out.Likely)
}

func TestSQLStoreUpsertReplacesFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &engine.Session{
		SubjectID:     "u1",
		State:         engine.StateAwaitingName,
		SelectedPhone: "+972501234567",
		GuestName:     "Old Name",
	}))
	// A reset writes a fresh session; stale fields must not survive.
	require.NoError(t, s.Put(ctx, engine.NewSession("u1")))

	out, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, engine.StateNew, out.State)
	assert.Empty(t, out.SelectedPhone)
	assert.Empty(t, out.GuestName)
	assert.Nil(t, out.PhoneCandidates)
	assert.Nil(t, out.Likely)
}

func TestSQLStoreDeleteAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, engine.NewSession("u1")))
	require.NoError(t, s.Put(ctx, engine.NewSession("u2")))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Delete(ctx, "u1"))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkProcessedIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fresh, err := s.MarkProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.MarkProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, fresh, "redelivered message must not be fresh")

	fresh, err = s.MarkProcessed(ctx, "msg-2")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestCleanupProcessedBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.MarkProcessed(ctx, "old")
	require.NoError(t, err)

	removed, err := s.CleanupProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	// The id is accepted again once its record is gone.
	fresh, err := s.MarkProcessed(ctx, "old")
	require.NoError(t, err)
	assert.True(t, fresh)
}
