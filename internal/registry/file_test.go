package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestbot/internal/models"
)

func testRecord(phone, name string) models.GuestRecord {
	return models.GuestRecord{
		Phone:     phone,
		Name:      name,
		Group:     "Leehe - Friends",
		PartySize: 2,
		AddedBy:   "972501111111",
		AddedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileRegistryAppendFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.json")
	r, err := NewFileRegistry(path)
	require.NoError(t, err)
	ctx := context.Background()

	found, err := r.FindByPhone(ctx, "+972501234567")
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, r.Append(ctx, testRecord("+972501234567", "Dana Cohen")))

	found, err = r.FindByPhone(ctx, "+972501234567")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Dana Cohen", found.Name)
}

func TestFileRegistryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.json")
	ctx := context.Background()

	r, err := NewFileRegistry(path)
	require.NoError(t, err)
	require.NoError(t, r.Append(ctx, testRecord("+972501234567", "Dana Cohen")))

	reopened, err := NewFileRegistry(path)
	require.NoError(t, err)
	found, err := reopened.FindByPhone(ctx, "+972501234567")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Dana Cohen", found.Name)
	assert.Equal(t, 2, found.PartySize)
}

func TestFileRegistryDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guests.json")
	r, err := NewFileRegistry(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, testRecord("+972501111111", "A")))
	require.NoError(t, r.Append(ctx, testRecord("+972502222222", "B")))

	removed, err := r.Delete(ctx, "+972501111111")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Delete(ctx, "+972501111111")
	require.NoError(t, err)
	assert.False(t, removed, "second delete finds nothing")

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)
}
