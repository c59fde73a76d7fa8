package seen

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.Contains(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "msg-1"))

	ok, err = store.Contains(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Adding again is not an error
	require.NoError(t, store.Add(ctx, "msg-1"))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, store.Close())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seen.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.Contains(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "msg-1"))
	require.NoError(t, store.Add(ctx, "msg-2"))

	ok, err = store.Contains(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Duplicate add is ignored
	require.NoError(t, store.Add(ctx, "msg-1"))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seen.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, "msg-1"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	ok, err := reopened.Contains(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteStoreCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "seen.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	_, ok := store.(*MemoryStore)
	assert.True(t, ok)

	dbPath := filepath.Join(t.TempDir(), "seen.db")
	store, err = NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	_, ok = store.(*SQLiteStore)
	assert.True(t, ok)
}
