package account

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreTests(t *testing.T, store Store) {
	t.Helper()

	_, err := store.Get("icare")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Set("icare", Identity{User: "someone", Secret: "hunter2"}))
	id, err := store.Get("icare")
	require.NoError(t, err)
	assert.Equal(t, "someone", id.User)
	assert.Equal(t, "hunter2", id.Secret)

	// Set replaces.
	require.NoError(t, store.Set("icare", Identity{User: "someone", Secret: "rotated"}))
	id, err = store.Get("icare")
	require.NoError(t, err)
	assert.Equal(t, "rotated", id.Secret)

	require.NoError(t, store.Delete("icare"))
	_, err = store.Get("icare")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting an absent identity is not an error.
	assert.NoError(t, store.Delete("icare"))
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.db")
	store, err := OpenSQLiteStore(path, "test-passphrase")
	require.NoError(t, err)
	defer store.Close()

	runStoreTests(t, store)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.db")

	store, err := OpenSQLiteStore(path, "")
	require.NoError(t, err)
	require.NoError(t, store.Set("ges_disc", Identity{User: "u", Secret: "s"}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path, "")
	require.NoError(t, err)
	defer reopened.Close()

	id, err := reopened.Get("ges_disc")
	require.NoError(t, err)
	assert.Equal(t, "u", id.User)
}
