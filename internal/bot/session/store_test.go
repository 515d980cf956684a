package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreatesDefaultSession(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sess.Identity)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.State)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.sqlite")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	sess, err := store.Get(ctx, 42)
	require.NoError(t, err)
	sess.Locale = "ru"
	sess.State = "main_menu"
	sess.SetCredentials("access-1", "refresh-1")
	sess.Scratch = []byte(`{"kind":"checkout","data":{}}`)
	require.NoError(t, store.Save(ctx, sess))

	reopened, err := Open(path)
	require.NoError(t, err)
	loaded, err := reopened.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ru", loaded.Locale)
	assert.Equal(t, "main_menu", loaded.State)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, "access-1", loaded.AccessToken)
	assert.JSONEq(t, `{"kind":"checkout","data":{}}`, string(loaded.Scratch))
}

func TestStoreClearsPartialCredentialPairOnLoad(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := store.Get(ctx, 7)
	require.NoError(t, err)
	sess.AccessToken = "orphan-access"
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, loaded.AccessToken)
	assert.Empty(t, loaded.RefreshToken)
	assert.False(t, loaded.Authenticated())
}

func TestStoreClearCredentials(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := store.Get(ctx, 9)
	require.NoError(t, err)
	sess.State = "main_menu"
	sess.SetCredentials("access", "refresh")
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.ClearCredentials(ctx, 9))

	loaded, err := store.Get(ctx, 9)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
	// Only the credentials go; the conversation position stays.
	assert.Equal(t, "main_menu", loaded.State)
}

func TestSetCredentialsKeepsRefreshWhenNotRotated(t *testing.T) {
	sess := &Session{}
	sess.SetCredentials("access-1", "refresh-1")
	sess.SetCredentials("access-2", "")
	assert.Equal(t, "access-2", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
}
