package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-session"
)

func TestCredentialStoreSetMirrorsHeaderSynchronously(t *testing.T) {
	mirror := &fakeMirror{}
	creds, _ := newCredentialStore(mirror)

	require.NoError(t, creds.Set("token-1"))
	// the header reflects the credential before Set returns
	assert.Equal(t, "token-1", mirror.authorization())

	token, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
}

func TestCredentialStoreClearEmptiesHeader(t *testing.T) {
	mirror := &fakeMirror{}
	creds, _ := newCredentialStore(mirror)

	require.NoError(t, creds.Set("token-1"))
	require.NoError(t, creds.Clear())

	assert.Equal(t, "", mirror.authorization())
	_, err := creds.Get()
	assert.True(t, session.IsNoCredential(err))
}

func TestCredentialStoreGetWhenEmpty(t *testing.T) {
	creds, _ := newCredentialStore()

	_, err := creds.Get()
	require.Error(t, err)
	assert.True(t, session.IsNoCredential(err))
}

func TestCredentialStoreRestoreMirrorsStoredValue(t *testing.T) {
	mirror := &fakeMirror{}
	store := session.NewMemoryStore()
	require.NoError(t, store.Set("access_token", "persisted"))

	creds := session.NewCredentialStore(store, []session.HeaderMirror{mirror})
	token, err := creds.Restore()
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
	assert.Equal(t, "persisted", mirror.authorization())
}

func TestCredentialStoreCustomKey(t *testing.T) {
	store := session.NewMemoryStore()
	creds := session.NewCredentialStore(store, nil, session.WithCredentialKey("bearer"))

	require.NoError(t, creds.Set("token-1"))

	value, err := store.Get("bearer")
	require.NoError(t, err)
	assert.Equal(t, "token-1", value)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Delete("missing"))

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, session.ErrKeyNotFound)
}
