package auth

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/sheetdash/sheetdash/pkg/storage"
	"github.com/stretchr/testify/require"
)

func fakeIDToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + ".sig"
}

func TestDecodeIdentity(t *testing.T) {
	tok := fakeIDToken(t, `{"sub":"123","name":"Alice","email":"alice@example.com","picture":"http://p"}`)

	id, err := DecodeIdentity(tok)
	require.NoError(t, err)
	require.Equal(t, "123", id.Subject)
	require.Equal(t, "Alice", id.Name)
	require.Equal(t, "alice@example.com", id.Email)
	require.Equal(t, "http://p", id.Picture)
}

func TestDecodeIdentityMalformed(t *testing.T) {
	_, err := DecodeIdentity("not-a-jwt")
	require.Error(t, err)

	_, err = DecodeIdentity("a.!!!.c")
	require.Error(t, err)
}

func TestIdentityStore(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := NewIdentityStore(kv)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, Identity{Subject: "123", Email: "a@b"}))
	id, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@b", id.Email)

	// Malformed stored data is evicted, not surfaced.
	require.NoError(t, kv.Set(ctx, identityKey, "???"))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
}
