package scs

import (
	"context"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

func loadedContext(t *testing.T, sm *scs.SessionManager) context.Context {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	return ctx
}

func TestKeyValueStore(t *testing.T) {
	sm := scs.New()
	kv := NewKeyValueStore(sm)
	ctx := loadedContext(t, sm)

	_, found, err := kv.Get(ctx, fa.KeyUser)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, fa.KeyUser, `{"role_id":1}`))
	v, found, err := kv.Get(ctx, fa.KeyUser)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"role_id":1}`, v)
	assert.True(t, sm.Exists(ctx, DefaultPrefix+fa.KeyUser), "keys are namespaced")

	require.NoError(t, kv.Remove(ctx, fa.KeyUser))
	_, found, _ = kv.Get(ctx, fa.KeyUser)
	assert.False(t, found)
}

func TestKeyValueStore_SessionStore(t *testing.T) {
	sm := scs.New()
	sessions := fa.NewSessionStore(NewKeyValueStore(sm))
	ctx := loadedContext(t, sm)

	require.NoError(t, sessions.Save(ctx, &fa.AuthResult{Token: "tok", User: fa.UserProfile{"role_id": 2}}))
	session, err := sessions.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "tok", session.Token)

	// a different browser has its own session
	other := loadedContext(t, sm)
	session, err = sessions.Read(other)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestKeyValueStore_CustomPrefix(t *testing.T) {
	sm := scs.New()
	kv := &KeyValueStore{Session: sm, Prefix: "app:"}
	ctx := loadedContext(t, sm)

	require.NoError(t, kv.Set(ctx, fa.KeyToken, "tok"))
	assert.Equal(t, "tok", sm.GetString(ctx, "app:token"))
}
