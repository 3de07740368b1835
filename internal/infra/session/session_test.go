package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/storage"
)

func TestSession_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	s := New(store)
	require.NoError(t, s.Init(ctx))
	assert.False(t, s.Authenticated())

	require.NoError(t, s.SetTokens(ctx, "acc-1", "ref-1"))
	require.NoError(t, s.SetUser(ctx, entity.UserProfile{ID: "u1", Name: "Ana", Email: "ana@example.com"}))

	again := New(store)
	require.NoError(t, again.Init(ctx))
	assert.Equal(t, "acc-1", again.AccessToken())
	assert.Equal(t, "ref-1", again.RefreshToken())
	u, ok := again.User()
	require.True(t, ok)
	assert.Equal(t, "Ana", u.Name)
}

func TestSession_SetTokensKeepsRefreshWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore())
	require.NoError(t, s.SetTokens(ctx, "a1", "r1"))
	require.NoError(t, s.SetTokens(ctx, "a2", ""))

	assert.Equal(t, "a2", s.AccessToken())
	assert.Equal(t, "r1", s.RefreshToken())
}

func TestSession_Clear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := New(store)
	require.NoError(t, s.SetTokens(ctx, "a1", "r1"))
	require.NoError(t, s.SetUser(ctx, entity.UserProfile{ID: "u1"}))

	require.NoError(t, s.Clear(ctx))

	assert.False(t, s.Authenticated())
	_, ok := s.User()
	assert.False(t, ok)
	for _, key := range []string{AccessTokenKey, RefreshTokenKey, UserKey} {
		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}
