package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetAbsent(t *testing.T) {
	m := NewMemory()

	v, err := m.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemory_SetGetOverwrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "a", []byte("2")))

	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("abc")))

	v, _ := m.Get(ctx, "a")
	v[0] = 'X'

	again, _ := m.Get(ctx, "a")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_DeleteIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "a"))

	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemory_KeysAndDeletePrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "vault:0xA", []byte("1")))
	require.NoError(t, m.Set(ctx, "vault:0xA:extra", []byte("2")))
	require.NoError(t, m.Set(ctx, "vault:0xB", []byte("3")))

	keys, err := m.Keys(ctx, "vault:0xA")
	require.NoError(t, err)
	assert.Equal(t, []string{"vault:0xA", "vault:0xA:extra"}, keys)

	require.NoError(t, m.DeletePrefix(ctx, "vault:0xA"))

	keys, err = m.Keys(ctx, "vault:")
	require.NoError(t, err)
	assert.Equal(t, []string{"vault:0xB"}, keys)
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Clear(ctx))

	keys, err := m.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
