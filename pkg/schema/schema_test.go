package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mambisi/actions-tool/pkg/kv"
)

func TestTypedStoreRoundTrip(t *testing.T) {
	raw := kv.NewBTreeStore(32)
	store := NewTypedStore[[32]byte, []byte](raw, HashKeyCodec{}, RawBytesCodec{})

	var key [32]byte
	key[0] = 0xaa

	_, ok, err := store.Get(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(key, []byte("hello")))

	got, ok, err := store.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), got)

	has, err := store.Contains(key)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, store.Delete(key))
	_, ok, err = store.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}
