package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGCDoesNotIncreaseKeyCountAndPreservesHeadHistory(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "b", "c"}, []byte{1, 2}))
	require.NoError(t, e.Set(ContextKey{"a", "b", "x"}, []byte{3}))
	_, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)

	require.NoError(t, e.Set(ContextKey{"a", "z"}, []byte{4}))
	require.NoError(t, e.Set(ContextKey{"a", "b", "x"}, []byte{5}))
	require.NoError(t, e.Set(ContextKey{"d"}, []byte{6}))
	require.NoError(t, e.Set(ContextKey{"e", "a", "b"}, []byte{7}))
	commit2, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)

	statsBefore, err := e.db.Stats()
	require.NoError(t, err)

	require.NoError(t, e.GC())

	statsAfter, err := e.db.Stats()
	require.NoError(t, err)
	require.LessOrEqual(t, statsAfter.KeyCount, statsBefore.KeyCount)

	for _, key := range []ContextKey{{"a", "b", "x"}, {"a", "z"}, {"d"}, {"e", "a", "b"}} {
		_, err := e.GetHistory(commit2, key)
		require.NoError(t, err)
	}
}

func TestGCSweepsEntriesUnreachableFromHead(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a"}, []byte{1}))
	_, err := e.Commit(0, "Tezos", "first")
	require.NoError(t, err)

	require.NoError(t, e.Delete(ContextKey{"a"}))
	require.NoError(t, e.Set(ContextKey{"b"}, []byte{2}))
	_, err = e.Commit(0, "Tezos", "second")
	require.NoError(t, err)

	statsBefore, err := e.db.Stats()
	require.NoError(t, err)

	require.NoError(t, e.GC())

	statsAfter, err := e.db.Stats()
	require.NoError(t, err)
	require.Less(t, statsAfter.KeyCount, statsBefore.KeyCount)

	_, err = e.Get(ContextKey{"b"})
	require.NoError(t, err)
}
