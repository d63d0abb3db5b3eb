package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogWalksParentChainNewestFirst(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a"}, []byte{1}))
	commit1, err := e.Commit(0, "Tezos", "first")
	require.NoError(t, err)

	require.NoError(t, e.Set(ContextKey{"b"}, []byte{2}))
	commit2, err := e.Commit(0, "Tezos", "second")
	require.NoError(t, err)

	log, err := e.Log(commit2)
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Equal(t, "second", log[0].Message)
	require.Equal(t, "first", log[1].Message)
	require.Nil(t, log[1].Parent)
	_ = commit1
}
