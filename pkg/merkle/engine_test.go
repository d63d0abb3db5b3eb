package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mambisi/actions-tool/pkg/hash"
	"github.com/mambisi/actions-tool/pkg/kv"
)

func newTestEngine() *Engine {
	return New(kv.NewBTreeStore(32), nil)
}

func TestSetGetRoundTrip(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "foo"}, []byte{1, 2, 3}))
	value, err := e.Get(ContextKey{"a", "foo"})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, value)
}

func TestGetMissingKeyReturnsValueNotFound(t *testing.T) {
	e := newTestEngine()
	_, err := e.Get(ContextKey{"missing"})
	require.Error(t, err)
	merr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrValueNotFound, merr.Kind)
}

func TestDeleteRemovesKeyAndPrunesEmptyParents(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "b"}, []byte{1}))
	require.NoError(t, e.Delete(ContextKey{"a", "b"}))
	_, err := e.Get(ContextKey{"a", "b"})
	require.Error(t, err)
}

func TestCopyExposesSourceSubtreeAtDestination(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"data", "a", "x"}, []byte{97}))
	require.NoError(t, e.Copy(ContextKey{"data", "a"}, ContextKey{"data", "b"}))
	value, err := e.Get(ContextKey{"data", "b", "x"})
	require.NoError(t, err)
	require.Equal(t, []byte{97}, value)
}

func TestCopyFromAbsentSourceYieldsEmptySubtree(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Copy(ContextKey{"nope"}, ContextKey{"dest"}))
	_, ok, err := e.GetByPrefix(ContextKey{"dest"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCommitThenCheckoutRestoresTree(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a"}, []byte{1, 2, 3}))
	commit1, err := e.Commit(0, "Tezos", "Genesis")
	require.NoError(t, err)

	require.NoError(t, e.Set(ContextKey{"a"}, []byte{9}))
	value, err := e.Get(ContextKey{"a"})
	require.NoError(t, err)
	require.Equal(t, []byte{9}, value)

	require.NoError(t, e.Checkout(commit1))
	value, err = e.Get(ContextKey{"a"})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, value)
}

func TestGetHistoryReadsPriorCommitAfterDelete(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "b", "c"}, []byte{2}))
	commit1, err := e.Commit(0, "Tezos", "Genesis")
	require.NoError(t, err)

	require.NoError(t, e.Delete(ContextKey{"a", "b", "c"}))
	_, err = e.Commit(0, "Tezos", "")
	require.NoError(t, err)

	value, err := e.GetHistory(commit1, ContextKey{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, []byte{2}, value)
}

func TestScenarioOneTreeHashPrefix(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "foo"}, []byte{97, 98, 99}))
	require.NoError(t, e.Set(ContextKey{"b", "boo"}, []byte{97, 98}))
	require.NoError(t, e.Set(ContextKey{"a", "aaa"}, []byte{97, 98, 99, 100}))
	require.NoError(t, e.Set(ContextKey{"x"}, []byte{97}))
	require.NoError(t, e.Set(ContextKey{"one", "two", "three"}, []byte{97}))

	root, err := e.getStagedRoot()
	require.NoError(t, err)
	rootHash := treeEntry(root).Hash()
	require.Equal(t, []byte{0xDB, 0xAE, 0xD7, 0xB6}, rootHash.Bytes()[:4])
}

func TestScenarioTwoCommitHashPrefixes(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a"}, []byte{97, 98, 99}))
	c1, err := e.Commit(0, "Tezos", "Genesis")
	require.NoError(t, err)
	require.Equal(t, []byte{0xCF, 0x95, 0x18, 0x33}, c1.Bytes()[:4])

	require.NoError(t, e.Set(ContextKey{"data", "x"}, []byte{97}))
	c2, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)
	require.Equal(t, []byte{0xCA, 0x7B, 0xC7, 0x02}, c2.Bytes()[:4])
}

func TestScenarioThreeCommitHashPrefix(t *testing.T) {
	e := newTestEngine()
	_, err := e.Commit(0, "Tezos", "Genesis")
	require.NoError(t, err)

	require.NoError(t, e.Set(ContextKey{"data", "a", "x"}, []byte{97}))
	require.NoError(t, e.Copy(ContextKey{"data", "a"}, ContextKey{"data", "b"}))
	require.NoError(t, e.Delete(ContextKey{"data", "b", "x"}))
	c, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)
	require.Equal(t, []byte{0x9B, 0xB0, 0x0D, 0x6E}, c.Bytes()[:4])
}

func TestScenarioFourHistoryAcrossCommits(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Set(ContextKey{"a", "b", "c"}, []byte{1, 2}))
	require.NoError(t, e.Set(ContextKey{"a", "b", "x"}, []byte{3}))
	commit1, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)

	require.NoError(t, e.Set(ContextKey{"a", "z"}, []byte{4}))
	require.NoError(t, e.Set(ContextKey{"a", "b", "x"}, []byte{5}))
	require.NoError(t, e.Set(ContextKey{"d"}, []byte{6}))
	require.NoError(t, e.Set(ContextKey{"e", "a", "b"}, []byte{7}))
	commit2, err := e.Commit(0, "Tezos", "")
	require.NoError(t, err)

	v1, err := e.GetHistory(commit1, ContextKey{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, v1)

	v2, err := e.GetHistory(commit2, ContextKey{"a", "b", "x"})
	require.NoError(t, err)
	require.Equal(t, []byte{5}, v2)
}

func TestHashConversionRejectsWrongSizedInput(t *testing.T) {
	_, err := hash.FromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
