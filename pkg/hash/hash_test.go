package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobDeterministic(t *testing.T) {
	a := Blob([]byte("abc"))
	b := Blob([]byte("abc"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, Blob([]byte("abd")))
}

func TestTreeOrderSensitive(t *testing.T) {
	leaf := Blob([]byte{97, 98, 99})
	e1 := []TreeEntry{{Name: "a", Kind: Leaf, Hash: leaf}, {Name: "b", Kind: Leaf, Hash: leaf}}
	e2 := []TreeEntry{{Name: "b", Kind: Leaf, Hash: leaf}, {Name: "a", Kind: Leaf, Hash: leaf}}
	require.NotEqual(t, Tree(e1), Tree(e2))
}

func TestCommitParentSentinel(t *testing.T) {
	root := Blob([]byte("x"))
	withoutParent := Commit(nil, root, 0, "Tezos", "Genesis")
	var parent Hash
	withZeroParent := Commit(&parent, root, 0, "Tezos", "Genesis")
	require.NotEqual(t, withoutParent, withZeroParent, "absent parent must hash differently from an explicit zero parent")
}

func TestCommitHashScenario(t *testing.T) {
	// set(["a"], [97,98,99]); commit(0, "Tezos", "Genesis") -> 0xCF9518..
	root := Tree([]TreeEntry{{Name: "a", Kind: Leaf, Hash: Blob([]byte{97, 98, 99})}})
	c1 := Commit(nil, root, 0, "Tezos", "Genesis")
	require.Equal(t, []byte{0xCF, 0x95, 0x18, 0x33}, c1.Bytes()[:4])
}
