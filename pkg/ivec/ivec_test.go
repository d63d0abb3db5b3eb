package ivec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareOrdering(t *testing.T) {
	a := New([]byte("alpha"))
	b := New([]byte("beta"))
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a.Clone()))
}

func TestCloneIsIndependent(t *testing.T) {
	orig := New([]byte{1, 2, 3})
	clone := orig.Clone()
	clone[0] = 0xff
	require.Equal(t, byte(1), orig[0])
}

func TestNewNilPreserved(t *testing.T) {
	require.Nil(t, New(nil))
}

func TestStringIsHex(t *testing.T) {
	v := New([]byte{0xde, 0xad})
	require.Equal(t, "dead", v.String())
}
