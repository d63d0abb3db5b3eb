package kv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mambisi/actions-tool/pkg/ivec"
)

func TestBTreeStorePutGetDelete(t *testing.T) {
	s := NewBTreeStore(32)
	k := ivec.New([]byte("a"))
	v := ivec.New([]byte{1, 2, 3})

	_, ok, err := s.Get(k)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put(k, v))
	got, ok, err := s.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, v, got)

	require.NoError(t, s.Delete(k))
	_, ok, err = s.Get(k)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBTreeStoreIterateOrdering(t *testing.T) {
	s := NewBTreeStore(32)
	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, s.Put(ivec.New([]byte(k)), ivec.New([]byte(k))))
	}

	var seen []string
	require.NoError(t, s.Iterate(Start(), func(key, _ ivec.IVec) bool {
		seen = append(seen, string(key))
		return true
	}))
	require.Equal(t, []string{"a", "b", "c"}, seen)

	seen = nil
	require.NoError(t, s.Iterate(End(), func(key, _ ivec.IVec) bool {
		seen = append(seen, string(key))
		return true
	}))
	require.Equal(t, []string{"c", "b", "a"}, seen)
}

func TestBTreeStoreScanPrefix(t *testing.T) {
	s := NewBTreeStore(32)
	for _, k := range []string{"data/a", "data/b", "other"} {
		require.NoError(t, s.Put(ivec.New([]byte(k)), ivec.New([]byte(k))))
	}

	var seen []string
	require.NoError(t, s.ScanPrefix(ivec.New([]byte("data/")), func(key, _ ivec.IVec) bool {
		seen = append(seen, string(key))
		return true
	}))
	require.Equal(t, []string{"data/a", "data/b"}, seen)
}

func TestBTreeStoreRetainKeepsOnlyGivenKeys(t *testing.T) {
	s := NewBTreeStore(32)
	require.NoError(t, s.Put(ivec.New([]byte("keep")), ivec.New([]byte("v"))))
	require.NoError(t, s.Put(ivec.New([]byte("drop")), ivec.New([]byte("v"))))

	require.NoError(t, s.Retain(map[string]struct{}{"keep": {}}))

	ok, err := s.Contains(ivec.New([]byte("keep")))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Contains(ivec.New([]byte("drop")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBTreeStoreApplyBatchAtomicView(t *testing.T) {
	s := NewBTreeStore(32)
	require.NoError(t, s.Put(ivec.New([]byte("x")), ivec.New([]byte("old"))))

	b := NewBatch()
	b.Insert(ivec.New([]byte("x")), ivec.New([]byte("new")))
	b.Remove(ivec.New([]byte("y")))
	b.Insert(ivec.New([]byte("z")), ivec.New([]byte("z")))
	require.NoError(t, s.ApplyBatch(b))

	got, ok, err := s.Get(ivec.New([]byte("x")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ivec.New([]byte("new")), got)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ivec.New([]byte{0xab, 0xcd}), ivec.New([]byte("payload"))))
	require.NoError(t, s1.Close())

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	got, ok, err := s2.Get(ivec.New([]byte{0xab, 0xcd}))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "payload", string(got))
}

func TestFileStoreRetainDeletesGarbage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	keepKey := ivec.New([]byte{0x01})
	dropKey := ivec.New([]byte{0x02})
	require.NoError(t, s.Put(keepKey, ivec.New([]byte("k"))))
	require.NoError(t, s.Put(dropKey, ivec.New([]byte("d"))))

	require.NoError(t, s.Retain(map[string]struct{}{string(keepKey): {}}))

	ok, err := s.Contains(keepKey)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Contains(dropKey)
	require.NoError(t, err)
	require.False(t, ok)

	_ = os.RemoveAll(dir)
}

func TestTrackingStoreCountsDeduplicatedWrites(t *testing.T) {
	tracked := NewTrackingStore(NewBTreeStore(32))
	key := ivec.New([]byte("k"))
	val := ivec.New([]byte("v"))

	require.NoError(t, tracked.Put(key, val))
	require.NoError(t, tracked.Put(key, val))

	stats := tracked.WriteStats()
	require.Equal(t, 2, stats.TotalPuts)
	require.Equal(t, 1, stats.ActualPuts)
	require.Equal(t, 1, stats.DeduplicatedPuts)
}
