package kv

import (
	"sync"

	"github.com/mambisi/actions-tool/pkg/ivec"
)

// WriteStats tracks Put activity on a TrackingStore, distinguishing writes
// that landed new content from writes that found the key already present.
// This is primarily useful for asserting garbage-collection and staging
// behaviour in tests: a content-addressed store should see a Put of an
// already-persisted hash skip doing real work.
type WriteStats struct {
	TotalPuts        int
	DeduplicatedPuts int
	ActualPuts       int
	WrittenKeys      []ivec.IVec
}

// TrackingStore wraps a Store and records write statistics without
// otherwise altering its behaviour.
type TrackingStore struct {
	inner Store
	mu    sync.Mutex
	stats WriteStats
}

// NewTrackingStore wraps inner with write tracking.
func NewTrackingStore(inner Store) *TrackingStore {
	return &TrackingStore{inner: inner}
}

func (t *TrackingStore) Get(key ivec.IVec) (ivec.IVec, bool, error) {
	return t.inner.Get(key)
}

func (t *TrackingStore) Put(key, value ivec.IVec) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	existedBefore, err := t.inner.Contains(key)
	if err != nil {
		return err
	}
	if err := t.inner.Put(key, value); err != nil {
		return err
	}

	t.stats.TotalPuts++
	if existedBefore {
		t.stats.DeduplicatedPuts++
	} else {
		t.stats.ActualPuts++
		t.stats.WrittenKeys = append(t.stats.WrittenKeys, key.Clone())
	}
	return nil
}

func (t *TrackingStore) Delete(key ivec.IVec) error {
	return t.inner.Delete(key)
}

func (t *TrackingStore) Contains(key ivec.IVec) (bool, error) {
	return t.inner.Contains(key)
}

func (t *TrackingStore) Iterate(mode IterMode, fn func(key, value ivec.IVec) bool) error {
	return t.inner.Iterate(mode, fn)
}

func (t *TrackingStore) ScanPrefix(prefix ivec.IVec, fn func(key, value ivec.IVec) bool) error {
	return t.inner.ScanPrefix(prefix, fn)
}

func (t *TrackingStore) ApplyBatch(b *Batch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, op := range b.Entries() {
		if op.Value == nil {
			continue
		}
		existedBefore, err := t.inner.Contains(op.Key)
		if err != nil {
			return err
		}
		t.stats.TotalPuts++
		if existedBefore {
			t.stats.DeduplicatedPuts++
		} else {
			t.stats.ActualPuts++
			t.stats.WrittenKeys = append(t.stats.WrittenKeys, op.Key.Clone())
		}
	}
	return t.inner.ApplyBatch(b)
}

func (t *TrackingStore) Retain(keep map[string]struct{}) error {
	return t.inner.Retain(keep)
}

func (t *TrackingStore) Stats() (Stats, error) {
	return t.inner.Stats()
}

func (t *TrackingStore) Close() error {
	return t.inner.Close()
}

// WriteStats returns a copy of the statistics gathered so far.
func (t *TrackingStore) WriteStats() WriteStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := WriteStats{
		TotalPuts:        t.stats.TotalPuts,
		DeduplicatedPuts: t.stats.DeduplicatedPuts,
		ActualPuts:       t.stats.ActualPuts,
		WrittenKeys:      make([]ivec.IVec, len(t.stats.WrittenKeys)),
	}
	copy(out.WrittenKeys, t.stats.WrittenKeys)
	return out
}

// ResetStats clears all tracked statistics.
func (t *TrackingStore) ResetStats() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = WriteStats{}
}
