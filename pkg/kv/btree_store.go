package kv

import (
	"sync"

	"github.com/google/btree"

	"github.com/mambisi/actions-tool/pkg/ivec"
)

// entry is the btree item: an ordered key/value pair compared by key bytes.
type entry struct {
	key   ivec.IVec
	value ivec.IVec
}

func (e entry) Less(other btree.Item) bool {
	return e.key.Compare(other.(entry).key) < 0
}

// BTreeStore is an in-memory, ordered Store backed by a B-tree. It is the
// default backing store for the Merkle engine: the engine itself does not
// require durability, only a consistent total order over content-addressed
// keys.
type BTreeStore struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// NewBTreeStore returns an empty BTreeStore. degree controls the B-tree's
// branching factor; 32 is a reasonable default for in-memory workloads.
func NewBTreeStore(degree int) *BTreeStore {
	if degree <= 1 {
		degree = 32
	}
	return &BTreeStore{tree: btree.New(degree)}
}

func (s *BTreeStore) Get(key ivec.IVec) (ivec.IVec, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.tree.Get(entry{key: key})
	if item == nil {
		return nil, false, nil
	}
	return item.(entry).value.Clone(), true, nil
}

func (s *BTreeStore) Put(key, value ivec.IVec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(entry{key: key.Clone(), value: value.Clone()})
	return nil
}

func (s *BTreeStore) Delete(key ivec.IVec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Delete(entry{key: key})
	return nil
}

func (s *BTreeStore) Contains(key ivec.IVec) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(entry{key: key}) != nil, nil
}

func (s *BTreeStore) Iterate(mode IterMode, fn func(key, value ivec.IVec) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visit := func(item btree.Item) bool {
		e := item.(entry)
		return fn(e.key.Clone(), e.value.Clone())
	}

	switch mode.Kind {
	case ModeStart:
		s.tree.Ascend(visit)
	case ModeEnd:
		s.tree.Descend(visit)
	case ModeFrom:
		pivot := entry{key: mode.From}
		if mode.Dir == Forward {
			s.tree.AscendGreaterOrEqual(pivot, visit)
		} else {
			s.tree.DescendLessOrEqual(pivot, visit)
		}
	}
	return nil
}

func (s *BTreeStore) ScanPrefix(prefix ivec.IVec, fn func(key, value ivec.IVec) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pivot := entry{key: prefix}
	s.tree.AscendGreaterOrEqual(pivot, func(item btree.Item) bool {
		e := item.(entry)
		if len(e.key) < len(prefix) || !e.key[:len(prefix)].Equal(prefix) {
			return false
		}
		return fn(e.key.Clone(), e.value.Clone())
	})
	return nil
}

func (s *BTreeStore) ApplyBatch(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range b.Entries() {
		if op.Value == nil {
			s.tree.Delete(entry{key: op.Key})
			continue
		}
		s.tree.ReplaceOrInsert(entry{key: op.Key.Clone(), value: op.Value.Clone()})
	}
	return nil
}

func (s *BTreeStore) Retain(keep map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var garbage []entry
	s.tree.Ascend(func(item btree.Item) bool {
		e := item.(entry)
		if _, ok := keep[string(e.key)]; !ok {
			garbage = append(garbage, e)
		}
		return true
	})
	for _, e := range garbage {
		s.tree.Delete(e)
	}
	return nil
}

func (s *BTreeStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{KeyCount: s.tree.Len()}
	s.tree.Ascend(func(item btree.Item) bool {
		e := item.(entry)
		stats.TotalSize += int64(len(e.key) + len(e.value))
		return true
	})
	return stats, nil
}

func (s *BTreeStore) Close() error { return nil }
