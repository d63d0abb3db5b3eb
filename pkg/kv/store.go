// Package kv defines the ordered, content-addressable key-value abstraction
// that backs the Merkle engine's persistent layer, along with an in-memory
// implementation (BTreeStore), a disk-backed implementation (FileStore) and
// a write-tracking decorator (TrackingStore) that wraps any Store.
package kv

import (
	"github.com/mambisi/actions-tool/pkg/ivec"
)

// Direction controls which way an iterator steps from its starting point.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// IterMode selects where a Store.Iterate walk begins.
type IterMode struct {
	// Kind is one of ModeStart, ModeEnd or ModeFrom.
	Kind IterKind
	// From and Dir are only meaningful when Kind == ModeFrom.
	From ivec.IVec
	Dir  Direction
}

// IterKind enumerates the supported IterMode starting points.
type IterKind int

const (
	ModeStart IterKind = iota
	ModeEnd
	ModeFrom
)

// Start returns an IterMode that walks the whole store forward from the
// smallest key.
func Start() IterMode { return IterMode{Kind: ModeStart} }

// End returns an IterMode that walks the whole store in reverse from the
// largest key.
func End() IterMode { return IterMode{Kind: ModeEnd} }

// From returns an IterMode that walks from key in the given direction,
// inclusive of key itself if present.
func From(key ivec.IVec, dir Direction) IterMode {
	return IterMode{Kind: ModeFrom, From: key, Dir: dir}
}

// Batch accumulates a set of writes and deletes to be applied atomically.
type Batch struct {
	writes map[string]*ivec.IVec
	order  []string
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{writes: make(map[string]*ivec.IVec)}
}

// Insert stages a put of key -> value.
func (b *Batch) Insert(key, value ivec.IVec) {
	k := string(key)
	if _, exists := b.writes[k]; !exists {
		b.order = append(b.order, k)
	}
	v := value.Clone()
	b.writes[k] = &v
}

// Remove stages a delete of key.
func (b *Batch) Remove(key ivec.IVec) {
	k := string(key)
	if _, exists := b.writes[k]; !exists {
		b.order = append(b.order, k)
	}
	b.writes[k] = nil
}

// Len returns the number of distinct keys staged in the batch.
func (b *Batch) Len() int { return len(b.order) }

// Entries returns the staged operations in insertion order. A nil value
// pointer denotes a delete.
func (b *Batch) Entries() []BatchEntry {
	out := make([]BatchEntry, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, BatchEntry{Key: ivec.IVec(k), Value: b.writes[k]})
	}
	return out
}

// BatchEntry is one staged write or delete.
type BatchEntry struct {
	Key   ivec.IVec
	Value *ivec.IVec // nil means delete
}

// Stats reports coarse statistics about a Store's contents.
type Stats struct {
	KeyCount  int
	TotalSize int64 // approximate bytes across all keys and values
}

// Store is the ordered key-value abstraction the Merkle engine and the
// action-log validator are built against. Implementations must provide a
// total, lexicographic byte ordering over keys for Iterate and ScanPrefix.
type Store interface {
	Get(key ivec.IVec) (ivec.IVec, bool, error)
	Put(key, value ivec.IVec) error
	Delete(key ivec.IVec) error
	Contains(key ivec.IVec) (bool, error)

	// Iterate walks entries per mode, calling fn for each until fn returns
	// false or entries are exhausted.
	Iterate(mode IterMode, fn func(key, value ivec.IVec) bool) error

	// ScanPrefix walks every key sharing prefix, in ascending order.
	ScanPrefix(prefix ivec.IVec, fn func(key, value ivec.IVec) bool) error

	// ApplyBatch commits every operation in b atomically.
	ApplyBatch(b *Batch) error

	// Retain deletes every key not present in keep. Used by mark-and-sweep
	// garbage collection.
	Retain(keep map[string]struct{}) error

	Stats() (Stats, error)

	Close() error
}
