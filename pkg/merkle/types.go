// Package merkle implements the content-addressed Merkle storage engine: a
// staging area over an immutable, hash-addressed tree of Blob/Tree/Commit
// entries, with git-like set/delete/copy/commit/checkout operations and
// mark-and-sweep garbage collection.
package merkle

import (
	"sort"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// ContextKey is an ordered sequence of non-empty path segments addressing a
// location in the tree.
type ContextKey []string

// String renders a ContextKey the way the engine logs and error-formats it.
func (k ContextKey) String() string {
	out := ""
	for i, seg := range k {
		if i > 0 {
			out += "/"
		}
		out += seg
	}
	return out
}

// ParseContextKey splits a "/"-joined string back into a ContextKey.
func ParseContextKey(s string) ContextKey {
	if s == "" {
		return ContextKey{}
	}
	var out ContextKey
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

// Node is an edge label inside a Tree: it names the kind of entry
// (blob-bearing Leaf or tree-bearing NonLeaf) and the hash of that entry.
type Node struct {
	Kind      hash.NodeKind
	EntryHash hash.Hash
}

func leafNode(h hash.Hash) Node    { return Node{Kind: hash.Leaf, EntryHash: h} }
func nonLeafNode(h hash.Hash) Node { return Node{Kind: hash.NonLeaf, EntryHash: h} }

// Tree is an ordered map from path segment to Node. Go maps have no
// intrinsic order, so every operation that participates in hashing or
// external iteration goes through sortedSegments to recover the segment's
// natural string order the hash contract requires.
type Tree map[string]Node

// Clone returns a shallow copy of t (Node values are themselves immutable).
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t Tree) sortedSegments() []string {
	segs := make([]string, 0, len(t))
	for k := range t {
		segs = append(segs, k)
	}
	sort.Strings(segs)
	return segs
}

func (t Tree) hashEntries() []hash.TreeEntry {
	segs := t.sortedSegments()
	out := make([]hash.TreeEntry, 0, len(segs))
	for _, seg := range segs {
		n := t[seg]
		out = append(out, hash.TreeEntry{Name: seg, Kind: n.Kind, Hash: n.EntryHash})
	}
	return out
}

// Commit is a named snapshot pointing at a root tree.
type Commit struct {
	Parent  *hash.Hash
	Root    hash.Hash
	Time    uint64
	Author  string
	Message string
}

// EntryKind tags which variant an Entry holds.
type EntryKind int

const (
	EntryBlob EntryKind = iota
	EntryTree
	EntryCommit
)

// Entry is the tagged union persisted under its own hash: a Blob, a Tree,
// or a Commit.
type Entry struct {
	Kind   EntryKind
	Blob   []byte
	Tree   Tree
	Commit *Commit
}

func blobEntry(b []byte) Entry  { return Entry{Kind: EntryBlob, Blob: b} }
func treeEntry(t Tree) Entry    { return Entry{Kind: EntryTree, Tree: t} }
func commitEntry(c Commit) Entry { return Entry{Kind: EntryCommit, Commit: &c} }

// Hash computes the canonical content hash for e.
func (e Entry) Hash() hash.Hash {
	switch e.Kind {
	case EntryBlob:
		return hash.Blob(e.Blob)
	case EntryTree:
		return hash.Tree(e.Tree.hashEntries())
	case EntryCommit:
		return hash.Commit(e.Commit.Parent, e.Commit.Root, e.Commit.Time, e.Commit.Author, e.Commit.Message)
	}
	panic("merkle: unknown entry kind")
}

// StringTreeEntry renders an Entry as nested, JSON-friendly string data for
// inspection tooling: a Tree becomes a map, a Blob becomes its hex
// encoding, and a depth-exhausted branch becomes Null.
type StringTreeEntry struct {
	IsTree bool
	IsNull bool
	Blob   string
	Tree   map[string]StringTreeEntry
}
