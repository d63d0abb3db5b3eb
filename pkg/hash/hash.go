// Package hash implements the canonical content-addressing scheme shared by
// every entry persisted in the storage engine: a 32-byte Blake2b digest taken
// over a fixed, length-prefixed encoding of the entry's logical contents.
//
// The encodings below are bit-exact and must never change independently of a
// matching change upstream; two engines fed the same sequence of operations
// are expected to derive identical hashes at every step.
package hash

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of a digest produced by this package.
const Size = 32

// Hash is a 32-byte Blake2b digest identifying a stored entry.
type Hash [Size]byte

// Zero is the all-zero digest. It is not a "no parent" marker: Commit takes
// a nil parent for that, and hashes an explicit Zero parent differently.
var Zero = Hash{}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns h as a freshly allocated slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// String renders h as a lowercase hex string.
func (h Hash) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, Size*2)
	for i, b := range h {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// FromBytes copies b into a Hash, failing if b is not exactly Size bytes.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, errors.Errorf("hash: expected %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// nodeKindLeaf and nodeKindNonLeaf are the fixed 8-byte tags mixed into a
// tree-entry's hash preimage to distinguish blob-bearing leaves from
// sub-tree-bearing internal nodes. The magic values match the wire constants
// of the system this format is compatible with and must not be renumbered.
var (
	nodeKindNonLeaf = [8]byte{0, 0, 0, 0, 0, 0, 0, 0}
	nodeKindLeaf    = [8]byte{255, 0, 0, 0, 0, 0, 0, 0}
)

// NodeKind distinguishes a Tree entry that names a Blob (Leaf) from one that
// names another Tree (NonLeaf).
type NodeKind int

const (
	NonLeaf NodeKind = iota
	Leaf
)

func encodeU64BE(n uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b
}

func sum(parts ...[]byte) Hash {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Blob hashes raw value bytes: blake2b(u64be(len(data)) || data).
func Blob(data []byte) Hash {
	lenPrefix := encodeU64BE(uint64(len(data)))
	return sum(lenPrefix[:], data)
}

// TreeEntry is a single (segment, kind, hash) triple contributing to a
// Tree's hash. Entries must be presented already sorted by Name, matching
// the tree's natural ordered-map iteration order, for the digest to be
// reproducible.
type TreeEntry struct {
	Name string
	Kind NodeKind
	Hash Hash
}

// Tree hashes entries in their natural ordered-map order:
//
//	u64(n_entries), then per entry:
//	kind_tag(8B) || u8(len(segment)) || segment_bytes || u64(32) || entry_hash
func Tree(entries []TreeEntry) Hash {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		panic(err)
	}
	count := encodeU64BE(uint64(len(entries)))
	h.Write(count[:])
	for _, e := range entries {
		kindTag := nodeKindNonLeaf
		if e.Kind == Leaf {
			kindTag = nodeKindLeaf
		}
		h.Write(kindTag[:])
		h.Write([]byte{byte(len(e.Name))})
		h.Write([]byte(e.Name))
		hashLen := encodeU64BE(Size)
		h.Write(hashLen[:])
		h.Write(e.Hash[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Commit hashes a commit record:
//
//	u64(32) || root_hash || parent_block || u64(time) ||
//	u64(len(author)) || author_bytes || u64(len(message)) || message_bytes
//
// parent_block is u64(0) when there is no parent, or u64(1) || u64(32) ||
// parent_hash otherwise.
func Commit(parent *Hash, root Hash, timeUnix uint64, author, message string) Hash {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		panic(err)
	}
	rootLen := encodeU64BE(Size)
	h.Write(rootLen[:])
	h.Write(root[:])

	if parent == nil {
		zero := encodeU64BE(0)
		h.Write(zero[:])
	} else {
		one := encodeU64BE(1)
		h.Write(one[:])
		parentLen := encodeU64BE(Size)
		h.Write(parentLen[:])
		h.Write(parent[:])
	}

	timeBytes := encodeU64BE(timeUnix)
	h.Write(timeBytes[:])
	authorLen := encodeU64BE(uint64(len(author)))
	h.Write(authorLen[:])
	h.Write([]byte(author))
	messageLen := encodeU64BE(uint64(len(message)))
	h.Write(messageLen[:])
	h.Write([]byte(message))

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
