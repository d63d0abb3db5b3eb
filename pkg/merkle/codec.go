package merkle

import (
	"encoding/binary"
	"fmt"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// Entry wire tags, used only for the persisted storage encoding below; they
// are unrelated to the hash preimage format of hash.Tree/hash.Commit.
const (
	entryTagBlob   = 0x01
	entryTagTree   = 0x02
	entryTagCommit = 0x03
)

// ErrCorruptEntry is returned by DecodeEntry when data is truncated,
// malformed, or carries trailing bytes past the structure it describes.
var ErrCorruptEntry = fmt.Errorf("merkle: corrupt entry encoding")

// EncodeEntry renders e to its persisted byte form: a one-byte kind tag
// followed by a kind-specific, length-prefixed body.
func EncodeEntry(e Entry) []byte {
	switch e.Kind {
	case EntryBlob:
		return encodeBlobEntry(e.Blob)
	case EntryTree:
		return encodeTreeEntry(e.Tree)
	case EntryCommit:
		return encodeCommitEntry(*e.Commit)
	}
	panic("merkle: unknown entry kind")
}

func encodeBlobEntry(blob []byte) []byte {
	buf := make([]byte, 0, 1+4+len(blob))
	buf = append(buf, entryTagBlob)
	buf = appendU32(buf, uint32(len(blob)))
	buf = append(buf, blob...)
	return buf
}

func encodeTreeEntry(t Tree) []byte {
	segs := t.sortedSegments()
	buf := make([]byte, 0, 1+4+len(segs)*40)
	buf = append(buf, entryTagTree)
	buf = appendU32(buf, uint32(len(segs)))
	for _, seg := range segs {
		n := t[seg]
		buf = appendU32(buf, uint32(len(seg)))
		buf = append(buf, seg...)
		if n.Kind == hash.Leaf {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = append(buf, n.EntryHash[:]...)
	}
	return buf
}

func encodeCommitEntry(c Commit) []byte {
	buf := make([]byte, 0, 1+1+32+32+8+4+len(c.Author)+4+len(c.Message))
	buf = append(buf, entryTagCommit)
	if c.Parent == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = append(buf, c.Parent[:]...)
	}
	buf = append(buf, c.Root[:]...)
	buf = appendU64(buf, c.Time)
	buf = appendU32(buf, uint32(len(c.Author)))
	buf = append(buf, c.Author...)
	buf = appendU32(buf, uint32(len(c.Message)))
	buf = append(buf, c.Message...)
	return buf
}

// DecodeEntry parses data produced by EncodeEntry.
func DecodeEntry(data []byte) (Entry, error) {
	if len(data) < 1 {
		return Entry{}, ErrCorruptEntry
	}
	switch data[0] {
	case entryTagBlob:
		return decodeBlobEntry(data)
	case entryTagTree:
		return decodeTreeEntry(data)
	case entryTagCommit:
		return decodeCommitEntry(data)
	default:
		return Entry{}, ErrCorruptEntry
	}
}

func decodeBlobEntry(data []byte) (Entry, error) {
	pos := 1
	length, ok := readU32(data, &pos)
	if !ok || pos+int(length) != len(data) {
		return Entry{}, ErrCorruptEntry
	}
	blob := make([]byte, length)
	copy(blob, data[pos:pos+int(length)])
	return blobEntry(blob), nil
}

func decodeTreeEntry(data []byte) (Entry, error) {
	pos := 1
	count, ok := readU32(data, &pos)
	if !ok {
		return Entry{}, ErrCorruptEntry
	}
	t := make(Tree, count)
	for i := uint32(0); i < count; i++ {
		segLen, ok := readU32(data, &pos)
		if !ok || pos+int(segLen) > len(data) {
			return Entry{}, ErrCorruptEntry
		}
		seg := string(data[pos : pos+int(segLen)])
		pos += int(segLen)

		if pos+1 > len(data) {
			return Entry{}, ErrCorruptEntry
		}
		kindByte := data[pos]
		pos++

		if pos+32 > len(data) {
			return Entry{}, ErrCorruptEntry
		}
		var h hash.Hash
		copy(h[:], data[pos:pos+32])
		pos += 32

		kind := hash.NonLeaf
		if kindByte == 1 {
			kind = hash.Leaf
		}
		t[seg] = Node{Kind: kind, EntryHash: h}
	}
	if pos != len(data) {
		return Entry{}, ErrCorruptEntry
	}
	return treeEntry(t), nil
}

func decodeCommitEntry(data []byte) (Entry, error) {
	pos := 1
	if pos+1 > len(data) {
		return Entry{}, ErrCorruptEntry
	}
	hasParent := data[pos] == 1
	pos++

	var parent *hash.Hash
	if hasParent {
		if pos+32 > len(data) {
			return Entry{}, ErrCorruptEntry
		}
		var p hash.Hash
		copy(p[:], data[pos:pos+32])
		parent = &p
		pos += 32
	}

	if pos+32 > len(data) {
		return Entry{}, ErrCorruptEntry
	}
	var root hash.Hash
	copy(root[:], data[pos:pos+32])
	pos += 32

	timeVal, ok := readU64(data, &pos)
	if !ok {
		return Entry{}, ErrCorruptEntry
	}

	authorLen, ok := readU32(data, &pos)
	if !ok || pos+int(authorLen) > len(data) {
		return Entry{}, ErrCorruptEntry
	}
	author := string(data[pos : pos+int(authorLen)])
	pos += int(authorLen)

	messageLen, ok := readU32(data, &pos)
	if !ok || pos+int(messageLen) > len(data) {
		return Entry{}, ErrCorruptEntry
	}
	message := string(data[pos : pos+int(messageLen)])
	pos += int(messageLen)

	if pos != len(data) {
		return Entry{}, ErrCorruptEntry
	}

	return commitEntry(Commit{Parent: parent, Root: root, Time: timeVal, Author: author, Message: message}), nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readU32(data []byte, pos *int) (uint32, bool) {
	if *pos+4 > len(data) {
		return 0, false
	}
	v := binary.BigEndian.Uint32(data[*pos : *pos+4])
	*pos += 4
	return v, true
}

func readU64(data []byte, pos *int) (uint64, bool) {
	if *pos+8 > len(data) {
		return 0, false
	}
	v := binary.BigEndian.Uint64(data[*pos : *pos+8])
	*pos += 8
	return v, true
}
