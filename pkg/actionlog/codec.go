package actionlog

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrCorruptRecord is returned by decodeRecord when a payload is truncated,
// malformed, or carries trailing bytes past the structure it describes.
var ErrCorruptRecord = fmt.Errorf("actionlog: corrupt record encoding")

// encodeRecord serializes (block, actions) into the canonical payload bytes
// framed by Writer/Reader. This is a hand-written substitute for bincode:
// every variable-length field is length-prefixed, fixed-width fields are
// written big-endian, and all fields are written in a fixed order so
// encoding is deterministic.
func encodeRecord(block Block, actions []ContextAction) []byte {
	buf := make([]byte, 0, 256)
	buf = encodeBlock(buf, block)
	buf = appendU32(buf, uint32(len(actions)))
	for _, a := range actions {
		buf = encodeAction(buf, a)
	}
	return buf
}

func decodeRecord(data []byte) (Block, []ContextAction, error) {
	pos := 0
	block, ok := decodeBlock(data, &pos)
	if !ok {
		return Block{}, nil, ErrCorruptRecord
	}
	count, ok := readU32(data, &pos)
	if !ok {
		return Block{}, nil, ErrCorruptRecord
	}
	actions := make([]ContextAction, 0, count)
	for i := uint32(0); i < count; i++ {
		a, ok := decodeAction(data, &pos)
		if !ok {
			return Block{}, nil, ErrCorruptRecord
		}
		actions = append(actions, a)
	}
	if pos != len(data) {
		return Block{}, nil, ErrCorruptRecord
	}
	return block, actions, nil
}

func encodeBlock(buf []byte, b Block) []byte {
	buf = appendU32(buf, b.BlockLevel)
	buf = appendBytes(buf, b.BlockHash)
	buf = appendBytes(buf, b.PredecessorHash)
	return buf
}

func decodeBlock(data []byte, pos *int) (Block, bool) {
	level, ok := readU32(data, pos)
	if !ok {
		return Block{}, false
	}
	blockHash, ok := readBytes(data, pos)
	if !ok {
		return Block{}, false
	}
	predecessor, ok := readBytes(data, pos)
	if !ok {
		return Block{}, false
	}
	return Block{BlockLevel: level, BlockHash: blockHash, PredecessorHash: predecessor}, true
}

func encodeAction(buf []byte, a ContextAction) []byte {
	buf = append(buf, byte(a.Kind))
	buf = appendBytes(buf, a.ContextHash)
	buf = appendBytes(buf, a.BlockHash)
	buf = appendBytes(buf, a.OperationHash)
	buf = appendBool(buf, a.Ignored)
	buf = appendFloat64(buf, a.StartTime)
	buf = appendFloat64(buf, a.EndTime)
	buf = appendStringSlice(buf, a.Key)
	buf = appendBytes(buf, a.Value)
	buf = appendStringSlice(buf, a.From)
	buf = appendStringSlice(buf, a.To)
	buf = appendBool(buf, a.Member)
	buf = appendBytes(buf, a.CheckoutContextHash)
	buf = appendBytes(buf, a.ParentContextHash)
	buf = appendBytes(buf, a.NewContextHash)
	buf = appendString(buf, a.Author)
	buf = appendString(buf, a.Message)
	buf = appendU64(buf, uint64(a.Date))
	return buf
}

func decodeAction(data []byte, pos *int) (ContextAction, bool) {
	if *pos+1 > len(data) {
		return ContextAction{}, false
	}
	kind := ActionKind(data[*pos])
	*pos++

	var a ContextAction
	a.Kind = kind

	var ok bool
	if a.ContextHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.BlockHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.OperationHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Ignored, ok = readBool(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.StartTime, ok = readFloat64(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.EndTime, ok = readFloat64(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Key, ok = readStringSlice(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Value, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.From, ok = readStringSlice(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.To, ok = readStringSlice(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Member, ok = readBool(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.CheckoutContextHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.ParentContextHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.NewContextHash, ok = readBytes(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Author, ok = readString(data, pos); !ok {
		return ContextAction{}, false
	}
	if a.Message, ok = readString(data, pos); !ok {
		return ContextAction{}, false
	}
	date, ok := readU64(data, pos)
	if !ok {
		return ContextAction{}, false
	}
	a.Date = int64(date)

	return a, true
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

func appendFloat64(buf []byte, v float64) []byte {
	return appendU64(buf, math.Float64bits(v))
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendU32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func appendStringSlice(buf []byte, ss []string) []byte {
	buf = appendU32(buf, uint32(len(ss)))
	for _, s := range ss {
		buf = appendString(buf, s)
	}
	return buf
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

func readFloat64(data []byte, pos *int) (float64, bool) {
	v, ok := readU64(data, pos)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(v), true
}

func readBool(data []byte, pos *int) (bool, bool) {
	if *pos+1 > len(data) {
		return false, false
	}
	v := data[*pos] != 0
	*pos++
	return v, true
}

func readBytes(data []byte, pos *int) ([]byte, bool) {
	length, ok := readU32(data, pos)
	if !ok || *pos+int(length) > len(data) {
		return nil, false
	}
	var out []byte
	if length > 0 {
		out = make([]byte, length)
		copy(out, data[*pos:*pos+int(length)])
	}
	*pos += int(length)
	return out, true
}

func readString(data []byte, pos *int) (string, bool) {
	b, ok := readBytes(data, pos)
	if !ok {
		return "", false
	}
	return string(b), true
}

func readStringSlice(data []byte, pos *int) ([]string, bool) {
	count, ok := readU32(data, pos)
	if !ok {
		return nil, false
	}
	if count == 0 {
		return nil, true
	}
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, ok := readString(data, pos)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
