package actionlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleActions() []ContextAction {
	return []ContextAction{
		{
			Kind:      ActionSet,
			Key:       []string{"a", "foo"},
			Value:     []byte{1, 2, 3},
			StartTime: 1.5,
			EndTime:   2.25,
		},
		{
			Kind: ActionCopy,
			From: []string{"a"},
			To:   []string{"b"},
		},
		{
			Kind:    ActionDelete,
			Key:     []string{"a", "foo"},
			Ignored: true,
		},
		{
			Kind:           ActionCommit,
			NewContextHash: make([]byte, 32),
			Author:         "Tezos",
			Message:        "Genesis",
			Date:           1600000000,
		},
		{Kind: ActionShutdown},
	}
}

func TestRecordCodecRoundTrip(t *testing.T) {
	block := Block{BlockLevel: 7, BlockHash: []byte{0xAA, 0xBB}, PredecessorHash: []byte{0xCC}}
	actions := sampleActions()

	payload := encodeRecord(block, actions)
	gotBlock, gotActions, err := decodeRecord(payload)
	require.NoError(t, err)
	require.Equal(t, block, gotBlock)
	require.Equal(t, actions, gotActions)
}

func TestDecodeRecordRejectsTrailingBytes(t *testing.T) {
	block := Block{BlockLevel: 1, BlockHash: []byte{1}, PredecessorHash: []byte{2}}
	payload := encodeRecord(block, nil)
	payload = append(payload, 0xFF)
	_, _, err := decodeRecord(payload)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestWriterUpdateThenReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.bin")

	w, err := NewWriter(path)
	require.NoError(t, err)

	block1 := Block{BlockLevel: 1, BlockHash: []byte{1}, PredecessorHash: []byte{0}}
	actions1 := sampleActions()
	require.NoError(t, w.Update(block1, actions1))

	block2 := Block{BlockLevel: 2, BlockHash: []byte{2}, PredecessorHash: []byte{1}}
	actions2 := []ContextAction{{Kind: ActionGet, Key: []string{"x"}, Value: []byte{9}}}
	require.NoError(t, w.Update(block2, actions2))

	require.Equal(t, uint32(2), w.Header().BlockHeight)
	require.Equal(t, uint32(2), w.Header().BlockCount)
	require.Equal(t, uint32(len(actions1)+len(actions2)), w.Header().ActionsCount)
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint32(2), r.Header().BlockHeight)

	gotBlock1, gotActions1, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, block1, gotBlock1)
	require.Equal(t, actions1, gotActions1)

	gotBlock2, gotActions2, ok := r.Next()
	require.True(t, ok)
	require.Equal(t, block2, gotBlock2)
	require.Equal(t, actions2, gotActions2)

	_, _, ok = r.Next()
	require.False(t, ok)
}

func TestWriterRejectsOutOfOrderBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.bin")
	w, err := NewWriter(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Update(Block{BlockLevel: 5}, nil))
	err = w.Update(Block{BlockLevel: 5}, nil)
	require.ErrorIs(t, err, ErrBlockAlreadyStored)
	err = w.Update(Block{BlockLevel: 3}, nil)
	require.ErrorIs(t, err, ErrBlockAlreadyStored)
}

func TestReaderStopsOnTruncatedTrailingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.bin")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Update(Block{BlockLevel: 1}, sampleActions()))
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-1))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, _, ok := r.Next()
	require.False(t, ok)
}
