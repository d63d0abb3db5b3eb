package actionlog

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrBlockAlreadyStored is returned by Update when block's level does not
// advance the header's block_height, which the writer treats as a
// duplicate or out-of-order block.
var ErrBlockAlreadyStored = errors.New("actionlog: block already stored")

// Writer opens an action-log file read/write, appending framed records and
// keeping the 12-byte header in sync with what has been written.
type Writer struct {
	file   *os.File
	header Header
}

// NewWriter opens path for read/write, creating it if absent, and reads
// whatever header is currently present (all zero for a brand-new file).
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open action log for writing")
	}
	header, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{file: f, header: header}, nil
}

// Header returns the header as of the writer's last read.
func (w *Writer) Header() Header { return w.header }

// Update appends one framed (block, actions) record and advances the
// header. It rereads the header from disk first, so it rejects a block
// whose level does not exceed the current block_height once at least one
// block has been written. The header is written for the first time only
// after the first record has been framed into the body.
func (w *Writer) Update(block Block, actions []ContextAction) error {
	header, err := readHeader(w.file)
	if err != nil {
		return err
	}
	w.header = header

	if block.BlockLevel <= w.header.BlockHeight && w.header.BlockCount > 0 {
		return ErrBlockAlreadyStored
	}

	payload := encodeRecord(block, actions)

	firstRecord := w.header.BlockCount == 0
	if firstRecord {
		if err := w.writeHeader(); err != nil {
			return err
		}
	}

	if err := w.appendRecord(payload); err != nil {
		return err
	}

	w.header.BlockHeight = block.BlockLevel
	w.header.ActionsCount += uint32(len(actions))
	w.header.BlockCount++
	return w.writeHeader()
}

func (w *Writer) appendRecord(payload []byte) error {
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "seek action log end")
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.file.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "write record length")
	}
	if _, err := w.file.Write(payload); err != nil {
		return errors.Wrap(err, "write record payload")
	}
	return nil
}

func (w *Writer) writeHeader() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek action log start")
	}
	var buf [headerLen]byte
	binary.BigEndian.PutUint32(buf[0:4], w.header.BlockHeight)
	binary.BigEndian.PutUint32(buf[4:8], w.header.ActionsCount)
	binary.BigEndian.PutUint32(buf[8:12], w.header.BlockCount)
	if _, err := w.file.Write(buf[:]); err != nil {
		return errors.Wrap(err, "write action log header")
	}
	return nil
}

// Close releases the underlying file descriptor.
func (w *Writer) Close() error {
	return w.file.Close()
}
