package actionlog

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Reader opens an action-log file read-only and yields one (Block,
// []ContextAction) record at a time by repeatedly reading a length prefix
// and a payload from the current cursor. Iteration ends silently on EOF, a
// zero-length prefix, an I/O error, or a decoding error: truncated files
// are treated as end-of-stream rather than a hard failure.
type Reader struct {
	file   *os.File
	reader *bufio.Reader
	header Header
}

// NewReader opens path and reads its header.
func NewReader(path string) (*Reader, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, "open action log")
	}
	r := &Reader{file: f, reader: bufio.NewReader(f)}
	header, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.header = header
	r.reader.Reset(f)
	return r, nil
}

// Header returns the header read when the reader was opened.
func (r *Reader) Header() Header { return r.header }

// Next reads the next record. ok is false when iteration has ended, either
// because the file is exhausted or because a decode/I/O error was
// encountered; Next never returns a non-nil error for a clean end-of-file,
// matching the swallow-and-stop contract of the file format.
func (r *Reader) Next() (block Block, actions []ContextAction, ok bool) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.reader, lenBuf[:]); err != nil {
		return Block{}, nil, false
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return Block{}, nil, false
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r.reader, payload); err != nil {
		return Block{}, nil, false
	}
	block, actions, err := decodeRecord(payload)
	if err != nil {
		return Block{}, nil, false
	}
	return block, actions, true
}

// Close releases the underlying file descriptor.
func (r *Reader) Close() error {
	return r.file.Close()
}

func readHeader(f *os.File) (Header, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Header{}, errors.Wrap(err, "seek action log header")
	}
	var buf [headerLen]byte
	n, err := io.ReadFull(f, buf[:])
	if err != nil {
		if n == 0 {
			return Header{}, nil
		}
		return Header{}, errors.Wrap(err, "read action log header")
	}
	return Header{
		BlockHeight:  binary.BigEndian.Uint32(buf[0:4]),
		ActionsCount: binary.BigEndian.Uint32(buf[4:8]),
		BlockCount:   binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}
