package kv

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mambisi/actions-tool/pkg/ivec"
)

// ErrKeyNotFound is available to callers that want to report a missing
// object as an error. FileStore itself does not return it: Get reports a
// missing key with ok=false and a nil error.
var ErrKeyNotFound = errors.New("kv: key not found")

// FileStore is a disk-backed Store. Every key is hex-encoded and sharded
// under a two-character subdirectory the way a content-addressed object
// store shards by hash prefix; this is a reasonable layout here because
// every key this package ever stores under FileStore is itself a content
// hash. Writes are atomic: data lands in a temp file, is synced, then
// renamed into place, so a crash never leaves a partially written object
// visible to readers.
//
// FileStore exists as a durable alternative to BTreeStore for callers that
// want the persisted-state layout described for the storage engine without
// committing to a particular database; it implements the same Store
// interface so the Merkle engine is indifferent to which one backs it.
type FileStore struct {
	baseDir string
}

// NewFileStore creates (if needed) baseDir/objects and returns a FileStore
// rooted there.
func NewFileStore(baseDir string) (*FileStore, error) {
	objectsDir := filepath.Join(baseDir, "objects")
	if err := os.MkdirAll(objectsDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "kv: create objects dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) objectPath(key ivec.IVec) string {
	hexKey := hex.EncodeToString(key)
	if len(hexKey) < 2 {
		return filepath.Join(f.baseDir, "objects", "_", hexKey)
	}
	return filepath.Join(f.baseDir, "objects", hexKey[:2], hexKey[2:])
}

func (f *FileStore) Get(key ivec.IVec) (ivec.IVec, bool, error) {
	path := f.objectPath(key)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "kv: open object")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, false, errors.Wrap(err, "kv: read object")
	}
	return ivec.New(data), true, nil
}

func (f *FileStore) Put(key, value ivec.IVec) error {
	path := f.objectPath(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "kv: create shard dir")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "kv: create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "kv: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "kv: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "kv: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "kv: rename into place")
	}
	return nil
}

func (f *FileStore) Delete(key ivec.IVec) error {
	err := os.Remove(f.objectPath(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "kv: delete object")
	}
	return nil
}

func (f *FileStore) Contains(key ivec.IVec) (bool, error) {
	_, err := os.Stat(f.objectPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "kv: stat object")
}

// allKeys walks the objects directory and recovers every stored key by
// reversing the hex-shard layout.
func (f *FileStore) allKeys() ([]ivec.IVec, error) {
	objectsDir := filepath.Join(f.baseDir, "objects")
	var out []ivec.IVec
	err := filepath.Walk(objectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(objectsDir, path)
		if err != nil {
			return err
		}
		shard := filepath.ToSlash(rel)
		slash := strings.IndexByte(shard, '/')
		if slash < 0 {
			return nil
		}
		hexKey := shard[:slash] + shard[slash+1:]
		if shard[:slash] == "_" {
			hexKey = shard[slash+1:]
		}
		key, decErr := hex.DecodeString(hexKey)
		if decErr != nil {
			return nil // skip anything not written by this package
		}
		out = append(out, ivec.IVec(key))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "kv: walk objects dir")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out, nil
}

func (f *FileStore) Iterate(mode IterMode, fn func(key, value ivec.IVec) bool) error {
	keys, err := f.allKeys()
	if err != nil {
		return err
	}

	switch mode.Kind {
	case ModeEnd:
		for i := len(keys) - 1; i >= 0; i-- {
			if !f.visit(keys[i], fn) {
				return nil
			}
		}
	case ModeFrom:
		if mode.Dir == Forward {
			for _, k := range keys {
				if k.Compare(mode.From) < 0 {
					continue
				}
				if !f.visit(k, fn) {
					return nil
				}
			}
		} else {
			for i := len(keys) - 1; i >= 0; i-- {
				if keys[i].Compare(mode.From) > 0 {
					continue
				}
				if !f.visit(keys[i], fn) {
					return nil
				}
			}
		}
	default: // ModeStart
		for _, k := range keys {
			if !f.visit(k, fn) {
				return nil
			}
		}
	}
	return nil
}

func (f *FileStore) visit(key ivec.IVec, fn func(key, value ivec.IVec) bool) bool {
	value, ok, err := f.Get(key)
	if err != nil || !ok {
		return true
	}
	return fn(key, value)
}

func (f *FileStore) ScanPrefix(prefix ivec.IVec, fn func(key, value ivec.IVec) bool) error {
	keys, err := f.allKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if len(k) < len(prefix) || !ivec.IVec(k[:len(prefix)]).Equal(prefix) {
			continue
		}
		if !f.visit(k, fn) {
			return nil
		}
	}
	return nil
}

// ApplyBatch applies the batch's operations one at a time, in insertion
// order. Unlike BTreeStore it is not atomic: if an operation fails, the
// operations before it stay applied and the rest are not attempted.
func (f *FileStore) ApplyBatch(b *Batch) error {
	for _, op := range b.Entries() {
		if op.Value == nil {
			if err := f.Delete(op.Key); err != nil {
				return err
			}
			continue
		}
		if err := f.Put(op.Key, *op.Value); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileStore) Retain(keep map[string]struct{}) error {
	keys, err := f.allKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := keep[string(k)]; ok {
			continue
		}
		if err := f.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileStore) Stats() (Stats, error) {
	keys, err := f.allKeys()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{KeyCount: len(keys)}
	for _, k := range keys {
		info, statErr := os.Stat(f.objectPath(k))
		if statErr != nil {
			continue
		}
		stats.TotalSize += info.Size() + int64(len(k))
	}
	return stats, nil
}

func (f *FileStore) Close() error { return nil }
