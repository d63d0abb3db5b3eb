// Package schema adapts a raw kv.Store to typed keys and values, the way
// the storage engine's callers think in terms of content hashes and entry
// structs rather than raw bytes.
package schema

import (
	"github.com/pkg/errors"

	"github.com/mambisi/actions-tool/pkg/ivec"
	"github.com/mambisi/actions-tool/pkg/kv"
)

// Codec converts a typed value to and from its wire representation.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// TypedStore layers a Codec for K and a Codec for V over a raw kv.Store,
// so callers never handle byte slices directly.
type TypedStore[K, V any] struct {
	raw     kv.Store
	keyCdc  Codec[K]
	valCdc  Codec[V]
}

// NewTypedStore returns a TypedStore backed by raw, using keyCdc and valCdc
// to translate to and from the store's native ivec.IVec currency.
func NewTypedStore[K, V any](raw kv.Store, keyCdc Codec[K], valCdc Codec[V]) *TypedStore[K, V] {
	return &TypedStore[K, V]{raw: raw, keyCdc: keyCdc, valCdc: valCdc}
}

func (s *TypedStore[K, V]) Get(key K) (V, bool, error) {
	var zero V
	rawKey, err := s.keyCdc.Encode(key)
	if err != nil {
		return zero, false, errors.Wrap(err, "schema: encode key")
	}
	rawVal, ok, err := s.raw.Get(ivec.New(rawKey))
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	v, err := s.valCdc.Decode(rawVal.Bytes())
	if err != nil {
		return zero, false, errors.Wrap(err, "schema: decode value")
	}
	return v, true, nil
}

func (s *TypedStore[K, V]) Put(key K, value V) error {
	rawKey, err := s.keyCdc.Encode(key)
	if err != nil {
		return errors.Wrap(err, "schema: encode key")
	}
	rawVal, err := s.valCdc.Encode(value)
	if err != nil {
		return errors.Wrap(err, "schema: encode value")
	}
	return s.raw.Put(ivec.New(rawKey), ivec.New(rawVal))
}

func (s *TypedStore[K, V]) Delete(key K) error {
	rawKey, err := s.keyCdc.Encode(key)
	if err != nil {
		return errors.Wrap(err, "schema: encode key")
	}
	return s.raw.Delete(ivec.New(rawKey))
}

func (s *TypedStore[K, V]) Contains(key K) (bool, error) {
	rawKey, err := s.keyCdc.Encode(key)
	if err != nil {
		return false, errors.Wrap(err, "schema: encode key")
	}
	return s.raw.Contains(ivec.New(rawKey))
}

// HashKeyCodec encodes/decodes a fixed-size 32-byte hash used across the
// storage engine as the canonical object key.
type HashKeyCodec struct{}

func (HashKeyCodec) Encode(h [32]byte) ([]byte, error) {
	out := make([]byte, 32)
	copy(out, h[:])
	return out, nil
}

func (HashKeyCodec) Decode(b []byte) ([32]byte, error) {
	var h [32]byte
	if len(b) != 32 {
		return h, errors.Errorf("schema: expected 32-byte key, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// RawBytesCodec is the identity codec for raw []byte values.
type RawBytesCodec struct{}

func (RawBytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }
func (RawBytesCodec) Decode(b []byte) ([]byte, error) { return b, nil }
