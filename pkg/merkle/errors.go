package merkle

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// ErrorKind identifies which structural failure an Error represents.
type ErrorKind int

const (
	ErrDB ErrorKind = iota
	ErrSerialization
	ErrCommitRootNotFound
	ErrMissingAncestorCommit
	ErrValueIsNotABlob
	ErrFoundUnexpectedStructure
	ErrEntryNotFound
	ErrValueNotFound
	ErrKeyEmpty
	ErrHashConversion
)

// Error is the engine's structured error type. Kind selects which fields
// are meaningful; Err carries an underlying cause for DB/Serialization/
// HashConversion failures.
type Error struct {
	Kind   ErrorKind
	Key    string
	Sought string
	Found  string
	Hash   hash.Hash
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrDB:
		return fmt.Sprintf("merkle: store error: %v", e.Err)
	case ErrSerialization:
		return fmt.Sprintf("merkle: serialization error: %v", e.Err)
	case ErrCommitRootNotFound:
		return "merkle: no root retrieved for this commit"
	case ErrMissingAncestorCommit:
		return "merkle: cannot commit without a predecessor"
	case ErrValueIsNotABlob:
		return fmt.Sprintf("merkle: there is a tree or commit under key %q, but not a value", e.Key)
	case ErrFoundUnexpectedStructure:
		return fmt.Sprintf("merkle: found wrong structure: was looking for %s, but found %s", e.Sought, e.Found)
	case ErrEntryNotFound:
		return fmt.Sprintf("merkle: entry not found, hash=%s", e.Hash)
	case ErrValueNotFound:
		return fmt.Sprintf("merkle: no value under key %q", e.Key)
	case ErrKeyEmpty:
		return "merkle: cannot search for an empty key"
	case ErrHashConversion:
		return fmt.Sprintf("merkle: failed to convert hash to array: %v", e.Err)
	}
	return "merkle: unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

func errDB(cause error) error {
	return &Error{Kind: ErrDB, Err: errors.Wrap(cause, "kv store")}
}

func errSerialization(cause error) error {
	return &Error{Kind: ErrSerialization, Err: errors.Wrap(cause, "entry codec")}
}

func errCommitRootNotFound() error {
	return &Error{Kind: ErrCommitRootNotFound}
}

func errMissingAncestorCommit() error {
	return &Error{Kind: ErrMissingAncestorCommit}
}

func errValueIsNotABlob(key ContextKey) error {
	return &Error{Kind: ErrValueIsNotABlob, Key: key.String()}
}

func errFoundUnexpectedStructure(sought, found string) error {
	return &Error{Kind: ErrFoundUnexpectedStructure, Sought: sought, Found: found}
}

func errEntryNotFound(h hash.Hash) error {
	return &Error{Kind: ErrEntryNotFound, Hash: h}
}

func errValueNotFound(key ContextKey) error {
	return &Error{Kind: ErrValueNotFound, Key: key.String()}
}

func errKeyEmpty() error {
	return &Error{Kind: ErrKeyEmpty}
}

func errHashConversion(cause error) error {
	return &Error{Kind: ErrHashConversion, Err: cause}
}
