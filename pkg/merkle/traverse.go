package merkle

import (
	"encoding/hex"
	"time"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// Get reads the blob stored at key in the current staging tree.
func (e *Engine) Get(key ContextKey) ([]byte, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.getStagedRoot()
	if err != nil {
		return nil, err
	}
	rootHash := treeEntry(root).Hash()

	value, err := e.getFromTree(rootHash, key)
	e.updateExecutionStats("Get", key, start)
	return value, err
}

// GetHistory reads the blob stored at key as of the given commit.
func (e *Engine) GetHistory(commitHash hash.Hash, key ContextKey) ([]byte, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	commit, err := e.getCommit(commitHash)
	if err != nil {
		return nil, err
	}
	value, err := e.getFromTree(commit.Root, key)
	e.updateExecutionStats("GetKeyFromHistory", key, start)
	return value, err
}

func (e *Engine) getFromTree(rootHash hash.Hash, key ContextKey) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty()
	}
	file := key[len(key)-1]
	path := key[:len(key)-1]

	root, err := e.getTree(rootHash)
	if err != nil {
		return nil, err
	}
	tree, err := e.findTree(root, path)
	if err != nil {
		return nil, err
	}

	node, ok := tree[file]
	if !ok {
		return nil, errValueNotFound(key)
	}
	entry, err := e.getEntry(node.EntryHash)
	if err != nil {
		return nil, err
	}
	if entry.Kind != EntryBlob {
		return nil, errValueIsNotABlob(key)
	}
	return entry.Blob, nil
}

// KeyValue is one (key, value) pair yielded by a prefix scan.
type KeyValue struct {
	Key   ContextKey
	Value []byte
}

// GetByPrefix lists every key/value pair under prefix in the current
// staging tree. Returns ok=false when nothing is found under prefix.
func (e *Engine) GetByPrefix(prefix ContextKey) ([]KeyValue, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.getStagedRoot()
	if err != nil {
		return nil, false, err
	}
	return e.getKeyValuesByPrefix(root, prefix)
}

// GetKeyValuesByPrefix lists every key/value pair under prefix as of the
// given commit.
func (e *Engine) GetKeyValuesByPrefix(commitHash hash.Hash, prefix ContextKey) ([]KeyValue, bool, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	commit, err := e.getCommit(commitHash)
	if err != nil {
		return nil, false, err
	}
	root, err := e.getTree(commit.Root)
	if err != nil {
		return nil, false, err
	}
	out, ok, err := e.getKeyValuesByPrefix(root, prefix)
	e.updateExecutionStats("GetKeyValuesByPrefix", prefix, start)
	return out, ok, err
}

func (e *Engine) getKeyValuesByPrefix(root Tree, prefix ContextKey) ([]KeyValue, bool, error) {
	prefixed, err := e.findTree(root, prefix)
	if err != nil {
		return nil, false, err
	}

	var out []KeyValue
	for _, seg := range prefixed.sortedSegments() {
		node := prefixed[seg]
		entry, err := e.getEntry(node.EntryHash)
		if err != nil {
			return nil, false, err
		}
		fullPath := appendSegment(prefix, seg)
		e.collectKeyValues(fullPath, entry, &out)
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

// collectKeyValues recursively gathers every blob reachable from entry.
// A decode failure on any branch is swallowed rather than propagated,
// matching the "best effort" semantics of a recursive directory listing
// that should not let one corrupt or dangling branch hide everything else.
func (e *Engine) collectKeyValues(path ContextKey, entry Entry, out *[]KeyValue) {
	switch entry.Kind {
	case EntryBlob:
		*out = append(*out, KeyValue{Key: path, Value: entry.Blob})
	case EntryTree:
		for _, seg := range entry.Tree.sortedSegments() {
			node := entry.Tree[seg]
			child, err := e.getEntry(node.EntryHash)
			if err != nil {
				continue
			}
			e.collectKeyValues(appendSegment(path, seg), child, out)
		}
	case EntryCommit:
		child, err := e.getEntry(entry.Commit.Root)
		if err != nil {
			return
		}
		e.collectKeyValues(path, child, out)
	}
}

func appendSegment(prefix ContextKey, seg string) ContextKey {
	out := make(ContextKey, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = seg
	return out
}

// GetContextTreeByPrefix renders the subtree under prefix as of the given
// commit into a StringTreeEntry, suitable for JSON-style inspection
// tooling. depth, if non-nil, bounds how many levels are expanded before
// a branch is rendered as Null.
func (e *Engine) GetContextTreeByPrefix(commitHash hash.Hash, prefix ContextKey, depth *int) (StringTreeEntry, error) {
	if depth != nil && *depth == 0 {
		return StringTreeEntry{IsNull: true}, nil
	}

	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	commit, err := e.getCommit(commitHash)
	if err != nil {
		return StringTreeEntry{}, err
	}
	root, err := e.getTree(commit.Root)
	if err != nil {
		return StringTreeEntry{}, err
	}
	prefixed, err := e.findTree(root, prefix)
	if err != nil {
		return StringTreeEntry{}, err
	}

	out := make(map[string]StringTreeEntry)
	for _, seg := range prefixed.sortedSegments() {
		node := prefixed[seg]
		entry, err := e.getEntry(node.EntryHash)
		if err != nil {
			return StringTreeEntry{}, err
		}
		rdepth := decrementDepth(depth)
		rendered, err := e.getContextRecursive(entry, rdepth)
		if err != nil {
			return StringTreeEntry{}, err
		}
		out[seg] = rendered
	}

	e.updateExecutionStats("GetContextTreeByPrefix", prefix, start)
	return StringTreeEntry{IsTree: true, Tree: out}, nil
}

func (e *Engine) getContextRecursive(entry Entry, depth *int) (StringTreeEntry, error) {
	if depth != nil && *depth == 0 {
		return StringTreeEntry{IsNull: true}, nil
	}

	switch entry.Kind {
	case EntryBlob:
		return StringTreeEntry{Blob: hex.EncodeToString(entry.Blob)}, nil
	case EntryTree:
		out := make(map[string]StringTreeEntry, len(entry.Tree))
		for _, seg := range entry.Tree.sortedSegments() {
			node := entry.Tree[seg]
			child, err := e.getEntry(node.EntryHash)
			if err != nil {
				return StringTreeEntry{}, err
			}
			rdepth := decrementDepth(depth)
			rendered, err := e.getContextRecursive(child, rdepth)
			if err != nil {
				return StringTreeEntry{}, err
			}
			out[seg] = rendered
		}
		return StringTreeEntry{IsTree: true, Tree: out}, nil
	default:
		return StringTreeEntry{}, errFoundUnexpectedStructure("Tree/Blob", "Commit")
	}
}

func decrementDepth(depth *int) *int {
	if depth == nil {
		return nil
	}
	d := *depth - 1
	return &d
}
