package merkle

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mambisi/actions-tool/pkg/hash"
	"github.com/mambisi/actions-tool/pkg/ivec"
	"github.com/mambisi/actions-tool/pkg/kv"
)

// Engine is the Merkle storage engine: a staging area layered over a
// content-addressed backing store, exposing git-like set/delete/copy,
// commit/checkout and garbage collection.
type Engine struct {
	mu sync.RWMutex

	db     kv.Store
	log    *zap.Logger
	staged map[hash.Hash]Entry

	currentStageTree *Tree
	lastCommitHash   *hash.Hash

	perf *PerfStats
}

// New returns an Engine backed by db. A nil logger falls back to a no-op
// logger, matching the zero-configuration default of the rest of this
// module's ambient logging.
func New(db kv.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		db:     db,
		log:    log,
		staged: make(map[hash.Hash]Entry),
		perf:   newPerfStats(),
	}
}

// GetLastCommitHash returns the hash of the most recently committed or
// checked-out commit, if any.
func (e *Engine) GetLastCommitHash() (hash.Hash, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastCommitHash == nil {
		return hash.Hash{}, false
	}
	return *e.lastCommitHash, true
}

// getStagedRoot returns the current staging root tree, lazily creating and
// staging an empty genesis tree the first time it is needed.
func (e *Engine) getStagedRoot() (Tree, error) {
	if e.currentStageTree != nil {
		return (*e.currentStageTree).Clone(), nil
	}
	empty := make(Tree)
	e.putToStagingArea(empty)
	clone := empty.Clone()
	e.currentStageTree = &clone
	return empty.Clone(), nil
}

func (e *Engine) putToStagingArea(t Tree) hash.Hash {
	entry := treeEntry(t)
	h := entry.Hash()
	e.staged[h] = entry
	return h
}

func (e *Engine) stageEntry(entry Entry) hash.Hash {
	h := entry.Hash()
	e.staged[h] = entry
	return h
}

// getEntry resolves h from the staging map first, then the backing store.
func (e *Engine) getEntry(h hash.Hash) (Entry, error) {
	if entry, ok := e.staged[h]; ok {
		return entry, nil
	}
	raw, ok, err := e.db.Get(ivec.IVec(h[:]))
	if err != nil {
		return Entry{}, errDB(err)
	}
	if !ok {
		return Entry{}, errEntryNotFound(h)
	}
	entry, err := DecodeEntry(raw.Bytes())
	if err != nil {
		return Entry{}, errSerialization(err)
	}
	return entry, nil
}

func (e *Engine) getTree(h hash.Hash) (Tree, error) {
	entry, err := e.getEntry(h)
	if err != nil {
		return nil, err
	}
	switch entry.Kind {
	case EntryTree:
		return entry.Tree, nil
	case EntryBlob:
		return nil, errFoundUnexpectedStructure("tree", "blob")
	default:
		return nil, errFoundUnexpectedStructure("tree", "commit")
	}
}

func (e *Engine) getCommit(h hash.Hash) (Commit, error) {
	entry, err := e.getEntry(h)
	if err != nil {
		return Commit{}, err
	}
	switch entry.Kind {
	case EntryCommit:
		return *entry.Commit, nil
	case EntryTree:
		return Commit{}, errFoundUnexpectedStructure("commit", "tree")
	default:
		return Commit{}, errFoundUnexpectedStructure("commit", "blob")
	}
}
