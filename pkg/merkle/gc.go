package merkle

import (
	"time"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// GC runs mark-and-sweep garbage collection rooted at the current
// last-commit-hash: every entry reachable from that commit is marked, and
// the backing store retains exactly the marked set. GC does not traverse
// ancestor commits by default, so history before the current commit is not
// preserved across a GC run unless the backing store happens to retain it
// independently.
func (e *Engine) GC() error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	keep := make(map[string]struct{})
	if e.lastCommitHash != nil {
		if entry, err := e.getEntryFromDB(*e.lastCommitHash); err == nil {
			e.markEntriesRecursively(entry, keep)
		}
	}

	if err := e.db.Retain(keep); err != nil {
		return errDB(err)
	}
	e.updateExecutionStats("GC", nil, start)
	return nil
}

// getEntryFromDB bypasses the staging map: GC only ever marks entries that
// are already durable, since only durable entries can be swept.
func (e *Engine) getEntryFromDB(h hash.Hash) (Entry, error) {
	raw, ok, err := e.db.Get(h.Bytes())
	if err != nil {
		return Entry{}, errDB(err)
	}
	if !ok {
		return Entry{}, errEntryNotFound(h)
	}
	return DecodeEntry(raw.Bytes())
}

func (e *Engine) markEntriesRecursively(entry Entry, keep map[string]struct{}) {
	h := entry.Hash()
	switch entry.Kind {
	case EntryBlob:
		keep[string(h[:])] = struct{}{}
	case EntryTree:
		keep[string(h[:])] = struct{}{}
		for _, seg := range entry.Tree.sortedSegments() {
			node := entry.Tree[seg]
			child, err := e.getEntryFromDB(node.EntryHash)
			if err != nil {
				continue
			}
			e.markEntriesRecursively(child, keep)
		}
	case EntryCommit:
		keep[string(h[:])] = struct{}{}
		child, err := e.getEntryFromDB(entry.Commit.Root)
		if err != nil {
			return
		}
		e.markEntriesRecursively(child, keep)
	}
}
