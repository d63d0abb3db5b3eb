package merkle

import (
	"github.com/mambisi/actions-tool/pkg/ivec"
	"github.com/mambisi/actions-tool/pkg/kv"
)

// persistStagedEntryToDB builds the set of entries reachable from entry
// that still live only in the staging map and writes them to the backing
// store in a single atomic batch.
func (e *Engine) persistStagedEntryToDB(entry Entry) error {
	batch := kv.NewBatch()
	if err := e.collectEntriesToPersist(entry, batch); err != nil {
		return err
	}
	if err := e.db.ApplyBatch(batch); err != nil {
		return errDB(err)
	}
	return nil
}

// collectEntriesToPersist recurses into entry's children, staging a write
// for every entry still present in the staging map. A child whose hash is
// absent from staged is already durable and shared structure: there is no
// need to write it again.
func (e *Engine) collectEntriesToPersist(entry Entry, batch *kv.Batch) error {
	h := entry.Hash()
	batch.Insert(ivec.IVec(h[:]), ivec.New(EncodeEntry(entry)))

	switch entry.Kind {
	case EntryBlob:
		return nil
	case EntryTree:
		for _, node := range entry.Tree {
			child, ok := e.staged[node.EntryHash]
			if !ok {
				continue
			}
			if err := e.collectEntriesToPersist(child, batch); err != nil {
				return err
			}
		}
		return nil
	case EntryCommit:
		child, err := e.getEntry(entry.Commit.Root)
		if err != nil {
			return err
		}
		return e.collectEntriesToPersist(child, batch)
	}
	return nil
}
