package merkle

import (
	"time"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// Commit snapshots the current staging tree: it hashes the staged root,
// builds a Commit record pointing at it and at the previous
// last-commit-hash, persists every newly reachable entry to the backing
// store in one batch, clears the staging map and advances
// last_commit_hash.
func (e *Engine) Commit(unixTime uint64, author, message string) (hash.Hash, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	stagedRoot, err := e.getStagedRoot()
	if err != nil {
		return hash.Hash{}, err
	}
	stagedRootHash := treeEntry(stagedRoot).Hash()

	newCommit := Commit{
		Parent:  e.lastCommitHash,
		Root:    stagedRootHash,
		Time:    unixTime,
		Author:  author,
		Message: message,
	}
	entry := commitEntry(newCommit)
	newCommitHash := entry.Hash()
	e.stageEntry(entry)

	if err := e.persistStagedEntryToDB(entry); err != nil {
		return hash.Hash{}, err
	}

	e.staged = make(map[hash.Hash]Entry)
	e.lastCommitHash = &newCommitHash
	e.updateExecutionStats("Commit", nil, start)
	return newCommitHash, nil
}

// Checkout discards uncommitted edits and makes commitHash's root tree the
// current staging tree.
func (e *Engine) Checkout(commitHash hash.Hash) error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	commit, err := e.getCommit(commitHash)
	if err != nil {
		return err
	}
	root, err := e.getTree(commit.Root)
	if err != nil {
		return err
	}
	e.currentStageTree = &root
	e.lastCommitHash = &commitHash
	e.staged = make(map[hash.Hash]Entry)
	e.updateExecutionStats("Checkout", nil, start)
	return nil
}
