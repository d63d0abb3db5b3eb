package merkle

import (
	"time"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// Set stages value under key in the staging area.
func (e *Engine) Set(key ContextKey, value []byte) error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.getStagedRoot()
	if err != nil {
		return err
	}
	newRootHash, err := e.set(root, key, value)
	if err != nil {
		return err
	}
	if err := e.refreshStageTree(newRootHash); err != nil {
		return err
	}
	e.updateExecutionStats("Set", key, start)
	return nil
}

func (e *Engine) set(root Tree, key ContextKey, value []byte) (hash.Hash, error) {
	blob := blobEntry(value)
	blobHash := e.stageEntry(blob)
	return e.computeNewRootWithChange(root, key, &Node{Kind: hash.Leaf, EntryHash: blobHash})
}

// Delete removes key from the staging area. Deleting an absent key is a
// no-op.
func (e *Engine) Delete(key ContextKey) error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.getStagedRoot()
	if err != nil {
		return err
	}
	newRootHash, err := e.delete(root, key)
	if err != nil {
		return err
	}
	if err := e.refreshStageTree(newRootHash); err != nil {
		return err
	}
	e.updateExecutionStats("Delete", key, start)
	return nil
}

func (e *Engine) delete(root Tree, key ContextKey) (hash.Hash, error) {
	if len(key) == 0 {
		return treeEntry(root).Hash(), nil
	}
	return e.computeNewRootWithChange(root, key, nil)
}

// Copy inserts a NonLeaf node pointing at the tree found under from at the
// destination to. Copying an absent source inserts an empty subtree.
func (e *Engine) Copy(from, to ContextKey) error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.getStagedRoot()
	if err != nil {
		return err
	}
	newRootHash, err := e.copy(root, from, to)
	if err != nil {
		return err
	}
	if err := e.refreshStageTree(newRootHash); err != nil {
		return err
	}
	e.updateExecutionStats("CopyToDiff", to, start)
	return nil
}

func (e *Engine) copy(root Tree, from, to ContextKey) (hash.Hash, error) {
	sourceTree, err := e.findTree(root, from)
	if err != nil {
		return hash.Hash{}, err
	}
	sourceTreeHash := treeEntry(sourceTree).Hash()
	return e.computeNewRootWithChange(root, to, &Node{Kind: hash.NonLeaf, EntryHash: sourceTreeHash})
}

func (e *Engine) refreshStageTree(newRootHash hash.Hash) error {
	tree, err := e.getTree(newRootHash)
	if err != nil {
		return err
	}
	e.currentStageTree = &tree
	return nil
}

// computeNewRootWithChange is the one recursive routine every mutation
// shares: it descends to the parent of key's last segment, applies the
// insert/remove, and recurses back up re-hashing and re-staging every
// ancestor tree along the way. An edit that empties a subtree prunes that
// subtree from its own parent instead of staging an empty Tree; an edit
// that empties the root itself yields the (staged) empty Tree.
func (e *Engine) computeNewRootWithChange(root Tree, key ContextKey, newNode *Node) (hash.Hash, error) {
	if len(key) == 0 {
		if newNode != nil {
			return newNode.EntryHash, nil
		}
		return e.putToStagingArea(make(Tree)), nil
	}

	last := key[len(key)-1]
	path := key[:len(key)-1]

	tree, err := e.findTree(root, path)
	if err != nil {
		return hash.Hash{}, err
	}
	tree = tree.Clone()

	if newNode == nil {
		delete(tree, last)
	} else {
		tree[last] = *newNode
	}

	if len(tree) == 0 {
		return e.computeNewRootWithChange(root, path, nil)
	}

	newTreeHash := e.putToStagingArea(tree)
	nonLeaf := nonLeafNode(newTreeHash)
	return e.computeNewRootWithChange(root, path, &nonLeaf)
}

// findTree descends from root along path, resolving each segment through
// getEntry (staging first, then the backing store), and returns a copy of
// the subtree found. A missing segment or a segment that resolves to a
// Blob yields an empty Tree rather than an error; a segment that resolves
// to a Commit is a structural error.
func (e *Engine) findTree(root Tree, path ContextKey) (Tree, error) {
	if len(path) == 0 {
		return root.Clone(), nil
	}

	node, ok := root[path[0]]
	if !ok {
		return make(Tree), nil
	}

	entry, err := e.getEntry(node.EntryHash)
	if err != nil {
		return nil, err
	}

	switch entry.Kind {
	case EntryTree:
		return e.findTree(entry.Tree, path[1:])
	case EntryBlob:
		return make(Tree), nil
	default:
		return nil, errFoundUnexpectedStructure("tree", "commit")
	}
}
