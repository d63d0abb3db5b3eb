// Package actionlog implements the framed, append-only binary file format
// that records a sequence of (Block, []ContextAction) entries: a fixed
// 12-byte header followed by length-prefixed payload records.
package actionlog

import "fmt"

const headerLen = 12

// Header is the 12-byte fixed prefix of an action-log file: three
// big-endian uint32s tracking the highest block level ever written and
// running totals of actions and blocks.
type Header struct {
	BlockHeight  uint32
	ActionsCount uint32
	BlockCount   uint32
}

// String renders the header the way operator-facing inspection tools do.
func (h Header) String() string {
	return fmt.Sprintf("%-24s%d\n%-24s%d\n%-24s%d",
		"Block Height:", h.BlockHeight,
		"Block Count:", h.BlockCount,
		"Actions Count:", h.ActionsCount)
}

// Block identifies the chain block a recorded batch of actions belongs to.
// This is the v2 shape: hashes are raw bytes rather than the v1 hex-string
// encoding older snapshots used.
type Block struct {
	BlockLevel      uint32
	BlockHash       []byte
	PredecessorHash []byte
}

// ActionKind tags which ContextAction variant a record holds.
type ActionKind int

const (
	ActionSet ActionKind = iota
	ActionDelete
	ActionRemoveRecursively
	ActionCopy
	ActionCheckout
	ActionCommit
	ActionGet
	ActionMem
	ActionDirMem
	ActionFold
	ActionShutdown
)

// ContextAction is the tagged union recorded by the action-log producer for
// every context operation it observed: engine-effecting variants (Set,
// Delete, RemoveRecursively, Copy, Checkout, Commit) and observation-only
// variants (Get, Mem, DirMem, Fold, Shutdown) that carry no state effect but
// are still recorded for timing/inspection purposes.
type ContextAction struct {
	Kind ActionKind

	ContextHash   []byte
	BlockHash     []byte
	OperationHash []byte
	Ignored       bool
	StartTime     float64
	EndTime       float64

	Key    []string
	Value  []byte
	From   []string
	To     []string
	Member bool

	CheckoutContextHash []byte

	ParentContextHash []byte
	NewContextHash    []byte
	Author            string
	Message           string
	Date              int64
}

// Effective reports whether the action should be applied to the engine: an
// Ignored action, or a Shutdown control event, has no state effect.
func (a ContextAction) Effective() bool {
	if a.Kind == ActionShutdown {
		return false
	}
	return !a.Ignored
}
