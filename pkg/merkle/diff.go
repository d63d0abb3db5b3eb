package merkle

import (
	"bytes"
	"sort"

	"github.com/mambisi/actions-tool/pkg/hash"
)

// ModifiedKeyValue is a key whose value differs between two commits.
type ModifiedKeyValue struct {
	Key      ContextKey
	OldValue []byte
	NewValue []byte
}

// DiffResult is the set of changes between two committed trees.
type DiffResult struct {
	Added    []KeyValue
	Modified []ModifiedKeyValue
	Deleted  []ContextKey
}

// Diff compares the full key space of two commits and reports every added,
// modified and deleted key. It exits early when commitA and commitB are the
// same commit hash.
func (e *Engine) Diff(commitA, commitB hash.Hash) (DiffResult, error) {
	var result DiffResult
	if commitA == commitB {
		return result, nil
	}

	pairsA, _, err := e.GetKeyValuesByPrefix(commitA, ContextKey{})
	if err != nil {
		return result, err
	}
	pairsB, _, err := e.GetKeyValuesByPrefix(commitB, ContextKey{})
	if err != nil {
		return result, err
	}

	sortKeyValues(pairsA)
	sortKeyValues(pairsB)
	diffKeyValueLists(pairsA, pairsB, &result)
	return result, nil
}

func sortKeyValues(pairs []KeyValue) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key.String() < pairs[j].Key.String()
	})
}

// diffKeyValueLists merge-compares two key-sorted KeyValue lists, the way
// a two-pointer diff over sorted directory listings does, and records
// additions, deletions and value changes into result.
func diffKeyValueLists(a, b []KeyValue, result *DiffResult) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		cmp := compareKeys(a[i].Key, b[j].Key)
		switch {
		case cmp < 0:
			result.Deleted = append(result.Deleted, a[i].Key)
			i++
		case cmp > 0:
			result.Added = append(result.Added, b[j])
			j++
		default:
			if !bytes.Equal(a[i].Value, b[j].Value) {
				result.Modified = append(result.Modified, ModifiedKeyValue{
					Key:      a[i].Key,
					OldValue: a[i].Value,
					NewValue: b[j].Value,
				})
			}
			i++
			j++
		}
	}
	for ; i < len(a); i++ {
		result.Deleted = append(result.Deleted, a[i].Key)
	}
	for ; j < len(b); j++ {
		result.Added = append(result.Added, b[j])
	}
}

func compareKeys(a, b ContextKey) int {
	return bytes.Compare([]byte(a.String()), []byte(b.String()))
}
