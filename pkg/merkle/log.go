package merkle

import "github.com/mambisi/actions-tool/pkg/hash"

// Log walks the parent chain starting at commitHash and returns every
// commit reached, newest first. This does not require ancestor commits to
// be retained by GC (see the GC rooted-at-head note); a broken parent link
// left by a prior GC run simply ends the walk early rather than erroring.
func (e *Engine) Log(commitHash hash.Hash) ([]Commit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var commits []Commit
	current := commitHash
	for {
		commit, err := e.getCommit(current)
		if err != nil {
			if len(commits) == 0 {
				return nil, err
			}
			break
		}
		commits = append(commits, commit)
		if commit.Parent == nil {
			break
		}
		current = *commit.Parent
	}
	return commits, nil
}
