package editor

import (
	"log"
	"maps"
	"slices"
)

// maxCommitPasses stops a commit loop that keeps resizing.
const maxCommitPasses = 1024

// CommitEdits writes every eligible draft into the buffer. A pass that
// resizes the buffer stops early, so passes repeat until one completes
// without resizing. Drafts of the committed fields are dropped afterwards and
// reseed from the buffer on the next visit.
func (e *Editor) CommitEdits() {
	if !e.HasFlatbufferData() {
		return
	}
	e.committedThisLoop = e.committedThisLoop[:0]
	for passes := 1; e.Visit(nil, CommitEdits); passes++ {
		if passes >= maxCommitPasses {
			log.Printf("editor %s: commit still resizing after %d passes, giving up", e.RootID, passes)
			break
		}
	}
	for _, id := range e.committedThisLoop {
		delete(e.drafts, id)
	}
	e.committedThisLoop = nil
	e.editsPending = false
}

func sortedKeys(m map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(m))
}
