package pipeline

import (
	"sync"

	"github.com/goliatone/go-packforge/pkg/artifact"
)

// Queue is the ordered, append-only staging buffer for one artifact
// category. Earlier generators append; exactly one later generator drains
// and clears it within the same run. Emptying it is what keeps repeat runs
// (a watch-mode driver) from emitting duplicates.
type Queue struct {
	mu   sync.Mutex
	defs []artifact.Definition
}

// Add appends a definition, preserving insertion order.
func (q *Queue) Add(def artifact.Definition) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.defs = append(q.defs, def)
}

// Drain returns an ordered copy of everything added so far.
func (q *Queue) Drain() []artifact.Definition {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]artifact.Definition, len(q.defs))
	copy(out, q.defs)
	return out
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.defs = nil
}

// DrainAndClear drains and empties in one step; the draining generator
// must use this (or Drain followed by Clear) exactly once per run.
func (q *Queue) DrainAndClear() []artifact.Definition {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.defs
	q.defs = nil
	return out
}

// Len reports the number of staged definitions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.defs)
}
