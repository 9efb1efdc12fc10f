package pipeline

import (
	"sync"

	"github.com/goliatone/go-packforge/pkg/dispatch"
)

// Context is the per-run arena shared by every generator invocation: the
// source/output path pair, one staging queue per artifact category, and the
// threshold assignments collected for reporting. Each Run call owns a fresh
// Context, so concurrent pipeline runs never share staging state.
type Context struct {
	SourceRoot string
	OutputRoot string

	logger Logger

	mu          sync.Mutex
	queues      map[string]*Queue
	assignments map[string][]dispatch.Assignment
}

func newContext(sourceRoot, outputRoot string, logger Logger) *Context {
	return &Context{
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		logger:     logger,
		queues:     make(map[string]*Queue),
	}
}

// Queue returns the staging queue for a category, creating it on first use.
func (c *Context) Queue(category string) *Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[category]
	if !ok {
		q = &Queue{}
		c.queues[category] = q
	}
	return q
}

// Record stores per-type threshold assignments for the run report.
func (c *Context) Record(assignments map[string][]dispatch.Assignment) {
	if len(assignments) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assignments == nil {
		c.assignments = make(map[string][]dispatch.Assignment, len(assignments))
	}
	for typ, entries := range assignments {
		c.assignments[typ] = append(c.assignments[typ], entries...)
	}
}

// Assignments returns everything recorded so far.
func (c *Context) Assignments() map[string][]dispatch.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]dispatch.Assignment, len(c.assignments))
	for typ, entries := range c.assignments {
		out[typ] = entries
	}
	return out
}

// Logf writes to the run's logger.
func (c *Context) Logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
