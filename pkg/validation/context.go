package validation

import (
	"sync"

	"github.com/google/uuid"
)

// Context is the per-invocation state threaded through every rule and
// validator of one Validate call. A fresh Context is created for each call
// and discarded afterwards.
//
// The shared map is visible to every rule and validator participating in
// the same run and is the sanctioned channel for cross-rule communication.
// Rules in the same dependency level may run concurrently, so shared-state
// mutation is last-write-wins; the map itself is protected against torn
// updates but no cross-rule atomicity is provided.
type Context struct {
	// RunID uniquely identifies the Validate invocation. It is carried on
	// every lifecycle event emitted during the run.
	RunID uuid.UUID

	// Path locates the current value inside the root document.
	Path []string

	// Root references the top-level value being validated. Shared, not owned.
	Root any

	// Parent is the enclosing context when descending into nested values.
	// Never an ownership edge.
	Parent *Context

	// Config is the per-validator options snapshot for the current call.
	Config map[string]any

	// Metrics accumulates execution statistics for the run. Mutated in
	// place by the engine.
	Metrics *Metrics

	sharedMu sync.Mutex
	shared   map[string]any
}

// NewContext creates the root context for one validation run over root.
func NewContext(root any) *Context {
	return &Context{
		RunID:   uuid.New(),
		Root:    root,
		Metrics: &Metrics{},
		shared:  make(map[string]any),
	}
}

// Child returns a context for the named property of the current value.
// The child shares the run ID, root, shared map, and metrics accumulator.
func (c *Context) Child(segment string) *Context {
	path := make([]string, 0, len(c.Path)+1)
	path = append(path, c.Path...)
	path = append(path, segment)
	// Children reach the shared map through the root context, so no copy
	// is made here.
	return &Context{
		RunID:   c.RunID,
		Path:    path,
		Root:    c.Root,
		Parent:  c,
		Config:  c.Config,
		Metrics: c.Metrics,
	}
}

// WithConfig returns a derived context carrying the given per-validator
// options. The derived context shares the run ID, root, path, shared map,
// and metrics accumulator with c.
func (c *Context) WithConfig(cfg map[string]any) *Context {
	return &Context{
		RunID:   c.RunID,
		Path:    c.Path,
		Root:    c.Root,
		Parent:  c,
		Config:  cfg,
		Metrics: c.Metrics,
	}
}

// SharedGet reads a value from the run-scoped shared map.
func (c *Context) SharedGet(key string) (any, bool) {
	root := c.root()
	root.sharedMu.Lock()
	defer root.sharedMu.Unlock()
	v, ok := root.shared[key]
	return v, ok
}

// SharedSet writes a value into the run-scoped shared map. Writes from
// concurrent rules are last-write-wins.
func (c *Context) SharedSet(key string, value any) {
	root := c.root()
	root.sharedMu.Lock()
	defer root.sharedMu.Unlock()
	root.shared[key] = value
}

func (c *Context) root() *Context {
	cur := c
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}
