package graph

import (
	"fmt"
	"sort"
	"sync"

	"chemlab-hq/callisto/pkg/validation"
)

// Node is a single entry in the dependency graph.
type Node struct {
	// Name is the unique node name.
	Name string

	// Dependencies lists names this node depends on (forward edges).
	// Dependencies may reference names that are not registered yet;
	// unknown names impose no ordering until they are added.
	Dependencies []string

	// Dependents lists registered names that depend on this node
	// (reverse edges).
	Dependents []string

	// Order is the node's topological rank, valid after Order() or
	// Levels() has been called since the last structural change.
	Order int

	// Priority breaks ties between nodes whose dependencies are equally
	// satisfied; higher runs earlier.
	Priority int

	// seq is the registration sequence number, the final tie-breaker.
	seq int
}

// Resolver builds and maintains the dependency graph.
//
// Resolver is safe for concurrent use. Structural changes (Add, Remove)
// invalidate the memoized order; Order and Levels recompute on demand.
type Resolver struct {
	mu      sync.RWMutex
	nodes   map[string]*Node
	nextSeq int

	// memoized results, valid while !dirty
	order  []string
	levels [][]string
	dirty  bool
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		nodes: make(map[string]*Node),
	}
}

// Add inserts a node with the given dependencies and priority.
//
// It returns a *validation.ConfigurationError when the name is already
// registered or when the insertion would create a cycle; in both cases the
// graph is left unchanged.
func (r *Resolver) Add(name string, deps []string, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[name]; exists {
		return &validation.ConfigurationError{
			Component: name,
			Reason:    "already registered",
			Cause:     validation.ErrDuplicateName,
		}
	}

	node := &Node{
		Name:         name,
		Dependencies: append([]string(nil), deps...),
		Priority:     priority,
		seq:          r.nextSeq,
	}
	r.nodes[name] = node

	if cycle := r.findCycleLocked(name); cycle != nil {
		delete(r.nodes, name)
		return &validation.ConfigurationError{
			Component: name,
			Reason:    fmt.Sprintf("would create cycle %v", cycle),
			Cause:     validation.ErrCyclicDependency,
		}
	}

	r.nextSeq++
	r.wireEdgesLocked()
	r.dirty = true
	return nil
}

// Remove deletes a node and all edges referencing it. Removing an unknown
// name is a no-op.
func (r *Resolver) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[name]; !exists {
		return
	}
	delete(r.nodes, name)
	r.wireEdgesLocked()
	r.dirty = true
}

// Has reports whether the name is registered.
func (r *Resolver) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[name]
	return ok
}

// Len returns the number of registered nodes.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Names returns the registered names in registration order.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.nodes[names[i]].seq < r.nodes[names[j]].seq
	})
	return names
}

// Order returns the memoized topological order, recomputing it if the
// graph changed since the last call. The order is deterministic: within a
// set of equally ready nodes, higher priority runs earlier, then earlier
// registration.
func (r *Resolver) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputeLocked()
	return append([]string(nil), r.order...)
}

// Levels returns the dependency levels: each inner slice contains nodes
// whose dependencies are all satisfied by earlier slices. Nodes within a
// level are ordered by priority (descending) then registration order.
func (r *Resolver) Levels() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputeLocked()

	out := make([][]string, len(r.levels))
	for i, level := range r.levels {
		out[i] = append([]string(nil), level...)
	}
	return out
}

// findCycleLocked runs a DFS with recursion-stack marking starting from
// the given node and returns the cycle path when one is found.
func (r *Resolver) findCycleLocked(start string) []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(r.nodes))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		node, ok := r.nodes[name]
		if !ok {
			// Unknown dependency: no edge to follow yet.
			return nil
		}
		switch state[name] {
		case inStack:
			// Found the back edge; extract the cycle from the stack.
			for i, n := range stack {
				if n == name {
					return append(append([]string(nil), stack[i:]...), name)
				}
			}
			return []string{name, name}
		case done:
			return nil
		}
		state[name] = inStack
		stack = append(stack, name)
		for _, dep := range node.Dependencies {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	return visit(start)
}

// wireEdgesLocked rebuilds every node's reverse edge list from the forward
// edges. Called after any structural change.
func (r *Resolver) wireEdgesLocked() {
	for _, node := range r.nodes {
		node.Dependents = node.Dependents[:0]
	}
	for _, node := range r.nodes {
		for _, dep := range node.Dependencies {
			if target, ok := r.nodes[dep]; ok {
				target.Dependents = append(target.Dependents, node.Name)
			}
		}
	}
}

// recomputeLocked runs Kahn's algorithm and derives both the linear order
// and the level grouping. The graph is known acyclic (Add rejects cycles),
// so the algorithm always drains every node.
func (r *Resolver) recomputeLocked() {
	if !r.dirty && r.order != nil {
		return
	}

	indegree := make(map[string]int, len(r.nodes))
	for name, node := range r.nodes {
		count := 0
		for _, dep := range node.Dependencies {
			if _, ok := r.nodes[dep]; ok {
				count++
			}
		}
		indegree[name] = count
	}

	var ready []*Node
	for name, node := range r.nodes {
		if indegree[name] == 0 {
			ready = append(ready, node)
		}
	}

	r.order = r.order[:0]
	r.levels = r.levels[:0]
	rank := 0

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			if ready[i].Priority != ready[j].Priority {
				return ready[i].Priority > ready[j].Priority
			}
			return ready[i].seq < ready[j].seq
		})

		level := make([]string, 0, len(ready))
		var next []*Node
		for _, node := range ready {
			node.Order = rank
			rank++
			level = append(level, node.Name)
			r.order = append(r.order, node.Name)
		}
		for _, node := range ready {
			for _, depName := range node.Dependents {
				indegree[depName]--
				if indegree[depName] == 0 {
					next = append(next, r.nodes[depName])
				}
			}
		}
		r.levels = append(r.levels, level)
		ready = next
	}

	r.dirty = false
}
