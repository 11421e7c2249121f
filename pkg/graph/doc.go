// Package graph implements the dependency resolver used by the validation
// pipeline to order rule and validator execution.
//
// The resolver maintains a directed graph over registered names. Insertions
// that would create a cycle are rejected before any execution can observe
// them. The topological order is computed lazily with Kahn's algorithm and
// memoized until the next structural change; ties are broken by priority
// (descending) then registration order, so the resulting sequence is
// deterministic.
//
// Beyond the linear order, the resolver groups nodes into levels: maximal
// sets whose dependencies are all satisfied by earlier levels. Levels are
// the unit of intra-run concurrency, since every node in a level may run at
// the same time.
package graph
