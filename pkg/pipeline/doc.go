// Package pipeline implements the validation pipeline: a registry of
// validators and rules executed in dependency order with caching, timeouts,
// bounded concurrency, and structured error aggregation.
//
// # Execution model
//
// Validators run in dependency-respecting priority order; rules run in
// dependency levels computed by the graph resolver. When parallel
// execution is enabled, independent validators and same-level rules run in
// concurrent goroutines bounded by a counting semaphore; a ValidateBatch
// call shares one semaphore across the whole batch.
//
// A rule starts only after every rule it depends on has completed, whether
// that dependency passed or failed. Dependencies are ordering constraints,
// not pass-gates; wrap a rule in rules.ConditionalRule to gate on success.
//
// # Failure discipline
//
// Errors and panics inside validator and rule bodies are converted into
// failed results at the call boundary. Validate returns a Go error only
// for caller mistakes (nil value context, unknown explicit validator name)
// and context cancellation; domain validation failures are always data.
//
// Timeouts are best-effort: the engine stops waiting on a timed-out
// operation but cannot abort it. The abandoned goroutine keeps running
// and any side effects it produces after the timeout are not retracted.
package pipeline
