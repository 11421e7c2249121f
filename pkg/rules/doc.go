// Package rules provides the composable building blocks for validation
// rules: synchronous and asynchronous function wrappers, range and pattern
// checks, AND/OR composition, and conditional gating.
//
// Every primitive implements the validation.Rule capability and follows a
// single failure discipline: errors and panics raised inside a rule body or
// predicate are converted into a failed RuleResult carrying a structured
// finding at that exact boundary. No primitive ever lets a panic or error
// escape into the engine's control flow.
//
// The primitives are self-contained; none of them depends on the pipeline.
package rules
