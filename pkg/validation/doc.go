// Package validation defines the value objects and capability interfaces
// shared by every component of the Callisto validation pipeline.
//
// The package contains no execution logic. It provides:
//
//   - Severity: ordinal classification of findings (Info < Warning < Error < Critical)
//   - Error: a structured validation finding with code, path, and suggestions
//   - RuleResult and Result: the outcomes produced by rules and validators
//   - Context: the per-invocation state threaded through every check
//   - Rule and Validator: the capability interfaces implemented by
//     domain-specific checks (chemical formula syntax, thermodynamic range
//     checks, and so on) and consumed by the pipeline
//
// Domain checks never depend on the pipeline; the pipeline never inspects
// their internals. This package is the narrow contract between the two.
package validation
