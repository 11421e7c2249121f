package validation

import (
	"fmt"
	"time"
)

// Error is a single structured validation finding.
//
// Error implements the error interface so findings can be logged and
// wrapped, but the pipeline always reports them as data inside a Result,
// never as a returned Go error.
type Error struct {
	// Code is a stable machine-readable identifier (e.g. "VALUE_OUT_OF_RANGE").
	Code string

	// Message is the human-readable description of the finding.
	Message string

	// Path locates the offending value inside the validated document,
	// as an ordered sequence of property-name segments.
	Path []string

	// Severity classifies the finding. Findings at SeverityError or above
	// make the overall result invalid.
	Severity Severity

	// Suggestions contains ordered remediation hints.
	Suggestions []string

	// Context carries optional finding-specific details.
	Context map[string]any

	// Value is the offending value, when capturing it is cheap.
	Value any
}

// Error returns the finding formatted as "CODE: message" with the path
// appended when present.
func (e *Error) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, pathString(e.Path))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func pathString(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out
}

// RuleResult is the outcome of executing a single rule.
type RuleResult struct {
	// Passed indicates whether the rule check succeeded.
	Passed bool

	// Err describes the failure when Passed is false. It may also carry a
	// Warning or Info finding alongside a passed result.
	Err *Error

	// Duration is the wall-clock time the rule execution took.
	Duration time.Duration

	// Cached indicates the result was served from the result cache.
	Cached bool

	// Metadata carries rule-specific details (e.g. skipped=true for a
	// conditional rule whose predicate did not hold).
	Metadata map[string]any
}

// Pass returns a passed RuleResult.
func Pass() *RuleResult {
	return &RuleResult{Passed: true}
}

// Fail returns a failed RuleResult carrying the given finding.
func Fail(err *Error) *RuleResult {
	return &RuleResult{Passed: false, Err: err}
}

// CacheStats summarizes result-cache effectiveness for one validation run.
type CacheStats struct {
	Hits    int64
	Misses  int64
	HitRate float64
}

// Metrics accumulates execution statistics during one Validate invocation.
// It is mutated in place by the engine as validators and rules complete.
type Metrics struct {
	// Duration is the total wall-clock time of the run.
	Duration time.Duration

	// RulesExecuted counts rule executions, cached or not.
	RulesExecuted int

	// ValidatorsUsed lists the validators that participated, in execution order.
	ValidatorsUsed []string

	// Cache summarizes cache hits and misses observed during the run.
	Cache CacheStats
}

// Result is the aggregate outcome of one Validate invocation, or of a
// single validator's contribution to it.
type Result struct {
	// Valid is true iff Errors contains no finding with severity >= Error.
	Valid bool

	// Errors contains findings with severity Error or Critical.
	Errors []*Error

	// Warnings contains findings with severity Info or Warning.
	Warnings []*Error

	// Metrics describes the execution of the run that produced this result.
	Metrics Metrics

	// FromCache is true when the whole result was served from the cache.
	FromCache bool

	// Timestamp records when the result was produced.
	Timestamp time.Time
}

// NewResult returns an empty valid result.
func NewResult() *Result {
	return &Result{Valid: true}
}

// Add routes a finding into Errors or Warnings by severity and updates
// Valid. Nil findings are ignored.
func (r *Result) Add(e *Error) {
	if e == nil {
		return
	}
	if e.Severity.Blocking() {
		r.Errors = append(r.Errors, e)
		r.Valid = false
	} else {
		r.Warnings = append(r.Warnings, e)
	}
}

// Merge folds another result's findings into r and updates Valid.
// Metrics are not merged; the engine aggregates those separately.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	if !other.Valid {
		r.Valid = false
	}
}
