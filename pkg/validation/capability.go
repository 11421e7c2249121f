package validation

import (
	"context"
	"time"
)

// Rule is the capability interface for a fine-grained check with explicit
// dependency and priority metadata.
//
// Execute may return an error or panic; the engine converts both into a
// failed RuleResult at the call boundary, so implementations are free to
// fail loudly. AppliesTo is called before Execute and must be cheap; a
// panic inside it is likewise converted, never propagated.
type Rule interface {
	// Name returns the unique rule name within its registry.
	Name() string

	// Description returns a human-readable summary of the check.
	Description() string

	// Dependencies returns the names of rules that must complete before
	// this rule starts. Dependency is an ordering constraint, not a
	// pass-gate; wrap the rule in a ConditionalRule when gating on a
	// dependency's success is the intent.
	Dependencies() []string

	// Priority breaks ties within a dependency level; higher runs earlier.
	Priority() int

	// Cacheable reports whether results may be served from the cache.
	Cacheable() bool

	// AppliesTo reports whether the rule is relevant for the value.
	AppliesTo(value any) bool

	// Execute runs the check. The context carries the per-operation
	// deadline; implementations that block should honor cancellation.
	Execute(ctx context.Context, value any, vc *Context) (*RuleResult, error)
}

// ValidatorConfig is the per-validator configuration snapshot.
type ValidatorConfig struct {
	// Enabled gates participation in implicit validator selection.
	Enabled bool

	// Priority orders validators; higher runs earlier.
	Priority int

	// Timeout bounds one Validate call. Zero means the pipeline default.
	Timeout time.Duration

	// Cacheable reports whether results may be served from the cache.
	Cacheable bool

	// Options carries validator-specific settings, exposed to the
	// validator through the Context.
	Options map[string]any
}

// Validator is the capability interface for a coarse-grained check over an
// entire value, producing a full Result.
//
// The same conversion-at-boundary policy as for Rule applies: errors and
// panics from Validate or CanValidate become failed results, never Go
// errors returned by the pipeline.
type Validator interface {
	// Name returns the unique validator name within its registry.
	Name() string

	// Config returns the validator's configuration snapshot.
	Config() ValidatorConfig

	// Dependencies returns the names of validators that must complete
	// before this one starts.
	Dependencies() []string

	// CanValidate reports whether the validator understands the value.
	CanValidate(value any) bool

	// Validate runs the check over the whole value.
	Validate(ctx context.Context, value any, vc *Context) (*Result, error)

	// Schema returns descriptive metadata about the validator. The schema
	// version participates in cache keys, so bumping it invalidates
	// previously cached results.
	Schema() map[string]any
}
