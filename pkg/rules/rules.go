package rules

import (
	"context"
	"fmt"
	"time"

	"chemlab-hq/callisto/pkg/validation"
)

// Finding codes produced by the composition primitives.
const (
	// CodeSyncRuleError marks a synchronous rule body that returned an
	// error or panicked.
	CodeSyncRuleError = "SYNC_RULE_ERROR"

	// CodeAsyncRuleError marks an asynchronous rule body that returned an
	// error, panicked, or exceeded its own timeout.
	CodeAsyncRuleError = "ASYNC_RULE_ERROR"

	// CodeCompositeFailure marks an OR composite whose children all failed.
	CodeCompositeFailure = "COMPOSITE_FAILURE"

	// CodeValueOutOfRange marks a numeric value outside its allowed bounds.
	CodeValueOutOfRange = "VALUE_OUT_OF_RANGE"

	// CodePatternMismatch marks a string that did not match its pattern.
	CodePatternMismatch = "PATTERN_MISMATCH"
)

// meta carries the rule metadata shared by every primitive.
type meta struct {
	name        string
	description string
	deps        []string
	priority    int
	cacheable   bool
	applies     func(any) bool
}

// Option customizes a rule's metadata.
type Option func(*meta)

// WithDependencies sets the rule names that must complete first.
func WithDependencies(deps ...string) Option {
	return func(m *meta) { m.deps = deps }
}

// WithPriority sets the tie-break priority; higher runs earlier.
func WithPriority(priority int) Option {
	return func(m *meta) { m.priority = priority }
}

// WithCacheable controls whether results may be cached.
func WithCacheable(cacheable bool) Option {
	return func(m *meta) { m.cacheable = cacheable }
}

// WithAppliesTo replaces the applicability predicate.
func WithAppliesTo(fn func(any) bool) Option {
	return func(m *meta) { m.applies = fn }
}

func newMeta(name, description string, opts ...Option) meta {
	m := meta{name: name, description: description}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m meta) Name() string           { return m.name }
func (m meta) Description() string    { return m.description }
func (m meta) Dependencies() []string { return m.deps }
func (m meta) Priority() int          { return m.priority }
func (m meta) Cacheable() bool        { return m.cacheable }

// AppliesTo evaluates the applicability predicate; a missing predicate
// means the rule applies to every value, and a panicking predicate means
// it applies to none.
func (m meta) AppliesTo(value any) bool {
	if m.applies == nil {
		return true
	}
	return safeApplies(m.applies, value)
}

// safeApplies evaluates a predicate, converting a panic into "does not
// apply" so predicate failures can never cross into the engine.
func safeApplies(fn func(any) bool, value any) (applies bool) {
	defer func() {
		if recover() != nil {
			applies = false
		}
	}()
	return fn(value)
}

// SyncRule wraps a synchronous validation function.
type SyncRule struct {
	meta
	fn func(value any, vc *validation.Context) *validation.RuleResult
}

// NewSyncRule creates a rule from a synchronous function. A panic inside
// the function is converted into a failed result with CodeSyncRuleError.
func NewSyncRule(name, description string, fn func(any, *validation.Context) *validation.RuleResult, opts ...Option) *SyncRule {
	return &SyncRule{
		meta: newMeta(name, description, opts...),
		fn:   fn,
	}
}

// Execute runs the wrapped function.
func (r *SyncRule) Execute(_ context.Context, value any, vc *validation.Context) (result *validation.RuleResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = validation.Fail(&validation.Error{
				Code:     CodeSyncRuleError,
				Message:  fmt.Sprintf("rule %q panicked: %v", r.name, rec),
				Severity: validation.SeverityError,
			})
			err = nil
		}
	}()
	res := r.fn(value, vc)
	if res == nil {
		res = validation.Pass()
	}
	return res, nil
}

// AsyncRule wraps an asynchronous validation function and applies its own
// timeout, distinct from the pipeline-level one.
//
// The timeout is best-effort: the rule stops waiting on the function but
// cannot abort it. A function that ignores context cancellation keeps
// running in the background; side effects it produces after the timeout
// are not retracted.
type AsyncRule struct {
	meta
	timeout time.Duration
	fn      func(ctx context.Context, value any, vc *validation.Context) (*validation.RuleResult, error)
}

// NewAsyncRule creates a rule from an asynchronous function. Timeouts,
// returned errors, and panics are all converted into failed results with
// CodeAsyncRuleError, never a raw error.
func NewAsyncRule(name, description string, timeout time.Duration, fn func(context.Context, any, *validation.Context) (*validation.RuleResult, error), opts ...Option) *AsyncRule {
	return &AsyncRule{
		meta:    newMeta(name, description, opts...),
		timeout: timeout,
		fn:      fn,
	}
}

// Execute runs the wrapped function under the rule's own timeout.
func (r *AsyncRule) Execute(ctx context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	type outcome struct {
		result *validation.RuleResult
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		res, err := r.fn(runCtx, value, vc)
		ch <- outcome{result: res, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return validation.Fail(&validation.Error{
				Code:     CodeAsyncRuleError,
				Message:  fmt.Sprintf("rule %q failed: %v", r.name, out.err),
				Severity: validation.SeverityError,
			}), nil
		}
		if out.result == nil {
			return validation.Pass(), nil
		}
		return out.result, nil

	case <-runCtx.Done():
		return validation.Fail(&validation.Error{
			Code:     CodeAsyncRuleError,
			Message:  fmt.Sprintf("rule %q timed out after %v", r.name, r.timeout),
			Severity: validation.SeverityError,
			Context: map[string]any{
				"timeout": r.timeout.String(),
			},
		}), nil
	}
}

// safeExecute runs a child rule, converting returned errors and panics
// into failed results at this boundary.
func safeExecute(ctx context.Context, rule validation.Rule, value any, vc *validation.Context) (result *validation.RuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = validation.Fail(&validation.Error{
				Code:     validation.CodeExecutionError,
				Message:  fmt.Sprintf("rule %q panicked: %v", rule.Name(), rec),
				Severity: validation.SeverityError,
			})
		}
	}()

	res, err := rule.Execute(ctx, value, vc)
	if err != nil {
		return validation.Fail(&validation.Error{
			Code:     validation.CodeExecutionError,
			Message:  fmt.Sprintf("rule %q failed: %v", rule.Name(), err),
			Severity: validation.SeverityError,
		})
	}
	if res == nil {
		return validation.Pass()
	}
	return res
}
