package rules

import (
	"context"
	"fmt"

	"chemlab-hq/callisto/pkg/validation"
)

// CompositeMode selects how a CompositeRule combines its children.
type CompositeMode string

const (
	// ModeAnd passes iff every applicable child passes.
	ModeAnd CompositeMode = "and"

	// ModeOr passes iff at least one applicable child passes.
	ModeOr CompositeMode = "or"
)

// CompositeRule combines child rules under AND or OR semantics. Children
// run sequentially; a child that does not apply to the value is skipped.
type CompositeRule struct {
	meta
	mode     CompositeMode
	children []validation.Rule
}

// NewAndRule creates a composite that passes iff all applicable children
// pass, surfacing the first failure's finding.
func NewAndRule(name string, children []validation.Rule, opts ...Option) *CompositeRule {
	return newComposite(name, ModeAnd, children, opts...)
}

// NewOrRule creates a composite that passes iff any applicable child
// passes; when every child fails the finding aggregates the failure count.
func NewOrRule(name string, children []validation.Rule, opts ...Option) *CompositeRule {
	return newComposite(name, ModeOr, children, opts...)
}

func newComposite(name string, mode CompositeMode, children []validation.Rule, opts ...Option) *CompositeRule {
	description := fmt.Sprintf("%s-composition of %d rules", mode, len(children))
	return &CompositeRule{
		meta:     newMeta(name, description, opts...),
		mode:     mode,
		children: children,
	}
}

// AppliesTo reports true when any child applies to the value.
func (r *CompositeRule) AppliesTo(value any) bool {
	if r.meta.applies != nil {
		return r.meta.AppliesTo(value)
	}
	for _, child := range r.children {
		if safeApplies(child.AppliesTo, value) {
			return true
		}
	}
	return false
}

// Execute runs every applicable child sequentially and combines the
// outcomes according to the composite's mode.
func (r *CompositeRule) Execute(ctx context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	var (
		firstFailure *validation.RuleResult
		anyPassed    bool
		executed     int
		failures     int
	)

	for _, child := range r.children {
		if !safeApplies(child.AppliesTo, value) {
			continue
		}
		executed++

		res := safeExecute(ctx, child, value, vc)
		if res.Passed {
			anyPassed = true
			if r.mode == ModeOr {
				return &validation.RuleResult{
					Passed: true,
					Metadata: map[string]any{
						"mode":    string(r.mode),
						"matched": child.Name(),
					},
				}, nil
			}
			continue
		}

		failures++
		if firstFailure == nil {
			firstFailure = res
		}
	}

	switch r.mode {
	case ModeAnd:
		if firstFailure != nil {
			// Surface the first failing child's finding.
			return &validation.RuleResult{
				Passed: false,
				Err:    firstFailure.Err,
				Metadata: map[string]any{
					"mode":     string(r.mode),
					"failures": failures,
				},
			}, nil
		}
		return validation.Pass(), nil

	default: // ModeOr
		if anyPassed || executed == 0 {
			return validation.Pass(), nil
		}
		return validation.Fail(&validation.Error{
			Code:     CodeCompositeFailure,
			Message:  fmt.Sprintf("rule %q: all %d alternatives failed", r.name, failures),
			Severity: validation.SeverityError,
			Context: map[string]any{
				"failures": failures,
			},
		}), nil
	}
}

// ConditionalRule gates an inner rule behind a predicate. When the
// predicate does not hold (or panics), the rule auto-passes and records
// skipped=true in the result metadata without invoking the inner rule.
//
// Use a ConditionalRule when a dependency's success should gate execution;
// plain dependencies are ordering constraints only.
type ConditionalRule struct {
	meta
	condition func(value any, vc *validation.Context) bool
	inner     validation.Rule
}

// NewConditionalRule creates a conditional wrapper around inner. Unless
// overridden through options, the wrapper inherits the inner rule's
// dependencies, priority, and applicability.
func NewConditionalRule(name string, condition func(any, *validation.Context) bool, inner validation.Rule, opts ...Option) *ConditionalRule {
	m := newMeta(name, fmt.Sprintf("conditional wrapper around %q", inner.Name()))
	m.deps = inner.Dependencies()
	m.priority = inner.Priority()
	for _, opt := range opts {
		opt(&m)
	}
	return &ConditionalRule{
		meta:      m,
		condition: condition,
		inner:     inner,
	}
}

// AppliesTo delegates to the inner rule unless overridden.
func (r *ConditionalRule) AppliesTo(value any) bool {
	if r.meta.applies != nil {
		return r.meta.AppliesTo(value)
	}
	return safeApplies(r.inner.AppliesTo, value)
}

// Execute evaluates the predicate and delegates to the inner rule when it
// holds.
func (r *ConditionalRule) Execute(ctx context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	if !r.conditionHolds(value, vc) {
		return &validation.RuleResult{
			Passed: true,
			Metadata: map[string]any{
				"skipped": true,
			},
		}, nil
	}
	return safeExecute(ctx, r.inner, value, vc), nil
}

func (r *ConditionalRule) conditionHolds(value any, vc *validation.Context) (holds bool) {
	defer func() {
		if recover() != nil {
			holds = false
		}
	}()
	return r.condition(value, vc)
}
