package rules

import (
	"context"
	"fmt"
	"math"

	"chemlab-hq/callisto/pkg/validation"
)

// RangeRule checks that a numeric value lies within [min, max]. It applies
// only to finite numbers; any other value is out of scope, not a failure.
type RangeRule struct {
	meta
	min       float64
	max       float64
	inclusive bool
}

// NewRangeRule creates a range check over [min, max]. With inclusive false
// the bounds themselves are rejected.
func NewRangeRule(name string, min, max float64, inclusive bool, opts ...Option) *RangeRule {
	return &RangeRule{
		meta:      newMeta(name, fmt.Sprintf("numeric range check [%v, %v]", min, max), opts...),
		min:       min,
		max:       max,
		inclusive: inclusive,
	}
}

// AppliesTo reports true only for finite numeric values.
func (r *RangeRule) AppliesTo(value any) bool {
	if r.meta.applies != nil {
		return r.meta.AppliesTo(value)
	}
	_, ok := toFloat(value)
	return ok
}

// Execute checks the bounds.
func (r *RangeRule) Execute(_ context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	num, ok := toFloat(value)
	if !ok {
		return validation.Fail(&validation.Error{
			Code:     CodeValueOutOfRange,
			Message:  fmt.Sprintf("rule %q: value %v is not a finite number", r.name, value),
			Path:     pathOf(vc),
			Severity: validation.SeverityError,
			Value:    value,
		}), nil
	}

	within := num >= r.min && num <= r.max
	if !r.inclusive {
		within = num > r.min && num < r.max
	}
	if within {
		return validation.Pass(), nil
	}

	bounds := "inclusive"
	if !r.inclusive {
		bounds = "exclusive"
	}
	return validation.Fail(&validation.Error{
		Code:     CodeValueOutOfRange,
		Message:  fmt.Sprintf("rule %q: value %v outside %s range [%v, %v]", r.name, num, bounds, r.min, r.max),
		Path:     pathOf(vc),
		Severity: validation.SeverityError,
		Value:    value,
		Suggestions: []string{
			fmt.Sprintf("provide a value between %v and %v", r.min, r.max),
		},
	}), nil
}

// toFloat widens any numeric Go value to float64, rejecting NaN and
// infinities.
func toFloat(value any) (float64, bool) {
	var num float64
	switch v := value.(type) {
	case int:
		num = float64(v)
	case int8:
		num = float64(v)
	case int16:
		num = float64(v)
	case int32:
		num = float64(v)
	case int64:
		num = float64(v)
	case uint:
		num = float64(v)
	case uint8:
		num = float64(v)
	case uint16:
		num = float64(v)
	case uint32:
		num = float64(v)
	case uint64:
		num = float64(v)
	case float32:
		num = float64(v)
	case float64:
		num = v
	default:
		return 0, false
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

func pathOf(vc *validation.Context) []string {
	if vc == nil {
		return nil
	}
	return vc.Path
}
