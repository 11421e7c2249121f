package rules

import (
	"context"
	"fmt"
	"regexp"

	"chemlab-hq/callisto/pkg/validation"
)

// PatternRule checks that a string matches a regular expression. It
// applies only to strings.
type PatternRule struct {
	meta
	pattern *regexp.Regexp
	label   string
}

// NewPatternRule creates a pattern check. The label names the pattern in
// failure messages (e.g. "chemical formula").
func NewPatternRule(name string, pattern *regexp.Regexp, label string, opts ...Option) *PatternRule {
	return &PatternRule{
		meta:    newMeta(name, fmt.Sprintf("pattern check for %s", label), opts...),
		pattern: pattern,
		label:   label,
	}
}

// AppliesTo reports true only for strings.
func (r *PatternRule) AppliesTo(value any) bool {
	if r.meta.applies != nil {
		return r.meta.AppliesTo(value)
	}
	_, ok := value.(string)
	return ok
}

// Execute matches the value against the pattern.
func (r *PatternRule) Execute(_ context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	s, ok := value.(string)
	if !ok {
		return validation.Fail(&validation.Error{
			Code:     CodePatternMismatch,
			Message:  fmt.Sprintf("rule %q: value is not a string", r.name),
			Path:     pathOf(vc),
			Severity: validation.SeverityError,
			Value:    value,
		}), nil
	}

	if r.pattern.MatchString(s) {
		return validation.Pass(), nil
	}

	return validation.Fail(&validation.Error{
		Code:     CodePatternMismatch,
		Message:  fmt.Sprintf("rule %q: value does not match %s pattern", r.name, r.label),
		Path:     pathOf(vc),
		Severity: validation.SeverityError,
		Value:    s,
		Suggestions: []string{
			fmt.Sprintf("expected a string matching %s (%s)", r.label, r.pattern.String()),
		},
	}), nil
}
