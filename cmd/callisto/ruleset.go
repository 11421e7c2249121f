package main

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"chemlab-hq/callisto/pkg/rules"
	"chemlab-hq/callisto/pkg/validation"
)

// ruleset is the YAML file format consumed by the validate and rules
// commands.
//
//	rules:
//	  - name: formulaFormat
//	    type: pattern
//	    field: formula
//	    pattern: "^([A-Z][a-z]?\\d*)+$"
//	    label: chemical formula
//	  - name: molecularWeight
//	    type: range
//	    field: molecularWeight
//	    min: 0
//	    max: 10000
//	    inclusive: true
//	    dependencies: [formulaFormat]
//
// Composite rules reference other entries by name; a referenced entry is
// folded into its parent and not registered on its own.
type ruleset struct {
	Rules []ruleDef `yaml:"rules"`
}

type ruleDef struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Field        string   `yaml:"field"`
	Dependencies []string `yaml:"dependencies"`
	Priority     int      `yaml:"priority"`
	Cacheable    bool     `yaml:"cacheable"`

	// range
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Inclusive bool    `yaml:"inclusive"`

	// pattern
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`

	// all / any
	Children []string `yaml:"rules"`

	// conditional
	When *condition `yaml:"when"`
	Rule string     `yaml:"rule"`
}

type condition struct {
	Field  string `yaml:"field"`
	Equals any    `yaml:"equals"`
}

// loadRuleset parses a ruleset file and builds the rules to register, in
// declaration order. Entries consumed by composites are excluded.
func loadRuleset(path string) ([]validation.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset: %w", err)
	}

	var rs ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("ruleset %s declares no rules", path)
	}

	built := make(map[string]validation.Rule, len(rs.Rules))
	consumed := make(map[string]bool)

	for _, def := range rs.Rules {
		rule, children, err := buildRule(def, built)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", def.Name, err)
		}
		built[def.Name] = rule
		for _, child := range children {
			consumed[child] = true
		}
	}

	out := make([]validation.Rule, 0, len(rs.Rules))
	for _, def := range rs.Rules {
		if !consumed[def.Name] {
			out = append(out, built[def.Name])
		}
	}
	return out, nil
}

// buildRule constructs one rule from its definition. Composite and
// conditional types resolve children among previously declared entries and
// report which entries they consumed.
func buildRule(def ruleDef, built map[string]validation.Rule) (validation.Rule, []string, error) {
	if def.Name == "" {
		return nil, nil, fmt.Errorf("missing name")
	}

	// Only declared metadata becomes options, so composite and conditional
	// wrappers keep inheriting from their children when the entry is silent.
	var opts []rules.Option
	if len(def.Dependencies) > 0 {
		opts = append(opts, rules.WithDependencies(def.Dependencies...))
	}
	if def.Priority != 0 {
		opts = append(opts, rules.WithPriority(def.Priority))
	}
	if def.Cacheable {
		opts = append(opts, rules.WithCacheable(true))
	}

	var rule validation.Rule
	var consumed []string

	switch def.Type {
	case "range":
		rule = rules.NewRangeRule(def.Name, def.Min, def.Max, def.Inclusive, opts...)

	case "pattern":
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid pattern: %w", err)
		}
		rule = rules.NewPatternRule(def.Name, re, def.Label, opts...)

	case "all", "any":
		children, err := resolveChildren(def.Children, built)
		if err != nil {
			return nil, nil, err
		}
		if def.Type == "all" {
			rule = rules.NewAndRule(def.Name, children, opts...)
		} else {
			rule = rules.NewOrRule(def.Name, children, opts...)
		}
		consumed = def.Children

	case "conditional":
		if def.When == nil || def.Rule == "" {
			return nil, nil, fmt.Errorf("conditional requires when and rule")
		}
		inner, ok := built[def.Rule]
		if !ok {
			return nil, nil, fmt.Errorf("references undeclared rule %q", def.Rule)
		}
		when := *def.When
		rule = rules.NewConditionalRule(def.Name, func(value any, vc *validation.Context) bool {
			doc, ok := documentOf(value, vc)
			if !ok {
				return false
			}
			return doc[when.Field] == when.Equals
		}, inner, opts...)
		consumed = []string{def.Rule}

	default:
		return nil, nil, fmt.Errorf("unknown type %q", def.Type)
	}

	if def.Field != "" {
		rule = &fieldRule{Rule: rule, field: def.Field}
	}
	return rule, consumed, nil
}

// documentOf finds the document a condition inspects: the value itself, or
// the run's root when a field wrapper already narrowed the value.
func documentOf(value any, vc *validation.Context) (map[string]any, bool) {
	if doc, ok := value.(map[string]any); ok {
		return doc, true
	}
	if vc != nil {
		doc, ok := vc.Root.(map[string]any)
		return doc, ok
	}
	return nil, false
}

func resolveChildren(names []string, built map[string]validation.Rule) ([]validation.Rule, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("composite declares no children")
	}
	children := make([]validation.Rule, 0, len(names))
	for _, name := range names {
		child, ok := built[name]
		if !ok {
			return nil, fmt.Errorf("references undeclared rule %q", name)
		}
		children = append(children, child)
	}
	return children, nil
}

// fieldRule applies the wrapped rule to one property of a document instead
// of the document itself.
type fieldRule struct {
	validation.Rule
	field string
}

func (r *fieldRule) AppliesTo(value any) bool {
	doc, ok := value.(map[string]any)
	if !ok {
		return false
	}
	inner, ok := doc[r.field]
	return ok && r.Rule.AppliesTo(inner)
}

func (r *fieldRule) Execute(ctx context.Context, value any, vc *validation.Context) (*validation.RuleResult, error) {
	doc, ok := value.(map[string]any)
	if !ok {
		return validation.Pass(), nil
	}
	return r.Rule.Execute(ctx, doc[r.field], vc.Child(r.field))
}
