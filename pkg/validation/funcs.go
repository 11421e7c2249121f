package validation

import "context"

// FuncValidator adapts plain functions into the Validator capability. It
// is the quickest way to register a coarse-grained check without defining
// a dedicated type.
type FuncValidator struct {
	// ValidatorName is the unique registry name.
	ValidatorName string

	// Cfg is the configuration snapshot returned by Config.
	Cfg ValidatorConfig

	// Deps lists validator names that must complete first.
	Deps []string

	// SchemaMeta is returned by Schema. A "version" key participates in
	// cache keys.
	SchemaMeta map[string]any

	// CanFn reports applicability; nil means the validator accepts every
	// value.
	CanFn func(value any) bool

	// Fn performs the validation.
	Fn func(ctx context.Context, value any, vc *Context) (*Result, error)
}

func (v *FuncValidator) Name() string            { return v.ValidatorName }
func (v *FuncValidator) Config() ValidatorConfig { return v.Cfg }
func (v *FuncValidator) Dependencies() []string  { return v.Deps }

func (v *FuncValidator) CanValidate(value any) bool {
	if v.CanFn == nil {
		return true
	}
	return v.CanFn(value)
}

func (v *FuncValidator) Validate(ctx context.Context, value any, vc *Context) (*Result, error) {
	return v.Fn(ctx, value, vc)
}

func (v *FuncValidator) Schema() map[string]any {
	if v.SchemaMeta == nil {
		return map[string]any{"name": v.ValidatorName}
	}
	return v.SchemaMeta
}
