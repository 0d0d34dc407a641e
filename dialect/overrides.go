package dialect

import (
	"fmt"
	"maps"
)

// overridden layers an extra template table over an adapter, leaving every
// other capability untouched.
type overridden struct {
	Adapter
	templates Templates
}

// Templates returns a copy of the layered table.
func (o *overridden) Templates() Templates { return maps.Clone(o.templates) }

// WithTemplateOverrides returns an adapter whose template table is a's table
// with overrides layered on top. The result is validated eagerly, including
// agreement between params.param and ParamPlaceholder.
func WithTemplateOverrides(a Adapter, overrides map[string]string) (Adapter, error) {
	if len(overrides) == 0 {
		return a, nil
	}
	t := Layer(a.Templates(), overrides)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s template overrides: %w", a.Name(), err)
	}
	if err := checkParamAlignment(a.Name(), t, a.ParamPlaceholder); err != nil {
		return nil, err
	}
	return &overridden{Adapter: a, templates: t}, nil
}
