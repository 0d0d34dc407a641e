package dialect

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"
)

// Templates maps a template name ("params.param", "functions.DATETRUNC") to a
// text/template snippet rendered by the templating engine in contexts where
// positional binding is not available.
type Templates map[string]string

// RequiredTemplates lists the entries every dialect must resolve, either from
// DefaultTemplates or from its own overrides.
// expressions.timestamp_literal has no default.
var RequiredTemplates = []string{
	"params.param",
	"quotes.identifiers",
	"quotes.escape",
	"expressions.column_aliased",
	"expressions.timestamp_literal",
	"statements.select",
}

// funcMap is available to every snippet.
var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// DefaultTemplates returns a fresh copy of the base table every dialect
// starts from.
func DefaultTemplates() Templates {
	return Templates{
		"params.param": "?",

		"quotes.identifiers": `"`,
		"quotes.escape":      `""`,

		"functions.SUM":            "SUM({{ .args_concat }})",
		"functions.MIN":            "MIN({{ .args_concat }})",
		"functions.MAX":            "MAX({{ .args_concat }})",
		"functions.AVG":            "AVG({{ .args_concat }})",
		"functions.COUNT":          "COUNT({{ .args_concat }})",
		"functions.COUNT_DISTINCT": "COUNT(DISTINCT {{ .args_concat }})",
		"functions.COALESCE":       "COALESCE({{ .args_concat }})",
		"functions.LOWER":          "LOWER({{ .args_concat }})",
		"functions.UPPER":          "UPPER({{ .args_concat }})",

		"expressions.column_aliased": "{{ .expr }} {{ .quoted_alias }}",
		"expressions.binary":         "({{ .left }} {{ .op }} {{ .right }})",
		"expressions.cast":           "CAST({{ .expr }} AS {{ .data_type }})",
		"expressions.not":            "NOT ({{ .expr }})",
		"expressions.is_null":        "({{ .expr }} IS {{ if .negate }}NOT {{ end }}NULL)",
		"expressions.in_list":        "{{ .expr }} {{ if .negated }}NOT {{ end }}IN ({{ .in_exprs_concat }})",
		"expressions.true":           "TRUE",
		"expressions.false":          "FALSE",

		"statements.select": "SELECT {{ .select_concat }} FROM {{ .from }}" +
			"{{ if .filter }} WHERE {{ .filter }}{{ end }}" +
			"{{ if .group_by }} GROUP BY {{ .group_by }}{{ end }}" +
			"{{ if .order_by }} ORDER BY {{ .order_by }}{{ end }}" +
			"{{ if .limit }} LIMIT {{ .limit }}{{ end }}",

		"join_types.inner": "INNER",
		"join_types.left":  "LEFT",

		"types.string":    "TEXT",
		"types.boolean":   "BOOLEAN",
		"types.integer":   "INTEGER",
		"types.double":    "DOUBLE PRECISION",
		"types.timestamp": "TIMESTAMP",
	}
}

// Layer returns base with overrides applied on top. Neither input is mutated.
func Layer(base Templates, overrides map[string]string) Templates {
	out := maps.Clone(base)
	if out == nil {
		out = Templates{}
	}
	maps.Copy(out, overrides)
	return out
}

// NewTemplates layers overrides on DefaultTemplates and validates the result:
// every entry must parse and every RequiredTemplates entry must be present.
func NewTemplates(overrides map[string]string) (Templates, error) {
	t := Layer(DefaultTemplates(), overrides)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks required entries and that each snippet parses.
func (t Templates) Validate() error {
	for _, name := range RequiredTemplates {
		if _, ok := t[name]; !ok {
			return fmt.Errorf("%w: required template %q has no default and no override", ErrUnsupportedDialectFeature, name)
		}
	}
	for _, name := range t.Names() {
		if _, err := parse(name, t[name]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the snippet for name.
func (t Templates) Get(name string) (string, error) {
	s, ok := t[name]
	if !ok {
		return "", fmt.Errorf("%w: no template %q", ErrUnsupportedDialectFeature, name)
	}
	return s, nil
}

// Names returns the template names in sorted order.
func (t Templates) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

// Render executes the named snippet with vars.
// Variables are referenced as {{ .name }}; add is available for arithmetic,
// e.g. ${{ add .param_index 1 }}.
func Render(t Templates, name string, vars map[string]any) (string, error) {
	s, err := t.Get(name)
	if err != nil {
		return "", err
	}
	tmpl, err := parse(name, s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return b.String(), nil
}

// RenderParam renders params.param for a 0-based index.
func RenderParam(t Templates, index int) (string, error) {
	return Render(t, "params.param", map[string]any{"param_index": index})
}

func parse(name, snippet string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(funcMap).Parse(snippet)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, name, err)
	}
	return tmpl, nil
}

// alignmentProbes is the number of indices checked by checkParamAlignment.
const alignmentProbes = 4

// checkParamAlignment verifies that params.param renders the same marker as
// placeholder for the first few indices, so named and positional binding
// agree on every logical parameter position.
func checkParamAlignment(dialect string, t Templates, placeholder func(int) string) error {
	for i := 0; i < alignmentProbes; i++ {
		rendered, err := RenderParam(t, i)
		if err != nil {
			return err
		}
		if want := placeholder(i); rendered != want {
			return fmt.Errorf("%w: %s params.param renders %q for index %d, placeholder is %q",
				ErrInvalidTemplate, dialect, rendered, i, want)
		}
	}
	return nil
}

// buildTemplates layers overrides on the defaults, validates them and checks
// placeholder alignment. Adapters call it once at construction.
func buildTemplates(dialect string, overrides map[string]string, placeholder func(int) string) (Templates, error) {
	t, err := NewTemplates(overrides)
	if err != nil {
		return nil, fmt.Errorf("%s templates: %w", dialect, err)
	}
	if err := checkParamAlignment(dialect, t, placeholder); err != nil {
		return nil, err
	}
	return t, nil
}
