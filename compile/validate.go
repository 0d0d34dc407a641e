package compile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shipq/semsql/dialect"
	"github.com/shipq/semsql/params"
)

// identifierRegex matches valid SQL identifiers.
// Identifiers must start with a letter or underscore, followed by letters, digits, or underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a name is a valid SQL identifier.
// Valid identifiers match: ^[a-zA-Z_][a-zA-Z0-9_]*$
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must start with a letter or underscore and contain only letters, digits, and underscores", name)
	}
	return nil
}

// validateQualified checks a dot-separated name such as schema.table.
func validateQualified(name string) error {
	for _, part := range strings.Split(name, ".") {
		if err := ValidateIdentifier(part); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery checks q before any SQL is generated.
// Errors wrap ErrInvalidQuery. Dialect capabilities are not checked here.
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	if err := validateQualified(q.Table); err != nil {
		return fmt.Errorf("%w: table: %v", ErrInvalidQuery, err)
	}
	if q.TimeDimension == nil && len(q.Dimensions) == 0 && len(q.Measures) == 0 {
		return fmt.Errorf("%w: query selects nothing", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, q.Limit)
	}

	aliases := make(map[string]bool)
	claim := func(alias string) error {
		if err := ValidateIdentifier(alias); err != nil {
			return fmt.Errorf("%w: alias: %v", ErrInvalidQuery, err)
		}
		if aliases[alias] {
			return fmt.Errorf("%w: duplicate alias %q", ErrInvalidQuery, alias)
		}
		aliases[alias] = true
		return nil
	}

	if td := q.TimeDimension; td != nil {
		if err := validateExpr("time dimension", td.Expr); err != nil {
			return err
		}
		if td.Timezone != "" {
			if err := dialect.ValidateTimezone(td.Timezone); err != nil {
				return fmt.Errorf("%w: time dimension: %w", ErrInvalidQuery, err)
			}
		}
		if err := claim(timeAlias(td)); err != nil {
			return err
		}
	}

	for _, d := range q.Dimensions {
		if err := validateQualified(d); err != nil {
			return fmt.Errorf("%w: dimension: %v", ErrInvalidQuery, err)
		}
		if err := claim(dimensionAlias(d)); err != nil {
			return err
		}
	}

	for _, m := range q.Measures {
		if err := validateMeasure(m); err != nil {
			return err
		}
		if err := claim(m.Alias); err != nil {
			return err
		}
	}

	for _, f := range q.Filters {
		if err := validateFilter(f); err != nil {
			return err
		}
	}
	return nil
}

func validateMeasure(m Measure) error {
	switch m.Kind {
	case MeasureCount:
		if m.Expr == "" {
			return nil
		}
	case MeasureSum, MeasureCountDistinctApprox, MeasureSketchInit, MeasureSketchMerge, MeasureSketchCount:
	default:
		return fmt.Errorf("%w: unknown measure kind %q", ErrInvalidQuery, m.Kind)
	}
	return validateExpr(fmt.Sprintf("measure %q", m.Alias), m.Expr)
}

func validateFilter(f Filter) error {
	if err := validateExpr("filter", f.Expr); err != nil {
		return err
	}

	want := 1
	switch f.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	case OpIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: filter on %s: in requires at least one value", ErrInvalidQuery, f.Expr)
		}
		return nil
	case OpBetween:
		want = 2
	default:
		return fmt.Errorf("%w: unknown filter op %q", ErrInvalidQuery, f.Op)
	}

	if len(f.Values) != want {
		return fmt.Errorf("%w: filter on %s: %s takes %d value(s), got %d", ErrInvalidQuery, f.Expr, f.Op, want, len(f.Values))
	}
	return nil
}

// validateExpr rejects empty expressions and ones that already contain a
// parameter marker, which would be rewritten as a bind.
func validateExpr(what, expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w: %s expression is empty", ErrInvalidQuery, what)
	}
	if params.ContainsMarker(expr) {
		return fmt.Errorf("%w: %s expression %q contains a parameter marker", ErrInvalidQuery, what, expr)
	}
	return nil
}

func timeAlias(td *TimeDimension) string {
	if td.Alias != "" {
		return td.Alias
	}
	return string(td.Granularity)
}

func dimensionAlias(d string) string {
	return d[strings.LastIndex(d, ".")+1:]
}
