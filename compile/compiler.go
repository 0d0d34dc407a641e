package compile

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shipq/semsql/dialect"
	"github.com/shipq/semsql/logging"
	"github.com/shipq/semsql/params"
)

// Compiler compiles semantic queries to SQL for a specific dialect.
// A Compiler can be reused; every Compile call owns a fresh allocator.
type Compiler struct {
	adapter  dialect.Adapter
	logger   *slog.Logger
	timezone string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger compile passes report to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithDefaultTimezone sets the zone a time dimension is converted to when it
// names none. An empty tz leaves such dimensions unconverted. A malformed tz
// makes Compile fail with dialect.ErrInvalidTimezone.
func WithDefaultTimezone(tz string) Option {
	return func(c *Compiler) { c.timezone = tz }
}

// NewCompiler creates a new compiler for the given dialect adapter.
func NewCompiler(a dialect.Adapter, opts ...Option) *Compiler {
	c := &Compiler{adapter: a}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pass is the state of one Compile call.
type pass struct {
	adapter   dialect.Adapter
	templates dialect.Templates
	alloc     *params.Allocator
	timezone  string
}

// Compile compiles q to SQL.
// On error no partial SQL or parameters are returned. Adapter errors are
// wrapped with context only, so errors.Is matches the dialect sentinel.
func (c *Compiler) Compile(q *Query) (Result, error) {
	log := logging.ForCompile(c.logger, c.adapter.Name())

	if err := ValidateQuery(q); err != nil {
		log.Debug("compile_failed", "error", err)
		return Result{}, err
	}
	if c.timezone != "" {
		if err := dialect.ValidateTimezone(c.timezone); err != nil {
			err = fmt.Errorf("default timezone: %w", err)
			log.Debug("compile_failed", "error", err)
			return Result{}, err
		}
	}
	log.Debug("compile_started",
		"table", q.Table,
		"dimensions", len(q.Dimensions),
		"measures", len(q.Measures),
		"filters", len(q.Filters),
	)

	p := &pass{
		adapter:   c.adapter,
		templates: c.adapter.Templates(),
		alloc:     params.New(),
		timezone:  c.timezone,
	}

	annotated, err := p.compileSelect(q)
	if err != nil {
		log.Debug("compile_failed", "error", err)
		return Result{}, err
	}

	sql, bound, err := p.alloc.Build(annotated, c.adapter)
	if err != nil {
		log.Debug("compile_failed", "error", err)
		return Result{}, err
	}

	log.Debug("compile_finished",
		"params", len(bound),
		"sql_bytes", len(sql),
	)
	return Result{SQL: sql, Params: bound}, nil
}

// =============================================================================
// SELECT Compilation
// =============================================================================

func (p *pass) compileSelect(q *Query) (string, error) {
	var columns []string
	var groupBy []string

	if td := q.TimeDimension; td != nil {
		expr, err := p.timeDimension(td)
		if err != nil {
			return "", err
		}
		col, err := p.aliased(expr, timeAlias(td))
		if err != nil {
			return "", err
		}
		columns = append(columns, col)
		groupBy = append(groupBy, strconv.Itoa(len(columns)))
	}

	for _, d := range q.Dimensions {
		col, err := p.aliased(p.qualified(d), dimensionAlias(d))
		if err != nil {
			return "", err
		}
		columns = append(columns, col)
		groupBy = append(groupBy, strconv.Itoa(len(columns)))
	}

	for _, m := range q.Measures {
		expr, err := p.measure(m)
		if err != nil {
			return "", fmt.Errorf("measure %q: %w", m.Alias, err)
		}
		col, err := p.aliased(expr, m.Alias)
		if err != nil {
			return "", err
		}
		columns = append(columns, col)
	}

	var filters []string
	for _, f := range q.Filters {
		expr, err := p.filter(f)
		if err != nil {
			return "", fmt.Errorf("filter on %s: %w", f.Expr, err)
		}
		filters = append(filters, expr)
	}

	vars := map[string]any{
		"select_concat": strings.Join(columns, ", "),
		"from":          p.qualified(q.Table),
		"filter":        strings.Join(filters, " AND "),
		"group_by":      "",
		"order_by":      "",
		"limit":         "",
	}
	// Only aggregate queries group.
	if len(q.Measures) > 0 {
		vars["group_by"] = strings.Join(groupBy, ", ")
	}
	if q.TimeDimension != nil {
		vars["order_by"] = "1"
	}
	if q.Limit > 0 {
		vars["limit"] = strconv.Itoa(q.Limit)
	}

	return dialect.Render(p.templates, "statements.select", vars)
}

func (p *pass) timeDimension(td *TimeDimension) (string, error) {
	expr := td.Expr
	tz := td.Timezone
	if tz == "" {
		tz = p.timezone
	}
	if tz != "" {
		converted, err := p.adapter.ConvertTimezone(expr, tz)
		if err != nil {
			return "", fmt.Errorf("time dimension: %w", err)
		}
		expr = converted
	}
	grouped, err := p.adapter.TimeGroupedColumn(td.Granularity, expr)
	if err != nil {
		return "", fmt.Errorf("time dimension: %w", err)
	}
	return grouped, nil
}

func (p *pass) measure(m Measure) (string, error) {
	switch m.Kind {
	case MeasureCount:
		arg := m.Expr
		if arg == "" {
			arg = "*"
		}
		return p.function("COUNT", arg)
	case MeasureSum:
		return p.function("SUM", m.Expr)
	case MeasureCountDistinctApprox:
		return dialect.CountDistinctApprox(p.adapter, m.Expr)
	case MeasureSketchInit:
		return p.adapter.ApproxDistinctInit(m.Expr)
	case MeasureSketchMerge:
		return p.adapter.ApproxDistinctMerge(m.Expr)
	case MeasureSketchCount:
		merged, err := p.adapter.ApproxDistinctMerge(m.Expr)
		if err != nil {
			return "", err
		}
		return p.adapter.ApproxDistinctCompute(merged)
	default:
		return "", fmt.Errorf("%w: unknown measure kind %q", ErrInvalidQuery, m.Kind)
	}
}

func (p *pass) filter(f Filter) (string, error) {
	switch f.Op {
	case OpIn:
		markers := make([]string, len(f.Values))
		for i, v := range f.Values {
			markers[i] = p.alloc.AllocateMarker(v)
		}
		return dialect.Render(p.templates, "expressions.in_list", map[string]any{
			"expr":            f.Expr,
			"negated":         false,
			"in_exprs_concat": strings.Join(markers, ", "),
		})
	case OpBetween:
		low := p.alloc.AllocateMarker(f.Values[0])
		high := p.alloc.AllocateMarker(f.Values[1])
		return fmt.Sprintf("(%s BETWEEN %s AND %s)", f.Expr, low, high), nil
	default:
		return dialect.Render(p.templates, "expressions.binary", map[string]any{
			"left":  f.Expr,
			"op":    string(f.Op),
			"right": p.alloc.AllocateMarker(f.Values[0]),
		})
	}
}

func (p *pass) function(name, args string) (string, error) {
	return dialect.Render(p.templates, "functions."+name, map[string]any{"args_concat": args})
}

func (p *pass) aliased(expr, alias string) (string, error) {
	return dialect.Render(p.templates, "expressions.column_aliased", map[string]any{
		"expr":         expr,
		"quoted_alias": p.quote(alias),
	})
}

// quote wraps an identifier in the dialect's quote character, escaping
// embedded quotes.
func (p *pass) quote(name string) string {
	q := p.templates["quotes.identifiers"]
	esc := p.templates["quotes.escape"]
	return q + strings.ReplaceAll(name, q, esc) + q
}

// qualified quotes each part of a dotted name.
func (p *pass) qualified(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = p.quote(part)
	}
	return strings.Join(parts, ".")
}
