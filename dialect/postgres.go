package dialect

import (
	"fmt"
	"maps"
)

// postgresGranularity maps each granularity to its date_trunc field.
var postgresGranularity = map[Granularity]string{
	Second:  "second",
	Minute:  "minute",
	Hour:    "hour",
	Day:     "day",
	Week:    "week",
	Month:   "month",
	Quarter: "quarter",
	Year:    "year",
}

var postgresTemplates = map[string]string{
	"params.param":                  "${{ add .param_index 1 }}",
	"functions.DATETRUNC":           "date_trunc({{ .args_concat }})",
	"expressions.timestamp_literal": "{{ .value }}::timestamptz",
	"types.string":                  "TEXT",
	"types.timestamp":               "TIMESTAMPTZ",
}

// PostgresAdapter implements Adapter for PostgreSQL.
// Approximate distinct counts require the postgresql-hll extension.
type PostgresAdapter struct {
	templates Templates
}

// NewPostgres builds the PostgreSQL adapter.
func NewPostgres() (*PostgresAdapter, error) {
	a := &PostgresAdapter{}
	t, err := buildTemplates(a.Name(), postgresTemplates, a.ParamPlaceholder)
	if err != nil {
		return nil, err
	}
	a.templates = t
	return a, nil
}

// Name returns "postgres".
func (a *PostgresAdapter) Name() string { return "postgres" }

// ParamPlaceholder returns $1, $2, etc. for 0-based index.
func (a *PostgresAdapter) ParamPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

// ConvertTimezone casts fieldExpr to timestamptz and shifts it with AT TIME ZONE.
func (a *PostgresAdapter) ConvertTimezone(fieldExpr, tz string) (string, error) {
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s::timestamptz AT TIME ZONE %s)", fieldExpr, quoteLiteral(tz)), nil
}

// TimeGroupedColumn truncates with date_trunc.
func (a *PostgresAdapter) TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error) {
	field, ok := postgresGranularity[g]
	if !ok {
		return "", unsupportedGranularity(a.Name(), g)
	}
	return fmt.Sprintf("date_trunc('%s', %s)", field, dimensionExpr), nil
}

// ApproxDistinctInit aggregates hashed values into an hll.
func (a *PostgresAdapter) ApproxDistinctInit(sqlExpr string) (string, error) {
	return fmt.Sprintf("hll_add_agg(hll_hash_any(%s))", sqlExpr), nil
}

// ApproxDistinctMerge unions a column of hll sketches.
func (a *PostgresAdapter) ApproxDistinctMerge(sqlExpr string) (string, error) {
	return fmt.Sprintf("hll_union_agg(%s)", sqlExpr), nil
}

// ApproxDistinctCompute rounds the hll cardinality.
func (a *PostgresAdapter) ApproxDistinctCompute(sqlExpr string) (string, error) {
	return fmt.Sprintf("round(hll_cardinality(%s))", sqlExpr), nil
}

// Templates returns a copy of the PostgreSQL template table.
func (a *PostgresAdapter) Templates() Templates { return maps.Clone(a.templates) }
