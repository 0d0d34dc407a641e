package dialect

import (
	"fmt"
	"maps"
)

var snowflakeGranularity = map[Granularity]string{
	Second:  "second",
	Minute:  "minute",
	Hour:    "hour",
	Day:     "day",
	Week:    "week",
	Month:   "month",
	Quarter: "quarter",
	Year:    "year",
}

var snowflakeTemplates = map[string]string{
	"params.param":                  ":{{ add .param_index 1 }}",
	"functions.DATETRUNC":           "date_trunc({{ .args_concat }})",
	"expressions.timestamp_literal": "{{ .value }}::timestamp_tz",
	"types.string":                  "VARCHAR",
	"types.double":                  "DOUBLE",
	"types.timestamp":               "TIMESTAMP_TZ",
}

// SnowflakeAdapter implements Adapter for Snowflake.
// Sketches travel between queries in exported form (HLL_EXPORT), so every
// consumer imports before combining or estimating.
type SnowflakeAdapter struct {
	templates Templates
}

// NewSnowflake builds the Snowflake adapter.
func NewSnowflake() (*SnowflakeAdapter, error) {
	a := &SnowflakeAdapter{}
	t, err := buildTemplates(a.Name(), snowflakeTemplates, a.ParamPlaceholder)
	if err != nil {
		return nil, err
	}
	a.templates = t
	return a, nil
}

// Name returns "snowflake".
func (a *SnowflakeAdapter) Name() string { return "snowflake" }

// ParamPlaceholder returns :1, :2, etc. for 0-based index.
func (a *SnowflakeAdapter) ParamPlaceholder(index int) string {
	return fmt.Sprintf(":%d", index+1)
}

// ConvertTimezone converts fieldExpr with CONVERT_TIMEZONE.
func (a *SnowflakeAdapter) ConvertTimezone(fieldExpr, tz string) (string, error) {
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}
	return fmt.Sprintf("CONVERT_TIMEZONE(%s, %s::timestamp_tz)", quoteLiteral(tz), fieldExpr), nil
}

// TimeGroupedColumn truncates with date_trunc.
func (a *SnowflakeAdapter) TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error) {
	part, ok := snowflakeGranularity[g]
	if !ok {
		return "", unsupportedGranularity(a.Name(), g)
	}
	return fmt.Sprintf("date_trunc('%s', %s)", part, dimensionExpr), nil
}

// ApproxDistinctInit accumulates and exports a sketch.
func (a *SnowflakeAdapter) ApproxDistinctInit(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_EXPORT(HLL_ACCUMULATE(%s))", sqlExpr), nil
}

// ApproxDistinctMerge imports, combines and re-exports sketches.
func (a *SnowflakeAdapter) ApproxDistinctMerge(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_EXPORT(HLL_COMBINE(HLL_IMPORT(%s)))", sqlExpr), nil
}

// ApproxDistinctCompute imports a sketch and estimates it.
func (a *SnowflakeAdapter) ApproxDistinctCompute(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_ESTIMATE(HLL_IMPORT(%s))", sqlExpr), nil
}

// Templates returns a copy of the Snowflake template table.
func (a *SnowflakeAdapter) Templates() Templates { return maps.Clone(a.templates) }
