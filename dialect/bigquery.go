package dialect

import (
	"fmt"
	"maps"
)

// bigqueryGranularity maps each granularity to its DATETIME_TRUNC part.
// Weeks start on Monday, matching the other dialects.
var bigqueryGranularity = map[Granularity]string{
	Second:  "SECOND",
	Minute:  "MINUTE",
	Hour:    "HOUR",
	Day:     "DAY",
	Week:    "WEEK(MONDAY)",
	Month:   "MONTH",
	Quarter: "QUARTER",
	Year:    "YEAR",
}

var bigqueryTemplates = map[string]string{
	"quotes.identifiers":            "`",
	"quotes.escape":                 "\\`",
	"functions.DATETRUNC":           "DATETIME_TRUNC({{ .args_concat }})",
	"expressions.timestamp_literal": "TIMESTAMP({{ .value }})",
	"types.string":                  "STRING",
	"types.integer":                 "INT64",
	"types.double":                  "FLOAT64",
}

// BigQueryAdapter implements Adapter for Google BigQuery.
// Sketches use the HLL_COUNT family, whose intermediate form is BYTES.
type BigQueryAdapter struct {
	templates Templates
}

// NewBigQuery builds the BigQuery adapter.
func NewBigQuery() (*BigQueryAdapter, error) {
	a := &BigQueryAdapter{}
	t, err := buildTemplates(a.Name(), bigqueryTemplates, a.ParamPlaceholder)
	if err != nil {
		return nil, err
	}
	a.templates = t
	return a, nil
}

// Name returns "bigquery".
func (a *BigQueryAdapter) Name() string { return "bigquery" }

// ParamPlaceholder returns ? for every index.
func (a *BigQueryAdapter) ParamPlaceholder(index int) string {
	return "?"
}

// ConvertTimezone converts fieldExpr to a civil DATETIME in tz.
func (a *BigQueryAdapter) ConvertTimezone(fieldExpr, tz string) (string, error) {
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}
	return fmt.Sprintf("DATETIME(%s, %s)", fieldExpr, quoteBackslashLiteral(tz)), nil
}

// TimeGroupedColumn truncates with DATETIME_TRUNC.
func (a *BigQueryAdapter) TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error) {
	part, ok := bigqueryGranularity[g]
	if !ok {
		return "", unsupportedGranularity(a.Name(), g)
	}
	return fmt.Sprintf("DATETIME_TRUNC(%s, %s)", dimensionExpr, part), nil
}

// ApproxDistinctInit builds a sketch with HLL_COUNT.INIT.
func (a *BigQueryAdapter) ApproxDistinctInit(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_COUNT.INIT(%s)", sqlExpr), nil
}

// ApproxDistinctMerge merges sketches with HLL_COUNT.MERGE_PARTIAL.
func (a *BigQueryAdapter) ApproxDistinctMerge(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_COUNT.MERGE_PARTIAL(%s)", sqlExpr), nil
}

// ApproxDistinctCompute extracts the estimate with HLL_COUNT.EXTRACT.
func (a *BigQueryAdapter) ApproxDistinctCompute(sqlExpr string) (string, error) {
	return fmt.Sprintf("HLL_COUNT.EXTRACT(%s)", sqlExpr), nil
}

// Templates returns a copy of the BigQuery template table.
func (a *BigQueryAdapter) Templates() Templates { return maps.Clone(a.templates) }
