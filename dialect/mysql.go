package dialect

import (
	"fmt"
	"maps"
)

// mysqlFormats maps granularities that truncate by formatting to their
// DATE_FORMAT pattern. Week and quarter are computed from a fixed Monday epoch.
var mysqlFormats = map[Granularity]string{
	Second: "%Y-%m-%dT%H:%i:%S.000",
	Minute: "%Y-%m-%dT%H:%i:00.000",
	Hour:   "%Y-%m-%dT%H:00:00.000",
	Day:    "%Y-%m-%dT00:00:00.000",
	Month:  "%Y-%m-01T00:00:00.000",
	Year:   "%Y-01-01T00:00:00.000",
}

// mysqlEpoch is a Monday; week buckets are counted from it.
const mysqlEpoch = "'1900-01-01'"

var mysqlTemplates = map[string]string{
	"quotes.identifiers":            "`",
	"quotes.escape":                 "``",
	"expressions.timestamp_literal": "TIMESTAMP({{ .value }})",
	"types.string":                  "CHAR",
	"types.double":                  "DOUBLE",
	"types.timestamp":               "DATETIME",
}

// MySQLAdapter implements Adapter for MySQL.
// MySQL has no mergeable cardinality sketch, so the approximate-distinct
// capabilities fail with ErrUnsupportedDialectFeature.
type MySQLAdapter struct {
	templates Templates
}

// NewMySQL builds the MySQL adapter.
func NewMySQL() (*MySQLAdapter, error) {
	a := &MySQLAdapter{}
	t, err := buildTemplates(a.Name(), mysqlTemplates, a.ParamPlaceholder)
	if err != nil {
		return nil, err
	}
	a.templates = t
	return a, nil
}

// Name returns "mysql".
func (a *MySQLAdapter) Name() string { return "mysql" }

// ParamPlaceholder returns ? for every index.
func (a *MySQLAdapter) ParamPlaceholder(index int) string {
	return "?"
}

// ConvertTimezone shifts fieldExpr from the session zone with CONVERT_TZ.
// Named zones require the MySQL time zone tables to be loaded.
func (a *MySQLAdapter) ConvertTimezone(fieldExpr, tz string) (string, error) {
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}
	return fmt.Sprintf("CONVERT_TZ(%s, @@session.time_zone, %s)", fieldExpr, quoteBackslashLiteral(tz)), nil
}

// TimeGroupedColumn truncates by formatting and casts back to DATETIME.
func (a *MySQLAdapter) TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error) {
	var truncated string
	switch g {
	case Week:
		truncated = fmt.Sprintf("DATE_FORMAT(DATE_ADD(%s, INTERVAL TIMESTAMPDIFF(WEEK, %s, %s) WEEK), '%s')",
			mysqlEpoch, mysqlEpoch, dimensionExpr, mysqlFormats[Day])
	case Quarter:
		truncated = fmt.Sprintf("DATE_ADD(%s, INTERVAL TIMESTAMPDIFF(QUARTER, %s, %s) QUARTER)",
			mysqlEpoch, mysqlEpoch, dimensionExpr)
	default:
		format, ok := mysqlFormats[g]
		if !ok {
			return "", unsupportedGranularity(a.Name(), g)
		}
		truncated = fmt.Sprintf("DATE_FORMAT(%s, '%s')", dimensionExpr, format)
	}
	return fmt.Sprintf("CAST(%s AS DATETIME)", truncated), nil
}

// ApproxDistinctInit always fails with ErrUnsupportedDialectFeature.
func (a *MySQLAdapter) ApproxDistinctInit(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// ApproxDistinctMerge always fails with ErrUnsupportedDialectFeature.
func (a *MySQLAdapter) ApproxDistinctMerge(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// ApproxDistinctCompute always fails with ErrUnsupportedDialectFeature.
func (a *MySQLAdapter) ApproxDistinctCompute(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// Templates returns a copy of the MySQL template table.
func (a *MySQLAdapter) Templates() Templates { return maps.Clone(a.templates) }
