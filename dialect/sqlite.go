package dialect

import (
	"fmt"
	"maps"
	"strings"
)

// sqliteFormats maps granularities that truncate by formatting to their
// strftime pattern.
var sqliteFormats = map[Granularity]string{
	Second: "%Y-%m-%dT%H:%M:%S.000",
	Minute: "%Y-%m-%dT%H:%M:00.000",
	Hour:   "%Y-%m-%dT%H:00:00.000",
	Day:    "%Y-%m-%dT00:00:00.000",
	Month:  "%Y-%m-01T00:00:00.000",
	Year:   "%Y-01-01T00:00:00.000",
}

// sqliteUTCNames are the timezone names SQLite can express. SQLite stores
// naive timestamps and has no zone database.
var sqliteUTCNames = map[string]bool{
	"utc":     true,
	"etc/utc": true,
	"gmt":     true,
	"z":       true,
	"+00:00":  true,
}

var sqliteTemplates = map[string]string{
	"params.param":                  "?{{ add .param_index 1 }}",
	"expressions.timestamp_literal": "datetime({{ .value }})",
	"expressions.true":              "1",
	"expressions.false":             "0",
	"types.double":                  "REAL",
}

// SQLiteAdapter implements Adapter for SQLite.
// Placeholders use the numbered ?NNN form so each index is distinct.
type SQLiteAdapter struct {
	templates Templates
}

// NewSQLite builds the SQLite adapter.
func NewSQLite() (*SQLiteAdapter, error) {
	a := &SQLiteAdapter{}
	t, err := buildTemplates(a.Name(), sqliteTemplates, a.ParamPlaceholder)
	if err != nil {
		return nil, err
	}
	a.templates = t
	return a, nil
}

// Name returns "sqlite".
func (a *SQLiteAdapter) Name() string { return "sqlite" }

// ParamPlaceholder returns ?1, ?2, etc. for 0-based index.
func (a *SQLiteAdapter) ParamPlaceholder(index int) string {
	return fmt.Sprintf("?%d", index+1)
}

// ConvertTimezone normalizes fieldExpr with datetime. Only UTC aliases are
// supported since SQLite has no zone database.
func (a *SQLiteAdapter) ConvertTimezone(fieldExpr, tz string) (string, error) {
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}
	if !sqliteUTCNames[strings.ToLower(tz)] {
		return "", unsupportedFeature(a.Name(), fmt.Sprintf("timezone %q", tz))
	}
	return fmt.Sprintf("datetime(%s)", fieldExpr), nil
}

// TimeGroupedColumn truncates with strftime.
func (a *SQLiteAdapter) TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error) {
	switch g {
	case Week:
		// Monday on or before the value.
		return fmt.Sprintf("strftime('%s', date(%s, '-6 days', 'weekday 1'))", sqliteFormats[Day], dimensionExpr), nil
	case Quarter:
		return fmt.Sprintf("(strftime('%%Y-', %s) || printf('%%02d', ((CAST(strftime('%%m', %s) AS INTEGER) - 1) / 3) * 3 + 1) || '-01T00:00:00.000')",
			dimensionExpr, dimensionExpr), nil
	}
	format, ok := sqliteFormats[g]
	if !ok {
		return "", unsupportedGranularity(a.Name(), g)
	}
	return fmt.Sprintf("strftime('%s', %s)", format, dimensionExpr), nil
}

// ApproxDistinctInit always fails with ErrUnsupportedDialectFeature.
func (a *SQLiteAdapter) ApproxDistinctInit(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// ApproxDistinctMerge always fails with ErrUnsupportedDialectFeature.
func (a *SQLiteAdapter) ApproxDistinctMerge(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// ApproxDistinctCompute always fails with ErrUnsupportedDialectFeature.
func (a *SQLiteAdapter) ApproxDistinctCompute(string) (string, error) {
	return "", unsupportedFeature(a.Name(), "approximate distinct sketches")
}

// Templates returns a copy of the SQLite template table.
func (a *SQLiteAdapter) Templates() Templates { return maps.Clone(a.templates) }
