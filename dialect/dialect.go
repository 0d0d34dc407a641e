// Package dialect defines the adapter contract every supported database
// implements, the built-in adapters, and the registry that maps dialect names
// to adapters.
//
// A compile pass uses exactly one Adapter and never branches on the dialect
// name: every dialect-sensitive fragment (placeholders, timezone conversion,
// time bucketing, cardinality sketches, templates) comes from the adapter.
package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedGranularity is returned when a granularity outside the
	// closed enumeration is requested.
	ErrUnsupportedGranularity = errors.New("unsupported granularity")

	// ErrUnsupportedDialectFeature is returned when the active dialect lacks a
	// capability or template entry.
	ErrUnsupportedDialectFeature = errors.New("unsupported dialect feature")

	// ErrUnknownDialect is returned by Lookup for unregistered names.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrDuplicateDialect is returned by Register when a name is taken.
	ErrDuplicateDialect = errors.New("dialect already registered")

	// ErrInvalidTemplate is returned when a template entry does not parse
	// or disagrees with the adapter's positional placeholders.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidTimezone is returned when a timezone is not a zone name,
	// abbreviation or UTC offset.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Adapter is the capability set a database dialect implements.
// Implementations are stateless and safe for concurrent use.
type Adapter interface {
	// Name returns the canonical dialect name used for registry lookups.
	Name() string

	// ParamPlaceholder returns the positional bind marker for a 0-based index.
	// Postgres uses $1, $2, etc. MySQL uses ? for every index.
	ParamPlaceholder(index int) string

	// ConvertTimezone reinterprets fieldExpr as an instant and re-expresses it
	// in tz. The result is a pure, nestable expression.
	// Zones that fail ValidateTimezone are rejected with ErrInvalidTimezone.
	ConvertTimezone(fieldExpr, tz string) (string, error)

	// TimeGroupedColumn truncates dimensionExpr to the start of its
	// granularity bucket.
	TimeGroupedColumn(g Granularity, dimensionExpr string) (string, error)

	// ApproxDistinctInit builds a mergeable sketch from the hashed values of
	// sqlExpr. The result is an aggregate expression.
	ApproxDistinctInit(sqlExpr string) (string, error)

	// ApproxDistinctMerge merges a column of sketches into one sketch.
	ApproxDistinctMerge(sqlExpr string) (string, error)

	// ApproxDistinctCompute finalizes a sketch (the Init or Merge form) into a
	// rounded cardinality estimate.
	ApproxDistinctCompute(sqlExpr string) (string, error)

	// Templates returns a copy of the dialect's template table, its
	// overrides layered on DefaultTemplates.
	Templates() Templates
}

// CountDistinctApprox estimates the distinct count of sqlExpr directly from
// raw rows: Compute(Init(sqlExpr)).
func CountDistinctApprox(a Adapter, sqlExpr string) (string, error) {
	sketch, err := a.ApproxDistinctInit(sqlExpr)
	if err != nil {
		return "", err
	}
	return a.ApproxDistinctCompute(sketch)
}

// Granularity is a named time-bucket size.
type Granularity string

const (
	Second  Granularity = "second"
	Minute  Granularity = "minute"
	Hour    Granularity = "hour"
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// Granularities returns every valid granularity, finest first.
func Granularities() []Granularity {
	return []Granularity{Second, Minute, Hour, Day, Week, Month, Quarter, Year}
}

// Valid reports whether g is part of the closed enumeration.
func (g Granularity) Valid() bool {
	switch g {
	case Second, Minute, Hour, Day, Week, Month, Quarter, Year:
		return true
	}
	return false
}

// ParseGranularity converts a case-insensitive name into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGranularity, s)
	}
	return g, nil
}

// unsupportedGranularity is the shared error for adapters.
func unsupportedGranularity(dialect string, g Granularity) error {
	return fmt.Errorf("%w: %q for %s", ErrUnsupportedGranularity, string(g), dialect)
}

// unsupportedFeature is the shared error for adapters lacking a capability.
func unsupportedFeature(dialect, feature string) error {
	return fmt.Errorf("%w: %s does not support %s", ErrUnsupportedDialectFeature, dialect, feature)
}

// timezoneRegex matches IANA names (America/Argentina/Buenos_Aires),
// abbreviations (UTC) and offsets (+05:30, Etc/GMT-14).
var timezoneRegex = regexp.MustCompile(`^[A-Za-z0-9_+:-]+(/[A-Za-z0-9_+:-]+)*$`)

// maxTimezoneLen bounds a zone name; the longest IANA name is 32 bytes.
const maxTimezoneLen = 64

// ValidateTimezone checks that tz is safe to embed as a zone literal.
// It does not check that the database knows the zone.
func ValidateTimezone(tz string) error {
	if len(tz) > maxTimezoneLen || !timezoneRegex.MatchString(tz) {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
// Embedded single quotes are doubled.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// backslashEscaper escapes for engines where backslash starts an escape
// inside string literals (MySQL by default, BigQuery always).
var backslashEscaper = strings.NewReplacer(`\`, `\\`, "'", `\'`)

// quoteBackslashLiteral renders s as a single-quoted literal for
// backslash-escaping engines.
func quoteBackslashLiteral(s string) string {
	return "'" + backslashEscaper.Replace(s) + "'"
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
