package compile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shipq/semsql/dialect"
)

// ErrInvalidQuery is returned when a Query fails validation before any SQL
// is generated.
var ErrInvalidQuery = errors.New("invalid query")

// MeasureKind names an aggregate.
type MeasureKind string

const (
	// MeasureCount counts rows, or non-null values of Expr when set.
	MeasureCount MeasureKind = "count"
	// MeasureSum sums Expr.
	MeasureSum MeasureKind = "sum"
	// MeasureCountDistinctApprox estimates distinct values of Expr from raw rows.
	MeasureCountDistinctApprox MeasureKind = "count_distinct_approx"
	// MeasureSketchInit builds a mergeable sketch of Expr for a rollup table.
	MeasureSketchInit MeasureKind = "sketch_init"
	// MeasureSketchMerge merges a sketch column into a coarser sketch.
	MeasureSketchMerge MeasureKind = "sketch_merge"
	// MeasureSketchCount merges a sketch column and finalizes the estimate.
	MeasureSketchCount MeasureKind = "sketch_count"
)

// FilterOp is a comparison applied by a Filter.
type FilterOp string

const (
	OpEq      FilterOp = "="
	OpNe      FilterOp = "<>"
	OpLt      FilterOp = "<"
	OpLe      FilterOp = "<="
	OpGt      FilterOp = ">"
	OpGe      FilterOp = ">="
	OpIn      FilterOp = "in"
	OpBetween FilterOp = "between"
)

// Query is a semantic query over one table.
//
// Dimensions are column names (optionally table-qualified) and are quoted.
// TimeDimension.Expr, Measure.Expr and Filter.Expr are trusted SQL
// expressions emitted verbatim. Filter values are always bound.
type Query struct {
	Table         string         `json:"table" yaml:"table"`
	TimeDimension *TimeDimension `json:"time_dimension,omitempty" yaml:"time_dimension,omitempty"`
	Dimensions    []string       `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Measures      []Measure      `json:"measures,omitempty" yaml:"measures,omitempty"`
	Filters       []Filter       `json:"filters,omitempty" yaml:"filters,omitempty"`
	Limit         int            `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// TimeDimension buckets Expr by Granularity, after converting it to Timezone
// when one is set.
type TimeDimension struct {
	Expr        string              `json:"expr" yaml:"expr"`
	Granularity dialect.Granularity `json:"granularity" yaml:"granularity"`
	Timezone    string              `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	// Alias defaults to the granularity name.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Measure is one aggregate in the select list.
type Measure struct {
	Kind  MeasureKind `json:"kind" yaml:"kind"`
	Expr  string      `json:"expr,omitempty" yaml:"expr,omitempty"`
	Alias string      `json:"alias" yaml:"alias"`
}

// Filter restricts rows with Expr Op Values.
type Filter struct {
	Expr   string   `json:"expr" yaml:"expr"`
	Op     FilterOp `json:"op" yaml:"op"`
	Values []any    `json:"values" yaml:"values"`
}

// Result holds the output of compiling a Query.
type Result struct {
	// SQL is the final statement in the dialect's placeholder syntax.
	SQL string `json:"sql"`

	// Params holds exactly one value per placeholder the driver must bind,
	// in binding order.
	Params []any `json:"params"`
}

// ParseQuery decodes a JSON query document. Unknown fields are rejected.
func ParseQuery(data []byte) (*Query, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var q Query
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	for i := range q.Filters {
		q.Filters[i].Values = normalizeNumbers(q.Filters[i].Values)
	}
	return &q, nil
}

// ParseQueryYAML decodes a YAML query document using the same field names as
// ParseQuery. Unknown fields are rejected.
func ParseQueryYAML(data []byte) (*Query, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var q Query
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidQuery)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return &q, nil
}

// normalizeNumbers turns json.Number into int64 when integral, float64 otherwise,
// so drivers receive native values.
func normalizeNumbers(values []any) []any {
	for i, v := range values {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if iv, err := n.Int64(); err == nil {
			values[i] = iv
		} else if fv, err := n.Float64(); err == nil {
			values[i] = fv
		}
	}
	return values
}
