// Package params tracks bound query parameters for a single compile pass.
//
// The allocator is dialect agnostic: it hands out 0-based indices and
// dialect-neutral markers, and leaves placeholder text to the active
// dialect adapter.
package params

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownParam is returned by Build when annotated SQL references an
// index that was never allocated.
var ErrUnknownParam = errors.New("unknown parameter")

// markerRegex matches the annotated marker form produced by Marker, e.g. $0$.
// Postgres dollar-quote tags cannot start with a digit, so the form never
// collides with valid SQL.
var markerRegex = regexp.MustCompile(`\$(\d+)\$`)

// Param is a bound value together with its allocation index.
type Param struct {
	Index int
	Value any
}

// Placeholderer produces the positional bind marker for a 0-based index.
// Every dialect adapter satisfies it.
type Placeholderer interface {
	ParamPlaceholder(index int) string
}

// Allocator owns the ordered parameter values of exactly one compile pass.
// It is not safe for concurrent use.
//
// Equal values are never deduplicated: every Allocate call appends a new
// index, so a literal used twice is bound twice.
type Allocator struct {
	values []any
}

// New creates an empty allocator.
func New() *Allocator {
	return &Allocator{}
}

// Allocate appends value and returns its index.
func (a *Allocator) Allocate(value any) int {
	a.values = append(a.values, value)
	return len(a.values) - 1
}

// AllocateMarker allocates value and returns its annotated marker.
func (a *Allocator) AllocateMarker(value any) string {
	return Marker(a.Allocate(value))
}

// Len returns the number of allocated parameters.
func (a *Allocator) Len() int {
	return len(a.values)
}

// Values returns a copy of the allocated values in allocation order.
func (a *Allocator) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

// Params returns the allocated parameters with their indices.
func (a *Allocator) Params() []Param {
	out := make([]Param, len(a.values))
	for i, v := range a.values {
		out[i] = Param{Index: i, Value: v}
	}
	return out
}

// Marker returns the dialect-neutral marker for index.
func Marker(index int) string {
	return "$" + strconv.Itoa(index) + "$"
}

// ContainsMarker reports whether s already holds an annotated marker.
func ContainsMarker(s string) bool {
	return markerRegex.MatchString(s)
}

// IndexDistinguishing reports whether p emits a distinct placeholder per
// index ($1, ?1, :1) rather than one generic marker (?).
func IndexDistinguishing(p Placeholderer) bool {
	return p.ParamPlaceholder(0) != p.ParamPlaceholder(1)
}

// Build rewrites every marker in annotated into p's placeholder syntax and
// returns the values the driver must bind.
//
// For index-distinguishing dialects each marker becomes ParamPlaceholder(i)
// and the values are returned in allocation order. For generic-marker
// dialects every occurrence consumes one value, in order of appearance, so a
// marker used twice is bound twice.
func (a *Allocator) Build(annotated string, p Placeholderer) (string, []any, error) {
	matches := markerRegex.FindAllStringSubmatchIndex(annotated, -1)
	numbered := IndexDistinguishing(p)

	var b strings.Builder
	var bound []any
	last := 0
	for _, m := range matches {
		index, err := strconv.Atoi(annotated[m[2]:m[3]])
		if err != nil || index >= len(a.values) {
			return "", nil, fmt.Errorf("%w: marker %s with %d allocated", ErrUnknownParam, annotated[m[0]:m[1]], len(a.values))
		}
		b.WriteString(annotated[last:m[0]])
		if numbered {
			b.WriteString(p.ParamPlaceholder(index))
		} else {
			b.WriteString(p.ParamPlaceholder(len(bound)))
			bound = append(bound, a.values[index])
		}
		last = m[1]
	}
	b.WriteString(annotated[last:])

	if numbered {
		bound = a.Values()
	}
	return b.String(), bound, nil
}
