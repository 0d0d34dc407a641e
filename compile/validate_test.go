package compile

import (
	"errors"
	"strings"
	"testing"

	"github.com/shipq/semsql/dialect"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"orders", "_tmp", "Order2", "a"}
	for _, name := range valid {
		if err := ValidateIdentifier(name); err != nil {
			t.Errorf("ValidateIdentifier(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []string{"", "2orders", "order-items", `x"y`, "a b", "drop;"}
	for _, name := range invalid {
		if err := ValidateIdentifier(name); err == nil {
			t.Errorf("ValidateIdentifier(%q) expected error, got nil", name)
		}
	}
}

func TestValidateQuery_Invalid(t *testing.T) {
	count := []Measure{{Kind: MeasureCount, Alias: "n"}}

	tests := []struct {
		name    string
		query   *Query
		wantMsg string
	}{
		{"nil query", nil, "nil query"},
		{"empty table", &Query{Measures: count}, "table"},
		{"bad table", &Query{Table: "orders;drop", Measures: count}, "table"},
		{"selects nothing", &Query{Table: "orders"}, "selects nothing"},
		{"negative limit", &Query{Table: "orders", Measures: count, Limit: -1}, "negative limit"},
		{"bad dimension", &Query{Table: "orders", Dimensions: []string{"lower(status)"}}, "dimension"},
		{
			"bad timezone",
			&Query{Table: "orders", TimeDimension: &TimeDimension{Expr: "created_at", Granularity: dialect.Day, Timezone: "UTC$0$"}},
			"invalid timezone",
		},
		{
			"duplicate alias",
			&Query{Table: "orders", Dimensions: []string{"n"}, Measures: count},
			"duplicate alias",
		},
		{
			"time alias collides",
			&Query{
				Table:         "orders",
				TimeDimension: &TimeDimension{Expr: "created_at", Granularity: dialect.Day},
				Dimensions:    []string{"day"},
			},
			"duplicate alias",
		},
		{
			"unknown measure",
			&Query{Table: "orders", Measures: []Measure{{Kind: "median", Expr: "x", Alias: "m"}}},
			"unknown measure kind",
		},
		{
			"sum without expr",
			&Query{Table: "orders", Measures: []Measure{{Kind: MeasureSum, Alias: "s"}}},
			"empty",
		},
		{
			"bad measure alias",
			&Query{Table: "orders", Measures: []Measure{{Kind: MeasureCount, Alias: "total count"}}},
			"alias",
		},
		{
			"unknown op",
			&Query{Table: "orders", Measures: count, Filters: []Filter{{Expr: "x", Op: "like", Values: []any{"a%"}}}},
			"unknown filter op",
		},
		{
			"empty in",
			&Query{Table: "orders", Measures: count, Filters: []Filter{{Expr: "x", Op: OpIn}}},
			"at least one value",
		},
		{
			"between arity",
			&Query{Table: "orders", Measures: count, Filters: []Filter{{Expr: "x", Op: OpBetween, Values: []any{1}}}},
			"takes 2 value(s)",
		},
		{
			"eq arity",
			&Query{Table: "orders", Measures: count, Filters: []Filter{{Expr: "x", Op: OpEq, Values: []any{1, 2}}}},
			"takes 1 value(s)",
		},
		{
			"marker in expression",
			&Query{Table: "orders", Measures: []Measure{{Kind: MeasureSum, Expr: "amount + $0$", Alias: "s"}}},
			"parameter marker",
		},
		{
			"empty time expression",
			&Query{Table: "orders", TimeDimension: &TimeDimension{Granularity: dialect.Day}},
			"time dimension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestValidateQuery_Valid(t *testing.T) {
	q := &Query{
		Table:         "public.orders",
		TimeDimension: &TimeDimension{Expr: "created_at", Granularity: dialect.Hour, Alias: "bucket"},
		Dimensions:    []string{"orders.status", "region"},
		Measures: []Measure{
			{Kind: MeasureCount, Alias: "n"},
			{Kind: MeasureCount, Expr: "DISTINCT user_id", Alias: "users"},
		},
		Filters: []Filter{{Expr: "amount", Op: OpBetween, Values: []any{1, 100}}},
	}
	if err := ValidateQuery(q); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCompile_InvalidQueryReturnsNothing(t *testing.T) {
	result, err := NewCompiler(dialect.Postgres).Compile(&Query{Table: "orders"})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if result.SQL != "" || result.Params != nil {
		t.Errorf("expected empty result, got %+v", result)
	}
}
