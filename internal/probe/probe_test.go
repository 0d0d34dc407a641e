package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/shipq/semsql/compile"
	"github.com/shipq/semsql/dburl"
	"github.com/shipq/semsql/dialect"
)

func openMemory(t *testing.T) *Conn {
	t.Helper()
	c, err := Open(context.Background(), "sqlite::memory:", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestOpen_SQLiteMemory(t *testing.T) {
	c := openMemory(t)
	if c.Dialect() != dburl.DialectSQLite {
		t.Errorf("Dialect() = %q, want sqlite", c.Dialect())
	}
}

func TestOpen_NoBundledDriver(t *testing.T) {
	_, err := Open(context.Background(), "bigquery://project/dataset", nil)
	if !errors.Is(err, dburl.ErrNoDriver) {
		t.Fatalf("expected ErrNoDriver, got %v", err)
	}
}

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "mongodb://localhost/db", nil)
	if !errors.Is(err, dburl.ErrUnknownDialect) {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
}

func TestQuery_CompiledResult(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	err := c.Exec(ctx, `CREATE TABLE signups (plan TEXT NOT NULL, seats INTEGER NOT NULL)`)
	if err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	err = c.Exec(ctx, `INSERT INTO signups VALUES ('pro', 3), ('pro', 5), ('free', 1), ('team', 10)`)
	if err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}

	result, err := compile.NewCompiler(dialect.SQLite).Compile(&compile.Query{
		Table:      "signups",
		Dimensions: []string{"plan"},
		Measures:   []compile.Measure{{Kind: compile.MeasureSum, Expr: "seats", Alias: "seats"}},
		Filters:    []compile.Filter{{Expr: "plan", Op: compile.OpIn, Values: []any{"pro", "team"}}},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	rows, err := c.Query(ctx, result)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	got := map[string]int64{}
	for _, row := range rows {
		plan, _ := row["plan"].(string)
		seats, _ := row["seats"].(int64)
		got[plan] = seats
	}
	if len(got) != 2 || got["pro"] != 8 || got["team"] != 10 {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestQuery_Closed(t *testing.T) {
	c := openMemory(t)
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	_, err := c.Query(context.Background(), compile.Result{SQL: "SELECT 1"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
