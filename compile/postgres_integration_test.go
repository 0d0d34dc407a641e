//go:build integration

package compile

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shipq/semsql/dialect"
)

// connectPostgres connects to SEMSQL_POSTGRES_URL, or the local socket when
// unset. Skips the test if Postgres is unavailable.
func connectPostgres(t *testing.T) *pgx.Conn {
	t.Helper()

	connString := os.Getenv("SEMSQL_POSTGRES_URL")
	if connString == "" {
		connString = "host=/tmp user=postgres database=postgres"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Skipf("PostgreSQL unavailable: %v", err)
		return nil
	}
	return conn
}

// requireHLL enables postgresql-hll or skips.
func requireHLL(t *testing.T, conn *pgx.Conn) {
	t.Helper()
	if _, err := conn.Exec(context.Background(), `CREATE EXTENSION IF NOT EXISTS hll`); err != nil {
		t.Skipf("postgresql-hll unavailable: %v", err)
	}
}

func TestPostgresIntegration_TimezoneBuckets(t *testing.T) {
	conn := connectPostgres(t)
	if conn == nil {
		return
	}
	ctx := context.Background()
	defer conn.Close(ctx)

	_, err := conn.Exec(ctx, `
		CREATE TEMP TABLE tz_events (created_at timestamptz NOT NULL);
		INSERT INTO tz_events VALUES ('2024-03-01 23:30:00+00'), ('2024-03-02 00:30:00+00');
	`)
	if err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}

	result, err := NewCompiler(dialect.Postgres).Compile(&Query{
		Table:         "tz_events",
		TimeDimension: &TimeDimension{Expr: "created_at", Granularity: dialect.Day, Timezone: "America/New_York"},
		Measures:      []Measure{{Kind: MeasureCount, Alias: "n"}},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var day time.Time
	var n int64
	if err := conn.QueryRow(ctx, result.SQL, result.Params...).Scan(&day, &n); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}
	// Both instants fall on 2024-03-01 in New York.
	if day.Format("2006-01-02") != "2024-03-01" || n != 2 {
		t.Errorf("got day %v n=%d, want 2024-03-01 n=2", day, n)
	}
}

func TestPostgresIntegration_SketchRollupComposes(t *testing.T) {
	conn := connectPostgres(t)
	if conn == nil {
		return
	}
	ctx := context.Background()
	defer conn.Close(ctx)
	requireHLL(t, conn)

	_, err := conn.Exec(ctx, `
		CREATE TEMP TABLE visits (user_id integer NOT NULL, created_at timestamptz NOT NULL);
		INSERT INTO visits
			SELECT g % 5000, timestamptz '2024-01-01 00:00:00+00' + (g % 10) * interval '1 day'
			FROM generate_series(1, 20000) g;
		CREATE TEMP TABLE daily_visitors (day timestamp NOT NULL, users_hll hll NOT NULL);
	`)
	if err != nil {
		t.Fatalf("failed to create test tables: %v", err)
	}

	c := NewCompiler(dialect.Postgres)

	rollup, err := c.Compile(&Query{
		Table:         "visits",
		TimeDimension: &TimeDimension{Expr: "created_at", Granularity: dialect.Day, Timezone: "UTC"},
		Measures:      []Measure{{Kind: MeasureSketchInit, Expr: "user_id", Alias: "users_hll"}},
		Filters:       []Filter{{Expr: "user_id", Op: OpGe, Values: []any{0}}},
	})
	if err != nil {
		t.Fatalf("Compile rollup failed: %v", err)
	}
	if _, err := conn.Exec(ctx, "INSERT INTO daily_visitors (day, users_hll) "+rollup.SQL, rollup.Params...); err != nil {
		t.Fatalf("failed to build rollup: %v", err)
	}

	merged, err := c.Compile(&Query{
		Table:    "daily_visitors",
		Measures: []Measure{{Kind: MeasureSketchCount, Expr: "users_hll", Alias: "users"}},
	})
	if err != nil {
		t.Fatalf("Compile merge failed: %v", err)
	}
	direct, err := c.Compile(&Query{
		Table:    "visits",
		Measures: []Measure{{Kind: MeasureCountDistinctApprox, Expr: "user_id", Alias: "users"}},
	})
	if err != nil {
		t.Fatalf("Compile direct failed: %v", err)
	}

	var fromRollup, fromRows float64
	if err := conn.QueryRow(ctx, merged.SQL, merged.Params...).Scan(&fromRollup); err != nil {
		t.Fatalf("failed to scan merged estimate: %v", err)
	}
	if err := conn.QueryRow(ctx, direct.SQL, direct.Params...).Scan(&fromRows); err != nil {
		t.Fatalf("failed to scan direct estimate: %v", err)
	}

	const exact = 5000
	// postgresql-hll defaults to log2m=11, about 2.3% standard error.
	tolerance := 0.1 * exact
	if math.Abs(fromRollup-exact) > tolerance {
		t.Errorf("merged estimate %v too far from %d", fromRollup, exact)
	}
	if math.Abs(fromRows-exact) > tolerance {
		t.Errorf("direct estimate %v too far from %d", fromRows, exact)
	}
}
