// Package probe executes compiled queries against a live database.
//
// It is the hand-off point between the compiler and a driver: the driver
// receives the final SQL and exactly one value per placeholder.
package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"

	"github.com/shipq/semsql/compile"
	"github.com/shipq/semsql/dburl"
)

// ErrClosed is returned when a closed Conn is used.
var ErrClosed = errors.New("probe connection closed")

// Row is one result row keyed by column name.
type Row map[string]any

// Conn is a connection to one database. It is not safe for concurrent use.
type Conn struct {
	dialect string
	pg      *pgx.Conn
	db      *sql.DB
	logger  *slog.Logger
}

// Open connects to dbURL. Postgres uses a native pgx connection; MySQL and
// SQLite go through database/sql.
func Open(ctx context.Context, dbURL string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	driver, dsn, err := dburl.DriverFor(dbURL)
	if err != nil {
		return nil, err
	}
	dialect, _ := dburl.InferDialectFromDBUrl(dbURL)

	c := &Conn{dialect: dialect, logger: logger.With("dialect", dialect)}

	if driver == dburl.DriverPgx {
		pg, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", dburl.Redact(dbURL), err)
		}
		c.pg = pg
	} else {
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dburl.Redact(dbURL), err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping %s: %w", dburl.Redact(dbURL), err)
		}
		if driver == dburl.DriverSQLite {
			// An in-memory database lives in a single connection.
			db.SetMaxOpenConns(1)
		}
		c.db = db
	}

	c.logger.Debug("probe_connected",
		"host_local", dburl.IsLocalhost(dbURL),
		"database", dburl.ParseDatabaseName(dbURL),
	)
	return c, nil
}

// FromDB wraps an open database/sql handle, which Close will close.
// dialect is the name reported by Dialect.
func FromDB(dialect string, db *sql.DB, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conn{dialect: dialect, db: db, logger: logger.With("dialect", dialect)}
}

// Dialect returns the dialect name inferred from the URL.
func (c *Conn) Dialect() string {
	return c.dialect
}

// Exec runs a statement that returns no rows, such as fixture DDL.
func (c *Conn) Exec(ctx context.Context, sqlText string, args ...any) error {
	switch {
	case c.pg != nil:
		_, err := c.pg.Exec(ctx, sqlText, args...)
		return err
	case c.db != nil:
		_, err := c.db.ExecContext(ctx, sqlText, args...)
		return err
	default:
		return ErrClosed
	}
}

// Query runs a compiled query and collects every row.
func (c *Conn) Query(ctx context.Context, r compile.Result) ([]Row, error) {
	var rows []Row
	var err error
	switch {
	case c.pg != nil:
		rows, err = c.queryPgx(ctx, r)
	case c.db != nil:
		rows, err = c.querySQL(ctx, r)
	default:
		return nil, ErrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	c.logger.Debug("probe_query_finished",
		"params", len(r.Params),
		"rows", len(rows),
	)
	return rows, nil
}

func (c *Conn) queryPgx(ctx context.Context, r compile.Result) ([]Row, error) {
	rows, err := c.pg.Query(ctx, r.SQL, r.Params...)
	if err != nil {
		return nil, err
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(collected))
	for i, m := range collected {
		out[i] = Row(m)
	}
	return out, nil
}

func (c *Conn) querySQL(ctx context.Context, r compile.Result) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, r.SQL, r.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			// MySQL returns text columns as []byte.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the connection. Calling Close twice is safe.
func (c *Conn) Close(ctx context.Context) error {
	var err error
	if c.pg != nil {
		err = c.pg.Close(ctx)
		c.pg = nil
	}
	if c.db != nil {
		err = errors.Join(err, c.db.Close())
		c.db = nil
	}
	return err
}
