// Package dburl maps database URLs to dialect names and driver DSNs.
package dburl

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Supported database dialects. The names match the dialect registry.
const (
	DialectPostgres  = "postgres"
	DialectMySQL     = "mysql"
	DialectSQLite    = "sqlite"
	DialectBigQuery  = "bigquery"
	DialectSnowflake = "snowflake"
)

// Driver names registered with database/sql.
const (
	DriverPgx    = "pgx"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const defaultMySQLPort = "3306"

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
	ErrNoDriver       = errors.New("no bundled driver for dialect")
)

// InferDialectFromDBUrl returns the dialect name based on the URL scheme.
func InferDialectFromDBUrl(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "bigquery":
		return DialectBigQuery, nil
	case "snowflake":
		return DialectSnowflake, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDialect, scheme)
	}
}

// IsLocalhost returns true if the URL points to localhost (127.0.0.1, localhost, or ::1).
// For SQLite URLs, this always returns true since SQLite is file-based.
func IsLocalhost(dbURL string) bool {
	u, err := url.Parse(dbURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)

	// SQLite is always local
	if scheme == "sqlite" || scheme == "sqlite3" {
		return true
	}

	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// DriverFor returns the database/sql driver name and the DSN that driver
// expects for dbURL. Postgres URLs pass through unchanged, MySQL URLs are
// converted to the go-sql-driver DSN form, and SQLite URLs become a file path.
//
// BigQuery and Snowflake compile but have no bundled driver.
func DriverFor(dbURL string) (driver, dsn string, err error) {
	dialect, err := InferDialectFromDBUrl(dbURL)
	if err != nil {
		return "", "", err
	}

	switch dialect {
	case DialectPostgres:
		return DriverPgx, dbURL, nil
	case DialectMySQL:
		dsn, err := MySQLDSN(dbURL)
		if err != nil {
			return "", "", err
		}
		return DriverMySQL, dsn, nil
	case DialectSQLite:
		return DriverSQLite, SQLitePath(dbURL), nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrNoDriver, dialect)
	}
}

// MySQLDSN converts a mysql:// URL to a go-sql-driver DSN.
// Format: user:password@tcp(host:port)/dbname?params
func MySQLDSN(mysqlURL string) (string, error) {
	u, err := url.Parse(mysqlURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, mysqlURL)
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	port := u.Port()
	if port == "" {
		port = defaultMySQLPort
	}
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(u.Hostname(), port)
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true

	// URL parameters are appended as DSN text and parsed by the driver, so
	// keys it owns (charset, parseTime, timeout) land in their fields and
	// override the defaults above instead of being duplicated.
	dsn := cfg.FormatDSN()
	if q := u.Query(); len(q) > 0 {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + q.Encode()
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return parsed.FormatDSN(), nil
}

// SQLitePath strips the sqlite:// (or sqlite:) prefix from a URL.
// sqlite::memory: yields :memory:.
func SQLitePath(sqliteURL string) string {
	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:"} {
		if len(sqliteURL) > len(prefix) && strings.EqualFold(sqliteURL[:len(prefix)], prefix) {
			return sqliteURL[len(prefix):]
		}
	}
	return sqliteURL
}

// ParseDatabaseName extracts the database name from a URL.
// Returns an empty string if no database name is present.
func ParseDatabaseName(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Redact returns dbURL with any password replaced, for logging.
func Redact(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
