package datastore

import (
	"fmt"
	"strings"

	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// Dialect names the SQL flavour of the operational data store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMSSQL    Dialect = "mssql"
)

// ParseDialect accepts the configured driver name and its common aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mssql", "sqlserver":
		return DialectMSSQL, nil
	default:
		return "", fmt.Errorf("unsupported datastore driver %q", name)
	}
}

// Placeholders returns the positional placeholder style of the dialect.
func (d Dialect) Placeholders() sqlutil.PlaceholderStyle {
	switch d {
	case DialectSQLite:
		return sqlutil.QuestionPlaceholders
	case DialectMSSQL:
		return sqlutil.AtPlaceholders
	default:
		return sqlutil.DollarPlaceholders
	}
}

// driverName is the database/sql driver registered for the dialect. PostgreSQL
// has none; it runs over pgxpool.
func (d Dialect) driverName() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectMSSQL:
		return "sqlserver"
	default:
		return ""
	}
}
