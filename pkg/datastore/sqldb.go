package datastore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// SQLStore runs statements through database/sql. Open uses it for SQLite and SQL Server.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewSQLStore opens dsn with the driver registered for dialect.
func NewSQLStore(ctx context.Context, dialect Dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := dialect.driverName()
	if driver == "" {
		return nil, fmt.Errorf("%s is not served by database/sql; use NewPostgresStore", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s (%s): %w", dialect, logging.SanitizeConnectionString(dsn), err)
	}
	return &SQLStore{db: db, dialect: dialect, logger: logger.Named("datastore")}, nil
}

// DB exposes the handle for fixtures and health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Dialect() Dialect { return s.dialect }

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Query executes sqlText with positional parameters (?N or @pN).
func (s *SQLStore) Query(ctx context.Context, sqlText string, params []any) (models.Rows, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, queryError(fmt.Errorf("get columns: %w", err))
	}

	result := make(models.Rows, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, queryError(fmt.Errorf("scan row: %w", err))
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			// text columns come back as []byte from some drivers
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
		if len(result) >= MaxRows {
			s.logger.Warn("Result truncated", zap.Int("max_rows", MaxRows))
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(fmt.Errorf("iterate rows: %w", err))
	}

	return result, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
