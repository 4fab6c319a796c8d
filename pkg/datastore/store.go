// Package datastore executes validated SELECT statements against the
// operational database that holds tenant data.
package datastore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// ErrQueryFailed wraps every execution error. Callers treat it as non-retryable.
var ErrQueryFailed = errors.New("datastore query failed")

// MaxRows bounds the rows collected for a single statement.
const MaxRows = 1000

// Store runs a statement with positional parameters and returns the rows in order.
type Store interface {
	Query(ctx context.Context, sqlText string, params []any) (models.Rows, error)
	Dialect() Dialect
	Ping(ctx context.Context) error
	Close() error
}

// Config selects the driver and connection string.
type Config struct {
	Driver string
	DSN    string
}

// Open connects to the configured data store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("datastore dsn is required for driver %s", dialect)
	}

	switch dialect {
	case DialectPostgres:
		return NewPostgresStore(ctx, cfg.DSN, logger)
	default:
		return NewSQLStore(ctx, dialect, cfg.DSN, logger)
	}
}

func queryError(err error) error {
	return fmt.Errorf("%w: %w", ErrQueryFailed, err)
}
