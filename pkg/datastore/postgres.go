package datastore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// PostgresStore runs statements over a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	owned  bool
	logger *zap.Logger
}

// NewPostgresStore creates a pool for dsn and verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres (%s): %w", logging.SanitizeConnectionString(dsn), err)
	}
	return &PostgresStore{pool: pool, owned: true, logger: logger.Named("datastore")}, nil
}

// NewPostgresStoreFromPool wraps an existing pool. Close does not close it.
func NewPostgresStoreFromPool(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{logger: logger.Named("datastore"), pool: pool}
}

func (s *PostgresStore) Dialect() Dialect { return DialectPostgres }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Query executes sqlText with $N parameters.
func (s *PostgresStore) Query(ctx context.Context, sqlText string, params []any) (models.Rows, error) {
	rows, err := s.pool.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	result := make(models.Rows, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, queryError(fmt.Errorf("read row values: %w", err))
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
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

// Close is a no-op for stores created from a shared pool.
func (s *PostgresStore) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}
