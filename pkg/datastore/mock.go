package datastore

import (
	"context"
	"sync"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// QueryCall records one invocation of MockStore.Query.
type QueryCall struct {
	SQL    string
	Params []any
}

// MockStore is a Store for tests. QueryFunc defaults to returning no rows.
type MockStore struct {
	QueryFunc   func(ctx context.Context, sqlText string, params []any) (models.Rows, error)
	DialectName Dialect

	mu    sync.Mutex
	calls []QueryCall
}

func (m *MockStore) Query(ctx context.Context, sqlText string, params []any) (models.Rows, error) {
	m.mu.Lock()
	m.calls = append(m.calls, QueryCall{SQL: sqlText, Params: params})
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sqlText, params)
	}
	return models.Rows{}, nil
}

func (m *MockStore) Dialect() Dialect {
	if m.DialectName == "" {
		return DialectPostgres
	}
	return m.DialectName
}

func (m *MockStore) Ping(context.Context) error { return nil }

func (m *MockStore) Close() error { return nil }

// Calls returns a copy of the recorded queries.
func (m *MockStore) Calls() []QueryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueryCall, len(m.calls))
	copy(out, m.calls)
	return out
}
