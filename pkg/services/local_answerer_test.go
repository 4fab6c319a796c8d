package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/audit"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/engine"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

func newSQLiteLocalAnswerer(t *testing.T) *LocalAnswerer {
	t.Helper()
	ctx := context.Background()

	store, err := datastore.NewSQLStore(ctx, datastore.DialectSQLite, "file::memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.DB().ExecContext(ctx, `
		CREATE TABLE projects (pj_id INTEGER PRIMARY KEY, tenant_id TEXT, pj_code TEXT, pj_title TEXT, pj_status TEXT);
		CREATE TABLE staff (st_id INTEGER PRIMARY KEY, tenant_id TEXT, st_name TEXT);
		CREATE TABLE attendance_marks (am_id INTEGER PRIMARY KEY, tenant_id TEXT, st_id INTEGER, mark_type TEXT, marked_at TEXT);
		INSERT INTO projects (tenant_id, pj_code, pj_title, pj_status) VALUES
			('acme', 'PRJ-1', 'Torre A', 'ACTIVE'),
			('acme', 'PRJ-2', 'Torre B', 'ACTIVE'),
			('globex', 'PRJ-9', 'Puente', 'ACTIVE');
		INSERT INTO staff (st_id, tenant_id, st_name) VALUES
			(1, 'acme', 'Juan Perez'),
			(2, 'acme', 'Ana Rojas'),
			(3, 'globex', 'Juan Soto');
		INSERT INTO attendance_marks (tenant_id, st_id, mark_type, marked_at) VALUES
			('acme', 1, 'ENTRADA', datetime('now', 'localtime')),
			('acme', 2, 'ENTRADA', datetime('now', 'localtime')),
			('acme', 2, 'SALIDA', datetime('now', 'localtime')),
			('globex', 3, 'ENTRADA', datetime('now', 'localtime'));`)
	require.NoError(t, err)

	kb := schema.MustDefault()
	eng := engine.New(datastore.DialectSQLite, time.Local, zap.NewNop())
	return NewLocalAnswerer(eng, sqlutil.NewValidator(kb, zap.NewNop()), store, nil, zap.NewNop())
}

func TestLocalAnswerer_SQLite(t *testing.T) {
	local := newSQLiteLocalAnswerer(t)
	tenant := models.NewTenantContext("acme")

	tests := []struct {
		name      string
		utterance string
		contains  []string
		excludes  []string
	}{
		{
			name:      "active projects",
			utterance: "muestra los proyectos activos",
			contains:  []string{"Torre A (PRJ-1)", "Torre B (PRJ-2)"},
			excludes:  []string{"Puente"},
		},
		{
			name:      "count today",
			utterance: "cuantas personas marcaron hoy",
			contains:  []string{"2 personas"},
		},
		{
			name:      "individual entrance",
			utterance: "a que hora marcó juan",
			contains:  []string{"Juan Perez registró su entrada"},
			excludes:  []string{"Soto"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := local.Answer(context.Background(), tt.utterance, tenant, nil)
			require.NoError(t, err)
			assert.Equal(t, models.PlanSourceLocal, ans.Source)
			for _, s := range tt.contains {
				assert.Contains(t, ans.Text, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, ans.Text, s)
			}
		})
	}
}

func TestLocalAnswerer_UnknownEntityHasNoRecords(t *testing.T) {
	local := newSQLiteLocalAnswerer(t)

	ans, err := local.Answer(context.Background(), "cuando llegó ramirez", models.NewTenantContext("acme"), nil)
	require.NoError(t, err)
	assert.Equal(t, engine.NoRecordsMessage, ans.Text)
}

func TestLocalAnswerer_WildcardEntityMatchesLiterally(t *testing.T) {
	local := newSQLiteLocalAnswerer(t)

	for _, utterance := range []string{"cuando llegó ___", "cuando llegó %%%"} {
		ans, err := local.Answer(context.Background(), utterance, models.NewTenantContext("acme"), nil)
		require.NoError(t, err, utterance)
		assert.Equal(t, engine.NoRecordsMessage, ans.Text, utterance)
	}
}

func TestLocalAnswerer_InjectionInEntityRejected(t *testing.T) {
	store := &datastore.MockStore{}
	eng := engine.New(store.Dialect(), time.UTC, nil)
	core, logs := observer.New(zap.WarnLevel)
	local := NewLocalAnswerer(eng, sqlutil.NewValidator(schema.MustDefault(), nil), store, nil, nil,
		WithSecurityAuditor(audit.NewSecurityAuditor(zap.New(core))))

	_, err := local.Answer(context.Background(), "cuando llegó x'or'1'='1", models.NewTenantContext("acme"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSecurityViolation))
	assert.Empty(t, store.Calls())

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(audit.EventSQLInjectionAttempt), entries[0].ContextMap()["event_type"])
	assert.Equal(t, "acme", entries[0].ContextMap()["tenant_id"])
}
