package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/config"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/testhelpers"
)

func testConfig() *config.Config {
	cfg := &config.Config{Env: "test", Version: "test-version", ShutdownTimeout: time.Second}
	cfg.AI.Provider = "gemini"
	cfg.AI.BreakerThreshold = 5
	cfg.AI.BreakerReset = time.Second
	cfg.Datastore = config.DatastoreConfig{Driver: "sqlite", DSN: "file::memory:"}
	cfg.History = config.HistoryConfig{Backend: config.HistoryMemory, FetchLimit: 10, MaxPerThread: 50}
	cfg.Auth.Audience = "ekaya-assist"
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}
	cfg.Locale.Timezone = "UTC"
	return cfg
}

func newTestApp(t *testing.T) (*app, http.Handler) {
	t.Helper()
	ctx := context.Background()

	a, err := newApp(ctx, testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	sqlStore, ok := a.store.(*datastore.SQLStore)
	require.True(t, ok)
	_, err = sqlStore.DB().ExecContext(ctx, `
		CREATE TABLE projects (pj_id INTEGER PRIMARY KEY, tenant_id TEXT, pj_code TEXT, pj_title TEXT, pj_status TEXT);
		INSERT INTO projects (tenant_id, pj_code, pj_title, pj_status) VALUES
			('acme', 'PRJ-1', 'Torre A', 'ACTIVE'),
			('globex', 'PRJ-9', 'Puente', 'ACTIVE');`)
	require.NoError(t, err)

	handler, err := a.routes(ctx)
	require.NoError(t, err)
	return a, handler
}

func TestApp_ChatWithoutRemoteReasoning(t *testing.T) {
	_, handler := newTestApp(t)

	body := `{"userMessage":"muestra los proyectos activos","tenantId":"acme","threadId":"t-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer("user-1", "acme"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.PlanSourceLocal, resp.Source)
	assert.Contains(t, resp.Response, "Torre A")
	assert.NotContains(t, resp.Response, "Puente")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	hreq := httptest.NewRequest(http.MethodGet, "/api/chat/history?tenantId=acme&threadId=t-1", nil)
	hrec := httptest.NewRecorder()
	handler.ServeHTTP(hrec, hreq)
	assert.Equal(t, http.StatusOK, hrec.Code)
	assert.Contains(t, hrec.Body.String(), "Torre A")
}

func TestApp_OperationalEndpoints(t *testing.T) {
	a, handler := newTestApp(t)
	a.metrics.ObserveAnswer("local", "ok")

	tests := []struct {
		path     string
		contains string
	}{
		{path: "/health", contains: `"datastore":"ok"`},
		{path: "/ping", contains: "test-version"},
		{path: "/api/schema?topic=projects", contains: "PROJECTS"},
		{path: "/metrics", contains: "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestNewApp_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Datastore.Driver = "oracle"

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
