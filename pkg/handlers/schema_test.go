package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
)

func TestSchemaHandler_Get(t *testing.T) {
	kb := schema.MustDefault()
	mux := http.NewServeMux()
	NewSchemaHandler(kb, zap.NewNop()).RegisterRoutes(mux, passthrough)

	tests := []struct {
		name      string
		query     string
		wantTopic string
		contains  string
	}{
		{name: "default topic", query: "", wantTopic: schema.DefaultTopic, contains: "projects"},
		{name: "lower case topic", query: "?topic=attendance", wantTopic: "ATTENDANCE", contains: "attendance_marks"},
		{name: "unknown topic", query: "?topic=payroll", wantTopic: "PAYROLL", contains: "projects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Success bool           `json:"success"`
				Data    SchemaResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Success)
			assert.Equal(t, tt.wantTopic, body.Data.Topic)
			assert.Contains(t, body.Data.Schema, tt.contains)
			assert.NotContains(t, body.Data.Schema, "api_keys", "restricted tables are never described")
			assert.NotEmpty(t, body.Data.Topics)
		})
	}
}
