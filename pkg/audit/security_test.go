package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func TestLogViolation(t *testing.T) {
	userCtx := func() context.Context {
		claims := &auth.Claims{TenantID: "acme"}
		claims.Subject = "user-123"
		return auth.WithClaims(context.Background(), claims, "token")
	}()

	tests := []struct {
		name         string
		ctx          context.Context
		err          error
		wantType     SecurityEventType
		wantSeverity string
		wantLevel    zapcore.Level
		wantUser     string
	}{
		{
			name:         "forbidden keyword",
			ctx:          userCtx,
			err:          &sqlutil.SecurityViolationError{SQL: "DROP TABLE projects", Keyword: "DROP"},
			wantType:     EventForbiddenKeyword,
			wantSeverity: SeverityCritical,
			wantLevel:    zapcore.ErrorLevel,
			wantUser:     "user-123",
		},
		{
			name:         "injection fingerprint wrapped",
			ctx:          context.Background(),
			err:          fmt.Errorf("screen local plan parameters: %w", &sqlutil.SecurityViolationError{Param: "entity", Fingerprint: "s&sos", Reason: "injection"}),
			wantType:     EventSQLInjectionAttempt,
			wantSeverity: SeverityCritical,
			wantLevel:    zapcore.ErrorLevel,
		},
		{
			name:         "restricted table",
			ctx:          context.Background(),
			err:          &sqlutil.SecurityViolationError{SQL: "SELECT * FROM api_keys", Table: "api_keys"},
			wantType:     EventRestrictedTable,
			wantSeverity: SeverityWarning,
			wantLevel:    zapcore.WarnLevel,
		},
		{
			name:         "multiple statements",
			ctx:          context.Background(),
			err:          &sqlutil.SecurityViolationError{SQL: "SELECT 1; SELECT 2", Reason: "multiple statements"},
			wantType:     EventStatementRejected,
			wantSeverity: SeverityWarning,
			wantLevel:    zapcore.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, recorded := setupTestLogger(t)
			auditor := NewSecurityAuditor(logger)
			auditor.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

			auditor.LogViolation(tt.ctx, "acme", models.PlanSourceRemote, tt.err)

			logs := recorded.All()
			require.Len(t, logs, 1, "Expected exactly one log entry")
			entry := logs[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "security_audit", entry.LoggerName)

			fields := entry.ContextMap()
			assert.Equal(t, string(tt.wantType), fields["event_type"])
			assert.Equal(t, tt.wantSeverity, fields["severity"])
			assert.Equal(t, tt.wantUser, fields["user_id"])

			var event SecurityEvent
			require.NoError(t, json.Unmarshal([]byte(fields["event_json"].(string)), &event))
			assert.Equal(t, tt.wantType, event.EventType)
			assert.Equal(t, "acme", event.TenantID)
			assert.Equal(t, models.PlanSourceRemote, event.Source)
			assert.Equal(t, 2026, event.Timestamp.Year())
		})
	}
}

func TestLogViolation_IgnoresOtherErrors(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogViolation(context.Background(), "acme", models.PlanSourceLocal, errors.New("connection refused"))
	auditor.LogViolation(context.Background(), "acme", models.PlanSourceLocal, nil)
	assert.Empty(t, recorded.All())

	var nilAuditor *SecurityAuditor
	nilAuditor.LogViolation(context.Background(), "acme", models.PlanSourceLocal, &sqlutil.SecurityViolationError{Keyword: "DROP"})
}

func TestLogViolation_TruncatesStatement(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	long := "SELECT * FROM api_keys WHERE note = '"
	for len(long) < 1000 {
		long += "x"
	}
	auditor.LogViolation(context.Background(), "acme", models.PlanSourceRemote,
		&sqlutil.SecurityViolationError{SQL: long + "'", Table: "api_keys"})

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(recorded.All()[0].ContextMap()["event_json"].(string)), &event))
	assert.Less(t, len(event.Details.Statement), 300)
	assert.Equal(t, "api_keys", event.Details.Table)
}
