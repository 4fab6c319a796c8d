// Package audit provides security audit logging for SIEM consumption.
// Rejected statements and parameters are logged as structured JSON events so
// they can be filtered and alerted on separately from application logs.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a template parameter.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventForbiddenKeyword is logged when a statement contains a mutation verb.
	EventForbiddenKeyword SecurityEventType = "forbidden_keyword"
	// EventRestrictedTable is logged when a statement references an administrative table.
	EventRestrictedTable SecurityEventType = "restricted_table"
	// EventStatementRejected covers the remaining validator rejections.
	EventStatementRejected SecurityEventType = "statement_rejected"
)

// Severity levels.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

const maxAuditValueLength = 200

// SecurityEvent is one auditable rejection.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	TenantID  string            `json:"tenant_id"`
	Source    models.PlanSource `json:"source"`
	UserID    string            `json:"user_id,omitempty"`
	Details   ViolationDetails  `json:"details"`
	Severity  string            `json:"severity"`
}

// ViolationDetails carries what was rejected. Statement is sanitized and
// truncated; it never reaches an end user.
type ViolationDetails struct {
	Keyword     string `json:"keyword,omitempty"`
	Table       string `json:"table,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Param       string `json:"param,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Statement   string `json:"statement,omitempty"`
}

// SecurityAuditor logs security events. A nil *SecurityAuditor discards them.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit" name.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// LogViolation records err when it is a *sqlutil.SecurityViolationError and
// ignores anything else. The user ID comes from JWT claims in ctx, if any.
//
// Example usage:
//
//	if _, err := validator.Validate(sqlText, tenantID); err != nil {
//	    auditor.LogViolation(ctx, tenantID, models.PlanSourceRemote, err)
//	}
func (a *SecurityAuditor) LogViolation(ctx context.Context, tenantID string, source models.PlanSource, err error) {
	if a == nil {
		return
	}
	var violation *sqlutil.SecurityViolationError
	if !errors.As(err, &violation) {
		return
	}

	event := SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: classify(violation),
		TenantID:  tenantID,
		Source:    source,
		UserID:    auth.GetUserIDFromContext(ctx),
		Details: ViolationDetails{
			Keyword:     violation.Keyword,
			Table:       violation.Table,
			Reason:      violation.Reason,
			Param:       violation.Param,
			Fingerprint: violation.Fingerprint,
			Statement:   logging.TruncateString(logging.SanitizeQuery(violation.SQL), maxAuditValueLength),
		},
		Severity: SeverityWarning,
	}
	if event.EventType == EventSQLInjectionAttempt || event.EventType == EventForbiddenKeyword {
		event.Severity = SeverityCritical
	}

	// marshaling known types cannot fail
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("tenant_id", tenantID),
		zap.String("source", string(source)),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	}
	if event.Severity == SeverityCritical {
		a.logger.Error("Security violation detected", fields...)
		return
	}
	a.logger.Warn("Statement rejected", fields...)
}

func classify(v *sqlutil.SecurityViolationError) SecurityEventType {
	switch {
	case v.Fingerprint != "":
		return EventSQLInjectionAttempt
	case v.Keyword != "":
		return EventForbiddenKeyword
	case v.Table != "":
		return EventRestrictedTable
	default:
		return EventStatementRejected
	}
}
