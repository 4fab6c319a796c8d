// Package sql provides SQL validation, table-access checks and parameter
// templating for statements produced by either answer path.
package sql

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
)

// ForbiddenKeywords are data- and schema-mutation verbs. Matching is a plain
// substring test on the upper-cased statement, so a SELECT mentioning one of
// these words inside a string literal or comment is also rejected.
var ForbiddenKeywords = []string{
	"DROP",
	"DELETE",
	"INSERT",
	"UPDATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
}

// ErrMultipleStatements indicates the query contains multiple SQL statements.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

// SecurityViolationError carries the rejected statement. SQL is for logs only
// and must never be echoed to an end user; Error() leaves it out.
type SecurityViolationError struct {
	SQL     string
	Keyword string
	Table   string
	Reason  string

	// Param and Fingerprint are set when a template parameter was rejected.
	Param       string
	Fingerprint string
}

func (e *SecurityViolationError) Error() string {
	switch {
	case e.Keyword != "":
		return fmt.Sprintf("security violation: forbidden keyword %s", e.Keyword)
	case e.Table != "":
		return fmt.Sprintf("security violation: table %s is not accessible", e.Table)
	default:
		return "security violation: " + e.Reason
	}
}

// Unwrap lets callers match with errors.Is(err, apperrors.ErrSecurityViolation).
func (e *SecurityViolationError) Unwrap() error {
	return apperrors.ErrSecurityViolation
}

// TableCatalog answers table-level access questions. schema.KnowledgeBase implements it.
type TableCatalog interface {
	IsAccessible(tableName string) bool
	IsTenantIsolated(tableName string) bool
}

// Validator inspects candidate statements before execution.
type Validator struct {
	catalog         TableCatalog
	logger          *zap.Logger
	onTenantWarning func()
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTenantWarningHook registers a callback fired on every tenant-scope warning.
func WithTenantWarningHook(fn func()) ValidatorOption {
	return func(v *Validator) { v.onTenantWarning = fn }
}

// NewValidator creates a Validator. A nil catalog disables table checks.
func NewValidator(catalog TableCatalog, logger *zap.Logger, opts ...ValidatorOption) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Validator{catalog: catalog, logger: logger.Named("sql-validator")}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the normalized statement or a *SecurityViolationError.
//
// Order:
//  1. forbidden keyword anywhere in the upper-cased text
//  2. normalization (trailing semicolon) and multiple-statement check
//  3. every referenced table must be accessible
//  4. tenant id must appear literally, otherwise a warning is logged; this
//     step never blocks execution
func (v *Validator) Validate(sqlText, tenantID string) (string, error) {
	if kw := FindForbiddenKeyword(sqlText); kw != "" {
		return "", &SecurityViolationError{SQL: sqlText, Keyword: kw}
	}

	result := ValidateAndNormalize(sqlText)
	if result.Error != nil {
		return "", &SecurityViolationError{SQL: sqlText, Reason: result.Error.Error()}
	}
	normalized := result.NormalizedSQL
	if normalized == "" {
		return "", &SecurityViolationError{SQL: sqlText, Reason: "empty statement"}
	}

	tables := ReferencedTables(normalized)
	if err := v.checkTables(normalized, tables); err != nil {
		return "", err
	}

	if tenantID == "" || !strings.Contains(normalized, tenantID) {
		v.warnTenantScope(normalized, tenantID, tables)
	}

	return normalized, nil
}

// CheckTableAccess only runs the table-level check. Local-engine templates bind
// the tenant as a parameter, so the literal tenant check does not apply to them.
func (v *Validator) CheckTableAccess(sqlText string) error {
	return v.checkTables(sqlText, ReferencedTables(sqlText))
}

func (v *Validator) checkTables(sqlText string, tables []string) error {
	if v.catalog == nil {
		return nil
	}
	for _, t := range tables {
		if !v.catalog.IsAccessible(t) {
			return &SecurityViolationError{SQL: sqlText, Table: t}
		}
	}
	return nil
}

func (v *Validator) warnTenantScope(sqlText, tenantID string, tables []string) {
	var isolated []string
	if v.catalog != nil {
		for _, t := range tables {
			if v.catalog.IsTenantIsolated(t) {
				isolated = append(isolated, t)
			}
		}
	}
	v.logger.Warn("Statement does not reference tenant id literally",
		zap.String("tenant_id", tenantID),
		zap.Strings("tenant_scoped_tables", isolated),
		zap.String("sql", logging.SanitizeQuery(sqlText)))
	if v.onTenantWarning != nil {
		v.onTenantWarning()
	}
}

// FindForbiddenKeyword returns the first forbidden keyword contained in the
// statement, or "" when there is none.
func FindForbiddenKeyword(sqlText string) string {
	upper := strings.ToUpper(sqlText)
	for _, kw := range ForbiddenKeywords {
		if strings.Contains(upper, kw) {
			return kw
		}
	}
	return ""
}

// StripCodeFences removes markdown code-fence markers (``` and ```sql) and trims.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```SQL", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// LooksLikeSelect reports whether text starts with SELECT, ignoring case.
func LooksLikeSelect(text string) bool {
	text = strings.TrimSpace(text)
	return len(text) >= 6 && strings.EqualFold(text[:6], "SELECT")
}
