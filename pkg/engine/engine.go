// Package engine is the deterministic local answer path: keyword intent
// classification, fixed SQL templates per intent and Spanish response rendering.
// It needs no network access and is used when the reasoning service is unavailable.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// Engine holds read-only configuration; it is safe for concurrent use.
type Engine struct {
	dialect   datastore.Dialect
	templates map[models.IntentType]string
	location  *time.Location
	logger    *zap.Logger
}

// New creates an Engine for dialect. Times are rendered in loc (UTC when nil).
func New(dialect datastore.Dialect, loc *time.Location, logger *zap.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		dialect:   dialect,
		templates: templatesFor(dialect),
		location:  loc,
		logger:    logger.Named("local-engine"),
	}
}

// DetectIntent classifies text. See the package-level DetectIntent.
func (e *Engine) DetectIntent(text string) models.Intent {
	return DetectIntent(text)
}

// GenerateSQL maps a known intent to its template and binds the tenant id and,
// for individual attendance, the entity as a case-insensitive fuzzy match.
// UNKNOWN intents return apperrors.ErrUnclassifiedIntent and no plan.
func (e *Engine) GenerateSQL(intent models.Intent, tenant models.TenantContext) (*models.QueryPlan, error) {
	if !intent.IsKnown() {
		return nil, apperrors.ErrUnclassifiedIntent
	}
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	tmpl, ok := e.templates[intent.Type]
	if !ok {
		return nil, fmt.Errorf("no %s template for intent %s", e.dialect, intent.Type)
	}

	values := map[string]any{paramTenantID: tenant.TenantID}
	if intent.Type == models.IntentAttendanceIndividual {
		values[paramEntity] = containsPattern(intent.Entity)
	}

	prepared, args, err := sqlutil.SubstituteParameters(tmpl, values, e.dialect.Placeholders())
	if err != nil {
		return nil, fmt.Errorf("bind %s template: %w", intent.Type, err)
	}

	e.logger.Debug("Generated local plan",
		zap.String("intent", string(intent.Type)),
		zap.String("dialect", string(e.dialect)))

	return &models.QueryPlan{
		SQL:      prepared,
		Params:   args,
		TenantID: tenant.TenantID,
		Source:   models.PlanSourceLocal,
	}, nil
}

// TemplateParameters returns the string parameters bound by GenerateSQL for intent,
// keyed by name, for injection screening.
func (e *Engine) TemplateParameters(intent models.Intent) map[string]any {
	if intent.Type != models.IntentAttendanceIndividual {
		return nil
	}
	return map[string]any{paramEntity: intent.Entity}
}
