package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/audit"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/engine"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// LocalAnswerer answers with the deterministic engine. It is always available.
type LocalAnswerer struct {
	engine    *engine.Engine
	validator *sqlutil.Validator
	store     datastore.Store
	metrics   *metrics.Metrics
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger
}

// LocalAnswererOption configures a LocalAnswerer.
type LocalAnswererOption func(*LocalAnswerer)

// WithSecurityAuditor records rejected plans as security events.
func WithSecurityAuditor(a *audit.SecurityAuditor) LocalAnswererOption {
	return func(l *LocalAnswerer) { l.auditor = a }
}

func NewLocalAnswerer(eng *engine.Engine, validator *sqlutil.Validator, store datastore.Store, m *metrics.Metrics, logger *zap.Logger, opts ...LocalAnswererOption) *LocalAnswerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &LocalAnswerer{
		engine:    eng,
		validator: validator,
		store:     store,
		metrics:   m,
		logger:    logger.Named("local-answerer"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ Answerer = (*LocalAnswerer)(nil)

func (l *LocalAnswerer) Source() models.PlanSource { return models.PlanSourceLocal }

// Answer ignores history; templates answer single questions only.
func (l *LocalAnswerer) Answer(ctx context.Context, utterance string, tenant models.TenantContext, _ []models.ChatMessage) (Answer, error) {
	intent := l.engine.DetectIntent(utterance)
	if !intent.IsKnown() {
		l.logger.Info("Question not classified", zap.String("tenant_id", tenant.TenantID))
		return Answer{Text: engine.UnclassifiedMessage, Source: models.PlanSourceLocal, Unclassified: true}, nil
	}

	plan, err := l.engine.GenerateSQL(intent, tenant)
	if err != nil {
		return Answer{}, fmt.Errorf("generate local plan: %w", err)
	}

	if err := l.validator.CheckTableAccess(plan.SQL); err != nil {
		l.metrics.ObserveSecurityViolation(string(plan.Source))
		l.auditor.LogViolation(ctx, tenant.TenantID, plan.Source, err)
		return Answer{}, fmt.Errorf("validate local plan: %w", err)
	}
	if err := sqlutil.ScreenParameters(l.engine.TemplateParameters(intent)); err != nil {
		l.metrics.ObserveSecurityViolation(string(plan.Source))
		l.auditor.LogViolation(ctx, tenant.TenantID, plan.Source, err)
		return Answer{}, fmt.Errorf("screen local plan parameters: %w", err)
	}

	rows, err := l.store.Query(ctx, plan.SQL, plan.Params)
	if err != nil {
		return Answer{}, fmt.Errorf("execute local plan: %w", err)
	}

	l.logger.Debug("Local plan answered",
		zap.String("intent", string(intent.Type)),
		zap.Int("rows", len(rows)))

	return Answer{Text: l.engine.FormatResponse(intent, rows), Source: models.PlanSourceLocal}, nil
}
