package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/audit"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/llm"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/prompts"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// Default sampling temperatures of the two reasoning calls.
const (
	DefaultGenerateTemperature = 0.1
	DefaultNarrateTemperature  = 0.4
)

// SchemaSource provides the schema text embedded in prompts.
type SchemaSource interface {
	SchemaSummary() string
}

// RemoteAnswerer asks the reasoning service for SQL or prose, validates and
// runs the SQL, then asks the service again to narrate the rows.
type RemoteAnswerer struct {
	generator           llm.Generator
	schema              SchemaSource
	validator           *sqlutil.Validator
	store               datastore.Store
	metrics             *metrics.Metrics
	auditor             *audit.SecurityAuditor
	generateTemperature float64
	narrateTemperature  float64
	logger              *zap.Logger
}

// RemoteAnswererConfig holds the dependencies of a RemoteAnswerer.
type RemoteAnswererConfig struct {
	Generator           llm.Generator
	Schema              SchemaSource
	Validator           *sqlutil.Validator
	Store               datastore.Store
	Metrics             *metrics.Metrics
	Auditor             *audit.SecurityAuditor
	GenerateTemperature float64 // 0 uses DefaultGenerateTemperature
	NarrateTemperature  float64 // 0 uses DefaultNarrateTemperature
}

func NewRemoteAnswerer(cfg RemoteAnswererConfig, logger *zap.Logger) *RemoteAnswerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &RemoteAnswerer{
		generator:           cfg.Generator,
		schema:              cfg.Schema,
		validator:           cfg.Validator,
		store:               cfg.Store,
		metrics:             cfg.Metrics,
		auditor:             cfg.Auditor,
		generateTemperature: cfg.GenerateTemperature,
		narrateTemperature:  cfg.NarrateTemperature,
		logger:              logger.Named("remote-answerer"),
	}
	if r.generateTemperature == 0 {
		r.generateTemperature = DefaultGenerateTemperature
	}
	if r.narrateTemperature == 0 {
		r.narrateTemperature = DefaultNarrateTemperature
	}
	return r
}

var _ Answerer = (*RemoteAnswerer)(nil)

func (r *RemoteAnswerer) Source() models.PlanSource { return models.PlanSourceRemote }

func (r *RemoteAnswerer) Answer(ctx context.Context, utterance string, tenant models.TenantContext, history []models.ChatMessage) (Answer, error) {
	if r.generator == nil {
		return Answer{}, fmt.Errorf("%w: no reasoning service", apperrors.ErrUnavailable)
	}

	system := prompts.BuildSystemPrompt(r.schema.SchemaSummary(), tenant.TenantID)
	text, ok := r.generator.Generate(ctx, system, prompts.BuildUserPrompt(utterance, history), r.generateTemperature)
	if !ok {
		return Answer{}, fmt.Errorf("%w: reasoning service did not answer", apperrors.ErrUnavailable)
	}

	cleaned := sqlutil.StripCodeFences(text)
	if cleaned == "" {
		// Empty and fence-only replies count as unavailable, so the request
		// degrades to the local engine rather than answering with nothing.
		return Answer{}, fmt.Errorf("%w: empty reasoning response", apperrors.ErrUnavailable)
	}

	if !sqlutil.LooksLikeSelect(cleaned) {
		return Answer{Text: cleaned, Source: models.PlanSourceRemote}, nil
	}

	plan := models.QueryPlan{SQL: cleaned, TenantID: tenant.TenantID, Source: models.PlanSourceRemote}
	rows, err := r.execute(ctx, plan)
	if err != nil {
		return Answer{}, err
	}

	return Answer{Text: r.narrate(ctx, utterance, rows), Source: models.PlanSourceRemote}, nil
}

func (r *RemoteAnswerer) execute(ctx context.Context, plan models.QueryPlan) (models.Rows, error) {
	validated, err := r.validator.Validate(plan.SQL, plan.TenantID)
	if err != nil {
		r.metrics.ObserveSecurityViolation(string(plan.Source))
		r.auditor.LogViolation(ctx, plan.TenantID, plan.Source, err)
		return nil, fmt.Errorf("validate generated SQL: %w", err)
	}

	r.logger.Debug("Executing generated statement",
		zap.String("tenant_id", plan.TenantID),
		zap.String("sql", logging.SanitizeQuery(validated)))

	rows, err := r.store.Query(ctx, validated, plan.Params)
	if err != nil {
		return nil, fmt.Errorf("execute generated SQL: %w", err)
	}
	return rows, nil
}

func (r *RemoteAnswerer) narrate(ctx context.Context, utterance string, rows models.Rows) string {
	resultJSON, err := json.Marshal(rows)
	if err != nil {
		r.logger.Error("Failed to encode result set", zap.Error(err))
		return prompts.FallbackNarration
	}

	text, ok := r.generator.Generate(ctx,
		prompts.BuildNarrationSystemPrompt(),
		prompts.BuildNarrationUserPrompt(utterance, string(resultJSON)),
		r.narrateTemperature)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		r.logger.Warn("Narration unavailable, using fallback sentence", zap.Int("rows", len(rows)))
		return prompts.FallbackNarration
	}
	return text
}
