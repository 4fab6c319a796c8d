package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/history"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// InternalErrorMessage is the only failure text returned to callers once a
// request passed input validation.
const InternalErrorMessage = "Error interno, revisa los logs del servidor"

// DefaultHistoryLimit is the number of prior messages given to the remote path.
const DefaultHistoryLimit = 10

// Answer outcomes recorded in metrics.
const (
	OutcomeAnswered     = "ok"
	OutcomeUnclassified = "unclassified"
	OutcomeFailed       = "error"
)

// AssistantService answers natural-language questions for one tenant at a time.
type AssistantService interface {
	// Ask runs the answerer chain. It returns an error only for invalid input;
	// every later failure is reported as an unsuccessful response.
	Ask(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)

	// History returns the most recent messages of a thread, oldest first.
	History(ctx context.Context, tenantID, threadID string, limit int) ([]models.ChatMessage, error)
}

type assistantService struct {
	answerers    []Answerer
	history      history.Store
	historyLimit int
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// AssistantOption configures the service.
type AssistantOption func(*assistantService)

// WithHistory enables conversation memory. A non-positive limit uses DefaultHistoryLimit.
func WithHistory(store history.Store, limit int) AssistantOption {
	return func(s *assistantService) {
		s.history = store
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithMetrics records answer outcomes.
func WithMetrics(m *metrics.Metrics) AssistantOption {
	return func(s *assistantService) { s.metrics = m }
}

// NewAssistantService creates the orchestrator. Answerers are tried in order;
// the first one that does not report apperrors.ErrUnavailable answers.
func NewAssistantService(answerers []Answerer, logger *zap.Logger, opts ...AssistantOption) AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &assistantService{
		answerers:    answerers,
		historyLimit: DefaultHistoryLimit,
		logger:       logger.Named("assistant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ AssistantService = (*assistantService)(nil)

func (s *assistantService) Ask(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenant := req.Tenant()
	utterance := strings.TrimSpace(req.UserMessage)
	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}

	log := s.logger.With(zap.String("tenant_id", tenant.TenantID), zap.String("thread_id", threadID))

	prior := s.fetchHistory(ctx, log, threadID, tenant.TenantID)

	answer, err := s.answer(ctx, log, utterance, tenant, prior)
	if err != nil {
		log.Error("Failed to answer question",
			zap.String("source", string(answer.Source)),
			zap.String("error", logging.SanitizeError(err)))
		s.metrics.ObserveAnswer(string(answer.Source), OutcomeFailed)
		return &models.QueryResponse{
			Success:  false,
			Error:    InternalErrorMessage,
			ThreadID: threadID,
		}, nil
	}

	outcome := OutcomeAnswered
	if answer.Unclassified {
		outcome = OutcomeUnclassified
	}
	s.metrics.ObserveAnswer(string(answer.Source), outcome)

	s.appendHistory(ctx, log, threadID, tenant.TenantID, models.ChatRoleUser, utterance)
	s.appendHistory(ctx, log, threadID, tenant.TenantID, models.ChatRoleAssistant, answer.Text)

	return &models.QueryResponse{
		Success:  true,
		Response: answer.Text,
		ThreadID: threadID,
		Source:   answer.Source,
	}, nil
}

// answer walks the chain. On a terminal error the returned Answer carries the
// source that failed.
func (s *assistantService) answer(ctx context.Context, log *zap.Logger, utterance string, tenant models.TenantContext, prior []models.ChatMessage) (Answer, error) {
	for _, a := range s.answerers {
		res, err := a.Answer(ctx, utterance, tenant, prior)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, apperrors.ErrUnavailable) {
			log.Info("Answerer unavailable, degrading",
				zap.String("source", string(a.Source())),
				zap.String("reason", logging.SanitizeError(err)))
			continue
		}
		return Answer{Source: a.Source()}, err
	}
	return Answer{}, fmt.Errorf("%w: no answerer available", apperrors.ErrUnavailable)
}

func (s *assistantService) History(ctx context.Context, tenantID, threadID string, limit int) ([]models.ChatMessage, error) {
	if err := models.NewTenantContext(tenantID).Validate(); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, fmt.Errorf("%w: conversation history is not enabled", apperrors.ErrNotFound)
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.history.Fetch(ctx, strings.TrimSpace(threadID), strings.TrimSpace(tenantID), limit)
}

func (s *assistantService) fetchHistory(ctx context.Context, log *zap.Logger, threadID, tenantID string) []models.ChatMessage {
	if s.history == nil {
		return nil
	}
	msgs, err := s.history.Fetch(ctx, threadID, tenantID, s.historyLimit)
	if err != nil {
		log.Warn("Failed to load conversation history", zap.Error(err))
		return nil
	}
	return msgs
}

func (s *assistantService) appendHistory(ctx context.Context, log *zap.Logger, threadID, tenantID string, role models.ChatRole, content string) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, threadID, tenantID, role, content); err != nil {
		log.Warn("Failed to store conversation message", zap.String("role", string(role)), zap.Error(err))
	}
}
