package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/middleware"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/services"
)

// maxChatBodyBytes bounds the POST /api/chat body.
const maxChatBodyBytes = 64 << 10

// Client-facing messages. They never carry tenant ids or SQL.
const (
	msgInvalidBody    = "Cuerpo de la solicitud inválido"
	msgTenantMismatch = "El token no permite consultar este tenant"
	msgRateLimited    = "Demasiadas consultas, intenta nuevamente en unos segundos"
)

// HistoryResponse lists the messages of one thread.
type HistoryResponse struct {
	ThreadID string               `json:"threadId"`
	Messages []models.ChatMessage `json:"messages"`
}

// ChatHandler exposes the assistant over HTTP.
type ChatHandler struct {
	assistant services.AssistantService
	limiter   *middleware.TenantRateLimiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewChatHandler creates a ChatHandler. A nil limiter disables rate limiting.
func NewChatHandler(assistant services.AssistantService, limiter *middleware.TenantRateLimiter, m *metrics.Metrics, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		assistant: assistant,
		limiter:   limiter,
		metrics:   m,
		logger:    logger.Named("chat-handler"),
	}
}

// RegisterRoutes registers the chat routes. authWrap guards both routes.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authWrap func(http.Handler) http.Handler) {
	mux.Handle("POST /api/chat", authWrap(http.HandlerFunc(h.Ask)))
	mux.Handle("GET /api/chat/history", authWrap(http.HandlerFunc(h.History)))
}

// Ask handles POST /api/chat.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeChat(w, http.StatusBadRequest, &models.QueryResponse{Error: msgInvalidBody})
		return
	}

	if err := req.Validate(); err != nil {
		h.writeChat(w, http.StatusBadRequest, &models.QueryResponse{Error: clientMessage(err)})
		return
	}

	if !h.authorize(w, r, req.Tenant().TenantID) {
		return
	}

	resp, err := h.assistant.Ask(r.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeChat(w, http.StatusBadRequest, &models.QueryResponse{Error: clientMessage(err)})
			return
		}
		h.logger.Error("Assistant returned an unexpected error", zap.Error(err))
		h.writeChat(w, http.StatusInternalServerError, &models.QueryResponse{Error: services.InternalErrorMessage})
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	h.writeChat(w, status, resp)
}

// History handles GET /api/chat/history?tenantId=&threadId=&limit=.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := models.NewTenantContext(q.Get("tenantId")).TenantID
	threadID := strings.TrimSpace(q.Get("threadId"))
	if tenantID == "" || threadID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "tenantId y threadId son obligatorios")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "limit debe ser un entero positivo")
			return
		}
		limit = n
	}

	if !h.authorize(w, r, tenantID) {
		return
	}

	msgs, err := h.assistant.History(r.Context(), tenantID, threadID, limit)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "El historial de conversaciones no está habilitado")
		return
	case errors.Is(err, apperrors.ErrInvalidInput):
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", clientMessage(err))
		return
	case err != nil:
		h.logger.Error("Failed to fetch history", zap.String("tenant_id", tenantID), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", services.InternalErrorMessage)
		return
	}

	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: HistoryResponse{ThreadID: threadID, Messages: msgs}}); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

// authorize enforces the token tenant binding and the per-tenant rate limit.
func (h *ChatHandler) authorize(w http.ResponseWriter, r *http.Request, tenantID string) bool {
	if err := auth.AuthorizeTenant(r.Context(), tenantID); err != nil {
		h.logger.Warn("Tenant not allowed by token",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", auth.GetUserIDFromContext(r.Context())))
		h.writeChat(w, http.StatusForbidden, &models.QueryResponse{Error: msgTenantMismatch})
		return false
	}
	if !h.limiter.Allow(tenantID) {
		h.metrics.ObserveRateLimited()
		w.Header().Set("Retry-After", "1")
		h.writeChat(w, http.StatusTooManyRequests, &models.QueryResponse{Error: msgRateLimited})
		return false
	}
	return true
}

func (h *ChatHandler) writeChat(w http.ResponseWriter, status int, resp *models.QueryResponse) {
	if err := WriteJSON(w, status, resp); err != nil {
		h.logger.Error("Failed to encode chat response", zap.Error(err))
	}
}

// clientMessage strips the sentinel prefix from an input error.
func clientMessage(err error) string {
	msg, _ := strings.CutPrefix(err.Error(), apperrors.ErrInvalidInput.Error()+": ")
	return msg
}
