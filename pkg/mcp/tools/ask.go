package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/middleware"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/services"
)

// AskToolName is the tool that answers an operational question.
const AskToolName = "ask_operations"

// AskToolDeps contains dependencies for the ask tool.
type AskToolDeps struct {
	Assistant services.AssistantService
	Limiter   *middleware.TenantRateLimiter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// RegisterAskTool adds ask_operations to the MCP server.
func RegisterAskTool(s *server.MCPServer, deps *AskToolDeps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tool := mcp.NewTool(
		AskToolName,
		mcp.WithDescription(
			"Answer a question in Spanish about a tenant's operations: projects, staff, attendance marks and safety findings. "+
				"Returns a narrated answer. Pass threadId to continue a conversation.",
		),
		mcp.WithString("tenantId", mcp.Required(), mcp.Description("Tenant whose data is queried")),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in natural language, e.g. 'cuantas personas marcaron hoy'")),
		mcp.WithString("threadId", mcp.Description("Conversation thread to continue (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenantId")
		if err != nil {
			return NewErrorResult(codeInvalidInput, err.Error()), nil
		}
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult(codeInvalidInput, err.Error()), nil
		}

		query := &models.QueryRequest{
			UserMessage: question,
			TenantID:    tenantID,
			ThreadID:    getOptionalString(req, "threadId"),
		}
		if err := query.Validate(); err != nil {
			return NewErrorResult(codeInvalidInput, err.Error()), nil
		}
		tenant := query.Tenant().TenantID

		if err := auth.AuthorizeTenant(ctx, tenant); err != nil {
			logger.Warn("Tenant not allowed by token",
				zap.String("tenant_id", tenant),
				zap.String("user_id", auth.GetUserIDFromContext(ctx)))
			return NewErrorResult(codeForbidden, "the access token does not grant this tenant"), nil
		}
		if !deps.Limiter.Allow(tenant) {
			deps.Metrics.ObserveRateLimited()
			return NewErrorResult(codeRateLimited, "too many questions for this tenant, retry shortly"), nil
		}

		resp, err := deps.Assistant.Ask(ctx, query)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidInput) {
				return NewErrorResult(codeInvalidInput, err.Error()), nil
			}
			return nil, fmt.Errorf("ask failed: %w", err)
		}
		if !resp.Success {
			return NewErrorResult(codeInternalError, resp.Error), nil
		}

		return newJSONResult(resp)
	})
}
