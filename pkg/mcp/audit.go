package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
)

const maxAuditParamLength = 200

// AuditLogger writes one structured log line per tool call.
type AuditLogger struct {
	logger *zap.Logger
	now    func() time.Time

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger.Named("mcp-audit"), now: time.Now}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, a.now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	fields := a.baseFields(ctx, id, req)
	if result != nil && result.IsError {
		a.logger.Warn("MCP tool call rejected", fields...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	fields := append(a.baseFields(ctx, id, req), zap.String("error", logging.SanitizeError(err)))
	a.logger.Error("MCP tool call failed", fields...)
}

func (a *AuditLogger) baseFields(ctx context.Context, id any, req *mcplib.CallToolRequest) []zap.Field {
	start, ok := a.loadAndDeleteStart(id)
	if !ok {
		start = a.now()
	}

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", a.now().Sub(start)),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
	}
	if claims, ok := auth.GetClaims(ctx); ok {
		fields = append(fields, zap.String("user_id", claims.Subject), zap.String("token_tenant_id", claims.TenantID))
	}
	return fields
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Time{}, false
}

// sanitizeParams truncates long string arguments. Questions can carry pasted
// data, so only a prefix is kept.
func sanitizeParams(args any) map[string]any {
	m, ok := args.(map[string]any)
	if !ok {
		if args == nil {
			return nil
		}
		raw, err := json.Marshal(args)
		if err != nil || json.Unmarshal(raw, &m) != nil {
			return nil
		}
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = logging.TruncateString(s, maxAuditParamLength)
			continue
		}
		out[k] = v
	}
	return out
}
