package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// Error codes returned inside tool results.
const (
	codeInvalidInput   = "invalid_input"
	codeForbidden      = "forbidden"
	codeRateLimited    = "rate_limited"
	codeInternalError  = "internal_error"
)

// ErrorResponse represents a structured error in tool results.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error. Use it
// for failures the caller can act on (bad arguments, wrong tenant, throttling).
// Infrastructure failures are returned as Go errors instead.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{Error: true, Code: code, Message: message})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// newJSONResult marshals v into a text tool result.
func newJSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
