package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
)

// ChatRole identifies the author of a stored chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of a conversation thread.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryRequest is the inbound contract of the assistant.
type QueryRequest struct {
	UserMessage string `json:"userMessage"`
	TenantID    string `json:"tenantId"`
	ThreadID    string `json:"threadId,omitempty"`
}

// Validate checks required fields before orchestration begins.
func (r *QueryRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(r.UserMessage) == "" {
		return fmt.Errorf("%w: userMessage is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(r.TenantID) == "" {
		return fmt.Errorf("%w: tenantId is required", apperrors.ErrInvalidInput)
	}
	return nil
}

// Tenant returns the tenant context carried by the request.
func (r *QueryRequest) Tenant() TenantContext {
	return NewTenantContext(r.TenantID)
}

// QueryResponse is the outbound contract. Error is only set when Success is false.
type QueryResponse struct {
	Success  bool       `json:"success"`
	Response string     `json:"response,omitempty"`
	Error    string     `json:"error,omitempty"`
	ThreadID string     `json:"threadId,omitempty"`
	Source   PlanSource `json:"source,omitempty"`
}
