// Package history persists chat threads. The assistant works without it;
// a configured store only enriches prompts with recent turns.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// Store appends and fetches messages of a thread. Every call is scoped to one
// tenant: a thread id of another tenant yields nothing.
type Store interface {
	Append(ctx context.Context, threadID, tenantID string, role models.ChatRole, content string) error
	// Fetch returns up to limit of the most recent messages, oldest first.
	Fetch(ctx context.Context, threadID, tenantID string, limit int) ([]models.ChatMessage, error)
}

func validateKey(threadID, tenantID string) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("%w: threadId is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("%w: tenantId is required", apperrors.ErrInvalidInput)
	}
	return nil
}
