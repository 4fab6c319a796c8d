package services

import (
	"context"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// Answer is the text produced by one Answerer.
type Answer struct {
	Text   string
	Source models.PlanSource

	// Unclassified is set when the local engine could not classify the question.
	Unclassified bool
}

// Answerer turns an utterance into text for one tenant. It returns an error
// wrapping apperrors.ErrUnavailable when it cannot serve the request, so the
// orchestrator can move to the next Answerer. Any other error ends the request.
type Answerer interface {
	Source() models.PlanSource
	Answer(ctx context.Context, utterance string, tenant models.TenantContext, history []models.ChatMessage) (Answer, error)
}
