package handlers

import (
	"context"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

type mockAssistant struct {
	askFunc     func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	historyFunc func(ctx context.Context, tenantID, threadID string, limit int) ([]models.ChatMessage, error)
	asked       []*models.QueryRequest
}

func (m *mockAssistant) Ask(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	m.asked = append(m.asked, req)
	if m.askFunc != nil {
		return m.askFunc(ctx, req)
	}
	return &models.QueryResponse{Success: true, Response: "ok", ThreadID: "t-1", Source: models.PlanSourceLocal}, nil
}

func (m *mockAssistant) History(ctx context.Context, tenantID, threadID string, limit int) ([]models.ChatMessage, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, tenantID, threadID, limit)
	}
	return nil, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
