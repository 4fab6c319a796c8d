package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/middleware"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
)

type mockAssistant struct {
	askFunc func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	asked   []*models.QueryRequest
}

func (m *mockAssistant) Ask(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	m.asked = append(m.asked, req)
	if m.askFunc != nil {
		return m.askFunc(ctx, req)
	}
	return &models.QueryResponse{Success: true, Response: "Hay 3 proyectos activos.", ThreadID: "t-1", Source: models.PlanSourceRemote}, nil
}

func (m *mockAssistant) History(context.Context, string, string, int) ([]models.ChatMessage, error) {
	return nil, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type toolResponse struct {
	Result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// callTool executes an MCP tool via the server's HandleMessage method.
func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	reqBytes, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	result := s.HandleMessage(ctx, reqBytes)
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return resp
}

func errorCode(t *testing.T, resp toolResponse) string {
	t.Helper()
	require.True(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &e))
	return e.Code
}

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}

func TestAskTool_Answers(t *testing.T) {
	s := newTestServer()
	assistant := &mockAssistant{}
	RegisterAskTool(s, &AskToolDeps{Assistant: assistant, Logger: zap.NewNop()})

	resp := callTool(t, context.Background(), s, AskToolName, map[string]any{
		"tenantId": " acme ",
		"question": "cuantos proyectos activos hay",
		"threadId": "t-1",
	})

	require.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	var out models.QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "Hay 3 proyectos activos.", out.Response)

	require.Len(t, assistant.asked, 1)
	assert.Equal(t, "t-1", assistant.asked[0].ThreadID)
	assert.Equal(t, "cuantos proyectos activos hay", assistant.asked[0].UserMessage)
}

func TestAskTool_Rejections(t *testing.T) {
	tokenCtx := auth.WithClaims(context.Background(), &auth.Claims{TenantID: "acme"}, "token")

	tests := []struct {
		name     string
		ctx      context.Context
		args     map[string]any
		askFunc  func(context.Context, *models.QueryRequest) (*models.QueryResponse, error)
		wantCode string
		wantAsk  bool
	}{
		{
			name:     "missing tenant",
			ctx:      context.Background(),
			args:     map[string]any{"question": "hola"},
			wantCode: codeInvalidInput,
		},
		{
			name:     "blank question",
			ctx:      context.Background(),
			args:     map[string]any{"tenantId": "acme", "question": "   "},
			wantCode: codeInvalidInput,
		},
		{
			name:     "token for another tenant",
			ctx:      tokenCtx,
			args:     map[string]any{"tenantId": "globex", "question": "proyectos activos"},
			wantCode: codeForbidden,
		},
		{
			name: "orchestration failure",
			ctx:  tokenCtx,
			args: map[string]any{"tenantId": "acme", "question": "proyectos activos"},
			askFunc: func(context.Context, *models.QueryRequest) (*models.QueryResponse, error) {
				return &models.QueryResponse{Success: false, Error: "Error interno, revisa los logs del servidor"}, nil
			},
			wantCode: codeInternalError,
			wantAsk:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			assistant := &mockAssistant{askFunc: tt.askFunc}
			RegisterAskTool(s, &AskToolDeps{Assistant: assistant})

			resp := callTool(t, tt.ctx, s, AskToolName, tt.args)
			assert.Equal(t, tt.wantCode, errorCode(t, resp))
			assert.Equal(t, tt.wantAsk, len(assistant.asked) == 1)
		})
	}
}

func TestAskTool_InfrastructureErrorIsProtocolError(t *testing.T) {
	s := newTestServer()
	RegisterAskTool(s, &AskToolDeps{Assistant: &mockAssistant{
		askFunc: func(context.Context, *models.QueryRequest) (*models.QueryResponse, error) {
			return nil, errors.New("history store unreachable")
		},
	}})

	resp := callTool(t, context.Background(), s, AskToolName, map[string]any{"tenantId": "acme", "question": "hola"})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "ask failed")
}

func TestAskTool_RateLimited(t *testing.T) {
	s := newTestServer()
	assistant := &mockAssistant{}
	RegisterAskTool(s, &AskToolDeps{Assistant: assistant, Limiter: middleware.NewTenantRateLimiter(0.001, 2)})

	args := map[string]any{"tenantId": "acme", "question": "proyectos activos"}
	for i := 0; i < 2; i++ {
		resp := callTool(t, context.Background(), s, AskToolName, args)
		require.False(t, resp.Result.IsError, fmt.Sprintf("call %d", i))
	}

	resp := callTool(t, context.Background(), s, AskToolName, args)
	assert.Equal(t, codeRateLimited, errorCode(t, resp))
	assert.Len(t, assistant.asked, 2)

	other := callTool(t, context.Background(), s, AskToolName, map[string]any{"tenantId": "globex", "question": "proyectos activos"})
	assert.False(t, other.Result.IsError, "buckets are per tenant")
}

func TestSchemaTool(t *testing.T) {
	s := newTestServer()
	RegisterSchemaTool(s, schema.MustDefault())

	tests := []struct {
		topic     string
		wantTopic string
		contains  string
	}{
		{topic: "", wantTopic: schema.DefaultTopic, contains: "projects"},
		{topic: "safety", wantTopic: "SAFETY", contains: "safety_findings"},
	}

	for _, tt := range tests {
		t.Run(tt.wantTopic, func(t *testing.T) {
			args := map[string]any{}
			if tt.topic != "" {
				args["topic"] = tt.topic
			}
			resp := callTool(t, context.Background(), s, SchemaToolName, args)
			require.False(t, resp.Result.IsError)

			var out schemaResult
			require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
			assert.Equal(t, tt.wantTopic, out.Topic)
			assert.Contains(t, out.Schema, tt.contains)
			assert.NotContains(t, out.Schema, "api_keys")
		})
	}
}

func TestHealthTool(t *testing.T) {
	s := newTestServer()
	RegisterHealthTool(s, "1.2.3", map[string]Pinger{
		"datastore": stubPinger{},
		"redis":     stubPinger{err: errors.New("connection refused")},
	})

	resp := callTool(t, context.Background(), s, "health", nil)
	require.False(t, resp.Result.IsError)

	var out healthResult
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, "1.2.3", out.Version)
	assert.Equal(t, map[string]string{"datastore": "ok", "redis": "unavailable"}, out.Checks)
}

func TestToolsList(t *testing.T) {
	s := newTestServer()
	RegisterAskTool(s, &AskToolDeps{Assistant: &mockAssistant{}})
	RegisterSchemaTool(s, schema.MustDefault())
	RegisterHealthTool(s, "dev", nil)

	result := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	var names []string
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{AskToolName, SchemaToolName, "health"}, names)
}
