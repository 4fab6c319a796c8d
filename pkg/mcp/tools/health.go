package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the health tool can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResult struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
func RegisterHealthTool(s *server.MCPServer, version string, checks map[string]Pinger) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if len(checks) > 0 {
			result.Checks = make(map[string]string, len(checks))
		}
		for name, p := range checks {
			pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			err := p.Ping(pingCtx)
			cancel()
			if err != nil {
				result.Checks[name] = "unavailable"
				result.Status = "degraded"
				continue
			}
			result.Checks[name] = "ok"
		}
		return newJSONResult(result)
	})
}
