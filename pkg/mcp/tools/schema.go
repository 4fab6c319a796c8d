package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
)

// SchemaToolName is the tool that describes the queryable tables.
const SchemaToolName = "describe_schema"

// SchemaDescriber renders catalog fragments. schema.KnowledgeBase implements it.
type SchemaDescriber interface {
	SchemaForTopic(topic string) string
	Topics() []string
}

type schemaResult struct {
	Topic  string   `json:"topic"`
	Schema string   `json:"schema"`
	Topics []string `json:"topics"`
}

// RegisterSchemaTool adds describe_schema to the MCP server. Restricted
// tables never appear in its output.
func RegisterSchemaTool(s *server.MCPServer, catalog SchemaDescriber) {
	tool := mcp.NewTool(
		SchemaToolName,
		mcp.WithDescription("Describe the tables the assistant can query, optionally narrowed to a topic such as ATTENDANCE or SAFETY."),
		mcp.WithString("topic", mcp.Description("Topic name (optional, defaults to GENERAL)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic := strings.ToUpper(getOptionalString(req, "topic"))
		if topic == "" {
			topic = schema.DefaultTopic
		}
		return newJSONResult(schemaResult{
			Topic:  topic,
			Schema: catalog.SchemaForTopic(topic),
			Topics: catalog.Topics(),
		})
	})
}
