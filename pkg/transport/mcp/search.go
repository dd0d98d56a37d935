package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// Meta-tool names for Search mode, per SPEC_FULL.md §4.7.
const (
	metaToolList = "list_tool"
	metaToolFind = "find_tool"
	metaToolCall = "call_tool"
)

const listToolSchema = `{
	"type": "object",
	"description": "List tools the server can run. Use this when you need full tool metadata (schemas, tags) before deciding what to call.",
	"properties": {
		"page_size": {"type": "integer", "minimum": 0, "description": "Max tools to return in this page."},
		"page_token": {"type": "string", "description": "Token from a previous list response to fetch the next page."}
	},
	"additionalProperties": false
}`

const findToolSchema = `{
	"type": "object",
	"description": "Search tools by semantic similarity. Provide a plain-language query and the server will embed it.",
	"properties": {
		"query": {"type": "string", "description": "Search query text describing what you want to do."},
		"page_size": {"type": "integer", "minimum": 0, "description": "Max results to return."},
		"page_token": {"type": "string", "description": "Accepted but ignored: search returns a single page of results."}
	},
	"required": ["query"],
	"additionalProperties": false
}`

const callToolSchema = `{
	"type": "object",
	"description": "Invoke a tool by name. Use tool schemas from list/find to construct valid input.",
	"properties": {
		"name": {"type": "string", "description": "Tool name to invoke (crate.tool or tools/{crate.tool})."},
		"input": {"type": "object", "description": "Tool input object matching the tool's input schema."}
	},
	"required": ["name"],
	"additionalProperties": false
}`

// registerSearchTools exposes the three Search-mode meta-tools instead of
// the registry itself, per SPEC_FULL.md §4.7.
func registerSearchTools(mcpServer *server.MCPServer, runtime *pipeline.Runtime) {
	mcpServer.AddTool(mcp.Tool{
		Name:           metaToolList,
		Description:    "List available tools with pagination.",
		RawInputSchema: []byte(listToolSchema),
	}, listToolHandler(runtime))

	mcpServer.AddTool(mcp.Tool{
		Name:           metaToolFind,
		Description:    "Search tools using a query string.",
		RawInputSchema: []byte(findToolSchema),
	}, findToolHandler(runtime))

	mcpServer.AddTool(mcp.Tool{
		Name:           metaToolCall,
		Description:    "Invoke a tool by name with structured input.",
		RawInputSchema: []byte(callToolSchema),
	}, searchCallToolHandler(runtime))
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func argPageSize(args map[string]any) int {
	switch v := args["page_size"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func listToolHandler(runtime *pipeline.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		resp, err := runtime.ListTools(ctx, argPageSize(args), argString(args, "page_token"))
		if err != nil {
			return nil, translateStatus(err)
		}
		return structuredJSON(listToolsResponseJSON(resp))
	}
}

func findToolHandler(runtime *pipeline.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		query := argString(args, "query")
		if strings.TrimSpace(query) == "" {
			return nil, invalidParams("query must be non-empty")
		}

		resp, err := runtime.SearchTools(ctx, nil, query, argPageSize(args), argString(args, "page_token"))
		if err != nil {
			return nil, translateStatus(err)
		}
		return structuredJSON(searchToolsResponseJSON(resp))
	}
}

func searchCallToolHandler(runtime *pipeline.Runtime) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		name := argString(args, "name")
		if name == "" {
			return nil, invalidParams("name must be non-empty")
		}

		var input json.RawMessage
		if raw, ok := args["input"]; ok && raw != nil {
			obj, ok := raw.(map[string]any)
			if !ok {
				return nil, invalidParams("input must be an object")
			}
			encoded, err := json.Marshal(obj)
			if err != nil {
				return nil, invalidParams("failed to encode input: %v", err)
			}
			input = encoded
		}

		qualifiedName := name
		if _, ok := pipeline.StripToolPrefix(name); !ok {
			qualifiedName = pipeline.AddToolPrefix(name)
		}

		meta := pipeline.CallMetadata{RequestID: uuid.New().String(), SessionID: sessionIDFromContext(ctx)}
		resp, err := runtime.CallTool(ctx, pipeline.CallRequest{Name: qualifiedName, Input: input}, meta)
		if err != nil {
			return nil, translateStatus(err)
		}

		if resp.IsError {
			return structuredJSON(map[string]any{"error": resp.ErrorMessage})
		}
		var output any
		if len(resp.Output) > 0 {
			_ = json.Unmarshal(resp.Output, &output)
		}
		return structuredJSON(map[string]any{"output": output})
	}
}

// structuredJSON marshals value to JSON text content. SPEC_FULL.md §4.7
// calls this "structured content"; this package realizes it as JSON text
// content, matching the one confirmed mcp-go usage in the example pack for
// non-string tool return values (marshal-then-NewToolResultText).
func structuredJSON(value any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &protocolError{token: "internal_error", message: err.Error()}
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolWireJSON(tool pipeline.ToolWire) map[string]any {
	return map[string]any{
		"name":              tool.Name,
		"display_name":      tool.DisplayName,
		"description":       tool.Description,
		"input_schema":      tool.InputSchema,
		"output_schema":     tool.OutputSchema,
		"credential_schema": tool.CredentialSchema,
		"capabilities":      tool.Capabilities,
		"tags":              tool.Tags,
	}
}

func listToolsResponseJSON(resp *pipeline.ListResponse) map[string]any {
	tools := make([]map[string]any, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		tools = append(tools, toolWireJSON(t))
	}
	return map[string]any{"tools": tools, "next_page_token": resp.NextPageToken}
}

func searchToolsResponseJSON(resp *pipeline.SearchResponse) map[string]any {
	results := make([]map[string]any, 0, len(resp.Results))
	for _, hit := range resp.Results {
		results = append(results, map[string]any{
			"tool":            toolWireJSON(hit.Tool),
			"relevance_score": hit.RelevanceScore,
		})
	}
	return map[string]any{"results": results}
}
