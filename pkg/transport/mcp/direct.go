package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// defaultObjectSchema is used for any registered tool whose input schema is
// empty or not a well-formed JSON object, so the tool is still registerable
// with mcp-go (which requires a schema to be present).
const defaultObjectSchema = `{"type":"object"}`

// registerDirectTools exposes every tool currently in the registry as its
// own MCP tool, per SPEC_FULL.md §4.7's Direct mode. Unlike the gRPC
// transport's ListTools (which re-reads the registry on every call), this
// snapshot is taken once at server construction: mcp-go's tool list is
// fixed for the life of the *server.MCPServer, mirroring the reference
// implementation's registry.list().map(tool_info_to_mcp) at list_tools time
// applied once up front instead of per-request, since the set of loaded
// modules does not change after startup (SPEC_FULL.md §4.1/§4.2).
//
// mcp-go dispatches an incoming call_tool request to a handler keyed by the
// tool's exact registered Name, so a single registration under the prefixed
// name would make the bare qualified id unreachable before the pipeline is
// ever consulted. SPEC_FULL.md §4.7 requires both forms to work, matching
// the Rust reference's unconditional ensure_runtime_tool_name normalization
// (_examples/original_source/crates/operai-runtime/src/transports/mcp.rs),
// so each tool is registered twice: once under its bare qualified id and
// once under the "tools/"-prefixed form, both routed to the same handler.
func registerDirectTools(mcpServer *server.MCPServer, runtime *pipeline.Runtime) {
	for _, info := range runtime.Registry().List() {
		schema := []byte(info.InputSchema)
		if len(schema) == 0 || !json.Valid(schema) {
			schema = []byte(defaultObjectSchema)
		}

		handler := directToolHandler(runtime, info.QualifiedID)
		for _, name := range []string{info.QualifiedID, pipeline.AddToolPrefix(info.QualifiedID)} {
			mcpServer.AddTool(mcp.Tool{
				Name:           name,
				Description:    info.Description,
				RawInputSchema: schema,
			}, handler)
		}
	}
}

// directToolHandler delegates a single registered tool's invocation to
// pkg/pipeline, translating its Output/Error/fault outcomes per SPEC_FULL.md
// §4.7: Output(value) becomes structured content, Error(msg) becomes
// textual error content (a handled result, not a protocol error), and a
// missing response (a *pipeline.Status fault) becomes a protocol-level
// error.
func directToolHandler(runtime *pipeline.Runtime, qualifiedID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := json.Marshal(req.GetArguments())
		if err != nil {
			return nil, invalidParams("failed to encode arguments: %v", err)
		}

		meta := pipeline.CallMetadata{RequestID: uuid.New().String(), SessionID: sessionIDFromContext(ctx)}
		resp, err := runtime.CallTool(ctx, pipeline.CallRequest{
			Name:  pipeline.AddToolPrefix(qualifiedID),
			Input: input,
		}, meta)
		if err != nil {
			return nil, translateStatus(err)
		}
		return callResponseToResult(resp), nil
	}
}

// callResponseToResult projects a *pipeline.CallResponse onto an MCP
// CallToolResult. A tool-reported error is still a successful RPC/protocol
// call, flagged IsError, per SPEC_FULL.md §4.7.
func callResponseToResult(resp *pipeline.CallResponse) *mcp.CallToolResult {
	if resp.IsError {
		return mcp.NewToolResultError(resp.ErrorMessage)
	}
	return mcp.NewToolResultText(string(resp.Output))
}
