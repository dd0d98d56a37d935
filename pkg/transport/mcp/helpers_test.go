package mcp

import (
	"context"
	"fmt"
	"testing"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/toolrt/pkg/module"
	"github.com/kadirpekel/toolrt/pkg/pipeline"
	"github.com/kadirpekel/toolrt/pkg/registry"
)

type fakeModule struct {
	meta        module.Meta
	descriptors []module.ToolDescriptor
}

func (m *fakeModule) Meta() module.Meta                    { return m.meta }
func (m *fakeModule) Descriptors() []module.ToolDescriptor { return m.descriptors }
func (m *fakeModule) Init(ctx context.Context, rc module.RuntimeContext) error { return nil }
func (m *fakeModule) Shutdown(ctx context.Context)                            {}
func (m *fakeModule) Call(ctx context.Context, args module.CallArgs) (module.CallResult, error) {
	if args.ToolID == "boom" {
		return module.CallResult{Result: module.ResultError, Output: []byte("kaboom")}, nil
	}
	out := fmt.Sprintf(`{"echo":"%s"}`, string(args.Input))
	return module.CallResult{Result: module.ResultOK, Output: []byte(out)}, nil
}

func newTestRuntime(t *testing.T) *pipeline.Runtime {
	t.Helper()
	r := registry.New()
	mod := &fakeModule{
		meta: module.Meta{ABIVersion: module.ABIVersion, CrateName: "demo", CrateVersion: "0.1.0"},
		descriptors: []module.ToolDescriptor{
			{ID: "echo", DisplayName: "Echo", Description: "echoes input", InputSchema: `{"type":"object"}`},
			{ID: "boom", DisplayName: "Boom", Description: "always fails"},
		},
	}
	if err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{}); err != nil {
		t.Fatalf("RegisterModule: %v", err)
	}
	return pipeline.New(r, nil, nil)
}

func requestWithArgs(args map[string]any) gomcp.CallToolRequest {
	var req gomcp.CallToolRequest
	req.Params.Arguments = args
	return req
}
