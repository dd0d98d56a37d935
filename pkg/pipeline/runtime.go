// Package pipeline implements the core invocation algorithm: routing a
// structured request to a registered tool, enforcing pre/post policy
// around the call, isolating faults raised inside the tool body, and
// accounting for in-flight work via the registry's guard.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kadirpekel/toolrt/pkg/embedder"
	"github.com/kadirpekel/toolrt/pkg/module"
	"github.com/kadirpekel/toolrt/pkg/policy"
	"github.com/kadirpekel/toolrt/pkg/registry"
)

const (
	defaultListPageSize   = 100
	maxListPageSize       = 1000
	defaultSearchPageSize = 10
	maxSearchPageSize     = 100
)

// Runtime binds a registry to its policy store and (optional) search
// embedder, and exposes the three operations both transports project:
// ListTools, SearchTools, CallTool. It is the Go realization of the
// reference implementation's LocalRuntime.
type Runtime struct {
	registry *registry.Registry
	policy   policy.Store
	embedder embedder.SearchEmbedder
}

// New builds a Runtime. policyStore must not be nil; pass policy.NoOpStore{}
// if no policy enforcement is configured. searchEmbedder may be nil — text
// queries then fail with InvalidArgument.
func New(reg *registry.Registry, policyStore policy.Store, searchEmbedder embedder.SearchEmbedder) *Runtime {
	if policyStore == nil {
		policyStore = policy.NoOpStore{}
	}
	return &Runtime{registry: reg, policy: policyStore, embedder: searchEmbedder}
}

// Registry exposes the underlying registry, e.g. for Drain at shutdown.
func (rt *Runtime) Registry() *registry.Registry {
	return rt.registry
}

// ListTools enumerates registered tools in the registry's iteration order.
func (rt *Runtime) ListTools(ctx context.Context, pageSize int, pageToken string) (*ListResponse, error) {
	if pageSize <= 0 {
		pageSize = defaultListPageSize
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}

	offset := parseOffset(pageToken)

	all := rt.registry.List()
	total := len(all)

	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	page := all[offset:end]
	tools := make([]ToolWire, 0, len(page))
	for _, info := range page {
		tools = append(tools, projectTool(info))
	}

	nextToken := ""
	if end < total {
		nextToken = fmt.Sprintf("%d", end)
	}

	return &ListResponse{Tools: tools, NextPageToken: nextToken}, nil
}

// SearchTools ranks registered tools by relevance to a query, which may be
// supplied directly as an embedding or as text to be embedded.
func (rt *Runtime) SearchTools(ctx context.Context, queryEmbedding []float32, queryText string, pageSize int, pageToken string) (*SearchResponse, error) {
	embedding := queryEmbedding
	if len(embedding) == 0 {
		if queryText == "" {
			return nil, invalidArgument("either query_embedding or query_text must be provided")
		}
		if rt.embedder == nil {
			return nil, invalidArgument("search embedder not configured")
		}
		embedded, err := rt.embedder.EmbedQuery(ctx, queryText)
		if err != nil {
			return nil, invalidArgument("failed to embed query: %v", err)
		}
		embedding = embedded
	}

	if pageSize <= 0 {
		pageSize = defaultSearchPageSize
	}
	if pageSize > maxSearchPageSize {
		pageSize = maxSearchPageSize
	}

	results := rt.registry.Search(embedding, pageSize)
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{Tool: projectTool(r.Info), RelevanceScore: r.Score})
	}

	return &SearchResponse{Results: hits}, nil
}

// CallTool implements the full invocation pipeline described in
// SPEC_FULL.md §4.5. The returned error, if any, is always a *Status.
func (rt *Runtime) CallTool(ctx context.Context, req CallRequest, meta CallMetadata) (*CallResponse, error) {
	// 1. Name parse.
	qualifiedID, ok := StripToolPrefix(req.Name)
	if !ok {
		return nil, invalidArgument("invalid tool name format")
	}

	// 2. Lookup.
	handle, ok := rt.registry.Get(qualifiedID)
	if !ok {
		return nil, notFound("tool not found: %s", qualifiedID)
	}

	// 3. Guard — released before post-policy runs, on every exit path.
	guard := rt.registry.StartRequestGuard()
	released := false
	release := func() {
		if !released {
			released = true
			guard.Release()
		}
	}
	defer release()

	// 4. Input normalization.
	inputValue, inputBytes, err := normalizeInput(req.Input)
	if err != nil {
		return nil, internal("failed to normalize input: %v", err)
	}

	// 5. Pre-policy.
	if err := rt.policy.EvaluatePre(ctx, meta.SessionID, qualifiedID, inputValue); err != nil {
		var guardFailed *policy.GuardFailedError
		if asGuardFailed(err, &guardFailed) {
			return nil, permissionDenied("%s", guardFailed.Message)
		}
		return nil, internal("policy evaluation error: %v", err)
	}

	// 6. Credential serialization.
	userCredsBin, err := json.Marshal(meta.Credentials)
	if err != nil {
		return nil, internal("failed to serialize credentials: %v", err)
	}

	// 7. Context assembly.
	callCtx := module.CallContext{
		RequestID:       meta.RequestID,
		SessionID:       meta.SessionID,
		UserID:          meta.UserID,
		UserCredentials: userCredsBin,
	}

	// 8. Invoke, fault-isolated.
	callResult, fault := invokeIsolated(ctx, handle, callCtx, inputBytes)

	// 9. Drop the guard before post-policy.
	release()

	// 10. Result classification.
	response, outcome, rpcErr := classify(callResult, fault)

	// 11. Post-policy (still runs after a tool fault or tool-reported error).
	if postErr := rt.policy.EvaluatePost(ctx, meta.SessionID, qualifiedID, inputValue, outcome); postErr != nil {
		return nil, internal("policy effect error: %v", postErr)
	}

	// 12. Return response (or the earlier classified status, if any).
	if rpcErr != nil {
		return nil, rpcErr
	}
	return response, nil
}

func normalizeInput(raw json.RawMessage) (json.RawMessage, []byte, error) {
	if len(raw) == 0 {
		return json.RawMessage(`{}`), []byte(`{}`), nil
	}
	// Validate it parses; canonical form is the raw bytes themselves.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, err
	}
	return raw, []byte(raw), nil
}

func asGuardFailed(err error, target **policy.GuardFailedError) bool {
	gf, ok := err.(*policy.GuardFailedError)
	if !ok {
		return false
	}
	*target = gf
	return true
}

// invokeIsolated calls the module, recovering any panic raised inside the
// tool body so it never propagates out of the pipeline. This is the Go
// realization of the reference implementation's catch_unwind wrapper.
func invokeIsolated(ctx context.Context, handle *registry.ToolHandle, callCtx module.CallContext, input []byte) (result module.CallResult, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("tool execution panicked: %v", r)
		}
	}()

	res, err := handle.Call(ctx, callCtx, input)
	if err != nil {
		fault = err
		return module.CallResult{}, fault
	}
	return res, nil
}

func classify(result module.CallResult, fault error) (*CallResponse, policy.Outcome, *Status) {
	if fault != nil {
		msg := "Tool execution panicked"
		return nil, policy.Failure(msg), internal("%s", msg)
	}

	switch result.Result {
	case module.ResultOK:
		outputValue := json.RawMessage(result.Output)
		if len(outputValue) == 0 || !json.Valid(outputValue) {
			outputValue = json.RawMessage("null")
		}
		return &CallResponse{Output: outputValue}, policy.Success(outputValue), nil
	case module.ResultError:
		msg := string(result.Output)
		return &CallResponse{IsError: true, ErrorMessage: msg}, policy.Failure(msg), nil
	default:
		msg := fmt.Sprintf("tool error: unrecognized result variant %v", result.Result)
		return &CallResponse{IsError: true, ErrorMessage: msg}, policy.Failure(msg), nil
	}
}

// classify's returned *Status is nil whenever the tool ran at all:
// ResultError and the "other" variant both surface as a successful RPC
// carrying an error payload, per SPEC_FULL.md §4.5 step 10. Only a fault
// (panic) produces a *Status, because it is the one case where the tool
// never produced a usable result at all.

func parseOffset(token string) int {
	if token == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(token, "%d", &n); err != nil || n < 0 {
		return 0
	}
	return n
}
