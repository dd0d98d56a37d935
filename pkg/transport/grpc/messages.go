package grpc

import (
	"encoding/json"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// Wire message shapes for the JSON-coded gRPC service. Field names use
// protobuf-style snake_case JSON tags so a client generated from a
// conventional .proto (or a hand-rolled JSON client) sees the same shape
// it would from a protoc-generated stub — only the wire encoding differs.

type toolMessage struct {
	Name             string         `json:"name"`
	DisplayName      string         `json:"display_name,omitempty"`
	Description      string         `json:"description,omitempty"`
	InputSchema      map[string]any `json:"input_schema,omitempty"`
	OutputSchema     map[string]any `json:"output_schema,omitempty"`
	CredentialSchema map[string]any `json:"credential_schema,omitempty"`
	Capabilities     []string       `json:"capabilities,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
}

func toolToWire(t pipeline.ToolWire) toolMessage {
	return toolMessage{
		Name:             t.Name,
		DisplayName:      t.DisplayName,
		Description:      t.Description,
		InputSchema:      t.InputSchema,
		OutputSchema:     t.OutputSchema,
		CredentialSchema: t.CredentialSchema,
		Capabilities:     t.Capabilities,
		Tags:             t.Tags,
	}
}

type listToolsRequest struct {
	PageSize  int    `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type listToolsResponse struct {
	Tools         []toolMessage `json:"tools"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

func listToolsResponseToWire(r *pipeline.ListResponse) *listToolsResponse {
	tools := make([]toolMessage, 0, len(r.Tools))
	for _, t := range r.Tools {
		tools = append(tools, toolToWire(t))
	}
	return &listToolsResponse{Tools: tools, NextPageToken: r.NextPageToken}
}

type searchToolsRequest struct {
	QueryEmbedding []float32 `json:"query_embedding,omitempty"`
	QueryText      string    `json:"query_text,omitempty"`
	PageSize       int       `json:"page_size,omitempty"`
	PageToken      string    `json:"page_token,omitempty"`
}

type searchHit struct {
	Tool           toolMessage `json:"tool"`
	RelevanceScore float32     `json:"relevance_score"`
}

type searchToolsResponse struct {
	Results []searchHit `json:"results"`
}

func searchToolsResponseToWire(r *pipeline.SearchResponse) *searchToolsResponse {
	hits := make([]searchHit, 0, len(r.Results))
	for _, h := range r.Results {
		hits = append(hits, searchHit{Tool: toolToWire(h.Tool), RelevanceScore: h.RelevanceScore})
	}
	return &searchToolsResponse{Results: hits}
}

type callToolRequest struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

type callToolResponse struct {
	IsError      bool            `json:"is_error,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func callToolResponseToWire(r *pipeline.CallResponse) *callToolResponse {
	return &callToolResponse{
		IsError:      r.IsError,
		Output:       r.Output,
		ErrorMessage: r.ErrorMessage,
	}
}
