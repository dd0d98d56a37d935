package pipeline

import (
	"encoding/json"

	"github.com/kadirpekel/toolrt/pkg/registry"
)

// CallMetadata is the transport-level identity/credential bundle produced
// from wire headers (RPC transport) or a session header (conversational
// transport).
type CallMetadata struct {
	RequestID   string
	SessionID   string
	UserID      string
	Credentials map[string]map[string]string
}

// CallRequest is the pipeline's decoded view of a call, independent of
// which transport produced it.
type CallRequest struct {
	// Name must be "tools/{qualified_id}".
	Name string
	// Input is the raw structured input; nil means absent (treated as an
	// empty object).
	Input json.RawMessage
}

// CallResponse is either a successful tool output or a tool-reported
// error. Both are wire-level successes — only lookup/policy/fault
// failures are returned as a *Status error from CallTool.
type CallResponse struct {
	IsError      bool
	Output       json.RawMessage
	ErrorMessage string
}

// ToolWire is the wire-level projection of a registry.ToolInfo: schemas
// are parsed from JSON text into structured values, and the name carries
// the "tools/" prefix.
type ToolWire struct {
	Name             string
	DisplayName      string
	Description      string
	InputSchema      map[string]any
	OutputSchema     map[string]any
	CredentialSchema map[string]any
	Capabilities     []string
	Tags             []string
}

// ListResponse is the result of ListTools.
type ListResponse struct {
	Tools         []ToolWire
	NextPageToken string
}

// SearchHit pairs a projected tool with its relevance score.
type SearchHit struct {
	Tool           ToolWire
	RelevanceScore float32
}

// SearchResponse is the result of SearchTools.
type SearchResponse struct {
	Results []SearchHit
}

const qualifiedIDPrefix = "tools/"

// StripToolPrefix returns the qualified id with its leading "tools/"
// removed, and true, or ("", false) if the prefix is absent.
func StripToolPrefix(name string) (string, bool) {
	if len(name) < len(qualifiedIDPrefix) || name[:len(qualifiedIDPrefix)] != qualifiedIDPrefix {
		return "", false
	}
	return name[len(qualifiedIDPrefix):], true
}

// AddToolPrefix prepends "tools/" to a bare qualified id.
func AddToolPrefix(qualifiedID string) string {
	return qualifiedIDPrefix + qualifiedID
}

func projectTool(info registry.ToolInfo) ToolWire {
	return ToolWire{
		Name:             AddToolPrefix(info.QualifiedID),
		DisplayName:      info.DisplayName,
		Description:      info.Description,
		InputSchema:      parseSchemaObject(info.InputSchema),
		OutputSchema:      parseSchemaObject(info.OutputSchema),
		CredentialSchema: parseSchemaObject(info.CredentialSchema),
		Capabilities:     info.Capabilities,
		Tags:             info.Tags,
	}
}

// parseSchemaObject parses JSON-schema text into a map, returning nil
// (absent) on parse failure or a non-object root, per SPEC_FULL.md §4.6.
func parseSchemaObject(text string) map[string]any {
	if text == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return obj
}
