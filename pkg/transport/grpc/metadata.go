package grpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

const credentialHeaderPrefix = "x-credential-"

type credentialPayload struct {
	Values map[string]string `json:"values"`
}

// metadataFromContext builds a CallMetadata from inbound gRPC headers, per
// SPEC_FULL.md §6: x-request-id/x-session-id/x-user-id are copied
// verbatim, except that a missing x-request-id is replaced by a new UUID
// (a context with no incoming metadata at all yields a zero CallMetadata);
// x-credential-{provider} headers carry
// base64(json({"values":{...}})) and a malformed header is dropped
// silently rather than failing the call.
func metadataFromContext(ctx context.Context) pipeline.CallMetadata {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return pipeline.CallMetadata{}
	}

	meta := pipeline.CallMetadata{
		RequestID: firstValue(md, "x-request-id"),
		SessionID: firstValue(md, "x-session-id"),
		UserID:    firstValue(md, "x-user-id"),
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	creds := map[string]map[string]string{}
	for key, values := range md {
		if len(values) == 0 {
			continue
		}
		if !strings.HasPrefix(key, credentialHeaderPrefix) {
			continue
		}
		provider := strings.TrimPrefix(key, credentialHeaderPrefix)
		if provider == "" {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(values[0])
		if err != nil {
			continue
		}
		var payload credentialPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}
		creds[provider] = payload.Values
	}
	if len(creds) > 0 {
		meta.Credentials = creds
	}

	return meta
}

func firstValue(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
