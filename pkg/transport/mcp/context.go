package mcp

import (
	"context"
	"net/http"
)

// headerSessionID is the transport-level header this server reads session
// identity from, per SPEC_FULL.md §4.7 ("a transport-level session-id
// header").
const headerSessionID = "session-id"

type sessionIDKey struct{}

// sessionContextFunc is installed as the streamable-HTTP server's context
// function so every request handler can recover the caller's session id
// via sessionIDFromContext, without threading *http.Request through the
// mcp-go tool-handler signature.
func sessionContextFunc(ctx context.Context, r *http.Request) context.Context {
	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
