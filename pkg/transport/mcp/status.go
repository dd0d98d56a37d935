package mcp

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// protocolError is a JSON-RPC-level error returned from a tool handler. Per
// SPEC_FULL.md §4.7, a *pipeline.Status reaching a transport boundary (as
// opposed to a tool-reported Output/Error response, both of which are
// handled results, not protocol errors) becomes a protocol-level error on
// this transport, tagged with the translated status token.
type protocolError struct {
	token   string
	message string
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.token, e.message)
}

// translateStatus maps a *pipeline.Status onto the token table of
// SPEC_FULL.md §4.7: NotFound -> resource_not_found, InvalidArgument ->
// invalid_params, PermissionDenied/Unauthenticated -> invalid_request,
// anything else -> internal_error.
func translateStatus(err error) error {
	var st *pipeline.Status
	if !errors.As(err, &st) {
		return &protocolError{token: "internal_error", message: err.Error()}
	}

	switch st.Code {
	case codes.NotFound:
		return &protocolError{token: "resource_not_found", message: st.Message}
	case codes.InvalidArgument:
		return &protocolError{token: "invalid_params", message: st.Message}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &protocolError{token: "invalid_request", message: st.Message}
	default:
		return &protocolError{token: "internal_error", message: st.Message}
	}
}

func invalidParams(format string, args ...any) error {
	return &protocolError{token: "invalid_params", message: fmt.Sprintf(format, args...)}
}
