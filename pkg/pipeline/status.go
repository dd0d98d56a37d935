package pipeline

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// Status is the pipeline's error taxonomy, carrying a gRPC-shaped code and
// a human-readable message. Every error pkg/pipeline returns is a *Status;
// transports translate it to their own wire error shape (real gRPC status
// codes for pkg/transport/grpc, the JSON error-code table of SPEC_FULL.md
// §4.7 for pkg/transport/mcp).
type Status struct {
	Code    codes.Code
	Message string
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

func newStatus(code codes.Code, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...any) *Status {
	return newStatus(codes.InvalidArgument, format, args...)
}

func notFound(format string, args ...any) *Status {
	return newStatus(codes.NotFound, format, args...)
}

func permissionDenied(format string, args ...any) *Status {
	return newStatus(codes.PermissionDenied, format, args...)
}

func internal(format string, args ...any) *Status {
	return newStatus(codes.Internal, format, args...)
}
