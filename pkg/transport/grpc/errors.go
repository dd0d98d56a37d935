package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// toRPCError converts a *pipeline.Status into a real gRPC status error.
// Any other error (there shouldn't be one, since pkg/pipeline only ever
// returns *pipeline.Status) is wrapped as Internal rather than dropped.
func toRPCError(err error) error {
	if err == nil {
		return nil
	}
	var st *pipeline.Status
	if errors.As(err, &st) {
		return status.Error(st.Code, st.Message)
	}
	return status.Error(codes.Internal, err.Error())
}
