package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ChainUnaryInterceptors chains multiple unary interceptors into one.
// Interceptors run in the order given, each wrapping the next.
func ChainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	filtered := make([]grpc.UnaryServerInterceptor, 0, len(interceptors))
	for _, i := range interceptors {
		if i != nil {
			filtered = append(filtered, i)
		}
	}

	n := len(filtered)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return filtered[0]
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chainHandler := handler
		for i := n - 1; i >= 0; i-- {
			currentInterceptor := filtered[i]
			currentHandler := chainHandler
			chainHandler = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return currentInterceptor(currentCtx, currentReq, info, currentHandler)
			}
		}
		return chainHandler(ctx, req)
	}
}
