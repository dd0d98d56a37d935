package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/kadirpekel/toolrt/pkg/telemetry"
)

// LoggingInterceptor returns a unary interceptor that logs each RPC's
// method, duration, and outcome at debug level (errors at warn).
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		method := extractMethodName(info.FullMethod)
		duration := time.Since(start)

		if err != nil {
			grpcStatus, _ := status.FromError(err)
			log.Warn("rpc failed", "method", method, "duration_ms", duration.Milliseconds(), "code", grpcStatus.Code().String())
		} else {
			log.Debug("rpc completed", "method", method, "duration_ms", duration.Milliseconds())
		}
		return resp, err
	}
}

// TelemetryInterceptor returns a unary interceptor that wraps every RPC in
// a span and records Prometheus metrics, mirroring the teacher's
// grpc_interceptors.go but sourcing both from an injected *telemetry.Metrics
// instead of a package-level observability.Manager global.
func TelemetryInterceptor(metrics *telemetry.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		tracer := telemetry.GetTracer("toolrt.grpc")
		ctx, span := tracer.Start(ctx, info.FullMethod,
			trace.WithAttributes(
				attribute.String("rpc.system", "grpc"),
				attribute.String("rpc.service", ServiceName),
				attribute.String("rpc.method", extractMethodName(info.FullMethod)),
			),
		)
		defer span.End()

		resp, err := handler(ctx, req)
		duration := time.Since(start)

		grpcStatus, _ := status.FromError(err)
		span.SetAttributes(
			attribute.String("rpc.grpc.status_code", grpcStatus.Code().String()),
			attribute.Int64("rpc.duration_ms", duration.Milliseconds()),
		)

		method := extractMethodName(info.FullMethod)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, grpcStatus.Message())
			metrics.RecordError(method, grpcStatus.Code().String())
		} else {
			span.SetStatus(otelcodes.Ok, "success")
		}
		metrics.RecordCall(method, duration)

		return resp, err
	}
}

// extractMethodName extracts the method name from a full gRPC method
// string, e.g. "/toolrt.ToolRuntime/CallTool" -> "CallTool".
func extractMethodName(fullMethod string) string {
	for i := len(fullMethod) - 1; i >= 0; i-- {
		if fullMethod[i] == '/' {
			return fullMethod[i+1:]
		}
	}
	return fullMethod
}
