package grpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kadirpekel/toolrt/pkg/telemetry"
)

func TestTelemetryInterceptor_Success(t *testing.T) {
	interceptor := TelemetryInterceptor(telemetry.NewMetrics("toolrt"))
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
}

func TestTelemetryInterceptor_PropagatesError(t *testing.T) {
	interceptor := TelemetryInterceptor(telemetry.NewMetrics("toolrt"))
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	wantErr := status.Error(codes.NotFound, "nope")
	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) && status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound error to propagate, got %v", err)
	}
}

func TestTelemetryInterceptor_NilMetricsSafe(t *testing.T) {
	interceptor := TelemetryInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/ListTools"}

	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor with nil metrics: %v", err)
	}
}

func TestLoggingInterceptor_Success(t *testing.T) {
	interceptor := LoggingInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
}

func TestLoggingInterceptor_PropagatesError(t *testing.T) {
	interceptor := LoggingInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	wantErr := status.Error(codes.NotFound, "nope")
	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, wantErr
	})
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound error to propagate, got %v", err)
	}
}

func TestExtractMethodName(t *testing.T) {
	cases := map[string]string{
		"/toolrt.ToolRuntime/CallTool": "CallTool",
		"CallTool":                     "CallTool",
		"":                             "",
	}
	for in, want := range cases {
		if got := extractMethodName(in); got != want {
			t.Errorf("extractMethodName(%q) = %q, want %q", in, got, want)
		}
	}
}
