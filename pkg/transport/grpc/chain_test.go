package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
)

func markerInterceptor(calls *[]string, name string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		*calls = append(*calls, name)
		return handler(ctx, req)
	}
}

func TestChainUnaryInterceptors_Order(t *testing.T) {
	var calls []string
	chain := ChainUnaryInterceptors(
		markerInterceptor(&calls, "first"),
		markerInterceptor(&calls, "second"),
	)
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	_, err := chain(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		calls = append(calls, "handler")
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	want := []string{"first", "second", "handler"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestChainUnaryInterceptors_Empty(t *testing.T) {
	if ChainUnaryInterceptors() != nil {
		t.Error("expected nil chain for no interceptors")
	}
}

func TestChainUnaryInterceptors_FiltersNil(t *testing.T) {
	var calls []string
	chain := ChainUnaryInterceptors(nil, markerInterceptor(&calls, "only"), nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	_, err := chain(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(calls) != 1 || calls[0] != "only" {
		t.Errorf("calls = %v, want [only]", calls)
	}
}

func TestChainUnaryInterceptors_SingleReturnsItUnwrapped(t *testing.T) {
	var calls []string
	only := markerInterceptor(&calls, "solo")
	chain := ChainUnaryInterceptors(only)
	info := &grpc.UnaryServerInfo{FullMethod: "/toolrt.ToolRuntime/CallTool"}

	_, err := chain(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(calls) != 1 || calls[0] != "solo" {
		t.Errorf("calls = %v, want [solo]", calls)
	}
}
