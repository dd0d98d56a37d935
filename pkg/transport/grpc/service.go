// Package grpc implements the RPC transport (C6): a hand-written
// grpc.ServiceDesc exposing ListTools/SearchTools/CallTool over the
// json codec in codec.go, delegating to pkg/pipeline.Runtime.
package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

// ServiceName is the fully-qualified gRPC service name this server
// registers, used to build each method's full method string.
const ServiceName = "toolrt.ToolRuntime"

// service adapts a *pipeline.Runtime to the three RPC methods below.
type service struct {
	runtime *pipeline.Runtime
}

func (s *service) listTools(ctx context.Context, req *listToolsRequest) (*listToolsResponse, error) {
	resp, err := s.runtime.ListTools(ctx, req.PageSize, req.PageToken)
	if err != nil {
		return nil, toRPCError(err)
	}
	return listToolsResponseToWire(resp), nil
}

func (s *service) searchTools(ctx context.Context, req *searchToolsRequest) (*searchToolsResponse, error) {
	resp, err := s.runtime.SearchTools(ctx, req.QueryEmbedding, req.QueryText, req.PageSize, req.PageToken)
	if err != nil {
		return nil, toRPCError(err)
	}
	return searchToolsResponseToWire(resp), nil
}

func (s *service) callTool(ctx context.Context, req *callToolRequest) (*callToolResponse, error) {
	meta := metadataFromContext(ctx)
	resp, err := s.runtime.CallTool(ctx, pipeline.CallRequest{Name: req.Name, Input: req.Input}, meta)
	if err != nil {
		return nil, toRPCError(err)
	}
	return callToolResponseToWire(resp), nil
}

func listToolsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(listToolsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*service)
	if interceptor == nil {
		return s.listTools(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListTools"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.listTools(ctx, req.(*listToolsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func searchToolsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(searchToolsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*service)
	if interceptor == nil {
		return s.searchTools(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SearchTools"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.searchTools(ctx, req.(*searchToolsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func callToolHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(callToolRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*service)
	if interceptor == nil {
		return s.callTool(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CallTool"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.callTool(ctx, req.(*callToolRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// serviceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a service with ListTools/SearchTools/CallTool unary RPCs.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTools", Handler: listToolsHandler},
		{MethodName: "SearchTools", Handler: searchToolsHandler},
		{MethodName: "CallTool", Handler: callToolHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "toolrt/transport/grpc/service.go",
}

// Register attaches the tool runtime service to a *grpc.Server.
func Register(s *grpc.Server, runtime *pipeline.Runtime) {
	s.RegisterService(&serviceDesc, &service{runtime: runtime})
}
