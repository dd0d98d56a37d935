package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/reflection"

	"github.com/kadirpekel/toolrt/pkg/logger"
	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

var log = logger.WithComponent("transport.grpc")

// Config holds configuration for the RPC transport server.
type Config struct {
	// Address is the listen address, e.g. ":9090".
	Address string
	// UnaryInterceptor wraps every RPC; typically the telemetry interceptor
	// chained with any others the caller wants.
	UnaryInterceptor grpc.UnaryServerInterceptor
}

// Server manages the lifecycle of the tool runtime's gRPC server.
type Server struct {
	runtime    *pipeline.Runtime
	grpcServer *grpc.Server
	listener   net.Listener
	config     Config
}

// NewServer creates a gRPC server bound to runtime. The server's own codec
// forces JSON framing (codecName) for every connection, so no protobuf
// stub is required on either side.
func NewServer(runtime *pipeline.Runtime, config Config) *Server {
	if config.Address == "" {
		config.Address = ":9090"
	}
	return &Server{runtime: runtime, config: config}
}

// Start starts the gRPC server. It blocks until Stop is called or Serve
// returns an error.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener

	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(encoding.GetCodec(codecName)),
	}
	if s.config.UnaryInterceptor != nil {
		opts = append(opts, grpc.UnaryInterceptor(s.config.UnaryInterceptor))
	}

	s.grpcServer = grpc.NewServer(opts...)
	Register(s.grpcServer, s.runtime)
	reflection.Register(s.grpcServer)

	log.Info("gRPC tool runtime server starting", "address", s.config.Address)

	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, falling back to a forced stop if ctx
// expires first.
func (s *Server) Stop(ctx context.Context) error {
	if s.grpcServer == nil {
		return nil
	}

	log.Info("gRPC tool runtime server shutting down")

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		log.Warn("gRPC graceful stop timeout, forcing shutdown")
		s.grpcServer.Stop()
	}
	return nil
}

// Address returns the server's actual listening address.
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// StopWithTimeout stops the server with a default 30-second timeout.
func (s *Server) StopWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Stop(ctx)
}
