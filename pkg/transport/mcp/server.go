// Package mcp implements the conversational transport (C7): a JSON
// tool-calling protocol built on github.com/mark3labs/mcp-go's
// server.MCPServer, exposing either the full registry (Direct mode) or
// three meta-tools for discovery and invocation (Search mode), delegating
// all business logic to pkg/pipeline.Runtime.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/toolrt/pkg/config"
	"github.com/kadirpekel/toolrt/pkg/pipeline"
)

const (
	serverName    = "toolrt"
	serverVersion = "0.1.0"
)

// Config configures the conversational transport server.
type Config struct {
	Address string
	Mode    config.MCPMode
}

// Server wraps an mcp-go streamable-HTTP server bound to a *pipeline.Runtime.
type Server struct {
	cfg       Config
	mcpServer *server.MCPServer
	http      *server.StreamableHTTPServer
}

// NewServer builds a Server. In Direct mode (the default) every registry
// tool is registered as its own MCP tool; in Search mode, three meta-tools
// (list_tool/find_tool/call_tool) are registered instead.
func NewServer(runtime *pipeline.Runtime, cfg Config) *Server {
	if cfg.Address == "" {
		cfg.Address = ":9091"
	}
	if cfg.Mode == "" {
		cfg.Mode = config.MCPModeDirect
	}

	mcpServer := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(true))

	switch cfg.Mode {
	case config.MCPModeSearch:
		registerSearchTools(mcpServer, runtime)
	default:
		registerDirectTools(mcpServer, runtime)
	}

	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithHTTPContextFunc(sessionContextFunc),
	)

	return &Server{cfg: cfg, mcpServer: mcpServer, http: httpServer}
}

// Start binds the listener and serves until Stop is called. It blocks, so
// callers run it in its own goroutine.
func (s *Server) Start() error {
	if err := s.http.Start(s.cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcp transport: %w", err)
	}
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.cfg.Address
}
