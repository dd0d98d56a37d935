// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration loading for the tool runtime.
//
// The runtime is config-first: module discovery paths, transport listen
// addresses, and telemetry exporters are all declared in YAML and the
// runtime wires them up at startup.
//
// Example config:
//
//	log_level: info
//	log_format: simple
//
//	modules:
//	  paths:
//	    - /var/lib/toolrtd/modules
//	  scan_subdirectories: true
//
//	grpc:
//	  listen_addr: ":9090"
//
//	mcp:
//	  listen_addr: ":9091"
//	  mode: direct
//
//	telemetry:
//	  metrics_addr: ":9100"
//	  trace_exporter: stdout
package config

import "fmt"

// Config is the root configuration structure for toolrtd.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat is one of simple, verbose, or a custom slog format name.
	LogFormat string `yaml:"log_format,omitempty"`

	// Modules configures where the module loader discovers plugin
	// artifacts and their manifests.
	Modules ModulesConfig `yaml:"modules,omitempty"`

	// GRPC configures the RPC transport.
	GRPC GRPCConfig `yaml:"grpc,omitempty"`

	// MCP configures the conversational transport.
	MCP MCPConfig `yaml:"mcp,omitempty"`

	// Telemetry configures metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// ModulesConfig configures module discovery and loading.
type ModulesConfig struct {
	// Paths are directories scanned for manifest files.
	Paths []string `yaml:"paths,omitempty"`

	// ScanSubdirectories enables recursive scanning of Paths.
	ScanSubdirectories bool `yaml:"scan_subdirectories,omitempty"`
}

// GRPCConfig configures the RPC transport listener.
type GRPCConfig struct {
	// ListenAddr is the address the gRPC server binds to, e.g. ":9090".
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// MCPMode selects which meta-tool surface the conversational transport
// exposes.
type MCPMode string

const (
	MCPModeDirect MCPMode = "direct"
	MCPModeSearch MCPMode = "search"
)

// MCPConfig configures the conversational transport listener.
type MCPConfig struct {
	// ListenAddr is the address the MCP server binds to, e.g. ":9091".
	ListenAddr string `yaml:"listen_addr,omitempty"`

	// Mode is "direct" (every registered tool is exposed as its own
	// MCP tool) or "search" (a fixed list_tool/find_tool/call_tool
	// surface, with find_tool backed by the registry's embedding search).
	Mode MCPMode `yaml:"mode,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// MetricsAddr is the address serving /metrics and /healthz, e.g.
	// ":9100". Empty disables the HTTP telemetry server.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// TraceExporter is one of "none", "stdout", or "otlp".
	TraceExporter string `yaml:"trace_exporter,omitempty"`

	// OTLPEndpoint is the collector address when TraceExporter is "otlp".
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// SetDefaults fills in zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "simple"
	}
	if c.GRPC.ListenAddr == "" {
		c.GRPC.ListenAddr = ":9090"
	}
	if c.MCP.ListenAddr == "" {
		c.MCP.ListenAddr = ":9091"
	}
	if c.MCP.Mode == "" {
		c.MCP.Mode = MCPModeDirect
	}
	if c.Telemetry.TraceExporter == "" {
		c.Telemetry.TraceExporter = "none"
	}
}

// Validate checks the config for internally-inconsistent values that
// SetDefaults cannot paper over.
func (c *Config) Validate() error {
	switch c.MCP.Mode {
	case MCPModeDirect, MCPModeSearch:
	default:
		return fmt.Errorf("mcp.mode must be %q or %q, got %q", MCPModeDirect, MCPModeSearch, c.MCP.Mode)
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.trace_exporter must be one of none, stdout, otlp, got %q", c.Telemetry.TraceExporter)
	}

	if c.Telemetry.TraceExporter == "otlp" && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp_endpoint is required when trace_exporter is otlp")
	}

	if len(c.Modules.Paths) == 0 {
		return fmt.Errorf("modules.paths must list at least one discovery path")
	}

	return nil
}
