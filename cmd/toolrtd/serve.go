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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kadirpekel/toolrt/pkg/config"
	"github.com/kadirpekel/toolrt/pkg/module"
	"github.com/kadirpekel/toolrt/pkg/moduleloader"
	"github.com/kadirpekel/toolrt/pkg/pipeline"
	"github.com/kadirpekel/toolrt/pkg/policy"
	"github.com/kadirpekel/toolrt/pkg/registry"
	"github.com/kadirpekel/toolrt/pkg/telemetry"
	grpctransport "github.com/kadirpekel/toolrt/pkg/transport/grpc"
	mcptransport "github.com/kadirpekel/toolrt/pkg/transport/mcp"
)

// drainTimeout bounds how long Serve waits for in-flight calls to finish
// on shutdown before forcing module Shutdown hooks regardless.
const drainTimeout = 30 * time.Second

// ServeCmd discovers modules, loads them into the registry, and runs both
// transports (plus the telemetry HTTP server) until an interrupt or
// terminate signal is received.
type ServeCmd struct {
	Config string `arg:"" name:"config" help:"Path to configuration file." type:"path"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	_ = config.LoadDotEnvForConfig(c.Config)
	cfg, loader, err := config.LoadConfigFile(ctx, c.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if loader != nil {
		defer loader.Close()
	}

	tracerProvider, err := telemetry.InitGlobalTracer(ctx, telemetry.TracerConfig{
		Exporter:     cfg.Telemetry.TraceExporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  "toolrtd",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	if shutdowner, ok := tracerProvider.(interface {
		Shutdown(context.Context) error
	}); ok {
		defer func() { _ = shutdowner.Shutdown(context.Background()) }()
	}

	reg := registry.New()
	if err := loadModules(ctx, reg, cfg.Modules); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	slog.Info("modules loaded", "tool_count", reg.Len())

	// policy evaluation and embedding generation are external collaborators
	// this runtime depends on via interfaces, not implementations it owns;
	// a no-op policy store and a nil embedder (queries by text fail
	// InvalidArgument until one is wired) are the correct defaults here.
	runtime := pipeline.New(reg, policy.NoOpStore{}, nil)

	metrics := telemetry.NewMetrics("toolrt")
	metrics.SetInflight(reg.InflightCount())
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetInflight(reg.InflightCount())
			}
		}
	}()

	grpcServer := grpctransport.NewServer(runtime, grpctransport.Config{
		Address: cfg.GRPC.ListenAddr,
		UnaryInterceptor: grpctransport.ChainUnaryInterceptors(
			grpctransport.TelemetryInterceptor(metrics),
			grpctransport.LoggingInterceptor(),
		),
	})
	mcpServer := mcptransport.NewServer(runtime, mcptransport.Config{
		Address: cfg.MCP.ListenAddr,
		Mode:    cfg.MCP.Mode,
	})

	errCh := make(chan error, 3)
	go func() {
		slog.Info("grpc transport listening", "addr", grpcServer.Address())
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("grpc transport: %w", err)
		}
	}()
	go func() {
		slog.Info("mcp transport listening", "addr", mcpServer.Address(), "mode", cfg.MCP.Mode)
		if err := mcpServer.Start(); err != nil {
			errCh <- fmt.Errorf("mcp transport: %w", err)
		}
	}()

	var telemetryServer *telemetryHTTPServer
	if cfg.Telemetry.MetricsAddr != "" {
		telemetryServer = newTelemetryHTTPServer(cfg.Telemetry.MetricsAddr, metrics, func() error {
			if reg.IsEmpty() {
				return fmt.Errorf("no modules loaded")
			}
			return nil
		})
		go func() {
			slog.Info("telemetry server listening", "addr", cfg.Telemetry.MetricsAddr)
			if err := telemetryServer.start(); err != nil {
				errCh <- fmt.Errorf("telemetry server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("transport failed", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer shutdownCancel()

	if err := reg.Drain(shutdownCtx); err != nil {
		slog.Warn("drain did not complete before timeout", "error", err)
	}
	reg.Shutdown(shutdownCtx)

	if err := grpcServer.Stop(shutdownCtx); err != nil {
		slog.Warn("grpc transport shutdown error", "error", err)
	}
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		slog.Warn("mcp transport shutdown error", "error", err)
	}
	if telemetryServer != nil {
		if err := telemetryServer.stop(shutdownCtx); err != nil {
			slog.Warn("telemetry server shutdown error", "error", err)
		}
	}

	return nil
}

// loadModules discovers manifests under cfg's paths and loads each one
// into reg. Per-module crate credentials are not sourced by this
// entrypoint: credential provisioning is an operational concern (typically
// a secrets manager or orchestrator injecting them ahead of time) outside
// this runtime's scope, so every module is loaded with an empty
// credential set.
func loadModules(ctx context.Context, reg *registry.Registry, cfg config.ModulesConfig) error {
	manifests, err := moduleloader.Discover(moduleloader.DiscoveryConfig{
		Paths:              cfg.Paths,
		ScanSubdirectories: cfg.ScanSubdirectories,
	})
	if err != nil {
		return fmt.Errorf("module discovery: %w", err)
	}

	l := moduleloader.New()
	for _, m := range manifests {
		slog.Info("loading module", "name", m.Name, "path", m.Path)
		err := reg.LoadLibrary(ctx, m.Path, m.Checksum, nil, module.RuntimeContext{}, l.Load)
		if err != nil {
			return fmt.Errorf("loading module %s: %w", m.Name, err)
		}
	}
	return nil
}
