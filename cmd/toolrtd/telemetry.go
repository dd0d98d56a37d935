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
	"errors"
	"net/http"

	"github.com/kadirpekel/toolrt/pkg/telemetry"
)

// telemetryHTTPServer wraps telemetry.Mux in a standard http.Server so
// serve.go can start and gracefully stop it alongside the two transports.
type telemetryHTTPServer struct {
	httpServer *http.Server
}

func newTelemetryHTTPServer(addr string, metrics *telemetry.Metrics, health telemetry.HealthFunc) *telemetryHTTPServer {
	return &telemetryHTTPServer{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: telemetry.Mux(metrics, health),
		},
	}
}

func (s *telemetryHTTPServer) start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *telemetryHTTPServer) stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
