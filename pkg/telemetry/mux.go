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

package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthFunc reports whether the runtime is ready to serve traffic.
type HealthFunc func() error

// Mux builds the HTTP surface exposing Prometheus metrics and a
// liveness/readiness probe, for the telemetry server described in
// SPEC_FULL.md §10.
func Mux(metrics *Metrics, health HealthFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Handle("/metrics", metrics.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
