package telemetry

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestMux_Healthz_OK(t *testing.T) {
	mux := Mux(NewMetrics("toolrt"), func() error { return nil })

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMux_Healthz_Failing(t *testing.T) {
	mux := Mux(NewMetrics("toolrt"), func() error { return errors.New("not ready") })

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 503 {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMux_Metrics(t *testing.T) {
	mux := Mux(NewMetrics("toolrt"), nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
