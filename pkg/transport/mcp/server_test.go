package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/toolrt/pkg/config"
)

func TestServer_DefaultAddressAndMode(t *testing.T) {
	runtime := newTestRuntime(t)
	s := NewServer(runtime, Config{})
	if s.Address() != ":9091" {
		t.Errorf("default address = %q, want :9091", s.Address())
	}
	if s.cfg.Mode != config.MCPModeDirect {
		t.Errorf("default mode = %q, want direct", s.cfg.Mode)
	}
}

func TestServer_StartStop(t *testing.T) {
	runtime := newTestRuntime(t)
	s := NewServer(runtime, Config{Address: "127.0.0.1:0", Mode: config.MCPModeSearch})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	// Give Start a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned error after Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
