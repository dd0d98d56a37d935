package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/toolrt/pkg/pipeline"
	"github.com/kadirpekel/toolrt/pkg/registry"
)

func TestServer_StartStop(t *testing.T) {
	runtime := pipeline.New(registry.New(), nil, nil)
	s := NewServer(runtime, Config{Address: "127.0.0.1:0"})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	// Give Start a moment to bind the listener.
	deadline := time.Now().Add(2 * time.Second)
	for s.Address() == "127.0.0.1:0" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if s.Address() == "127.0.0.1:0" {
		t.Fatal("server never bound a listener")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Errorf("Start returned error after Stop: %v", err)
	}
}

func TestServer_DefaultAddress(t *testing.T) {
	runtime := pipeline.New(registry.New(), nil, nil)
	s := NewServer(runtime, Config{})
	if s.Address() != ":9090" {
		t.Errorf("default address = %q, want :9090", s.Address())
	}
}
