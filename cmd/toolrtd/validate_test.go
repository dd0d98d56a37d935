package main

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfigYAML = `
modules:
  paths:
    - /tmp/modules
grpc:
  listen_addr: ":9090"
mcp:
  listen_addr: ":9091"
  mode: direct
`

const invalidConfigYAML = `
mcp:
  mode: not-a-mode
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestValidateCmd_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cmd := &ValidateCmd{Config: path, Format: "compact"}
	if err := cmd.Run(&CLI{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestValidateCmd_InvalidConfig(t *testing.T) {
	path := writeTempConfig(t, invalidConfigYAML)
	cmd := &ValidateCmd{Config: path, Format: "compact"}
	if err := cmd.Run(&CLI{}); err == nil {
		t.Fatal("expected validation error for invalid mcp.mode")
	}
}

func TestValidateCmd_MissingFile(t *testing.T) {
	cmd := &ValidateCmd{Config: "/nonexistent/config.yaml", Format: "compact"}
	if err := cmd.Run(&CLI{}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateCmd_PrintConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cmd := &ValidateCmd{Config: path, Format: "compact", PrintConfig: true}
	if err := cmd.Run(&CLI{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestValidateCmd_JSONFormat(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cmd := &ValidateCmd{Config: path, Format: "json"}
	if err := cmd.Run(&CLI{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
