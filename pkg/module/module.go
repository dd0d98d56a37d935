// Package module defines the binary contract between a loaded tool module
// and the runtime: metadata, descriptors, lifecycle, and invocation.
package module

import "context"

// ABIVersion is the runtime's compiled-in module ABI version. A module whose
// Meta.ABIVersion disagrees is rejected before Init ever runs.
const ABIVersion = 1

// Meta identifies a module: its ABI version and the crate (module) name and
// version used to build every tool's qualified id.
type Meta struct {
	ABIVersion  int
	CrateName   string
	CrateVersion string
}

// ToolDescriptor is the static, per-tool shape a module declares at load
// time. Every field is copied by value into a registry.ToolInfo at
// registration, so a descriptor need not outlive the registration call.
type ToolDescriptor struct {
	ID               string
	DisplayName      string
	Description      string
	InputSchema      string
	OutputSchema     string
	CredentialSchema string // empty means absent
	Capabilities     []string
	Tags             []string
	Embedding        []float32 // nil or empty means absent
}

// RuntimeContext is passed to Init once, at load time. It carries nothing
// tool-specific on purpose: everything a module needs for a given call
// arrives through CallArgs instead.
type RuntimeContext struct {
	CrateCredentials map[string]map[string]string
}

// CallArgs bundles a single invocation's context, module-local tool id, and
// raw JSON input bytes.
type CallArgs struct {
	Context CallContext
	ToolID  string
	Input   []byte
}

// CallContext is the per-invocation identity and credential bundle. It is
// never persisted past the call it was built for.
type CallContext struct {
	RequestID         string
	SessionID         string
	UserID            string
	UserCredentials   []byte
	SystemCredentials []byte
}

// ResultKind enumerates the outcomes a module's Call may report. Any value
// other than ResultOK and ResultError is treated as "other" by the pipeline.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultError
	ResultOther
)

// CallResult is what a module's Call returns: a classification and an
// opaque output payload (JSON bytes on ResultOK, a UTF-8 message on
// ResultError).
type CallResult struct {
	Result ResultKind
	Output []byte
}

// Module is the Go realization of the four-slot fixed-layout record the
// spec describes: Go has no portable fixed-offset binary layout across
// compiled artifacts, but a typed interface value looked up via the
// standard library's plugin package carries the same four operations with
// the same call semantics, and is cheap to copy and valid for as long as
// the owning plugin.Plugin is held — exactly the "abstract module
// reference" contract the spec asks for.
type Module interface {
	// Meta returns this module's identity. Must be stable for the life of
	// the module.
	Meta() Meta

	// Descriptors returns every tool this module offers. Called once at
	// registration; the returned slice and its contents are deep-copied by
	// the caller and need not remain valid afterward.
	Descriptors() []ToolDescriptor

	// Init is invoked exactly once after load, before any Call. A non-nil
	// error rejects the module: no descriptors are registered.
	Init(ctx context.Context, rc RuntimeContext) error

	// Call is the invocation entry point, invoked once per request for one
	// of this module's tools.
	Call(ctx context.Context, args CallArgs) (CallResult, error)

	// Shutdown is invoked exactly once during registry teardown. toolrtd
	// calls it after the registry's Drain returns, or after its drain
	// timeout expires with calls still in flight.
	Shutdown(ctx context.Context)
}

// Symbol is the exported name a dynamically loaded plugin must export, of
// type Module.
const Symbol = "ToolModule"
