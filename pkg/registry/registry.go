// Package registry owns loaded tool modules, indexes their tools by
// qualified id, tracks per-tool semantic vectors for search, and accounts
// for in-flight invocations so callers can drain gracefully before
// shutdown.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kadirpekel/toolrt/pkg/module"
	"github.com/kadirpekel/toolrt/pkg/moduleloader"
)

// ToolInfo is the registry's owned, value-copied projection of a
// module.ToolDescriptor.
type ToolInfo struct {
	QualifiedID      string
	ToolID           string
	CrateName        string
	CrateVersion     string
	DisplayName      string
	Description      string
	InputSchema      string
	OutputSchema     string
	CredentialSchema string
	Capabilities     []string
	Tags             []string
	Embedding        []float32
}

// ToolHandle is the registry's per-tool record: the owned ToolInfo, a
// reference to the module providing it (valid for the registry's
// lifetime), and the pre-serialized system credentials computed once at
// registration.
type ToolHandle struct {
	Info              ToolInfo
	ToolID            string
	SystemCredentials []byte

	module module.Module
}

// Call forwards to the underlying module, filling in the handle's cached
// tool id and system credentials. ctx.SystemCredentials is always
// overwritten with the handle's own value — callers only need to set the
// request/session/user identity and user credentials.
func (h *ToolHandle) Call(ctx context.Context, callCtx module.CallContext, input []byte) (module.CallResult, error) {
	callCtx.SystemCredentials = h.SystemCredentials
	return h.module.Call(ctx, module.CallArgs{
		Context: callCtx,
		ToolID:  h.ToolID,
		Input:   input,
	})
}

type embeddingEntry struct {
	qualifiedID string
	embedding   []float32
}

// Registry is the process-wide collection of loaded tool libraries and
// their registered tools.
type Registry struct {
	mu         sync.RWMutex
	libraries  []module.Module
	tools      map[string]*ToolHandle
	embeddings []embeddingEntry

	inflight atomic.Uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		tools: make(map[string]*ToolHandle),
	}
}

// RegisterModule registers a statically-linked module: it verifies the ABI
// version, calls Init exactly once, then registers every descriptor.
// Registration is not safe to call concurrently with itself or with
// another RegisterModule/LoadLibrary call; it is safe with concurrent
// reads (Get/List/Search/inflight accounting).
func (r *Registry) RegisterModule(ctx context.Context, mod module.Module, credentials map[string]map[string]string, rc module.RuntimeContext) error {
	meta := mod.Meta()
	if meta.ABIVersion != module.ABIVersion {
		return fmt.Errorf("registry: abi mismatch for %s: expected %d, got %d", meta.CrateName, module.ABIVersion, meta.ABIVersion)
	}

	if err := mod.Init(ctx, rc); err != nil {
		return fmt.Errorf("registry: init failed for %s: %w: %w", meta.CrateName, moduleloader.ErrInitFailed, err)
	}

	if err := r.registerDescriptors(mod, meta, credentials); err != nil {
		return err
	}

	r.mu.Lock()
	r.libraries = append(r.libraries, mod)
	r.mu.Unlock()
	return nil
}

// LoadLibrary loads an artifact via loader, then registers it exactly as
// RegisterModule does. loadFn is typically (*moduleloader.Loader).Load;
// it is a parameter rather than a fixed call, so callers and tests can
// supply any function that yields a module.Module.
func (r *Registry) LoadLibrary(ctx context.Context, path, checksum string, credentials map[string]map[string]string, rc module.RuntimeContext, loadFn func(path, checksum string) (module.Module, error)) error {
	mod, err := loadFn(path, checksum)
	if err != nil {
		return &LoadError{Err: err}
	}
	return r.RegisterModule(ctx, mod, credentials, rc)
}

// registerDescriptors registers every descriptor the module exposes. On a
// duplicate qualified id, descriptors already inserted earlier in this
// call remain registered (see SPEC_FULL.md §9: "Resolved Open Question —
// partial registration on duplicate"); the remaining descriptors in this
// module are not attempted and DuplicateIDError is returned.
func (r *Registry) registerDescriptors(mod module.Module, meta module.Meta, credentials map[string]map[string]string) error {
	descriptors := mod.Descriptors()

	credBytes, err := json.Marshal(credentialsOrEmpty(credentials))
	if err != nil {
		return fmt.Errorf("registry: serialize credentials for %s: %w", meta.CrateName, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range descriptors {
		qualifiedID := fmt.Sprintf("%s.%s", meta.CrateName, d.ID)
		if _, exists := r.tools[qualifiedID]; exists {
			return &DuplicateIDError{QualifiedID: qualifiedID}
		}

		info := ToolInfo{
			QualifiedID:      qualifiedID,
			ToolID:           d.ID,
			CrateName:        meta.CrateName,
			CrateVersion:     meta.CrateVersion,
			DisplayName:      d.DisplayName,
			Description:      d.Description,
			InputSchema:      d.InputSchema,
			OutputSchema:     d.OutputSchema,
			CredentialSchema: d.CredentialSchema,
			Capabilities:     append([]string(nil), d.Capabilities...),
			Tags:             append([]string(nil), d.Tags...),
			Embedding:        append([]float32(nil), d.Embedding...),
		}

		if len(info.Embedding) > 0 {
			r.embeddings = append(r.embeddings, embeddingEntry{
				qualifiedID: qualifiedID,
				embedding:   append([]float32(nil), info.Embedding...),
			})
		}

		r.tools[qualifiedID] = &ToolHandle{
			Info:              info,
			ToolID:            d.ID,
			SystemCredentials: append([]byte(nil), credBytes...),
			module:            mod,
		}
	}

	return nil
}

func credentialsOrEmpty(credentials map[string]map[string]string) map[string]map[string]string {
	if credentials == nil {
		return map[string]map[string]string{}
	}
	return credentials
}

// Get returns the handle for a qualified id, if registered.
func (r *Registry) Get(qualifiedID string) (*ToolHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.tools[qualifiedID]
	return h, ok
}

// List returns every registered tool's ToolInfo, in unspecified order.
func (r *Registry) List() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolInfo, 0, len(r.tools))
	for _, h := range r.tools {
		out = append(out, h.Info)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// IsEmpty reports whether no tools are registered.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// SearchResult pairs a ToolInfo with its similarity score against a query.
type SearchResult struct {
	Info  ToolInfo
	Score float32
}

// Search ranks registered tools with an embedding by cosine similarity
// against queryEmbedding, descending, truncated to limit. An empty
// queryEmbedding or limit == 0 yields an empty result. NaN-containing
// inputs never panic: comparisons treat NaN as equal so the sort
// terminates, and NaN scores may appear in the output.
func (r *Registry) Search(queryEmbedding []float32, limit int) []SearchResult {
	if len(queryEmbedding) == 0 || limit <= 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]SearchResult, 0, len(r.embeddings))
	for _, e := range r.embeddings {
		h, ok := r.tools[e.qualifiedID]
		if !ok {
			// Defensive: should not occur under the embeddings-subset invariant.
			continue
		}
		score := CosineSimilarity(queryEmbedding, e.embedding)
		results = append(results, SearchResult{Info: h.Info, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			return false // NaN compares equal to everything: never reorder on it.
		}
		return a > b
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

// CosineSimilarity computes dot(a,b) / (||a||*||b||) in float32 arithmetic.
// Mismatched lengths, either empty, or a zero denominator all yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// StartRequest increments the in-flight counter.
func (r *Registry) StartRequest() {
	r.inflight.Add(1)
}

// EndRequest decrements the in-flight counter, saturating at zero.
func (r *Registry) EndRequest() {
	for {
		cur := r.inflight.Load()
		if cur == 0 {
			return
		}
		if r.inflight.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// InflightCount returns the current in-flight invocation count.
func (r *Registry) InflightCount() uint64 {
	return r.inflight.Load()
}

// Guard is a scoped in-flight acquisition. Release must be called exactly
// once, on every exit path including a recovered panic; Release is
// idempotent beyond the first call.
type Guard struct {
	registry *Registry
	released atomic.Bool
}

// Release ends the request this guard was acquired for. Safe to call more
// than once; only the first call has effect.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.registry.EndRequest()
	}
}

// StartRequestGuard increments the in-flight counter and returns a Guard
// whose Release (deferred by the caller) decrements it.
func (r *Registry) StartRequestGuard() *Guard {
	r.StartRequest()
	return &Guard{registry: r}
}

// Drain blocks until InflightCount reaches zero, polling every 10ms. It is
// unbounded by design; pass a context with a deadline/cancel to bound it.
func (r *Registry) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	if r.InflightCount() == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.InflightCount() == 0 {
				return nil
			}
		}
	}
}

// Shutdown calls Shutdown on every retained library exactly once. Callers
// should Drain before calling Shutdown.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.RLock()
	libs := append([]module.Module(nil), r.libraries...)
	r.mu.RUnlock()

	for _, lib := range libs {
		lib.Shutdown(ctx)
	}
}
