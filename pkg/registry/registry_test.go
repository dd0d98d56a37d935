package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/toolrt/pkg/module"
)

// fakeModule is a minimal module.Module used throughout this suite. Call
// echoes "{tool_id}|{input}" as its output, matching the reference
// implementation's own test helper.
type fakeModule struct {
	meta        module.Meta
	descriptors []module.ToolDescriptor
	initErr     error
	callErr     error
}

func (m *fakeModule) Meta() module.Meta                   { return m.meta }
func (m *fakeModule) Descriptors() []module.ToolDescriptor { return m.descriptors }
func (m *fakeModule) Init(ctx context.Context, rc module.RuntimeContext) error {
	return m.initErr
}
func (m *fakeModule) Shutdown(ctx context.Context) {}
func (m *fakeModule) Call(ctx context.Context, args module.CallArgs) (module.CallResult, error) {
	if m.callErr != nil {
		return module.CallResult{}, m.callErr
	}
	out := fmt.Sprintf("%s|%s", args.ToolID, string(args.Input))
	return module.CallResult{Result: module.ResultOK, Output: []byte(out)}, nil
}

func testDescriptor(id string, embedding []float32) module.ToolDescriptor {
	return module.ToolDescriptor{
		ID:           id,
		DisplayName:  id,
		Description:  "test tool " + id,
		InputSchema:  "{}",
		OutputSchema: "{}",
		Capabilities: []string{"read"},
		Tags:         []string{"test"},
		Embedding:    embedding,
	}
}

func insertTestTool(t *testing.T, r *Registry, crateName, toolID string, embedding []float32) {
	t.Helper()
	mod := &fakeModule{
		meta:        module.Meta{ABIVersion: module.ABIVersion, CrateName: crateName, CrateVersion: "0.1.0"},
		descriptors: []module.ToolDescriptor{testDescriptor(toolID, embedding)},
	}
	err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{})
	require.NoError(t, err)
}

func TestRegistry_GetListLenIsEmpty(t *testing.T) {
	r := New()
	assert.True(t, r.IsEmpty())
	assert.Equal(t, 0, r.Len())

	insertTestTool(t, r, "static-tool", "echo", nil)

	assert.False(t, r.IsEmpty())
	assert.Equal(t, 1, r.Len())

	h, ok := r.Get("static-tool.echo")
	require.True(t, ok)
	assert.Equal(t, "echo", h.Info.ToolID)
	assert.Equal(t, "static-tool.echo", h.Info.QualifiedID)

	_, ok = r.Get("missing.x")
	assert.False(t, ok)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "static-tool.echo", list[0].QualifiedID)
}

func TestRegistry_GetIffInList(t *testing.T) {
	r := New()
	insertTestTool(t, r, "crate-a", "one", nil)
	insertTestTool(t, r, "crate-a", "two", nil)

	ids := map[string]bool{}
	for _, info := range r.List() {
		ids[info.QualifiedID] = true
	}

	for _, q := range []string{"crate-a.one", "crate-a.two"} {
		_, ok := r.Get(q)
		assert.True(t, ok)
		assert.True(t, ids[q])
	}
	_, ok := r.Get("crate-a.three")
	assert.False(t, ok)
	assert.False(t, ids["crate-a.three"])
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := New()
	mod := &fakeModule{
		meta: module.Meta{ABIVersion: module.ABIVersion, CrateName: "dup-tool", CrateVersion: "0.1.0"},
		descriptors: []module.ToolDescriptor{
			testDescriptor("a", nil),
			testDescriptor("a", nil),
		},
	}
	err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{})
	require.Error(t, err)
	var dupErr *DuplicateIDError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "dup-tool.a", dupErr.QualifiedID)
	assert.Equal(t, "duplicate tool ID: dup-tool.a", err.Error())

	// Partial registration: the first "a" is already inserted by the time
	// the duplicate is detected (see DESIGN.md Open Question resolution).
	_, ok := r.Get("dup-tool.a")
	assert.True(t, ok)
}

func TestRegistry_DuplicateID_AcrossModules(t *testing.T) {
	r := New()
	insertTestTool(t, r, "crate-a", "x", nil)

	mod := &fakeModule{
		meta:        module.Meta{ABIVersion: module.ABIVersion, CrateName: "crate-a", CrateVersion: "0.2.0"},
		descriptors: []module.ToolDescriptor{testDescriptor("x", nil)},
	}
	err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{})
	require.Error(t, err)
	var dupErr *DuplicateIDError
	require.True(t, errors.As(err, &dupErr))
}

func TestRegistry_ToolHandleCall(t *testing.T) {
	r := New()
	insertTestTool(t, r, "static-tool", "echo", nil)

	h, ok := r.Get("static-tool.echo")
	require.True(t, ok)

	res, err := h.Call(context.Background(), module.CallContext{RequestID: "r1"}, []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, module.ResultOK, res.Result)
	assert.Equal(t, `echo|{"ok":true}`, string(res.Output))
}

func TestRegistry_SearchEmptyQuery(t *testing.T) {
	r := New()
	insertTestTool(t, r, "a", "one", []float32{1, 0})
	assert.Empty(t, r.Search(nil, 10))
	assert.Empty(t, r.Search([]float32{}, 10))
}

func TestRegistry_SearchEmptyRegistry(t *testing.T) {
	r := New()
	assert.Empty(t, r.Search([]float32{1, 0}, 10))
}

func TestRegistry_SearchLimitZero(t *testing.T) {
	r := New()
	insertTestTool(t, r, "a", "one", []float32{1, 0})
	assert.Empty(t, r.Search([]float32{1, 0}, 0))
}

func TestRegistry_SearchSkipsToolsWithoutEmbeddings(t *testing.T) {
	r := New()
	insertTestTool(t, r, "a", "has-embedding", []float32{1, 0})
	insertTestTool(t, r, "b", "no-embedding", nil)

	results := r.Search([]float32{1, 0}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a.has-embedding", results[0].Info.QualifiedID)
}

func TestRegistry_SearchSortedAndLimited(t *testing.T) {
	r := New()
	insertTestTool(t, r, "a", "aligned", []float32{1, 0})
	insertTestTool(t, r, "b", "orthogonal", []float32{0, 1})

	results := r.Search([]float32{1, 0}, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "a.aligned", results[0].Info.QualifiedID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Equal(t, "b.orthogonal", results[1].Info.QualifiedID)
	assert.InDelta(t, 0.0, results[1].Score, 1e-4)

	limited := r.Search([]float32{1, 0}, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "a.aligned", limited[0].Info.QualifiedID)
}

func TestRegistry_SearchNaNSafe(t *testing.T) {
	r := New()
	insertTestTool(t, r, "a", "one", []float32{1, 0})
	insertTestTool(t, r, "b", "two", []float32{0, 1})

	assert.NotPanics(t, func() {
		results := r.Search([]float32{float32(math.NaN()), 0}, 10)
		assert.Len(t, results, 2)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-4)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{-1, -2, -3}), 1e-4)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-4)
	assert.Equal(t, float32(0), CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, float32(0), CosineSimilarity(nil, nil))
	assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{0, 0}))

	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-6)
}

func TestRegistry_InflightBasic(t *testing.T) {
	r := New()
	assert.Equal(t, uint64(0), r.InflightCount())

	r.StartRequest()
	r.StartRequest()
	assert.Equal(t, uint64(2), r.InflightCount())

	r.EndRequest()
	assert.Equal(t, uint64(1), r.InflightCount())

	r.EndRequest()
	r.EndRequest() // saturates at zero, never goes negative
	assert.Equal(t, uint64(0), r.InflightCount())
}

func TestRegistry_InflightGuardReleasesOnce(t *testing.T) {
	r := New()
	g := r.StartRequestGuard()
	assert.Equal(t, uint64(1), r.InflightCount())
	g.Release()
	g.Release()
	assert.Equal(t, uint64(0), r.InflightCount())
}

func TestRegistry_InflightConcurrent(t *testing.T) {
	r := New()
	const goroutines = 50
	const perGoroutine = 1000

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < perGoroutine; j++ {
				r.StartRequest()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(goroutines*perGoroutine), r.InflightCount())

	g = errgroup.Group{}
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < perGoroutine; j++ {
				r.EndRequest()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(0), r.InflightCount())
}

// TestRegistry_DrainCancelsOnErrgroupFailure exercises Drain alongside an
// errgroup.Group driving concurrent in-flight requests: InflightCount/Drain
// must still account correctly once every goroutine in the group has
// released its guard, even when the group itself reports an unrelated error.
func TestRegistry_DrainCancelsOnErrgroupFailure(t *testing.T) {
	r := New()
	const goroutines = 20

	var g errgroup.Group
	guards := make([]*Guard, goroutines)
	for i := 0; i < goroutines; i++ {
		i := i
		g.Go(func() error {
			guards[i] = r.StartRequestGuard()
			if i == 0 {
				return fmt.Errorf("simulated failure in goroutine %d", i)
			}
			return nil
		})
	}
	err := g.Wait()
	require.Error(t, err)
	assert.Equal(t, uint64(goroutines), r.InflightCount())

	for _, guard := range guards {
		guard.Release()
	}
	assert.Equal(t, uint64(0), r.InflightCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func TestRegistry_DrainEmpty(t *testing.T) {
	r := New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func TestRegistry_DrainWaitsForInflight(t *testing.T) {
	r := New()
	g := r.StartRequestGuard()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- r.Drain(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("drain returned before guard was released")
	default:
	}

	g.Release()
	require.NoError(t, <-done)
}

func TestRegistry_DrainTimeout(t *testing.T) {
	r := New()
	g := r.StartRequestGuard()
	defer g.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Drain(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_ErrorMessages(t *testing.T) {
	assert.Equal(t, "tool not found: missing.x", (&NotFoundError{QualifiedID: "missing.x"}).Error())
	assert.Equal(t, "duplicate tool ID: a.b", (&DuplicateIDError{QualifiedID: "a.b"}).Error())
	assert.Equal(t, "tool invocation failed: boom", (&InvocationError{Message: "boom"}).Error())
	assert.Equal(t, "failed to load library: x", (&LoadError{Err: errors.New("x")}).Error())
}

func TestRegistry_InitFailure(t *testing.T) {
	r := New()
	mod := &fakeModule{
		meta:    module.Meta{ABIVersion: module.ABIVersion, CrateName: "broken", CrateVersion: "0.1.0"},
		initErr: errors.New("boom"),
	}
	err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{})
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_AbiMismatch(t *testing.T) {
	r := New()
	mod := &fakeModule{
		meta: module.Meta{ABIVersion: module.ABIVersion + 1, CrateName: "mismatched", CrateVersion: "0.1.0"},
	}
	err := r.RegisterModule(context.Background(), mod, nil, module.RuntimeContext{})
	require.Error(t, err)
}
