package runtime

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
	"github.com/wippyai/wasm-gl/gl/gltrace"
	"github.com/wippyai/wasm-gl/internal/wasmbuild"
)

var (
	i32 = wasmbuild.I32
	f64 = wasmbuild.F64
)

func types(ts ...wasmbuild.ValType) []wasmbuild.ValType { return ts }

const contextHandle = 7

// guest describes which exports a test module provides.
type guest struct {
	noDraw     bool
	drawFault  bool // draw binds a buffer handle that does not exist
	drawTrap   bool
	drop       bool
	hooks      bool
	allocator  bool
	clockF32   bool
	newCreates bool
}

// build assembles a guest. draw creates one buffer per frame so tests can
// count frames through the recorder. drop logs "dropped" via consoleLog.
func (g guest) build() []byte {
	m := wasmbuild.New().Memory(1)
	createBuffer := m.Import(bridge.ModuleName, "createBuffer", nil, types(i32))
	bindBuffer := m.Import(bridge.ModuleName, "bindBuffer", types(i32, i32), nil)
	viewport := m.Import(bridge.ModuleName, "viewport", types(i32, i32, i32, i32), nil)
	scissor := m.Import(bridge.ModuleName, "scissor", types(i32, i32, i32, i32), nil)
	consoleLog := m.Import(bridge.ModuleName, "consoleLog", types(i32, i32), nil)

	m.Data(0, []byte("dropped"))

	newBody := wasmbuild.NewCode()
	if g.newCreates {
		newBody.Call(createBuffer).Drop()
	}
	newFn := m.Func(nil, types(i32), nil, newBody.I32Const(contextHandle))
	m.Export("new", newFn)

	if !g.noDraw {
		drawBody := wasmbuild.NewCode()
		switch {
		case g.drawFault:
			drawBody.I32Const(int32(gl.ARRAY_BUFFER)).I32Const(99).Call(bindBuffer)
		case g.drawTrap:
			drawBody.Unreachable()
		default:
			drawBody.Call(createBuffer).Drop()
		}
		clock := f64
		if g.clockF32 {
			clock = wasmbuild.F32
		}
		m.Export("draw", m.Func(types(i32, clock), nil, nil, drawBody))
	}

	if g.drop {
		m.Export("drop", m.Func(types(i32), nil, nil, wasmbuild.NewCode().
			I32Const(0).I32Const(7).Call(consoleLog)))
	}

	if g.hooks {
		// resize(ctx, w, h) -> viewport(0, 0, w, h)
		m.Export("resize", m.Func(types(i32, i32, i32), nil, nil, wasmbuild.NewCode().
			I32Const(0).I32Const(0).LocalGet(1).LocalGet(2).Call(viewport)))
		// mousedown(ctx, x, y, button) -> scissor(x, y, button, ctx)
		m.Export("mousedown", m.Func(types(i32, i32, i32, i32), nil, nil, wasmbuild.NewCode().
			LocalGet(1).LocalGet(2).LocalGet(3).LocalGet(0).Call(scissor)))
	}

	if g.allocator {
		m.Export("allocate", m.Func(types(i32), types(i32), nil, wasmbuild.NewCode().I32Const(1024)))
		m.Export("free", m.Func(types(i32, i32), nil, nil, wasmbuild.NewCode()))
	}
	return m.Encode()
}

type fixture struct {
	rt   *Runtime
	rec  *gltrace.Recorder
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	rt, err := New(ctx, Config{MemoryLimitPages: 16, Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return &fixture{rt: rt, rec: gltrace.New(), logs: logs}
}

func (f *fixture) load(t *testing.T, g guest) *Session {
	t.Helper()
	s, err := f.rt.Load(context.Background(), g.build(), f.rec)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{drop: true, hooks: true, newCreates: true})

	if s.State() != StateLoaded {
		t.Errorf("state = %v, want loaded", s.State())
	}
	if s.self != contextHandle {
		t.Errorf("context handle = %d, want %d", s.self, contextHandle)
	}
	if got := s.Hooks(); len(got) != 3 || got[0] != "drop" || got[1] != "mousedown" || got[2] != "resize" {
		t.Errorf("hooks = %v", got)
	}
	if !s.Graphics().Bound() {
		t.Error("guest memory not bound")
	}
	if n := f.rec.Count("CreateBuffer"); n != 1 {
		t.Errorf("CreateBuffer during new = %d, want 1", n)
	}
	if f.logs.FilterMessage("guest loaded").Len() != 1 {
		t.Error("load not logged")
	}
}

func TestLoadMissingExport(t *testing.T) {
	f := newFixture(t)
	_, err := f.rt.Load(context.Background(), guest{noDraw: true}.build(), f.rec)
	if !errors.IsKind(err, errors.KindMissingExport) {
		t.Fatalf("error = %v, want missing export", err)
	}
	missing, ok := err.(*errors.Error).Cause.(*errors.MissingExportsError)
	if !ok || len(missing.Exports) != 1 || missing.Exports[0] != "draw" {
		t.Errorf("cause = %v, want draw missing", err.(*errors.Error).Cause)
	}
	if len(f.rec.Calls) != 0 {
		t.Errorf("graphics calls before load completed: %v", f.rec.Names())
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name string
		wasm []byte
		api  gl.API
		kind errors.Kind
	}{
		{"nil api", guest{}.build(), nil, errors.KindInvalidInput},
		{"empty", nil, f.rec, errors.KindInvalidInput},
		{"garbage", []byte("\x00asm garbage"), f.rec, errors.KindInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rt.Load(ctx, tt.wasm, tt.api)
			if !errors.IsKind(err, tt.kind) {
				t.Fatalf("error = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestLoadBadSignature(t *testing.T) {
	f := newFixture(t)
	m := wasmbuild.New()
	m.Export("new", m.Func(nil, nil, nil, wasmbuild.NewCode()))
	m.Export("draw", m.Func(types(i32, f64), nil, nil, wasmbuild.NewCode()))
	_, err := f.rt.Load(context.Background(), m.Encode(), f.rec)
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
	if errors.IsKind(err, errors.KindLayoutMismatch) {
		t.Fatalf("signature error reported as a vertex layout mismatch: %v", err)
	}
}

func TestFrame(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{})
	ctx := context.Background()

	for i := range 3 {
		if err := s.Frame(ctx, float64(i)/60); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
	if s.Frames() != 3 {
		t.Errorf("frames = %d, want 3", s.Frames())
	}
	if n := f.rec.Count("CreateBuffer"); n != 3 {
		t.Errorf("CreateBuffer = %d, want 3", n)
	}
}

func TestFrameF32Clock(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{clockF32: true})
	if err := s.Frame(context.Background(), 0.5); err != nil {
		t.Fatalf("Frame: %v", err)
	}
}

func TestFrameFault(t *testing.T) {
	tests := []struct {
		name  string
		guest guest
		cause errors.Kind
	}{
		{"protocol error", guest{drawFault: true, drop: true}, errors.KindNotFound},
		{"trap", guest{drawTrap: true, drop: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := f.load(t, tt.guest)
			ctx := context.Background()

			err := s.Frame(ctx, 0)
			if !errors.IsKind(err, errors.KindFrameFault) {
				t.Fatalf("error = %v, want frame fault", err)
			}
			e, ok := err.(*errors.Error)
			if !ok || e.Cause == nil {
				t.Fatalf("fault has no cause: %v", err)
			}
			if tt.cause != "" && errors.KindOf(e.Cause) != tt.cause {
				t.Errorf("cause = %v, want %s", e.Cause, tt.cause)
			}

			if s.State() != StateStopped {
				t.Errorf("state = %v, want stopped", s.State())
			}
			if err := s.Frame(ctx, 1); err != nil {
				t.Errorf("second Frame = %v, want nil", err)
			}
			if n := f.logs.FilterMessage("dropped").Len(); n != 1 {
				t.Errorf("drop calls = %d, want 1", n)
			}
			if f.logs.FilterMessage("guest frame failed").Len() != 1 {
				t.Error("fault not logged")
			}
		})
	}
}

func TestStop(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{drop: true, newCreates: true})
	ctx := context.Background()
	if err := s.Frame(ctx, 0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if f.rec.Live() != 2 {
		t.Fatalf("live native objects = %d, want 2", f.rec.Live())
	}

	for i := range 3 {
		if err := s.Stop(ctx); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
	}
	if n := f.logs.FilterMessage("dropped").Len(); n != 1 {
		t.Errorf("drop calls = %d, want 1", n)
	}
	if f.rec.Live() != 0 {
		t.Errorf("live native objects = %d after stop", f.rec.Live())
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
	if !s.Graphics().Closed() || s.Graphics().Bound() {
		t.Error("graphics context still open")
	}

	calls := len(f.rec.Calls)
	if err := s.Frame(ctx, 1); err != nil {
		t.Errorf("late Frame = %v", err)
	}
	if err := s.Resize(ctx, 10, 10); err != nil {
		t.Errorf("late Resize = %v", err)
	}
	if len(f.rec.Calls) != calls {
		t.Errorf("late calls reached the graphics API: %v", f.rec.Names()[calls:])
	}
	if s.Frames() != 1 {
		t.Errorf("frames = %d, want 1", s.Frames())
	}
}

func TestStopWithoutDrop(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if f.logs.FilterMessage("dropped").Len() != 0 {
		t.Error("drop logged for a guest without drop")
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{})
	if err := s.Run(context.Background(), Times(0, 0.1, 0.2, 0.3)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Frames() != 4 {
		t.Errorf("frames = %d, want 4", s.Frames())
	}
	if s.State() != StateLoaded {
		t.Errorf("state = %v, want loaded after the source ended", s.State())
	}
}

func TestRunStoppedFromSource(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{drop: true})
	ctx := context.Background()

	var ticks int
	src := SourceFunc(func(ctx context.Context) (float64, bool) {
		ticks++
		if ticks == 3 {
			if err := s.Stop(context.Background()); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}
		if ctx.Err() != nil {
			return 0, false
		}
		return float64(ticks), true
	})
	if err := s.Run(ctx, src); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Frames() != 2 {
		t.Errorf("frames = %d, want 2", s.Frames())
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
	if err := s.Run(ctx, Times(1)); err != nil {
		t.Errorf("Run after stop = %v", err)
	}
}

func TestRunReturnsFaultOnce(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{drawTrap: true})
	ctx := context.Background()
	if err := s.Run(ctx, Times(0, 1, 2)); !errors.IsKind(err, errors.KindFrameFault) {
		t.Fatalf("Run = %v, want frame fault", err)
	}
	if err := s.Run(ctx, Times(3)); err != nil {
		t.Errorf("second Run = %v, want nil", err)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, make(ManualSource)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Frames() != 0 {
		t.Errorf("frames = %d", s.Frames())
	}
}

func TestHooks(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, guest{hooks: true})
	ctx := context.Background()

	if err := s.Resize(ctx, 640, 480); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	vp := f.rec.Find("Viewport")
	if len(vp) != 1 || vp[0].Args[2] != int32(640) || vp[0].Args[3] != int32(480) {
		t.Errorf("Viewport = %v", vp)
	}

	if err := s.MouseDown(ctx, 10.4, 20.6, 2); err != nil {
		t.Fatalf("MouseDown: %v", err)
	}
	sc := f.rec.Find("Scissor")
	want := []any{int32(10), int32(21), int32(2), int32(contextHandle)}
	if len(sc) != 1 {
		t.Fatalf("Scissor = %v", sc)
	}
	for i, v := range want {
		if sc[0].Args[i] != v {
			t.Errorf("Scissor arg %d = %v, want %v", i, sc[0].Args[i], v)
		}
	}

	// Not exported by this guest.
	calls := len(f.rec.Calls)
	if err := s.MouseMove(ctx, 1, 1); err != nil {
		t.Errorf("MouseMove = %v", err)
	}
	if err := s.MouseUp(ctx, 1, 1, 0); err != nil {
		t.Errorf("MouseUp = %v", err)
	}
	if err := s.UpdateCamera(ctx, 1, 1, 1); err != nil {
		t.Errorf("UpdateCamera = %v", err)
	}
	if len(f.rec.Calls) != calls {
		t.Error("missing hooks reached the graphics API")
	}
}

func TestAlloc(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.load(t, guest{allocator: true})
	ptr, n, err := s.WriteString(ctx, "hello")
	if err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if ptr != 1024 || n != 5 {
		t.Errorf("ptr, n = %d, %d", ptr, n)
	}
	if got, _ := s.Graphics().Memory().ReadString(ptr, n); got != "hello" {
		t.Errorf("guest memory = %q", got)
	}
	if err := s.Free(ctx, ptr, n); err != nil {
		t.Errorf("Free: %v", err)
	}

	plain := f.load(t, guest{})
	if _, err := plain.Alloc(ctx, 4); !errors.IsNotFound(err) {
		t.Errorf("Alloc without allocate = %v, want not found", err)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := s.Alloc(ctx, 4); !errors.IsKind(err, errors.KindClosed) {
		t.Errorf("Alloc after stop = %v, want closed", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.load(t, guest{})
	other := gltrace.New()
	b, err := f.rt.Load(ctx, guest{}.build(), other)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := a.Frame(ctx, 0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := a.Frame(ctx, 1); err != nil {
		t.Fatalf("Frame after sibling stop: %v", err)
	}
	if f.rec.Count("CreateBuffer") != 2 || other.Count("CreateBuffer") != 0 {
		t.Errorf("CreateBuffer = %d / %d", f.rec.Count("CreateBuffer"), other.Count("CreateBuffer"))
	}
}
