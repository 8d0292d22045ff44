package runtime

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	wasmgl "github.com/wippyai/wasm-gl"
	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/errors"
)

// Guest export names.
const (
	exportNew          = "new"
	exportDraw         = "draw"
	exportResize       = "resize"
	exportDrop         = "drop"
	exportMouseMove    = "mousemove"
	exportMouseDown    = "mousedown"
	exportMouseUp      = "mouseup"
	exportUpdateCamera = "update_camera"
	exportAllocate     = "allocate"
	exportFree         = "free"
)

var requiredExports = []string{exportNew, exportDraw}

var optionalExports = []string{
	exportResize, exportDrop, exportMouseMove, exportMouseDown,
	exportMouseUp, exportUpdateCamera, exportAllocate, exportFree,
}

// State is a session's lifecycle position.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Session is one loaded guest and the graphics context it draws through.
// All methods are safe for concurrent use; guest calls are serialized.
// Once stopped, every method that would enter the guest is a no-op.
type Session struct {
	mu    sync.Mutex
	log   *zap.Logger
	gfx   *bridge.Context
	mod   api.Module
	mem   api.Memory
	self  uint32
	state State

	newFn api.Function
	draw  api.Function
	hooks map[string]api.Function

	cancel context.CancelFunc
	frames uint64
}

func newSession(mod api.Module, gfx *bridge.Context, log *zap.Logger) *Session {
	s := &Session{
		log:   log,
		gfx:   gfx,
		mod:   mod,
		newFn: mod.ExportedFunction(exportNew),
		draw:  mod.ExportedFunction(exportDraw),
		hooks: make(map[string]api.Function),
	}
	for _, name := range optionalExports {
		if fn := mod.ExportedFunction(name); fn != nil {
			s.hooks[name] = fn
		}
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frames returns how many frames completed.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Graphics returns the session's graphics context. Host-side renderers
// may share it between guest frames.
func (s *Session) Graphics() *bridge.Context {
	return s.gfx
}

// Stats snapshots the graphics context counters between guest calls.
func (s *Session) Stats() bridge.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gfx.Stats()
}

// Do runs fn with the graphics context between guest calls, for host-side
// drawing such as overlays. It is a no-op once the session stopped.
func (s *Session) Do(fn func(*bridge.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return nil
	}
	return fn(s.gfx)
}

// Hooks lists the optional exports the guest provides, sorted.
func (s *Session) Hooks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.hooks))
}

// Has reports whether the guest exports the optional hook name.
func (s *Session) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hooks[name]
	return ok
}

// Frame draws one frame at time t, in seconds. A failing frame stops the
// session; its FrameFault is returned by this call only.
func (s *Session) Frame(ctx context.Context, t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame(ctx, t)
}

func (s *Session) frame(ctx context.Context, t float64) error {
	if s.state == StateStopped || s.mod == nil {
		return nil
	}
	clock := s.draw.Definition().ParamTypes()[1]
	_, err := s.draw.Call(bridge.WithContext(ctx, s.gfx), api.EncodeU32(s.self), encode(clock, t))
	if err != nil {
		return s.fault(ctx, err)
	}
	s.frames++
	return nil
}

// fault converts a failed guest call into a FrameFault and stops the
// session. The graphics context's recorded fault is preferred over the
// runtime's trap error.
func (s *Session) fault(ctx context.Context, err error) error {
	cause := s.gfx.TakeFault()
	if cause == nil {
		cause = err
	}
	ferr := errors.FrameFault(cause)
	s.log.Error("guest frame failed", zap.Uint64("frame", s.frames), zap.Error(cause))
	if terr := s.teardown(context.WithoutCancel(ctx)); terr != nil {
		s.log.Warn("teardown after fault", zap.Error(terr))
	}
	return ferr
}

// Run moves the session to Running and draws one frame per tick of src.
// It returns when src ends, ctx is cancelled, Stop is called or a frame
// faults; only the fault is reported as an error.
func (s *Session) Run(ctx context.Context, src FrameSource) error {
	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return nil
	case StateRunning:
		s.mu.Unlock()
		return errors.InvalidInput(errors.PhaseRuntime, "session is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateRunning
	s.mu.Unlock()
	defer cancel()

	s.log.Debug("run loop started")
	for {
		t, ok := src.Next(ctx)
		if !ok {
			break
		}
		s.mu.Lock()
		err := s.frame(ctx, t)
		stopped := s.state == StateStopped
		s.mu.Unlock()
		if err != nil {
			return err
		}
		if stopped {
			break
		}
	}

	s.mu.Lock()
	if s.state == StateRunning {
		s.state = StateLoaded
		s.cancel = nil
	}
	s.mu.Unlock()
	s.log.Debug("run loop ended", zap.Uint64("frames", s.Frames()))
	return nil
}

// Resize reports a new surface size.
func (s *Session) Resize(ctx context.Context, width, height int) error {
	return s.call(ctx, exportResize, float64(width), float64(height))
}

// MouseMove reports a pointer position.
func (s *Session) MouseMove(ctx context.Context, x, y float64) error {
	return s.call(ctx, exportMouseMove, x, y)
}

// MouseDown reports a button press at a pointer position.
func (s *Session) MouseDown(ctx context.Context, x, y float64, button int) error {
	return s.call(ctx, exportMouseDown, x, y, float64(button))
}

// MouseUp reports a button release at a pointer position.
func (s *Session) MouseUp(ctx context.Context, x, y float64, button int) error {
	return s.call(ctx, exportMouseUp, x, y, float64(button))
}

// UpdateCamera reports a pan by (dx, dy) and a zoom step.
func (s *Session) UpdateCamera(ctx context.Context, dx, dy, dzoom float64) error {
	return s.call(ctx, exportUpdateCamera, dx, dy, dzoom)
}

// call invokes an optional hook with the context handle followed by args.
// Arguments are converted to the hook's declared parameter types, so a
// guest may take coordinates as i32 or f32. A missing hook is a no-op.
func (s *Session) call(ctx context.Context, name string, args ...float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped || s.mod == nil {
		return nil
	}
	fn := s.hooks[name]
	if fn == nil {
		return nil
	}
	types := fn.Definition().ParamTypes()
	if len(types) != len(args)+1 {
		s.log.Warn("hook signature mismatch",
			zap.String("hook", name),
			zap.Int("params", len(types)),
			zap.Int("want", len(args)+1))
		return nil
	}
	stack := make([]uint64, len(types))
	stack[0] = api.EncodeU32(s.self)
	for i, v := range args {
		stack[i+1] = encode(types[i+1], v)
	}
	if _, err := fn.Call(bridge.WithContext(ctx, s.gfx), stack...); err != nil {
		return s.fault(ctx, err)
	}
	return nil
}

func encode(t api.ValueType, v float64) uint64 {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(math.Round(v)))
	case api.ValueTypeI64:
		return api.EncodeI64(int64(math.Round(v)))
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v))
	default:
		return api.EncodeF64(v)
	}
}

// Alloc reserves n bytes of guest memory through the guest's allocate
// export and returns the pointer.
func (s *Session) Alloc(ctx context.Context, n uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped || s.mod == nil {
		return 0, errors.Closed(errors.PhaseRuntime, "session")
	}
	fn := s.hooks[exportAllocate]
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseRuntime, "export", exportAllocate)
	}
	res, err := fn.Call(bridge.WithContext(ctx, s.gfx), api.EncodeU32(n))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "guest allocate failed")
	}
	if len(res) == 0 {
		return 0, errors.InvalidData(errors.PhaseRuntime, []string{exportAllocate}, "allocate returned no pointer")
	}
	return api.DecodeU32(res[0]), nil
}

// Free releases a region obtained from Alloc.
func (s *Session) Free(ctx context.Context, ptr, n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped || s.mod == nil {
		return nil
	}
	fn := s.hooks[exportFree]
	if fn == nil {
		return errors.NotFound(errors.PhaseRuntime, "export", exportFree)
	}
	if _, err := fn.Call(bridge.WithContext(ctx, s.gfx), api.EncodeU32(ptr), api.EncodeU32(n)); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "guest free failed")
	}
	return nil
}

// WriteString copies str into freshly allocated guest memory and returns
// its pointer and length. Release it with Free.
func (s *Session) WriteString(ctx context.Context, str string) (ptr, n uint32, err error) {
	n = uint32(len(str))
	ptr, err = s.Alloc(ctx, n)
	if err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil || !s.mem.WriteString(ptr, str) {
		return 0, 0, errors.OutOfBounds(errors.PhaseRuntime, nil, ptr, n)
	}
	return ptr, n, nil
}

// Stop tears the session down. It is idempotent; only the first call does
// any work. A running Run loop returns once its current frame finishes.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardown(ctx)
}

// teardown runs with s.mu held. Order matters: the scheduler is detached
// before drop runs, and drop runs before the guest's references are cut.
func (s *Session) teardown(ctx context.Context) error {
	if s.state == StateStopped {
		return nil
	}
	loaded := s.state != StateUnloaded
	s.state = StateStopped

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	var err error
	mod := s.mod
	if drop := s.hooks[exportDrop]; drop != nil && loaded {
		if _, derr := drop.Call(bridge.WithContext(ctx, s.gfx), api.EncodeU32(s.self)); derr != nil {
			if fault := s.gfx.TakeFault(); fault != nil {
				derr = fault
			}
			err = multierr.Append(err, errors.Wrap(errors.PhaseRuntime, errors.KindFrameFault, derr, "guest drop failed"))
		}
	}

	s.mod = nil
	s.mem = nil
	s.gfx.UnbindMemory()
	clear(s.hooks)

	err = multierr.Append(err, s.gfx.Close())
	if mod != nil {
		err = multierr.Append(err, mod.Close(ctx))
	}
	s.log.Info("guest stopped", zap.Uint64("frames", s.frames), zap.Error(err))
	return err
}

var _ wasmgl.Allocator = (*Session)(nil)
