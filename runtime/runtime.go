package runtime

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
)

// DefaultFrameInterval paces IntervalSource when Config leaves it unset.
const DefaultFrameInterval = time.Second / 60

// Config holds configuration for runtime creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per guest in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool

	// WASI provides wasi_snapshot_preview1 to guests built for a WASI
	// target. Guest stdout and stderr go to Stdout and Stderr.
	WASI   bool
	Stdout io.Writer
	Stderr io.Writer

	// FrameInterval is the tick period of Runtime.Ticker. Zero means
	// DefaultFrameInterval.
	FrameInterval time.Duration

	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// Runtime owns a wazero runtime with the webgl host module installed.
// Sessions loaded from it share compiled host code but nothing else.
type Runtime struct {
	cfg Config
	rt  wazero.Runtime
	log *zap.Logger
}

// New creates a runtime and instantiates the host modules guests import.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.EnableThreads {
		runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	r := &Runtime{
		cfg: cfg,
		rt:  wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log: log,
	}
	if _, err := bridge.Instantiate(ctx, r.rt); err != nil {
		return nil, multierr.Append(err, r.rt.Close(ctx))
	}
	if cfg.WASI {
		if err := instantiateWASI(ctx, r.rt); err != nil {
			return nil, multierr.Append(err, r.rt.Close(ctx))
		}
	}
	return r, nil
}

// Close releases all runtime resources, including any guest modules that
// are still instantiated. Stop sessions first so their drop hooks run.
func (r *Runtime) Close(ctx context.Context) error {
	return r.rt.Close(ctx)
}

// Ticker returns an IntervalSource at the configured frame interval.
func (r *Runtime) Ticker() *IntervalSource {
	return NewIntervalSource(r.cfg.FrameInterval)
}

// Load compiles and instantiates a guest, binds its memory to a fresh
// graphics context driving a and calls the guest's new export. The
// returned session is Loaded.
func (r *Runtime) Load(ctx context.Context, wasm []byte, a gl.API) (*Session, error) {
	if a == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil graphics API")
	}
	if len(wasm) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty guest binary")
	}

	compiled, err := r.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile guest", err)
	}
	defer compiled.Close(ctx)

	if err := checkExports(compiled); err != nil {
		return nil, err
	}

	gfx := bridge.NewContext(a, r.log)
	bctx := bridge.WithContext(ctx, gfx)

	modCfg := wazero.NewModuleConfig().
		WithName(""). // anonymous, so one runtime can host several guests
		WithStartFunctions("_initialize")
	if r.cfg.WASI {
		modCfg = withStdio(modCfg, r.cfg.Stdout, r.cfg.Stderr)
	}
	mod, err := r.rt.InstantiateModule(bctx, compiled, modCfg)
	if err != nil {
		if fault := gfx.TakeFault(); fault != nil {
			err = fault
		}
		return nil, multierr.Append(errors.Instantiation(err), gfx.Close())
	}

	s := newSession(mod, gfx, r.log)
	if mem := mod.Memory(); mem != nil {
		gfx.BindMemory(mem)
		s.mem = mem
	} else {
		r.log.Warn("guest exports no memory; buffer calls will fault")
	}

	res, err := s.newFn.Call(bctx)
	if err != nil {
		if fault := gfx.TakeFault(); fault != nil {
			err = fault
		}
		cause := errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "guest new failed")
		return nil, multierr.Append(cause, s.teardown(ctx))
	}
	s.self = api.DecodeU32(res[0])
	s.state = StateLoaded

	r.log.Info("guest loaded",
		zap.Uint32("context", s.self),
		zap.Strings("hooks", s.Hooks()),
		zap.Int("live_objects", gfx.Stats().LiveTotal()))
	return s, nil
}

// checkExports verifies the required entry points and their signatures.
func checkExports(compiled wazero.CompiledModule) error {
	exports := compiled.ExportedFunctions()
	var missing []string
	for _, name := range requiredExports {
		if _, ok := exports[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.MissingExport(compiled.Name(), missing...)
	}

	if def := exports[exportNew]; len(def.ParamTypes()) != 0 || !slices.Equal(def.ResultTypes(), []api.ValueType{api.ValueTypeI32}) {
		return signatureMismatch(exportNew, def)
	}
	if def := exports[exportDraw]; len(def.ParamTypes()) != 2 || def.ParamTypes()[0] != api.ValueTypeI32 {
		return signatureMismatch(exportDraw, def)
	}
	return nil
}

func signatureMismatch(name string, def api.FunctionDefinition) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
		Path(name).
		Detail("export %s has signature %s -> %s",
			name, valueTypes(def.ParamTypes()), valueTypes(def.ResultTypes())).
		Build()
}

func valueTypes(ts []api.ValueType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = api.ValueTypeName(t)
	}
	return out
}
