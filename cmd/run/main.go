package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/d2"
	"github.com/wippyai/wasm-gl/gl/gltrace"
	"github.com/wippyai/wasm-gl/render"
	"github.com/wippyai/wasm-gl/runtime"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	goruntime.LockOSThread()
}

type options struct {
	wasm        string
	headless    bool
	frames      int
	width       int
	height      int
	fps         int
	memPages    uint
	wasi        bool
	hud         bool
	verbose     bool
	interactive bool
}

func main() {
	var opts options
	flag.StringVar(&opts.wasm, "wasm", "", "Path to guest wasm file")
	flag.BoolVar(&opts.headless, "headless", false, "Record graphics calls instead of opening a window")
	flag.IntVar(&opts.frames, "frames", 0, "Stop after this many frames (0 runs until closed)")
	flag.IntVar(&opts.width, "width", 1280, "Window width")
	flag.IntVar(&opts.height, "height", 720, "Window height")
	flag.IntVar(&opts.fps, "fps", 60, "Frame rate for headless runs")
	flag.UintVar(&opts.memPages, "mem", 4096, "Guest memory limit in 64KB pages")
	flag.BoolVar(&opts.wasi, "wasi", false, "Provide wasi_snapshot_preview1 to the guest")
	flag.BoolVar(&opts.hud, "hud", false, "Draw a statistics overlay over the guest")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose development logging")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with a terminal monitor")
	flag.Parse()

	if opts.wasm == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <guest.wasm> [-headless -frames N] [-width W -height H]")
		fmt.Fprintln(os.Stderr, "       run -wasm <guest.wasm> -i  (interactive mode)")
		os.Exit(1)
	}
	if opts.interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: -i needs a terminal on stdout")
		os.Exit(1)
	}

	log, err := newLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(opts, log); err != nil {
		log.Error("run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger and installs it in every package.
// The interactive monitor owns the terminal, so its logs go to a file.
func newLogger(opts options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.interactive {
		cfg.OutputPaths = []string{"run.log"}
		cfg.ErrorOutputPaths = []string{"run.log"}
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	bridge.SetLogger(log.Named("bridge"))
	d2.SetLogger(log.Named("d2"))
	render.SetLogger(log.Named("render"))
	runtime.SetLogger(log.Named("runtime"))
	return log, nil
}

func run(opts options, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(opts.wasm)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	interval := time.Second / 60
	if opts.fps > 0 {
		interval = time.Second / time.Duration(opts.fps)
	}
	rt, err := runtime.New(ctx, runtime.Config{
		MemoryLimitPages: uint32(opts.memPages),
		WASI:             opts.wasi,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		FrameInterval:    interval,
		Logger:           log.Named("runtime"),
	})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	if opts.headless {
		return runHeadless(ctx, rt, data, opts, log)
	}
	return runWindow(ctx, rt, data, opts, log)
}

func runHeadless(ctx context.Context, rt *runtime.Runtime, data []byte, opts options, log *zap.Logger) error {
	rec := gltrace.New()
	sess, err := rt.Load(ctx, data, rec)
	if err != nil {
		return err
	}
	defer sess.Stop(ctx)

	var src runtime.FrameSource = rt.Ticker()
	if opts.frames > 0 {
		src = limit(src, opts.frames)
	}

	if opts.interactive {
		return monitor(ctx, sess, src, opts.wasm)
	}
	start := time.Now()
	if err := sess.Run(ctx, src); err != nil {
		return err
	}
	stats := sess.Stats()
	log.Info("headless run finished",
		zap.Uint64("frames", sess.Frames()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Uint64("draw_calls", stats.DrawCalls),
		zap.Int("graphics_calls", len(rec.Calls)),
		zap.Any("live", stats.Live))
	return sess.Stop(ctx)
}

// limit ends src after n frames.
func limit(src runtime.FrameSource, n int) runtime.FrameSource {
	var seen int
	return runtime.SourceFunc(func(ctx context.Context) (float64, bool) {
		if seen >= n {
			return 0, false
		}
		seen++
		return src.Next(ctx)
	})
}
