package main

import (
	"context"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/gl/native"
	"github.com/wippyai/wasm-gl/runtime"
)

// window is a GLFW window that paces the session at the display refresh
// rate and forwards input to the guest's hooks.
type window struct {
	win  *glfw.Window
	sess *runtime.Session
	hud  *hud
	log  *zap.Logger
	ctx  context.Context

	frames   int
	maxFrame int
	lastX    float64
	lastY    float64
	panning  bool
}

func openWindow(opts options) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(opts.width, opts.height, "wasm-gl: "+opts.wasm, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)
	return win, nil
}

func runWindow(ctx context.Context, rt *runtime.Runtime, data []byte, opts options, log *zap.Logger) error {
	win, err := openWindow(opts)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer win.Destroy()

	api, err := native.New()
	if err != nil {
		return err
	}
	defer api.Close()
	log.Info("OpenGL context ready", zap.String("version", api.Version()))

	sess, err := rt.Load(ctx, data, api)
	if err != nil {
		return err
	}
	defer sess.Stop(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := &window{win: win, sess: sess, log: log, ctx: ctx, maxFrame: opts.frames}
	if opts.hud {
		if w.hud, err = newHUD(log.Named("hud")); err != nil {
			return err
		}
	}
	w.installCallbacks()

	fbw, fbh := win.GetFramebufferSize()
	w.resize(fbw, fbh)

	var finish func(error)
	if opts.interactive {
		finish = startMonitor(sess, cancel, opts.wasm)
	}
	err = sess.Run(ctx, w)
	if finish != nil {
		finish(err)
	}
	if err != nil {
		return err
	}
	return sess.Stop(ctx)
}

// Next presents the previous frame, processes input and returns the GLFW
// clock. Input callbacks run inside PollEvents, between guest frames.
func (w *window) Next(ctx context.Context) (float64, bool) {
	if w.frames > 0 {
		if w.hud != nil {
			w.hud.draw(w.sess)
		}
		w.win.SwapBuffers()
	}
	glfw.PollEvents()
	if w.win.ShouldClose() || ctx.Err() != nil {
		return 0, false
	}
	if w.maxFrame > 0 && w.frames >= w.maxFrame {
		return 0, false
	}
	w.frames++
	return glfw.GetTime(), true
}

func (w *window) installCallbacks() {
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resize(width, height)
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.panning {
			w.check("update_camera", w.sess.UpdateCamera(w.ctx, x-w.lastX, y-w.lastY, 0))
		}
		w.lastX, w.lastY = x, y
		w.check("mousemove", w.sess.MouseMove(w.ctx, x, y))
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonRight {
			w.panning = action == glfw.Press
		}
		switch action {
		case glfw.Press:
			w.check("mousedown", w.sess.MouseDown(w.ctx, w.lastX, w.lastY, int(button)))
		case glfw.Release:
			w.check("mouseup", w.sess.MouseUp(w.ctx, w.lastX, w.lastY, int(button)))
		}
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.check("update_camera", w.sess.UpdateCamera(w.ctx, 0, 0, yoff))
	})
	w.win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
}

func (w *window) resize(width, height int) {
	if w.hud != nil {
		w.hud.resize(width, height)
	}
	w.check("resize", w.sess.Resize(w.ctx, width, height))
}

// check closes the window when a hook faulted; the session has already
// stopped itself.
func (w *window) check(hook string, err error) {
	if err == nil {
		return
	}
	w.log.Error("guest hook failed", zap.String("hook", hook), zap.Error(err))
	w.win.SetShouldClose(true)
}
