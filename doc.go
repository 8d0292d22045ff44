// Package wasmgl is a 2D immediate-mode rendering engine for sandboxed
// WebAssembly guests.
//
// Guests run in wazero and draw through a "webgl" host module. They never
// hold native pointers: every buffer, program, shader, texture and
// framebuffer is addressed by an opaque integer handle that the host
// resolves against per-category handle tables.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmgl/              Root package with guest Memory and Allocator interfaces
//	├── runtime/         Guest loading, session lifecycle and frame scheduling
//	├── bridge/          Graphics context, handle tables and the webgl host module
//	├── resource/        Generic handle table with observers
//	├── gl/              Typed graphics API surface and enum constants
//	│   ├── native/      OpenGL 3.3 core backend (go-gl)
//	│   └── gltrace/     Recording backend for tests and headless runs
//	├── d2/              Batching engine: builders, pools, pens, paint, sprites, text
//	├── render/          Executes d2 draw commands through a graphics context
//	├── errors/          Structured error types for debugging
//	└── cmd/run/         Window or headless host with a terminal monitor
//
// # Quick Start
//
// Load and run a guest:
//
//	rt, err := runtime.New(ctx, runtime.Config{})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	sess, err := rt.Load(ctx, wasmBytes, api)
//	if err != nil {
//	    return err
//	}
//	defer sess.Stop(ctx)
//
//	return sess.Run(ctx, rt.Ticker())
//
// Draw from host code:
//
//	r, _ := render.New(sess.Graphics(), render.Config{})
//	pool := d2.NewPool()
//	key := d2.NewKey(d2.ColorLayout, d2.Triangles, d2.BlendAlpha, d2.DefaultColorUniform())
//	b, _ := d2.BuilderFor[d2.ColorVertex](pool, key)
//	d2.FillRect(b, d2.Solid(d2.White), d2.Box(-0.5, -0.5, 0.5, 0.5))
//	pool.Flush(r)
//
// # Frame Flow
//
//  1. A frame source ticks and the session calls the guest's draw export.
//  2. Tools append vertices into builders held by a pool.
//  3. The pool flush walks its ordered log and emits one command per run.
//  4. The renderer applies state and issues draw calls through the context.
//  5. The context resolves handles and calls the native API.
//
// Guests enter at step 4 through the webgl imports.
//
// # Error Handling
//
// Errors carry a phase and kind for programmatic handling:
//
//	if errors.IsKind(err, errors.KindFrameFault) {
//	    // the session stopped itself
//	}
//
// Protocol errors raised by a guest's graphics calls fault the frame that
// made them; the session logs the fault, tears down and reports it once.
package wasmgl
