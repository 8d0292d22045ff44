// Package runtime loads wasm guests that draw through the webgl host
// module and drives their frame loop.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.Config{MemoryLimitPages: 1024})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Instantiate the guest and call its new export
//	sess, err := rt.Load(ctx, wasmBytes, native.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Stop(ctx)
//
//	// Draw at the configured frame interval until ctx is cancelled
//	err = sess.Run(ctx, rt.Ticker())
//
// # Guest ABI
//
// A guest is a core module importing "webgl" functions. It must export
//
//	new() -> i32           construct the guest context, returning its handle
//	draw(i32, f64)         draw one frame; the second argument is seconds
//
// and may export
//
//	resize(i32, w, h)
//	mousemove(i32, x, y)
//	mousedown(i32, x, y, button)
//	mouseup(i32, x, y, button)
//	update_camera(i32, dx, dy, dzoom)
//	drop(i32)
//	allocate(n) -> ptr
//	free(ptr, n)
//
// Hook arguments after the context handle may be i32, i64, f32 or f64;
// the session converts to whatever the guest declares. Missing hooks are
// skipped silently.
//
// # Lifecycle
//
//	Unloaded -> Loaded -> Running -> Stopped
//
// Load returns a Loaded session. Run moves it to Running and back to
// Loaded when its frame source ends. Stop is terminal and idempotent: it
// cancels the run loop, calls drop once, cuts the guest's memory and
// instance, deletes every native object the guest created and closes the
// guest module. Calls arriving after Stop are no-ops.
//
// A failing guest call becomes an errors.KindFrameFault. The session
// stops itself and the fault is returned from the call that hit it; later
// calls return nil.
package runtime
