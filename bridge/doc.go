// Package bridge lets a sandboxed guest drive a native graphics API
// without holding native pointers.
//
// A Context owns one handle table per object category (buffers, programs,
// shaders, textures, framebuffers and uniform locations). Guests only ever
// see small integer handles; every call resolves them through the tables
// before touching the native API, so a zero, stale or forged handle is a
// not_found protocol error instead of undefined behavior. Handles are
// never reused within a session.
//
// Buffer-carrying calls read from the guest's linear memory through a
// bounds-checked view bound with BindMemory. Until memory is bound those
// calls are no-ops.
//
// Instantiate registers the "webgl" wazero host module. Guest exports must
// be invoked with a context.Context produced by WithContext so each import
// reaches the calling session's Context:
//
//	c := bridge.NewContext(api, logger)
//	c.BindMemory(mod.Memory())
//	_, err := mod.ExportedFunction("draw").Call(bridge.WithContext(ctx, c), 0, t)
//	if fault := c.TakeFault(); fault != nil {
//		// the guest violated the protocol
//	}
package bridge
