// Package errors provides structured error types for wasm-gl.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Handle lookups additionally carry the table category and the offending handle.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBridge, errors.KindNotFound).
//		Path("bindTexture").
//		Handle("texture", 12).
//		Detail("texture was deleted").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.HandleNotFound(errors.PhaseBridge, "buffer", h)
//	err := errors.BufferTooSmall(errors.PhaseBridge, "name", need, capacity)
//
// Protocol errors (not_found, buffer_too_small, layout_mismatch, missing_export,
// out_of_bounds) are raised at the guest/host boundary and by the batching engine.
// A protocol error raised while a frame is drawn is wrapped in a frame_fault.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
