// Package render executes d2 draw commands through a bridge context.
//
// A Renderer owns one program per d2 shader, a streaming vertex buffer and
// an element buffer. For every command it applies only the pipeline state
// that differs from the previous command, uploads the command's vertex and
// index ranges, points the layout's attributes at them, applies the uniform
// and issues one indexed draw:
//
//	r, err := render.New(bctx, render.Config{})
//	...
//	err = pool.Flush(r)
//
// Shader compile and link failures are logged. Commands that need a
// program which failed to build are skipped.
package render
