// Package gl defines the typed native graphics surface that the bridge and
// the 2D renderer drive.
//
// API mirrors the guest import surface one call per method. Two
// implementations ship with the module:
//
//	gl/native   go-gl (OpenGL 3.3 core) bound to a live context
//	gl/gltrace  in-memory recorder used by tests and headless runs
//
// Enum values follow WebGL 2 numbering so guest code and native code agree
// without translation.
package gl
