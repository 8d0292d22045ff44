// Package native implements gl.API on top of go-gl's OpenGL 3.3 core
// bindings. A context must be current on the calling thread before New is
// called and for every call afterwards.
package native

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	api "github.com/wippyai/wasm-gl/gl"
)

// GL drives the current OpenGL context.
type GL struct {
	vao uint32
}

// New loads the GL function pointers and binds the vertex array object
// that core profiles require for attribute setup.
func New() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init OpenGL: %w", err)
	}
	g := &GL{}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	return g, nil
}

// Version returns the GL_VERSION string of the current context.
func (g *GL) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Close releases the vertex array object.
func (g *GL) Close() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		g.vao = 0
	}
}

func (g *GL) Enable(capability uint32)  { gl.Enable(capability) }
func (g *GL) Disable(capability uint32) { gl.Disable(capability) }

func (g *GL) Scissor(x, y, width, height int32)  { gl.Scissor(x, y, width, height) }
func (g *GL) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (g *GL) BlendFunc(sfactor, dfactor uint32) { gl.BlendFunc(sfactor, dfactor) }
func (g *GL) BlendEquation(mode uint32)         { gl.BlendEquation(mode) }
func (g *GL) DepthFunc(fn uint32)               { gl.DepthFunc(fn) }
func (g *GL) CullFace(mode uint32)              { gl.CullFace(mode) }
func (g *GL) ClearColor(r, gr, b, a float32)    { gl.ClearColor(r, gr, b, a) }
func (g *GL) ClearDepth(depth float64)          { gl.ClearDepth(depth) }
func (g *GL) ClearStencil(s int32)              { gl.ClearStencil(s) }
func (g *GL) Clear(mask uint32)                 { gl.Clear(mask) }
func (g *GL) ColorMask(r, gr, b, a bool)        { gl.ColorMask(r, gr, b, a) }
func (g *GL) DepthMask(flag bool)               { gl.DepthMask(flag) }
func (g *GL) StencilMask(mask uint32)           { gl.StencilMask(mask) }

func (g *GL) CreateBuffer() api.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return api.Buffer(b)
}

func (g *GL) BindBuffer(target uint32, b api.Buffer) { gl.BindBuffer(target, uint32(b)) }

func (g *GL) BufferData(target uint32, data []byte, usage uint32) {
	gl.BufferData(target, len(data), ptr(data), usage)
}

func (g *GL) DeleteBuffer(b api.Buffer) {
	name := uint32(b)
	gl.DeleteBuffers(1, &name)
}

func (g *GL) EnableVertexAttribArray(index uint32)  { gl.EnableVertexAttribArray(index) }
func (g *GL) DisableVertexAttribArray(index uint32) { gl.DisableVertexAttribArray(index) }

func (g *GL) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, typ, normalized, stride, gl.PtrOffset(offset))
}

func (g *GL) VertexAttribDivisor(index, divisor uint32) { gl.VertexAttribDivisor(index, divisor) }

func (g *GL) CreateProgram() api.Program         { return api.Program(gl.CreateProgram()) }
func (g *GL) DeleteProgram(p api.Program) { gl.DeleteProgram(uint32(p)) }
func (g *GL) CreateShader(typ uint32) api.Shader { return api.Shader(gl.CreateShader(typ)) }
func (g *GL) DeleteShader(s api.Shader) { gl.DeleteShader(uint32(s)) }

func (g *GL) ShaderSource(s api.Shader, source string) {
	csrc, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(uint32(s), 1, csrc, nil)
}

func (g *GL) CompileShader(s api.Shader)               { gl.CompileShader(uint32(s)) }
func (g *GL) AttachShader(p api.Program, s api.Shader) { gl.AttachShader(uint32(p), uint32(s)) }
func (g *GL) LinkProgram(p api.Program)                { gl.LinkProgram(uint32(p)) }
func (g *GL) UseProgram(p api.Program)                 { gl.UseProgram(uint32(p)) }

func (g *GL) GetShaderParameter(s api.Shader, pname uint32) int32 {
	var v int32
	gl.GetShaderiv(uint32(s), pname, &v)
	return v
}

func (g *GL) GetProgramParameter(p api.Program, pname uint32) int32 {
	var v int32
	gl.GetProgramiv(uint32(p), pname, &v)
	return v
}

func (g *GL) GetShaderInfoLog(s api.Shader) string {
	n := g.GetShaderParameter(s, gl.INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n+1)
	gl.GetShaderInfoLog(uint32(s), n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func (g *GL) GetProgramInfoLog(p api.Program) string {
	n := g.GetProgramParameter(p, gl.INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n+1)
	gl.GetProgramInfoLog(uint32(p), n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func (g *GL) GetUniformLocation(p api.Program, name string) api.UniformLocation {
	return api.UniformLocation(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (g *GL) GetAttribLocation(p api.Program, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (g *GL) GetActiveUniform(p api.Program, index uint32) (api.ActiveInfo, bool) {
	if int32(index) >= g.GetProgramParameter(p, gl.ACTIVE_UNIFORMS) {
		return api.ActiveInfo{}, false
	}
	maxLen := g.GetProgramParameter(p, gl.ACTIVE_UNIFORM_MAX_LENGTH)
	return activeInfo(maxLen, func(buf []byte, length, size *int32, typ *uint32) {
		gl.GetActiveUniform(uint32(p), index, int32(len(buf)), length, size, typ, &buf[0])
	}), true
}

func (g *GL) GetActiveAttrib(p api.Program, index uint32) (api.ActiveInfo, bool) {
	if int32(index) >= g.GetProgramParameter(p, gl.ACTIVE_ATTRIBUTES) {
		return api.ActiveInfo{}, false
	}
	maxLen := g.GetProgramParameter(p, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH)
	return activeInfo(maxLen, func(buf []byte, length, size *int32, typ *uint32) {
		gl.GetActiveAttrib(uint32(p), index, int32(len(buf)), length, size, typ, &buf[0])
	}), true
}

func activeInfo(maxLen int32, query func(buf []byte, length, size *int32, typ *uint32)) api.ActiveInfo {
	if maxLen < 1 {
		maxLen = 1
	}
	buf := make([]byte, maxLen)
	var length, size int32
	var typ uint32
	query(buf, &length, &size, &typ)
	return api.ActiveInfo{Name: string(buf[:length]), Size: size, Type: typ}
}

func (g *GL) Uniform1fv(loc api.UniformLocation, v []float32) {
	if len(v) > 0 {
		gl.Uniform1fv(int32(loc), int32(len(v)), &v[0])
	}
}

func (g *GL) Uniform2fv(loc api.UniformLocation, v []float32) {
	if len(v) >= 2 {
		gl.Uniform2fv(int32(loc), int32(len(v)/2), &v[0])
	}
}

func (g *GL) Uniform3fv(loc api.UniformLocation, v []float32) {
	if len(v) >= 3 {
		gl.Uniform3fv(int32(loc), int32(len(v)/3), &v[0])
	}
}

func (g *GL) Uniform4fv(loc api.UniformLocation, v []float32) {
	if len(v) >= 4 {
		gl.Uniform4fv(int32(loc), int32(len(v)/4), &v[0])
	}
}

func (g *GL) Uniform1iv(loc api.UniformLocation, v []int32) {
	if len(v) > 0 {
		gl.Uniform1iv(int32(loc), int32(len(v)), &v[0])
	}
}

func (g *GL) Uniform2iv(loc api.UniformLocation, v []int32) {
	if len(v) >= 2 {
		gl.Uniform2iv(int32(loc), int32(len(v)/2), &v[0])
	}
}

func (g *GL) Uniform3iv(loc api.UniformLocation, v []int32) {
	if len(v) >= 3 {
		gl.Uniform3iv(int32(loc), int32(len(v)/3), &v[0])
	}
}

func (g *GL) Uniform4iv(loc api.UniformLocation, v []int32) {
	if len(v) >= 4 {
		gl.Uniform4iv(int32(loc), int32(len(v)/4), &v[0])
	}
}

type matrixFunc func(location int32, count int32, transpose bool, value *float32)

func uniformMatrix(fn matrixFunc, elems int, loc api.UniformLocation, transpose bool, v []float32) {
	if n := len(v) / elems; n > 0 {
		fn(int32(loc), int32(n), transpose, &v[0])
	}
}

func (g *GL) UniformMatrix2fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix2fv, 4, loc, transpose, v)
}

func (g *GL) UniformMatrix3fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix3fv, 9, loc, transpose, v)
}

func (g *GL) UniformMatrix4fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix4fv, 16, loc, transpose, v)
}

func (g *GL) UniformMatrix2x3fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix2x3fv, 6, loc, transpose, v)
}

func (g *GL) UniformMatrix2x4fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix2x4fv, 8, loc, transpose, v)
}

func (g *GL) UniformMatrix3x2fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix3x2fv, 6, loc, transpose, v)
}

func (g *GL) UniformMatrix3x4fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix3x4fv, 12, loc, transpose, v)
}

func (g *GL) UniformMatrix4x2fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix4x2fv, 8, loc, transpose, v)
}

func (g *GL) UniformMatrix4x3fv(loc api.UniformLocation, transpose bool, v []float32) {
	uniformMatrix(gl.UniformMatrix4x3fv, 12, loc, transpose, v)
}

func (g *GL) CreateTexture() api.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	return api.Texture(t)
}

func (g *GL) DeleteTexture(t api.Texture) {
	name := uint32(t)
	gl.DeleteTextures(1, &name)
}

func (g *GL) BindTexture(target uint32, t api.Texture) { gl.BindTexture(target, uint32(t)) }
func (g *GL) ActiveTexture(unit uint32)                { gl.ActiveTexture(unit) }
func (g *GL) GenerateMipmap(target uint32)             { gl.GenerateMipmap(target) }
func (g *GL) PixelStorei(pname uint32, param int32)    { gl.PixelStorei(pname, param) }

func (g *GL) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (g *GL) TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, typ uint32, pixels []byte) {
	gl.TexImage2D(target, level, internalFormat, width, height, border, format, typ, ptr(pixels))
}

func (g *GL) TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, pixels []byte) {
	gl.TexSubImage2D(target, level, x, y, width, height, format, typ, ptr(pixels))
}

// TexStorage2D allocates each mip level with TexImage2D, since immutable
// storage is not part of the 3.3 core profile.
func (g *GL) TexStorage2D(target uint32, levels int32, internalFormat uint32, width, height int32) {
	format, typ := storageFormat(internalFormat)
	for level := int32(0); level < levels; level++ {
		gl.TexImage2D(target, level, int32(internalFormat), width, height, 0, format, typ, nil)
		width = max(1, width/2)
		height = max(1, height/2)
	}
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, levels-1)
}

func storageFormat(internalFormat uint32) (format, typ uint32) {
	switch internalFormat {
	case gl.R8:
		return gl.RED, gl.UNSIGNED_BYTE
	case gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT32F:
		return gl.DEPTH_COMPONENT, gl.FLOAT
	case gl.RGB8:
		return gl.RGB, gl.UNSIGNED_BYTE
	default:
		return gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func (g *GL) CreateFramebuffer() api.Framebuffer {
	var f uint32
	gl.GenFramebuffers(1, &f)
	return api.Framebuffer(f)
}

func (g *GL) DeleteFramebuffer(f api.Framebuffer) {
	name := uint32(f)
	gl.DeleteFramebuffers(1, &name)
}

func (g *GL) BindFramebuffer(target uint32, f api.Framebuffer) {
	gl.BindFramebuffer(target, uint32(f))
}

func (g *GL) FramebufferTexture2D(target, attachment, texTarget uint32, t api.Texture, level int32) {
	gl.FramebufferTexture2D(target, attachment, texTarget, uint32(t), level)
}

func (g *GL) DrawBuffers(bufs []uint32) {
	if len(bufs) > 0 {
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	}
}

func (g *GL) ReadBuffer(src uint32) { gl.ReadBuffer(src) }

func (g *GL) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (g *GL) ReadPixels(x, y, width, height int32, format, typ uint32, dst []byte) {
	if len(dst) > 0 {
		gl.ReadPixels(x, y, width, height, format, typ, unsafe.Pointer(&dst[0]))
	}
}

func (g *GL) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (g *GL) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	gl.DrawElements(mode, count, typ, gl.PtrOffset(offset))
}

func (g *GL) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	gl.DrawArraysInstanced(mode, first, count, instances)
}

func (g *GL) DrawElementsInstanced(mode uint32, count int32, typ uint32, offset int, instances int32) {
	gl.DrawElementsInstanced(mode, count, typ, gl.PtrOffset(offset), instances)
}

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

var _ api.API = (*GL)(nil)
