// Package gltrace provides an in-memory gl.API that records every call and
// simulates object lifetimes, shader compilation and program introspection.
// It backs headless runs and tests.
package gltrace

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/wippyai/wasm-gl/gl"
)

// Call is one recorded API invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

type shaderState struct {
	source   string
	typ      gl.Enum
	compiled bool
	log      string
}

type programState struct {
	shaders  []gl.Shader
	uniforms []gl.ActiveInfo
	attribs  []gl.ActiveInfo
	linked   bool
	log      string
}

// Recorder implements gl.API.
//
// Native names start at FirstName so tests can tell them apart from bridge
// handles. Shaders fail to compile when their source contains "#error".
// Linking parses uniform and attribute declarations from the attached
// sources so location and active-info queries behave like a driver would.
type Recorder struct {
	shaders   map[gl.Shader]*shaderState
	programs  map[gl.Program]*programState
	live      map[uint32]string
	Calls     []Call
	next      uint32
	ReadValue byte
}

// FirstName is the first native object name a Recorder hands out.
const FirstName = 1000

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		shaders:  make(map[gl.Shader]*shaderState),
		programs: make(map[gl.Program]*programState),
		live:     make(map[uint32]string),
		next:     FirstName,
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
}

func (r *Recorder) create(kind string) uint32 {
	id := r.next
	r.next++
	r.live[id] = kind
	return id
}

func (r *Recorder) destroy(id uint32) {
	delete(r.live, id)
}

// Names returns the recorded call names in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Name
	}
	return out
}

// Count returns how many times name was called.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Find returns the recorded calls with the given name.
func (r *Recorder) Find(name string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps object state.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

// Live returns the number of native objects not yet deleted.
func (r *Recorder) Live() int {
	return len(r.live)
}

// LiveOf returns the number of live native objects of a kind
// ("buffer", "program", "shader", "texture", "framebuffer").
func (r *Recorder) LiveOf(kind string) int {
	n := 0
	for _, k := range r.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) Enable(capability gl.Enum)  { r.record("Enable", capability) }
func (r *Recorder) Disable(capability gl.Enum) { r.record("Disable", capability) }

func (r *Recorder) Scissor(x, y, width, height int32) {
	r.record("Scissor", x, y, width, height)
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.record("Viewport", x, y, width, height)
}

func (r *Recorder) BlendFunc(sfactor, dfactor gl.Enum) { r.record("BlendFunc", sfactor, dfactor) }
func (r *Recorder) BlendEquation(mode gl.Enum)         { r.record("BlendEquation", mode) }
func (r *Recorder) DepthFunc(fn gl.Enum)               { r.record("DepthFunc", fn) }
func (r *Recorder) CullFace(mode gl.Enum)              { r.record("CullFace", mode) }
func (r *Recorder) ClearColor(cr, cg, cb, ca float32)  { r.record("ClearColor", cr, cg, cb, ca) }
func (r *Recorder) ClearDepth(depth float64)           { r.record("ClearDepth", depth) }
func (r *Recorder) ClearStencil(s int32)               { r.record("ClearStencil", s) }
func (r *Recorder) Clear(mask gl.Enum)                 { r.record("Clear", mask) }
func (r *Recorder) ColorMask(cr, cg, cb, ca bool)      { r.record("ColorMask", cr, cg, cb, ca) }
func (r *Recorder) DepthMask(flag bool)                { r.record("DepthMask", flag) }
func (r *Recorder) StencilMask(mask uint32)            { r.record("StencilMask", mask) }

func (r *Recorder) CreateBuffer() gl.Buffer {
	b := gl.Buffer(r.create("buffer"))
	r.record("CreateBuffer", b)
	return b
}

func (r *Recorder) BindBuffer(target gl.Enum, b gl.Buffer) { r.record("BindBuffer", target, b) }

func (r *Recorder) BufferData(target gl.Enum, data []byte, usage gl.Enum) {
	r.record("BufferData", target, slices.Clone(data), usage)
}

func (r *Recorder) DeleteBuffer(b gl.Buffer) {
	r.destroy(uint32(b))
	r.record("DeleteBuffer", b)
}

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.record("EnableVertexAttribArray", index)
}

func (r *Recorder) DisableVertexAttribArray(index uint32) {
	r.record("DisableVertexAttribArray", index)
}

func (r *Recorder) VertexAttribPointer(index uint32, size int32, typ gl.Enum, normalized bool, stride int32, offset int) {
	r.record("VertexAttribPointer", index, size, typ, normalized, stride, offset)
}

func (r *Recorder) VertexAttribDivisor(index, divisor uint32) {
	r.record("VertexAttribDivisor", index, divisor)
}

func (r *Recorder) CreateProgram() gl.Program {
	p := gl.Program(r.create("program"))
	r.programs[p] = &programState{}
	r.record("CreateProgram", p)
	return p
}

func (r *Recorder) DeleteProgram(p gl.Program) {
	r.destroy(uint32(p))
	delete(r.programs, p)
	r.record("DeleteProgram", p)
}

func (r *Recorder) CreateShader(typ gl.Enum) gl.Shader {
	s := gl.Shader(r.create("shader"))
	r.shaders[s] = &shaderState{typ: typ}
	r.record("CreateShader", typ, s)
	return s
}

func (r *Recorder) DeleteShader(s gl.Shader) {
	r.destroy(uint32(s))
	delete(r.shaders, s)
	r.record("DeleteShader", s)
}

func (r *Recorder) ShaderSource(s gl.Shader, source string) {
	if st := r.shaders[s]; st != nil {
		st.source = source
	}
	r.record("ShaderSource", s, source)
}

func (r *Recorder) CompileShader(s gl.Shader) {
	r.record("CompileShader", s)
	st := r.shaders[s]
	if st == nil {
		return
	}
	st.compiled = st.source != "" && !strings.Contains(st.source, "#error")
	st.log = ""
	if !st.compiled {
		st.log = "ERROR: 0:1: compilation failed"
	}
}

func (r *Recorder) AttachShader(p gl.Program, s gl.Shader) {
	if ps := r.programs[p]; ps != nil {
		ps.shaders = append(ps.shaders, s)
	}
	r.record("AttachShader", p, s)
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	attribDecl  = regexp.MustCompile(`(?m)^\s*(?:in|attribute)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
)

var glslTypes = map[string]gl.Enum{
	"float":     gl.FLOAT,
	"vec2":      gl.FLOAT_VEC2,
	"vec3":      gl.FLOAT_VEC3,
	"vec4":      gl.FLOAT_VEC4,
	"int":       gl.INT,
	"ivec2":     gl.INT_VEC2,
	"bool":      gl.BOOL,
	"mat2":      gl.FLOAT_MAT2,
	"mat3":      gl.FLOAT_MAT3,
	"mat4":      gl.FLOAT_MAT4,
	"sampler2D": gl.SAMPLER_2D,
}

func (r *Recorder) LinkProgram(p gl.Program) {
	r.record("LinkProgram", p)
	ps := r.programs[p]
	if ps == nil {
		return
	}
	ps.linked = len(ps.shaders) > 0
	ps.uniforms = ps.uniforms[:0]
	ps.attribs = ps.attribs[:0]
	ps.log = ""
	seen := map[string]bool{}
	for _, s := range ps.shaders {
		st := r.shaders[s]
		if st == nil || !st.compiled {
			ps.linked = false
			ps.log = "ERROR: one or more attached shaders not successfully compiled"
			continue
		}
		for _, m := range uniformDecl.FindAllStringSubmatch(st.source, -1) {
			if seen[m[2]] {
				continue
			}
			seen[m[2]] = true
			ps.uniforms = append(ps.uniforms, gl.ActiveInfo{Name: m[2], Size: 1, Type: glslTypes[m[1]]})
		}
		if st.typ == gl.VERTEX_SHADER {
			for _, m := range attribDecl.FindAllStringSubmatch(st.source, -1) {
				ps.attribs = append(ps.attribs, gl.ActiveInfo{Name: m[2], Size: 1, Type: glslTypes[m[1]]})
			}
		}
	}
}

func (r *Recorder) UseProgram(p gl.Program) { r.record("UseProgram", p) }

func (r *Recorder) GetShaderParameter(s gl.Shader, pname gl.Enum) int32 {
	r.record("GetShaderParameter", s, pname)
	st := r.shaders[s]
	if st == nil {
		return 0
	}
	switch pname {
	case gl.COMPILE_STATUS:
		return boolInt(st.compiled)
	case gl.SHADER_TYPE:
		return int32(st.typ)
	case gl.INFO_LOG_LENGTH:
		return int32(len(st.log))
	}
	return 0
}

func (r *Recorder) GetProgramParameter(p gl.Program, pname gl.Enum) int32 {
	r.record("GetProgramParameter", p, pname)
	ps := r.programs[p]
	if ps == nil {
		return 0
	}
	switch pname {
	case gl.LINK_STATUS:
		return boolInt(ps.linked)
	case gl.ATTACHED_SHADERS:
		return int32(len(ps.shaders))
	case gl.ACTIVE_UNIFORMS:
		return int32(len(ps.uniforms))
	case gl.ACTIVE_ATTRIBUTES:
		return int32(len(ps.attribs))
	case gl.INFO_LOG_LENGTH:
		return int32(len(ps.log))
	}
	return 0
}

func (r *Recorder) GetShaderInfoLog(s gl.Shader) string {
	r.record("GetShaderInfoLog", s)
	if st := r.shaders[s]; st != nil {
		return st.log
	}
	return ""
}

func (r *Recorder) GetProgramInfoLog(p gl.Program) string {
	r.record("GetProgramInfoLog", p)
	if ps := r.programs[p]; ps != nil {
		return ps.log
	}
	return ""
}

func (r *Recorder) GetUniformLocation(p gl.Program, name string) gl.UniformLocation {
	r.record("GetUniformLocation", p, name)
	if ps := r.programs[p]; ps != nil && ps.linked {
		for i, u := range ps.uniforms {
			if u.Name == name {
				return gl.UniformLocation(i)
			}
		}
	}
	return gl.NoLocation
}

func (r *Recorder) GetAttribLocation(p gl.Program, name string) int32 {
	r.record("GetAttribLocation", p, name)
	if ps := r.programs[p]; ps != nil && ps.linked {
		for i, a := range ps.attribs {
			if a.Name == name {
				return int32(i)
			}
		}
	}
	return -1
}

func (r *Recorder) GetActiveUniform(p gl.Program, index uint32) (gl.ActiveInfo, bool) {
	r.record("GetActiveUniform", p, index)
	if ps := r.programs[p]; ps != nil && int(index) < len(ps.uniforms) {
		return ps.uniforms[index], true
	}
	return gl.ActiveInfo{}, false
}

func (r *Recorder) GetActiveAttrib(p gl.Program, index uint32) (gl.ActiveInfo, bool) {
	r.record("GetActiveAttrib", p, index)
	if ps := r.programs[p]; ps != nil && int(index) < len(ps.attribs) {
		return ps.attribs[index], true
	}
	return gl.ActiveInfo{}, false
}

func (r *Recorder) Uniform1fv(loc gl.UniformLocation, v []float32) {
	r.record("Uniform1fv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform2fv(loc gl.UniformLocation, v []float32) {
	r.record("Uniform2fv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform3fv(loc gl.UniformLocation, v []float32) {
	r.record("Uniform3fv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform4fv(loc gl.UniformLocation, v []float32) {
	r.record("Uniform4fv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform1iv(loc gl.UniformLocation, v []int32) {
	r.record("Uniform1iv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform2iv(loc gl.UniformLocation, v []int32) {
	r.record("Uniform2iv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform3iv(loc gl.UniformLocation, v []int32) {
	r.record("Uniform3iv", loc, slices.Clone(v))
}

func (r *Recorder) Uniform4iv(loc gl.UniformLocation, v []int32) {
	r.record("Uniform4iv", loc, slices.Clone(v))
}

func (r *Recorder) UniformMatrix2fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix2fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix3fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix3fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix4fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix4fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix2x3fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix2x3fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix2x4fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix2x4fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix3x2fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix3x2fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix3x4fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix3x4fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix4x2fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix4x2fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) UniformMatrix4x3fv(loc gl.UniformLocation, transpose bool, v []float32) {
	r.record("UniformMatrix4x3fv", loc, transpose, slices.Clone(v))
}

func (r *Recorder) CreateTexture() gl.Texture {
	t := gl.Texture(r.create("texture"))
	r.record("CreateTexture", t)
	return t
}

func (r *Recorder) DeleteTexture(t gl.Texture) {
	r.destroy(uint32(t))
	r.record("DeleteTexture", t)
}

func (r *Recorder) BindTexture(target gl.Enum, t gl.Texture) { r.record("BindTexture", target, t) }
func (r *Recorder) ActiveTexture(unit gl.Enum)               { r.record("ActiveTexture", unit) }
func (r *Recorder) GenerateMipmap(target gl.Enum)            { r.record("GenerateMipmap", target) }
func (r *Recorder) PixelStorei(pname gl.Enum, param int32)   { r.record("PixelStorei", pname, param) }

func (r *Recorder) TexParameteri(target, pname gl.Enum, param int32) {
	r.record("TexParameteri", target, pname, param)
}

func (r *Recorder) TexImage2D(target gl.Enum, level, internalFormat, width, height, border int32, format, typ gl.Enum, pixels []byte) {
	r.record("TexImage2D", target, level, internalFormat, width, height, border, format, typ, slices.Clone(pixels))
}

func (r *Recorder) TexSubImage2D(target gl.Enum, level, x, y, width, height int32, format, typ gl.Enum, pixels []byte) {
	r.record("TexSubImage2D", target, level, x, y, width, height, format, typ, slices.Clone(pixels))
}

func (r *Recorder) TexStorage2D(target gl.Enum, levels int32, internalFormat gl.Enum, width, height int32) {
	r.record("TexStorage2D", target, levels, internalFormat, width, height)
}

func (r *Recorder) CreateFramebuffer() gl.Framebuffer {
	f := gl.Framebuffer(r.create("framebuffer"))
	r.record("CreateFramebuffer", f)
	return f
}

func (r *Recorder) DeleteFramebuffer(f gl.Framebuffer) {
	r.destroy(uint32(f))
	r.record("DeleteFramebuffer", f)
}

func (r *Recorder) BindFramebuffer(target gl.Enum, f gl.Framebuffer) {
	r.record("BindFramebuffer", target, f)
}

func (r *Recorder) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int32) {
	r.record("FramebufferTexture2D", target, attachment, texTarget, t, level)
}

func (r *Recorder) DrawBuffers(bufs []gl.Enum) { r.record("DrawBuffers", slices.Clone(bufs)) }
func (r *Recorder) ReadBuffer(src gl.Enum)     { r.record("ReadBuffer", src) }

func (r *Recorder) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	r.record("CheckFramebufferStatus", target)
	return gl.FRAMEBUFFER_COMPLETE
}

// ReadPixels fills dst with ReadValue.
func (r *Recorder) ReadPixels(x, y, width, height int32, format, typ gl.Enum, dst []byte) {
	for i := range dst {
		dst[i] = r.ReadValue
	}
	r.record("ReadPixels", x, y, width, height, format, typ, len(dst))
}

func (r *Recorder) DrawArrays(mode gl.Enum, first, count int32) {
	r.record("DrawArrays", mode, first, count)
}

func (r *Recorder) DrawElements(mode gl.Enum, count int32, typ gl.Enum, offset int) {
	r.record("DrawElements", mode, count, typ, offset)
}

func (r *Recorder) DrawArraysInstanced(mode gl.Enum, first, count, instances int32) {
	r.record("DrawArraysInstanced", mode, first, count, instances)
}

func (r *Recorder) DrawElementsInstanced(mode gl.Enum, count int32, typ gl.Enum, offset int, instances int32) {
	r.record("DrawElementsInstanced", mode, count, typ, offset, instances)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

var _ gl.API = (*Recorder)(nil)
