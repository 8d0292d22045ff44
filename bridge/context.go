package bridge

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
	"github.com/wippyai/wasm-gl/resource"
)

// Handle is the guest-visible identifier of a native object.
type Handle = resource.Handle

// Table categories, used in errors, events and stats.
const (
	CategoryBuffer      = "buffer"
	CategoryProgram     = "program"
	CategoryShader      = "shader"
	CategoryTexture     = "texture"
	CategoryFramebuffer = "framebuffer"
	CategoryUniform     = "uniform"
)

type uniformKey struct {
	name    string
	program Handle
}

type uniformRef struct {
	name    string
	loc     gl.UniformLocation
	program Handle
}

// Context is the per-session graphics state shared by host code and the
// guest import surface. Each object category has its own handle table, so
// handle numbers never collide in meaning across categories, and two
// sessions never share a table.
//
// Context is not safe for concurrent use.
type Context struct {
	api          gl.API
	mem          *GuestMemory
	log          *zap.Logger
	fault        error
	buffers      *resource.Table[gl.Buffer]
	programs     *resource.Table[gl.Program]
	shaders      *resource.Table[gl.Shader]
	textures     *resource.Table[gl.Texture]
	framebuffers *resource.Table[gl.Framebuffer]
	uniforms     *resource.Table[uniformRef]
	uniformIndex map[uniformKey]Handle
	stats        *Stats
	closed       bool
}

// NewContext creates a context driving a. A nil logger falls back to the
// package logger.
func NewContext(a gl.API, log *zap.Logger) *Context {
	if log == nil {
		log = Logger()
	}
	c := &Context{
		api:          a,
		log:          log,
		buffers:      resource.NewTable[gl.Buffer](CategoryBuffer),
		programs:     resource.NewTable[gl.Program](CategoryProgram),
		shaders:      resource.NewTable[gl.Shader](CategoryShader),
		textures:     resource.NewTable[gl.Texture](CategoryTexture),
		framebuffers: resource.NewTable[gl.Framebuffer](CategoryFramebuffer),
		uniforms:     resource.NewTable[uniformRef](CategoryUniform),
		uniformIndex: make(map[uniformKey]Handle),
		stats:        newStats(),
	}
	c.buffers.Subscribe(c.stats)
	c.programs.Subscribe(c.stats)
	c.shaders.Subscribe(c.stats)
	c.textures.Subscribe(c.stats)
	c.framebuffers.Subscribe(c.stats)
	c.uniforms.Subscribe(c.stats)
	return c
}

// API returns the native API the context drives.
func (c *Context) API() gl.API {
	return c.api
}

// BindMemory points buffer-touching calls at a newly instantiated guest's
// memory. It must be called before the guest issues any such call; until
// then those calls are no-ops.
func (c *Context) BindMemory(mem api.Memory) {
	if mem == nil {
		c.mem = nil
		return
	}
	c.mem = NewGuestMemory(mem)
}

// UnbindMemory drops the memory reference so late calls become no-ops.
func (c *Context) UnbindMemory() {
	c.mem = nil
}

// Memory returns the bound guest memory, or nil.
func (c *Context) Memory() *GuestMemory {
	return c.mem
}

// Bound reports whether guest memory is bound.
func (c *Context) Bound() bool {
	return c.mem != nil
}

// Stats returns live and lifetime object counters.
func (c *Context) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// TakeFault returns and clears the protocol error recorded by the last
// failing guest import.
func (c *Context) TakeFault() error {
	err := c.fault
	c.fault = nil
	return err
}

// Global state. These pass straight through and never fail.

func (c *Context) Enable(capability gl.Enum)          { c.api.Enable(capability) }
func (c *Context) Disable(capability gl.Enum)         { c.api.Disable(capability) }
func (c *Context) Scissor(x, y, w, h int32)           { c.api.Scissor(x, y, w, h) }
func (c *Context) Viewport(x, y, w, h int32)          { c.api.Viewport(x, y, w, h) }
func (c *Context) BlendFunc(sfactor, dfactor gl.Enum) { c.api.BlendFunc(sfactor, dfactor) }
func (c *Context) BlendEquation(mode gl.Enum)         { c.api.BlendEquation(mode) }
func (c *Context) DepthFunc(fn gl.Enum)               { c.api.DepthFunc(fn) }
func (c *Context) CullFace(mode gl.Enum)              { c.api.CullFace(mode) }
func (c *Context) ClearColor(r, g, b, a float32)      { c.api.ClearColor(r, g, b, a) }
func (c *Context) ClearDepth(depth float64)           { c.api.ClearDepth(depth) }
func (c *Context) ClearStencil(s int32)               { c.api.ClearStencil(s) }
func (c *Context) Clear(mask gl.Enum)                 { c.api.Clear(mask) }
func (c *Context) ColorMask(r, g, b, a bool)          { c.api.ColorMask(r, g, b, a) }
func (c *Context) DepthMask(flag bool)                { c.api.DepthMask(flag) }
func (c *Context) StencilMask(mask uint32)            { c.api.StencilMask(mask) }

// Buffers.

func (c *Context) CreateBuffer() Handle {
	return c.buffers.Add(c.api.CreateBuffer())
}

func (c *Context) BindBuffer(target gl.Enum, h Handle) error {
	b, err := c.buffers.Get(h)
	if err != nil {
		return err
	}
	c.api.BindBuffer(target, b)
	return nil
}

func (c *Context) BufferData(target gl.Enum, data []byte, usage gl.Enum) {
	c.api.BufferData(target, data, usage)
}

func (c *Context) DeleteBuffer(h Handle) error {
	b, err := c.buffers.Remove(h)
	if err != nil {
		return err
	}
	c.api.DeleteBuffer(b)
	return nil
}

// Vertex attributes.

func (c *Context) EnableVertexAttribArray(index uint32)  { c.api.EnableVertexAttribArray(index) }
func (c *Context) DisableVertexAttribArray(index uint32) { c.api.DisableVertexAttribArray(index) }

func (c *Context) VertexAttribPointer(index uint32, size int32, typ gl.Enum, normalized bool, stride int32, offset int) {
	c.api.VertexAttribPointer(index, size, typ, normalized, stride, offset)
}

func (c *Context) VertexAttribDivisor(index, divisor uint32) {
	c.api.VertexAttribDivisor(index, divisor)
}

// Programs and shaders.

func (c *Context) CreateProgram() Handle {
	return c.programs.Add(c.api.CreateProgram())
}

// DeleteProgram deletes the program and forgets its uniform locations.
func (c *Context) DeleteProgram(h Handle) error {
	p, err := c.programs.Remove(h)
	if err != nil {
		return err
	}
	for key, lh := range c.uniformIndex {
		if key.program == h {
			delete(c.uniformIndex, key)
			c.uniforms.Remove(lh)
		}
	}
	c.api.DeleteProgram(p)
	return nil
}

func (c *Context) CreateShader(typ gl.Enum) Handle {
	return c.shaders.Add(c.api.CreateShader(typ))
}

func (c *Context) DeleteShader(h Handle) error {
	s, err := c.shaders.Remove(h)
	if err != nil {
		return err
	}
	c.api.DeleteShader(s)
	return nil
}

func (c *Context) ShaderSource(h Handle, source string) error {
	s, err := c.shaders.Get(h)
	if err != nil {
		return err
	}
	c.api.ShaderSource(s, source)
	return nil
}

func (c *Context) CompileShader(h Handle) error {
	s, err := c.shaders.Get(h)
	if err != nil {
		return err
	}
	c.api.CompileShader(s)
	return nil
}

func (c *Context) AttachShader(program, shader Handle) error {
	p, err := c.programs.Get(program)
	if err != nil {
		return err
	}
	s, err := c.shaders.Get(shader)
	if err != nil {
		return err
	}
	c.api.AttachShader(p, s)
	return nil
}

func (c *Context) LinkProgram(h Handle) error {
	p, err := c.programs.Get(h)
	if err != nil {
		return err
	}
	c.api.LinkProgram(p)
	return nil
}

func (c *Context) UseProgram(h Handle) error {
	p, err := c.programs.Get(h)
	if err != nil {
		return err
	}
	c.api.UseProgram(p)
	return nil
}

func (c *Context) GetShaderParameter(h Handle, pname gl.Enum) (int32, error) {
	s, err := c.shaders.Get(h)
	if err != nil {
		return 0, err
	}
	return c.api.GetShaderParameter(s, pname), nil
}

func (c *Context) GetProgramParameter(h Handle, pname gl.Enum) (int32, error) {
	p, err := c.programs.Get(h)
	if err != nil {
		return 0, err
	}
	return c.api.GetProgramParameter(p, pname), nil
}

// ShaderInfoLog returns the shader's info log and forwards a non-empty log
// to the logger. Compile failures are diagnostics, not errors.
func (c *Context) ShaderInfoLog(h Handle) (string, error) {
	s, err := c.shaders.Get(h)
	if err != nil {
		return "", err
	}
	msg := c.api.GetShaderInfoLog(s)
	if msg != "" {
		c.log.Warn("shader info log", zap.Uint32("shader", uint32(h)), zap.String("log", msg))
	}
	return msg, nil
}

// ProgramInfoLog returns the program's info log and forwards a non-empty
// log to the logger.
func (c *Context) ProgramInfoLog(h Handle) (string, error) {
	p, err := c.programs.Get(h)
	if err != nil {
		return "", err
	}
	msg := c.api.GetProgramInfoLog(p)
	if msg != "" {
		c.log.Warn("program info log", zap.Uint32("program", uint32(h)), zap.String("log", msg))
	}
	return msg, nil
}

// Uniforms and introspection.

// GetUniformLocation returns a handle for the named uniform of program.
// Repeated queries for the same name return the same handle. An unknown
// name is a not_found error.
func (c *Context) GetUniformLocation(program Handle, name string) (Handle, error) {
	p, err := c.programs.Get(program)
	if err != nil {
		return 0, err
	}
	key := uniformKey{program: program, name: name}
	if h, ok := c.uniformIndex[key]; ok {
		return h, nil
	}
	loc := c.api.GetUniformLocation(p, name)
	if loc == gl.NoLocation {
		return 0, errors.NotFound(errors.PhaseBridge, "uniform", name)
	}
	h := c.uniforms.Add(uniformRef{program: program, name: name, loc: loc})
	c.uniformIndex[key] = h
	return h, nil
}

// GetAttribLocation returns the attribute index, or -1 if the program has
// no active attribute with that name.
func (c *Context) GetAttribLocation(program Handle, name string) (int32, error) {
	p, err := c.programs.Get(program)
	if err != nil {
		return 0, err
	}
	return c.api.GetAttribLocation(p, name), nil
}

func (c *Context) GetActiveUniform(program Handle, index uint32) (gl.ActiveInfo, error) {
	p, err := c.programs.Get(program)
	if err != nil {
		return gl.ActiveInfo{}, err
	}
	info, ok := c.api.GetActiveUniform(p, index)
	if !ok {
		return gl.ActiveInfo{}, errors.New(errors.PhaseBridge, errors.KindNotFound).
			Handle(CategoryProgram, uint32(program)).
			Detail("no active uniform at index %d", index).
			Build()
	}
	return info, nil
}

func (c *Context) GetActiveAttrib(program Handle, index uint32) (gl.ActiveInfo, error) {
	p, err := c.programs.Get(program)
	if err != nil {
		return gl.ActiveInfo{}, err
	}
	info, ok := c.api.GetActiveAttrib(p, index)
	if !ok {
		return gl.ActiveInfo{}, errors.New(errors.PhaseBridge, errors.KindNotFound).
			Handle(CategoryProgram, uint32(program)).
			Detail("no active attribute at index %d", index).
			Build()
	}
	return info, nil
}

func (c *Context) location(h Handle) (gl.UniformLocation, error) {
	ref, err := c.uniforms.Get(h)
	if err != nil {
		return gl.NoLocation, err
	}
	return ref.loc, nil
}

// UniformFloats uploads a float vector uniform with n components per
// element (1 to 4).
func (c *Context) UniformFloats(h Handle, n int, v []float32) error {
	loc, err := c.location(h)
	if err != nil {
		return err
	}
	switch n {
	case 1:
		c.api.Uniform1fv(loc, v)
	case 2:
		c.api.Uniform2fv(loc, v)
	case 3:
		c.api.Uniform3fv(loc, v)
	case 4:
		c.api.Uniform4fv(loc, v)
	default:
		return errors.InvalidInput(errors.PhaseBridge, "uniform vector width must be 1-4")
	}
	return nil
}

// UniformInts uploads an int vector uniform with n components per element.
func (c *Context) UniformInts(h Handle, n int, v []int32) error {
	loc, err := c.location(h)
	if err != nil {
		return err
	}
	switch n {
	case 1:
		c.api.Uniform1iv(loc, v)
	case 2:
		c.api.Uniform2iv(loc, v)
	case 3:
		c.api.Uniform3iv(loc, v)
	case 4:
		c.api.Uniform4iv(loc, v)
	default:
		return errors.InvalidInput(errors.PhaseBridge, "uniform vector width must be 1-4")
	}
	return nil
}

// UniformMatrix uploads a cols x rows matrix uniform (2 to 4 each).
func (c *Context) UniformMatrix(h Handle, cols, rows int, transpose bool, v []float32) error {
	loc, err := c.location(h)
	if err != nil {
		return err
	}
	switch [2]int{cols, rows} {
	case [2]int{2, 2}:
		c.api.UniformMatrix2fv(loc, transpose, v)
	case [2]int{3, 3}:
		c.api.UniformMatrix3fv(loc, transpose, v)
	case [2]int{4, 4}:
		c.api.UniformMatrix4fv(loc, transpose, v)
	case [2]int{2, 3}:
		c.api.UniformMatrix2x3fv(loc, transpose, v)
	case [2]int{2, 4}:
		c.api.UniformMatrix2x4fv(loc, transpose, v)
	case [2]int{3, 2}:
		c.api.UniformMatrix3x2fv(loc, transpose, v)
	case [2]int{3, 4}:
		c.api.UniformMatrix3x4fv(loc, transpose, v)
	case [2]int{4, 2}:
		c.api.UniformMatrix4x2fv(loc, transpose, v)
	case [2]int{4, 3}:
		c.api.UniformMatrix4x3fv(loc, transpose, v)
	default:
		return errors.InvalidInput(errors.PhaseBridge, "matrix dimensions must be 2-4")
	}
	return nil
}

// Textures.

func (c *Context) CreateTexture() Handle {
	return c.textures.Add(c.api.CreateTexture())
}

func (c *Context) DeleteTexture(h Handle) error {
	t, err := c.textures.Remove(h)
	if err != nil {
		return err
	}
	c.api.DeleteTexture(t)
	return nil
}

func (c *Context) BindTexture(target gl.Enum, h Handle) error {
	t, err := c.textures.Get(h)
	if err != nil {
		return err
	}
	c.api.BindTexture(target, t)
	return nil
}

func (c *Context) ActiveTexture(unit gl.Enum)             { c.api.ActiveTexture(unit) }
func (c *Context) GenerateMipmap(target gl.Enum)          { c.api.GenerateMipmap(target) }
func (c *Context) PixelStorei(pname gl.Enum, param int32) { c.api.PixelStorei(pname, param) }

func (c *Context) TexParameteri(target, pname gl.Enum, param int32) {
	c.api.TexParameteri(target, pname, param)
}

func (c *Context) TexImage2D(target gl.Enum, level, internalFormat, width, height, border int32, format, typ gl.Enum, pixels []byte) {
	c.api.TexImage2D(target, level, internalFormat, width, height, border, format, typ, pixels)
}

func (c *Context) TexSubImage2D(target gl.Enum, level, x, y, width, height int32, format, typ gl.Enum, pixels []byte) {
	c.api.TexSubImage2D(target, level, x, y, width, height, format, typ, pixels)
}

func (c *Context) TexStorage2D(target gl.Enum, levels int32, internalFormat gl.Enum, width, height int32) {
	c.api.TexStorage2D(target, levels, internalFormat, width, height)
}

// Framebuffers.

func (c *Context) CreateFramebuffer() Handle {
	return c.framebuffers.Add(c.api.CreateFramebuffer())
}

func (c *Context) DeleteFramebuffer(h Handle) error {
	f, err := c.framebuffers.Remove(h)
	if err != nil {
		return err
	}
	c.api.DeleteFramebuffer(f)
	return nil
}

// BindFramebuffer binds a created framebuffer. Handle 0 selects the default
// framebuffer, which is not a table resource.
func (c *Context) BindFramebuffer(target gl.Enum, h Handle) error {
	if h == 0 {
		c.api.BindFramebuffer(target, 0)
		return nil
	}
	f, err := c.framebuffers.Get(h)
	if err != nil {
		return err
	}
	c.api.BindFramebuffer(target, f)
	return nil
}

func (c *Context) FramebufferTexture2D(target, attachment, texTarget gl.Enum, tex Handle, level int32) error {
	t, err := c.textures.Get(tex)
	if err != nil {
		return err
	}
	c.api.FramebufferTexture2D(target, attachment, texTarget, t, level)
	return nil
}

func (c *Context) DrawBuffers(bufs []gl.Enum) { c.api.DrawBuffers(bufs) }
func (c *Context) ReadBuffer(src gl.Enum)     { c.api.ReadBuffer(src) }

func (c *Context) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	return c.api.CheckFramebufferStatus(target)
}

func (c *Context) ReadPixels(x, y, width, height int32, format, typ gl.Enum, dst []byte) {
	c.api.ReadPixels(x, y, width, height, format, typ, dst)
}

// Draw calls.

func (c *Context) DrawArrays(mode gl.Enum, first, count int32) {
	c.stats.drawCall()
	c.api.DrawArrays(mode, first, count)
}

func (c *Context) DrawElements(mode gl.Enum, count int32, typ gl.Enum, offset int) {
	c.stats.drawCall()
	c.api.DrawElements(mode, count, typ, offset)
}

func (c *Context) DrawArraysInstanced(mode gl.Enum, first, count, instances int32) {
	c.stats.drawCall()
	c.api.DrawArraysInstanced(mode, first, count, instances)
}

func (c *Context) DrawElementsInstanced(mode gl.Enum, count int32, typ gl.Enum, offset int, instances int32) {
	c.stats.drawCall()
	c.api.DrawElementsInstanced(mode, count, typ, offset, instances)
}

// ConsoleLog forwards a guest diagnostic message.
func (c *Context) ConsoleLog(msg string) {
	c.log.Info(msg, zap.String("source", "guest"))
}

// Close deletes every live native object and unbinds guest memory. It is
// safe to call more than once.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.mem = nil

	c.framebuffers.Drain(func(_ Handle, f gl.Framebuffer) { c.api.DeleteFramebuffer(f) })
	c.textures.Drain(func(_ Handle, t gl.Texture) { c.api.DeleteTexture(t) })
	c.buffers.Drain(func(_ Handle, b gl.Buffer) { c.api.DeleteBuffer(b) })
	c.uniforms.Drain(nil)
	clear(c.uniformIndex)
	c.programs.Drain(func(_ Handle, p gl.Program) { c.api.DeleteProgram(p) })
	c.shaders.Drain(func(_ Handle, s gl.Shader) { c.api.DeleteShader(s) })
	return nil
}

// Closed reports whether Close has run.
func (c *Context) Closed() bool {
	return c.closed
}
