package gl

// Enum is a GL enumeration or bitfield value.
type Enum = uint32

// Native object names. Zero is never a valid created object.
type (
	Buffer          uint32
	Program         uint32
	Shader          uint32
	Texture         uint32
	Framebuffer     uint32
	UniformLocation int32
)

// NoLocation is returned by location queries for unknown names.
const NoLocation UniformLocation = -1

// ActiveInfo describes an active uniform or attribute of a linked program.
type ActiveInfo struct {
	Name string
	Size int32
	Type Enum
}

// API is the native graphics surface driven by the bridge. It has exactly
// one method per call of the guest import surface, so a backend that
// compiles covers the whole surface.
//
// Slice arguments hold element data only; counts are derived from their
// length. Backends must not retain slices past the call.
type API interface {
	// Global state.
	Enable(capability Enum)
	Disable(capability Enum)
	Scissor(x, y, width, height int32)
	Viewport(x, y, width, height int32)
	BlendFunc(sfactor, dfactor Enum)
	BlendEquation(mode Enum)
	DepthFunc(fn Enum)
	CullFace(mode Enum)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float64)
	ClearStencil(s int32)
	Clear(mask Enum)
	ColorMask(r, g, b, a bool)
	DepthMask(flag bool)
	StencilMask(mask uint32)

	// Buffers.
	CreateBuffer() Buffer
	BindBuffer(target Enum, b Buffer)
	BufferData(target Enum, data []byte, usage Enum)
	DeleteBuffer(b Buffer)

	// Vertex attributes.
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ Enum, normalized bool, stride int32, offset int)
	VertexAttribDivisor(index, divisor uint32)

	// Programs and shaders.
	CreateProgram() Program
	DeleteProgram(p Program)
	CreateShader(typ Enum) Shader
	DeleteShader(s Shader)
	ShaderSource(s Shader, source string)
	CompileShader(s Shader)
	AttachShader(p Program, s Shader)
	LinkProgram(p Program)
	UseProgram(p Program)
	GetShaderParameter(s Shader, pname Enum) int32
	GetProgramParameter(p Program, pname Enum) int32
	GetShaderInfoLog(s Shader) string
	GetProgramInfoLog(p Program) string

	// Uniforms and introspection.
	GetUniformLocation(p Program, name string) UniformLocation
	GetAttribLocation(p Program, name string) int32
	GetActiveUniform(p Program, index uint32) (ActiveInfo, bool)
	GetActiveAttrib(p Program, index uint32) (ActiveInfo, bool)
	Uniform1fv(loc UniformLocation, v []float32)
	Uniform2fv(loc UniformLocation, v []float32)
	Uniform3fv(loc UniformLocation, v []float32)
	Uniform4fv(loc UniformLocation, v []float32)
	Uniform1iv(loc UniformLocation, v []int32)
	Uniform2iv(loc UniformLocation, v []int32)
	Uniform3iv(loc UniformLocation, v []int32)
	Uniform4iv(loc UniformLocation, v []int32)
	UniformMatrix2fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix3fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix4fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix2x3fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix2x4fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix3x2fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix3x4fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix4x2fv(loc UniformLocation, transpose bool, v []float32)
	UniformMatrix4x3fv(loc UniformLocation, transpose bool, v []float32)

	// Textures.
	CreateTexture() Texture
	DeleteTexture(t Texture)
	BindTexture(target Enum, t Texture)
	ActiveTexture(unit Enum)
	GenerateMipmap(target Enum)
	PixelStorei(pname Enum, param int32)
	TexParameteri(target, pname Enum, param int32)
	TexImage2D(target Enum, level, internalFormat, width, height, border int32, format, typ Enum, pixels []byte)
	TexSubImage2D(target Enum, level, x, y, width, height int32, format, typ Enum, pixels []byte)
	TexStorage2D(target Enum, levels int32, internalFormat Enum, width, height int32)

	// Framebuffers.
	CreateFramebuffer() Framebuffer
	DeleteFramebuffer(f Framebuffer)
	BindFramebuffer(target Enum, f Framebuffer)
	FramebufferTexture2D(target, attachment, texTarget Enum, t Texture, level int32)
	DrawBuffers(bufs []Enum)
	ReadBuffer(src Enum)
	CheckFramebufferStatus(target Enum) Enum
	ReadPixels(x, y, width, height int32, format, typ Enum, dst []byte)

	// Draw calls. Offsets are byte offsets into the bound element buffer.
	DrawArrays(mode Enum, first, count int32)
	DrawElements(mode Enum, count int32, typ Enum, offset int)
	DrawArraysInstanced(mode Enum, first, count, instances int32)
	DrawElementsInstanced(mode Enum, count int32, typ Enum, offset int, instances int32)
}

// ElementSize returns the byte width of one element of the given data type.
// Unknown types report 1, which makes a guest region a plain byte view.
func ElementSize(typ Enum) int {
	switch typ {
	case SHORT, UNSIGNED_SHORT, UNSIGNED_SHORT_4_4_4_4, UNSIGNED_SHORT_5_5_5_1, UNSIGNED_SHORT_5_6_5, HALF_FLOAT:
		return 2
	case INT, UNSIGNED_INT, FLOAT:
		return 4
	default:
		return 1
	}
}
