package bridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
)

// ModuleName is the import module guests link their graphics calls against.
const ModuleName = "webgl"

type contextKey struct{}

// WithContext returns a context carrying c. Guest exports must be called
// with such a context; the webgl imports resolve their graphics context
// from it.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the graphics context carried by ctx, or nil.
func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}

// Instantiate builds the webgl host module into r. One instance serves
// every guest in the runtime; each call is routed to the Context carried
// by the call's context.Context.
func Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	for _, f := range hostFuncs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(guard(f.call), f.params, f.results).
			Export(f.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	return mod, nil
}

// Imports returns the names of every function the webgl module exports.
func Imports() []string {
	names := make([]string, len(hostFuncs))
	for i, f := range hostFuncs {
		names[i] = f.name
	}
	return names
}

// guard resolves the call's Context and turns a returned error into a
// recorded fault followed by a panic, which wazero surfaces as a failed
// guest call.
func guard(call func(*Context, []uint64) error) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		c := FromContext(ctx)
		if c == nil {
			panic(errors.NotInitialized(errors.PhaseBridge, "graphics context"))
		}
		if c.closed {
			c.fail(errors.Closed(errors.PhaseBridge, "graphics context"))
		}
		if err := call(c, stack); err != nil {
			c.fail(err)
		}
	}
}

func (c *Context) fail(err error) {
	c.fault = err
	c.log.Debug("guest protocol error", zap.Error(err))
	panic(err)
}

type hostFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	call    func(c *Context, stack []uint64) error
}

var (
	i32 = api.ValueTypeI32
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

func params(types ...api.ValueType) []api.ValueType { return types }

func ints(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = i32
	}
	return out
}

func argU32(stack []uint64, i int) uint32 { return api.DecodeU32(stack[i]) }
func argI32(stack []uint64, i int) int32  { return api.DecodeI32(stack[i]) }
func argBool(stack []uint64, i int) bool  { return api.DecodeU32(stack[i]) != 0 }
func argH(stack []uint64, i int) Handle   { return Handle(api.DecodeU32(stack[i])) }

// void wraps a call with no result and no failure mode.
func void(fn func(c *Context, stack []uint64)) func(*Context, []uint64) error {
	return func(c *Context, stack []uint64) error {
		fn(c, stack)
		return nil
	}
}

// create wraps a constructor returning a handle.
func create(fn func(c *Context, stack []uint64) Handle) func(*Context, []uint64) error {
	return func(c *Context, stack []uint64) error {
		stack[0] = api.EncodeU32(uint32(fn(c, stack)))
		return nil
	}
}

// guestString reads a (ptr, len) string argument pair.
func (c *Context) guestString(stack []uint64, i int) (string, error) {
	return c.mem.ReadString(argU32(stack, i), argU32(stack, i+1))
}

var hostFuncs = []hostFunc{
	// Diagnostics.
	{"consoleLog", ints(2), nil, func(c *Context, stack []uint64) error {
		if c.mem == nil {
			return nil
		}
		msg, err := c.guestString(stack, 0)
		if err != nil {
			return err
		}
		c.ConsoleLog(msg)
		return nil
	}},

	// Global state.
	{"enable", ints(1), nil, void(func(c *Context, s []uint64) { c.Enable(argU32(s, 0)) })},
	{"disable", ints(1), nil, void(func(c *Context, s []uint64) { c.Disable(argU32(s, 0)) })},
	{"scissor", ints(4), nil, void(func(c *Context, s []uint64) {
		c.Scissor(argI32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3))
	})},
	{"viewport", ints(4), nil, void(func(c *Context, s []uint64) {
		c.Viewport(argI32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3))
	})},
	{"blendFunc", ints(2), nil, void(func(c *Context, s []uint64) { c.BlendFunc(argU32(s, 0), argU32(s, 1)) })},
	{"blendEquation", ints(1), nil, void(func(c *Context, s []uint64) { c.BlendEquation(argU32(s, 0)) })},
	{"depthFunc", ints(1), nil, void(func(c *Context, s []uint64) { c.DepthFunc(argU32(s, 0)) })},
	{"cullFace", ints(1), nil, void(func(c *Context, s []uint64) { c.CullFace(argU32(s, 0)) })},
	{"clearColor", params(f32, f32, f32, f32), nil, void(func(c *Context, s []uint64) {
		c.ClearColor(api.DecodeF32(s[0]), api.DecodeF32(s[1]), api.DecodeF32(s[2]), api.DecodeF32(s[3]))
	})},
	{"clearDepth", params(f64), nil, void(func(c *Context, s []uint64) { c.ClearDepth(api.DecodeF64(s[0])) })},
	{"clearStencil", ints(1), nil, void(func(c *Context, s []uint64) { c.ClearStencil(argI32(s, 0)) })},
	{"clear", ints(1), nil, void(func(c *Context, s []uint64) { c.Clear(argU32(s, 0)) })},
	{"colorMask", ints(4), nil, void(func(c *Context, s []uint64) {
		c.ColorMask(argBool(s, 0), argBool(s, 1), argBool(s, 2), argBool(s, 3))
	})},
	{"depthMask", ints(1), nil, void(func(c *Context, s []uint64) { c.DepthMask(argBool(s, 0)) })},
	{"stencilMask", ints(1), nil, void(func(c *Context, s []uint64) { c.StencilMask(argU32(s, 0)) })},

	// Buffers.
	{"createBuffer", nil, ints(1), create(func(c *Context, _ []uint64) Handle { return c.CreateBuffer() })},
	{"bindBuffer", ints(2), nil, func(c *Context, s []uint64) error { return c.BindBuffer(argU32(s, 0), argH(s, 1)) }},
	{"deleteBuffer", ints(1), nil, func(c *Context, s []uint64) error { return c.DeleteBuffer(argH(s, 0)) }},
	{"bufferData", ints(4), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		size, ptr := argU32(s, 1), argU32(s, 2)
		var data []byte
		if ptr == 0 {
			data = make([]byte, size)
		} else {
			var err error
			if data, err = c.mem.Read(ptr, size); err != nil {
				return err
			}
		}
		c.BufferData(argU32(s, 0), data, argU32(s, 3))
		return nil
	}},

	// Vertex attributes.
	{"enableVertexAttribArray", ints(1), nil, void(func(c *Context, s []uint64) { c.EnableVertexAttribArray(argU32(s, 0)) })},
	{"disableVertexAttribArray", ints(1), nil, void(func(c *Context, s []uint64) { c.DisableVertexAttribArray(argU32(s, 0)) })},
	{"vertexAttribPointer", ints(6), nil, void(func(c *Context, s []uint64) {
		c.VertexAttribPointer(argU32(s, 0), argI32(s, 1), argU32(s, 2), argBool(s, 3), argI32(s, 4), int(argU32(s, 5)))
	})},
	{"vertexAttribDivisor", ints(2), nil, void(func(c *Context, s []uint64) { c.VertexAttribDivisor(argU32(s, 0), argU32(s, 1)) })},

	// Programs and shaders.
	{"createProgram", nil, ints(1), create(func(c *Context, _ []uint64) Handle { return c.CreateProgram() })},
	{"deleteProgram", ints(1), nil, func(c *Context, s []uint64) error { return c.DeleteProgram(argH(s, 0)) }},
	{"createShader", ints(1), ints(1), create(func(c *Context, s []uint64) Handle { return c.CreateShader(argU32(s, 0)) })},
	{"deleteShader", ints(1), nil, func(c *Context, s []uint64) error { return c.DeleteShader(argH(s, 0)) }},
	{"shaderSource", ints(3), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		src, err := c.guestString(s, 1)
		if err != nil {
			return err
		}
		return c.ShaderSource(argH(s, 0), src)
	}},
	{"compileShader", ints(1), nil, func(c *Context, s []uint64) error { return c.CompileShader(argH(s, 0)) }},
	{"attachShader", ints(2), nil, func(c *Context, s []uint64) error { return c.AttachShader(argH(s, 0), argH(s, 1)) }},
	{"linkProgram", ints(1), nil, func(c *Context, s []uint64) error { return c.LinkProgram(argH(s, 0)) }},
	{"useProgram", ints(1), nil, func(c *Context, s []uint64) error { return c.UseProgram(argH(s, 0)) }},
	{"getShaderParameter", ints(2), ints(1), func(c *Context, s []uint64) error {
		v, err := c.GetShaderParameter(argH(s, 0), argU32(s, 1))
		if err != nil {
			return err
		}
		s[0] = api.EncodeI32(v)
		return nil
	}},
	{"getProgramParameter", ints(2), ints(1), func(c *Context, s []uint64) error {
		v, err := c.GetProgramParameter(argH(s, 0), argU32(s, 1))
		if err != nil {
			return err
		}
		s[0] = api.EncodeI32(v)
		return nil
	}},
	{"getShaderInfoLog", ints(1), nil, func(c *Context, s []uint64) error {
		_, err := c.ShaderInfoLog(argH(s, 0))
		return err
	}},
	{"getProgramInfoLog", ints(1), nil, func(c *Context, s []uint64) error {
		_, err := c.ProgramInfoLog(argH(s, 0))
		return err
	}},

	// Uniforms and introspection.
	{"getUniformLocation", ints(3), ints(1), func(c *Context, s []uint64) error {
		program := argH(s, 0)
		if c.mem == nil {
			s[0] = api.EncodeI32(0)
			return nil
		}
		name, err := c.guestString(s, 1)
		if err != nil {
			return err
		}
		h, err := c.GetUniformLocation(program, name)
		if err != nil {
			return err
		}
		s[0] = api.EncodeU32(uint32(h))
		return nil
	}},
	{"getAttribLocation", ints(3), ints(1), func(c *Context, s []uint64) error {
		if c.mem == nil {
			s[0] = api.EncodeI32(-1)
			return nil
		}
		name, err := c.guestString(s, 1)
		if err != nil {
			return err
		}
		loc, err := c.GetAttribLocation(argH(s, 0), name)
		if err != nil {
			return err
		}
		s[0] = api.EncodeI32(loc)
		return nil
	}},
	{"getActiveUniform", ints(7), nil, func(c *Context, s []uint64) error {
		return c.activeInfo(s, c.GetActiveUniform)
	}},
	{"getActiveAttrib", ints(7), nil, func(c *Context, s []uint64) error {
		return c.activeInfo(s, c.GetActiveAttrib)
	}},
	{"uniform1fv", ints(3), nil, uniformFloats(1)},
	{"uniform2fv", ints(3), nil, uniformFloats(2)},
	{"uniform3fv", ints(3), nil, uniformFloats(3)},
	{"uniform4fv", ints(3), nil, uniformFloats(4)},
	{"uniform1iv", ints(3), nil, uniformInts(1)},
	{"uniform2iv", ints(3), nil, uniformInts(2)},
	{"uniform3iv", ints(3), nil, uniformInts(3)},
	{"uniform4iv", ints(3), nil, uniformInts(4)},
	{"uniformMatrix2fv", ints(4), nil, uniformMatrix(2, 2)},
	{"uniformMatrix3fv", ints(4), nil, uniformMatrix(3, 3)},
	{"uniformMatrix4fv", ints(4), nil, uniformMatrix(4, 4)},
	{"uniformMatrix2x3fv", ints(4), nil, uniformMatrix(2, 3)},
	{"uniformMatrix2x4fv", ints(4), nil, uniformMatrix(2, 4)},
	{"uniformMatrix3x2fv", ints(4), nil, uniformMatrix(3, 2)},
	{"uniformMatrix3x4fv", ints(4), nil, uniformMatrix(3, 4)},
	{"uniformMatrix4x2fv", ints(4), nil, uniformMatrix(4, 2)},
	{"uniformMatrix4x3fv", ints(4), nil, uniformMatrix(4, 3)},

	// Textures.
	{"createTexture", nil, ints(1), create(func(c *Context, _ []uint64) Handle { return c.CreateTexture() })},
	{"deleteTexture", ints(1), nil, func(c *Context, s []uint64) error { return c.DeleteTexture(argH(s, 0)) }},
	{"bindTexture", ints(2), nil, func(c *Context, s []uint64) error { return c.BindTexture(argU32(s, 0), argH(s, 1)) }},
	{"activeTexture", ints(1), nil, void(func(c *Context, s []uint64) { c.ActiveTexture(argU32(s, 0)) })},
	{"generateMipmap", ints(1), nil, void(func(c *Context, s []uint64) { c.GenerateMipmap(argU32(s, 0)) })},
	{"pixelStorei", ints(2), nil, void(func(c *Context, s []uint64) { c.PixelStorei(argU32(s, 0), argI32(s, 1)) })},
	{"texParameteri", ints(3), nil, void(func(c *Context, s []uint64) {
		c.TexParameteri(argU32(s, 0), argU32(s, 1), argI32(s, 2))
	})},
	{"texImage2D", ints(10), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		pixels, err := c.pixelView(s[8], s[9], argU32(s, 7))
		if err != nil {
			return err
		}
		c.TexImage2D(argU32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3), argI32(s, 4), argI32(s, 5),
			argU32(s, 6), argU32(s, 7), pixels)
		return nil
	}},
	{"texSubImage2D", ints(10), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		pixels, err := c.pixelView(s[8], s[9], argU32(s, 7))
		if err != nil {
			return err
		}
		c.TexSubImage2D(argU32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3), argI32(s, 4), argI32(s, 5),
			argU32(s, 6), argU32(s, 7), pixels)
		return nil
	}},
	{"texStorage2D", ints(5), nil, void(func(c *Context, s []uint64) {
		c.TexStorage2D(argU32(s, 0), argI32(s, 1), argU32(s, 2), argI32(s, 3), argI32(s, 4))
	})},

	// Framebuffers.
	{"createFramebuffer", nil, ints(1), create(func(c *Context, _ []uint64) Handle { return c.CreateFramebuffer() })},
	{"deleteFramebuffer", ints(1), nil, func(c *Context, s []uint64) error { return c.DeleteFramebuffer(argH(s, 0)) }},
	{"bindFramebuffer", ints(2), nil, func(c *Context, s []uint64) error {
		return c.BindFramebuffer(argU32(s, 0), argH(s, 1))
	}},
	{"framebufferTexture2D", ints(5), nil, func(c *Context, s []uint64) error {
		return c.FramebufferTexture2D(argU32(s, 0), argU32(s, 1), argU32(s, 2), argH(s, 3), argI32(s, 4))
	}},
	{"drawBuffers", ints(2), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		bufs, err := c.mem.Uint32s(argU32(s, 1), int(argI32(s, 0)))
		if err != nil {
			return err
		}
		c.DrawBuffers(bufs)
		return nil
	}},
	{"readBuffer", ints(1), nil, void(func(c *Context, s []uint64) { c.ReadBuffer(argU32(s, 0)) })},
	{"checkFramebufferStatus", ints(1), ints(1), func(c *Context, s []uint64) error {
		s[0] = api.EncodeU32(c.CheckFramebufferStatus(argU32(s, 0)))
		return nil
	}},
	{"readPixels", ints(8), nil, func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		dst, err := c.mem.TypedView(argU32(s, 6), argU32(s, 7), argU32(s, 5))
		if err != nil {
			return err
		}
		c.ReadPixels(argI32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3), argU32(s, 4), argU32(s, 5), dst)
		return nil
	}},

	// Draw calls.
	{"drawArrays", ints(3), nil, void(func(c *Context, s []uint64) {
		c.DrawArrays(argU32(s, 0), argI32(s, 1), argI32(s, 2))
	})},
	{"drawElements", ints(4), nil, void(func(c *Context, s []uint64) {
		c.DrawElements(argU32(s, 0), argI32(s, 1), argU32(s, 2), int(argU32(s, 3)))
	})},
	{"drawArraysInstanced", ints(4), nil, void(func(c *Context, s []uint64) {
		c.DrawArraysInstanced(argU32(s, 0), argI32(s, 1), argI32(s, 2), argI32(s, 3))
	})},
	{"drawElementsInstanced", ints(5), nil, void(func(c *Context, s []uint64) {
		c.DrawElementsInstanced(argU32(s, 0), argI32(s, 1), argU32(s, 2), int(argU32(s, 3)), argI32(s, 4))
	})},
}

// pixelView resolves an optional pixel region. A null pointer means no
// initial data.
func (c *Context) pixelView(ptr, length uint64, typ gl.Enum) ([]byte, error) {
	p := api.DecodeU32(ptr)
	if p == 0 {
		return nil, nil
	}
	return c.mem.TypedView(p, api.DecodeU32(length), typ)
}

// activeInfo implements getActiveUniform and getActiveAttrib:
// (program, index, bufSize, lengthPtr, sizePtr, typePtr, namePtr).
func (c *Context) activeInfo(s []uint64, query func(Handle, uint32) (gl.ActiveInfo, error)) error {
	if c.mem == nil {
		return nil
	}
	info, err := query(argH(s, 0), argU32(s, 1))
	if err != nil {
		return err
	}
	bufSize := argI32(s, 2)
	if int64(len(info.Name)) >= int64(bufSize) {
		return errors.BufferTooSmall(errors.PhaseBridge, "active info name", len(info.Name)+1, int(bufSize))
	}
	if err := c.mem.WriteOptionalU32(argU32(s, 3), uint32(len(info.Name))); err != nil {
		return err
	}
	if err := c.mem.WriteOptionalU32(argU32(s, 4), uint32(info.Size)); err != nil {
		return err
	}
	if err := c.mem.WriteOptionalU32(argU32(s, 5), info.Type); err != nil {
		return err
	}
	namePtr := argU32(s, 6)
	if namePtr == 0 {
		return nil
	}
	name := append([]byte(info.Name), 0)
	return c.mem.Write(namePtr, name)
}

// uniformFloats handles uniform{n}fv(location, count, ptr).
func uniformFloats(n int) func(*Context, []uint64) error {
	return func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		v, err := c.mem.Float32s(argU32(s, 2), int(argI32(s, 1))*n)
		if err != nil {
			return err
		}
		return c.UniformFloats(argH(s, 0), n, v)
	}
}

// uniformInts handles uniform{n}iv(location, count, ptr).
func uniformInts(n int) func(*Context, []uint64) error {
	return func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		v, err := c.mem.Int32s(argU32(s, 2), int(argI32(s, 1))*n)
		if err != nil {
			return err
		}
		return c.UniformInts(argH(s, 0), n, v)
	}
}

// uniformMatrix handles uniformMatrix{c}x{r}fv(location, count, transpose, ptr).
func uniformMatrix(cols, rows int) func(*Context, []uint64) error {
	return func(c *Context, s []uint64) error {
		if c.mem == nil {
			return nil
		}
		v, err := c.mem.Float32s(argU32(s, 3), int(argI32(s, 1))*cols*rows)
		if err != nil {
			return err
		}
		return c.UniformMatrix(argH(s, 0), cols, rows, argBool(s, 2), v)
	}
}
