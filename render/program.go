package render

import (
	"go.uber.org/multierr"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
)

// program is a linked program with its active locations.
type program struct {
	handle   bridge.Handle
	attribs  map[string]uint32
	uniforms map[string]bridge.Handle
}

func compileShader(c *bridge.Context, typ gl.Enum, source string) (bridge.Handle, error) {
	h := c.CreateShader(typ)
	err := c.ShaderSource(h, source)
	if err == nil {
		err = c.CompileShader(h)
	}
	if err != nil {
		return 0, multierr.Append(err, c.DeleteShader(h))
	}
	ok, err := c.GetShaderParameter(h, gl.COMPILE_STATUS)
	if err != nil {
		return 0, err
	}
	if ok == 0 {
		log, _ := c.ShaderInfoLog(h)
		_ = c.DeleteShader(h)
		return 0, errors.New(errors.PhaseDraw, errors.KindInvalidData).
			Value(typ).
			Detail("compile shader: %s", log).
			Build()
	}
	return h, nil
}

// link compiles and links src, then queries every active attribute and
// uniform. The shader objects are released once linked.
func link(c *bridge.Context, src Source) (*program, error) {
	vs, err := compileShader(c, gl.VERTEX_SHADER, src.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileShader(c, gl.FRAGMENT_SHADER, src.Fragment)
	if err != nil {
		return nil, multierr.Append(err, c.DeleteShader(vs))
	}

	h := c.CreateProgram()
	err = multierr.Combine(
		c.AttachShader(h, vs),
		c.AttachShader(h, fs),
		c.LinkProgram(h),
	)
	// Linked programs keep working after their shaders are deleted.
	err = multierr.Combine(err, c.DeleteShader(vs), c.DeleteShader(fs))
	if err != nil {
		return nil, multierr.Append(err, c.DeleteProgram(h))
	}

	ok, err := c.GetProgramParameter(h, gl.LINK_STATUS)
	if err != nil {
		return nil, err
	}
	if ok == 0 {
		log, _ := c.ProgramInfoLog(h)
		_ = c.DeleteProgram(h)
		return nil, errors.New(errors.PhaseDraw, errors.KindInvalidData).
			Handle(bridge.CategoryProgram, uint32(h)).
			Detail("link program: %s", log).
			Build()
	}

	p := &program{
		handle:   h,
		attribs:  make(map[string]uint32),
		uniforms: make(map[string]bridge.Handle),
	}
	if err := p.queryLocations(c); err != nil {
		_ = c.DeleteProgram(h)
		return nil, err
	}
	return p, nil
}

func (p *program) queryLocations(c *bridge.Context) error {
	n, err := c.GetProgramParameter(p.handle, gl.ACTIVE_ATTRIBUTES)
	if err != nil {
		return err
	}
	for i := uint32(0); i < uint32(n); i++ {
		info, err := c.GetActiveAttrib(p.handle, i)
		if err != nil {
			return err
		}
		loc, err := c.GetAttribLocation(p.handle, info.Name)
		if err != nil {
			return err
		}
		if loc >= 0 {
			p.attribs[info.Name] = uint32(loc)
		}
	}

	n, err = c.GetProgramParameter(p.handle, gl.ACTIVE_UNIFORMS)
	if err != nil {
		return err
	}
	for i := uint32(0); i < uint32(n); i++ {
		info, err := c.GetActiveUniform(p.handle, i)
		if err != nil {
			return err
		}
		loc, err := c.GetUniformLocation(p.handle, info.Name)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		p.uniforms[info.Name] = loc
	}
	return nil
}
