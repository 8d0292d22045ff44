package render

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/d2"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
	"github.com/wippyai/wasm-gl/resource"
)

// Config configures a Renderer.
type Config struct {
	// Sources overrides built-in programs by shader name.
	Sources map[d2.Shader]Source
	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// Stats counts the work done by a renderer since creation.
type Stats struct {
	Commands     uint64
	DrawCalls    uint64
	Skipped      uint64
	StateChanges uint64
	Vertices     uint64
}

// Renderer implements d2.Dispatcher on top of a bridge context. It is not
// safe for concurrent use.
type Renderer struct {
	ctx      *bridge.Context
	log      *zap.Logger
	programs map[d2.Shader]*program
	vbo      bridge.Handle
	ebo      bridge.Handle
	blank    bridge.Handle

	current   *program
	state     d2.PipelineState
	haveState bool
	enabled   map[uint32]bool
	indices   []byte
	unit      int32
	stats     Stats
	closed    bool
}

// New creates the renderer's buffers and programs. Programs that fail to
// build are logged and left out.
func New(c *bridge.Context, cfg Config) (*Renderer, error) {
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseDraw, "renderer needs a bridge context")
	}
	if c.Closed() {
		return nil, errors.Closed(errors.PhaseDraw, "bridge context")
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	r := &Renderer{
		ctx:      c,
		log:      log,
		programs: make(map[d2.Shader]*program),
		enabled:  make(map[uint32]bool),
		vbo:      c.CreateBuffer(),
		ebo:      c.CreateBuffer(),
	}

	blank, err := r.upload(1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return nil, err
	}
	r.blank = blank

	sources := DefaultSources()
	for name, src := range cfg.Sources {
		sources[name] = src
	}
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		p, err := link(c, sources[name])
		if err != nil {
			r.log.Warn("shader program unavailable", zap.String("shader", string(name)), zap.Error(err))
			continue
		}
		r.programs[name] = p
		r.log.Debug("shader program ready",
			zap.String("shader", string(name)),
			zap.Uint32("handle", uint32(p.handle)),
			zap.Int("attributes", len(p.attribs)),
			zap.Int("uniforms", len(p.uniforms)))
	}
	return r, nil
}

// Has reports whether the program for s is available.
func (r *Renderer) Has(s d2.Shader) bool {
	return r.programs[s] != nil
}

// Stats returns the renderer's counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Invalidate forgets the cached pipeline state and program, so the next
// command sets everything again. Call it after other code touched the
// context, for example a guest frame.
func (r *Renderer) Invalidate() {
	r.haveState = false
	r.current = nil
	clear(r.enabled)
}

// Clear fills the color and depth buffers.
func (r *Renderer) Clear(c d2.Color) {
	v := c.Vec4()
	r.ctx.ClearColor(v[0], v[1], v[2], v[3])
	r.ctx.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Dispatch draws one command.
func (r *Renderer) Dispatch(cmd *d2.DrawCommand) error {
	if r.closed {
		return errors.Closed(errors.PhaseDraw, "renderer")
	}
	r.stats.Commands++
	if len(cmd.Indices) == 0 || cmd.VertexCount() == 0 {
		return nil
	}
	shader := cmd.State.Shader
	if shader == "" {
		shader = d2.ShaderFor(cmd.Layout)
	}
	p := r.programs[shader]
	if p == nil {
		r.stats.Skipped++
		r.log.Warn("draw command skipped", zap.String("shader", string(shader)), zap.Stringer("layout", cmd.Layout))
		return nil
	}

	r.applyState(cmd.State)
	if r.current != p {
		if err := r.ctx.UseProgram(p.handle); err != nil {
			return err
		}
		r.current = p
	}

	if err := r.ctx.BindBuffer(gl.ARRAY_BUFFER, r.vbo); err != nil {
		return err
	}
	r.ctx.BufferData(gl.ARRAY_BUFFER, cmd.Vertices, gl.STREAM_DRAW)
	if err := r.ctx.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo); err != nil {
		return err
	}
	r.indices = r.indices[:0]
	for _, idx := range cmd.Indices {
		r.indices = binary.LittleEndian.AppendUint32(r.indices, idx)
	}
	r.ctx.BufferData(gl.ELEMENT_ARRAY_BUFFER, r.indices, gl.STREAM_DRAW)

	r.bindAttribs(p, cmd.Layout)

	if cmd.Uniform != nil {
		set := &uniformSetter{r: r, p: p}
		r.unit = 0
		cmd.Uniform.Visit(set)
		if set.err != nil {
			r.log.Warn("uniform not applied", zap.String("shader", string(shader)), zap.Error(set.err))
		}
	}

	r.ctx.DrawElements(cmd.State.Primitive.Mode(), int32(len(cmd.Indices)), gl.UNSIGNED_INT, 0)
	r.stats.DrawCalls++
	r.stats.Vertices += uint64(cmd.VertexCount())
	return nil
}

func (r *Renderer) bindAttribs(p *program, layout *d2.VertexLayout) {
	used := make(map[uint32]bool, len(layout.Attribs))
	for _, a := range layout.Attribs {
		loc, ok := p.attribs[a.Name]
		if !ok {
			continue
		}
		used[loc] = true
		if !r.enabled[loc] {
			r.ctx.EnableVertexAttribArray(loc)
			r.enabled[loc] = true
		}
		r.ctx.VertexAttribPointer(loc, a.Size, a.Type, a.Normalized, layout.Stride, a.Offset)
	}
	for loc := range r.enabled {
		if !used[loc] {
			r.ctx.DisableVertexAttribArray(loc)
			delete(r.enabled, loc)
		}
	}
}

func (r *Renderer) applyState(s d2.PipelineState) {
	prev, full := r.state, !r.haveState
	r.state, r.haveState = s, true
	if !full && prev == s {
		return
	}
	r.stats.StateChanges++

	if full || prev.Blend != s.Blend {
		if s.Blend == d2.BlendSolid {
			r.ctx.Disable(gl.BLEND)
		} else {
			src, dst := s.Blend.Factors()
			r.ctx.Enable(gl.BLEND)
			r.ctx.BlendEquation(gl.FUNC_ADD)
			r.ctx.BlendFunc(src, dst)
		}
	}
	if full || prev.DepthTest != s.DepthTest {
		if s.DepthTest {
			r.ctx.Enable(gl.DEPTH_TEST)
			r.ctx.DepthFunc(gl.LEQUAL)
		} else {
			r.ctx.Disable(gl.DEPTH_TEST)
		}
	}
	if full || prev.Cull != s.Cull {
		switch s.Cull {
		case d2.CullBack:
			r.ctx.Enable(gl.CULL_FACE)
			r.ctx.CullFace(gl.BACK)
		case d2.CullFront:
			r.ctx.Enable(gl.CULL_FACE)
			r.ctx.CullFace(gl.FRONT)
		default:
			r.ctx.Disable(gl.CULL_FACE)
		}
	}
	if (full || prev.Viewport != s.Viewport) && !s.Viewport.IsZero() {
		v := s.Viewport
		r.ctx.Viewport(v.X, v.Y, v.W, v.H)
	}
	if full || prev.Scissor != s.Scissor {
		if s.Scissor.IsZero() {
			r.ctx.Disable(gl.SCISSOR_TEST)
		} else {
			sc := s.Scissor
			r.ctx.Enable(gl.SCISSOR_TEST)
			r.ctx.Scissor(sc.X, sc.Y, sc.W, sc.H)
		}
	}
}

// Close deletes the renderer's programs, buffers and fallback texture. The
// bridge context stays open.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	programs := r.programs
	r.programs = nil
	// A closed context already deleted everything.
	if r.ctx.Closed() {
		return nil
	}
	var err error
	for _, p := range programs {
		err = multierr.Append(err, r.ctx.DeleteProgram(p.handle))
	}
	return multierr.Combine(err,
		r.ctx.DeleteBuffer(r.vbo),
		r.ctx.DeleteBuffer(r.ebo),
		r.ctx.DeleteTexture(r.blank),
	)
}

// uniformSetter resolves uniform names against the current program. Names
// the program does not use are ignored.
type uniformSetter struct {
	r   *Renderer
	p   *program
	err error
}

func (s *uniformSetter) Mat3(name string, m mgl32.Mat3) {
	if loc, ok := s.p.uniforms[name]; ok {
		s.err = multierr.Append(s.err, s.r.ctx.UniformMatrix(loc, 3, 3, false, m[:]))
	}
}

func (s *uniformSetter) Vec2(name string, v mgl32.Vec2) {
	if loc, ok := s.p.uniforms[name]; ok {
		s.err = multierr.Append(s.err, s.r.ctx.UniformFloats(loc, 2, v[:]))
	}
}

func (s *uniformSetter) Vec4(name string, v mgl32.Vec4) {
	if loc, ok := s.p.uniforms[name]; ok {
		s.err = multierr.Append(s.err, s.r.ctx.UniformFloats(loc, 4, v[:]))
	}
}

func (s *uniformSetter) Float(name string, f float32) {
	if loc, ok := s.p.uniforms[name]; ok {
		s.err = multierr.Append(s.err, s.r.ctx.UniformFloats(loc, 1, []float32{f}))
	}
}

// Texture binds tex to the next texture unit. The zero handle and stale
// handles fall back to a 1x1 white texture, so textured geometry shows its
// vertex color.
func (s *uniformSetter) Texture(name string, tex resource.Handle) {
	loc, ok := s.p.uniforms[name]
	if !ok {
		return
	}
	unit := s.r.unit
	s.r.unit++
	s.r.ctx.ActiveTexture(gl.TEXTURE0 + gl.Enum(unit))
	if tex == 0 {
		tex = s.r.blank
	}
	if err := s.r.ctx.BindTexture(gl.TEXTURE_2D, tex); err != nil {
		s.err = multierr.Append(s.err, err)
		_ = s.r.ctx.BindTexture(gl.TEXTURE_2D, s.r.blank)
	}
	s.err = multierr.Append(s.err, s.r.ctx.UniformInts(loc, 1, []int32{unit}))
}

var _ d2.Dispatcher = (*Renderer)(nil)
