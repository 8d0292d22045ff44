package d2

import (
	"reflect"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/errors"
)

// DrawCommand is one draw call produced by a flush. Vertices holds the
// encoded vertex range and Indices are relative to its first vertex. Both
// slices are reused by the next command and must not be retained.
type DrawCommand struct {
	Layout      *VertexLayout
	State       PipelineState
	Uniform     Uniform
	Vertices    []byte
	Indices     []uint32
	VertexRange [2]int
	IndexRange  [2]int
}

// VertexCount returns the number of vertices in the command.
func (c *DrawCommand) VertexCount() int {
	return c.VertexRange[1] - c.VertexRange[0]
}

// Dispatcher executes draw commands.
type Dispatcher interface {
	Dispatch(cmd *DrawCommand) error
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(cmd *DrawCommand) error

func (f DispatchFunc) Dispatch(cmd *DrawCommand) error { return f(cmd) }

type span struct {
	state   PipelineState
	uniform Uniform
	vstart  int
	istart  int
}

// DrawBuilder accumulates vertices and indices of a single layout. A new
// command starts only when the pipeline state or uniform changes between
// appends; size never splits a command.
//
// Builders are reused across frames: Flush and Clear keep the allocated
// storage.
type DrawBuilder[V Vertex] struct {
	layout  *VertexLayout
	verts   []V
	indices []uint32
	state   PipelineState
	uniform Uniform
	spans   []span

	// Set for builders owned by a pool.
	pooled   bool
	onAppend func(vstart, vend, istart, iend int)

	encoded []byte
	rebased []uint32
	scratch []V
}

// NewDrawBuilder creates a builder for layout with an initial state and
// uniform.
func NewDrawBuilder[V Vertex](layout *VertexLayout, state PipelineState, u Uniform) *DrawBuilder[V] {
	return &DrawBuilder[V]{layout: layout, state: state, uniform: u}
}

func (b *DrawBuilder[V]) Layout() *VertexLayout { return b.layout }
func (b *DrawBuilder[V]) State() PipelineState  { return b.state }
func (b *DrawBuilder[V]) Uniform() Uniform      { return b.uniform }

// Vertices returns the accumulated vertices.
func (b *DrawBuilder[V]) Vertices() []V { return b.verts }

// Indices returns the accumulated indices. They are absolute within the
// builder.
func (b *DrawBuilder[V]) Indices() []uint32 { return b.indices }

// Len returns the number of accumulated vertices.
func (b *DrawBuilder[V]) Len() int { return len(b.verts) }

// SetState changes the pipeline state of subsequent appends. Builders owned
// by a pool keep the state of their key.
func (b *DrawBuilder[V]) SetState(s PipelineState) {
	if b.pooled {
		Logger().Warn("state change on pooled builder ignored", zap.Stringer("layout", b.layout))
		return
	}
	b.state = s
}

// SetUniform changes the uniform of subsequent appends. Builders owned by a
// pool keep the uniform of their key. Appends fail while the uniform is not
// comparable.
func (b *DrawBuilder[V]) SetUniform(u Uniform) {
	if b.pooled {
		Logger().Warn("uniform change on pooled builder ignored", zap.Stringer("layout", b.layout))
		return
	}
	if !comparableUniform(u) {
		Logger().Warn("uniform is not comparable", zap.String("type", reflect.TypeOf(u).String()))
	}
	b.uniform = u
}

// comparableUniform reports whether u can be compared with ==, which span
// splitting and pool keys rely on.
func comparableUniform(u Uniform) bool {
	return u == nil || reflect.TypeOf(u).Comparable()
}

// Reserve grows the storage for at least nverts more vertices and nindices
// more indices.
func (b *DrawBuilder[V]) Reserve(nverts, nindices int) {
	b.verts = slices.Grow(b.verts, nverts)
	b.indices = slices.Grow(b.indices, nindices)
}

// Clear drops the accumulated geometry and keeps the storage.
func (b *DrawBuilder[V]) Clear() {
	b.verts = b.verts[:0]
	b.indices = b.indices[:0]
	b.spans = b.spans[:0]
}

// Append adds vertices and indices relative to the first vertex of verts.
// When indices is nil the vertices are indexed in order. The index count
// must be a multiple of the primitive arity and every index must refer to
// one of verts.
func (b *DrawBuilder[V]) Append(verts []V, indices []uint32) error {
	return b.append(b.state.Primitive, verts, indices)
}

func (b *DrawBuilder[V]) append(prim Primitive, verts []V, indices []uint32) error {
	if prim != b.state.Primitive {
		return errors.New(errors.PhaseDraw, errors.KindInvalidInput).
			Detail("%s geometry appended to a %s builder", prim, b.state.Primitive).
			Build()
	}
	for _, v := range verts {
		if l := v.Layout(); l != b.layout {
			return errors.LayoutMismatch(b.layout.String(), l.String())
		}
	}
	if indices == nil {
		if len(verts)%prim.Arity() != 0 {
			return errors.New(errors.PhaseDraw, errors.KindInvalidInput).
				Detail("%d vertices is not a whole number of %s", len(verts), prim).
				Build()
		}
	} else {
		if len(indices)%prim.Arity() != 0 {
			return errors.New(errors.PhaseDraw, errors.KindInvalidInput).
				Detail("%d indices is not a whole number of %s", len(indices), prim).
				Build()
		}
		for _, idx := range indices {
			if int(idx) >= len(verts) {
				return errors.New(errors.PhaseDraw, errors.KindInvalidInput).
					Detail("index %d out of range for %d vertices", idx, len(verts)).
					Build()
			}
		}
	}
	if !comparableUniform(b.uniform) {
		return errors.New(errors.PhaseDraw, errors.KindInvalidInput).
			Detail("uniform %T is not comparable", b.uniform).
			Build()
	}
	if len(verts) == 0 {
		return nil
	}

	b.split()
	vstart, istart := len(b.verts), len(b.indices)
	base := uint32(vstart)
	b.verts = append(b.verts, verts...)
	if indices == nil {
		for i := range verts {
			b.indices = append(b.indices, base+uint32(i))
		}
	} else {
		for _, idx := range indices {
			b.indices = append(b.indices, base+idx)
		}
	}
	if b.onAppend != nil {
		b.onAppend(vstart, len(b.verts), istart, len(b.indices))
	}
	return nil
}

// split starts a new span when the current state or uniform differs from
// the one of the last span.
func (b *DrawBuilder[V]) split() {
	if n := len(b.spans); n > 0 {
		last := &b.spans[n-1]
		if last.state == b.state && last.uniform == b.uniform {
			return
		}
		if last.vstart == len(b.verts) {
			last.state, last.uniform = b.state, b.uniform
			return
		}
	}
	b.spans = append(b.spans, span{state: b.state, uniform: b.uniform, vstart: len(b.verts), istart: len(b.indices)})
}

// Flush emits one command per state span and clears the builder. Builders
// owned by a pool are flushed through the pool.
func (b *DrawBuilder[V]) Flush(emit Dispatcher) error {
	defer b.Clear()
	for i, s := range b.spans {
		vend, iend := len(b.verts), len(b.indices)
		if i+1 < len(b.spans) {
			vend, iend = b.spans[i+1].vstart, b.spans[i+1].istart
		}
		if iend == s.istart {
			continue
		}
		cmd := b.command(s.state, s.uniform, s.vstart, vend, s.istart, iend)
		if err := emit.Dispatch(&cmd); err != nil {
			return err
		}
	}
	return nil
}

func (b *DrawBuilder[V]) command(state PipelineState, u Uniform, vstart, vend, istart, iend int) DrawCommand {
	b.encoded = b.encoded[:0]
	for _, v := range b.verts[vstart:vend] {
		b.encoded = v.AppendBytes(b.encoded)
	}
	b.rebased = b.rebased[:0]
	for _, idx := range b.indices[istart:iend] {
		b.rebased = append(b.rebased, idx-uint32(vstart))
	}
	return DrawCommand{
		Layout:      b.layout,
		State:       state,
		Uniform:     u,
		Vertices:    b.encoded,
		Indices:     b.rebased,
		VertexRange: [2]int{vstart, vend},
		IndexRange:  [2]int{istart, iend},
	}
}

// emit expands positions through the template and appends them. Tools never
// abort a frame: a rejected append is logged and dropped.
func (b *DrawBuilder[V]) emit(prim Primitive, tmpl Template[V], pts []vec2, indices []uint32) {
	b.scratch = b.scratch[:0]
	for i, p := range pts {
		b.scratch = append(b.scratch, tmpl.Vertex(p, i))
	}
	if err := b.append(prim, b.scratch, indices); err != nil {
		Logger().Warn("draw call dropped", zap.Stringer("layout", b.layout), zap.Error(err))
	}
}
