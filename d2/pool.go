package d2

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-gl/errors"
)

// Key identifies a builder within a pool. The shader is part of State.
// Uniform must hold a comparable value.
type Key struct {
	Layout  *VertexLayout
	State   PipelineState
	Uniform Uniform
}

// NewKey returns a key for layout drawing with the layout's built-in
// shader.
func NewKey(layout *VertexLayout, prim Primitive, blend BlendMode, u Uniform) Key {
	return Key{
		Layout:  layout,
		State:   PipelineState{Primitive: prim, Blend: blend, Shader: ShaderFor(layout)},
		Uniform: u,
	}
}

type pooledBuilder interface {
	command(state PipelineState, u Uniform, vstart, vend, istart, iend int) DrawCommand
	Clear()
	Len() int
}

type logEntry struct {
	key          Key
	vstart, vend int
	istart, iend int
}

// PoolStats describes the pool after the last flush or append.
type PoolStats struct {
	Builders     int
	Entries      int
	LastCommands int
}

// Pool multiplexes builders keyed by rendering state and keeps the global
// order of appends across all of them. Flush emits one command per maximal
// run of consecutive appends sharing a key.
type Pool struct {
	builders map[Key]pooledBuilder
	log      []logEntry
	last     int
}

func NewPool() *Pool {
	return &Pool{builders: make(map[Key]pooledBuilder)}
}

// BuilderFor returns the builder for key, creating it on first use. The
// same key always yields the same builder. Appends made directly to the
// returned builder are recorded in the pool order.
func BuilderFor[V Vertex](p *Pool, key Key) (*DrawBuilder[V], error) {
	if key.Layout == nil {
		return nil, errors.InvalidInput(errors.PhaseDraw, "pool key has no layout")
	}
	var zero V
	if any(zero) != nil && zero.Layout() != key.Layout {
		return nil, errors.LayoutMismatch(key.Layout.String(), zero.Layout().String())
	}
	if !comparableUniform(key.Uniform) {
		return nil, errors.New(errors.PhaseDraw, errors.KindInvalidInput).
			Detail("uniform %T is not comparable", key.Uniform).
			Build()
	}

	if existing, ok := p.builders[key]; ok {
		b, ok := existing.(*DrawBuilder[V])
		if !ok {
			return nil, errors.New(errors.PhaseDraw, errors.KindLayoutMismatch).
				Detail("key %s is bound to %T", key.Layout, existing).
				Build()
		}
		return b, nil
	}

	b := NewDrawBuilder[V](key.Layout, key.State, key.Uniform)
	b.pooled = true
	b.onAppend = func(vstart, vend, istart, iend int) {
		p.log = append(p.log, logEntry{key: key, vstart: vstart, vend: vend, istart: istart, iend: iend})
	}
	p.builders[key] = b
	Logger().Debug("pool builder created",
		zap.Stringer("layout", key.Layout),
		zap.String("shader", string(key.State.Shader)),
		zap.Int("builders", len(p.builders)))
	return b, nil
}

// Append expands positions through tmpl and appends them to the builder
// for key. indices are relative to the first position.
func Append[V Vertex](p *Pool, key Key, tmpl Template[V], positions []mgl32.Vec2, indices []uint32) error {
	b, err := BuilderFor[V](p, key)
	if err != nil {
		return err
	}
	verts := make([]V, len(positions))
	for i, pos := range positions {
		verts[i] = tmpl.Vertex(pos, i)
	}
	return b.Append(verts, indices)
}

// Flush walks the append log in order and dispatches one command per run
// of consecutive entries with the same key. Builders are cleared and the
// log is reset even when dispatch fails; the first dispatch error stops
// the walk and is returned.
func (p *Pool) Flush(d Dispatcher) error {
	defer p.reset()

	commands := 0
	for i := 0; i < len(p.log); {
		first := p.log[i]
		last := first
		j := i + 1
		for j < len(p.log) && p.log[j].key == first.key {
			last = p.log[j]
			j++
		}
		i = j

		b := p.builders[first.key]
		cmd := b.command(first.key.State, first.key.Uniform, first.vstart, last.vend, first.istart, last.iend)
		commands++
		if err := d.Dispatch(&cmd); err != nil {
			p.last = commands
			return err
		}
	}
	p.last = commands
	return nil
}

// FlushUnordered emits one command per builder holding geometry, in the
// order each key was first used, and ignores the interleaving of appends.
// It suits depth-tested scenes that draw without blending.
func (p *Pool) FlushUnordered(d Dispatcher) error {
	defer p.reset()

	type run struct{ first, last logEntry }
	var order []Key
	runs := make(map[Key]*run)
	for _, e := range p.log {
		if r, ok := runs[e.key]; ok {
			r.last = e
			continue
		}
		runs[e.key] = &run{first: e, last: e}
		order = append(order, e.key)
	}

	commands := 0
	for _, key := range order {
		r := runs[key]
		cmd := p.builders[key].command(key.State, key.Uniform, r.first.vstart, r.last.vend, r.first.istart, r.last.iend)
		commands++
		if err := d.Dispatch(&cmd); err != nil {
			p.last = commands
			return err
		}
	}
	p.last = commands
	return nil
}

// Discard drops everything appended since the last flush.
func (p *Pool) Discard() {
	p.reset()
}

func (p *Pool) reset() {
	for _, b := range p.builders {
		b.Clear()
	}
	p.log = p.log[:0]
}

// Stats reports the builder count, the pending log length and the number
// of commands produced by the last flush.
func (p *Pool) Stats() PoolStats {
	return PoolStats{Builders: len(p.builders), Entries: len(p.log), LastCommands: p.last}
}
