package d2

import (
	"fmt"

	"github.com/wippyai/wasm-gl/gl"
)

// Primitive is the topology of a builder's index list.
type Primitive uint8

const (
	Triangles Primitive = iota
	Lines
)

// Mode returns the draw mode enum.
func (p Primitive) Mode() gl.Enum {
	if p == Lines {
		return gl.LINES
	}
	return gl.TRIANGLES
}

// Arity is the number of indices per primitive.
func (p Primitive) Arity() int {
	if p == Lines {
		return 2
	}
	return 3
}

func (p Primitive) String() string {
	if p == Lines {
		return "lines"
	}
	return "triangles"
}

// BlendMode selects the blend function for a command.
type BlendMode uint8

const (
	BlendSolid BlendMode = iota
	BlendAlpha
	BlendAdditive
	BlendScreen
	BlendMultiply
)

var blendFactors = [...][2]gl.Enum{
	BlendSolid:    {gl.ONE, gl.ZERO},
	BlendAlpha:    {gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA},
	BlendAdditive: {gl.ONE, gl.ONE},
	BlendScreen:   {gl.ONE, gl.ONE_MINUS_SRC_COLOR},
	BlendMultiply: {gl.DST_COLOR, gl.ZERO},
}

// Factors returns the source and destination factors. Every mode uses
// FUNC_ADD as the equation.
func (m BlendMode) Factors() (src, dst gl.Enum) {
	if int(m) >= len(blendFactors) {
		return gl.ONE, gl.ZERO
	}
	f := blendFactors[m]
	return f[0], f[1]
}

func (m BlendMode) String() string {
	switch m {
	case BlendSolid:
		return "solid"
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendScreen:
		return "screen"
	case BlendMultiply:
		return "multiply"
	}
	return fmt.Sprintf("blend(%d)", uint8(m))
}

// CullMode selects which faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Rect is a pixel rectangle. The zero Rect means "not set".
type Rect struct {
	X, Y, W, H int32
}

// IsZero reports whether the rectangle is unset.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Shader names a built-in program of the renderer.
type Shader string

const (
	ShaderColor    Shader = "color"
	ShaderTextured Shader = "textured"
	ShaderText     Shader = "text"
)

// PipelineState is the fixed-function state a command draws with. It is a
// comparable value; two commands with equal states need no state changes
// between them.
type PipelineState struct {
	Primitive Primitive
	Blend     BlendMode
	DepthTest bool
	Cull      CullMode
	// Viewport is left untouched when zero.
	Viewport Rect
	// Scissor disables the scissor test when zero.
	Scissor Rect
	Shader  Shader
}

// ShaderFor returns the built-in shader matching a layout.
func ShaderFor(l *VertexLayout) Shader {
	switch l {
	case TexturedLayout:
		return ShaderTextured
	case TextLayout:
		return ShaderText
	default:
		return ShaderColor
	}
}
