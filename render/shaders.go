package render

import (
	_ "embed"

	"github.com/wippyai/wasm-gl/d2"
)

var (
	//go:embed shaders/color.vs.glsl
	colorVS string
	//go:embed shaders/color.fs.glsl
	colorFS string
	//go:embed shaders/textured.vs.glsl
	texturedVS string
	//go:embed shaders/textured.fs.glsl
	texturedFS string
	//go:embed shaders/text.vs.glsl
	textVS string
	//go:embed shaders/text.fs.glsl
	textFS string
)

// Source is the GLSL code of one program.
type Source struct {
	Vertex   string
	Fragment string
}

// DefaultSources returns the built-in programs, one per d2 shader.
func DefaultSources() map[d2.Shader]Source {
	return map[d2.Shader]Source{
		d2.ShaderColor:    {Vertex: colorVS, Fragment: colorFS},
		d2.ShaderTextured: {Vertex: texturedVS, Fragment: texturedFS},
		d2.ShaderText:     {Vertex: textVS, Fragment: textFS},
	}
}
