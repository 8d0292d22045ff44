package d2

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/wippyai/wasm-gl/resource"
)

// UniformSetter receives uniform values by name. The renderer implements it
// by resolving names to locations of the current program.
type UniformSetter interface {
	Mat3(name string, m mgl32.Mat3)
	Vec2(name string, v mgl32.Vec2)
	Vec4(name string, v mgl32.Vec4)
	Float(name string, f float32)
	// Texture binds tex to a texture unit and points the sampler at it.
	Texture(name string, tex resource.Handle)
}

// Uniform is the per-command shader state of a builder. Implementations
// must be comparable values, since they are part of pool keys.
type Uniform interface {
	Visit(set UniformSetter)
}

// ColorUniform drives the color shader. Pattern maps positions into the
// gradient texture.
type ColorUniform struct {
	Transform mgl32.Mat3
	Pattern   mgl32.Mat3
	Colormod  mgl32.Vec4
	Texture   resource.Handle
}

// DefaultColorUniform returns identity transforms and a neutral modulation.
func DefaultColorUniform() ColorUniform {
	return ColorUniform{
		Transform: mgl32.Ident3(),
		Pattern:   mgl32.Ident3(),
		Colormod:  mgl32.Vec4{1, 1, 1, 1},
	}
}

func (u ColorUniform) Visit(set UniformSetter) {
	set.Mat3("u_transform", u.Transform)
	set.Mat3("u_pattern", u.Pattern)
	set.Vec4("u_colorModulation", u.Colormod)
	set.Texture("u_texture", u.Texture)
}

// TexturedUniform drives the textured shader.
type TexturedUniform struct {
	Transform mgl32.Mat3
	Texture   resource.Handle
	Colormod  mgl32.Vec4
}

func DefaultTexturedUniform(tex resource.Handle) TexturedUniform {
	return TexturedUniform{
		Transform: mgl32.Ident3(),
		Texture:   tex,
		Colormod:  mgl32.Vec4{1, 1, 1, 1},
	}
}

func (u TexturedUniform) Visit(set UniformSetter) {
	set.Mat3("u_transform", u.Transform)
	set.Texture("u_texture", u.Texture)
	set.Vec4("u_colormod", u.Colormod)
}

// TextUniform drives the distance-field text shader.
type TextUniform struct {
	Transform            mgl32.Mat3
	Texture              resource.Handle
	UnitRange            mgl32.Vec2
	Threshold            float32
	OutBias              float32
	OutlineWidthAbsolute float32
	OutlineWidthRelative float32
	Gamma                float32
}

// DefaultTextUniform returns the parameters for an atlas generated with a
// distance range of 4 pixels at 232 pixels per side.
func DefaultTextUniform(tex resource.Handle) TextUniform {
	return TextUniform{
		Transform:            mgl32.Ident3(),
		Texture:              tex,
		UnitRange:            mgl32.Vec2{4.0 / 232.0, 4.0 / 232.0},
		Threshold:            0.5,
		OutBias:              0,
		OutlineWidthAbsolute: 1,
		OutlineWidthRelative: 0.125,
		Gamma:                1,
	}
}

func (u TextUniform) Visit(set UniformSetter) {
	set.Mat3("u_transform", u.Transform)
	set.Texture("u_texture", u.Texture)
	set.Vec2("u_unit_range", u.UnitRange)
	set.Float("u_threshold", u.Threshold)
	set.Float("u_out_bias", u.OutBias)
	set.Float("u_outline_width_absolute", u.OutlineWidthAbsolute)
	set.Float("u_outline_width_relative", u.OutlineWidthRelative)
	set.Float("u_gamma", u.Gamma)
}

// Ortho returns a transform mapping pixel coordinates with a top-left
// origin onto clip space.
func Ortho(width, height float32) mgl32.Mat3 {
	return mgl32.Mat3{
		2 / width, 0, 0,
		0, -2 / height, 0,
		-1, 1, 1,
	}
}
