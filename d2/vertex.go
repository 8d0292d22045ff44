package d2

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is an 8-bit RGBA color, uploaded as a normalized attribute.
type Color [4]uint8

var (
	White       = Color{255, 255, 255, 255}
	Black       = Color{0, 0, 0, 255}
	Transparent = Color{}
)

// RGBA builds a color from its components.
func RGBA(r, g, b, a uint8) Color {
	return Color{r, g, b, a}
}

// Linear converts the color channels from sRGB to linear light, leaving
// alpha untouched.
func (c Color) Linear() Color {
	out := c
	for i := 0; i < 3; i++ {
		out[i] = srgbToLinear(c[i])
	}
	return out
}

// Vec4 returns the color as normalized floats.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

func srgbToLinear(v uint8) uint8 {
	f := float64(v) / 255
	if f <= 0.04045 {
		f /= 12.92
	} else {
		f = math.Pow((f+0.055)/1.055, 2.4)
	}
	return uint8(math.Round(f * 255))
}

// Vertex is implemented by every vertex type a builder can hold.
type Vertex interface {
	Layout() *VertexLayout
	// AppendBytes appends the little-endian encoding of the vertex.
	AppendBytes(dst []byte) []byte
}

func appendVec2(dst []byte, v mgl32.Vec2) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v[0]))
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v[1]))
}

// ColorVertex is a solid or gradient colored vertex.
type ColorVertex struct {
	Pos    mgl32.Vec2
	Color1 Color
	Color2 Color
}

func (ColorVertex) Layout() *VertexLayout { return ColorLayout }

func (v ColorVertex) AppendBytes(dst []byte) []byte {
	dst = appendVec2(dst, v.Pos)
	dst = append(dst, v.Color1[:]...)
	return append(dst, v.Color2[:]...)
}

// TexturedVertex samples a texture and modulates it with a color.
type TexturedVertex struct {
	Pos   mgl32.Vec2
	UV    mgl32.Vec2
	Color Color
}

func (TexturedVertex) Layout() *VertexLayout { return TexturedLayout }

func (v TexturedVertex) AppendBytes(dst []byte) []byte {
	dst = appendVec2(dst, v.Pos)
	dst = appendVec2(dst, v.UV)
	return append(dst, v.Color[:]...)
}

// TextVertex is a glyph corner with fill and outline colors.
type TextVertex struct {
	Pos     mgl32.Vec2
	UV      mgl32.Vec2
	Color   Color
	Outline Color
}

func (TextVertex) Layout() *VertexLayout { return TextLayout }

func (v TextVertex) AppendBytes(dst []byte) []byte {
	dst = appendVec2(dst, v.Pos)
	dst = appendVec2(dst, v.UV)
	dst = append(dst, v.Color[:]...)
	return append(dst, v.Outline[:]...)
}

// Vertex makes a TextVertex its own template: the position is replaced and
// everything else is copied.
func (v TextVertex) Vertex(pos mgl32.Vec2, _ int) TextVertex {
	v.Pos = pos
	return v
}
