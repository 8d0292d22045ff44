package d2

import "github.com/go-gl/mathgl/mgl32"

// Template supplies the non-positional attributes of every vertex a tool
// emits. corner is the index of the vertex within the current tool call.
type Template[V Vertex] interface {
	Vertex(pos mgl32.Vec2, corner int) V
}

// ColorTemplate paints every vertex with the same pair of colors.
type ColorTemplate struct {
	Color1 Color
	Color2 Color
}

// Solid returns a template with a single flat color.
func Solid(c Color) ColorTemplate {
	return ColorTemplate{Color1: c, Color2: c}
}

func (t ColorTemplate) Vertex(pos mgl32.Vec2, _ int) ColorVertex {
	return ColorVertex{Pos: pos, Color1: t.Color1, Color2: t.Color2}
}

// TexturedTemplate gives every vertex the same texture coordinate and tint.
type TexturedTemplate struct {
	UV    mgl32.Vec2
	Color Color
}

func (t TexturedTemplate) Vertex(pos mgl32.Vec2, _ int) TexturedVertex {
	return TexturedVertex{Pos: pos, UV: t.UV, Color: t.Color}
}

// TemplateFunc adapts a function to the Template interface.
type TemplateFunc[V Vertex] func(pos mgl32.Vec2, corner int) V

func (f TemplateFunc[V]) Vertex(pos mgl32.Vec2, corner int) V {
	return f(pos, corner)
}

var (
	_ Template[ColorVertex]    = ColorTemplate{}
	_ Template[TexturedVertex] = TexturedTemplate{}
	_ Template[TextVertex]     = TextVertex{}
)
