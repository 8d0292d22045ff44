package d2

import "github.com/go-gl/mathgl/mgl32"

// Sprite corners, in emission order.
const (
	CornerBottomLeft = iota
	CornerTopLeft
	CornerTopRight
	CornerBottomRight
)

// SpriteTemplate holds one template per sprite corner.
type SpriteTemplate[V Vertex] struct {
	BottomLeft  Template[V]
	TopLeft     Template[V]
	TopRight    Template[V]
	BottomRight Template[V]
}

// Vertex dispatches to the template of the given corner.
func (s SpriteTemplate[V]) Vertex(pos mgl32.Vec2, corner int) V {
	switch corner {
	case CornerTopLeft:
		return s.TopLeft.Vertex(pos, corner)
	case CornerTopRight:
		return s.TopRight.Vertex(pos, corner)
	case CornerBottomRight:
		return s.BottomRight.Vertex(pos, corner)
	default:
		return s.BottomLeft.Vertex(pos, corner)
	}
}

// TexturedSprite maps the texture region uv onto a sprite tinted with c.
// uv is in texture space with v growing downwards like the drawing space.
func TexturedSprite(uv Bounds, c Color) SpriteTemplate[TexturedVertex] {
	return SpriteTemplate[TexturedVertex]{
		BottomLeft:  TexturedTemplate{UV: uv.BottomLeft(), Color: c},
		TopLeft:     TexturedTemplate{UV: uv.TopLeft(), Color: c},
		TopRight:    TexturedTemplate{UV: uv.TopRight(), Color: c},
		BottomRight: TexturedTemplate{UV: uv.BottomRight(), Color: c},
	}
}

// SpriteRect draws a sprite filling b.
func SpriteRect[V Vertex](dst *DrawBuilder[V], tmpl SpriteTemplate[V], b Bounds) {
	pts := []vec2{b.BottomLeft(), b.TopLeft(), b.TopRight(), b.BottomRight()}
	dst.emit(Triangles, tmpl, pts, quadIndices)
}

// SpriteQuad draws the unit square mapped through transform. The first
// column is the x axis, the second the y axis and the third the position
// of the bottom-left corner.
func SpriteQuad[V Vertex](dst *DrawBuilder[V], tmpl SpriteTemplate[V], transform mgl32.Mat3) {
	x := transform.Col(0).Vec2()
	y := transform.Col(1).Vec2()
	t := transform.Col(2).Vec2()
	pts := []vec2{t, t.Add(y), t.Add(x).Add(y), t.Add(x)}
	dst.emit(Triangles, tmpl, pts, quadIndices)
}
