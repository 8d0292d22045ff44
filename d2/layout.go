package d2

import "github.com/wippyai/wasm-gl/gl"

// Attrib describes one attribute slot of a vertex layout.
type Attrib struct {
	Name       string
	Size       int32
	Type       gl.Enum
	Normalized bool
	Offset     int
}

// VertexLayout describes the byte encoding of one vertex type. Layouts are
// compared by pointer: two builders share a layout only when they hold the
// same *VertexLayout.
type VertexLayout struct {
	Name    string
	Stride  int32
	Attribs []Attrib
}

func (l *VertexLayout) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.Name
}

// Attrib returns the slot with the given name.
func (l *VertexLayout) Attrib(name string) (Attrib, bool) {
	for _, a := range l.Attribs {
		if a.Name == name {
			return a, true
		}
	}
	return Attrib{}, false
}

var (
	ColorLayout = &VertexLayout{
		Name:   "color",
		Stride: 16,
		Attribs: []Attrib{
			{Name: "a_pos", Size: 2, Type: gl.FLOAT, Offset: 0},
			{Name: "a_color1", Size: 4, Type: gl.UNSIGNED_BYTE, Normalized: true, Offset: 8},
			{Name: "a_color2", Size: 4, Type: gl.UNSIGNED_BYTE, Normalized: true, Offset: 12},
		},
	}

	TexturedLayout = &VertexLayout{
		Name:   "textured",
		Stride: 20,
		Attribs: []Attrib{
			{Name: "a_pos", Size: 2, Type: gl.FLOAT, Offset: 0},
			{Name: "a_texcoord", Size: 2, Type: gl.FLOAT, Offset: 8},
			{Name: "a_color", Size: 4, Type: gl.UNSIGNED_BYTE, Normalized: true, Offset: 16},
		},
	}

	TextLayout = &VertexLayout{
		Name:   "text",
		Stride: 24,
		Attribs: []Attrib{
			{Name: "a_pos", Size: 2, Type: gl.FLOAT, Offset: 0},
			{Name: "a_texcoord", Size: 2, Type: gl.FLOAT, Offset: 8},
			{Name: "a_color", Size: 4, Type: gl.UNSIGNED_BYTE, Normalized: true, Offset: 16},
			{Name: "a_outline", Size: 4, Type: gl.UNSIGNED_BYTE, Normalized: true, Offset: 20},
		},
	}
)
