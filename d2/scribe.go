package d2

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// BoxAlign positions text inside a box. The low bits select the column and
// the high bits the row.
type BoxAlign uint8

const (
	TopLeft      BoxAlign = 0
	TopCenter    BoxAlign = 1
	TopRight     BoxAlign = 2
	MiddleLeft   BoxAlign = 4
	MiddleCenter BoxAlign = 5
	MiddleRight  BoxAlign = 6
	BottomLeft   BoxAlign = 8
	BottomCenter BoxAlign = 9
	BottomRight  BoxAlign = 10
)

// Scribe holds the text layout state. Escape sequences embedded in the text
// change a copy of it for the rest of the string.
type Scribe struct {
	FontSize       float32
	FontWidthScale float32
	LineHeight     float32
	// Baseline is the distance of the baseline from the bottom of a line.
	Baseline      float32
	XPos          float32
	LetterSpacing float32
	// TopSkew shifts the top glyph corners in x for faux italics.
	TopSkew float32
	Color   Color
	Outline Color
	// Gamma converts Color and Outline from sRGB to linear before they are
	// written to vertices.
	Gamma bool
}

// NewScribe returns a scribe with 16 pixel white text and a black outline.
func NewScribe() Scribe {
	return Scribe{
		FontSize:       16,
		FontWidthScale: 1,
		LineHeight:     16,
		Color:          White,
		Outline:        Black,
	}
}

// SetBaselineRelative places the baseline as a fraction of the free space
// in a line: 0 at the bottom, 1 at the top.
func (s *Scribe) SetBaselineRelative(fraction float32) {
	s.Baseline = (s.LineHeight - s.FontSize) * fraction
}

// layout walks text and calls glyph for every visible glyph with its quad
// origin. It returns the final cursor and the widest line.
func (s Scribe) layout(font *Font, cursor vec2, text string, glyph func(sc *Scribe, g Glyph, pos vec2)) (vec2, float32) {
	startX := cursor[0]
	var width float32
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		switch r {
		case '\n':
			width = max(width, cursor[0]-startX)
			cursor = vec2{s.XPos, cursor[1] + s.LineHeight}
			startX = s.XPos
			continue
		case '\x1b':
			if i >= len(text) {
				continue
			}
			if text[i] != '[' {
				_, size := utf8.DecodeRuneInString(text[i:])
				i += size
				continue
			}
			end := strings.IndexByte(text[i+1:], ']')
			if end < 0 {
				return cursor, max(width, cursor[0]-startX)
			}
			s.applyEscape(text[i+1 : i+1+end])
			i += end + 2
			continue
		}

		g, ok := font.Glyph(r)
		if !ok {
			continue
		}
		pos := cursor.Add(vec2{0, s.LineHeight - s.FontSize - s.Baseline})
		cursor[0] += g.Advance*s.FontSize*s.FontWidthScale + s.LetterSpacing
		if glyph != nil && g.PlaneBounds != nil && g.AtlasBounds != nil {
			glyph(&s, g, pos)
		}
	}
	return cursor, max(width, cursor[0]-startX)
}

// TextWidth returns the width of the widest line of text.
func (s Scribe) TextWidth(font *Font, text string) float32 {
	_, w := s.layout(font, vec2{}, text, nil)
	return w
}

// Write lays out text at cursor and appends one quad per glyph to dst. It
// returns the cursor after the last character.
func (s Scribe) Write(dst *DrawBuilder[TextVertex], font *Font, cursor vec2, text string) vec2 {
	var verts []TextVertex
	var indices []uint32
	end, _ := s.layout(font, cursor, text, func(sc *Scribe, g Glyph, pos vec2) {
		base := uint32(len(verts))
		verts = append(verts, glyphQuad(sc, font, g, pos)...)
		for _, idx := range quadIndices {
			indices = append(indices, base+idx)
		}
	})
	if len(verts) > 0 {
		if err := dst.append(Triangles, verts, indices); err != nil {
			Logger().Warn("text dropped", zap.Error(err))
		}
	}
	return end
}

// TextBox writes text aligned inside b, one line per '\n'.
func (s Scribe) TextBox(dst *DrawBuilder[TextVertex], font *Font, b Bounds, align BoxAlign, text string) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	height := float32(len(lines)) * s.LineHeight

	var y float32
	switch align &^ 3 {
	case MiddleLeft:
		y = b.Min[1] + (b.Height()-height)*0.5
	case BottomLeft:
		y = b.Max[1] - height
	default:
		y = b.Min[1]
	}
	for _, line := range lines {
		var x float32
		switch align & 3 {
		case TopCenter:
			x = b.Min[0] + (b.Width()-s.TextWidth(font, line))*0.5
		case TopRight:
			x = b.Max[0] - s.TextWidth(font, line)
		default:
			x = b.Min[0]
		}
		s.Write(dst, font, vec2{x, y}, line)
		y += s.LineHeight
	}
}

func glyphQuad(s *Scribe, font *Font, g Glyph, pos vec2) []TextVertex {
	pb, ab := g.PlaneBounds, g.AtlasBounds
	scaleX := s.FontSize * s.FontWidthScale
	left, right := pb.Left*scaleX, pb.Right*scaleX
	top, bottom := (1-pb.Top)*s.FontSize, (1-pb.Bottom)*s.FontSize

	w, h := float32(font.Atlas.Width), float32(font.Atlas.Height)
	uLeft, uRight := ab.Left/w, ab.Right/w
	vTop, vBottom := (h-ab.Top)/h, (h-ab.Bottom)/h

	color, outline := s.Color, s.Outline
	if s.Gamma {
		color, outline = color.Linear(), outline.Linear()
	}
	skew := s.TopSkew
	return []TextVertex{
		{Pos: pos.Add(vec2{left, bottom}), UV: vec2{uLeft, vBottom}, Color: color, Outline: outline},
		{Pos: pos.Add(vec2{left + skew, top}), UV: vec2{uLeft, vTop}, Color: color, Outline: outline},
		{Pos: pos.Add(vec2{right + skew, top}), UV: vec2{uRight, vTop}, Color: color, Outline: outline},
		{Pos: pos.Add(vec2{right, bottom}), UV: vec2{uRight, vBottom}, Color: color, Outline: outline},
	}
}
