package d2

import (
	"encoding/json"
	"image"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/resource"
)

// GlyphBounds is a rectangle in em units (plane) or atlas pixels (atlas).
type GlyphBounds struct {
	Left   float32 `json:"left"`
	Bottom float32 `json:"bottom"`
	Right  float32 `json:"right"`
	Top    float32 `json:"top"`
}

// Glyph holds the metrics of one character. Glyphs without bounds, such as
// spaces, advance the cursor without drawing.
type Glyph struct {
	Unicode     rune         `json:"unicode"`
	Advance     float32      `json:"advance"`
	PlaneBounds *GlyphBounds `json:"planeBounds,omitempty"`
	AtlasBounds *GlyphBounds `json:"atlasBounds,omitempty"`
}

// AtlasInfo describes the atlas texture. Atlas bounds are stored with a
// bottom origin regardless of YOrigin in the source file.
type AtlasInfo struct {
	Type          string  `json:"type"`
	DistanceRange float32 `json:"distanceRange"`
	Size          float32 `json:"size"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	YOrigin       string  `json:"yOrigin"`
}

// FontMetrics are the vertical metrics of the font in em units.
type FontMetrics struct {
	EmSize             float32 `json:"emSize"`
	LineHeight         float32 `json:"lineHeight"`
	Ascender           float32 `json:"ascender"`
	Descender          float32 `json:"descender"`
	UnderlineY         float32 `json:"underlineY"`
	UnderlineThickness float32 `json:"underlineThickness"`
}

// Font is a glyph table with its atlas. The glyph table is immutable after
// loading; Texture is assigned once the atlas has been uploaded.
type Font struct {
	Atlas   AtlasInfo
	Metrics FontMetrics
	Texture resource.Handle
	Shader  Shader

	glyphs map[rune]Glyph
}

// Glyph returns the metrics of r.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// Len returns the number of glyphs.
func (f *Font) Len() int {
	return len(f.glyphs)
}

// Uniform returns text shader parameters matching the atlas.
func (f *Font) Uniform() TextUniform {
	u := DefaultTextUniform(f.Texture)
	if f.Atlas.DistanceRange > 0 && f.Atlas.Width > 0 && f.Atlas.Height > 0 {
		u.UnitRange = vec2{
			f.Atlas.DistanceRange / float32(f.Atlas.Width),
			f.Atlas.DistanceRange / float32(f.Atlas.Height),
		}
	}
	return u
}

type msdfFile struct {
	Atlas   AtlasInfo   `json:"atlas"`
	Metrics FontMetrics `json:"metrics"`
	Glyphs  []Glyph     `json:"glyphs"`
}

// ParseMSDFFont reads the JSON layout written by msdf-atlas-gen.
func ParseMSDFFont(data []byte) (*Font, error) {
	var file msdfFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.PhaseFont, errors.KindInvalidData, err, "decode font json")
	}
	if file.Atlas.Width <= 0 || file.Atlas.Height <= 0 {
		return nil, errors.InvalidData(errors.PhaseFont, []string{"atlas"}, "atlas size must be positive")
	}

	f := &Font{
		Atlas:   file.Atlas,
		Metrics: file.Metrics,
		Shader:  ShaderText,
		glyphs:  make(map[rune]Glyph, len(file.Glyphs)),
	}
	flip := file.Atlas.YOrigin == "top"
	h := float32(file.Atlas.Height)
	for _, g := range file.Glyphs {
		if g.AtlasBounds != nil && flip {
			ab := *g.AtlasBounds
			ab.Top, ab.Bottom = h-ab.Top, h-ab.Bottom
			g.AtlasBounds = &ab
		}
		f.glyphs[g.Unicode] = g
	}
	f.Atlas.YOrigin = "bottom"

	Logger().Debug("font parsed",
		zap.String("type", f.Atlas.Type),
		zap.Int("glyphs", len(f.glyphs)),
		zap.Int("width", f.Atlas.Width),
		zap.Int("height", f.Atlas.Height))
	return f, nil
}

// ASCII is the printable ASCII range, the default rune set of RasterizeFont.
func ASCII() []rune {
	out := make([]rune, 0, 95)
	for r := rune(32); r < 127; r++ {
		out = append(out, r)
	}
	return out
}

type packedGlyph struct {
	r       rune
	bounds  image.Rectangle
	advance fixed.Int26_6
	x, y    int
}

const atlasPadding = 1

// RasterizeFont renders runes from a TrueType or OpenType font into a
// grayscale coverage atlas at size pixels per em. The returned font has the
// same metrics layout as an msdf atlas, so Scribe lays it out the same way.
func RasterizeFont(ttf []byte, size float64, runes []rune) (*Font, *image.Gray, error) {
	if size <= 0 {
		return nil, nil, errors.InvalidInput(errors.PhaseFont, "font size must be positive")
	}
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, nil, errors.Wrap(errors.PhaseFont, errors.KindInvalidData, err, "parse font")
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, nil, errors.Wrap(errors.PhaseFont, errors.KindInvalidData, err, "create face")
	}
	defer func() {
		_ = face.Close()
	}()
	if runes == nil {
		runes = ASCII()
	}

	glyphs := make([]packedGlyph, 0, len(runes))
	area := 0
	for _, r := range runes {
		b, adv, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		rect := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
		glyphs = append(glyphs, packedGlyph{r: r, bounds: rect, advance: adv})
		area += (rect.Dx() + 2*atlasPadding) * (rect.Dy() + 2*atlasPadding)
	}

	// Shelf packing, tallest glyphs first.
	order := make([]int, len(glyphs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return glyphs[order[a]].bounds.Dy() > glyphs[order[b]].bounds.Dy()
	})
	width := nextPow2(int(math.Ceil(math.Sqrt(float64(area)) * 1.25)))
	for _, g := range glyphs {
		width = max(width, nextPow2(g.bounds.Dx()+2*atlasPadding))
	}
	x, y, row := 0, 0, 0
	for _, i := range order {
		g := &glyphs[i]
		w, h := g.bounds.Dx()+2*atlasPadding, g.bounds.Dy()+2*atlasPadding
		if x+w > width {
			x, y, row = 0, y+row, 0
		}
		g.x, g.y = x+atlasPadding, y+atlasPadding
		x += w
		row = max(row, h)
	}
	height := max(nextPow2(y+row), 1)

	img := image.NewGray(image.Rect(0, 0, width, height))
	em := float32(size)
	f := &Font{
		Atlas: AtlasInfo{
			Type:          "coverage",
			DistanceRange: 1,
			Size:          em,
			Width:         width,
			Height:        height,
			YOrigin:       "bottom",
		},
		Shader: ShaderText,
		glyphs: make(map[rune]Glyph, len(glyphs)),
	}
	m := face.Metrics()
	f.Metrics = FontMetrics{
		EmSize:     1,
		LineHeight: fixedFloat(m.Height) / em,
		Ascender:   fixedFloat(m.Ascent) / em,
		Descender:  -fixedFloat(m.Descent) / em,
	}

	for _, g := range glyphs {
		glyph := Glyph{Unicode: g.r, Advance: fixedFloat(g.advance) / em}
		if !g.bounds.Empty() {
			dot := fixed.P(g.x-g.bounds.Min.X, g.y-g.bounds.Min.Y)
			dr, mask, maskp, _, ok := face.Glyph(dot, g.r)
			if ok {
				draw.DrawMask(img, dr, image.White, image.Point{}, mask, maskp, draw.Over)
			}
			glyph.PlaneBounds = &GlyphBounds{
				Left:   float32(g.bounds.Min.X) / em,
				Right:  float32(g.bounds.Max.X) / em,
				Top:    -float32(g.bounds.Min.Y) / em,
				Bottom: -float32(g.bounds.Max.Y) / em,
			}
			glyph.AtlasBounds = &GlyphBounds{
				Left:   float32(g.x),
				Right:  float32(g.x + g.bounds.Dx()),
				Top:    float32(height - g.y),
				Bottom: float32(height - g.y - g.bounds.Dy()),
			}
		}
		f.glyphs[g.r] = glyph
	}

	Logger().Debug("font rasterized",
		zap.Float64("size", size),
		zap.Int("glyphs", len(f.glyphs)),
		zap.Int("width", width),
		zap.Int("height", height))
	return f, img, nil
}

func fixedFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
