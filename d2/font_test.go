package d2

import (
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/wasm-gl/errors"
)

func TestParseMSDFFont(t *testing.T) {
	f := testFont(t)
	if f.Len() != 2 {
		t.Fatalf("glyphs = %d, want 2", f.Len())
	}
	if f.Shader != ShaderText || f.Atlas.Type != "msdf" {
		t.Errorf("font = %+v", f.Atlas)
	}
	space, ok := f.Glyph(' ')
	if !ok || space.PlaneBounds != nil || space.Advance != 0.25 {
		t.Errorf("space = %+v, %v", space, ok)
	}
	if _, ok := f.Glyph('z'); ok {
		t.Error("unexpected glyph for z")
	}
	if f.Metrics.LineHeight != 1.2 {
		t.Errorf("line height = %v", f.Metrics.LineHeight)
	}
}

func TestParseMSDFFontFlipsTopOrigin(t *testing.T) {
	data := `{
		"atlas": {"type": "mtsdf", "distanceRange": 4, "size": 32, "width": 100, "height": 100, "yOrigin": "top"},
		"glyphs": [{"unicode": 66, "advance": 0.5,
			"planeBounds": {"left": 0, "bottom": 0, "right": 0.5, "top": 1},
			"atlasBounds": {"left": 0, "bottom": 50, "right": 50, "top": 0}}]
	}`
	f, err := ParseMSDFFont([]byte(data))
	if err != nil {
		t.Fatalf("ParseMSDFFont: %v", err)
	}
	g, _ := f.Glyph('B')
	if g.AtlasBounds.Top != 100 || g.AtlasBounds.Bottom != 50 {
		t.Errorf("atlas bounds = %+v, want top 100 bottom 50", *g.AtlasBounds)
	}
	if f.Atlas.YOrigin != "bottom" {
		t.Errorf("YOrigin = %q", f.Atlas.YOrigin)
	}
}

func TestParseMSDFFontErrors(t *testing.T) {
	tests := map[string]string{
		"not json":   `{"atlas":`,
		"zero width": `{"atlas": {"width": 0, "height": 64}, "glyphs": []}`,
		"no atlas":   `{"glyphs": []}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMSDFFont([]byte(data))
			if !errors.IsKind(err, errors.KindInvalidData) {
				t.Fatalf("error = %v, want invalid data", err)
			}
		})
	}
}

func TestFontUniform(t *testing.T) {
	f := testFont(t)
	f.Texture = 9
	u := f.Uniform()
	if u.Texture != 9 {
		t.Errorf("texture = %v", u.Texture)
	}
	if !near(u.UnitRange, vec2{0.04, 0.04}) {
		t.Errorf("unit range = %v, want 4/100", u.UnitRange)
	}

	f.Atlas.Width, f.Atlas.Height = 232, 232
	if got := f.Uniform().UnitRange; !near(got, DefaultTextUniform(0).UnitRange) {
		t.Errorf("unit range = %v, want the default", got)
	}
}

func TestRasterizeFont(t *testing.T) {
	f, img, err := RasterizeFont(goregular.TTF, 32, []rune("AB "))
	if err != nil {
		t.Fatalf("RasterizeFont: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("glyphs = %d, want 3", f.Len())
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w != f.Atlas.Width || h != f.Atlas.Height {
		t.Errorf("image %dx%d, atlas %dx%d", w, h, f.Atlas.Width, f.Atlas.Height)
	}
	if w&(w-1) != 0 || h&(h-1) != 0 {
		t.Errorf("atlas %dx%d is not a power of two", w, h)
	}

	space, _ := f.Glyph(' ')
	if space.PlaneBounds != nil || space.Advance <= 0 {
		t.Errorf("space = %+v", space)
	}

	a, _ := f.Glyph('A')
	if a.PlaneBounds == nil || a.AtlasBounds == nil {
		t.Fatal("A has no bounds")
	}
	if a.PlaneBounds.Top <= 0.5 || a.PlaneBounds.Bottom > 0.01 {
		t.Errorf("A plane bounds = %+v", *a.PlaneBounds)
	}

	ab := a.AtlasBounds
	var coverage int
	for y := h - int(ab.Top); y < h-int(ab.Bottom); y++ {
		for x := int(ab.Left); x < int(ab.Right); x++ {
			coverage += int(img.GrayAt(x, y).Y)
		}
	}
	if coverage == 0 {
		t.Error("A has no coverage in its atlas region")
	}

	lineHeight := f.Metrics.LineHeight
	if lineHeight <= 0 || math.IsNaN(float64(lineHeight)) {
		t.Errorf("line height = %v em", lineHeight)
	}
}

func TestRasterizeFontLaysOutWithScribe(t *testing.T) {
	f, _, err := RasterizeFont(goregular.TTF, 24, nil)
	if err != nil {
		t.Fatalf("RasterizeFont: %v", err)
	}
	if f.Len() != len(ASCII()) {
		t.Fatalf("glyphs = %d, want %d", f.Len(), len(ASCII()))
	}
	b := textBuilder()
	NewScribe().Write(b, f, vec2{}, "Hi there")
	if b.Len() != 7*4 {
		t.Errorf("vertices = %d, want 28", b.Len())
	}
}

func TestRasterizeFontErrors(t *testing.T) {
	if _, _, err := RasterizeFont(goregular.TTF, 0, nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("zero size: %v", err)
	}
	if _, _, err := RasterizeFont([]byte("not a font"), 16, nil); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("garbage font: %v", err)
	}
}
