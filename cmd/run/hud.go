package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/d2"
	"github.com/wippyai/wasm-gl/render"
	"github.com/wippyai/wasm-gl/runtime"
)

const hudFontSize = 14

var hudBackground = d2.RGBA(0, 0, 0, 160)

// hud draws frame statistics over the guest with the host renderer. It
// shares the guest's graphics context, so its objects are released when
// the session stops.
type hud struct {
	log     *zap.Logger
	r       *render.Renderer
	font    *d2.Font
	pool    *d2.Pool
	scribe  d2.Scribe
	measure *d2.Measurer
	failed  bool

	width, height int
	last          time.Time
	frames        uint64
	text          string
}

func newHUD(log *zap.Logger) (*hud, error) {
	s := d2.NewScribe()
	s.FontSize = hudFontSize
	s.LineHeight = hudFontSize * 1.3
	s.SetBaselineRelative(0.5)
	m, err := d2.NewMeasurer(64)
	if err != nil {
		return nil, err
	}
	return &hud{log: log, pool: d2.NewPool(), scribe: s, measure: m, last: time.Now()}, nil
}

func (h *hud) resize(width, height int) {
	h.width, h.height = width, height
}

func (h *hud) draw(sess *runtime.Session) {
	if h.failed || h.width == 0 || h.height == 0 {
		return
	}
	frames, now := sess.Frames(), time.Now()
	dt := now.Sub(h.last).Seconds()
	refresh := h.text == "" || dt >= 0.5

	err := sess.Do(func(c *bridge.Context) error {
		if h.r == nil {
			if err := h.init(c); err != nil {
				return err
			}
		}
		if refresh {
			var fps float64
			if dt > 0 {
				fps = float64(frames-h.frames) / dt
			}
			stats := c.Stats()
			h.text = fmt.Sprintf("%.1f fps\ndraw calls %d  objects %d", fps, stats.DrawCalls, stats.LiveTotal())
			h.frames, h.last = frames, now
		}
		h.r.Invalidate()
		return h.layout(h.text)
	})
	if err != nil {
		h.failed = true
		h.log.Warn("overlay disabled", zap.Error(err))
	}
}

func (h *hud) init(c *bridge.Context) error {
	r, err := render.New(c, render.Config{Logger: h.log})
	if err != nil {
		return err
	}
	font, err := r.LoadFont(gomono.TTF, hudFontSize*2, nil)
	if err != nil {
		return err
	}
	h.r, h.font = r, font
	return nil
}

func (h *hud) layout(text string) error {
	w, ht := float32(h.width), float32(h.height)
	viewport := d2.Rect{W: int32(h.width), H: int32(h.height)}

	bg := d2.DefaultColorUniform()
	bg.Transform = d2.Ortho(w, ht)
	bgKey := d2.NewKey(d2.ColorLayout, d2.Triangles, d2.BlendAlpha, bg)
	bgKey.State.Viewport = viewport
	panel, err := d2.BuilderFor[d2.ColorVertex](h.pool, bgKey)
	if err != nil {
		return err
	}

	tu := h.font.Uniform()
	tu.Transform = d2.Ortho(w, ht)
	textKey := d2.Key{
		Layout:  d2.TextLayout,
		State:   d2.PipelineState{Blend: d2.BlendAlpha, Shader: d2.ShaderText, Viewport: viewport},
		Uniform: tu,
	}
	glyphs, err := d2.BuilderFor[d2.TextVertex](h.pool, textKey)
	if err != nil {
		return err
	}

	box := d2.Box(8, 8, 8+h.measure.TextWidth(h.scribe, h.font, text)+16, 8+2*h.scribe.LineHeight+8)
	d2.FillRect(panel, d2.Solid(hudBackground), box)
	h.scribe.TextBox(glyphs, h.font, box, d2.MiddleCenter, text)
	return h.pool.Flush(h.r)
}
