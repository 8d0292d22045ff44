package render

import (
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/wippyai/wasm-gl/bridge"
	"github.com/wippyai/wasm-gl/d2"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
)

// UploadTexture creates an RGBA texture from img. Gray images are expanded
// to opaque RGBA with the value in every color channel, which lets the text
// shader read coverage atlases and distance fields alike. Other image types
// are converted.
func (r *Renderer) UploadTexture(img image.Image) (bridge.Handle, error) {
	if img == nil {
		return 0, errors.InvalidInput(errors.PhaseDraw, "nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return 0, errors.InvalidInput(errors.PhaseDraw, "empty image")
	}
	w, h := b.Dx(), b.Dy()
	return r.upload(w, h, rgbaPixels(img))
}

func rgbaPixels(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.RGBA:
		if src.Stride == 4*w && b.Min == (image.Point{}) {
			return src.Pix
		}
	case *image.NRGBA:
		if src.Stride == 4*w && b.Min == (image.Point{}) {
			return src.Pix
		}
	case *image.Gray:
		pix := make([]byte, 0, 4*w*h)
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w]
			for _, v := range row {
				pix = append(pix, v, v, v, 255)
			}
		}
		return pix
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

func (r *Renderer) upload(w, h int, pix []byte) (bridge.Handle, error) {
	tex := r.ctx.CreateTexture()
	if err := r.ctx.BindTexture(gl.TEXTURE_2D, tex); err != nil {
		return 0, err
	}
	r.ctx.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	r.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, int32(gl.LINEAR))
	r.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, int32(gl.LINEAR))
	r.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, int32(gl.CLAMP_TO_EDGE))
	r.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, int32(gl.CLAMP_TO_EDGE))
	r.ctx.TexImage2D(gl.TEXTURE_2D, 0, int32(gl.RGBA8), int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, pix)
	r.log.Debug("texture uploaded", zap.Uint32("handle", uint32(tex)), zap.Int("width", w), zap.Int("height", h))
	return tex, nil
}

// LoadFont rasterizes a TrueType or OpenType font at size pixels per em and
// uploads its atlas. A nil rune set loads printable ASCII.
func (r *Renderer) LoadFont(ttf []byte, size float64, runes []rune) (*d2.Font, error) {
	f, atlas, err := d2.RasterizeFont(ttf, size, runes)
	if err != nil {
		return nil, err
	}
	tex, err := r.UploadTexture(atlas)
	if err != nil {
		return nil, err
	}
	f.Texture = tex
	return f, nil
}

// LoadMSDFFont parses an msdf-atlas-gen layout and uploads its atlas image.
func (r *Renderer) LoadMSDFFont(layout []byte, atlas image.Image) (*d2.Font, error) {
	if atlas == nil {
		return nil, errors.InvalidInput(errors.PhaseFont, "nil atlas image")
	}
	f, err := d2.ParseMSDFFont(layout)
	if err != nil {
		return nil, err
	}
	if b := atlas.Bounds(); b.Dx() != f.Atlas.Width || b.Dy() != f.Atlas.Height {
		return nil, errors.New(errors.PhaseFont, errors.KindLayoutMismatch).
			Detail("atlas image is %dx%d, layout expects %dx%d", b.Dx(), b.Dy(), f.Atlas.Width, f.Atlas.Height).
			Build()
	}
	tex, err := r.UploadTexture(atlas)
	if err != nil {
		return nil, err
	}
	f.Texture = tex
	return f, nil
}
