package d2

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type vec2 = mgl32.Vec2

// DefaultSegments is the tessellation used when a curve tool is given a
// non-positive segment count.
const DefaultSegments = 64

// Bounds is an axis-aligned rectangle in drawing coordinates, y down.
type Bounds struct {
	Min, Max mgl32.Vec2
}

// Box returns the bounds with corners (x0, y0) and (x1, y1).
func Box(x0, y0, x1, y1 float32) Bounds {
	return Bounds{Min: vec2{x0, y0}, Max: vec2{x1, y1}}
}

func (b Bounds) Width() float32      { return b.Max[0] - b.Min[0] }
func (b Bounds) Height() float32     { return b.Max[1] - b.Min[1] }
func (b Bounds) Size() mgl32.Vec2    { return b.Max.Sub(b.Min) }
func (b Bounds) Center() mgl32.Vec2  { return b.Min.Add(b.Max).Mul(0.5) }
func (b Bounds) TopLeft() mgl32.Vec2 { return b.Min }

func (b Bounds) TopRight() mgl32.Vec2    { return vec2{b.Max[0], b.Min[1]} }
func (b Bounds) BottomRight() mgl32.Vec2 { return b.Max }
func (b Bounds) BottomLeft() mgl32.Vec2  { return vec2{b.Min[0], b.Max[1]} }

func segmentsOr(n, min int) int {
	if n <= 0 {
		n = DefaultSegments
	}
	return max(n, min)
}

// rotor steps a unit vector around a circle without calling sin and cos
// per vertex.
type rotor struct {
	s, c float32
	pt   vec2
}

func newRotor(start, step float64) rotor {
	s, c := math.Sincos(step)
	ys, xc := math.Sincos(start)
	return rotor{s: float32(s), c: float32(c), pt: vec2{float32(xc), float32(ys)}}
}

func (r *rotor) next() vec2 {
	pt := r.pt
	x := r.pt[0]
	r.pt[0] = r.c*x - r.s*r.pt[1]
	r.pt[1] = r.s*x + r.c*r.pt[1]
	return pt
}

// onEllipse maps a unit vector onto the ellipse inscribed in b.
func onEllipse(b Bounds, unit vec2) vec2 {
	radius := b.Size().Mul(0.5)
	center := b.Min.Add(radius)
	return vec2{center[0] + unit[0]*radius[0], center[1] + unit[1]*radius[1]}
}

// roundRectOutline returns the clockwise outline of b with elliptical
// corners of radii sx and sy, spending segments across all four corners.
// Radii are clamped to half the rectangle. It returns nil when either
// radius is not positive.
func roundRectOutline(b Bounds, sx, sy float32, segments int) []vec2 {
	sx = min(sx, b.Width()*0.5)
	sy = min(sy, b.Height()*0.5)
	if sx <= 0 || sy <= 0 {
		return nil
	}
	per := max(segmentsOr(segments, 4)/4, 1)
	centers := [4]vec2{
		{b.Max[0] - sx, b.Min[1] + sy},
		{b.Max[0] - sx, b.Max[1] - sy},
		{b.Min[0] + sx, b.Max[1] - sy},
		{b.Min[0] + sx, b.Min[1] + sy},
	}
	pts := make([]vec2, 0, 4*(per+1))
	for corner, c := range centers {
		rot := newRotor(float64(corner-1)*math.Pi/2, math.Pi/2/float64(per))
		for range per + 1 {
			u := rot.next()
			pts = append(pts, vec2{c[0] + u[0]*sx, c[1] + u[1]*sy})
		}
	}
	return pts
}
