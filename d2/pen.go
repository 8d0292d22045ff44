package d2

import "math"

// Pen tools emit line lists. They require a builder whose primitive is
// Lines; degenerate input is ignored.

// DrawLine draws a single segment.
func DrawLine[V Vertex](dst *DrawBuilder[V], tmpl Template[V], p1, p2 vec2) {
	dst.emit(Lines, tmpl, []vec2{p1, p2}, []uint32{0, 1})
}

// DrawLines draws independent segments from consecutive point pairs. A
// trailing unpaired point is ignored.
func DrawLines[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pts []vec2) {
	n := len(pts) &^ 1
	if n == 0 {
		return
	}
	dst.emit(Lines, tmpl, pts[:n], nil)
}

// DrawLineRect outlines a rectangle.
func DrawLineRect[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds) {
	pts := []vec2{b.TopLeft(), b.TopRight(), b.BottomRight(), b.BottomLeft()}
	dst.emit(Lines, tmpl, pts, []uint32{0, 1, 1, 2, 2, 3, 3, 0})
}

// DrawRoundRect outlines a rectangle with elliptical corners of radii sx
// and sy. Radii larger than half the rectangle are clamped; a non-positive
// radius draws a plain rectangle.
func DrawRoundRect[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, sx, sy float32, segments int) {
	pts := roundRectOutline(b, sx, sy, segments)
	if pts == nil {
		DrawLineRect(dst, tmpl, b)
		return
	}
	DrawPolyLine(dst, tmpl, pts, true)
}

// DrawPolyLine connects consecutive points, and the last point back to the
// first when closed.
func DrawPolyLine[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pts []vec2, closed bool) {
	if len(pts) < 2 {
		return
	}
	n := len(pts) - 1
	if closed {
		n = len(pts)
	}
	indices := make([]uint32, 0, n*2)
	for i := 0; i < n; i++ {
		indices = append(indices, uint32(i), uint32((i+1)%len(pts)))
	}
	dst.emit(Lines, tmpl, pts, indices)
}

// DrawEllipse outlines the ellipse inscribed in b with at least 3 segments.
func DrawEllipse[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, segments int) {
	n := segmentsOr(segments, 3)
	rot := newRotor(0, 2*math.Pi/float64(n))
	pts := make([]vec2, n)
	indices := make([]uint32, 0, n*2)
	for i := range pts {
		pts[i] = onEllipse(b, rot.next())
		indices = append(indices, uint32(i), uint32((i+1)%n))
	}
	dst.emit(Lines, tmpl, pts, indices)
}

// DrawArc outlines part of the ellipse inscribed in b, starting at angle
// start and sweeping by sweep radians. A sweep of a full turn or more draws
// the whole ellipse.
func DrawArc[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, start, sweep float32, segments int) {
	if sweep <= -2*math.Pi || sweep >= 2*math.Pi {
		DrawEllipse(dst, tmpl, b, segments)
		return
	}
	n := segmentsOr(segments, 2)
	rot := newRotor(float64(start), float64(sweep)/float64(n))
	pts := make([]vec2, n+1)
	for i := range pts {
		pts[i] = onEllipse(b, rot.next())
	}
	dst.emit(Lines, tmpl, pts, stripIndices(n))
}

// DrawBezier2 draws a quadratic Bézier curve.
func DrawBezier2[V Vertex](dst *DrawBuilder[V], tmpl Template[V], p1, p2, p3 vec2, segments int) {
	n := segmentsOr(segments, 2)
	pts := make([]vec2, n+1)
	for i := range pts {
		pts[i] = Bezier2(float32(i)/float32(n), p1, p2, p3)
	}
	dst.emit(Lines, tmpl, pts, stripIndices(n))
}

// DrawBezier3 draws a cubic Bézier curve.
func DrawBezier3[V Vertex](dst *DrawBuilder[V], tmpl Template[V], p1, p2, p3, p4 vec2, segments int) {
	n := segmentsOr(segments, 2)
	pts := make([]vec2, n+1)
	for i := range pts {
		pts[i] = Bezier3(float32(i)/float32(n), p1, p2, p3, p4)
	}
	dst.emit(Lines, tmpl, pts, stripIndices(n))
}

// DrawCSpline draws a cardinal spline through pts, one cubic curve per
// segment.
func DrawCSpline[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pts []vec2, tension float32, segments int) {
	for _, c := range CSplineSegments(pts, tension) {
		DrawBezier3(dst, tmpl, c[0], c[1], c[2], c[3], segments)
	}
}

// stripIndices returns the line-list indices of an open strip of n
// segments.
func stripIndices(n int) []uint32 {
	indices := make([]uint32, 0, n*2)
	for i := 0; i < n; i++ {
		indices = append(indices, uint32(i), uint32(i+1))
	}
	return indices
}
