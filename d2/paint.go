package d2

import "math"

// Paint tools emit triangle lists. They require a builder whose primitive
// is Triangles; degenerate input is ignored.

var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

// FillRect fills a rectangle.
func FillRect[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds) {
	pts := []vec2{b.TopLeft(), b.TopRight(), b.BottomRight(), b.BottomLeft()}
	dst.emit(Triangles, tmpl, pts, quadIndices)
}

// FillEdgeRect fills a rectangular frame of the given thickness along the
// inside of b.
func FillEdgeRect[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, thickness float32) {
	t := thickness
	pts := []vec2{
		b.TopLeft(),
		b.TopRight(),
		b.BottomRight(),
		b.BottomLeft(),
		b.TopLeft().Add(vec2{t, t}),
		b.TopRight().Add(vec2{-t, t}),
		b.BottomRight().Add(vec2{-t, -t}),
		b.BottomLeft().Add(vec2{t, -t}),
	}
	dst.emit(Triangles, tmpl, pts, []uint32{
		0, 5, 4, 0, 1, 5,
		1, 6, 5, 1, 2, 6,
		2, 7, 6, 2, 3, 7,
		3, 4, 7, 3, 0, 4,
	})
}

// FillRoundRect fills a rectangle with elliptical corners, clamping radii
// the same way as DrawRoundRect.
func FillRoundRect[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, sx, sy float32, segments int) {
	pts := roundRectOutline(b, sx, sy, segments)
	if pts == nil {
		FillRect(dst, tmpl, b)
		return
	}
	FillConvex(dst, tmpl, pts)
}

// FillQuad fills an arbitrary quadrilateral given in clockwise order
// starting at the top left corner.
func FillQuad[V Vertex](dst *DrawBuilder[V], tmpl Template[V], topLeft, topRight, bottomRight, bottomLeft vec2) {
	dst.emit(Triangles, tmpl, []vec2{topLeft, topRight, bottomRight, bottomLeft}, quadIndices)
}

// FillConvex fills a convex polygon as a triangle fan around pts[0].
func FillConvex[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pts []vec2) {
	if len(pts) < 3 {
		return
	}
	indices := make([]uint32, 0, (len(pts)-2)*3)
	for i := 0; i < len(pts)-2; i++ {
		indices = append(indices, 0, uint32(i+1), uint32(i+2))
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillPolygon fills a simple, possibly concave polygon by ear clipping.
// Polygons that cannot be triangulated are skipped.
func FillPolygon[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pts []vec2) {
	indices := Triangulate(pts)
	if len(indices) == 0 {
		return
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillPolygonHoles fills outer with the holes cut out.
func FillPolygonHoles[V Vertex](dst *DrawBuilder[V], tmpl Template[V], outer []vec2, holes ...[]vec2) {
	pts, indices := TriangulateHoles(outer, holes...)
	if len(indices) == 0 {
		return
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillEllipse fills the ellipse inscribed in b with a center vertex and at
// least 3 rim vertices.
func FillEllipse[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, segments int) {
	n := segmentsOr(segments, 3)
	rot := newRotor(0, 2*math.Pi/float64(n))
	pts := make([]vec2, n+1)
	pts[0] = b.Center()
	indices := make([]uint32, 0, n*3)
	for i := 0; i < n; i++ {
		pts[i+1] = onEllipse(b, rot.next())
		indices = append(indices, 0, uint32(i+1), uint32(i+1)%uint32(n)+1)
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillPie fills a slice of the ellipse inscribed in b.
func FillPie[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, start, sweep float32, segments int) {
	if sweep <= -2*math.Pi || sweep >= 2*math.Pi {
		FillEllipse(dst, tmpl, b, segments)
		return
	}
	n := segmentsOr(segments, 2)
	rot := newRotor(float64(start), float64(sweep)/float64(n))
	pts := make([]vec2, n+2)
	pts[0] = b.Center()
	indices := make([]uint32, 0, n*3)
	for i := 0; i <= n; i++ {
		pts[i+1] = onEllipse(b, rot.next())
		if i < n {
			indices = append(indices, 0, uint32(i+1), uint32(i+2))
		}
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillRing fills the band between the ellipse inscribed in b and the same
// ellipse shrunk by width.
func FillRing[V Vertex](dst *DrawBuilder[V], tmpl Template[V], b Bounds, width float32, segments int) {
	n := segmentsOr(segments, 3)
	rot := newRotor(0, 2*math.Pi/float64(n))
	inner := Bounds{Min: b.Min.Add(vec2{width, width}), Max: b.Max.Sub(vec2{width, width})}
	pts := make([]vec2, n*2)
	indices := make([]uint32, 0, n*6)
	for i := 0; i < n; i++ {
		unit := rot.next()
		pts[i*2] = onEllipse(b, unit)
		pts[i*2+1] = onEllipse(inner, unit)

		o, in := uint32(i*2), uint32(i*2+1)
		no, nin := uint32((i+1)%n*2), uint32((i+1)%n*2+1)
		indices = append(indices, o, in, no, in, no, nin)
	}
	dst.emit(Triangles, tmpl, pts, indices)
}

// FillBezier2 fills the area between pivot and a quadratic Bézier curve as
// a fan.
func FillBezier2[V Vertex](dst *DrawBuilder[V], tmpl Template[V], pivot, p1, p2, p3 vec2, segments int) {
	n := segmentsOr(segments, 2)
	pts := make([]vec2, n+2)
	pts[0] = pivot
	indices := make([]uint32, 0, n*3)
	for i := 0; i <= n; i++ {
		pts[i+1] = Bezier2(float32(i)/float32(n), p1, p2, p3)
		if i < n {
			indices = append(indices, 0, uint32(i+1), uint32(i+2))
		}
	}
	dst.emit(Triangles, tmpl, pts, indices)
}
