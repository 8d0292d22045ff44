package d2

import "github.com/mmp/earcut-go"

// SignedArea returns twice the signed area of the polygon. It is positive
// for counter-clockwise winding in a y-up frame.
func SignedArea(pts []vec2) float32 {
	var a float32
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a
}

// PolygonBounds returns the bounding box of pts.
func PolygonBounds(pts []vec2) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = vec2{min(b.Min[0], p[0]), min(b.Min[1], p[1])}
		b.Max = vec2{max(b.Max[0], p[0]), max(b.Max[1], p[1])}
	}
	return b
}

// Triangulate splits a simple polygon into triangles by ear clipping and
// returns a triangle-list index buffer into pts. Either winding is
// accepted. It returns nil for fewer than 3 points or when no ear can be
// found (self-intersecting input).
func Triangulate(pts []vec2) []uint32 {
	n := len(pts)
	if n < 3 {
		return nil
	}
	remaining := make([]uint32, n)
	for i := range remaining {
		remaining[i] = uint32(i)
	}
	// Work in counter-clockwise order.
	orient := float32(1)
	if SignedArea(pts) < 0 {
		orient = -1
	}

	out := make([]uint32, 0, (n-2)*3)
	for len(remaining) > 3 {
		clipped := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]
			if !isEar(pts, remaining, prev, cur, next, orient) {
				continue
			}
			out = append(out, prev, cur, next)
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil
		}
	}
	return append(out, remaining[0], remaining[1], remaining[2])
}

func cross(o, a, b vec2) float32 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func isEar(pts []vec2, remaining []uint32, prev, cur, next uint32, orient float32) bool {
	a, b, c := pts[prev], pts[cur], pts[next]
	if cross(a, b, c)*orient <= 0 {
		return false
	}
	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		p := pts[idx]
		if cross(a, b, p)*orient >= 0 && cross(b, c, p)*orient >= 0 && cross(c, a, p)*orient >= 0 {
			return false
		}
	}
	return true
}

// TriangulateHoles triangulates the area inside outer and outside every
// hole. It returns the distinct ring points and a triangle-list index
// buffer into them; nil when outer has fewer than 3 points.
func TriangulateHoles(outer []vec2, holes ...[]vec2) ([]vec2, []uint32) {
	if len(outer) < 3 {
		return nil, nil
	}
	rings := make([][]earcut.Vertex, 0, 1+len(holes))
	index := make(map[[2]float64]uint32)
	var pts []vec2
	addRing := func(ring []vec2) {
		vs := make([]earcut.Vertex, len(ring))
		for i, p := range ring {
			key := [2]float64{float64(p[0]), float64(p[1])}
			vs[i].P = key
			if _, ok := index[key]; !ok {
				index[key] = uint32(len(pts))
				pts = append(pts, p)
			}
		}
		rings = append(rings, vs)
	}
	addRing(outer)
	for _, h := range holes {
		if len(h) >= 3 {
			addRing(h)
		}
	}

	var indices []uint32
	for _, tri := range earcut.Triangulate(earcut.Polygon{Rings: rings}) {
		for _, v := range tri.Vertices {
			indices = append(indices, index[v.P])
		}
	}
	return pts, indices
}
