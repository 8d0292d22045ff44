package d2

import (
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b vec2) bool {
	return a.ApproxEqualThreshold(b, 1e-3)
}

func lineBuilder() *DrawBuilder[ColorVertex] {
	return NewDrawBuilder[ColorVertex](ColorLayout, PipelineState{Primitive: Lines}, nil)
}

func triBuilder() *DrawBuilder[ColorVertex] {
	return NewDrawBuilder[ColorVertex](ColorLayout, PipelineState{Primitive: Triangles}, nil)
}

func positions(b *DrawBuilder[ColorVertex]) []vec2 {
	out := make([]vec2, b.Len())
	for i, v := range b.Vertices() {
		out[i] = v.Pos
	}
	return out
}

func TestPenLineRect(t *testing.T) {
	b := lineBuilder()
	DrawLineRect(b, Solid(White), Box(-1, -1.5, 1, 1.5))

	want := []vec2{{-1, -1.5}, {1, -1.5}, {1, 1.5}, {-1, 1.5}}
	if got := positions(b); !slices.Equal(got, want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
	if got := b.Indices(); !slices.Equal(got, []uint32{0, 1, 1, 2, 2, 3, 3, 0}) {
		t.Errorf("indices = %v", got)
	}
}

func TestPenPolyLine(t *testing.T) {
	pts := []vec2{{1, 2}, {-2, 4.5}, {0.5, 1}}
	tests := []struct {
		name    string
		pts     []vec2
		closed  bool
		indices []uint32
	}{
		{"open", pts, false, []uint32{0, 1, 1, 2}},
		{"closed", pts, true, []uint32{0, 1, 1, 2, 2, 0}},
		{"single point", pts[:1], true, nil},
		{"empty", nil, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := lineBuilder()
			DrawPolyLine(b, Solid(White), tt.pts, tt.closed)
			if got := b.Indices(); !slices.Equal(got, tt.indices) {
				t.Errorf("indices = %v, want %v", got, tt.indices)
			}
		})
	}
}

func TestPenLinesDropsUnpairedPoint(t *testing.T) {
	b := lineBuilder()
	DrawLines(b, Solid(White), []vec2{{0, 0}, {1, 0}, {2, 0}})
	if b.Len() != 2 {
		t.Fatalf("vertices = %d, want 2", b.Len())
	}
}

func TestPenEllipseSegments(t *testing.T) {
	tests := []struct {
		segments int
		verts    int
	}{
		{0, DefaultSegments},
		{1, 3},
		{3, 3},
		{12, 12},
	}
	for _, tt := range tests {
		b := lineBuilder()
		DrawEllipse(b, Solid(White), Box(0, 0, 20, 10), tt.segments)
		if b.Len() != tt.verts || len(b.Indices()) != tt.verts*2 {
			t.Errorf("segments %d: %d vertices, %d indices", tt.segments, b.Len(), len(b.Indices()))
			continue
		}
		idx := b.Indices()
		if idx[len(idx)-2] != uint32(tt.verts-1) || idx[len(idx)-1] != 0 {
			t.Errorf("segments %d: ellipse not closed: %v", tt.segments, idx[len(idx)-2:])
		}
		if !near(b.Vertices()[0].Pos, vec2{20, 5}) {
			t.Errorf("segments %d: first vertex = %v", tt.segments, b.Vertices()[0].Pos)
		}
	}
}

func TestPenArc(t *testing.T) {
	b := lineBuilder()
	DrawArc(b, Solid(White), Box(-1, -1, 1, 1), 0, math.Pi/2, 4)
	if b.Len() != 5 || len(b.Indices()) != 8 {
		t.Fatalf("arc: %d vertices, %d indices", b.Len(), len(b.Indices()))
	}
	pts := positions(b)
	if !near(pts[0], vec2{1, 0}) || !near(pts[4], vec2{0, 1}) {
		t.Errorf("arc endpoints = %v, %v", pts[0], pts[4])
	}

	full := lineBuilder()
	DrawArc(full, Solid(White), Box(-1, -1, 1, 1), 0, 2*math.Pi, 8)
	if full.Len() != 8 {
		t.Errorf("full-turn arc has %d vertices, want an 8 vertex ellipse", full.Len())
	}
}

func TestBezierEndpoints(t *testing.T) {
	p1, p2, p3, p4 := vec2{0, 0}, vec2{1, 3}, vec2{4, -2}, vec2{5, 5}
	if got := Bezier2(0, p1, p2, p3); !near(got, p1) {
		t.Errorf("Bezier2(0) = %v", got)
	}
	if got := Bezier2(1, p1, p2, p3); !near(got, p3) {
		t.Errorf("Bezier2(1) = %v", got)
	}
	if got := Bezier2(0.5, p1, p2, p3); !near(got, vec2{1.5, 1}) {
		t.Errorf("Bezier2(0.5) = %v", got)
	}
	if got := Bezier3(0, p1, p2, p3, p4); !near(got, p1) {
		t.Errorf("Bezier3(0) = %v", got)
	}
	if got := Bezier3(1, p1, p2, p3, p4); !near(got, p4) {
		t.Errorf("Bezier3(1) = %v", got)
	}

	b := lineBuilder()
	DrawBezier3(b, Solid(White), p1, p2, p3, p4, 10)
	pts := positions(b)
	if len(pts) != 11 || !near(pts[0], p1) || !near(pts[10], p4) {
		t.Errorf("curve = %d points from %v to %v", len(pts), pts[0], pts[len(pts)-1])
	}
}

func TestCSplineSegments(t *testing.T) {
	pts := []vec2{{0, 0}, {1, 1}, {2, 0}}
	segs := CSplineSegments(pts, 0)
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if segs[0][0] != pts[0] || segs[0][3] != pts[1] || segs[1][0] != pts[1] || segs[1][3] != pts[2] {
		t.Errorf("segments do not pass through the points: %v", segs)
	}
	if segs[0][1] != pts[0] {
		t.Errorf("start velocity not zero: %v", segs[0][1])
	}
	if segs[1][2] != pts[2] {
		t.Errorf("end velocity not zero: %v", segs[1][2])
	}
	if CSplineSegments(pts[:1], 0) != nil {
		t.Error("single point produced segments")
	}

	b := lineBuilder()
	DrawCSpline(b, Solid(White), pts, 0, 4)
	if b.Len() != 10 {
		t.Errorf("spline vertices = %d, want 10", b.Len())
	}
}

func TestPaintShapes(t *testing.T) {
	tests := []struct {
		name    string
		draw    func(b *DrawBuilder[ColorVertex])
		verts   int
		indices int
	}{
		{"rect", func(b *DrawBuilder[ColorVertex]) { FillRect(b, Solid(White), Box(0, 0, 1, 1)) }, 4, 6},
		{"edge rect", func(b *DrawBuilder[ColorVertex]) { FillEdgeRect(b, Solid(White), Box(0, 0, 10, 10), 2) }, 8, 24},
		{"quad", func(b *DrawBuilder[ColorVertex]) {
			FillQuad(b, Solid(White), vec2{0, 0}, vec2{1, 0}, vec2{1, 1}, vec2{0, 1})
		}, 4, 6},
		{"convex", func(b *DrawBuilder[ColorVertex]) {
			FillConvex(b, Solid(White), []vec2{{0, 0}, {2, 0}, {3, 1}, {2, 2}, {0, 2}})
		}, 5, 9},
		{"degenerate convex", func(b *DrawBuilder[ColorVertex]) {
			FillConvex(b, Solid(White), []vec2{{0, 0}, {2, 0}})
		}, 0, 0},
		{"ellipse", func(b *DrawBuilder[ColorVertex]) { FillEllipse(b, Solid(White), Box(0, 0, 4, 4), 8) }, 9, 24},
		{"pie", func(b *DrawBuilder[ColorVertex]) { FillPie(b, Solid(White), Box(0, 0, 4, 4), 0, math.Pi, 4) }, 6, 12},
		{"ring", func(b *DrawBuilder[ColorVertex]) { FillRing(b, Solid(White), Box(0, 0, 4, 4), 1, 4) }, 8, 24},
		{"bezier fan", func(b *DrawBuilder[ColorVertex]) {
			FillBezier2(b, Solid(White), vec2{0, 0}, vec2{0, 1}, vec2{1, 1}, vec2{1, 0}, 4)
		}, 6, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := triBuilder()
			tt.draw(b)
			if b.Len() != tt.verts || len(b.Indices()) != tt.indices {
				t.Fatalf("%d vertices, %d indices; want %d, %d", b.Len(), len(b.Indices()), tt.verts, tt.indices)
			}
			for _, idx := range b.Indices() {
				if int(idx) >= b.Len() {
					t.Fatalf("index %d out of range", idx)
				}
			}
		})
	}
}

func TestPaintEllipseAndRingWrap(t *testing.T) {
	b := triBuilder()
	FillEllipse(b, Solid(White), Box(0, 0, 4, 4), 8)
	idx := b.Indices()
	if got := idx[len(idx)-3:]; !slices.Equal(got, []uint32{0, 8, 1}) {
		t.Errorf("last ellipse triangle = %v, want [0 8 1]", got)
	}
	if !near(b.Vertices()[0].Pos, vec2{2, 2}) {
		t.Errorf("center = %v", b.Vertices()[0].Pos)
	}

	r := triBuilder()
	FillRing(r, Solid(White), Box(0, 0, 4, 4), 1, 4)
	ridx := r.Indices()
	if got := ridx[len(ridx)-6:]; !slices.Equal(got, []uint32{6, 7, 0, 7, 0, 1}) {
		t.Errorf("last ring quad = %v", got)
	}
	if !near(r.Vertices()[1].Pos, vec2{3, 2}) {
		t.Errorf("inner rim vertex = %v, want (3, 2)", r.Vertices()[1].Pos)
	}
}

func TestRoundRect(t *testing.T) {
	box := Box(0, 0, 20, 10)

	t.Run("outline", func(t *testing.T) {
		b := lineBuilder()
		DrawRoundRect(b, Solid(White), box, 2, 3, 8)
		pts := positions(b)
		if len(pts) != 12 {
			t.Fatalf("vertices = %d, want 12", len(pts))
		}
		if len(b.Indices()) != 24 {
			t.Errorf("indices = %d, want a closed loop of 24", len(b.Indices()))
		}
		for _, want := range []vec2{{18, 0}, {20, 3}, {20, 7}, {18, 10}, {2, 10}, {0, 7}, {0, 3}, {2, 0}} {
			if !slices.ContainsFunc(pts, func(p vec2) bool { return near(p, want) }) {
				t.Errorf("outline misses corner tangent point %v", want)
			}
		}
	})

	t.Run("fill", func(t *testing.T) {
		b := triBuilder()
		FillRoundRect(b, Solid(White), box, 2, 2, 8)
		pts, idx := positions(b), b.Indices()
		if len(idx) != (len(pts)-2)*3 {
			t.Fatalf("indices = %d for %d vertices", len(idx), len(pts))
		}
		var area float64
		for i := 0; i < len(idx); i += 3 {
			area += triangleArea(pts[idx[i]], pts[idx[i+1]], pts[idx[i+2]])
		}
		if area >= 200 || area < 190 {
			t.Errorf("area = %v, want just under 200", area)
		}
	})

	t.Run("radii clamped", func(t *testing.T) {
		b := triBuilder()
		FillRoundRect(b, Solid(White), box, 100, 100, 8)
		for _, p := range positions(b) {
			if p[0] < -1e-3 || p[0] > 20+1e-3 || p[1] < -1e-3 || p[1] > 10+1e-3 {
				t.Fatalf("vertex %v outside %v", p, box)
			}
		}
	})

	t.Run("zero radius", func(t *testing.T) {
		lines, tris := lineBuilder(), triBuilder()
		DrawRoundRect(lines, Solid(White), box, 0, 2, 8)
		FillRoundRect(tris, Solid(White), box, 2, 0, 8)
		if lines.Len() != 4 || tris.Len() != 4 || len(tris.Indices()) != 6 {
			t.Errorf("plain rectangle fallback: %d line and %d fill vertices", lines.Len(), tris.Len())
		}
	})
}

func TestPaintEdgeRectInset(t *testing.T) {
	b := triBuilder()
	FillEdgeRect(b, Solid(White), Box(0, 0, 10, 10), 2)
	pts := positions(b)
	want := []vec2{{2, 2}, {8, 2}, {8, 8}, {2, 8}}
	if !slices.Equal(pts[4:], want) {
		t.Errorf("inner corners = %v, want %v", pts[4:], want)
	}
}

func triangleArea(a, b, c vec2) float64 {
	return math.Abs(float64(cross(a, b, c))) / 2
}

func TestTriangulateConcave(t *testing.T) {
	lshape := []vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	reversed := slices.Clone(lshape)
	slices.Reverse(reversed)

	for name, pts := range map[string][]vec2{"ccw": lshape, "cw": reversed} {
		t.Run(name, func(t *testing.T) {
			idx := Triangulate(pts)
			if len(idx) != 12 {
				t.Fatalf("indices = %v, want 4 triangles", idx)
			}
			var area float64
			for i := 0; i < len(idx); i += 3 {
				area += triangleArea(pts[idx[i]], pts[idx[i+1]], pts[idx[i+2]])
			}
			if math.Abs(area-3) > 1e-5 {
				t.Errorf("triangulated area = %v, want 3", area)
			}
		})
	}

	if Triangulate([]vec2{{0, 0}, {1, 1}}) != nil {
		t.Error("two points triangulated")
	}

	b := triBuilder()
	FillPolygon(b, Solid(White), lshape)
	if len(b.Indices()) != 12 {
		t.Errorf("FillPolygon indices = %d", len(b.Indices()))
	}
}

func TestTriangulateHoles(t *testing.T) {
	outer := []vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	hole := []vec2{{4, 4}, {4, 6}, {6, 6}, {6, 4}}

	pts, idx := TriangulateHoles(outer, hole)
	if len(pts) != 8 {
		t.Fatalf("points = %d, want 8", len(pts))
	}
	if len(idx)%3 != 0 || len(idx) == 0 {
		t.Fatalf("indices = %v", idx)
	}
	var area float64
	for i := 0; i < len(idx); i += 3 {
		area += triangleArea(pts[idx[i]], pts[idx[i+1]], pts[idx[i+2]])
	}
	if math.Abs(area-96) > 1e-3 {
		t.Errorf("triangulated area = %v, want 96", area)
	}

	if pts, idx := TriangulateHoles(outer[:2]); pts != nil || idx != nil {
		t.Error("degenerate outer ring triangulated")
	}

	b := triBuilder()
	FillPolygonHoles(b, Solid(White), outer, hole)
	if b.Len() != 8 || len(b.Indices()) != len(idx) {
		t.Errorf("FillPolygonHoles = %d vertices, %d indices", b.Len(), len(b.Indices()))
	}
}

func TestPolygonBounds(t *testing.T) {
	got := PolygonBounds([]vec2{{1, 1}, {7, 2}, {3, 4.5}, {-1, 4}})
	if got != Box(-1, 1, 7, 4.5) {
		t.Errorf("bounds = %v", got)
	}
}

func TestSpriteRect(t *testing.T) {
	b := NewDrawBuilder[TexturedVertex](TexturedLayout, PipelineState{}, nil)
	SpriteRect(b, TexturedSprite(Box(0, 0, 1, 1), White), Box(10, 20, 30, 40))

	v := b.Vertices()
	if len(v) != 4 || !slices.Equal(b.Indices(), quadIndices) {
		t.Fatalf("sprite = %d vertices, indices %v", len(v), b.Indices())
	}
	want := []struct{ pos, uv vec2 }{
		{vec2{10, 40}, vec2{0, 1}},
		{vec2{10, 20}, vec2{0, 0}},
		{vec2{30, 20}, vec2{1, 0}},
		{vec2{30, 40}, vec2{1, 1}},
	}
	for i, w := range want {
		if v[i].Pos != w.pos || v[i].UV != w.uv {
			t.Errorf("corner %d = %v %v, want %v %v", i, v[i].Pos, v[i].UV, w.pos, w.uv)
		}
	}
}

func TestSpriteQuad(t *testing.T) {
	b := NewDrawBuilder[TexturedVertex](TexturedLayout, PipelineState{}, nil)
	transform := mgl32.Mat3{
		50, 0, 0,
		0, -50, 0,
		100, 50, 1,
	}
	SpriteQuad(b, TexturedSprite(Box(0, 0, 1, 1), White), transform)

	want := []vec2{{100, 50}, {100, 0}, {150, 0}, {150, 50}}
	for i, v := range b.Vertices() {
		if !near(v.Pos, want[i]) {
			t.Errorf("corner %d = %v, want %v", i, v.Pos, want[i])
		}
	}
}
