package d2

// Bezier2 evaluates a quadratic Bézier curve at t in [0, 1].
func Bezier2(t float32, p1, p2, p3 vec2) vec2 {
	u := 1 - t
	a, b, c := u*u, 2*u*t, t*t
	return vec2{
		a*p1[0] + b*p2[0] + c*p3[0],
		a*p1[1] + b*p2[1] + c*p3[1],
	}
}

// Bezier3 evaluates a cubic Bézier curve at t in [0, 1].
func Bezier3(t float32, p1, p2, p3, p4 vec2) vec2 {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return vec2{
		a*p1[0] + b*p2[0] + c*p3[0] + d*p4[0],
		a*p1[1] + b*p2[1] + c*p3[1] + d*p4[1],
	}
}

// CSplineSegments converts a cardinal spline through pts into cubic Bézier
// control points, one [4]vec2 per segment. Tension 0 gives a Catmull-Rom
// spline; the curve starts and ends with zero velocity.
func CSplineSegments(pts []vec2, tension float32) [][4]vec2 {
	if len(pts) < 2 {
		return nil
	}
	out := make([][4]vec2, 0, len(pts)-1)
	tension = (1 - tension) * 0.5
	var u vec2
	for i := 0; i < len(pts)-1; i++ {
		var v vec2
		if i < len(pts)-2 {
			v = pts[i+2].Sub(pts[i]).Mul(tension)
		}
		out = append(out, [4]vec2{
			pts[i],
			pts[i].Add(u.Mul(1.0 / 3.0)),
			pts[i+1].Sub(v.Mul(1.0 / 3.0)),
			pts[i+1],
		})
		u = v
	}
	return out
}
