package geometry

import "math"

// RectCorners returns the corners of a w x h rectangle anchored at the
// origin, in image order (top-left, top-right, bottom-right, bottom-left).
func RectCorners(w, h float64) []Point2D {
	return []Point2D{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// SignedArea returns the shoelace area of a polygon. The sign follows the
// vertex winding.
func SignedArea(poly []Point2D) float64 {
	var a float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// Area returns the unsigned polygon area.
func Area(poly []Point2D) float64 {
	return math.Abs(SignedArea(poly))
}

// IsConvex reports whether the simple polygon turns the same way at every
// vertex. Collinear vertices are allowed.
func IsConvex(poly []Point2D) bool {
	if len(poly) < 3 {
		return false
	}
	var sign float64
	n := len(poly)
	for i := range poly {
		c := cross(poly[i], poly[(i+1)%n], poly[(i+2)%n])
		if c == 0 {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, c)
		} else if math.Copysign(1, c) != sign {
			return false
		}
	}
	return sign != 0
}

// ClipConvex returns the part of subject inside the convex polygon clip
// (Sutherland-Hodgman). Either winding is accepted for clip. Returns nil
// when the intersection is empty.
func ClipConvex(subject, clip []Point2D) []Point2D {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}
	orient := math.Copysign(1, SignedArea(clip))
	inside := func(p, a, b Point2D) bool {
		return cross(a, b, p)*orient >= 0
	}

	out := append([]Point2D(nil), subject...)
	for i := range clip {
		a, b := clip[i], clip[(i+1)%len(clip)]
		in := out
		out = nil
		for j, cur := range in {
			prev := in[(j+len(in)-1)%len(in)]
			curIn, prevIn := inside(cur, a, b), inside(prev, a, b)
			if curIn != prevIn {
				if x, ok := intersect(prev, cur, a, b); ok {
					out = append(out, x)
				}
			}
			if curIn {
				out = append(out, cur)
			}
		}
		if len(out) == 0 {
			return nil
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// OverlapFraction returns the intersection area of two convex polygons
// divided by the smaller of their areas.
func OverlapFraction(a, b []Point2D) float64 {
	smaller := math.Min(Area(a), Area(b))
	if smaller == 0 {
		return 0
	}
	return Area(ClipConvex(a, b)) / smaller
}

// cross is the z component of (a-o) x (b-o).
func cross(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// intersect returns where segment p1-p2 crosses the infinite line a-b.
func intersect(p1, p2, a, b Point2D) (Point2D, bool) {
	d1x, d1y := p2.X-p1.X, p2.Y-p1.Y
	d2x, d2y := b.X-a.X, b.Y-a.Y
	den := d1x*d2y - d1y*d2x
	if math.Abs(den) < 1e-12 {
		return Point2D{}, false
	}
	t := ((a.X-p1.X)*d2y - (a.Y-p1.Y)*d2x) / den
	return Point2D{X: p1.X + t*d1x, Y: p1.Y + t*d1y}, true
}
