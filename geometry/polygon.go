// Package geometry provides the point in polygon test used for zone
// counting along with the box and polygon types it operates on.
//
// Points lying exactly on a polygon edge or vertex are counted as inside.
// This rule is applied before the ray cast so the result is stable for
// integer pixel coordinates regardless of vertex order.
package geometry

import (
	"errors"
	"math"
)

var (
	// ErrTooFewVertices is returned when a polygon has less than three
	// distinct vertices
	ErrTooFewVertices = errors.New("polygon needs at least 3 distinct vertices")
	// ErrNonFinite is returned when a vertex coordinate is NaN or Inf
	ErrNonFinite = errors.New("polygon vertex is not a finite number")
	// ErrDegenerate is returned when the polygon encloses no area
	ErrDegenerate = errors.New("polygon has zero area")
)

// Polygon is an ordered list of vertices.  The edge from the last vertex back
// to the first is implied.
type Polygon []Point

// Rect is an axis aligned bounding rectangle, inclusive of its edges
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies within or on the edge of the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Contains tests if point p is inside the closed polygon using a crossing
// number ray cast.  Points on an edge or vertex are inside, non finite points
// are never inside.
func Contains(poly Polygon, p Point) bool {

	if len(poly) < 3 || !p.Finite() {
		return false
	}

	if !poly.Bounds().Contains(p) {
		return false
	}

	inside := false

	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[j], poly[i]

		if onSegment(a, b, p) {
			return true
		}

		// edge straddles the horizontal ray cast to the right of p
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)

			if p.X < x {
				inside = !inside
			}
		}
	}

	return inside
}

// onSegment reports whether p lies on the line segment a-b
func onSegment(a, b, p Point) bool {

	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)

	if cross != 0 {
		return false
	}

	return p.X >= math.Min(a.X, b.X) && p.X <= math.Max(a.X, b.X) &&
		p.Y >= math.Min(a.Y, b.Y) && p.Y <= math.Max(a.Y, b.Y)
}

// Contains is the method form of Contains
func (p Polygon) Contains(pt Point) bool {
	return Contains(p, pt)
}

// Bounds returns the bounding rectangle of the polygon
func (p Polygon) Bounds() Rect {

	if len(p) == 0 {
		return Rect{}
	}

	r := Rect{Min: p[0], Max: p[0]}

	for _, v := range p[1:] {
		r.Min.X = math.Min(r.Min.X, v.X)
		r.Min.Y = math.Min(r.Min.Y, v.Y)
		r.Max.X = math.Max(r.Max.X, v.X)
		r.Max.Y = math.Max(r.Max.Y, v.Y)
	}

	return r
}

// Area returns the unsigned area of the polygon using the shoelace formula
func (p Polygon) Area() float64 {

	if len(p) < 3 {
		return 0
	}

	sum := 0.0

	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		sum += p[j].X*p[i].Y - p[i].X*p[j].Y
	}

	return math.Abs(sum) / 2
}

// Normalize returns a copy of the polygon with consecutive duplicate
// vertices removed, including a last vertex that repeats the first
func (p Polygon) Normalize() Polygon {

	out := make(Polygon, 0, len(p))

	for _, v := range p {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}

	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}

	return out
}

// Validate checks the polygon can be used as a zone
func (p Polygon) Validate() error {

	for _, v := range p {
		if !v.Finite() {
			return ErrNonFinite
		}
	}

	norm := p.Normalize()

	if len(norm) < 3 {
		return ErrTooFewVertices
	}

	if norm.Area() == 0 {
		return ErrDegenerate
	}

	return nil
}

// FromPairs builds a polygon from [x, y] pairs as found in zone configuration
func FromPairs(pairs [][2]float64) Polygon {

	poly := make(Polygon, len(pairs))

	for i, pr := range pairs {
		poly[i] = Point{X: pr[0], Y: pr[1]}
	}

	return poly
}
