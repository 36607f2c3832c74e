package geom

import (
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// vector is the arithmetic shared by r2.Point and r3.Vector. The
// dimension-independent triangle operations are written once against it.
type vector[V any] interface {
	Add(V) V
	Sub(V) V
	Mul(float64) V
	Dot(V) float64
}

func center[V vector[V]](p [3]V) V {
	return p[0].Add(p[1]).Add(p[2]).Mul(1.0 / 3.0)
}

func fromBarycentric[V vector[V]](p [3]V, w [3]float64) V {
	return p[0].Mul(w[0]).Add(p[1].Mul(w[1])).Add(p[2].Mul(w[2]))
}

// toBarycentric follows Ericson, Real-Time Collision Detection, pp. 47-48.
// u is derived from v and w so the weights always sum to one.
func toBarycentric[V vector[V]](p [3]V, point V) [3]float64 {
	v0 := p[1].Sub(p[0])
	v1 := p[2].Sub(p[0])
	v2 := point.Sub(p[0])

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01

	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	u := 1 - v - w

	return [3]float64{u, v, w}
}

// Triangle2 is a triangle in surface (parameter) space. Degenerate
// triangles can be constructed; use IsValid or Winding to detect them.
type Triangle2 struct {
	Points [3]r2.Point
}

// NewTriangle2 returns the triangle a, b, c.
func NewTriangle2(a, b, c r2.Point) Triangle2 {
	return Triangle2{Points: [3]r2.Point{a, b, c}}
}

func (t Triangle2) outer() float64 {
	a, b, c := t.Points[0], t.Points[1], t.Points[2]
	return b.Sub(a).Cross(c.Sub(a))
}

// IsValid reports whether the triangle is non-degenerate. The magnitude of
// the outer product of the two edges leaving A is compared against Epsilon,
// so nearly collinear triangles count as invalid too.
func (t Triangle2) IsValid() bool {
	return math.Abs(t.outer()) > Epsilon
}

// Area returns the unsigned area.
func (t Triangle2) Area() float64 {
	return math.Abs(t.outer()) / 2
}

// Center returns the centroid.
func (t Triangle2) Center() r2.Point {
	return center(t.Points)
}

// PointFromBarycentricCoords returns w[0]*A + w[1]*B + w[2]*C. The weights
// are not normalized.
func (t Triangle2) PointFromBarycentricCoords(w [3]float64) r2.Point {
	return fromBarycentric(t.Points, w)
}

// PointToBarycentricCoords returns the barycentric weights of p. The
// weights always sum to one.
//
// The triangle must be valid; PointToBarycentricCoords panics otherwise.
func (t Triangle2) PointToBarycentricCoords(p r2.Point) [3]float64 {
	if !t.IsValid() {
		panic(fmt.Sprintf("geom: barycentric coordinates of degenerate triangle %v", t.Points))
	}
	return toBarycentric(t.Points, p)
}

// Normalize returns the triangle with its vertices sorted by ComparePoint2.
// Two triangles with the same vertex set normalize to the same value. The
// winding may change, so compute it before normalizing.
func (t Triangle2) Normalize() Triangle2 {
	slices.SortFunc(t.Points[:], ComparePoint2)
	return t
}

// Reverse returns the triangle with B and C swapped.
func (t Triangle2) Reverse() Triangle2 {
	t.Points[1], t.Points[2] = t.Points[2], t.Points[1]
	return t
}

// Winding returns the triangle's winding. The second result is false when
// the three points are exactly collinear or coincident. Unlike IsValid the
// decision uses the exact orientation predicate, so a tiny but non-zero
// triangle still has a winding.
func (t Triangle2) Winding() (Winding, bool) {
	switch Orient2D(t.Points[0], t.Points[1], t.Points[2]) {
	case 1:
		return CounterClockwise, true
	case -1:
		return Clockwise, true
	default:
		return 0, false
	}
}

// Triangle3 is a triangle in model space.
type Triangle3 struct {
	Points [3]r3.Vector
}

// NewTriangle3 returns the triangle a, b, c.
func NewTriangle3(a, b, c r3.Vector) Triangle3 {
	return Triangle3{Points: [3]r3.Vector{a, b, c}}
}

func (t Triangle3) outer() r3.Vector {
	a, b, c := t.Points[0], t.Points[1], t.Points[2]
	return b.Sub(a).Cross(c.Sub(a))
}

// IsValid reports whether the triangle is non-degenerate, using the same
// epsilon comparison as Triangle2.IsValid.
func (t Triangle3) IsValid() bool {
	return t.outer().Norm() > Epsilon
}

// Area returns the area.
func (t Triangle3) Area() float64 {
	return t.outer().Norm() / 2
}

// Center returns the centroid.
func (t Triangle3) Center() r3.Vector {
	return center(t.Points)
}

// PointFromBarycentricCoords returns w[0]*A + w[1]*B + w[2]*C.
func (t Triangle3) PointFromBarycentricCoords(w [3]float64) r3.Vector {
	return fromBarycentric(t.Points, w)
}

// PointToBarycentricCoords returns the barycentric weights of p projected
// into the triangle's plane. It panics if the triangle is not valid.
func (t Triangle3) PointToBarycentricCoords(p r3.Vector) [3]float64 {
	if !t.IsValid() {
		panic(fmt.Sprintf("geom: barycentric coordinates of degenerate triangle %v", t.Points))
	}
	return toBarycentric(t.Points, p)
}

// Normalize returns the triangle with its vertices sorted by ComparePoint3.
func (t Triangle3) Normalize() Triangle3 {
	slices.SortFunc(t.Points[:], ComparePoint3)
	return t
}

// Reverse returns the triangle with B and C swapped, flipping its normal.
func (t Triangle3) Reverse() Triangle3 {
	t.Points[1], t.Points[2] = t.Points[2], t.Points[1]
	return t
}

// Normal returns the unit normal of (B-A) x (C-A). A degenerate triangle
// has no normal; Normal panics if the triangle is not valid.
func (t Triangle3) Normal() r3.Vector {
	if !t.IsValid() {
		panic(fmt.Sprintf("geom: normal of degenerate triangle %v", t.Points))
	}
	return t.outer().Normalize()
}

// CastLocalRay intersects the ray origin + s*dir with the triangle and
// returns the parameter s of the hit, measured in multiples of dir. Hits
// beyond maxDistance or behind the origin are ignored. If solid is false
// only front faces are hit (dir pointing against Normal); if solid is true
// the triangle is treated as part of a closed boundary and hit from both
// sides.
func (t Triangle3) CastLocalRay(origin, dir r3.Vector, maxDistance float64, solid bool) (float64, bool) {
	a, b, c := t.Points[0], t.Points[1], t.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)

	h := dir.Cross(ac)
	det := ab.Dot(h)
	if math.Abs(det) <= Epsilon*ab.Norm()*ac.Norm()*dir.Norm() {
		// Parallel to the plane, degenerate triangle or zero direction.
		return 0, false
	}
	if !solid && det < 0 {
		return 0, false
	}

	inv := 1 / det
	s := origin.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(ab)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	toi := inv * ac.Dot(q)
	if toi < 0 || toi > maxDistance {
		return 0, false
	}
	return toi, true
}
