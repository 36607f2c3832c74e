// Package surface defines the parametric surfaces the mesh assembler
// triangulates. A surface maps surface coordinates (u, v) to model space and
// knows how densely it must be sampled to stay within a tolerance.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/geom"
)

// Surface is a parametric surface.
type Surface interface {
	// Approximate returns sample points inside or on the edge of boundary,
	// dense enough that the piecewise linear surface through them deviates
	// from the true surface by at most tolerance. The corners of boundary
	// are never included.
	Approximate(boundary r2.Rect, tolerance geom.Tolerance) []r2.Point

	// PointFromSurfaceCoords maps a point in surface coordinates to model
	// space.
	PointFromSurfaceCoords(p r2.Point) r3.Vector
}

// MaxSamples bounds the number of points a single Approximate call returns.
const MaxSamples = 1 << 18

// ErrTooManySamples is returned by CheckSamples when a boundary and
// tolerance would need more than MaxSamples points.
var ErrTooManySamples = errors.New("surface: too many samples")

// Sampler is implemented by surfaces whose sample count depends on the
// boundary and tolerance.
type Sampler interface {
	// SampleCount returns how many points Approximate needs to meet
	// tolerance over boundary, ignoring MaxSamples. It may be +Inf.
	SampleCount(boundary r2.Rect, tolerance geom.Tolerance) float64
}

// CheckSamples reports whether s can be approximated over boundary within
// tolerance using at most MaxSamples points. Surfaces that are not a
// Sampler always pass.
func CheckSamples(s Surface, boundary r2.Rect, tolerance geom.Tolerance) error {
	sm, ok := s.(Sampler)
	if !ok {
		return nil
	}
	if n := sm.SampleCount(boundary, tolerance); !(n <= MaxSamples) {
		return fmt.Errorf("%w: %.3g needed over %v at tolerance %v, limit %d",
			ErrTooManySamples, n, boundary, tolerance.Float64(), MaxSamples)
	}
	return nil
}

// Plane is the flat surface Origin + u*U + v*V.
type Plane struct {
	Origin r3.Vector
	U, V   r3.Vector
}

// NewPlane returns the plane through origin spanned by u and v.
func NewPlane(origin, u, v r3.Vector) Plane {
	return Plane{Origin: origin, U: u, V: v}
}

// Approximate returns nothing: the boundary corners describe a plane
// exactly.
func (p Plane) Approximate(r2.Rect, geom.Tolerance) []r2.Point {
	return nil
}

func (p Plane) PointFromSurfaceCoords(c r2.Point) r3.Vector {
	return p.Origin.Add(p.U.Mul(c.X)).Add(p.V.Mul(c.Y))
}

// Normal returns the unit normal U x V.
func (p Plane) Normal() r3.Vector {
	return p.U.Cross(p.V).Normalize()
}

// Cylinder is a circular cylinder. The u coordinate is the angle around
// Axis in radians, measured from Ref; v is the distance along Axis from
// Origin.
type Cylinder struct {
	Origin r3.Vector
	Axis   r3.Vector
	Ref    r3.Vector
	Radius float64
}

// NewCylinder returns a cylinder around axis through origin. The angle
// reference is an arbitrary direction perpendicular to the axis.
func NewCylinder(origin, axis r3.Vector, radius float64) Cylinder {
	axis = axis.Normalize()
	return Cylinder{
		Origin: origin,
		Axis:   axis,
		Ref:    axis.Ortho(),
		Radius: radius,
	}
}

// Approximate samples both v edges of the boundary at the angular step the
// tolerance allows. The surface is straight along v, so no samples are
// needed in between. Past MaxSamples the grid is coarsened.
func (c Cylinder) Approximate(boundary r2.Rect, tolerance geom.Tolerance) []r2.Point {
	if boundary.IsEmpty() || c.Radius <= 0 {
		return nil
	}
	nu, nv := gridSize(c.cells(boundary, tolerance))
	return grid(boundary, nu, nv)
}

// SampleCount implements Sampler.
func (c Cylinder) SampleCount(boundary r2.Rect, tolerance geom.Tolerance) float64 {
	if boundary.IsEmpty() || c.Radius <= 0 {
		return 0
	}
	return gridCount(c.cells(boundary, tolerance))
}

func (c Cylinder) cells(boundary r2.Rect, tolerance geom.Tolerance) (float64, float64) {
	return divisions(boundary.X.Length(), angularStep(c.Radius, tolerance)), 1
}

func (c Cylinder) PointFromSurfaceCoords(p r2.Point) r3.Vector {
	sin, cos := math.Sincos(p.X)
	side := c.Axis.Cross(c.Ref)
	radial := c.Ref.Mul(cos).Add(side.Mul(sin))
	return c.Origin.Add(radial.Mul(c.Radius)).Add(c.Axis.Mul(p.Y))
}

// Sphere is a sphere parameterized by longitude u and latitude v, both in
// radians. Latitude runs from -pi/2 at the south pole to pi/2 at the north
// pole.
type Sphere struct {
	Center r3.Vector
	Radius float64
}

// NewSphere returns the sphere of the given radius around center.
func NewSphere(center r3.Vector, radius float64) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// Approximate samples a regular grid over the boundary. The angular step
// bounds the deviation along both parameter directions. Past MaxSamples
// the grid is coarsened.
func (s Sphere) Approximate(boundary r2.Rect, tolerance geom.Tolerance) []r2.Point {
	if boundary.IsEmpty() || s.Radius <= 0 {
		return nil
	}
	nu, nv := gridSize(s.cells(boundary, tolerance))
	return grid(boundary, nu, nv)
}

// SampleCount implements Sampler.
func (s Sphere) SampleCount(boundary r2.Rect, tolerance geom.Tolerance) float64 {
	if boundary.IsEmpty() || s.Radius <= 0 {
		return 0
	}
	return gridCount(s.cells(boundary, tolerance))
}

func (s Sphere) cells(boundary r2.Rect, tolerance geom.Tolerance) (float64, float64) {
	step := angularStep(s.Radius, tolerance)
	return divisions(boundary.X.Length(), step), divisions(boundary.Y.Length(), step)
}

func (s Sphere) PointFromSurfaceCoords(p r2.Point) r3.Vector {
	sinU, cosU := math.Sincos(p.X)
	sinV, cosV := math.Sincos(p.Y)
	return s.Center.Add(r3.Vector{X: cosV * cosU, Y: cosV * sinU, Z: sinV}.Mul(s.Radius))
}

// maxSegments caps the number of segments per turn for tolerances far
// below the radius.
const maxSegments = 1 << 16

// angularStep returns the largest angle, dividing a full turn evenly, whose
// chord on a circle of radius r stays within tolerance of the arc. At
// least three segments make up a turn.
func angularStep(r float64, tolerance geom.Tolerance) float64 {
	x := 1 - tolerance.Float64()/r
	n := 3.0
	if x > -1 {
		if a := math.Acos(min(x, 1)); a > 0 {
			n = max(n, min(math.Ceil(math.Pi/a), maxSegments))
		} else {
			n = maxSegments
		}
	}
	return 2 * math.Pi / n
}

// divisions returns how many equal steps of at most step cover length. The
// count is a float so huge ranges do not overflow; it may be +Inf.
func divisions(length, step float64) float64 {
	if !(length > 0) || !(step > 0) {
		return 1
	}
	return max(1, math.Ceil(length/step-1e-9))
}

// gridCount returns the number of points grid produces for nu x nv cells.
func gridCount(nu, nv float64) float64 {
	return (nu+1)*(nv+1) - 4
}

// gridSize converts division counts to ints, halving the larger one until
// the grid holds at most MaxSamples points.
func gridSize(nu, nv float64) (int, int) {
	nu, nv = min(nu, MaxSamples), min(nv, MaxSamples)
	for gridCount(nu, nv) > MaxSamples {
		if nu >= nv {
			nu = math.Ceil(nu / 2)
		} else {
			nv = math.Ceil(nv / 2)
		}
	}
	return int(nu), int(nv)
}

// grid returns the nu x nv grid over boundary, including its edges but
// without the four corners, ordered by u then v.
func grid(boundary r2.Rect, nu, nv int) []r2.Point {
	lo, size := boundary.Lo(), boundary.Size()
	var pts []r2.Point
	for i := 0; i <= nu; i++ {
		u := lo.X + size.X*float64(i)/float64(nu)
		if i == nu {
			u = boundary.X.Hi
		}
		for j := 0; j <= nv; j++ {
			if (i == 0 || i == nu) && (j == 0 || j == nv) {
				continue
			}
			v := lo.Y + size.Y*float64(j)/float64(nv)
			if j == nv {
				v = boundary.Y.Hi
			}
			pts = append(pts, r2.Point{X: u, Y: v})
		}
	}
	return pts
}
