// Package geom provides the scalar conventions, exact orientation
// predicates and the triangle primitive the rest of facet builds on.
// Points and vectors are github.com/golang/geo values: r2.Point in surface
// (parameter) space, r3.Vector in model space.
package geom

import (
	"cmp"
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Epsilon is the default scalar epsilon, the float64 machine epsilon.
const Epsilon = 2.220446049250313e-16

// ErrInvalidTolerance is returned for tolerances that are not strictly
// positive finite numbers.
var ErrInvalidTolerance = errors.New("geom: tolerance must be a positive finite number")

// Tolerance is the maximum allowed deviation between a curved surface and
// its polygonal approximation.
type Tolerance float64

// NewTolerance validates v and returns it as a Tolerance.
func NewTolerance(v float64) (Tolerance, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTolerance, v)
	}
	return Tolerance(v), nil
}

// Float64 returns the tolerance as a plain float64.
func (t Tolerance) Float64() float64 { return float64(t) }

// ComparePoint2 orders points lexicographically by X, then Y. The order has
// no geometric meaning; it exists for canonicalization and sorting only.
func ComparePoint2(a, b r2.Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

// ComparePoint3 orders points lexicographically by X, Y, then Z.
func ComparePoint3(a, b r3.Vector) int {
	return a.Cmp(b)
}

// IsFinite2 reports whether both coordinates of p are finite.
func IsFinite2(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
