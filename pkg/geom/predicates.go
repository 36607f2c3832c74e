package geom

import (
	"math"
	"math/big"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Error bounds for the floating-point filters, from Shewchuk's "Adaptive
// Precision Floating-Point Arithmetic and Fast Robust Geometric Predicates".
// halfEpsilon is the unit roundoff 2^-53.
const (
	halfEpsilon   = Epsilon / 2
	orientErrorA  = (3 + 16*halfEpsilon) * halfEpsilon
	inCircleError = (10 + 96*halfEpsilon) * halfEpsilon
)

// Orient2D returns the sign of the signed area of a, b, c: +1 if they are
// in counter-clockwise order, -1 if clockwise and 0 if exactly collinear.
// The sign is exact. Results that the float computation cannot decide are
// recomputed in arbitrary precision. Non-finite input yields 0.
func Orient2D(a, b, c r2.Point) int {
	left := (b.X - a.X) * (c.Y - a.Y)
	right := (b.Y - a.Y) * (c.X - a.X)
	det := left - right

	bound := orientErrorA * (math.Abs(left) + math.Abs(right))
	if det > bound || -det > bound {
		return sign(det)
	}
	return orient2DExact(a, b, c)
}

func orient2DExact(a, b, c r2.Point) int {
	if !IsFinite2(a) || !IsFinite2(b) || !IsFinite2(c) {
		return 0
	}
	pa := r3.NewPreciseVector(a.X, a.Y, 0)
	pb := r3.NewPreciseVector(b.X, b.Y, 0)
	pc := r3.NewPreciseVector(c.X, c.Y, 0)
	return pb.Sub(pa).Cross(pc.Sub(pa)).Z.Sign()
}

// InCircle reports where d lies relative to the circumcircle of the
// counter-clockwise triangle a, b, c: +1 strictly inside, -1 strictly
// outside, 0 exactly on the circle. For a clockwise triangle the sign is
// inverted. The sign is exact.
func InCircle(a, b, c, d r2.Point) int {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	bdxcdy, cdxbdy := bdx*cdy, cdx*bdy
	alift := adx*adx + ady*ady
	cdxady, adxcdy := cdx*ady, adx*cdy
	blift := bdx*bdx + bdy*bdy
	adxbdy, bdxady := adx*bdy, bdx*ady
	clift := cdx*cdx + cdy*cdy

	det := alift*(bdxcdy-cdxbdy) + blift*(cdxady-adxcdy) + clift*(adxbdy-bdxady)
	permanent := (math.Abs(bdxcdy)+math.Abs(cdxbdy))*alift +
		(math.Abs(cdxady)+math.Abs(adxcdy))*blift +
		(math.Abs(adxbdy)+math.Abs(bdxady))*clift

	bound := inCircleError * permanent
	if det > bound || -det > bound {
		return sign(det)
	}
	return inCircleExact(a, b, c, d)
}

func inCircleExact(a, b, c, d r2.Point) int {
	if !IsFinite2(a) || !IsFinite2(b) || !IsFinite2(c) || !IsFinite2(d) {
		return 0
	}
	la := lifted(a, d)
	lb := lifted(b, d)
	lc := lifted(c, d)
	return la.Dot(lb.Cross(lc)).Sign()
}

// lifted maps p onto the paraboloid z = x^2 + y^2 relative to origin o,
// exactly.
func lifted(p, o r2.Point) r3.PreciseVector {
	x := exactSub(p.X, o.X)
	y := exactSub(p.Y, o.Y)
	z := newExact().Add(newExact().Mul(x, x), newExact().Mul(y, y))
	return r3.PreciseVector{X: x, Y: y, Z: z}
}

func newExact() *big.Float {
	return new(big.Float).SetPrec(big.MaxPrec)
}

func exactSub(a, b float64) *big.Float {
	return newExact().Sub(newExact().SetFloat64(a), newExact().SetFloat64(b))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
