package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/scene"
	"github.com/chazu/facet/pkg/surface"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec2 struct {
	p r2.Point
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.p.X, v.p.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	v r3.Vector
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.v.X, v.v.Y, v.v.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpRect struct {
	r r2.Rect
}

func (r *sexpRect) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(aabb (vec2 %g %g) (vec2 %g %g))", r.r.X.Lo, r.r.Y.Lo, r.r.X.Hi, r.r.Y.Hi)
}
func (r *sexpRect) Type() *zygo.RegisteredType { return nil }

// sexpSurface wraps a surface returned by plane, cylinder or sphere.
type sexpSurface struct {
	kind string
	s    surface.Surface
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	return "(" + s.kind + ")"
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

// sexpFace is what face returns: a handle on a face already in the scene.
type sexpFace struct {
	name string
}

func (f *sexpFace) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(face %q)", f.name)
}
func (f *sexpFace) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// trailing keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// check returns an error naming the first keyword in pa that is not in
// allowed.
func (pa kwArgs) check(fn string, allowed ...string) error {
	for _, name := range slices.Sorted(maps.Keys(pa.kw)) {
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("%s: unknown keyword :%s", fn, name)
		}
	}
	return nil
}

// vec3Or returns the keyword's vector, or def when the keyword is absent.
func (pa kwArgs) vec3Or(fn, key string, def r3.Vector) (r3.Vector, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return r3.Vector{}, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return vec, nil
}

// number returns the keyword's number, and whether it was present.
func (pa kwArgs) number(fn, key string) (float64, bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return 0, false, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, true, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec2(s zygo.Sexp) (r2.Point, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.p, nil
	}
	return r2.Point{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (r3.Vector, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.v, nil
	}
	return r3.Vector{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toRect(s zygo.Sexp) (r2.Rect, error) {
	if r, ok := s.(*sexpRect); ok {
		return r.r, nil
	}
	return r2.Rect{}, fmt.Errorf("expected aabb, got %T (%s)", s, s.SexpString(nil))
}

func toSurface(s zygo.Sexp) (surface.Surface, error) {
	if v, ok := s.(*sexpSurface); ok {
		return v.s, nil
	}
	return nil, fmt.Errorf("expected surface (plane, cylinder or sphere), got %T (%s)", s, s.SexpString(nil))
}

// numbers converts every arg to a float64.
func numbers(fn string, args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into a zygomys environment.
// Faces are added to sc as they are evaluated.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene) {

	// (vec2 u v)
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		n, err := numbers("vec2", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec2{p: r2.Point{X: n[0], Y: n[1]}}, nil
	})

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		n, err := numbers("vec3", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{v: r3.Vector{X: n[0], Y: n[1], Z: n[2]}}, nil
	})

	// (aabb (vec2 u0 v0) (vec2 u1 v1)) or (aabb u0 v0 u1 v1)
	//
	// The corners may be given in any order.
	env.AddFunction("aabb", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		switch len(args) {
		case 2:
			a, err := toVec2(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("aabb: first corner: %w", err)
			}
			b, err := toVec2(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("aabb: second corner: %w", err)
			}
			return &sexpRect{r: r2.RectFromPoints(a, b)}, nil
		case 4:
			n, err := numbers("aabb", args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpRect{r: r2.RectFromPoints(r2.Point{X: n[0], Y: n[1]}, r2.Point{X: n[2], Y: n[3]})}, nil
		}
		return zygo.SexpNull, fmt.Errorf("aabb requires 2 corners or 4 numbers, got %d arguments", len(args))
	})

	// (plane :origin (vec3 0 0 0) :u (vec3 1 0 0) :v (vec3 0 1 0))
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("plane", "origin", "u", "v"); err != nil {
			return zygo.SexpNull, err
		}
		origin, err := pa.vec3Or("plane", "origin", r3.Vector{})
		if err != nil {
			return zygo.SexpNull, err
		}
		u, err := pa.vec3Or("plane", "u", r3.Vector{X: 1})
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.vec3Or("plane", "v", r3.Vector{Y: 1})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSurface{kind: "plane", s: surface.NewPlane(origin, u, v)}, nil
	})

	// (cylinder :origin (vec3 0 0 0) :axis (vec3 0 0 1) :radius 5)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("cylinder", "origin", "axis", "radius"); err != nil {
			return zygo.SexpNull, err
		}
		origin, err := pa.vec3Or("cylinder", "origin", r3.Vector{})
		if err != nil {
			return zygo.SexpNull, err
		}
		axis, err := pa.vec3Or("cylinder", "axis", r3.Vector{Z: 1})
		if err != nil {
			return zygo.SexpNull, err
		}
		if axis.Norm2() == 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: axis must be non-zero")
		}
		radius, ok, err := pa.number("cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder: missing :radius")
		}
		return &sexpSurface{kind: "cylinder", s: surface.NewCylinder(origin, axis, radius)}, nil
	})

	// (sphere :center (vec3 0 0 0) :radius 5)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("sphere", "center", "radius"); err != nil {
			return zygo.SexpNull, err
		}
		center, err := pa.vec3Or("sphere", "center", r3.Vector{})
		if err != nil {
			return zygo.SexpNull, err
		}
		radius, ok, err := pa.number("sphere", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("sphere: missing :radius")
		}
		return &sexpSurface{kind: "sphere", s: surface.NewSphere(center, radius)}, nil
	})

	// (face "name" (plane ...) :bounds (aabb ...) :tolerance 0.01)
	//
	// The bounds may also be given as the third positional argument.
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check("face", "bounds", "tolerance"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("face requires a name and a surface")
		}

		faceName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: name: %w", err)
		}
		s, err := toSurface(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face %q: %w", faceName, err)
		}

		boundsArg, ok := pa.kw["bounds"]
		if !ok && len(pa.positional) > 2 {
			boundsArg, ok = pa.positional[2], true
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("face %q: missing :bounds", faceName)
		}
		bounds, err := toRect(boundsArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face %q: bounds: %w", faceName, err)
		}

		f := &scene.Face{Name: faceName, Surface: s, Bounds: bounds}
		tol, ok, err := pa.number("face", "tolerance")
		if err != nil {
			return zygo.SexpNull, err
		}
		if ok {
			f.Tolerance = geom.Tolerance(tol)
		}

		sc.Add(f)
		return &sexpFace{name: faceName}, nil
	})

	// (tolerance 0.005) sets the scene default; (tolerance) reads it.
	env.AddFunction("tolerance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		switch len(args) {
		case 0:
		case 1:
			f, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tolerance: %w", err)
			}
			sc.Tolerance = geom.Tolerance(f)
		default:
			return zygo.SexpNull, fmt.Errorf("tolerance takes at most 1 argument, got %d", len(args))
		}
		return &zygo.SexpFloat{Val: sc.Tolerance.Float64()}, nil
	})
}
