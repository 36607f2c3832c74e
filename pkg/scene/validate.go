package scene

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/surface"
)

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Face     string             // which face has the problem (empty if scene-level)
	Line     int                // source line of the face, if known
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Face == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] face %q: %s", e.Severity, e.Face, e.Message)
}

// HasErrors reports whether any finding is an error.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the scene and returns its findings in face order. An
// empty slice means the scene can be tessellated. Validate never mutates
// the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateTolerance(s)...)
	errs = append(errs, validateNames(s)...)
	for _, f := range s.Faces {
		errs = append(errs, validateFace(f, s.FaceTolerance(f))...)
	}
	return errs
}

func validateTolerance(s *Scene) []ValidationError {
	t := float64(s.Tolerance)
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return []ValidationError{{
			Message:  fmt.Sprintf("scene tolerance %v is not a non-negative finite number", t),
			Severity: SeverityError,
		}}
	}
	return nil
}

// validateNames checks that every face has a name and no name is used
// twice.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for i, f := range s.Faces {
		if f.Name == "" {
			errs = append(errs, ValidationError{
				Line:     f.Line,
				Message:  fmt.Sprintf("face %d has no name", i),
				Severity: SeverityError,
			})
			continue
		}
		if first, dup := seen[f.Name]; dup {
			errs = append(errs, ValidationError{
				Face:     f.Name,
				Line:     f.Line,
				Message:  fmt.Sprintf("name already used by face %d", first),
				Severity: SeverityError,
			})
			continue
		}
		seen[f.Name] = i
	}
	return errs
}

// concrete dereferences pointers to the known surface types so they are
// validated like values. A nil pointer yields nil.
func concrete(s surface.Surface) surface.Surface {
	switch p := s.(type) {
	case *surface.Plane:
		if p != nil {
			return *p
		}
		return nil
	case *surface.Cylinder:
		if p != nil {
			return *p
		}
		return nil
	case *surface.Sphere:
		if p != nil {
			return *p
		}
		return nil
	}
	return s
}

// validateFace checks f on its own; tol is the tolerance it will be meshed
// with.
func validateFace(f *Face, tol geom.Tolerance) []ValidationError {
	var errs []ValidationError
	add := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{
			Face:     f.Name,
			Line:     f.Line,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}

	sf := concrete(f.Surface)
	if sf == nil {
		add(SeverityError, "no surface")
	}

	t := float64(f.Tolerance)
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		add(SeverityError, "tolerance %v is not a non-negative finite number", t)
	}

	b := f.Bounds
	switch {
	case b.IsEmpty():
		add(SeverityError, "empty bounds %v", b)
	case !isFinite(b.X.Lo, b.X.Hi, b.Y.Lo, b.Y.Hi):
		add(SeverityError, "bounds %v are not finite", b)
	case b.X.Length() == 0 || b.Y.Length() == 0:
		add(SeverityWarning, "bounds %v have zero area and produce no triangles", b)
	}

	switch sf := sf.(type) {
	case surface.Cylinder:
		if sf.Radius <= 0 {
			add(SeverityError, "cylinder radius %v must be positive", sf.Radius)
		}
	case surface.Sphere:
		if sf.Radius <= 0 {
			add(SeverityError, "sphere radius %v must be positive", sf.Radius)
		}
		if b.Y.Lo < -math.Pi/2 || b.Y.Hi > math.Pi/2 {
			add(SeverityWarning, "latitude range %v extends past the poles", b.Y)
		}
	case surface.Plane:
		if sf.U.Cross(sf.V).Norm2() == 0 {
			add(SeverityWarning, "plane axes are parallel; all triangles are degenerate")
		}
	}

	if sf != nil && !HasErrors(errs) {
		if err := surface.CheckSamples(sf, b, tol); err != nil {
			add(SeverityError, "%v", err)
		}
	}
	return errs
}

func isFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
