package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/surface"
)

func rect(u0, v0, u1, v1 float64) r2.Rect {
	return r2.Rect{X: r1.Interval{Lo: u0, Hi: u1}, Y: r1.Interval{Lo: v0, Hi: v1}}
}

var (
	floor = surface.NewPlane(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
	pipe  = surface.NewCylinder(r3.Vector{}, r3.Vector{Z: 1}, 2)
	ball  = surface.NewSphere(r3.Vector{}, 1)
)

// buildScene creates a valid three-face scene.
func buildScene() *Scene {
	s := New()
	s.Add(&Face{Name: "floor", Surface: floor, Bounds: rect(0, 0, 4, 4)})
	s.Add(&Face{Name: "pipe", Surface: pipe, Bounds: rect(0, 0, 2*math.Pi, 3), Tolerance: 0.001})
	s.Add(&Face{Name: "ball", Surface: ball, Bounds: rect(0, -math.Pi/2, 2*math.Pi, math.Pi/2)})
	return s
}

func TestSceneLookup(t *testing.T) {
	s := buildScene()
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if f := s.Lookup("pipe"); f == nil || f.Surface != surface.Surface(pipe) {
		t.Errorf("Lookup(pipe) = %v", f)
	}
	if f := s.Lookup("missing"); f != nil {
		t.Errorf("Lookup(missing) = %v, want nil", f)
	}
}

func TestSceneMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New().MustLookup("nope")
}

func TestSceneAddKeepsFirstName(t *testing.T) {
	s := New()
	first := &Face{Name: "a", Surface: floor, Bounds: rect(0, 0, 1, 1)}
	s.Add(first)
	s.Add(&Face{Name: "a", Surface: ball, Bounds: rect(0, 0, 1, 1)})
	if s.Lookup("a") != first {
		t.Error("Lookup returned the later duplicate")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestFaceTolerance(t *testing.T) {
	s := buildScene()
	if got := s.FaceTolerance(s.MustLookup("floor")); got != DefaultTolerance {
		t.Errorf("floor tolerance = %v, want default %v", got, DefaultTolerance)
	}
	if got := s.FaceTolerance(s.MustLookup("pipe")); got != 0.001 {
		t.Errorf("pipe tolerance = %v, want 0.001", got)
	}
	s.Tolerance = 0.5
	if got := s.FaceTolerance(s.MustLookup("floor")); got != 0.5 {
		t.Errorf("floor tolerance = %v, want scene tolerance 0.5", got)
	}
}

func TestFaceKind(t *testing.T) {
	tests := []struct {
		surface surface.Surface
		want    string
	}{
		{floor, "plane"},
		{&pipe, "cylinder"},
		{ball, "sphere"},
		{nil, "none"},
	}
	for _, tt := range tests {
		if got := (&Face{Surface: tt.surface}).Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidateValidScene(t *testing.T) {
	if errs := Validate(buildScene()); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no findings", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		face     *Face
		severity ValidationSeverity
		contains string
	}{
		{"no surface", &Face{Name: "x", Bounds: rect(0, 0, 1, 1)}, SeverityError, "no surface"},
		{"empty bounds", &Face{Name: "x", Surface: floor, Bounds: r2.EmptyRect()}, SeverityError, "empty bounds"},
		{"infinite bounds", &Face{Name: "x", Surface: floor, Bounds: rect(0, 0, math.Inf(1), 1)}, SeverityError, "not finite"},
		{"flat bounds", &Face{Name: "x", Surface: floor, Bounds: rect(0, 0, 1, 0)}, SeverityWarning, "zero area"},
		{"negative tolerance", &Face{Name: "x", Surface: floor, Bounds: rect(0, 0, 1, 1), Tolerance: -1}, SeverityError, "tolerance"},
		{"bad radius", &Face{Name: "x", Surface: surface.NewSphere(r3.Vector{}, 0), Bounds: rect(0, 0, 1, 1)}, SeverityError, "radius"},
		{"past pole", &Face{Name: "x", Surface: ball, Bounds: rect(0, 0, 1, 2)}, SeverityWarning, "poles"},
		{"parallel axes", &Face{Name: "x", Surface: surface.NewPlane(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2}), Bounds: rect(0, 0, 1, 1)}, SeverityWarning, "parallel"},
		{"unnamed", &Face{Surface: floor, Bounds: rect(0, 0, 1, 1)}, SeverityError, "no name"},
		{"pointer bad radius", &Face{Name: "x", Surface: &surface.Cylinder{Radius: -1}, Bounds: rect(0, 0, 1, 1)}, SeverityError, "radius"},
		{"pointer past pole", &Face{Name: "x", Surface: &surface.Sphere{Radius: 1}, Bounds: rect(0, 0, 1, 2)}, SeverityWarning, "poles"},
		{"pointer parallel axes", &Face{Name: "x", Surface: &surface.Plane{U: r3.Vector{Y: 1}, V: r3.Vector{Y: -1}}, Bounds: rect(0, 0, 1, 1)}, SeverityWarning, "parallel"},
		{"nil pointer surface", &Face{Name: "x", Surface: (*surface.Sphere)(nil), Bounds: rect(0, 0, 1, 1)}, SeverityError, "no surface"},
		{"too many samples", &Face{Name: "x", Surface: ball, Bounds: rect(0, -math.Pi/2, 2*math.Pi, math.Pi/2), Tolerance: 1e-12}, SeverityError, "too many samples"},
		{"huge range", &Face{Name: "x", Surface: pipe, Bounds: rect(0, 0, 1e300, 1)}, SeverityError, "too many samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Add(tt.face)
			errs := Validate(s)
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one finding", errs)
			}
			if errs[0].Severity != tt.severity {
				t.Errorf("severity = %v, want %v", errs[0].Severity, tt.severity)
			}
			if !strings.Contains(errs[0].Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", errs[0].Error(), tt.contains)
			}
			if HasErrors(errs) != (tt.severity == SeverityError) {
				t.Errorf("HasErrors() = %v", HasErrors(errs))
			}
		})
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	s := buildScene()
	s.Add(&Face{Name: "floor", Surface: floor, Bounds: rect(0, 0, 1, 1), Line: 7})
	errs := Validate(s)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want one finding", errs)
	}
	if errs[0].Face != "floor" || errs[0].Line != 7 {
		t.Errorf("finding = %+v, want face floor at line 7", errs[0])
	}
}

func TestValidateSceneTolerance(t *testing.T) {
	s := buildScene()
	s.Tolerance = geom.Tolerance(math.NaN())
	errs := Validate(s)
	if !HasErrors(errs) || errs[0].Face != "" {
		t.Errorf("Validate() = %v, want a scene-level error", errs)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Face: "lid", Message: "bad", Severity: SeverityWarning}
	if got := e.Error(); got != `[warning] face "lid": bad` {
		t.Errorf("Error() = %q", got)
	}
	e.Face = ""
	if got := e.Error(); got != "[warning] bad" {
		t.Errorf("Error() = %q", got)
	}
	if got := ValidationSeverity(9).String(); got != "ValidationSeverity(9)" {
		t.Errorf("String() = %q", got)
	}
}
