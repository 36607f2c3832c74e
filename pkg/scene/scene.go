// Package scene defines the scene model produced by evaluating a scene
// description: an ordered list of named faces, each a rectangular region of
// a parametric surface. A scene is built once per evaluation and not
// mutated afterwards.
package scene

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/surface"
)

// DefaultTolerance is the approximation tolerance used for faces that do
// not set their own.
const DefaultTolerance geom.Tolerance = 0.01

// Face is a named region of a surface.
type Face struct {
	Name      string
	Surface   surface.Surface
	Bounds    r2.Rect
	Tolerance geom.Tolerance // zero selects the scene default
	Line      int            // source line that defined the face, if known
}

// Kind returns a short name for the face's surface type.
func (f *Face) Kind() string {
	switch f.Surface.(type) {
	case surface.Plane, *surface.Plane:
		return "plane"
	case surface.Cylinder, *surface.Cylinder:
		return "cylinder"
	case surface.Sphere, *surface.Sphere:
		return "sphere"
	case nil:
		return "none"
	default:
		return "surface"
	}
}

// Scene is an ordered collection of faces.
type Scene struct {
	Faces     []*Face
	NameIndex map[string]int
	Tolerance geom.Tolerance
}

// New creates an empty scene with the default tolerance.
func New() *Scene {
	return &Scene{
		NameIndex: make(map[string]int),
		Tolerance: DefaultTolerance,
	}
}

// Add appends a face. It does not check for duplicate names; the first face
// with a name wins lookups and Validate reports the duplicate.
func (s *Scene) Add(f *Face) {
	if _, dup := s.NameIndex[f.Name]; !dup && f.Name != "" {
		s.NameIndex[f.Name] = len(s.Faces)
	}
	s.Faces = append(s.Faces, f)
}

// Lookup returns the face with the given name, or nil.
func (s *Scene) Lookup(name string) *Face {
	i, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Faces[i]
}

// MustLookup returns the face with the given name, or panics.
func (s *Scene) MustLookup(name string) *Face {
	f := s.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("scene: no face named %q", name))
	}
	return f
}

// Len returns the number of faces.
func (s *Scene) Len() int {
	return len(s.Faces)
}

// FaceTolerance returns the tolerance to mesh f with.
func (s *Scene) FaceTolerance(f *Face) geom.Tolerance {
	if f.Tolerance > 0 {
		return f.Tolerance
	}
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}
