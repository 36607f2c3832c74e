// Package mesh assembles triangle meshes of parametric surfaces. Every mesh
// point carries both its surface coordinates and its position in model
// space, so a mesh can be inspected in either.
package mesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/delaunay"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/logging"
	"github.com/chazu/facet/pkg/surface"
)

// ErrEmptyBoundary is returned when the boundary rectangle is empty.
var ErrEmptyBoundary = errors.New("mesh: empty boundary")

// TriangulationPoint is a point of a surface mesh.
type TriangulationPoint struct {
	// PointSurface is the position in surface coordinates.
	PointSurface r2.Point
	// PointGlobal is the position in model space.
	PointGlobal r3.Vector
}

// TriangulationPointFromSurfacePoint maps p through s.
func TriangulationPointFromSurfacePoint(p r2.Point, s surface.Surface) TriangulationPoint {
	return TriangulationPoint{
		PointSurface: p,
		PointGlobal:  s.PointFromSurfaceCoords(p),
	}
}

// MeshTriangle is a triangle of a surface mesh. Its points are
// counter-clockwise in surface coordinates.
type MeshTriangle struct {
	Points [3]TriangulationPoint
}

// Surface returns the triangle in surface coordinates.
func (t MeshTriangle) Surface() geom.Triangle2 {
	return geom.NewTriangle2(t.Points[0].PointSurface, t.Points[1].PointSurface, t.Points[2].PointSurface)
}

// Global returns the triangle in model space.
func (t MeshTriangle) Global() geom.Triangle3 {
	return geom.NewTriangle3(t.Points[0].PointGlobal, t.Points[1].PointGlobal, t.Points[2].PointGlobal)
}

// SurfaceMesh is the triangulation of a rectangular region of a surface.
type SurfaceMesh struct {
	// Points are the samples the surface produced, without the synthetic
	// corner points that bound the triangulation.
	Points []TriangulationPoint

	// Triangles cover the whole boundary rectangle.
	Triangles []MeshTriangle
}

// GlobalTriangles returns every triangle in model space.
func (m *SurfaceMesh) GlobalTriangles() []geom.Triangle3 {
	out := make([]geom.Triangle3, len(m.Triangles))
	for i, t := range m.Triangles {
		out[i] = t.Global()
	}
	return out
}

// FromSurface triangulates the part of s inside boundary. The tolerance is
// passed to the surface's approximation unchanged. The corners of boundary
// are added to the samples so the triangulation covers the rectangle; opts
// configure that triangulation. A surface that would need more than
// surface.MaxSamples samples is rejected with surface.ErrTooManySamples.
func FromSurface(s surface.Surface, boundary r2.Rect, tolerance geom.Tolerance, opts ...delaunay.Option) (*SurfaceMesh, error) {
	return FromSurfaceContext(context.Background(), s, boundary, tolerance, opts...)
}

// FromSurfaceContext is FromSurface with a context that aborts the
// triangulation.
func FromSurfaceContext(ctx context.Context, s surface.Surface, boundary r2.Rect, tolerance geom.Tolerance, opts ...delaunay.Option) (*SurfaceMesh, error) {
	if boundary.IsEmpty() {
		return nil, ErrEmptyBoundary
	}
	if err := surface.CheckSamples(s, boundary, tolerance); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	samples := s.Approximate(boundary, tolerance)
	interior := make([]TriangulationPoint, len(samples))
	for i, p := range samples {
		interior[i] = TriangulationPointFromSurfacePoint(p, s)
	}

	lo, hi := boundary.Lo(), boundary.Hi()
	corners := [4]r2.Point{
		{X: lo.X, Y: lo.Y},
		{X: lo.X, Y: hi.Y},
		{X: hi.X, Y: lo.Y},
		{X: hi.X, Y: hi.Y},
	}

	all := make([]TriangulationPoint, 0, len(interior)+len(corners))
	all = append(all, interior...)
	for _, c := range corners {
		all = append(all, TriangulationPointFromSurfacePoint(c, s))
	}

	coords := make([]r2.Point, len(all))
	for i, p := range all {
		coords[i] = p.PointSurface
	}
	tr, err := delaunay.TriangulateContext(ctx, coords, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("mesh: triangulate %d points: %w", len(coords), err)
	}

	triangles := make([]MeshTriangle, len(tr.Triangles))
	for i, t := range tr.Triangles {
		triangles[i] = MeshTriangle{Points: [3]TriangulationPoint{all[t[0]], all[t[1]], all[t[2]]}}
	}

	logging.Logger().Debug("mesh: assembled surface mesh",
		"boundary", boundary,
		"samples", len(interior),
		"triangles", len(triangles))

	return &SurfaceMesh{
		Points:    interior,
		Triangles: triangles,
	}, nil
}
