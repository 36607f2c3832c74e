// Package stl exports triangle meshes as binary STL files through sdfx.
package stl

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/geom"
	facetrender "github.com/chazu/facet/pkg/render"
)

func vec(x, y, z float64) v3.Vec {
	return v3.Vec{X: x, Y: y, Z: z}
}

// Triangles converts model space triangles to sdfx triangles. Degenerate
// triangles are dropped since STL stores a normal per facet.
func Triangles(triangles []geom.Triangle3) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(triangles))
	for _, t := range triangles {
		if !t.IsValid() {
			continue
		}
		var tri sdf.Triangle3
		for i, p := range t.Points {
			tri[i] = vec(p.X, p.Y, p.Z)
		}
		out = append(out, &tri)
	}
	return out
}

// MeshTriangles recovers the triangles of a render mesh.
func MeshTriangles(m *facetrender.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		var tri sdf.Triangle3
		for j := range 3 {
			k := int(m.Indices[i+j]) * 3
			tri[j] = vec(float64(m.Vertices[k]), float64(m.Vertices[k+1]), float64(m.Vertices[k+2]))
		}
		out = append(out, &tri)
	}
	return out
}

// Save writes triangles to path as a binary STL file.
func Save(path string, triangles []geom.Triangle3) error {
	return save(path, Triangles(triangles))
}

// SaveMeshes writes the triangles of all meshes to a single STL file.
func SaveMeshes(path string, meshes []*facetrender.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		tris = append(tris, MeshTriangles(m)...)
	}
	return save(path, tris)
}

func save(path string, tris []*sdf.Triangle3) error {
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("stl: save %s: %w", path, err)
	}
	return nil
}
