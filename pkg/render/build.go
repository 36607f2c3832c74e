package render

import (
	"fmt"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/logging"
)

// Option configures FromTriangles.
type Option func(*options)

type options struct {
	format IndexFormat
	name   string
}

// WithIndexFormat selects the index buffer width. The default is
// IndexUint32.
func WithIndexFormat(f IndexFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithName sets the mesh name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// FromTriangles builds flat shaded buffers from model space triangles.
// Every triangle gets three vertices of its own carrying the face normal,
// and indices count up from zero. Degenerate triangles have no normal and
// are skipped.
//
// If the index count exceeds what the index format can address,
// FromTriangles returns ErrTooManyIndices without building anything.
func FromTriangles(triangles []geom.Triangle3, opts ...Option) (*Mesh, error) {
	o := options{format: IndexUint32}
	for _, opt := range opts {
		opt(&o)
	}

	valid := 0
	for _, t := range triangles {
		if t.IsValid() {
			valid++
		}
	}
	numIndices := uint64(valid) * 3
	if numIndices > o.format.MaxIndices() {
		return nil, fmt.Errorf("%w: %d indices, %s holds at most %d",
			ErrTooManyIndices, numIndices, o.format, o.format.MaxIndices())
	}
	if skipped := len(triangles) - valid; skipped > 0 {
		logging.Logger().Debug("render: skipped degenerate triangles",
			"mesh", o.name, "skipped", skipped)
	}

	vertices := make([]float32, 0, numIndices*3)
	normals := make([]float32, 0, numIndices*3)
	indices := make([]uint32, 0, numIndices)

	for _, tri := range triangles {
		if !tri.IsValid() {
			continue
		}
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for _, v := range tri.Points {
			indices = append(indices, uint32(len(vertices)/3))
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
		}
	}

	return &Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Format:   o.format,
		Name:     o.name,
	}, nil
}
