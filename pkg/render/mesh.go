// Package render turns model space triangles into flat, GPU-ready buffers.
package render

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrTooManyIndices is returned when a mesh needs more indices than its
// index format can address.
var ErrTooManyIndices = errors.New("render: too many indices for index format")

// IndexFormat is the width of the index buffer.
type IndexFormat int

const (
	// IndexUint32 stores indices as 32-bit unsigned integers.
	IndexUint32 IndexFormat = iota
	// IndexUint16 stores indices as 16-bit unsigned integers.
	IndexUint16
)

// MaxIndices returns how many indices a buffer of this format may hold.
func (f IndexFormat) MaxIndices() uint64 {
	if f == IndexUint16 {
		return math.MaxUint16
	}
	return math.MaxUint32
}

func (f IndexFormat) String() string {
	switch f {
	case IndexUint16:
		return "uint16"
	case IndexUint32:
		return "uint32"
	default:
		return fmt.Sprintf("IndexFormat(%d)", int(f))
	}
}

// ParseIndexFormat parses "uint16" or "uint32". The empty string selects
// IndexUint32.
func ParseIndexFormat(s string) (IndexFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uint32", "u32":
		return IndexUint32, nil
	case "uint16", "u16":
		return IndexUint16, nil
	default:
		return 0, fmt.Errorf("render: unknown index format %q", s)
	}
}

// Mesh is a flat shaded triangle mesh suitable for rendering.
// All arrays are flat: Vertices has 3 floats per vertex (x,y,z),
// Normals has 3 floats per vertex, Indices has 3 entries per triangle.
// Vertices are not shared between triangles.
type Mesh struct {
	Vertices []float32   `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32   `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32    `json:"indices"`  // [i0,i1,i2, ...] triangles
	Format   IndexFormat `json:"-"`
	Name     string      `json:"name"` // which scene face this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Indices16 returns the index buffer narrowed to 16 bits. It fails if any
// index does not fit.
func (m *Mesh) Indices16() ([]uint16, error) {
	out := make([]uint16, len(m.Indices))
	for i, idx := range m.Indices {
		if idx > math.MaxUint16 {
			return nil, fmt.Errorf("%w: index %d", ErrTooManyIndices, idx)
		}
		out[i] = uint16(idx)
	}
	return out, nil
}
