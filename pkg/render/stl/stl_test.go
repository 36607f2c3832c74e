package stl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/geom"
	facetrender "github.com/chazu/facet/pkg/render"
)

func v(x, y, z float64) r3.Vector { return r3.Vector{X: x, Y: y, Z: z} }

var testTriangles = []geom.Triangle3{
	geom.NewTriangle3(v(0, 0, 0), v(1, 0, 0), v(0, 1, 0)),
	geom.NewTriangle3(v(0, 0, 0), v(1, 0, 0), v(2, 0, 0)),
	geom.NewTriangle3(v(0, 0, 1), v(0, 1, 1), v(1, 0, 1)),
}

func TestTriangles(t *testing.T) {
	got := Triangles(testTriangles)
	if len(got) != 2 {
		t.Fatalf("got %d triangles, want 2", len(got))
	}
	if got[1][2].X != 1 || got[1][2].Z != 1 {
		t.Errorf("third vertex of second triangle = %v, want (1, 0, 1)", got[1][2])
	}
	n := got[0].Normal()
	if n.X != 0 || n.Y != 0 || n.Z != 1 {
		t.Errorf("normal = %v, want +Z", n)
	}
}

func TestMeshTriangles(t *testing.T) {
	m, err := facetrender.FromTriangles(testTriangles)
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	got := MeshTriangles(m)
	want := Triangles(testTriangles)
	if len(got) != len(want) {
		t.Fatalf("got %d triangles, want %d", len(got), len(want))
	}
	for i := range got {
		if *got[i] != *want[i] {
			t.Errorf("triangle %d = %v, want %v", i, *got[i], *want[i])
		}
	}
}

// Binary STL is an 80 byte header, a uint32 count and 50 bytes per facet.
func stlSize(n int) int64 { return 84 + 50*int64(n) }

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	if err := Save(path, testTriangles); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != stlSize(2) {
		t.Errorf("file size = %d, want %d", info.Size(), stlSize(2))
	}
}

func TestSaveMeshes(t *testing.T) {
	a, err := facetrender.FromTriangles(testTriangles[:1])
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	b, err := facetrender.FromTriangles(testTriangles[1:])
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "scene.stl")
	if err := SaveMeshes(path, []*facetrender.Mesh{a, b}); err != nil {
		t.Fatalf("SaveMeshes() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != stlSize(2) {
		t.Errorf("file size = %d, want %d", info.Size(), stlSize(2))
	}
}

func TestSaveBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "part.stl")
	if err := Save(path, testTriangles); err == nil {
		t.Error("expected error for unwritable path")
	}
}
