package tessellate_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/chazu/facet/pkg/delaunay"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/render"
	"github.com/chazu/facet/pkg/scene"
	"github.com/chazu/facet/pkg/surface"
	"github.com/chazu/facet/pkg/tessellate"
)

func rect(u0, v0, u1, v1 float64) r2.Rect {
	return r2.Rect{X: r1.Interval{Lo: u0, Hi: u1}, Y: r1.Interval{Lo: v0, Hi: v1}}
}

func unitPlane() surface.Plane {
	return surface.NewPlane(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
}

// newScene builds a scene with a plane, a cylinder and a sphere.
func newScene() *scene.Scene {
	sc := scene.New()
	sc.Add(&scene.Face{Name: "floor", Surface: unitPlane(), Bounds: rect(0, 0, 2, 3)})
	sc.Add(&scene.Face{
		Name:    "pipe",
		Surface: surface.NewCylinder(r3.Vector{}, r3.Vector{Z: 1}, 1),
		Bounds:  rect(0, 0, 2*math.Pi, 2),
	})
	sc.Add(&scene.Face{
		Name:      "ball",
		Surface:   surface.NewSphere(r3.Vector{X: 5}, 1),
		Bounds:    rect(0, -math.Pi/2, 2*math.Pi, math.Pi/2),
		Tolerance: 0.1,
	})
	return sc
}

func TestTessellateNilScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meshes != nil {
		t.Errorf("expected nil meshes, got %d", len(meshes))
	}
}

func TestTessellateEmptyScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(context.Background(), scene.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(meshes))
	}
}

func TestTessellateFaceOrder(t *testing.T) {
	sc := newScene()
	for _, workers := range []int{1, 2, 8} {
		meshes, err := tessellate.Tessellate(context.Background(), sc, tessellate.WithWorkers(workers))
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if len(meshes) != sc.Len() {
			t.Fatalf("workers=%d: expected %d meshes, got %d", workers, sc.Len(), len(meshes))
		}
		for i, m := range meshes {
			if m.Name != sc.Faces[i].Name {
				t.Errorf("workers=%d: mesh %d named %q, want %q", workers, i, m.Name, sc.Faces[i].Name)
			}
			if m.IsEmpty() {
				t.Errorf("workers=%d: mesh %q is empty", workers, m.Name)
			}
		}
	}
}

func TestTessellatePlaneIsTwoTriangles(t *testing.T) {
	sc := scene.New()
	sc.Add(&scene.Face{Name: "quad", Surface: unitPlane(), Bounds: rect(0, 0, 1, 1)})

	meshes, err := tessellate.Tessellate(context.Background(), sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := meshes[0]
	if m.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.TriangleCount())
	}
	if m.VertexCount() != 6 {
		t.Errorf("expected 6 vertices, got %d", m.VertexCount())
	}
	for i := 0; i < len(m.Normals); i += 3 {
		if m.Normals[i] != 0 || m.Normals[i+1] != 0 || m.Normals[i+2] != 1 {
			t.Errorf("normal %d = %v, want +Z", i/3, m.Normals[i:i+3])
		}
	}
}

func TestTessellateTolerance(t *testing.T) {
	count := func(sceneTol, faceTol float64) int {
		sc := scene.New()
		sc.Tolerance = geom.Tolerance(sceneTol)
		sc.Add(&scene.Face{
			Name:      "pipe",
			Surface:   surface.NewCylinder(r3.Vector{}, r3.Vector{Z: 1}, 1),
			Bounds:    rect(0, 0, 2*math.Pi, 1),
			Tolerance: geom.Tolerance(faceTol),
		})
		meshes, err := tessellate.Tessellate(context.Background(), sc)
		if err != nil {
			t.Fatalf("tolerance %v/%v: unexpected error: %v", sceneTol, faceTol, err)
		}
		return meshes[0].TriangleCount()
	}

	coarse := count(0.1, 0)
	fine := count(0.001, 0)
	if fine <= coarse {
		t.Errorf("finer scene tolerance gave %d triangles, coarse gave %d", fine, coarse)
	}
	if got := count(0.001, 0.1); got != coarse {
		t.Errorf("face tolerance 0.1 gave %d triangles, want %d", got, coarse)
	}
}

// gridSurface is a flat surface sampled on an n x n grid.
type gridSurface struct {
	n int
}

func (g gridSurface) Approximate(b r2.Rect, _ geom.Tolerance) []r2.Point {
	var pts []r2.Point
	for i := 0; i <= g.n; i++ {
		for j := 0; j <= g.n; j++ {
			if (i == 0 || i == g.n) && (j == 0 || j == g.n) {
				continue
			}
			pts = append(pts, r2.Point{
				X: b.X.Lo + b.X.Length()*float64(i)/float64(g.n),
				Y: b.Y.Lo + b.Y.Length()*float64(j)/float64(g.n),
			})
		}
	}
	return pts
}

func (g gridSurface) PointFromSurfaceCoords(p r2.Point) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y}
}

func TestTessellateIndexFormat(t *testing.T) {
	sc := scene.New()
	sc.Add(&scene.Face{Name: "dense", Surface: gridSurface{n: 120}, Bounds: rect(0, 0, 1, 1)})

	_, err := tessellate.Tessellate(context.Background(), sc, tessellate.WithIndexFormat(render.IndexUint16))
	if !errors.Is(err, render.ErrTooManyIndices) {
		t.Fatalf("expected ErrTooManyIndices, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), `tessellate: face "dense"`) {
		t.Errorf("error %q does not name the face", err)
	}

	meshes, err := tessellate.Tessellate(context.Background(), sc)
	if err != nil {
		t.Fatalf("uint32 indices: unexpected error: %v", err)
	}
	if n := meshes[0].TriangleCount(); n != 2*120*120 {
		t.Errorf("got %d triangles, want %d", n, 2*120*120)
	}
}

func TestTessellateInvalidScene(t *testing.T) {
	sc := scene.New()
	sc.Add(&scene.Face{Name: "broken", Bounds: rect(0, 0, 1, 1)})

	_, err := tessellate.Tessellate(context.Background(), sc)
	if !errors.Is(err, tessellate.ErrInvalidScene) {
		t.Fatalf("expected ErrInvalidScene, got %v", err)
	}
}

func TestTessellateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tessellate.Tessellate(ctx, newScene(), tessellate.WithWorkers(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// cancelingSurface cancels the tessellation while its samples are taken.
type cancelingSurface struct {
	gridSurface
	cancel context.CancelFunc
}

func (c cancelingSurface) Approximate(b r2.Rect, tol geom.Tolerance) []r2.Point {
	c.cancel()
	return c.gridSurface.Approximate(b, tol)
}

func TestTessellateCanceledMidFace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := scene.New()
	sc.Add(&scene.Face{Name: "slow", Surface: cancelingSurface{gridSurface{n: 40}, cancel}, Bounds: rect(0, 0, 1, 1)})

	_, err := tessellate.Tessellate(ctx, sc, tessellate.WithWorkers(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), `tessellate: face "slow"`) {
		t.Errorf("error %q does not name the face", err)
	}
}

func TestTessellateSampleBudget(t *testing.T) {
	sc := scene.New()
	sc.Tolerance = 1e-12
	sc.Add(&scene.Face{Name: "globe", Surface: surface.NewSphere(r3.Vector{}, 1), Bounds: rect(0, -math.Pi/2, 2*math.Pi, math.Pi/2)})

	_, err := tessellate.Tessellate(context.Background(), sc)
	if !errors.Is(err, tessellate.ErrInvalidScene) || !strings.Contains(err.Error(), "samples") {
		t.Fatalf("expected an invalid scene error about samples, got %v", err)
	}
}

func TestTessellateTriangulationOptions(t *testing.T) {
	sc := scene.New()
	sc.Add(&scene.Face{Name: "thin", Surface: unitPlane(), Bounds: rect(0, 0, 1, 1e-3)})

	meshes, err := tessellate.Tessellate(context.Background(), sc,
		tessellate.WithTriangulation(delaunay.WithMergeTolerance(0.01)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := meshes[0].TriangleCount(); n != 0 {
		t.Errorf("expected corners merged into a degenerate set, got %d triangles", n)
	}
}
