package delaunay

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func TestPolygon(t *testing.T) {
	square := []r2.Point{pt(0, 0), pt(4, 0), pt(4, 4), pt(0, 4)}
	hole := []r2.Point{pt(1, 1), pt(1, 3), pt(3, 3), pt(3, 1)}
	lShape := []r2.Point{pt(0, 0), pt(3, 0), pt(3, 1), pt(1, 1), pt(1, 3), pt(0, 3)}

	tests := []struct {
		name      string
		outline   []r2.Point
		holes     [][]r2.Point
		wantArea  float64
		wantEdges int
	}{
		{"square", square, nil, 16, 4},
		{"clockwise square", []r2.Point{pt(0, 4), pt(4, 4), pt(4, 0), pt(0, 0)}, nil, 16, 4},
		{"closed ring", append(append([]r2.Point{}, square...), square[0]), nil, 16, 4},
		{"concave", lShape, nil, 5, 6},
		{"with hole", square, [][]r2.Point{hole}, 12, 8},
		{"short hole ignored", square, [][]r2.Point{{pt(1, 1), pt(2, 2)}}, 16, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Polygon(tt.outline, tt.holes)
			if err != nil {
				t.Fatalf("Polygon() error = %v", err)
			}
			if got := totalArea(tr); math.Abs(got-tt.wantArea) > 1e-12 {
				t.Errorf("total area = %v, want %v", got, tt.wantArea)
			}
			if len(tr.Constraints) != tt.wantEdges {
				t.Errorf("got %d constrained edges, want %d", len(tr.Constraints), tt.wantEdges)
			}
			checkOriented(t, tr)
			checkDelaunay(t, tr)
		})
	}
}

func TestPolygonHoleIsEmpty(t *testing.T) {
	outline := []r2.Point{pt(0, 0), pt(4, 0), pt(4, 4), pt(0, 4)}
	hole := []r2.Point{pt(1, 1), pt(1, 3), pt(3, 3), pt(3, 1)}
	tr, err := Polygon(outline, [][]r2.Point{hole})
	if err != nil {
		t.Fatalf("Polygon() error = %v", err)
	}
	for i := range tr.Triangles {
		c := tr.Triangle2(i).Center()
		if c.X > 1 && c.X < 3 && c.Y > 1 && c.Y < 3 {
			t.Errorf("triangle %d centered at %v lies inside the hole", i, c)
		}
	}
}

func TestPolygonDegenerate(t *testing.T) {
	tr, err := Polygon([]r2.Point{pt(0, 0), pt(1, 1)}, nil)
	if err != nil {
		t.Fatalf("Polygon() error = %v", err)
	}
	if !tr.IsEmpty() {
		t.Errorf("got %d triangles, want none", len(tr.Triangles))
	}

	if _, err := Polygon([]r2.Point{pt(0, 0), pt(1, math.NaN()), pt(0, 1)}, nil); err == nil {
		t.Error("expected error for non-finite outline")
	}
}
