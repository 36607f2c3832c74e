package delaunay

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/rclancey/earcut"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/logging"
)

// Polygon triangulates the region inside outline and outside every hole.
// Rings may be given in either orientation; a closing point equal to the
// first one is ignored. Holes with fewer than three points are skipped.
//
// The ear clipping result is refined by edge flips into the constrained
// Delaunay triangulation of the polygon, with every ring edge constrained.
// Points in the result are the outline followed by the holes, in order.
func Polygon(outline []r2.Point, holes [][]r2.Point) (*Triangulation, error) {
	rings := [][]r2.Point{openRing(outline)}
	for _, h := range holes {
		if h = openRing(h); len(h) >= 3 {
			rings = append(rings, h)
		}
	}
	if len(rings[0]) < 3 {
		return &Triangulation{Points: slices.Clone(rings[0])}, nil
	}

	var (
		pts       []r2.Point
		coords    []float64
		holeIndex []int
		starts    []int
	)
	for ri, ring := range rings {
		if ri > 0 {
			holeIndex = append(holeIndex, len(pts))
		}
		starts = append(starts, len(pts))
		for _, p := range ring {
			if !geom.IsFinite2(p) {
				return nil, fmt.Errorf("%w: ring %d (%v)", ErrNonFinitePoint, ri, p)
			}
			pts = append(pts, p)
			coords = append(coords, p.X, p.Y)
		}
	}

	indices, err := earcut.Earcut(coords, holeIndex, 2)
	if err != nil {
		return nil, fmt.Errorf("delaunay: ear clipping %d points: %w", len(pts), err)
	}

	t := newTriangulator(pts)
	for i := range t.used {
		t.used[i] = true
	}
	dropped := 0
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		switch t.orient(a, b, c) {
		case 1:
			t.addTriangle(a, b, c)
		case -1:
			t.addTriangle(a, c, b)
		default:
			dropped++
		}
	}

	for ri, ring := range rings {
		start := starts[ri]
		for i := range ring {
			a, b := start+i, start+(i+1)%len(ring)
			if t.hasEdge(a, b) {
				t.fix(a, b)
			}
		}
	}

	var stack []Edge
	for _, tri := range t.tris {
		for k := range 3 {
			x, y := tri[k], tri[(k+1)%3]
			if _, twin := t.edges[Edge{y, x}]; x < y && twin {
				stack = append(stack, Edge{x, y})
			}
		}
	}
	flips := t.restore(stack)

	logging.Logger().Debug("delaunay: triangulated polygon",
		"points", len(pts),
		"holes", len(rings)-1,
		"triangles", len(t.tris),
		"flips", flips,
		"dropped", dropped)
	return t.result(), nil
}

func openRing(ring []r2.Point) []r2.Point {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}
