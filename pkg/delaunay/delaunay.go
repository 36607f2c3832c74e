// Package delaunay computes Delaunay and constrained Delaunay triangulations
// of planar point sets.
//
// Triangulate sorts the points, sweeps them into a triangulation of their
// convex hull and restores the Delaunay property with edge flips decided by
// the exact geom.InCircle predicate. Constraint edges are then forced into
// the triangulation. The result is deterministic: the same input always
// produces the same triangles in the same order.
package delaunay

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/logging"
)

var (
	// ErrNonFinitePoint is returned when an input point has a NaN or
	// infinite coordinate.
	ErrNonFinitePoint = errors.New("delaunay: point has non-finite coordinates")

	// ErrConstraintOutOfRange is returned when a constraint refers to a
	// point index outside the input.
	ErrConstraintOutOfRange = errors.New("delaunay: constraint index out of range")

	// ErrInvalidMergeTolerance is returned for a negative or non-finite
	// merge tolerance.
	ErrInvalidMergeTolerance = errors.New("delaunay: merge tolerance must be a non-negative finite number")

	errConstraintRecovery = errors.New("delaunay: constraint recovery did not converge")
)

// Edge is an undirected edge between two point indices.
type Edge [2]int

// key returns the edge with its smaller index first.
func (e Edge) key() Edge {
	if e[0] > e[1] {
		return Edge{e[1], e[0]}
	}
	return e
}

// Triangle holds three point indices in counter-clockwise order.
type Triangle [3]int

// Triangulation is the result of Triangulate or Polygon.
type Triangulation struct {
	// Points are the input points followed by any Steiner points added
	// while inserting constraints. Triangle indices refer to this slice.
	Points []r2.Point

	// Triangles are counter-clockwise and never degenerate.
	Triangles []Triangle

	// Constraints lists the constrained edges present in the output, with
	// the smaller index first. A constraint split by a Steiner point
	// appears as its parts.
	Constraints []Edge

	// Steiner is the number of points appended to Points.
	Steiner int
}

// IsEmpty reports whether the triangulation has no triangles.
func (t *Triangulation) IsEmpty() bool {
	return len(t.Triangles) == 0
}

// Triangle2 returns triangle i as a geom.Triangle2.
func (t *Triangulation) Triangle2(i int) geom.Triangle2 {
	tri := t.Triangles[i]
	return geom.NewTriangle2(t.Points[tri[0]], t.Points[tri[1]], t.Points[tri[2]])
}

// Triangulate computes the constrained Delaunay triangulation of points.
//
// Points closer than the merge tolerance collapse onto the lowest input
// index among them; triangles only reference that representative. Fewer
// than three distinct points, or points that are all collinear, produce an
// empty triangulation and no error. Constraints are inserted in order and
// refer to input indices.
func Triangulate(points []r2.Point, constraints []Edge, opts ...Option) (*Triangulation, error) {
	return TriangulateContext(context.Background(), points, constraints, opts...)
}

// TriangulateContext is Triangulate with a context. Cancellation is checked
// periodically during point insertion and before each constraint; the
// context's error is returned as is.
func TriangulateContext(ctx context.Context, points []r2.Point, constraints []Edge, opts ...Option) (*Triangulation, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(o.mergeTolerance) || math.IsInf(o.mergeTolerance, 0) || o.mergeTolerance < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMergeTolerance, o.mergeTolerance)
	}
	for i, p := range points {
		if !geom.IsFinite2(p) {
			return nil, fmt.Errorf("%w: index %d (%v)", ErrNonFinitePoint, i, p)
		}
	}
	for _, c := range constraints {
		for _, i := range c {
			if i < 0 || i >= len(points) {
				return nil, fmt.Errorf("%w: %v with %d points", ErrConstraintOutOfRange, c, len(points))
			}
		}
	}

	log := logging.Logger()

	rep, merged := mergeDuplicates(points, o.mergeTolerance)
	if merged > 0 {
		log.Debug("delaunay: merged duplicate points", "merged", merged, "tolerance", o.mergeTolerance)
	}

	t := newTriangulator(points)
	ok, err := t.sweep(ctx, rep)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug("delaunay: degenerate input", "points", len(points))
		return &Triangulation{Points: t.pts}, nil
	}

	for _, c := range constraints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.insertConstraint(rep[c[0]], rep[c[1]]); err != nil {
			return nil, err
		}
	}

	res := t.result()
	log.Debug("delaunay: triangulated",
		"points", len(points),
		"triangles", len(res.Triangles),
		"constraints", len(res.Constraints),
		"steiner", res.Steiner)
	return res, nil
}

// mergeDuplicates maps every point to its representative: the lowest index
// within tol of it that is not itself merged. The second result counts the
// merged points. Points are bucketed on a grid of cell size tol, so only
// the 3x3 neighbourhood of a cell needs to be searched.
func mergeDuplicates(points []r2.Point, tol float64) ([]int, int) {
	rep := make([]int, len(points))
	merged := 0

	if tol == 0 {
		seen := make(map[r2.Point]int, len(points))
		for i, p := range points {
			if j, ok := seen[p]; ok {
				rep[i] = j
				merged++
				continue
			}
			seen[p] = i
			rep[i] = i
		}
		return rep, merged
	}

	grid := make(map[[2]float64][]int)
	for i, p := range points {
		cx, cy := math.Floor(p.X/tol), math.Floor(p.Y/tol)
		rep[i] = i
		found := false
		for dx := -1.0; dx <= 1; dx++ {
			for dy := -1.0; dy <= 1; dy++ {
				for _, j := range grid[[2]float64{cx + dx, cy + dy}] {
					if (!found || j < rep[i]) && points[j].Sub(p).Norm() <= tol {
						rep[i] = j
						found = true
					}
				}
			}
		}
		if found {
			merged++
			continue
		}
		cell := [2]float64{cx, cy}
		grid[cell] = append(grid[cell], i)
	}
	return rep, merged
}

// triangulator is the mutable working state. Triangles live in a slice and
// are rewritten in place by flips; edges maps each directed edge to the
// triangle on its left.
type triangulator struct {
	pts   []r2.Point
	used  []bool
	tris  []Triangle
	edges map[Edge]int

	fixed      map[Edge]bool
	fixedOrder []Edge

	steiner int
}

func newTriangulator(points []r2.Point) *triangulator {
	return &triangulator{
		pts:   slices.Clone(points),
		used:  make([]bool, len(points)),
		edges: make(map[Edge]int, 6*len(points)),
		fixed: make(map[Edge]bool),
	}
}

func (t *triangulator) orient(a, b, c int) int {
	return geom.Orient2D(t.pts[a], t.pts[b], t.pts[c])
}

func (t *triangulator) addTriangle(a, b, c int) int {
	i := len(t.tris)
	t.tris = append(t.tris, Triangle{a, b, c})
	t.link(i)
	return i
}

func (t *triangulator) link(i int) {
	tri := t.tris[i]
	for k := range 3 {
		t.edges[Edge{tri[k], tri[(k+1)%3]}] = i
	}
}

func (t *triangulator) unlink(i int) {
	tri := t.tris[i]
	for k := range 3 {
		e := Edge{tri[k], tri[(k+1)%3]}
		if j, ok := t.edges[e]; ok && j == i {
			delete(t.edges, e)
		}
	}
}

// apex returns the vertex of triangle i that is neither a nor b.
func (t *triangulator) apex(i, a, b int) int {
	for _, v := range t.tris[i] {
		if v != a && v != b {
			return v
		}
	}
	panic(fmt.Sprintf("delaunay: triangle %v has no apex opposite %d-%d", t.tris[i], a, b))
}

func (t *triangulator) hasEdge(a, b int) bool {
	_, ok1 := t.edges[Edge{a, b}]
	_, ok2 := t.edges[Edge{b, a}]
	return ok1 || ok2
}

func (t *triangulator) fix(a, b int) {
	k := Edge{a, b}.key()
	if !t.fixed[k] {
		t.fixed[k] = true
		t.fixedOrder = append(t.fixedOrder, k)
	}
}

// hull is the convex hull during the sweep as a counter-clockwise circular
// list of point indices.
type hull struct {
	next, prev []int
}

// checkEvery is how many points sweep inserts between context checks.
const checkEvery = 1024

// sweep triangulates the representative points in lexicographic order. It
// returns false if there are fewer than three distinct points or all of
// them are collinear.
func (t *triangulator) sweep(ctx context.Context, rep []int) (bool, error) {
	var ids []int
	for i, r := range rep {
		if r == i {
			ids = append(ids, i)
		}
	}
	if len(ids) < 3 {
		return false, nil
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := geom.ComparePoint2(t.pts[a], t.pts[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	// The leading collinear run is closed by a fan to the first point off
	// its line.
	k := 2
	for k < len(ids) && t.orient(ids[0], ids[1], ids[k]) == 0 {
		k++
	}
	if k == len(ids) {
		return false, nil
	}
	for _, i := range ids {
		t.used[i] = true
	}

	h := &hull{next: make([]int, len(t.pts)), prev: make([]int, len(t.pts))}
	p := ids[k]
	chain := slices.Clone(ids[:k])
	if t.orient(chain[0], chain[1], p) < 0 {
		slices.Reverse(chain)
	}
	for i := 0; i+1 < len(chain); i++ {
		t.addTriangle(chain[i], chain[i+1], p)
		h.next[chain[i]] = chain[i+1]
		h.prev[chain[i+1]] = chain[i]
	}
	last := chain[len(chain)-1]
	h.next[last], h.prev[p] = p, last
	h.next[p], h.prev[chain[0]] = chain[0], p

	// Every later point is lexicographically greater than all points before
	// it, so it lies strictly outside the current hull.
	prev := p
	for n, q := range ids[k+1:] {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		start := t.visibleEdge(h, prev, q)

		lo, hi := start, h.next[start]
		for t.orient(h.prev[lo], lo, q) < 0 {
			lo = h.prev[lo]
		}
		for t.orient(hi, h.next[hi], q) < 0 {
			hi = h.next[hi]
		}

		var stack []Edge
		for v := lo; v != hi; v = h.next[v] {
			w := h.next[v]
			t.addTriangle(w, v, q)
			stack = append(stack, Edge{v, w})
		}
		h.next[lo], h.prev[q] = q, lo
		h.next[q], h.prev[hi] = hi, q

		t.restore(stack)
		prev = q
	}
	return true, nil
}

// visibleEdge returns the start of a hull edge that q sees from outside.
// The edges next to the previously inserted point are tried first.
func (t *triangulator) visibleEdge(h *hull, from, q int) int {
	if t.orient(from, h.next[from], q) < 0 {
		return from
	}
	if t.orient(h.prev[from], from, q) < 0 {
		return h.prev[from]
	}
	for v := h.next[from]; v != from; v = h.next[v] {
		if t.orient(v, h.next[v], q) < 0 {
			return v
		}
	}
	panic(fmt.Sprintf("delaunay: point %v sees no hull edge", t.pts[q]))
}

// restore runs Lawson's flip algorithm from the given edges until every
// edge reached is locally Delaunay or constrained. It returns the number of
// flips.
func (t *triangulator) restore(stack []Edge) int {
	flips := 0
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if quad, ok := t.flipIfIllegal(e[0], e[1]); ok {
			flips++
			stack = append(stack, quad[:]...)
		}
	}
	return flips
}

// flipIfIllegal flips a-b if the apex of one adjacent triangle lies strictly
// inside the circumcircle of the other. It returns the outer edges of the
// quadrilateral around the flipped edge.
func (t *triangulator) flipIfIllegal(a, b int) ([4]Edge, bool) {
	if t.fixed[Edge{a, b}.key()] {
		return [4]Edge{}, false
	}
	t1, ok1 := t.edges[Edge{a, b}]
	t2, ok2 := t.edges[Edge{b, a}]
	if !ok1 || !ok2 {
		return [4]Edge{}, false
	}
	p := t.apex(t1, a, b)
	q := t.apex(t2, a, b)
	if geom.InCircle(t.pts[a], t.pts[b], t.pts[p], t.pts[q]) <= 0 {
		return [4]Edge{}, false
	}
	if !t.flip(t1, t2, a, b, p, q) {
		return [4]Edge{}, false
	}
	return [4]Edge{{a, q}, {q, b}, {b, p}, {p, a}}, true
}

// flip replaces the triangles (a, b, p) and (b, a, q), stored at t1 and t2,
// with (a, q, p) and (q, b, p). It refuses when the quadrilateral is not
// strictly convex.
func (t *triangulator) flip(t1, t2, a, b, p, q int) bool {
	if t.orient(a, q, p) <= 0 || t.orient(q, b, p) <= 0 {
		return false
	}
	t.unlink(t1)
	t.unlink(t2)
	t.tris[t1] = Triangle{a, q, p}
	t.tris[t2] = Triangle{q, b, p}
	t.link(t1)
	t.link(t2)
	return true
}

func (t *triangulator) result() *Triangulation {
	res := &Triangulation{
		Points:    t.pts,
		Triangles: t.tris,
		Steiner:   t.steiner,
	}
	seen := make(map[Edge]bool, len(t.fixedOrder))
	for _, e := range t.fixedOrder {
		if seen[e] || !t.fixed[e] || !t.hasEdge(e[0], e[1]) {
			continue
		}
		seen[e] = true
		res.Constraints = append(res.Constraints, e)
	}
	return res
}
