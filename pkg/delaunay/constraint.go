package delaunay

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/chazu/facet/pkg/logging"
)

// insertConstraint forces the segment a-b into the triangulation.
//
// A vertex lying exactly on the open segment splits it into two
// constraints. Unconstrained edges crossing the segment are flipped away
// (Sloan, "A fast algorithm for generating constrained Delaunay
// triangulations", 1993). A crossing constrained edge cannot be removed, so
// both are split at a Steiner point at their intersection.
func (t *triangulator) insertConstraint(a, b int) error {
	pending := []Edge{{a, b}}
	for len(pending) > 0 {
		e := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		u, v := e[0], e[1]

		if u == v {
			continue
		}
		if t.hasEdge(u, v) {
			t.fix(u, v)
			continue
		}
		if w, ok := t.vertexOnSegment(u, v); ok {
			pending = append(pending, Edge{w, v}, Edge{u, w})
			continue
		}

		crossing := t.crossingEdges(u, v)
		if len(crossing) == 0 {
			return fmt.Errorf("%w: edge %d-%d is missing but crosses nothing", errConstraintRecovery, u, v)
		}
		if c, ok := t.nearestFixed(crossing, u, v); ok {
			s := t.splitFixed(c, u, v)
			pending = append(pending, Edge{s, v}, Edge{u, s})
			continue
		}
		if err := t.recover(u, v, crossing); err != nil {
			return err
		}
	}
	return nil
}

// vertexOnSegment returns the vertex closest to u that lies exactly on the
// open segment u-v.
func (t *triangulator) vertexOnSegment(u, v int) (int, bool) {
	pu, pv := t.pts[u], t.pts[v]
	d := pv.Sub(pu)
	length2 := d.Dot(d)

	best, bestDot := -1, 0.0
	for i, p := range t.pts {
		if !t.used[i] || i == u || i == v || t.orient(u, v, i) != 0 {
			continue
		}
		dot := p.Sub(pu).Dot(d)
		if dot <= 0 || dot >= length2 {
			continue
		}
		if best < 0 || dot < bestDot {
			best, bestDot = i, dot
		}
	}
	return best, best >= 0
}

// crosses reports whether the segments u-v and x-y cross at a single point
// interior to both.
func (t *triangulator) crosses(u, v, x, y int) bool {
	if t.orient(u, v, x)*t.orient(u, v, y) >= 0 {
		return false
	}
	return t.orient(x, y, u)*t.orient(x, y, v) < 0
}

// crossingEdges lists the edges properly crossed by u-v, each once, in
// triangle order.
func (t *triangulator) crossingEdges(u, v int) []Edge {
	var out []Edge
	for _, tri := range t.tris {
		for k := range 3 {
			x, y := tri[k], tri[(k+1)%3]
			if _, twin := t.edges[Edge{y, x}]; x > y && twin {
				continue
			}
			if t.crosses(u, v, x, y) {
				out = append(out, Edge{x, y})
			}
		}
	}
	return out
}

// intersection returns the point where the line through a and b meets the
// line through c and d, and its parameter along a-b.
func intersection(a, b, c, d r2.Point) (r2.Point, float64) {
	r := b.Sub(a)
	s := d.Sub(c)
	k := c.Sub(a).Cross(s) / r.Cross(s)
	return a.Add(r.Mul(k)), k
}

// nearestFixed returns the constrained edge among crossing that u-v meets
// first.
func (t *triangulator) nearestFixed(crossing []Edge, u, v int) (Edge, bool) {
	var (
		best  Edge
		bestK float64
		found bool
	)
	for _, e := range crossing {
		if !t.fixed[e.key()] {
			continue
		}
		_, k := intersection(t.pts[u], t.pts[v], t.pts[e[0]], t.pts[e[1]])
		if !found || k < bestK {
			best, bestK, found = e, k, true
		}
	}
	return best, found
}

// splitFixed inserts a Steiner point where u-v crosses the constrained edge
// e and returns its index. Both halves of e stay constrained.
func (t *triangulator) splitFixed(e Edge, u, v int) int {
	x, y := e[0], e[1]
	pt, _ := intersection(t.pts[u], t.pts[v], t.pts[x], t.pts[y])

	s := len(t.pts)
	t.pts = append(t.pts, pt)
	t.used = append(t.used, true)
	t.steiner++

	stack := t.splitEdge(x, y, s)
	delete(t.fixed, e.key())
	t.fix(x, s)
	t.fix(s, y)
	t.restore(stack)

	logging.Logger().Debug("delaunay: inserted steiner point",
		"point", pt, "constraint", Edge{u, v}, "split", e)
	return s
}

// splitEdge splits the edge x-y at the new vertex s, which must lie on it,
// turning each adjacent triangle into two. It returns the outer edges of
// the affected triangles for Delaunay restoration.
func (t *triangulator) splitEdge(x, y, s int) []Edge {
	var stack []Edge
	t1, ok1 := t.edges[Edge{x, y}]
	t2, ok2 := t.edges[Edge{y, x}]
	if ok1 {
		p := t.apex(t1, x, y)
		t.unlink(t1)
		t.tris[t1] = Triangle{x, s, p}
		t.link(t1)
		t.addTriangle(s, y, p)
		stack = append(stack, Edge{y, p}, Edge{p, x})
	}
	if ok2 {
		q := t.apex(t2, x, y)
		t.unlink(t2)
		t.tris[t2] = Triangle{y, s, q}
		t.link(t2)
		t.addTriangle(s, x, q)
		stack = append(stack, Edge{x, q}, Edge{q, y})
	}
	return stack
}

// recover removes the unconstrained edges in queue, all crossing u-v, by
// flipping them, then marks u-v constrained and restores the Delaunay
// property around the edges the flips created.
func (t *triangulator) recover(u, v int, queue []Edge) error {
	var created []Edge
	limit := 16*(len(queue)+1)*(len(queue)+1) + len(t.tris)

	for iter := 0; len(queue) > 0; iter++ {
		if iter > limit {
			return fmt.Errorf("%w: edge %d-%d after %d flips", errConstraintRecovery, u, v, iter)
		}
		e := queue[0]
		queue = queue[1:]
		x, y := e[0], e[1]

		t1, ok1 := t.edges[Edge{x, y}]
		t2, ok2 := t.edges[Edge{y, x}]
		if !ok1 || !ok2 {
			continue
		}
		p := t.apex(t1, x, y)
		q := t.apex(t2, x, y)

		// Only a strictly convex quadrilateral can be flipped. Try the
		// edge again once its neighbours have moved.
		if !t.flip(t1, t2, x, y, p, q) {
			queue = append(queue, e)
			continue
		}
		if t.crosses(u, v, p, q) {
			queue = append(queue, Edge{p, q})
		} else {
			created = append(created, Edge{p, q})
		}
	}

	t.fix(u, v)
	t.restore(created)
	return nil
}
