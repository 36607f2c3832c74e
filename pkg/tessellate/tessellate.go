// Package tessellate turns a scene into render meshes. One mesh is produced
// per face, in scene order; faces are meshed in parallel.
package tessellate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/facet/pkg/delaunay"
	"github.com/chazu/facet/pkg/logging"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/render"
	"github.com/chazu/facet/pkg/scene"
)

// ErrInvalidScene is returned when the scene has validation errors.
var ErrInvalidScene = errors.New("tessellate: invalid scene")

// Option configures Tessellate.
type Option func(*options)

type options struct {
	workers int
	format  render.IndexFormat
	triOpts []delaunay.Option
}

func defaultOptions() options {
	return options{
		workers: runtime.GOMAXPROCS(0),
		format:  render.IndexUint32,
	}
}

// WithWorkers limits how many faces are meshed at once. Values below one
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithIndexFormat selects the index width of every produced mesh.
func WithIndexFormat(f render.IndexFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithTriangulation passes options to every face's triangulation.
func WithTriangulation(opts ...delaunay.Option) Option {
	return func(o *options) {
		o.triOpts = append(o.triOpts, opts...)
	}
}

// Tessellate meshes every face of sc and returns the meshes in face order.
// The scene is validated first and never mutated. The first face to fail
// cancels the rest; its error names the face. Cancelling ctx also aborts
// faces already being triangulated.
func Tessellate(ctx context.Context, sc *scene.Scene, opts ...Option) ([]*render.Mesh, error) {
	if sc == nil {
		return nil, nil
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	for _, v := range scene.Validate(sc) {
		if v.Severity == scene.SeverityError {
			return nil, fmt.Errorf("%w: %s", ErrInvalidScene, v)
		}
	}

	meshes := make([]*render.Mesh, sc.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, f := range sc.Faces {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := tessellateFace(ctx, sc, f, o)
			if err != nil {
				return fmt.Errorf("tessellate: face %q: %w", f.Name, err)
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// tessellateFace meshes a single face.
func tessellateFace(ctx context.Context, sc *scene.Scene, f *scene.Face, o options) (*render.Mesh, error) {
	tol := sc.FaceTolerance(f)
	sm, err := mesh.FromSurfaceContext(ctx, f.Surface, f.Bounds, tol, o.triOpts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := render.FromTriangles(sm.GlobalTriangles(),
		render.WithName(f.Name),
		render.WithIndexFormat(o.format))
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("tessellate: face meshed",
		"face", f.Name,
		"surface", f.Kind(),
		"tolerance", tol,
		"samples", len(sm.Points),
		"triangles", m.TriangleCount())
	return m, nil
}
