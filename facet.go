// Package facet evaluates scene descriptions into triangle meshes. A scene
// is a list of named faces, each a rectangular region of a plane, cylinder
// or sphere; every face becomes one flat shaded mesh.
//
// A Pipeline wires the stages together: the engine evaluates the source
// into a scene, the scene is validated, and the tessellator meshes every
// face with a constrained Delaunay triangulation of its surface samples.
package facet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chazu/facet/pkg/delaunay"
	"github.com/chazu/facet/pkg/engine"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/logging"
	"github.com/chazu/facet/pkg/render"
	"github.com/chazu/facet/pkg/render/stl"
	"github.com/chazu/facet/pkg/scene"
	"github.com/chazu/facet/pkg/tessellate"
)

// SetLogger installs l for every facet package. Nil silences logging.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// MeshData is the JSON form of one face's mesh.
type MeshData struct {
	Vertices    []float32 `json:"vertices"`
	Normals     []float32 `json:"normals"`
	Indices     []uint32  `json:"indices"`
	IndexFormat string    `json:"indexFormat"`
	FaceName    string    `json:"faceName"`
	Color       string    `json:"color"`
}

// ErrorData is the JSON form of an evaluation or validation finding.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Face    string `json:"face,omitempty"`
	Message string `json:"message"`
}

// Result is the full output of Pipeline.Evaluate.
type Result struct {
	Meshes   []MeshData  `json:"meshes"`
	Errors   []ErrorData `json:"errors"`
	Warnings []ErrorData `json:"warnings"`
}

// Pipeline evaluates scene source into meshes. It is safe for concurrent
// use; a newer evaluation supersedes one still in flight.
type Pipeline struct {
	cfg     Config
	format  render.IndexFormat
	engine  *engine.Engine
	tessOpt []tessellate.Option
}

// NewPipeline validates cfg and builds a pipeline from it.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := render.ParseIndexFormat(cfg.IndexFormat)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		format: format,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout()),
			engine.WithDefaultTolerance(geom.Tolerance(cfg.Tolerance)),
		),
		tessOpt: []tessellate.Option{
			tessellate.WithWorkers(cfg.Workers),
			tessellate.WithIndexFormat(format),
			tessellate.WithTriangulation(delaunay.WithMergeTolerance(cfg.MergeTolerance)),
		},
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Evaluate runs the whole pipeline on source. Problems are reported in the
// result rather than returned, so the caller can always display it.
func (p *Pipeline) Evaluate(source string) Result {
	return p.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with a context bounding tessellation. The
// configured tessellation timeout applies on top of ctx.
func (p *Pipeline) EvaluateContext(ctx context.Context, source string) Result {
	result := Result{
		Meshes:   []MeshData{},
		Errors:   []ErrorData{},
		Warnings: []ErrorData{},
	}

	sc, findings, err := p.scene(source)
	if err != nil {
		logging.Logger().Warn("facet: evaluation failed", "error", err)
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	for _, f := range findings {
		d := ErrorData{Line: f.Line, Col: f.Col, Face: f.Face, Message: f.Message}
		if f.Warning {
			result.Warnings = append(result.Warnings, d)
		} else {
			result.Errors = append(result.Errors, d)
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	meshes, err := p.tessellate(ctx, sc)
	if err != nil {
		logging.Logger().Warn("facet: tessellation failed", "error", err)
		result.Errors = append(result.Errors, ErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	colors := render.Palette(len(meshes))
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:    m.Vertices,
			Normals:     m.Normals,
			Indices:     m.Indices,
			IndexFormat: m.Format.String(),
			FaceName:    m.Name,
			Color:       colors[i],
		})
	}
	return result
}

// Meshes evaluates source and returns the raw render meshes. Evaluation
// and validation errors are returned as an error.
func (p *Pipeline) Meshes(ctx context.Context, source string) ([]*render.Mesh, error) {
	sc, findings, err := p.scene(source)
	if err != nil {
		return nil, err
	}
	for _, f := range findings {
		if !f.Warning {
			return nil, fmt.Errorf("facet: %s", f)
		}
	}
	return p.tessellate(ctx, sc)
}

// tessellate meshes sc under the configured timeout.
func (p *Pipeline) tessellate(ctx context.Context, sc *scene.Scene) ([]*render.Mesh, error) {
	if d := p.cfg.TessellateTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return tessellate.Tessellate(ctx, sc, p.tessOpt...)
}

// ExportSTL evaluates source and writes every face to a binary STL file.
func (p *Pipeline) ExportSTL(ctx context.Context, source, path string) error {
	meshes, err := p.Meshes(ctx, source)
	if err != nil {
		return err
	}
	return stl.SaveMeshes(path, meshes)
}

// finding is an evaluation error or a validation finding.
type finding struct {
	Line, Col int
	Face      string
	Message   string
	Warning   bool
}

func (f finding) String() string {
	switch {
	case f.Face != "":
		return fmt.Sprintf("face %q: %s", f.Face, f.Message)
	case f.Line > 0:
		return fmt.Sprintf("line %d: %s", f.Line, f.Message)
	}
	return f.Message
}

// scene evaluates source and validates the result. A fatal engine error
// (timeout, panic) is returned as err.
func (p *Pipeline) scene(source string) (*scene.Scene, []finding, error) {
	sc, evalErrs, err := p.engine.Evaluate(source)
	if err != nil {
		return nil, nil, err
	}
	if len(evalErrs) > 0 {
		out := make([]finding, len(evalErrs))
		for i, e := range evalErrs {
			out[i] = finding{Line: e.Line, Col: e.Col, Message: e.Message}
		}
		return nil, out, nil
	}

	var out []finding
	for _, v := range scene.Validate(sc) {
		out = append(out, finding{
			Line:    v.Line,
			Face:    v.Face,
			Message: v.Message,
			Warning: v.Severity == scene.SeverityWarning,
		})
	}
	return sc, out, nil
}
