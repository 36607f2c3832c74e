package facet

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/facet/pkg/delaunay"
	"github.com/chazu/facet/pkg/engine"
	"github.com/chazu/facet/pkg/render"
	"github.com/chazu/facet/pkg/scene"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("facet: invalid config")

// Config holds the pipeline settings. It is usually loaded from a TOML
// file:
//
//	tolerance = 0.01
//	merge_tolerance = 1e-10
//	index_format = "uint32"
//	workers = 4
//	eval_timeout_ms = 5000
//	tessellate_timeout_ms = 30000
type Config struct {
	// Tolerance is the default approximation tolerance for scenes that do
	// not set their own.
	Tolerance float64 `toml:"tolerance"`

	// MergeTolerance is the distance below which triangulation input points
	// are merged. Zero merges exact duplicates only.
	MergeTolerance float64 `toml:"merge_tolerance"`

	// IndexFormat is "uint32" or "uint16".
	IndexFormat string `toml:"index_format"`

	// Workers bounds how many faces are meshed at once. Zero uses one per
	// CPU.
	Workers int `toml:"workers"`

	// EvalTimeoutMS limits a single evaluation, in milliseconds.
	EvalTimeoutMS int `toml:"eval_timeout_ms"`

	// TessellateTimeoutMS limits meshing one evaluated scene, in
	// milliseconds. Zero means no limit beyond the caller's context.
	TessellateTimeoutMS int `toml:"tessellate_timeout_ms"`
}

// DefaultTessellateTimeout bounds tessellation when no config is given.
const DefaultTessellateTimeout = 30 * time.Second

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Tolerance:      float64(scene.DefaultTolerance),
		MergeTolerance: delaunay.DefaultMergeTolerance,
		IndexFormat:    render.IndexUint32.String(),
		EvalTimeoutMS:  int(engine.EvalTimeout / time.Millisecond),

		TessellateTimeoutMS: int(DefaultTessellateTimeout / time.Millisecond),
	}
}

// ParseConfig decodes TOML on top of DefaultConfig. Unknown keys are an
// error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("facet: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the TOML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("facet: load config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if !finite(c.Tolerance) || c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance %v must be positive", ErrInvalidConfig, c.Tolerance)
	}
	if !finite(c.MergeTolerance) || c.MergeTolerance < 0 {
		return fmt.Errorf("%w: merge_tolerance %v must not be negative", ErrInvalidConfig, c.MergeTolerance)
	}
	if _, err := render.ParseIndexFormat(c.IndexFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidConfig, c.Workers)
	}
	if c.EvalTimeoutMS < 0 {
		return fmt.Errorf("%w: eval_timeout_ms %d must not be negative", ErrInvalidConfig, c.EvalTimeoutMS)
	}
	if c.TessellateTimeoutMS < 0 {
		return fmt.Errorf("%w: tessellate_timeout_ms %d must not be negative", ErrInvalidConfig, c.TessellateTimeoutMS)
	}
	return nil
}

// EvalTimeout returns EvalTimeoutMS as a duration.
func (c Config) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

// TessellateTimeout returns TessellateTimeoutMS as a duration.
func (c Config) TessellateTimeout() time.Duration {
	return time.Duration(c.TessellateTimeoutMS) * time.Millisecond
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
