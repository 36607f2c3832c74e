package delaunay

// DefaultMergeTolerance is the distance below which two input points are
// treated as the same vertex.
const DefaultMergeTolerance = 1e-10

// Option configures a triangulation.
type Option func(*options)

type options struct {
	mergeTolerance float64
}

func defaultOptions() options {
	return options{
		mergeTolerance: DefaultMergeTolerance,
	}
}

// WithMergeTolerance sets the distance below which input points are merged.
// Zero merges exact duplicates only. Negative or non-finite values are
// rejected by Triangulate.
func WithMergeTolerance(tol float64) Option {
	return func(o *options) {
		o.mergeTolerance = tol
	}
}
