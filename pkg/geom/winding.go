package geom

// Winding is the rotational order of a planar triangle's vertices.
type Winding int

const (
	CounterClockwise Winding = iota
	Clockwise
)

// IsCCW reports whether the winding is counter-clockwise.
func (w Winding) IsCCW() bool { return w == CounterClockwise }

// IsCW reports whether the winding is clockwise.
func (w Winding) IsCW() bool { return w == Clockwise }

func (w Winding) String() string {
	switch w {
	case CounterClockwise:
		return "ccw"
	case Clockwise:
		return "cw"
	default:
		return "unknown"
	}
}
