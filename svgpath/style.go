package svgpath

// DefaultTolerance is the flattening tolerance used when
// none is provided, in user units.
const DefaultTolerance = 0.1

// FillRule is the rule used to decide which points are inside a path.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

func (f FillRule) String() string {
	switch f {
	case NonZero:
		return "nonzero"
	case EvenOdd:
		return "evenodd"
	default:
		return "<unknown FillRule>"
	}
}

// CapMode is the shape at the ends of open subpaths.
type CapMode uint8

const (
	ButtCap CapMode = iota
	RoundCap
	SquareCap
)

func (c CapMode) String() string {
	switch c {
	case ButtCap:
		return "butt"
	case RoundCap:
		return "round"
	case SquareCap:
		return "square"
	default:
		return "<unknown CapMode>"
	}
}

// JoinMode is the shape at the corners of stroked paths.
type JoinMode uint8

const (
	MiterJoin JoinMode = iota
	RoundJoin
	BevelJoin
)

func (j JoinMode) String() string {
	switch j {
	case MiterJoin:
		return "miter"
	case RoundJoin:
		return "round"
	case BevelJoin:
		return "bevel"
	default:
		return "<unknown JoinMode>"
	}
}

// StrokeStyle groups the parameters of a stroke, in user units.
type StrokeStyle struct {
	Width      float64
	Cap        CapMode
	Join       JoinMode
	MiterLimit float64   // ratio, at least 1
	Dash       []float64 // on/off lengths; empty for a solid stroke
	DashOffset float64
}

// DefaultStrokeStyle is the initial value of the stroke properties.
var DefaultStrokeStyle = StrokeStyle{Width: 1, Cap: ButtCap, Join: MiterJoin, MiterLimit: 4}

// normalizedDash returns the dash array to use, or nil if the stroke
// is solid : negative values or a null sum disable dashing, and an odd
// number of values is repeated to yield an even number.
func (s StrokeStyle) normalizedDash() []float64 {
	if len(s.Dash) == 0 {
		return nil
	}
	var sum float64
	for _, d := range s.Dash {
		if d < 0 {
			return nil
		}
		sum += d
	}
	if sum <= 0 {
		return nil
	}
	if len(s.Dash)%2 == 1 {
		return append(append([]float64(nil), s.Dash...), s.Dash...)
	}
	return s.Dash
}

// maxDashes bounds the number of dashes cut from one path.
// Denser patterns are drawn solid.
const maxDashes = 1 << 16

// DashPattern returns a copy of the dash array to apply to p, with an
// even number of values, or nil if the stroke is solid. Patterns which
// would cut p in more than 65536 dashes are ignored.
func (s StrokeStyle) DashPattern(p Path, tolerance float64) []float64 {
	pattern := s.dashFor(p.Flatten(tolerance))
	return append([]float64(nil), pattern...)
}

// dashFor returns the normalized pattern, or nil when it is solid or
// too dense for lines.
func (s StrokeStyle) dashFor(lines []Polyline) []float64 {
	pattern := s.normalizedDash()
	if pattern == nil {
		return nil
	}
	var period, length float64
	for _, d := range pattern {
		period += d
	}
	for _, pl := range lines {
		length += pl.length()
	}
	if length/period*float64(len(pattern)/2) > maxDashes {
		return nil
	}
	return pattern
}
