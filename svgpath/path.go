// Package svgpath implements the geometry used by the simplified SVG tree:
// paths made only of cubic Bézier segments, path data parsing, basic shapes,
// stroking, dashing and bounding boxes.
package svgpath

import (
	"strings"

	"golang.org/x/image/math/fixed"
)

// Adder is implemented by types accumulating path commands
// in fixed point device coordinates, like the rasterx scanners.
type Adder interface {
	// Start starts a new curve at the given point.
	Start(a fixed.Point26_6)
	// Line adds a line segment to the path
	Line(b fixed.Point26_6)
	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)
	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)
	// Closes the path to the start point if closeLoop is true
	Stop(closeLoop bool)
}

// Cubic is a cubic Bézier segment, starting at the end point
// of the previous segment (or at the start of its subpath).
type Cubic struct {
	C1, C2, End Point
}

// lineTo returns the cubic equivalent to the segment [a, b].
func lineTo(a, b Point) Cubic {
	d := b.Sub(a)
	return Cubic{C1: a.Add(d.Mul(1. / 3)), C2: a.Add(d.Mul(2. / 3)), End: b}
}

// isLine returns true if the segment starting at `from`
// has its control points on the chord.
func (c Cubic) isLine(from Point) bool {
	d := c.End.Sub(from)
	l := d.Len()
	if l < epsilon {
		return c.C1.Sub(from).Len() < epsilon && c.C2.Sub(from).Len() < epsilon
	}
	tol := 1e-7 * (1 + l)
	return abs(d.Cross(c.C1.Sub(from)))/l < tol && abs(d.Cross(c.C2.Sub(from)))/l < tol
}

// Subpath is a connected sequence of segments.
type Subpath struct {
	Start    Point
	Segments []Cubic
	Closed   bool
}

// End returns the last point of the subpath.
func (s Subpath) End() Point {
	if len(s.Segments) == 0 {
		return s.Start
	}
	return s.Segments[len(s.Segments)-1].End
}

// Path is the canonical geometry of the simplified tree:
// a list of subpaths made only of cubic segments.
// The zero value is an empty path, ready to use.
type Path []Subpath

// IsEmpty returns true if the path has no segment.
func (p Path) IsEmpty() bool {
	for _, sp := range p {
		if len(sp.Segments) != 0 {
			return false
		}
	}
	return true
}

// Start starts a new subpath at the given point.
// A previous subpath without segments is discarded.
func (p *Path) Start(a Point) {
	if n := len(*p); n != 0 && len((*p)[n-1].Segments) == 0 && !(*p)[n-1].Closed {
		(*p)[n-1].Start = a
		return
	}
	*p = append(*p, Subpath{Start: a})
}

// current returns the subpath being built, starting
// one at the origin if needed.
func (p *Path) current() *Subpath {
	if len(*p) == 0 || (*p)[len(*p)-1].Closed {
		var start Point
		if len(*p) != 0 {
			start = (*p)[len(*p)-1].Start
		}
		*p = append(*p, Subpath{Start: start})
	}
	return &(*p)[len(*p)-1]
}

// Line adds a linear segment to the current subpath.
func (p *Path) Line(b Point) {
	sp := p.current()
	sp.Segments = append(sp.Segments, lineTo(sp.End(), b))
}

// QuadBezier adds a quadratic segment to the current subpath,
// elevated to a cubic one.
func (p *Path) QuadBezier(b, c Point) {
	sp := p.current()
	a := sp.End()
	sp.Segments = append(sp.Segments, Cubic{
		C1:  a.Add(b.Sub(a).Mul(2. / 3)),
		C2:  c.Add(b.Sub(c).Mul(2. / 3)),
		End: c,
	})
}

// CubeBezier adds a cubic segment to the current subpath.
func (p *Path) CubeBezier(b, c, d Point) {
	sp := p.current()
	sp.Segments = append(sp.Segments, Cubic{C1: b, C2: c, End: d})
}

// Stop ends the current subpath. If closeLoop is true, the subpath is closed,
// adding the closing segment when the last point differs from the start.
// Closing a subpath without segments adds a zero length segment, so that
// caps are still drawn when stroking.
func (p *Path) Stop(closeLoop bool) {
	if !closeLoop || len(*p) == 0 {
		return
	}
	sp := &(*p)[len(*p)-1]
	if sp.Closed {
		return
	}
	if end := sp.End(); len(sp.Segments) == 0 || !end.near(sp.Start) {
		sp.Segments = append(sp.Segments, lineTo(end, sp.Start))
	}
	sp.Closed = true
}

// Append adds the subpaths of q to p.
func (p *Path) Append(q Path) {
	for _, sp := range q {
		*p = append(*p, sp.clone())
	}
}

func (s Subpath) clone() Subpath {
	s.Segments = append([]Cubic(nil), s.Segments...)
	return s
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	for i, sp := range p {
		out[i] = sp.clone()
	}
	return out
}

// Transform returns a new path, image of p by m.
func (p Path) Transform(m Matrix2D) Path {
	out := make(Path, len(p))
	for i, sp := range p {
		nsp := Subpath{Start: m.Transform(sp.Start), Closed: sp.Closed, Segments: make([]Cubic, len(sp.Segments))}
		for j, c := range sp.Segments {
			nsp.Segments[j] = Cubic{C1: m.Transform(c.C1), C2: m.Transform(c.C2), End: m.Transform(c.End)}
		}
		out[i] = nsp
	}
	return out
}

// AddTo adds the path to q, after applying the transform m.
func (p Path) AddTo(q Adder, m Matrix2D) {
	for _, sp := range p {
		if len(sp.Segments) == 0 {
			continue
		}
		q.Start(m.TFixed(sp.Start))
		from := sp.Start
		for _, c := range sp.Segments {
			if c.isLine(from) {
				q.Line(m.TFixed(c.End))
			} else {
				q.CubeBezier(m.TFixed(c.C1), m.TFixed(c.C2), m.TFixed(c.End))
			}
			from = c.End
		}
		q.Stop(sp.Closed)
	}
}

// ToSVGPath returns a path data string equivalent to the path,
// using only absolute M, L, C and Z commands.
func (p Path) ToSVGPath() string {
	var chunks []string
	for _, sp := range p {
		if len(sp.Segments) == 0 {
			continue
		}
		chunks = append(chunks, "M"+sp.Start.String())
		from := sp.Start
		for i, c := range sp.Segments {
			if sp.Closed && i == len(sp.Segments)-1 && c.End.near(sp.Start) && c.isLine(from) && i > 0 {
				break // implied by Z
			}
			if c.isLine(from) {
				chunks = append(chunks, "L"+c.End.String())
			} else {
				chunks = append(chunks, "C"+c.C1.String()+" "+c.C2.String()+" "+c.End.String())
			}
			from = c.End
		}
		if sp.Closed {
			chunks = append(chunks, "Z")
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
