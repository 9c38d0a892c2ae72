package svgpath

import "math"

// maxFlattenSegments bounds the number of lines used for one cubic.
const maxFlattenSegments = 1000

// Polyline is a flattened subpath.
type Polyline struct {
	Points []Point
	Closed bool

	corners []bool // true when the point ends a segment of the original path
	dir     Point  // direction of a zero length polyline, if known
}

// Flatten approximates the path by polylines, within tolerance.
// Consecutive duplicate points are merged. For closed subpaths,
// the closing point is not repeated.
func (p Path) Flatten(tolerance float64) []Polyline {
	return p.flatten(tolerance, 0)
}

// flatten also subdivides curves so that consecutive lines turn
// by at most maxAngle radians, when maxAngle is positive.
func (p Path) flatten(tolerance, maxAngle float64) []Polyline {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var out []Polyline
	for _, sp := range p {
		if len(sp.Segments) == 0 {
			continue
		}
		pl := Polyline{Closed: sp.Closed}
		pl.add(sp.Start, true)
		from := sp.Start
		for _, c := range sp.Segments {
			if c.isLine(from) {
				pl.add(c.End, true)
			} else {
				n := flattenCount(from, c, tolerance, maxAngle)
				for i := 1; i < n; i++ {
					pl.add(c.pointAt(from, float64(i)/float64(n)), false)
				}
				pl.add(c.End, true)
			}
			if pl.dir == (Point{}) {
				pl.dir = c.C1.Sub(from).Unit()
			}
			from = c.End
		}
		if pl.Closed && len(pl.Points) > 1 && pl.Points[len(pl.Points)-1].near(pl.Points[0]) {
			pl.Points = pl.Points[:len(pl.Points)-1]
			pl.corners = pl.corners[:len(pl.corners)-1]
		}
		out = append(out, pl)
	}
	return out
}

func (pl *Polyline) add(pt Point, corner bool) {
	if n := len(pl.Points); n != 0 && pl.Points[n-1].near(pt) {
		pl.corners[n-1] = pl.corners[n-1] || corner
		return
	}
	pl.Points = append(pl.Points, pt)
	pl.corners = append(pl.corners, corner)
}

// flattenCount uses Wang's formula to choose the number of lines
// approximating the cubic within tolerance.
func flattenCount(from Point, c Cubic, tolerance, maxAngle float64) int {
	dd1 := from.Sub(c.C1.Mul(2)).Add(c.C2).Len()
	dd2 := c.C1.Sub(c.C2.Mul(2)).Add(c.End).Len()
	m := math.Max(dd1, dd2)
	n := int(math.Ceil(math.Sqrt(0.75 * m / tolerance)))
	if maxAngle > 0 {
		turn := turnAngle(c.C1.Sub(from), c.C2.Sub(c.C1)) + turnAngle(c.C2.Sub(c.C1), c.End.Sub(c.C2))
		if k := int(math.Ceil(turn / maxAngle)); k > n {
			n = k
		}
	}
	if n < 1 {
		n = 1
	} else if n > maxFlattenSegments {
		n = maxFlattenSegments
	}
	return n
}

// turnAngle returns the absolute angle between u and v, or 0
// if one of them is null.
func turnAngle(u, v Point) float64 {
	if u.Len() < epsilon || v.Len() < epsilon {
		return 0
	}
	return math.Abs(math.Atan2(u.Cross(v), u.Dot(v)))
}

// Length returns the length of the path, measured on its flattening.
func (p Path) Length(tolerance float64) float64 {
	var l float64
	for _, pl := range p.Flatten(tolerance) {
		l += pl.length()
	}
	return l
}

func (pl Polyline) length() float64 {
	var l float64
	for i := 1; i < len(pl.Points); i++ {
		l += pl.Points[i].Sub(pl.Points[i-1]).Len()
	}
	if pl.Closed && len(pl.Points) > 1 {
		l += pl.Points[0].Sub(pl.Points[len(pl.Points)-1]).Len()
	}
	return l
}

// toPath converts polylines back to a path made of lines.
func polylinesToPath(pls []Polyline) Path {
	var p Path
	for _, pl := range pls {
		if len(pl.Points) == 0 {
			continue
		}
		p.Start(pl.Points[0])
		for _, pt := range pl.Points[1:] {
			p.Line(pt)
		}
		if len(pl.Points) == 1 {
			p.Line(pl.Points[0])
		}
		p.Stop(pl.Closed)
	}
	return p
}
