package svgpath

import "math"

// This file implements the conversion of a stroke to the outline
// of the area it covers. The outline is made of one closed subpath
// per segment, join and cap, all with the same orientation, so that
// filling it with the nonzero rule yields their union.

// smoothJoinAngle is the maximal turn between two lines of a flattened curve.
const smoothJoinAngle = math.Pi / 16

// Stroke returns the outline of the area covered by stroking p with
// the given style, to be filled with the NonZero rule.
// A stroke of zero (or negative) width gives an empty path.
func Stroke(p Path, style StrokeStyle, tolerance float64) Path {
	if !(style.Width > 0) {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	s := stroker{style: style, hw: style.Width / 2}
	if s.style.MiterLimit < 1 {
		s.style.MiterLimit = 1
	}
	lines := p.flatten(tolerance, smoothJoinAngle)
	if pattern := style.dashFor(lines); pattern != nil {
		lines = dashPolylines(lines, pattern, style.DashOffset)
	}
	for _, pl := range lines {
		s.polyline(pl)
	}
	return s.out
}

type stroker struct {
	style StrokeStyle
	hw    float64 // half width
	out   Path
}

// polygon adds a closed piece, reversed if needed so that
// all pieces share the orientation of the segment pieces.
func (s *stroker) polygon(pts ...Point) {
	var area float64
	for i, p := range pts {
		area += p.Cross(pts[(i+1)%len(pts)])
	}
	if area > 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	sp := Subpath{Start: pts[0]}
	for _, p := range pts[1:] {
		sp.Segments = append(sp.Segments, lineTo(sp.End(), p))
	}
	sp.Segments = append(sp.Segments, lineTo(sp.End(), sp.Start))
	sp.Closed = true
	s.out = append(s.out, sp)
}

// pie adds the circular sector centered on c, starting at angle a0
// and sweeping `sweep` radians.
func (s *stroker) pie(c Point, a0, sweep float64) {
	if sweep > 0 { // enforce the orientation
		a0, sweep = a0+sweep, -sweep
	}
	sin, cos := math.Sincos(a0)
	sp := Subpath{Start: c}
	sp.Segments = append(sp.Segments, lineTo(c, Point{c.X + s.hw*cos, c.Y + s.hw*sin}))
	sp.circularArc(c, s.hw, a0, sweep)
	sp.Segments = append(sp.Segments, lineTo(sp.End(), c))
	sp.Closed = true
	s.out = append(s.out, sp)
}

// dot handles zero length subpaths, which only show with
// round or square caps.
func (s *stroker) dot(c, dir Point) {
	switch s.style.Cap {
	case RoundCap:
		s.pie(c, 0, -2*math.Pi)
	case SquareCap:
		if dir == (Point{}) {
			dir = Point{1, 0}
		}
		t, n := dir.Mul(s.hw), dir.Normal().Mul(s.hw)
		s.polygon(c.Add(t).Add(n), c.Add(t).Sub(n), c.Sub(t).Sub(n), c.Sub(t).Add(n))
	}
}

func (s *stroker) polyline(pl Polyline) {
	pts := pl.Points
	if len(pts) == 1 {
		s.dot(pts[0], pl.dir)
		return
	}
	if len(pts) == 0 {
		return
	}
	n := len(pts)
	nbSegs := n - 1
	if pl.Closed {
		nbSegs = n
	}
	for i := 0; i < nbSegs; i++ {
		s.segment(pts[i], pts[(i+1)%n])
	}
	tangent := func(i int) Point { return pts[(i+1)%n].Sub(pts[i]).Unit() }
	if pl.Closed {
		for i := 0; i < n; i++ {
			prev := (i - 1 + n) % n
			s.join(pts[i], tangent(prev), tangent(i), pl.corners[i])
		}
		return
	}
	for i := 1; i < n-1; i++ {
		s.join(pts[i], tangent(i-1), tangent(i), pl.corners[i])
	}
	s.cap(pts[0], tangent(0).Mul(-1))
	s.cap(pts[n-1], tangent(n-2))
}

// segment adds the rectangle swept by the segment [a, b].
func (s *stroker) segment(a, b Point) {
	n := b.Sub(a).Unit().Normal().Mul(s.hw)
	s.polygon(a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
}

// cap adds the cap at the end point p, t being the unit
// tangent pointing outside the path.
func (s *stroker) cap(p, t Point) {
	n := t.Normal()
	switch s.style.Cap {
	case RoundCap:
		s.pie(p, math.Atan2(n.Y, n.X), -math.Pi)
	case SquareCap:
		n, t = n.Mul(s.hw), t.Mul(s.hw)
		s.polygon(p.Add(n), p.Add(n).Add(t), p.Sub(n).Add(t), p.Sub(n))
	}
}

// join adds the join at vertex v between the incoming unit tangent t1
// and the outgoing one t2. Vertices inside a flattened curve
// are always joined smoothly.
func (s *stroker) join(v, t1, t2 Point, corner bool) {
	cross, dot := t1.Cross(t2), t1.Dot(t2)
	if math.Abs(cross) < 1e-9 && dot > 0 {
		return // collinear
	}
	// outer side of the corner
	side := 1.
	if cross > 0 {
		side = -1
	}
	n1, n2 := t1.Normal().Mul(side*s.hw), t2.Normal().Mul(side*s.hw)
	p1, p2 := v.Add(n1), v.Add(n2)
	theta := math.Abs(math.Atan2(cross, dot))

	mode := s.style.Join
	if !corner {
		mode = RoundJoin
	}
	switch mode {
	case MiterJoin:
		cosHalf := math.Sqrt((1 + dot) / 2)
		if cosHalf < 1e-9 || 1/cosHalf > s.style.MiterLimit {
			s.polygon(v, p1, p2) // bevel fallback
			return
		}
		bisector := n1.Add(n2).Unit()
		tip := v.Add(bisector.Mul(s.hw / cosHalf))
		s.polygon(v, p1, tip, p2)
	case RoundJoin:
		s.pie(v, math.Atan2(n1.Y, n1.X), -side*theta)
	case BevelJoin:
		s.polygon(v, p1, p2)
	}
}
