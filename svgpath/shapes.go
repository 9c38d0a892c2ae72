package svgpath

import (
	"math"
)

// This file implements the transformation from
// high level shapes to their path equivalent

// kappa is the distance of the control points, relative to the radius,
// of the cubic approximating a quarter of circle.
const kappa = 0.5522847498307936 // 4/3 * (sqrt(2) - 1)

// maxArcSegments bounds the number of cubics used for one arc.
const maxArcSegments = 64

// NewRect returns the outline of the rectangle with corners rounded by rx and ry.
// The radii are expected to be resolved (non negative, auto values replaced)
// and are clamped to half the size of the rectangle.
// A rectangle without area gives an empty path.
func NewRect(x, y, w, h, rx, ry float64) Path {
	var p Path
	if !(w > 0 && h > 0) {
		return p
	}
	rx, ry = math.Min(rx, w/2), math.Min(ry, h/2)
	if rx <= 0 || ry <= 0 {
		p.Start(Point{x, y})
		p.Line(Point{x + w, y})
		p.Line(Point{x + w, y + h})
		p.Line(Point{x, y + h})
		p.Stop(true)
		return p
	}
	kx, ky := rx*kappa, ry*kappa
	p.Start(Point{x + rx, y})
	p.Line(Point{x + w - rx, y})
	p.CubeBezier(Point{x + w - rx + kx, y}, Point{x + w, y + ry - ky}, Point{x + w, y + ry})
	p.Line(Point{x + w, y + h - ry})
	p.CubeBezier(Point{x + w, y + h - ry + ky}, Point{x + w - rx + kx, y + h}, Point{x + w - rx, y + h})
	p.Line(Point{x + rx, y + h})
	p.CubeBezier(Point{x + rx - kx, y + h}, Point{x, y + h - ry + ky}, Point{x, y + h - ry})
	p.Line(Point{x, y + ry})
	p.CubeBezier(Point{x, y + ry - ky}, Point{x + rx - kx, y}, Point{x + rx, y})
	p.Stop(true)
	return p
}

// NewEllipse returns the outline of the ellipse, made of four cubic segments,
// starting at the rightmost point. Null radii give an empty path.
func NewEllipse(cx, cy, rx, ry float64) Path {
	var p Path
	if !(rx > 0 && ry > 0) {
		return p
	}
	kx, ky := rx*kappa, ry*kappa
	p.Start(Point{cx + rx, cy})
	p.CubeBezier(Point{cx + rx, cy + ky}, Point{cx + kx, cy + ry}, Point{cx, cy + ry})
	p.CubeBezier(Point{cx - kx, cy + ry}, Point{cx - rx, cy + ky}, Point{cx - rx, cy})
	p.CubeBezier(Point{cx - rx, cy - ky}, Point{cx - kx, cy - ry}, Point{cx, cy - ry})
	p.CubeBezier(Point{cx + kx, cy - ry}, Point{cx + rx, cy - ky}, Point{cx + rx, cy})
	p.Stop(true)
	return p
}

// NewLine returns the open path [(x1, y1), (x2, y2)].
func NewLine(x1, y1, x2, y2 float64) Path {
	var p Path
	p.Start(Point{x1, y1})
	p.Line(Point{x2, y2})
	return p
}

// NewPolyline returns the open path joining the points given as
// a flat list of coordinates. An odd trailing coordinate is ignored,
// and less than two points give an empty path.
func NewPolyline(coords []float64) Path {
	var p Path
	if len(coords) < 4 {
		return p
	}
	p.Start(Point{coords[0], coords[1]})
	for i := 2; i+1 < len(coords); i += 2 {
		p.Line(Point{coords[i], coords[i+1]})
	}
	return p
}

// NewPolygon is the same as NewPolyline, but closes the path.
func NewPolygon(coords []float64) Path {
	p := NewPolyline(coords)
	p.Stop(true)
	return p
}

// Arc adds an elliptical arc from the current point to `end`, with the
// endpoint parameterization of the SVG arc command (rotation in degrees).
// Degenerate arcs follow the SVG rules: identical endpoints are omitted
// and a null radius gives a straight line.
func (p *Path) Arc(rx, ry, rotation float64, largeArc, sweep bool, end Point, tolerance float64) {
	start := p.current().End()
	if start.near(end) {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx < epsilon || ry < epsilon {
		p.Line(end)
		return
	}
	phi := rotation * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	// see SVG 1.1, F.6.5 : conversion from endpoint to center parameterization
	dx2, dy2 := (start.X-end.X)/2, (start.Y-end.Y)/2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	// correction of out-of-range radii (F.6.6)
	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx
	cx := cosPhi*cxp - sinPhi*cyp + (start.X+end.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (start.Y+end.Y)/2

	u := Point{(x1p - cxp) / rx, (y1p - cyp) / ry}
	v := Point{(-x1p - cxp) / rx, (-y1p - cyp) / ry}
	etaStart := math.Atan2(u.Y, u.X)
	deltaEta := math.Atan2(u.Cross(v), u.Dot(v))
	if !sweep && deltaEta > 0 {
		deltaEta -= 2 * math.Pi
	} else if sweep && deltaEta < 0 {
		deltaEta += 2 * math.Pi
	}

	p.addArc(rx, ry, sinPhi, cosPhi, cx, cy, etaStart, deltaEta, end, tolerance)
}

// arcSegments returns the number of cubics needed to approximate an arc
// spanning deltaEta radians on a circle of radius r, within tolerance.
func arcSegments(r, deltaEta, tolerance float64) int {
	segs := int(math.Ceil(math.Abs(deltaEta)/(math.Pi/2) - 1e-9))
	if segs < 1 {
		segs = 1
	}
	if tolerance <= 0 {
		return segs
	}
	for ; segs < maxArcSegments; segs++ {
		// maximum radial error of the cubic approximation of a circular arc
		q := math.Abs(deltaEta) / float64(segs) / 4
		s, c := math.Sin(q), math.Cos(q)
		if r*4/27*math.Pow(s, 6)/(c*c) <= tolerance {
			break
		}
	}
	return segs
}

// addArc approximates the ellipse using a set of cubic bezier curves by the method of
// L. Maisonobe, "Drawing an elliptical arc using polylines, quadratic
// or cubic Bezier curves", 2003
// https://www.spaceroots.org/documents/elllipse/elliptical-arc.pdf
func (p *Path) addArc(rx, ry, sinTheta, cosTheta, cx, cy, etaStart, deltaEta float64, end Point, tolerance float64) {
	segs := arcSegments(math.Max(rx, ry), deltaEta, tolerance)
	dEta := deltaEta / float64(segs) // span of each segment
	tde := math.Tan(dEta / 2)
	alpha := math.Sin(dEta) * (math.Sqrt(4+3*tde*tde) - 1) / 3
	l := p.current().End()
	ld := ellipsePrime(rx, ry, sinTheta, cosTheta, etaStart)
	for i := 1; i <= segs; i++ {
		eta := etaStart + dEta*float64(i)
		var pt Point
		if i == segs {
			pt = end // Just makes the end point exact; no roundoff error
		} else {
			pt = ellipsePointAt(rx, ry, sinTheta, cosTheta, eta, cx, cy)
		}
		d := ellipsePrime(rx, ry, sinTheta, cosTheta, eta)
		p.CubeBezier(l.Add(ld.Mul(alpha)), pt.Sub(d.Mul(alpha)), pt)
		l, ld = pt, d
	}
}

// ellipsePrime gives tangent vectors for parameterized elipse; a, b, radii, eta parameter
func ellipsePrime(a, b, sinTheta, cosTheta, eta float64) Point {
	bCosEta := b * math.Cos(eta)
	aSinEta := a * math.Sin(eta)
	return Point{-aSinEta*cosTheta - bCosEta*sinTheta, -aSinEta*sinTheta + bCosEta*cosTheta}
}

// ellipsePointAt gives points for parameterized elipse; a, b, radii, eta parameter, center cx, cy
func ellipsePointAt(a, b, sinTheta, cosTheta, eta, cx, cy float64) Point {
	aCosEta := a * math.Cos(eta)
	bSinEta := b * math.Sin(eta)
	return Point{cx + aCosEta*cosTheta - bSinEta*sinTheta, cy + aCosEta*sinTheta + bSinEta*cosTheta}
}

// circularArc adds to sp a circular arc centered on c, from the current end
// point (at angle a0) sweeping `sweep` radians, with at most a quarter
// turn per cubic.
func (sp *Subpath) circularArc(c Point, r, a0, sweep float64) {
	segs := int(math.Ceil(math.Abs(sweep)/(math.Pi/2) - 1e-9))
	if segs < 1 {
		segs = 1
	}
	da := sweep / float64(segs)
	k := 4. / 3 * math.Tan(da/4) * r
	for i := 0; i < segs; i++ {
		s0, c0 := math.Sincos(a0 + da*float64(i))
		s1, c1 := math.Sincos(a0 + da*float64(i+1))
		from := Point{c.X + r*c0, c.Y + r*s0}
		to := Point{c.X + r*c1, c.Y + r*s1}
		sp.Segments = append(sp.Segments, Cubic{
			C1:  from.Add(Point{-s0, c0}.Mul(k)),
			C2:  to.Sub(Point{-s1, c1}.Mul(k)),
			End: to,
		})
	}
}
