package svgpath

import "math"

// compute the exact bounding box of a path, needed for the objectBoundingBox units

// BBoxKind selects which bounding box is computed.
type BBoxKind uint8

const (
	// FillBBox is the bounding box of the geometry itself.
	FillBBox BBoxKind = iota
	// StrokeBBox is the bounding box of the stroked outline.
	StrokeBBox
)

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// derivative of the cubic polinomial, taken as at^2 + bt + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

// quadraticRoots returns the real roots of at^2 + bt + c.
func quadraticRoots(a, b, c float64) []float64 {
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) < 1e-12 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

// extend adds to b the exact extent of the segment starting at `from`.
func (c Cubic) extend(from Point, b *bounds) {
	b.add(c.End)
	if c.isLine(from) {
		return
	}
	aX, bX, cX := cubicDerivative(from.X, c.C1.X, c.C2.X, c.End.X)
	aY, bY, cY := cubicDerivative(from.Y, c.C1.Y, c.C2.Y, c.End.Y)
	for _, t := range append(quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)...) {
		// filter invalid value
		if !(0 < t && t < 1) {
			continue
		}
		b.add(c.pointAt(from, t))
	}
}

// pointAt evaluates the segment starting at `from` at time t.
func (c Cubic) pointAt(from Point, t float64) Point {
	return Point{
		bezierSpline(from.X, c.C1.X, c.C2.X, c.End.X, t),
		bezierSpline(from.Y, c.C1.Y, c.C2.Y, c.End.Y, t),
	}
}

// Bounds returns the exact bounding box of the path geometry,
// and false for a path without segments.
func (p Path) Bounds() (Rect, bool) {
	var b bounds
	for _, sp := range p {
		if len(sp.Segments) == 0 {
			continue
		}
		b.add(sp.Start)
		from := sp.Start
		for _, c := range sp.Segments {
			c.extend(from, &b)
			from = c.End
		}
	}
	return b.rect(), b.ok
}

// StrokeBounds returns the bounding box of the area covered when
// stroking the path with the given style.
func (p Path) StrokeBounds(style StrokeStyle, tolerance float64) (Rect, bool) {
	return Stroke(p, style, tolerance).Bounds()
}

// BBox returns the bounding box of the given kind. The stroke
// style is only used for StrokeBBox; a nil style gives the fill box.
func (p Path) BBox(kind BBoxKind, style *StrokeStyle, tolerance float64) (Rect, bool) {
	if kind == StrokeBBox && style != nil && style.Width > 0 {
		return p.StrokeBounds(*style, tolerance)
	}
	return p.Bounds()
}
