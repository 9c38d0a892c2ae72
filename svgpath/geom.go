package svgpath

import (
	"math"
	"strconv"
)

// Point is a position or a vector, in user units.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Mul(f float64) Point { return Point{p.X * f, p.Y * f} }

func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product p × q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Normal returns p rotated by 90 degrees (counter clockwise in a y-up frame).
func (p Point) Normal() Point { return Point{-p.Y, p.X} }

// Unit returns p scaled to unit length, or the zero vector
// if p is (almost) zero.
func (p Point) Unit() Point {
	l := p.Len()
	if l < 1e-12 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Lerp interpolates between p (t = 0) and q (t = 1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

func (p Point) near(q Point) bool {
	return math.Abs(p.X-q.X) < epsilon && math.Abs(p.Y-q.Y) < epsilon
}

func (p Point) String() string { return fmtFloat(p.X) + "," + fmtFloat(p.Y) }

// epsilon is the distance under which two points are considered equal.
const epsilon = 1e-9

// Rect is an axis aligned rectangle. A rectangle with zero width
// or height is valid : it is the bounding box of a horizontal or vertical line.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// IsEmpty returns true if r has no area.
func (r Rect) IsEmpty() bool { return !(r.W > 0 && r.H > 0) }

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	x0, y0 := math.Min(r.X, s.X), math.Min(r.Y, s.Y)
	x1, y1 := math.Max(r.MaxX(), s.MaxX()), math.Max(r.MaxY(), s.MaxY())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Intersect returns the intersection of r and s,
// and false if it is empty.
func (r Rect) Intersect(s Rect) (Rect, bool) {
	x0, y0 := math.Max(r.X, s.X), math.Max(r.Y, s.Y)
	x1, y1 := math.Min(r.MaxX(), s.MaxX()), math.Min(r.MaxY(), s.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{x0, y0, x1 - x0, y1 - y0}, true
}

// Transform returns the bounding box of the image of r by m.
func (r Rect) Transform(m Matrix2D) Rect {
	var b bounds
	b.add(m.Transform(Point{r.X, r.Y}))
	b.add(m.Transform(Point{r.MaxX(), r.Y}))
	b.add(m.Transform(Point{r.MaxX(), r.MaxY()}))
	b.add(m.Transform(Point{r.X, r.MaxY()}))
	return b.rect()
}

// Path returns the closed, clockwise outline of r.
func (r Rect) Path() Path {
	return NewRect(r.X, r.Y, r.W, r.H, 0, 0)
}

func (r Rect) String() string {
	return fmtFloat(r.X) + " " + fmtFloat(r.Y) + " " + fmtFloat(r.W) + " " + fmtFloat(r.H)
}

// bounds accumulates points.
type bounds struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b *bounds) add(p Point) {
	if !b.ok {
		b.minX, b.maxX, b.minY, b.maxY = p.X, p.X, p.Y, p.Y
		b.ok = true
		return
	}
	b.minX = math.Min(b.minX, p.X)
	b.maxX = math.Max(b.maxX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxY = math.Max(b.maxY, p.Y)
}

func (b bounds) rect() Rect {
	return Rect{b.minX, b.minY, b.maxX - b.minX, b.maxY - b.minY}
}

// fmtFloat writes f with at most 6 decimals and no trailing zeros.
func fmtFloat(f float64) string {
	f = math.Round(f*1e6) / 1e6
	if f == 0 { // avoid -0
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatFloat is the number formatting used when writing paths
// and attributes.
func FormatFloat(f float64) string { return fmtFloat(f) }
