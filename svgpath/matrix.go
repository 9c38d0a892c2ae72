package svgpath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Matrix2D represents the affine transform
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
//
// as used by the SVG transform attribute.
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity transform.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Mult returns a * b, that is the transform applying b first, then a.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate post-multiplies a by a translation, following
// the semantic of transform lists.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale post-multiplies a by a scaling.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate post-multiplies a by a rotation of theta radians.
func (a Matrix2D) Rotate(theta float64) Matrix2D {
	s, c := math.Sincos(theta)
	return a.Mult(Matrix2D{c, s, -s, c, 0, 0})
}

// SkewX post-multiplies a by a skew along the x axis, theta in radians.
func (a Matrix2D) SkewX(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, math.Tan(theta), 1, 0, 0})
}

// SkewY post-multiplies a by a skew along the y axis, theta in radians.
func (a Matrix2D) SkewY(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, math.Tan(theta), 0, 1, 0, 0})
}

// Determinant returns AD - BC.
func (a Matrix2D) Determinant() float64 { return a.A*a.D - a.B*a.C }

// Invert returns the inverse of a, and false if a is singular.
func (a Matrix2D) Invert() (Matrix2D, bool) {
	det := a.Determinant()
	if math.Abs(det) < 1e-12 {
		return Identity, false
	}
	return Matrix2D{
		A: a.D / det,
		B: -a.B / det,
		C: -a.C / det,
		D: a.A / det,
		E: (a.C*a.F - a.D*a.E) / det,
		F: (a.B*a.E - a.A*a.F) / det,
	}, true
}

// Transform applies a to the point p.
func (a Matrix2D) Transform(p Point) Point {
	return Point{a.A*p.X + a.C*p.Y + a.E, a.B*p.X + a.D*p.Y + a.F}
}

// TransformVector applies the linear part of a to v.
func (a Matrix2D) TransformVector(v Point) Point {
	return Point{a.A*v.X + a.C*v.Y, a.B*v.X + a.D*v.Y}
}

// TFixed applies a to p and converts the result to fixed point.
func (a Matrix2D) TFixed(p Point) fixed.Point26_6 {
	q := a.Transform(p)
	return fixed.Point26_6{X: fixed.Int26_6(q.X * 64), Y: fixed.Int26_6(q.Y * 64)}
}

// IsIdentity returns true if a is (almost) the identity.
func (a Matrix2D) IsIdentity() bool {
	const eps = 1e-9
	return math.Abs(a.A-1) < eps && math.Abs(a.B) < eps && math.Abs(a.C) < eps &&
		math.Abs(a.D-1) < eps && math.Abs(a.E) < eps && math.Abs(a.F) < eps
}

// ScaleFactors returns the length of the images of the unit vectors.
func (a Matrix2D) ScaleFactors() (sx, sy float64) {
	return math.Hypot(a.A, a.B), math.Hypot(a.C, a.D)
}

// MeanScale is the geometric mean of the scale factors, used
// to convert distances (like tolerances) between spaces.
func (a Matrix2D) MeanScale() float64 {
	return math.Sqrt(math.Abs(a.Determinant()))
}

// IsSimilarity returns true if a preserves angles and scales
// uniformly, so that a circle stays a circle.
func (a Matrix2D) IsSimilarity() bool {
	sx, sy := a.ScaleFactors()
	const eps = 1e-6
	return math.Abs(a.A*a.C+a.B*a.D) < eps*sx*sy && math.Abs(sx-sy) < eps*math.Max(sx, sy)
}

// IsInvertible returns false for degenerate transforms,
// which make the element they apply to invisible.
func (a Matrix2D) IsInvertible() bool {
	_, ok := a.Invert()
	return ok
}
