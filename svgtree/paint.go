package svgtree

import (
	"image/color"

	"github.com/benoitkugler/microsvg/svgpath"
)

// Paint is one of PlainColor, *LinearGradient, *RadialGradient or *Pattern.
// A nil Paint means none.
type Paint interface {
	isPaint()
}

func (PlainColor) isPaint()      {}
func (*LinearGradient) isPaint() {}
func (*RadialGradient) isPaint() {}
func (*Pattern) isPaint()        {}

// PlainColor is an uniform, non premultiplied color.
type PlainColor color.NRGBA

// RGBA implements color.Color.
func (c PlainColor) RGBA() (r, g, b, a uint32) { return color.NRGBA(c).RGBA() }

// Units is the coordinate system of a definition's attributes.
type Units uint8

const (
	UserSpaceOnUse Units = iota
	ObjectBoundingBox
)

func (u Units) String() string {
	switch u {
	case UserSpaceOnUse:
		return "userSpaceOnUse"
	case ObjectBoundingBox:
		return "objectBoundingBox"
	default:
		return "<unknown Units>"
	}
}

// SpreadMethod decides how a gradient is drawn outside its bounds.
type SpreadMethod uint8

const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

func (s SpreadMethod) String() string {
	switch s {
	case PadSpread:
		return "pad"
	case ReflectSpread:
		return "reflect"
	case RepeatSpread:
		return "repeat"
	default:
		return "<unknown SpreadMethod>"
	}
}

// GradientStop is a color at a given offset, in [0, 1].
// Stops of a gradient have non decreasing offsets.
type GradientStop struct {
	Offset  float64
	Color   color.NRGBA
	Opacity float64
}

// Gradient gathers the fields common to linear and radial gradients.
type Gradient struct {
	ID     string // label only
	Stops  []GradientStop
	Spread SpreadMethod
	Units  Units // as declared; the geometry is already resolved
	// Transform maps the gradient geometry to the user space of
	// the painted element. It includes the bounding box mapping when
	// it could not be folded into the geometry.
	Transform svgpath.Matrix2D
}

// LinearGradient is a resolved linear gradient.
type LinearGradient struct {
	Gradient
	X1, Y1, X2, Y2 float64
}

// Absolute returns the start and end points in user space.
func (lg *LinearGradient) Absolute() (start, end svgpath.Point) {
	start = lg.Transform.Transform(svgpath.Point{X: lg.X1, Y: lg.Y1})
	end = lg.Transform.Transform(svgpath.Point{X: lg.X2, Y: lg.Y2})
	return start, end
}

// RadialGradient is a resolved radial gradient.
type RadialGradient struct {
	Gradient
	CX, CY, R float64
	FX, FY    float64 // focal point
}

// Absolute returns the center, focal point and radius in user space.
// The radius is only exact when Transform is a similarity.
func (rg *RadialGradient) Absolute() (center, focal svgpath.Point, r float64) {
	center = rg.Transform.Transform(svgpath.Point{X: rg.CX, Y: rg.CY})
	focal = rg.Transform.Transform(svgpath.Point{X: rg.FX, Y: rg.FY})
	return center, focal, rg.R * rg.Transform.MeanScale()
}

// Pattern is a resolved pattern: the Content group is repeated
// with a period given by Rect.
type Pattern struct {
	ID           string
	Units        Units // as declared
	ContentUnits Units // as declared
	// Rect is the first tile, in pattern space.
	Rect svgpath.Rect
	// Transform maps the pattern space to the user space
	// of the painted element.
	Transform svgpath.Matrix2D
	// Content is expressed in pattern space, with its
	// transform including the viewBox or bounding box mapping.
	Content *Group
}
