package svgtree

import (
	"image/color"

	"github.com/benoitkugler/microsvg/svgpath"
)

// ClipPath restricts the painted area to its content. Each path of the
// content is filled with an opaque color and its clip rule, so that
// rendering Root gives the clipping coverage.
type ClipPath struct {
	ID string
	// Transform maps the clip content to the user space of the clipped
	// element (transform attribute and bounding box units).
	Transform svgpath.Matrix2D
	Root      *Group
	// Clip is the clip path applied to this one (intersection).
	Clip *ClipPath
}

// SinglePath returns the path and its transform (relative to the
// clip space) when the clip is made of exactly one plain path,
// allowing to use a clip region instead of a layer.
func (cp *ClipPath) SinglePath() (*Path, svgpath.Matrix2D, bool) {
	if cp.Clip != nil {
		return nil, svgpath.Matrix2D{}, false
	}
	g, m := cp.Root, cp.Transform
	for {
		if g.Clip != nil || g.Mask != nil || g.Filter != nil || len(g.Children) != 1 {
			return nil, svgpath.Matrix2D{}, false
		}
		m = m.Mult(g.Transform)
		switch child := g.Children[0].(type) {
		case *Group:
			g = child
		case *Path:
			if child.Clip != nil || child.Mask != nil || child.Filter != nil || child.Fill == nil {
				return nil, svgpath.Matrix2D{}, false
			}
			return child, m.Mult(child.Transform), true
		default:
			return nil, svgpath.Matrix2D{}, false
		}
	}
}

// Mask modulates the painted area with the luminance of its content.
type Mask struct {
	ID           string
	Units        Units        // as declared
	ContentUnits Units        // as declared
	Rect         svgpath.Rect // region, in user space
	// Root is expressed in user space, its transform including
	// the bounding box mapping if needed.
	Root *Group
	// Mask is applied to this mask content.
	Mask *Mask
}

// Filter is a resolved filter graph: primitives are given in
// evaluation order and only reference earlier results.
type Filter struct {
	ID             string
	Units          Units        // as declared
	PrimitiveUnits Units        // as declared
	Rect           svgpath.Rect // region, in user space
	Primitives     []FilterPrimitive
}

// ColorSpace is the color space in which a filter primitive operates.
type ColorSpace uint8

const (
	LinearRGB ColorSpace = iota // initial value
	SRGB
)

func (c ColorSpace) String() string {
	if c == SRGB {
		return "sRGB"
	}
	return "linearRGB"
}

// InputKind identifies the image consumed by a filter primitive.
type InputKind uint8

const (
	SourceGraphic InputKind = iota
	SourceAlpha
	BackgroundImage
	BackgroundAlpha
	FillPaint
	StrokePaint
	// Reference is the result of an earlier primitive.
	Reference
)

// Input is a filter primitive input.
type Input struct {
	Kind InputKind
	Name string // for Reference
}

var inputNames = [...]string{
	SourceGraphic:   "SourceGraphic",
	SourceAlpha:     "SourceAlpha",
	BackgroundImage: "BackgroundImage",
	BackgroundAlpha: "BackgroundAlpha",
	FillPaint:       "FillPaint",
	StrokePaint:     "StrokePaint",
}

func (in Input) String() string {
	if in.Kind == Reference {
		return in.Name
	}
	return inputNames[in.Kind]
}

// ParseStandardInput returns the input for the keywords SourceGraphic,
// SourceAlpha, BackgroundImage, BackgroundAlpha, FillPaint and StrokePaint.
func ParseStandardInput(s string) (Input, bool) {
	for i, name := range inputNames {
		if name == s {
			return Input{Kind: InputKind(i)}, true
		}
	}
	return Input{}, false
}

// FilterPrimitive is one node of the filter graph.
type FilterPrimitive struct {
	Rect       svgpath.Rect // subregion, in user space
	ColorSpace ColorSpace
	Result     string // always set, unique in the filter
	Kind       FilterKind
}

// FilterKind is the operation performed by a primitive,
// one of the Fe... types.
type FilterKind interface {
	// Inputs returns the images read by the primitive.
	Inputs() []Input
}

// FeGaussianBlur blurs its input.
type FeGaussianBlur struct {
	In               Input
	StdDevX, StdDevY float64
}

// FeOffset translates its input.
type FeOffset struct {
	In     Input
	DX, DY float64
}

// FeFlood fills the subregion.
type FeFlood struct {
	Color   color.NRGBA
	Opacity float64
}

// FeBlend blends In over In2.
type FeBlend struct {
	In, In2 Input
	Mode    BlendMode
}

// CompositeOperator is the operator of feComposite.
type CompositeOperator uint8

const (
	CompositeOver CompositeOperator = iota
	CompositeIn
	CompositeOut
	CompositeAtop
	CompositeXor
	CompositeArithmetic
)

func (op CompositeOperator) String() string {
	switch op {
	case CompositeOver:
		return "over"
	case CompositeIn:
		return "in"
	case CompositeOut:
		return "out"
	case CompositeAtop:
		return "atop"
	case CompositeXor:
		return "xor"
	case CompositeArithmetic:
		return "arithmetic"
	default:
		return "<unknown CompositeOperator>"
	}
}

// FeComposite combines In and In2.
type FeComposite struct {
	In, In2        Input
	Operator       CompositeOperator
	K1, K2, K3, K4 float64 // arithmetic only
}

// FeMerge composites its inputs in order.
type FeMerge struct {
	In []Input
}

// FeColorMatrix applies a 4x5 matrix to the (non premultiplied)
// R, G, B, A components. Saturate, hueRotate and luminanceToAlpha
// are resolved to their matrix.
type FeColorMatrix struct {
	In     Input
	Matrix [20]float64
}

// TransferKind is the type of a transfer function.
type TransferKind uint8

const (
	TransferIdentity TransferKind = iota
	TransferTable
	TransferDiscrete
	TransferLinear
	TransferGamma
)

// TransferFunc is a component transfer function.
type TransferFunc struct {
	Kind                        TransferKind
	Table                       []float64 // table and discrete
	Slope, Intercept            float64   // linear
	Amplitude, Exponent, Offset float64   // gamma
}

// FeComponentTransfer remaps each component with its function.
type FeComponentTransfer struct {
	In         Input
	R, G, B, A TransferFunc
}

// MorphologyOperator is erode or dilate.
type MorphologyOperator uint8

const (
	Erode MorphologyOperator = iota
	Dilate
)

// FeMorphology thins or fattens its input.
type FeMorphology struct {
	In               Input
	Operator         MorphologyOperator
	RadiusX, RadiusY float64
}

// Channel is a color channel.
type Channel uint8

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

// FeDisplacementMap moves the pixels of In according to In2.
type FeDisplacementMap struct {
	In, In2            Input
	Scale              float64
	XChannel, YChannel Channel
}

// FeTurbulence generates Perlin noise.
type FeTurbulence struct {
	BaseFrequencyX, BaseFrequencyY float64
	NumOctaves                     int
	Seed                           float64
	StitchTiles                    bool
	FractalNoise                   bool // instead of turbulence
}

// FeTile repeats the subregion of its input.
type FeTile struct {
	In Input
}

// FeImage renders a node, in the user space of the filtered element.
type FeImage struct {
	Node Node // nil for an empty image
}

// EdgeMode is the way the borders are extended by feConvolveMatrix.
type EdgeMode uint8

const (
	EdgeDuplicate EdgeMode = iota
	EdgeWrap
	EdgeNone
)

// FeConvolveMatrix applies a convolution kernel.
type FeConvolveMatrix struct {
	In               Input
	OrderX, OrderY   int
	Kernel           []float64 // OrderX * OrderY values, row major
	Divisor, Bias    float64
	TargetX, TargetY int
	Edge             EdgeMode
	PreserveAlpha    bool
}

// FePassThrough copies its input; it replaces primitives
// which could not be resolved.
type FePassThrough struct {
	In Input
}

func (f FeGaussianBlur) Inputs() []Input      { return []Input{f.In} }
func (f FeOffset) Inputs() []Input            { return []Input{f.In} }
func (FeFlood) Inputs() []Input               { return nil }
func (f FeBlend) Inputs() []Input             { return []Input{f.In, f.In2} }
func (f FeComposite) Inputs() []Input         { return []Input{f.In, f.In2} }
func (f FeMerge) Inputs() []Input             { return f.In }
func (f FeColorMatrix) Inputs() []Input       { return []Input{f.In} }
func (f FeComponentTransfer) Inputs() []Input { return []Input{f.In} }
func (f FeMorphology) Inputs() []Input        { return []Input{f.In} }
func (f FeDisplacementMap) Inputs() []Input   { return []Input{f.In, f.In2} }
func (FeTurbulence) Inputs() []Input          { return nil }
func (f FeTile) Inputs() []Input              { return []Input{f.In} }
func (FeImage) Inputs() []Input               { return nil }
func (f FeConvolveMatrix) Inputs() []Input    { return []Input{f.In} }
func (f FePassThrough) Inputs() []Input       { return []Input{f.In} }
