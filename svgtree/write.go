package svgtree

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
)

// This file implements the textual serialization of a tree ("Micro SVG"):
// one element per node, definitions written inline as children of the
// node using them, no id references and only absolute numbers.

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// WriteTo writes the tree as a Micro SVG document.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	mw := microWriter{enc: enc}
	mw.start("svg",
		attr("xmlns", "http://www.w3.org/2000/svg"),
		attrF("width", t.Width),
		attrF("height", t.Height),
		attr("viewBox", t.ViewBox.String()))
	if t.Root != nil {
		mw.node(t.Root)
	}
	mw.end("svg")
	if mw.err == nil {
		mw.err = enc.Flush()
	}
	if mw.err != nil {
		return cw.n, fmt.Errorf("writing micro svg: %w", mw.err)
	}
	return cw.n, nil
}

// String returns the Micro SVG serialization of t.
func (t *Tree) String() string {
	var b strings.Builder
	t.WriteTo(&b)
	return b.String()
}

type microWriter struct {
	enc *xml.Encoder
	err error
}

func attr(name, value string) xml.Attr { return xml.Attr{Name: xml.Name{Local: name}, Value: value} }

func attrF(name string, f float64) xml.Attr { return attr(name, svgpath.FormatFloat(f)) }

func floatList(fs []float64) string {
	chunks := make([]string, len(fs))
	for i, f := range fs {
		chunks[i] = svgpath.FormatFloat(f)
	}
	return strings.Join(chunks, " ")
}

func rectAttrs(r svgpath.Rect) []xml.Attr {
	return []xml.Attr{attrF("x", r.X), attrF("y", r.Y), attrF("width", r.W), attrF("height", r.H)}
}

func matrixString(m svgpath.Matrix2D) string {
	return "matrix(" + floatList([]float64{m.A, m.B, m.C, m.D, m.E, m.F}) + ")"
}

func colorString(r, g, b uint8) string { return fmt.Sprintf("#%02x%02x%02x", r, g, b) }

func (mw *microWriter) start(name string, attrs ...xml.Attr) {
	if mw.err != nil {
		return
	}
	mw.err = mw.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (mw *microWriter) end(name string) {
	if mw.err != nil {
		return
	}
	mw.err = mw.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (mw *microWriter) empty(name string, attrs ...xml.Attr) {
	mw.start(name, attrs...)
	mw.end(name)
}

func baseAttrs(b *Base) []xml.Attr {
	var attrs []xml.Attr
	if b.ID != "" {
		attrs = append(attrs, attr("id", b.ID))
	}
	if !b.Transform.IsIdentity() {
		attrs = append(attrs, attr("transform", matrixString(b.Transform)))
	}
	if b.Opacity != 1 {
		attrs = append(attrs, attrF("opacity", b.Opacity))
	}
	if b.Blend != BlendNormal {
		attrs = append(attrs, attr("mix-blend-mode", b.Blend.String()))
	}
	return attrs
}

func (mw *microWriter) effects(b *Base) {
	if b.Clip != nil {
		mw.clipPath(b.Clip)
	}
	if b.Mask != nil {
		mw.mask(b.Mask)
	}
	if b.Filter != nil {
		mw.filter(b.Filter)
	}
}

func (mw *microWriter) node(n Node) {
	switch n := n.(type) {
	case *Group:
		mw.start("g", baseAttrs(&n.Base)...)
		mw.effects(&n.Base)
		for _, child := range n.Children {
			mw.node(child)
		}
		mw.end("g")
	case *Path:
		attrs := append(baseAttrs(&n.Base), attr("d", n.Geometry.ToSVGPath()))
		var fillPaint, strokePaint Paint
		if n.Fill == nil {
			attrs = append(attrs, attr("fill", "none"))
		} else {
			attrs = append(attrs, paintAttrs("fill", n.Fill.Paint, n.Fill.Opacity)...)
			if n.Fill.Rule == svgpath.EvenOdd {
				attrs = append(attrs, attr("fill-rule", "evenodd"))
			}
			fillPaint = n.Fill.Paint
		}
		if n.Stroke != nil {
			attrs = append(attrs, paintAttrs("stroke", n.Stroke.Paint, n.Stroke.Opacity)...)
			attrs = append(attrs, strokeAttrs(n.Stroke.Style)...)
			strokePaint = n.Stroke.Paint
		}
		if n.Rendering == RenderCrispEdges {
			attrs = append(attrs, attr("shape-rendering", "crispEdges"))
		} else if n.Rendering == RenderOptimizeSpeed {
			attrs = append(attrs, attr("shape-rendering", "optimizeSpeed"))
		}
		mw.start("path", attrs...)
		mw.effects(&n.Base)
		mw.paintServer("fill", fillPaint)
		mw.paintServer("stroke", strokePaint)
		mw.end("path")
	case *Image:
		attrs := append(baseAttrs(&n.Base), rectAttrs(n.Rect)...)
		attrs = append(attrs, attr("viewport", n.Viewport.String()))
		if !n.Smooth {
			attrs = append(attrs, attr("image-rendering", "optimizeSpeed"))
		}
		if n.Data != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, n.Data); err == nil {
				attrs = append(attrs, attr("href", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes())))
			}
		}
		mw.start("image", attrs...)
		mw.effects(&n.Base)
		mw.end("image")
	}
}

// paintAttrs returns the attributes for plain colors; other paints
// are written as child elements.
func paintAttrs(prefix string, p Paint, opacity float64) []xml.Attr {
	switch p := p.(type) {
	case nil:
		return []xml.Attr{attr(prefix, "none")}
	case PlainColor:
		attrs := []xml.Attr{attr(prefix, colorString(p.R, p.G, p.B))}
		if op := opacity * float64(p.A) / 255; op != 1 {
			attrs = append(attrs, attrF(prefix+"-opacity", op))
		}
		return attrs
	default:
		attrs := []xml.Attr{attr(prefix, "server")}
		if opacity != 1 {
			attrs = append(attrs, attrF(prefix+"-opacity", opacity))
		}
		return attrs
	}
}

func strokeAttrs(s svgpath.StrokeStyle) []xml.Attr {
	attrs := []xml.Attr{attrF("stroke-width", s.Width)}
	if s.Cap != svgpath.ButtCap {
		attrs = append(attrs, attr("stroke-linecap", s.Cap.String()))
	}
	if s.Join != svgpath.MiterJoin {
		attrs = append(attrs, attr("stroke-linejoin", s.Join.String()))
	}
	if s.MiterLimit != 4 {
		attrs = append(attrs, attrF("stroke-miterlimit", s.MiterLimit))
	}
	if len(s.Dash) != 0 {
		attrs = append(attrs, attr("stroke-dasharray", floatList(s.Dash)))
		if s.DashOffset != 0 {
			attrs = append(attrs, attrF("stroke-dashoffset", s.DashOffset))
		}
	}
	return attrs
}

func (mw *microWriter) paintServer(name string, p Paint) {
	switch p := p.(type) {
	case *LinearGradient:
		mw.start(name)
		attrs := []xml.Attr{attrF("x1", p.X1), attrF("y1", p.Y1), attrF("x2", p.X2), attrF("y2", p.Y2)}
		mw.start("linearGradient", append(attrs, gradientAttrs(&p.Gradient)...)...)
		mw.stops(p.Stops)
		mw.end("linearGradient")
		mw.end(name)
	case *RadialGradient:
		mw.start(name)
		attrs := []xml.Attr{attrF("cx", p.CX), attrF("cy", p.CY), attrF("r", p.R), attrF("fx", p.FX), attrF("fy", p.FY)}
		mw.start("radialGradient", append(attrs, gradientAttrs(&p.Gradient)...)...)
		mw.stops(p.Stops)
		mw.end("radialGradient")
		mw.end(name)
	case *Pattern:
		mw.start(name)
		attrs := rectAttrs(p.Rect)
		if !p.Transform.IsIdentity() {
			attrs = append(attrs, attr("patternTransform", matrixString(p.Transform)))
		}
		mw.start("pattern", attrs...)
		if p.Content != nil {
			mw.node(p.Content)
		}
		mw.end("pattern")
		mw.end(name)
	}
}

func gradientAttrs(g *Gradient) []xml.Attr {
	var attrs []xml.Attr
	if !g.Transform.IsIdentity() {
		attrs = append(attrs, attr("gradientTransform", matrixString(g.Transform)))
	}
	if g.Spread != PadSpread {
		attrs = append(attrs, attr("spreadMethod", g.Spread.String()))
	}
	return attrs
}

func (mw *microWriter) stops(stops []GradientStop) {
	for _, s := range stops {
		attrs := []xml.Attr{attrF("offset", s.Offset), attr("stop-color", colorString(s.Color.R, s.Color.G, s.Color.B))}
		if op := s.Opacity * float64(s.Color.A) / 255; op != 1 {
			attrs = append(attrs, attrF("stop-opacity", op))
		}
		mw.empty("stop", attrs...)
	}
}

func (mw *microWriter) clipPath(cp *ClipPath) {
	var attrs []xml.Attr
	if !cp.Transform.IsIdentity() {
		attrs = append(attrs, attr("transform", matrixString(cp.Transform)))
	}
	mw.start("clipPath", attrs...)
	if cp.Clip != nil {
		mw.clipPath(cp.Clip)
	}
	if cp.Root != nil {
		mw.node(cp.Root)
	}
	mw.end("clipPath")
}

func (mw *microWriter) mask(m *Mask) {
	mw.start("mask", rectAttrs(m.Rect)...)
	if m.Mask != nil {
		mw.mask(m.Mask)
	}
	if m.Root != nil {
		mw.node(m.Root)
	}
	mw.end("mask")
}

func (mw *microWriter) filter(f *Filter) {
	mw.start("filter", rectAttrs(f.Rect)...)
	for _, p := range f.Primitives {
		mw.primitive(p)
	}
	mw.end("filter")
}

func inputAttrs(names []string, ins ...Input) []xml.Attr {
	attrs := make([]xml.Attr, len(ins))
	for i, in := range ins {
		attrs[i] = attr(names[i], in.String())
	}
	return attrs
}

var (
	in1 = []string{"in"}
	in2 = []string{"in", "in2"}
)

func transferAttrs(f TransferFunc) []xml.Attr {
	switch f.Kind {
	case TransferTable:
		return []xml.Attr{attr("type", "table"), attr("tableValues", floatList(f.Table))}
	case TransferDiscrete:
		return []xml.Attr{attr("type", "discrete"), attr("tableValues", floatList(f.Table))}
	case TransferLinear:
		return []xml.Attr{attr("type", "linear"), attrF("slope", f.Slope), attrF("intercept", f.Intercept)}
	case TransferGamma:
		return []xml.Attr{attr("type", "gamma"), attrF("amplitude", f.Amplitude),
			attrF("exponent", f.Exponent), attrF("offset", f.Offset)}
	default:
		return []xml.Attr{attr("type", "identity")}
	}
}

const channels = "RGBA"

func (mw *microWriter) primitive(p FilterPrimitive) {
	common := append(rectAttrs(p.Rect), attr("result", p.Result),
		attr("color-interpolation-filters", p.ColorSpace.String()))
	var (
		name  string
		attrs []xml.Attr
	)
	switch k := p.Kind.(type) {
	case FeGaussianBlur:
		name = "feGaussianBlur"
		attrs = append(inputAttrs(in1, k.In), attr("stdDeviation", floatList([]float64{k.StdDevX, k.StdDevY})))
	case FeOffset:
		name = "feOffset"
		attrs = append(inputAttrs(in1, k.In), attrF("dx", k.DX), attrF("dy", k.DY))
	case FeFlood:
		name = "feFlood"
		attrs = []xml.Attr{attr("flood-color", colorString(k.Color.R, k.Color.G, k.Color.B)),
			attrF("flood-opacity", k.Opacity*float64(k.Color.A)/255)}
	case FeBlend:
		name = "feBlend"
		attrs = append(inputAttrs(in2, k.In, k.In2), attr("mode", k.Mode.String()))
	case FeComposite:
		name = "feComposite"
		attrs = append(inputAttrs(in2, k.In, k.In2), attr("operator", k.Operator.String()))
		if k.Operator == CompositeArithmetic {
			attrs = append(attrs, attrF("k1", k.K1), attrF("k2", k.K2), attrF("k3", k.K3), attrF("k4", k.K4))
		}
	case FeMerge:
		mw.start("feMerge", common...)
		for _, in := range k.In {
			mw.empty("feMergeNode", attr("in", in.String()))
		}
		mw.end("feMerge")
		return
	case FeColorMatrix:
		name = "feColorMatrix"
		attrs = append(inputAttrs(in1, k.In), attr("type", "matrix"), attr("values", floatList(k.Matrix[:])))
	case FeComponentTransfer:
		mw.start("feComponentTransfer", append(common, inputAttrs(in1, k.In)...)...)
		for i, f := range [4]TransferFunc{k.R, k.G, k.B, k.A} {
			mw.empty("feFunc"+channels[i:i+1], transferAttrs(f)...)
		}
		mw.end("feComponentTransfer")
		return
	case FeMorphology:
		name = "feMorphology"
		op := "erode"
		if k.Operator == Dilate {
			op = "dilate"
		}
		attrs = append(inputAttrs(in1, k.In), attr("operator", op), attr("radius", floatList([]float64{k.RadiusX, k.RadiusY})))
	case FeDisplacementMap:
		name = "feDisplacementMap"
		attrs = append(inputAttrs(in2, k.In, k.In2), attrF("scale", k.Scale),
			attr("xChannelSelector", channels[k.XChannel:k.XChannel+1]),
			attr("yChannelSelector", channels[k.YChannel:k.YChannel+1]))
	case FeTurbulence:
		name = "feTurbulence"
		typ := "turbulence"
		if k.FractalNoise {
			typ = "fractalNoise"
		}
		attrs = []xml.Attr{attr("baseFrequency", floatList([]float64{k.BaseFrequencyX, k.BaseFrequencyY})),
			attr("numOctaves", strconv.Itoa(k.NumOctaves)), attrF("seed", k.Seed), attr("type", typ)}
		if k.StitchTiles {
			attrs = append(attrs, attr("stitchTiles", "stitch"))
		}
	case FeTile:
		name = "feTile"
		attrs = inputAttrs(in1, k.In)
	case FeImage:
		mw.start("feImage", common...)
		if k.Node != nil {
			mw.node(k.Node)
		}
		mw.end("feImage")
		return
	case FeConvolveMatrix:
		name = "feConvolveMatrix"
		attrs = append(inputAttrs(in1, k.In),
			attr("order", fmt.Sprintf("%d %d", k.OrderX, k.OrderY)),
			attr("kernelMatrix", floatList(k.Kernel)),
			attrF("divisor", k.Divisor), attrF("bias", k.Bias),
			attr("targetX", strconv.Itoa(k.TargetX)), attr("targetY", strconv.Itoa(k.TargetY)),
			attr("edgeMode", [...]string{"duplicate", "wrap", "none"}[k.Edge]),
			attr("preserveAlpha", strconv.FormatBool(k.PreserveAlpha)))
	case FePassThrough:
		name = "feOffset"
		attrs = inputAttrs(in1, k.In)
	default:
		return
	}
	mw.empty(name, append(common, attrs...)...)
}
