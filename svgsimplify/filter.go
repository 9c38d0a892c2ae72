package svgsimplify

import (
	"fmt"
	"math"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

// maxOctaves bounds feTurbulence numOctaves. Higher octaves
// contribute less than 2^-maxOctaves to the noise.
const maxOctaves = 24

// filter resolves the filter property of n into a graph of primitives.
func (c *converter) filter(n *svgstyle.Node, bbox bboxFunc) *svgtree.Filter {
	target := c.reference(n, "filter", "filter")
	if target == nil {
		return nil
	}
	c.visiting[target] = true
	defer delete(c.visiting, target)

	ch := c.hrefChain(target, "filter")
	f := &svgtree.Filter{
		ID:             target.ID(),
		Units:          ch.units("filterUnits", svgtree.ObjectBoundingBox),
		PrimitiveUnits: ch.units("primitiveUnits", svgtree.UserSpaceOnUse),
	}
	var r svgpath.Rect
	if f.Units == svgtree.ObjectBoundingBox || f.PrimitiveUnits == svgtree.ObjectBoundingBox {
		var ok bool
		r, ok = bbox()
		if !ok || r.IsEmpty() {
			n.Warn(svgtree.MalformedInput, "filter %q requires a bounding box: element not rendered", f.ID)
			return f // empty region
		}
	}
	f.Rect = ch.region(f.Units, r, [4]float64{-10, -10, 120, 120})
	if f.Rect.IsEmpty() {
		return f
	}

	content := ch.withChildren()
	if content == nil {
		return f // no primitive: transparent result
	}
	fb := filterBuilder{
		c:       c,
		filter:  f,
		bbox:    r,
		results: make(map[string]string),
	}
	saved := c.clipMode
	c.clipMode = false
	defer func() { c.clipMode = saved }()
	for _, child := range content.Children {
		if child.IsText() || !strings.HasPrefix(child.Tag, "fe") || child.Tag == "feMergeNode" || strings.HasPrefix(child.Tag, "feFunc") {
			continue
		}
		if len(f.Primitives) >= c.opts.MaxFilterPrimitives {
			child.Warn(svgtree.ResourceLimitExceeded, "more than %d filter primitives: filter truncated", c.opts.MaxFilterPrimitives)
			break
		}
		fb.add(child)
	}
	return f
}

// filterBuilder converts the primitives of one filter.
type filterBuilder struct {
	c      *converter
	filter *svgtree.Filter
	bbox   svgpath.Rect // used with primitiveUnits = objectBoundingBox

	// results maps the declared result names to the
	// generated, unique ones
	results map[string]string
}

func (fb *filterBuilder) objectUnits() bool {
	return fb.filter.PrimitiveUnits == svgtree.ObjectBoundingBox
}

// scaleX and scaleY convert numbers expressed in primitive units.
func (fb *filterBuilder) scaleX(v float64) float64 {
	if fb.objectUnits() {
		return v * fb.bbox.W
	}
	return v
}

func (fb *filterBuilder) scaleY(v float64) float64 {
	if fb.objectUnits() {
		return v * fb.bbox.H
	}
	return v
}

// previous returns the default input: the result of the previous
// primitive, or SourceGraphic for the first one.
func (fb *filterBuilder) previous() svgtree.Input {
	if len(fb.filter.Primitives) == 0 {
		return svgtree.Input{Kind: svgtree.SourceGraphic}
	}
	return svgtree.Input{Kind: svgtree.Reference, Name: fb.filter.Primitives[len(fb.filter.Primitives)-1].Result}
}

// input parses the input attribute name of p.
func (fb *filterBuilder) input(p *svgstyle.Node, name string) svgtree.Input {
	v, _ := p.Attr(name)
	v = strings.TrimSpace(v)
	if v == "" {
		return fb.previous()
	}
	if in, ok := svgtree.ParseStandardInput(v); ok {
		if in.Kind == svgtree.FillPaint || in.Kind == svgtree.StrokePaint {
			p.Warn(svgtree.UnsupportedFeature, "filter input %s is rendered as transparent black", v)
		}
		return in
	}
	if result, ok := fb.results[v]; ok {
		return svgtree.Input{Kind: svgtree.Reference, Name: result}
	}
	p.Warn(svgtree.MalformedInput, "unknown filter input %q: previous result used", v)
	return fb.previous()
}

// subregion returns the primitive subregion, defaulting to the filter region.
func (fb *filterBuilder) subregion(p *svgstyle.Node) svgpath.Rect {
	r := fb.filter.Rect
	coord := func(name string, axis svgstyle.Axis, origin, size float64) (float64, bool) {
		l, ok := p.RawLength(name)
		if !ok {
			return 0, false
		}
		if fb.objectUnits() {
			return origin + fraction(l)*size, true
		}
		return p.ResolveLength(l, axis), true
	}
	if v, ok := coord("x", svgstyle.Horizontal, fb.bbox.X, fb.bbox.W); ok {
		r.X = v
	}
	if v, ok := coord("y", svgstyle.Vertical, fb.bbox.Y, fb.bbox.H); ok {
		r.Y = v
	}
	if v, ok := coord("width", svgstyle.Horizontal, 0, fb.bbox.W); ok {
		r.W = v
	}
	if v, ok := coord("height", svgstyle.Vertical, 0, fb.bbox.H); ok {
		r.H = v
	}
	return r
}

// pair returns the one or two numbers of the attribute name,
// or (def, def).
func pair(p *svgstyle.Node, name string, def float64) (float64, float64) {
	vs, ok := p.Numbers(name)
	if !ok {
		return def, def
	}
	switch len(vs) {
	case 1:
		return vs[0], vs[0]
	case 2:
		return vs[0], vs[1]
	}
	p.Warn(svgtree.MalformedInput, "%s expects one or two numbers", name)
	return def, def
}

// attrKeyword returns the attribute name among the allowed values,
// the first one being the default.
func attrKeyword(p *svgstyle.Node, name string, allowed ...string) string {
	v, ok := p.Attr(name)
	if !ok {
		return allowed[0]
	}
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	p.Warn(svgtree.MalformedInput, "invalid value for %s: %q", name, v)
	return allowed[0]
}

func (fb *filterBuilder) add(p *svgstyle.Node) {
	prim := svgtree.FilterPrimitive{
		Rect:       fb.subregion(p),
		ColorSpace: svgtree.LinearRGB,
	}
	if p.Prop("color-interpolation-filters") == "sRGB" {
		prim.ColorSpace = svgtree.SRGB
	}
	prim.Kind = fb.kind(p)
	prim.Result = fmt.Sprintf("result%d", len(fb.filter.Primitives)+1)
	if v, _ := p.Attr("result"); strings.TrimSpace(v) != "" {
		fb.results[strings.TrimSpace(v)] = prim.Result
	}
	fb.filter.Primitives = append(fb.filter.Primitives, prim)
}

// kind converts the primitive parameters. Unsupported or invalid
// primitives are replaced by a pass-through.
func (fb *filterBuilder) kind(p *svgstyle.Node) svgtree.FilterKind {
	in := fb.input(p, "in")
	passThrough := svgtree.FePassThrough{In: in}
	switch p.Tag {
	case "feGaussianBlur":
		sx, sy := pair(p, "stdDeviation", 0)
		if sx < 0 || sy < 0 {
			p.Warn(svgtree.MalformedInput, "negative stdDeviation")
			sx, sy = 0, 0
		}
		return svgtree.FeGaussianBlur{In: in, StdDevX: fb.scaleX(sx), StdDevY: fb.scaleY(sy)}
	case "feOffset":
		return svgtree.FeOffset{In: in, DX: fb.scaleX(p.Number("dx", 0)), DY: fb.scaleY(p.Number("dy", 0))}
	case "feFlood":
		return svgtree.FeFlood{Color: p.Color("flood-color", black), Opacity: p.Opacity("flood-opacity")}
	case "feBlend":
		mode := svgtree.BlendNormal
		if v, ok := p.Attr("mode"); ok {
			var valid bool
			if mode, valid = svgtree.ParseBlendMode(strings.TrimSpace(v)); !valid {
				p.Warn(svgtree.MalformedInput, "invalid blend mode %q", v)
			}
		}
		return svgtree.FeBlend{In: in, In2: fb.input(p, "in2"), Mode: mode}
	case "feComposite":
		return fb.composite(p, in)
	case "feMerge":
		var merge svgtree.FeMerge
		for _, child := range p.Children {
			if child.Tag == "feMergeNode" {
				merge.In = append(merge.In, fb.input(child, "in"))
			}
		}
		return merge
	case "feColorMatrix":
		return svgtree.FeColorMatrix{In: in, Matrix: colorMatrix(p)}
	case "feComponentTransfer":
		ct := svgtree.FeComponentTransfer{In: in}
		for _, child := range p.Children {
			switch child.Tag {
			case "feFuncR":
				ct.R = transferFunc(child)
			case "feFuncG":
				ct.G = transferFunc(child)
			case "feFuncB":
				ct.B = transferFunc(child)
			case "feFuncA":
				ct.A = transferFunc(child)
			}
		}
		return ct
	case "feMorphology":
		op := svgtree.Erode
		if attrKeyword(p, "operator", "erode", "dilate") == "dilate" {
			op = svgtree.Dilate
		}
		rx, ry := pair(p, "radius", 0)
		if rx < 0 || ry < 0 {
			p.Warn(svgtree.MalformedInput, "negative morphology radius")
			return passThrough
		}
		return svgtree.FeMorphology{In: in, Operator: op, RadiusX: fb.scaleX(rx), RadiusY: fb.scaleY(ry)}
	case "feDisplacementMap":
		scale := p.Number("scale", 0)
		if fb.objectUnits() {
			scale *= (fb.bbox.W + fb.bbox.H) / 2
		}
		return svgtree.FeDisplacementMap{
			In:       in,
			In2:      fb.input(p, "in2"),
			Scale:    scale,
			XChannel: channel(p, "xChannelSelector"),
			YChannel: channel(p, "yChannelSelector"),
		}
	case "feTurbulence":
		fx, fy := pair(p, "baseFrequency", 0)
		if fx < 0 || fy < 0 {
			p.Warn(svgtree.MalformedInput, "negative baseFrequency")
			fx, fy = 0, 0
		}
		if fb.objectUnits() {
			// frequencies are given per bounding box unit
			fx, fy = fx/fb.bbox.W, fy/fb.bbox.H
		}
		octaves := math.Max(0, p.Number("numOctaves", 1))
		if octaves > maxOctaves {
			p.Warn(svgtree.ResourceLimitExceeded, "numOctaves %g reduced to %d", octaves, maxOctaves)
			octaves = maxOctaves
		}
		return svgtree.FeTurbulence{
			BaseFrequencyX: fx,
			BaseFrequencyY: fy,
			NumOctaves:     int(octaves),
			Seed:           p.Number("seed", 0),
			StitchTiles:    attrKeyword(p, "stitchTiles", "noStitch", "stitch") == "stitch",
			FractalNoise:   attrKeyword(p, "type", "turbulence", "fractalNoise") == "fractalNoise",
		}
	case "feTile":
		return svgtree.FeTile{In: in}
	case "feImage":
		return fb.image(p)
	case "feConvolveMatrix":
		if cm, ok := convolveMatrix(p, in); ok {
			return cm
		}
		return passThrough
	case "feDiffuseLighting", "feSpecularLighting":
		p.Warn(svgtree.UnsupportedFeature, "%s is not supported: input passed through", p.Tag)
		return passThrough
	}
	p.Warn(svgtree.UnsupportedFeature, "unknown filter primitive %s: input passed through", p.Tag)
	return passThrough
}

func (fb *filterBuilder) composite(p *svgstyle.Node, in svgtree.Input) svgtree.FeComposite {
	out := svgtree.FeComposite{In: in, In2: fb.input(p, "in2")}
	switch attrKeyword(p, "operator", "over", "in", "out", "atop", "xor", "arithmetic") {
	case "in":
		out.Operator = svgtree.CompositeIn
	case "out":
		out.Operator = svgtree.CompositeOut
	case "atop":
		out.Operator = svgtree.CompositeAtop
	case "xor":
		out.Operator = svgtree.CompositeXor
	case "arithmetic":
		out.Operator = svgtree.CompositeArithmetic
		out.K1 = p.Number("k1", 0)
		out.K2 = p.Number("k2", 0)
		out.K3 = p.Number("k3", 0)
		out.K4 = p.Number("k4", 0)
	}
	return out
}

func channel(p *svgstyle.Node, name string) svgtree.Channel {
	switch attrKeyword(p, name, "A", "R", "G", "B") {
	case "R":
		return svgtree.ChannelR
	case "G":
		return svgtree.ChannelG
	case "B":
		return svgtree.ChannelB
	default:
		return svgtree.ChannelA
	}
}

var identityColorMatrix = [20]float64{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// colorMatrix returns the 4x5 matrix described by the type and values attributes.
func colorMatrix(p *svgstyle.Node) [20]float64 {
	values, hasValues := p.Numbers("values")
	switch attrKeyword(p, "type", "matrix", "saturate", "hueRotate", "luminanceToAlpha") {
	case "matrix":
		if !hasValues {
			return identityColorMatrix
		}
		if len(values) != 20 {
			p.Warn(svgtree.MalformedInput, "color matrix expects 20 values, got %d", len(values))
			return identityColorMatrix
		}
		var m [20]float64
		copy(m[:], values)
		return m
	case "saturate":
		s := 1.
		if hasValues && len(values) == 1 {
			s = values[0]
		}
		return [20]float64{
			0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0, 0,
			0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0, 0,
			0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0, 0,
			0, 0, 0, 1, 0,
		}
	case "hueRotate":
		var angle float64
		if hasValues && len(values) == 1 {
			angle = values[0] * math.Pi / 180
		}
		s, c := math.Sincos(angle)
		return [20]float64{
			0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928, 0, 0,
			0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283, 0, 0,
			0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072, 0, 0,
			0, 0, 0, 1, 0,
		}
	default: // luminanceToAlpha
		return [20]float64{
			0, 0, 0, 0, 0,
			0, 0, 0, 0, 0,
			0, 0, 0, 0, 0,
			0.2125, 0.7154, 0.0721, 0, 0,
		}
	}
}

func transferFunc(p *svgstyle.Node) svgtree.TransferFunc {
	var tf svgtree.TransferFunc
	switch attrKeyword(p, "type", "identity", "table", "discrete", "linear", "gamma") {
	case "table", "discrete":
		values, _ := p.Numbers("tableValues")
		if len(values) == 0 {
			return tf // identity
		}
		tf.Kind = svgtree.TransferTable
		if v, _ := p.Attr("type"); strings.TrimSpace(v) == "discrete" {
			tf.Kind = svgtree.TransferDiscrete
		}
		tf.Table = values
	case "linear":
		tf.Kind = svgtree.TransferLinear
		tf.Slope = p.Number("slope", 1)
		tf.Intercept = p.Number("intercept", 0)
	case "gamma":
		tf.Kind = svgtree.TransferGamma
		tf.Amplitude = p.Number("amplitude", 1)
		tf.Exponent = p.Number("exponent", 1)
		tf.Offset = p.Number("offset", 0)
	}
	return tf
}

// convolveMatrix returns false for invalid parameters, which
// disable the primitive.
func convolveMatrix(p *svgstyle.Node, in svgtree.Input) (svgtree.FeConvolveMatrix, bool) {
	ox, oy := pair(p, "order", 3)
	if ox < 1 || oy < 1 || ox != math.Trunc(ox) || oy != math.Trunc(oy) {
		p.Warn(svgtree.MalformedInput, "invalid convolution order")
		return svgtree.FeConvolveMatrix{}, false
	}
	cm := svgtree.FeConvolveMatrix{
		In:            in,
		OrderX:        int(ox),
		OrderY:        int(oy),
		Bias:          p.Number("bias", 0),
		PreserveAlpha: attrKeyword(p, "preserveAlpha", "false", "true") == "true",
	}
	cm.Kernel, _ = p.Numbers("kernelMatrix")
	if len(cm.Kernel) != cm.OrderX*cm.OrderY {
		p.Warn(svgtree.MalformedInput, "kernelMatrix expects %d values", cm.OrderX*cm.OrderY)
		return cm, false
	}
	var sum float64
	for _, k := range cm.Kernel {
		sum += k
	}
	if sum == 0 {
		sum = 1
	}
	cm.Divisor = p.Number("divisor", sum)
	if cm.Divisor == 0 {
		p.Warn(svgtree.MalformedInput, "null divisor")
		cm.Divisor = sum
	}
	cm.TargetX = int(p.Number("targetX", float64(cm.OrderX/2)))
	cm.TargetY = int(p.Number("targetY", float64(cm.OrderY/2)))
	if cm.TargetX < 0 || cm.TargetX >= cm.OrderX || cm.TargetY < 0 || cm.TargetY >= cm.OrderY {
		p.Warn(svgtree.MalformedInput, "convolution target outside the kernel")
		return cm, false
	}
	switch attrKeyword(p, "edgeMode", "duplicate", "wrap", "none") {
	case "wrap":
		cm.Edge = svgtree.EdgeWrap
	case "none":
		cm.Edge = svgtree.EdgeNone
	}
	return cm, true
}

// image converts feImage: either a reference to an element, drawn in
// the user space of the filtered element, or an image file fitted
// into the subregion.
func (fb *filterBuilder) image(p *svgstyle.Node) svgtree.FilterKind {
	href, ok := p.Attr("href")
	if !ok {
		return svgtree.FeImage{}
	}
	if id, isRef := parseLocalRef(href); isRef {
		target := fb.c.index[id]
		if target == nil {
			p.Warn(svgtree.UnresolvableReference, "feImage reference to unknown element %q", id)
			return svgtree.FeImage{}
		}
		node := fb.c.convert(target)
		if node != nil {
			svgtree.ComputeBBoxes(node, fb.c.opts.Tolerance)
		}
		return svgtree.FeImage{Node: node}
	}
	node := fb.c.imageNode(p, href, fb.subregion(p))
	if node == nil {
		return svgtree.FeImage{}
	}
	return svgtree.FeImage{Node: node}
}

func parseLocalRef(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "#") && len(href) > 1 {
		return href[1:], true
	}
	return "", false
}
