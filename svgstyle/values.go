package svgstyle

import (
	"image/color"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgtree"
)

// The accessors below never fail: an invalid value is reported as
// MalformedInput and replaced by the given default.

// value returns the computed property, or the attribute for names
// which are not properties.
func (n *Node) value(name string) (string, bool) {
	if _, isProp := properties[name]; isProp {
		v, ok := n.props[name]
		return v, ok
	}
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) unitContext() UnitContext {
	return UnitContext{
		DPI:            n.r.opts.DPI,
		FontSize:       n.FontSize,
		ViewportWidth:  n.Viewport.W,
		ViewportHeight: n.Viewport.H,
	}
}

// ResolveLength converts l to user units, in the context of n.
func (n *Node) ResolveLength(l Length, axis Axis) float64 {
	return l.Resolve(n.unitContext(), axis)
}

// Length returns the attribute or property name converted
// to user units, or def if it is missing or invalid.
func (n *Node) Length(name string, axis Axis, def float64) float64 {
	v, ok := n.value(name)
	if !ok {
		return def
	}
	l, err := ParseLength(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid length for %s: %s", name, err)
		return def
	}
	return n.ResolveLength(l, axis)
}

// RawLength returns the unresolved length, used for the attributes
// interpreted as fractions of a bounding box.
func (n *Node) RawLength(name string) (Length, bool) {
	v, ok := n.value(name)
	if !ok {
		return Length{}, false
	}
	l, err := ParseLength(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid length for %s: %s", name, err)
		return Length{}, false
	}
	return l, true
}

// Lengths returns the list of lengths, converted to user units.
// `none` gives an empty list.
func (n *Node) Lengths(name string, axis Axis) []float64 {
	v, ok := n.value(name)
	if !ok || v == "none" {
		return nil
	}
	ls, err := ParseLengthList(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid length list for %s: %s", name, err)
		return nil
	}
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = n.ResolveLength(l, axis)
	}
	return out
}

// Number returns the number given by name, or def.
func (n *Node) Number(name string, def float64) float64 {
	v, ok := n.value(name)
	if !ok {
		return def
	}
	f, err := parseFloat(strings.TrimSpace(v))
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid number for %s: %s", name, err)
		return def
	}
	return f
}

// Numbers returns the list of numbers given by name.
func (n *Node) Numbers(name string) ([]float64, bool) {
	v, ok := n.value(name)
	if !ok {
		return nil, false
	}
	fs, err := ParseNumberList(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid number list for %s: %s", name, err)
		return nil, false
	}
	return fs, true
}

// Opacity returns the opacity property name, clamped to [0, 1].
func (n *Node) Opacity(name string) float64 {
	v := n.Prop(name)
	f, err := ParseFraction(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid opacity for %s: %s", name, err)
		return 1
	}
	return clamp01(f)
}

// CurrentColor returns the computed value of the color property.
func (n *Node) CurrentColor() color.NRGBA {
	v := n.Prop("color")
	if strings.EqualFold(v, "currentColor") {
		if n.Parent != nil {
			return n.Parent.CurrentColor()
		}
		v = Initial("color")
	}
	c, err := ParseColor(v, color.NRGBA{A: 0xff})
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid color: %s", err)
		return color.NRGBA{A: 0xff}
	}
	return c
}

// Color returns the color property name, or def.
func (n *Node) Color(name string, def color.NRGBA) color.NRGBA {
	v := n.Prop(name)
	c, err := ParseColor(v, n.CurrentColor())
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid color for %s: %s", name, err)
		return def
	}
	return c
}

// Paint returns the paint property name. Invalid values are
// replaced by none.
func (n *Node) Paint(name string) Paint {
	v := n.Prop(name)
	p, err := ParsePaint(v, n.CurrentColor())
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid paint for %s: %s", name, err)
		return Paint{Kind: PaintNone}
	}
	return p
}

// Transform returns the transform attribute name, or the identity.
func (n *Node) Transform(name string) svgpath.Matrix2D {
	m := svgpath.Identity
	if v, ok := n.attrs[name]; ok {
		var err error
		m, err = ParseTransform(v)
		if err != nil {
			n.warn(svgtree.MalformedInput, "invalid %s: %s", name, err)
		}
	}
	if n.fromUse && name == "transform" {
		m = m.Translate(n.useOffset.X, n.useOffset.Y)
	}
	return m
}

// Href returns the id referenced by the href attribute.
func (n *Node) Href() (string, bool) {
	v, ok := n.attrs["href"]
	if !ok {
		return "", false
	}
	return parseIRI(v)
}

// FuncIRI returns the id referenced by the property name
// ("url(#id)"). none gives false, as does an invalid value,
// which is reported.
func (n *Node) FuncIRI(name string) (string, bool) {
	v := n.Prop(name)
	if v == "none" || v == "" {
		return "", false
	}
	id, ok := ParseFuncIRI(v)
	if !ok {
		n.warn(svgtree.MalformedInput, "invalid reference for %s: %q", name, v)
	}
	return id, ok
}

// Keyword returns the property name, checked against the allowed values.
// Invalid values are reported and replaced by the first allowed value.
func (n *Node) Keyword(name string, allowed ...string) string {
	v := n.Prop(name)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	n.warn(svgtree.MalformedInput, "invalid value for %s: %q", name, v)
	return allowed[0]
}

// Units returns the units attribute name (like gradientUnits).
func (n *Node) Units(name string, def svgtree.Units) svgtree.Units {
	v, ok := n.attrs[name]
	if !ok {
		return def
	}
	switch strings.TrimSpace(v) {
	case "userSpaceOnUse":
		return svgtree.UserSpaceOnUse
	case "objectBoundingBox":
		return svgtree.ObjectBoundingBox
	}
	n.warn(svgtree.MalformedInput, "invalid %s: %q", name, v)
	return def
}

// ViewBox returns the view box attribute, if valid.
func (n *Node) ViewBox() (svgpath.Rect, bool) {
	v, ok := n.attrs["viewBox"]
	if !ok {
		return svgpath.Rect{}, false
	}
	vb, err := ParseViewBox(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid viewBox: %s", err)
		return svgpath.Rect{}, false
	}
	return vb, true
}

// AspectRatio returns the preserveAspectRatio attribute.
func (n *Node) AspectRatio() AspectRatio {
	v, ok := n.attrs["preserveAspectRatio"]
	if !ok {
		return DefaultAspectRatio
	}
	ar, err := ParseAspectRatio(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid preserveAspectRatio %q", v)
	}
	return ar
}

// ViewportRect returns the x, y, width and height attributes of an
// svg element, width and height defaulting to 100%.
func (n *Node) ViewportRect() svgpath.Rect {
	r := svgpath.Rect{
		X: n.Length("x", Horizontal, 0),
		Y: n.Length("y", Vertical, 0),
		W: n.Length("width", Horizontal, n.Viewport.W),
		H: n.Length("height", Vertical, n.Viewport.H),
	}
	if n.Parent == nil { // the root position is ignored
		r.X, r.Y = 0, 0
	}
	return r
}

// ChildViewport returns the viewport established by an svg element
// for its children: its view box or its size.
func (n *Node) ChildViewport() svgpath.Rect {
	if vb, ok := n.ViewBox(); ok {
		return vb
	}
	r := n.ViewportRect()
	return svgpath.Rect{W: r.W, H: r.H}
}
