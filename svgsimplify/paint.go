package svgsimplify

import (
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

// chain is an element followed by the elements it references
// through href, from which it inherits attributes.
type chain []*svgstyle.Node

// hrefChain follows the href links of n to a fixed point, accepting
// only the given tags. A cycle ends the chain.
func (c *converter) hrefChain(n *svgstyle.Node, tags ...string) chain {
	seen := make(map[*svgstyle.Node]bool)
	var ch chain
	for {
		seen[n] = true
		ch = append(ch, n)
		id, ok := n.Href()
		if !ok {
			return ch
		}
		next := c.index[id]
		switch {
		case next == nil:
			n.Warn(svgtree.UnresolvableReference, "reference to unknown element %q", id)
			return ch
		case !slices.Contains(tags, next.Tag):
			n.Warn(svgtree.UnresolvableReference, "invalid reference to %s", next.Location())
			return ch
		case seen[next]:
			n.Warn(svgtree.UnresolvableReference, "cyclic reference to %q", id)
			return ch
		}
		n = next
	}
}

// with returns the first element of the chain defining the attribute
// name, or nil.
func (ch chain) with(name string) *svgstyle.Node {
	for _, n := range ch {
		if _, ok := n.Attr(name); ok {
			return n
		}
	}
	return nil
}

// withChildren returns the first element of the chain having
// children with one of the given tags, or nil.
func (ch chain) withChildren(tags ...string) *svgstyle.Node {
	for _, n := range ch {
		for _, child := range n.Children {
			if !child.IsText() && (len(tags) == 0 || slices.Contains(tags, child.Tag)) {
				return n
			}
		}
	}
	return nil
}

func (ch chain) units(name string, def svgtree.Units) svgtree.Units {
	if n := ch.with(name); n != nil {
		return n.Units(name, def)
	}
	return def
}

func (ch chain) transform(name string) svgpath.Matrix2D {
	if n := ch.with(name); n != nil {
		return n.Transform(name)
	}
	return svgpath.Identity
}

// fraction returns a length interpreted as a fraction of a bounding box.
func fraction(l svgstyle.Length) float64 {
	if l.Unit == svgstyle.UnitPercent {
		return l.Value / 100
	}
	return l.Value
}

// coordinate returns the attribute name, taken from the chain, either as a
// bounding box fraction or resolved in user space. def is a percentage.
func (ch chain) coordinate(name string, units svgtree.Units, axis svgstyle.Axis, def float64) float64 {
	l := svgstyle.Length{Value: def, Unit: svgstyle.UnitPercent}
	at := ch[0]
	if n := ch.with(name); n != nil {
		if v, ok := n.RawLength(name); ok {
			l, at = v, n
		}
	}
	if units == svgtree.ObjectBoundingBox {
		return fraction(l)
	}
	return at.ResolveLength(l, axis)
}

// region returns the rectangle given by the x, y, width and height
// attributes, in user space. defaults are percentages.
func (ch chain) region(units svgtree.Units, bbox svgpath.Rect, defaults [4]float64) svgpath.Rect {
	x := ch.coordinate("x", units, svgstyle.Horizontal, defaults[0])
	y := ch.coordinate("y", units, svgstyle.Vertical, defaults[1])
	w := ch.coordinate("width", units, svgstyle.Horizontal, defaults[2])
	h := ch.coordinate("height", units, svgstyle.Vertical, defaults[3])
	if units == svgtree.ObjectBoundingBox {
		return svgpath.Rect{X: bbox.X + x*bbox.W, Y: bbox.Y + y*bbox.H, W: w * bbox.W, H: h * bbox.H}
	}
	return svgpath.Rect{X: x, Y: y, W: w, H: h}
}

// bboxMatrix maps the unit square to r.
func bboxMatrix(r svgpath.Rect) svgpath.Matrix2D {
	return svgpath.Identity.Translate(r.X, r.Y).Scale(r.W, r.H)
}

// paint resolves the paint property prop of n. bbox is the bounding
// box of the painted geometry, used by objectBoundingBox units.
// A nil result means none.
func (c *converter) paint(n *svgstyle.Node, prop string, bbox svgpath.Rect, hasBBox bool) svgtree.Paint {
	p := n.Paint(prop)
	switch p.Kind {
	case svgstyle.PaintNone:
		return nil
	case svgstyle.PaintColor:
		return svgtree.PlainColor(p.Color)
	}
	server := c.index[p.URL]
	if server == nil || !isPaintServer(server.Tag) {
		if p.HasFallback {
			if p.FallbackNone {
				return nil
			}
			return svgtree.PlainColor(p.Color)
		}
		n.Warn(svgtree.UnresolvableReference, "paint server %q not found", p.URL)
		return nil
	}
	if server.Tag == "pattern" {
		return c.pattern(server, bbox, hasBBox)
	}
	return c.gradient(server, bbox, hasBBox)
}

func isPaintServer(tag string) bool {
	return tag == "linearGradient" || tag == "radialGradient" || tag == "pattern"
}

var black = color.NRGBA{A: 0xff}

// gradientStops returns the stops of the gradient, with offsets clamped
// to [0, 1] and made non decreasing.
func gradientStops(ch chain) []svgtree.GradientStop {
	n := ch.withChildren("stop")
	if n == nil {
		return nil
	}
	var out []svgtree.GradientStop
	prev := 0.
	for _, child := range n.Children {
		if child.Tag != "stop" {
			continue
		}
		var offset float64
		if v, ok := child.Attr("offset"); ok {
			var err error
			offset, err = svgstyle.ParseFraction(v)
			if err != nil {
				child.Warn(svgtree.MalformedInput, "invalid stop offset %q", v)
				offset = 0
			}
		}
		offset = math.Max(prev, math.Max(0, math.Min(offset, 1)))
		prev = offset
		out = append(out, svgtree.GradientStop{
			Offset:  offset,
			Color:   child.Color("stop-color", black),
			Opacity: child.Opacity("stop-opacity"),
		})
	}
	return out
}

// stopColor returns the plain color equivalent to s.
func stopColor(s svgtree.GradientStop) svgtree.PlainColor {
	col := s.Color
	col.A = uint8(math.Round(float64(col.A) * s.Opacity))
	return svgtree.PlainColor(col)
}

func spreadMethod(ch chain) svgtree.SpreadMethod {
	n := ch.with("spreadMethod")
	if n == nil {
		return svgtree.PadSpread
	}
	v, _ := n.Attr("spreadMethod")
	switch strings.TrimSpace(v) {
	case "pad":
		return svgtree.PadSpread
	case "reflect":
		return svgtree.ReflectSpread
	case "repeat":
		return svgtree.RepeatSpread
	}
	n.Warn(svgtree.MalformedInput, "invalid spreadMethod %q", v)
	return svgtree.PadSpread
}

// gradient resolves a linear or radial gradient for an element
// with the given bounding box.
func (c *converter) gradient(server *svgstyle.Node, bbox svgpath.Rect, hasBBox bool) svgtree.Paint {
	ch := c.hrefChain(server, "linearGradient", "radialGradient")
	stops := gradientStops(ch)
	switch len(stops) {
	case 0:
		return nil
	case 1:
		return stopColor(stops[0])
	}
	base := svgtree.Gradient{
		ID:        server.ID(),
		Stops:     stops,
		Spread:    spreadMethod(ch),
		Units:     ch.units("gradientUnits", svgtree.ObjectBoundingBox),
		Transform: ch.transform("gradientTransform"),
	}
	if !base.Transform.IsInvertible() {
		server.Warn(svgtree.MalformedInput, "gradientTransform is not invertible")
		return nil
	}
	gradientTransform := base.Transform
	if base.Units == svgtree.ObjectBoundingBox {
		if !hasBBox || bbox.IsEmpty() {
			return nil
		}
		base.Transform = bboxMatrix(bbox).Mult(base.Transform)
	}

	if server.Tag == "linearGradient" {
		// only the linear gradients of the chain define the geometry
		geom := ch.filter("linearGradient")
		lg := &svgtree.LinearGradient{
			Gradient: base,
			X1:       geom.coordinate("x1", base.Units, svgstyle.Horizontal, 0),
			Y1:       geom.coordinate("y1", base.Units, svgstyle.Vertical, 0),
			X2:       geom.coordinate("x2", base.Units, svgstyle.Horizontal, 100),
			Y2:       geom.coordinate("y2", base.Units, svgstyle.Vertical, 0),
		}
		if base.Units == svgtree.ObjectBoundingBox && gradientTransform.IsIdentity() {
			start, end := lg.Absolute()
			lg.X1, lg.Y1, lg.X2, lg.Y2 = start.X, start.Y, end.X, end.Y
			lg.Transform = svgpath.Identity
		}
		return lg
	}

	geom := ch.filter("radialGradient")
	rg := &svgtree.RadialGradient{
		Gradient: base,
		CX:       geom.coordinate("cx", base.Units, svgstyle.Horizontal, 50),
		CY:       geom.coordinate("cy", base.Units, svgstyle.Vertical, 50),
		R:        geom.coordinate("r", base.Units, svgstyle.Diagonal, 50),
	}
	rg.FX, rg.FY = rg.CX, rg.CY
	if geom.with("fx") != nil {
		rg.FX = geom.coordinate("fx", base.Units, svgstyle.Horizontal, 50)
	}
	if geom.with("fy") != nil {
		rg.FY = geom.coordinate("fy", base.Units, svgstyle.Vertical, 50)
	}
	if rg.R <= 0 {
		if rg.R < 0 {
			server.Warn(svgtree.MalformedInput, "negative gradient radius")
		}
		// the area is painted with the last stop
		return stopColor(stops[len(stops)-1])
	}
	// a focal point outside the circle is moved on its edge
	if d := math.Hypot(rg.FX-rg.CX, rg.FY-rg.CY); d > rg.R {
		k := rg.R / d
		rg.FX = rg.CX + (rg.FX-rg.CX)*k
		rg.FY = rg.CY + (rg.FY-rg.CY)*k
	}
	return rg
}

// filter returns the elements of the chain with the given tag,
// keeping the first one so that defaults resolve against it.
func (ch chain) filter(tag string) chain {
	out := chain{ch[0]}
	for _, n := range ch[1:] {
		if n.Tag == tag {
			out = append(out, n)
		}
	}
	return out
}
