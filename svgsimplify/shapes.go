package svgsimplify

import (
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

// This file converts the basic shapes to paths.

func pathF(c *converter, n *svgstyle.Node) svgtree.Node {
	d, _ := n.Attr("d")
	geom, err := svgpath.ParsePathData(d, c.opts.Tolerance)
	if err != nil {
		n.Warn(svgtree.MalformedInput, "invalid path data: %s", err)
	}
	c.checkMarkers(n)
	return c.shape(n, geom)
}

func rectF(c *converter, n *svgstyle.Node) svgtree.Node {
	x := n.Length("x", svgstyle.Horizontal, 0)
	y := n.Length("y", svgstyle.Vertical, 0)
	w := n.Length("width", svgstyle.Horizontal, 0)
	h := n.Length("height", svgstyle.Vertical, 0)
	if !(w > 0 && h > 0) {
		if w < 0 || h < 0 {
			n.Warn(svgtree.MalformedInput, "negative rectangle size %gx%g", w, h)
		}
		return nil
	}
	rx, hasRx := n.RawLength("rx")
	ry, hasRy := n.RawLength("ry")
	var rxv, ryv float64
	if hasRx {
		rxv = n.ResolveLength(rx, svgstyle.Horizontal)
	}
	if hasRy {
		ryv = n.ResolveLength(ry, svgstyle.Vertical)
	}
	if rxv < 0 || ryv < 0 {
		n.Warn(svgtree.MalformedInput, "negative corner radius")
		rxv, ryv = max(rxv, 0), max(ryv, 0)
	}
	// a missing radius takes the value of the other one
	switch {
	case hasRx && !hasRy:
		ryv = rxv
	case hasRy && !hasRx:
		rxv = ryv
	}
	return c.shape(n, svgpath.NewRect(x, y, w, h, rxv, ryv))
}

func circleF(c *converter, n *svgstyle.Node) svgtree.Node {
	cx := n.Length("cx", svgstyle.Horizontal, 0)
	cy := n.Length("cy", svgstyle.Vertical, 0)
	r := n.Length("r", svgstyle.Diagonal, 0)
	if r <= 0 {
		if r < 0 {
			n.Warn(svgtree.MalformedInput, "negative radius %g", r)
		}
		return nil
	}
	return c.shape(n, svgpath.NewEllipse(cx, cy, r, r))
}

func ellipseF(c *converter, n *svgstyle.Node) svgtree.Node {
	cx := n.Length("cx", svgstyle.Horizontal, 0)
	cy := n.Length("cy", svgstyle.Vertical, 0)
	rx := n.Length("rx", svgstyle.Horizontal, 0)
	ry := n.Length("ry", svgstyle.Vertical, 0)
	if !(rx > 0 && ry > 0) {
		if rx < 0 || ry < 0 {
			n.Warn(svgtree.MalformedInput, "negative radius %gx%g", rx, ry)
		}
		return nil
	}
	return c.shape(n, svgpath.NewEllipse(cx, cy, rx, ry))
}

func lineF(c *converter, n *svgstyle.Node) svgtree.Node {
	x1 := n.Length("x1", svgstyle.Horizontal, 0)
	y1 := n.Length("y1", svgstyle.Vertical, 0)
	x2 := n.Length("x2", svgstyle.Horizontal, 0)
	y2 := n.Length("y2", svgstyle.Vertical, 0)
	c.checkMarkers(n)
	return c.shape(n, svgpath.NewLine(x1, y1, x2, y2))
}

// points returns the points attribute, dropping an odd trailing coordinate.
func points(n *svgstyle.Node) []float64 {
	coords, _ := n.Numbers("points")
	if len(coords)%2 == 1 {
		n.Warn(svgtree.MalformedInput, "odd number of coordinates in points")
		coords = coords[:len(coords)-1]
	}
	return coords
}

func polylineF(c *converter, n *svgstyle.Node) svgtree.Node {
	c.checkMarkers(n)
	return c.shape(n, svgpath.NewPolyline(points(n)))
}

func polygonF(c *converter, n *svgstyle.Node) svgtree.Node {
	c.checkMarkers(n)
	return c.shape(n, svgpath.NewPolygon(points(n)))
}

func (c *converter) checkMarkers(n *svgstyle.Node) {
	for _, prop := range [...]string{"marker-start", "marker-mid", "marker-end"} {
		if v := n.Prop(prop); v != "none" && v != "" {
			n.Warn(svgtree.UnsupportedFeature, "markers are not supported")
			return
		}
	}
}

// shape returns the path node for a shape element, or nil
// if the geometry is empty or hidden.
func (c *converter) shape(n *svgstyle.Node, geom svgpath.Path) svgtree.Node {
	p := c.paintedPath(n, geom)
	if p == nil {
		return nil
	}
	p.Transform = n.Transform("transform")
	return p
}

// paintedPath returns a path node with the fill and stroke of n, or nil.
// Paths without paint are kept, since they contribute to the bounding
// box of their parent.
func (c *converter) paintedPath(n *svgstyle.Node, geom svgpath.Path) *svgtree.Path {
	bbox, hasBBox := geom.Bounds()
	return c.paintedPathIn(n, geom, bbox, hasBBox)
}

// paintedPathIn is like paintedPath, with the bounding box used by
// objectBoundingBox paints given explicitly.
func (c *converter) paintedPathIn(n *svgstyle.Node, geom svgpath.Path, bbox svgpath.Rect, hasBBox bool) *svgtree.Path {
	if geom.IsEmpty() {
		return nil
	}
	if v := n.Prop("visibility"); v == "hidden" || v == "collapse" {
		return nil
	}
	p := &svgtree.Path{Base: svgtree.NewBase(), Geometry: geom}
	switch n.Prop("shape-rendering") {
	case "crispEdges":
		p.Rendering = svgtree.RenderCrispEdges
	case "optimizeSpeed":
		p.Rendering = svgtree.RenderOptimizeSpeed
	}
	if c.clipMode {
		p.Fill = &svgtree.Fill{Paint: opaque, Opacity: 1, Rule: fillRule(n, "clip-rule")}
		return p
	}
	if paint := c.paint(n, "fill", bbox, hasBBox); paint != nil {
		p.Fill = &svgtree.Fill{Paint: paint, Opacity: n.Opacity("fill-opacity"), Rule: fillRule(n, "fill-rule")}
	}
	p.Stroke = c.stroke(n, bbox, hasBBox)
	return p
}

func fillRule(n *svgstyle.Node, prop string) svgpath.FillRule {
	if n.Keyword(prop, "nonzero", "evenodd") == "evenodd" {
		return svgpath.EvenOdd
	}
	return svgpath.NonZero
}

func (c *converter) stroke(n *svgstyle.Node, bbox svgpath.Rect, hasBBox bool) *svgtree.Stroke {
	width := n.Length("stroke-width", svgstyle.Diagonal, 1)
	if width <= 0 {
		if width < 0 {
			n.Warn(svgtree.MalformedInput, "negative stroke width %g", width)
		}
		return nil
	}
	paint := c.paint(n, "stroke", bbox, hasBBox)
	if paint == nil {
		return nil
	}
	style := svgpath.StrokeStyle{
		Width:      width,
		MiterLimit: n.Number("stroke-miterlimit", 4),
		Dash:       n.Lengths("stroke-dasharray", svgstyle.Diagonal),
		DashOffset: n.Length("stroke-dashoffset", svgstyle.Diagonal, 0),
	}
	if style.MiterLimit < 1 {
		n.Warn(svgtree.MalformedInput, "stroke-miterlimit must be at least 1")
		style.MiterLimit = 4
	}
	switch n.Keyword("stroke-linecap", "butt", "round", "square") {
	case "round":
		style.Cap = svgpath.RoundCap
	case "square":
		style.Cap = svgpath.SquareCap
	}
	switch n.Keyword("stroke-linejoin", "miter", "round", "bevel") {
	case "round":
		style.Join = svgpath.RoundJoin
	case "bevel":
		style.Join = svgpath.BevelJoin
	}
	return &svgtree.Stroke{Paint: paint, Opacity: n.Opacity("stroke-opacity"), Style: style}
}
