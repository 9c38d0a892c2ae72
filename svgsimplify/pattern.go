package svgsimplify

import (
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

// pattern resolves a pattern for an element with the given bounding box.
// Attributes and content are inherited along the href chain.
func (c *converter) pattern(server *svgstyle.Node, bbox svgpath.Rect, hasBBox bool) svgtree.Paint {
	if c.visiting[server] {
		server.Warn(svgtree.UnresolvableReference, "pattern used inside its own content")
		return nil
	}
	if c.patternDepth >= c.opts.MaxPatternDepth {
		server.Warn(svgtree.ResourceLimitExceeded, "more than %d nested patterns", c.opts.MaxPatternDepth)
		return nil
	}
	ch := c.hrefChain(server, "pattern")
	pat := &svgtree.Pattern{
		ID:           server.ID(),
		Units:        ch.units("patternUnits", svgtree.ObjectBoundingBox),
		ContentUnits: ch.units("patternContentUnits", svgtree.UserSpaceOnUse),
		Transform:    ch.transform("patternTransform"),
	}
	needBBox := pat.Units == svgtree.ObjectBoundingBox || pat.ContentUnits == svgtree.ObjectBoundingBox
	if needBBox && (!hasBBox || bbox.IsEmpty()) {
		return nil
	}
	pat.Rect = ch.region(pat.Units, bbox, [4]float64{0, 0, 0, 0})
	if pat.Rect.IsEmpty() {
		return nil
	}
	if !pat.Transform.IsInvertible() {
		server.Warn(svgtree.MalformedInput, "patternTransform is not invertible")
		return nil
	}
	content := ch.withChildren()
	if content == nil {
		return nil
	}

	// content space to pattern space
	m := svgpath.Identity.Translate(pat.Rect.X, pat.Rect.Y)
	vb, hasVB := svgpath.Rect{}, false
	if n := ch.with("viewBox"); n != nil {
		vb, hasVB = n.ViewBox()
	}
	if hasVB {
		ar := svgstyle.DefaultAspectRatio
		if n := ch.with("preserveAspectRatio"); n != nil {
			ar = n.AspectRatio()
		}
		m = ar.ViewBoxTransform(vb, pat.Rect)
	} else if pat.ContentUnits == svgtree.ObjectBoundingBox {
		m = m.Scale(bbox.W, bbox.H)
	}

	c.visiting[server] = true
	c.patternDepth++
	defer func() {
		delete(c.visiting, server)
		c.patternDepth--
	}()
	saved := c.clipMode
	c.clipMode = false
	defer func() { c.clipMode = saved }()

	pat.Content = &svgtree.Group{Base: svgtree.NewBase()}
	pat.Content.Transform = m
	c.children(content, pat.Content)
	svgtree.ComputeBBoxes(pat.Content, c.opts.Tolerance)
	return pat
}
