package svgsimplify

import (
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtree"
)

// bboxFunc lazily computes the bounding box of the element
// using an effect, in its local coordinates.
type bboxFunc func() (svgpath.Rect, bool)

// reference returns the element referenced by the property prop of n,
// checking its tag and reference cycles. It returns nil if the property
// is none or the reference is invalid.
func (c *converter) reference(n *svgstyle.Node, prop, tag string) *svgstyle.Node {
	if !n.HasProp(prop) {
		return nil
	}
	id, ok := n.FuncIRI(prop)
	if !ok {
		return nil
	}
	target := c.index[id]
	if target == nil || target.Tag != tag {
		n.Warn(svgtree.UnresolvableReference, "%s %q not found: %s ignored", tag, id, prop)
		return nil
	}
	if c.visiting[target] {
		n.Warn(svgtree.UnresolvableReference, "cyclic reference to %s %q: %s ignored", tag, id, prop)
		return nil
	}
	return target
}

// isClipChild returns true for the elements allowed in a clip path:
// shapes, text, and use elements referencing them.
func isClipChild(n *svgstyle.Node) bool {
	switch n.Tag {
	case "rect", "circle", "ellipse", "line", "polyline", "polygon", "path", "text":
		return true
	case "g":
		if !n.FromUse() {
			return false
		}
		for _, child := range n.Children {
			if !child.IsText() {
				return isClipChild(child) && child.Tag != "g"
			}
		}
	}
	return false
}

// clipPath resolves the clip-path property of n.
func (c *converter) clipPath(n *svgstyle.Node, bbox bboxFunc) *svgtree.ClipPath {
	target := c.reference(n, "clip-path", "clipPath")
	if target == nil {
		return nil
	}
	if c.clipChain >= c.opts.MaxClipChain {
		n.Warn(svgtree.ResourceLimitExceeded, "more than %d chained clip paths", c.opts.MaxClipChain)
		return nil
	}
	c.visiting[target] = true
	c.clipChain++
	defer func() {
		delete(c.visiting, target)
		c.clipChain--
	}()

	cp := &svgtree.ClipPath{
		ID:        target.ID(),
		Transform: target.Transform("transform"),
		Root:      &svgtree.Group{Base: svgtree.NewBase()},
	}
	if target.Units("clipPathUnits", svgtree.UserSpaceOnUse) == svgtree.ObjectBoundingBox {
		r, ok := bbox()
		if !ok || r.IsEmpty() {
			// nothing is visible
			cp.Transform = svgpath.Identity
			return cp
		}
		cp.Transform = bboxMatrix(r).Mult(cp.Transform)
	}

	saved := c.clipMode
	c.clipMode = true
	for _, child := range target.Children {
		if child.IsText() || !isClipChild(child) {
			continue
		}
		if node := c.convert(child); node != nil {
			cp.Root.Children = append(cp.Root.Children, node)
		}
	}
	c.clipMode = saved
	svgtree.ComputeBBoxes(cp.Root, c.opts.Tolerance)

	// a clip path may itself be clipped, in the same user space
	cp.Clip = c.clipPath(target, bbox)
	return cp
}

// mask resolves the mask property of n.
func (c *converter) mask(n *svgstyle.Node, bbox bboxFunc) *svgtree.Mask {
	target := c.reference(n, "mask", "mask")
	if target == nil {
		return nil
	}
	c.visiting[target] = true
	defer delete(c.visiting, target)

	m := &svgtree.Mask{
		ID:           target.ID(),
		Units:        target.Units("maskUnits", svgtree.ObjectBoundingBox),
		ContentUnits: target.Units("maskContentUnits", svgtree.UserSpaceOnUse),
		Root:         &svgtree.Group{Base: svgtree.NewBase()},
	}
	var r svgpath.Rect
	if m.Units == svgtree.ObjectBoundingBox || m.ContentUnits == svgtree.ObjectBoundingBox {
		var ok bool
		r, ok = bbox()
		if !ok || r.IsEmpty() {
			return m // empty region: nothing is visible
		}
	}
	m.Rect = chain{target}.region(m.Units, r, [4]float64{-10, -10, 120, 120})
	if m.Rect.IsEmpty() {
		return m
	}
	if m.ContentUnits == svgtree.ObjectBoundingBox {
		m.Root.Transform = bboxMatrix(r)
	}

	saved := c.clipMode
	c.clipMode = false
	c.children(target, m.Root)
	c.clipMode = saved
	svgtree.ComputeBBoxes(m.Root, c.opts.Tolerance)

	m.Mask = c.mask(target, bbox)
	return m
}
