package svgtree

import "github.com/benoitkugler/microsvg/svgpath"

// ComputeBBoxes sets the bounding boxes of n and its descendants,
// bottom-up. It must be called once the geometry is final, and
// before the tree is shared.
func ComputeBBoxes(n Node, tolerance float64) {
	b := n.Common()
	b.HasBBox = false
	switch n := n.(type) {
	case *Path:
		fill, ok := n.Geometry.Bounds()
		if !ok {
			return
		}
		b.BBox, b.StrokeBBox, b.HasBBox = fill, fill, true
		if n.Stroke != nil && n.Stroke.Paint != nil {
			if stroke, ok := n.Geometry.StrokeBounds(n.Stroke.Style, tolerance); ok {
				b.StrokeBBox = stroke.Union(fill)
			}
		}
	case *Image:
		if r, ok := n.Rect.Intersect(n.Viewport); ok {
			b.BBox, b.StrokeBBox, b.HasBBox = r, r, true
		}
	case *Group:
		for _, child := range n.Children {
			ComputeBBoxes(child, tolerance)
			cb := child.Common()
			fill, stroke, ok := cb.ClippedBBoxes()
			if !ok {
				continue
			}
			fill, stroke = fill.Transform(cb.Transform), stroke.Transform(cb.Transform)
			if b.HasBBox {
				fill, stroke = fill.Union(b.BBox), stroke.Union(b.StrokeBBox)
			}
			b.BBox, b.StrokeBBox, b.HasBBox = fill, stroke, true
		}
	}
}

// ClippedBBoxes returns the bounding boxes restricted to the area let
// through by the clip path, in the user space of the node (before its
// transform). It returns false if nothing is visible.
func (b *Base) ClippedBBoxes() (fill, stroke svgpath.Rect, ok bool) {
	if !b.HasBBox {
		return fill, stroke, false
	}
	fill, stroke = b.BBox, b.StrokeBBox
	if b.Clip == nil {
		return fill, stroke, true
	}
	clip, ok := b.Clip.Bounds()
	if !ok {
		return fill, stroke, false
	}
	if fill, ok = fill.Intersect(clip); !ok {
		return fill, stroke, false
	}
	stroke, ok = stroke.Intersect(clip)
	return fill, stroke, ok
}

// Bounds returns the area the clip path may let through, in the user
// space of the clipped element. It returns false if the clip hides
// everything. The bounding boxes of the content must be computed.
func (cp *ClipPath) Bounds() (svgpath.Rect, bool) {
	rb := cp.Root.Common()
	if !rb.HasBBox {
		return svgpath.Rect{}, false
	}
	r := rb.BBox.Transform(rb.Transform).Transform(cp.Transform)
	if cp.Clip == nil {
		return r, true
	}
	inner, ok := cp.Clip.Bounds()
	if !ok {
		return svgpath.Rect{}, false
	}
	return r.Intersect(inner)
}

// BBoxOf returns the bounding box of the given kind for n,
// in n coordinates.
func BBoxOf(n Node, kind svgpath.BBoxKind) (svgpath.Rect, bool) {
	b := n.Common()
	if kind == svgpath.StrokeBBox {
		return b.StrokeBBox, b.HasBBox
	}
	return b.BBox, b.HasBBox
}
