// Package svgtree defines the simplified, immutable drawing tree
// ("Micro SVG") produced by svgsimplify and consumed by svgdraw.
//
// Every definition (gradient, pattern, clip path, mask, filter) is owned
// by pointer by the nodes using it: there is no lookup by id, and all the
// numbers are absolute user units. Once built, a tree is never modified,
// so that it may be rendered concurrently on independent canvases.
package svgtree

import (
	"image"

	"github.com/benoitkugler/microsvg/svgpath"
)

// Tree is a simplified document.
type Tree struct {
	// Width and Height are the size of the document, in pixels.
	Width, Height float64
	// ViewBox is the user space area mapped onto the document size.
	ViewBox svgpath.Rect
	// Root carries the view box transform.
	Root *Group
}

// Node is one of *Group, *Path or *Image.
type Node interface {
	// Common returns the fields shared by all the nodes.
	Common() *Base
	isNode()
}

func (*Group) isNode() {}
func (*Path) isNode()  {}
func (*Image) isNode() {}

// Base holds the fields common to all nodes.
type Base struct {
	ID        string // label only, never used as a reference
	Transform svgpath.Matrix2D
	Opacity   float64 // in [0, 1]

	Clip   *ClipPath // optional
	Mask   *Mask     // optional
	Filter *Filter   // optional
	Blend  BlendMode

	// BBox is the geometric bounding box, in the node coordinates
	// (before Transform), and StrokeBBox includes the stroke.
	// They are only valid if HasBBox is true.
	BBox, StrokeBBox svgpath.Rect
	HasBBox          bool
}

// Common implements Node.
func (b *Base) Common() *Base { return b }

// NewBase returns the default common fields.
func NewBase() Base { return Base{Transform: svgpath.Identity, Opacity: 1} }

// Isolated returns true if the node must be rendered in its own layer
// and composited afterwards.
func (b *Base) Isolated() bool {
	return b.Opacity < 1 || b.Mask != nil || b.Filter != nil || b.Blend != BlendNormal
}

// Group is a container node.
type Group struct {
	Base
	Children []Node
}

// ShapeRendering is an anti-aliasing hint.
type ShapeRendering uint8

const (
	RenderAuto ShapeRendering = iota
	RenderCrispEdges
	RenderOptimizeSpeed
)

// Path is a filled and/or stroked path.
type Path struct {
	Base
	Geometry  svgpath.Path
	Fill      *Fill   // optional
	Stroke    *Stroke // optional
	Rendering ShapeRendering
}

// Fill describes how to fill a path.
type Fill struct {
	Paint   Paint // nil means none
	Opacity float64
	Rule    svgpath.FillRule
}

// Stroke describes how to stroke a path.
type Stroke struct {
	Paint   Paint // nil means none
	Opacity float64
	Style   svgpath.StrokeStyle
}

// Image is a raster image drawn into Rect, and clipped to Viewport.
type Image struct {
	Base
	Data     image.Image
	Format   string       // format name, as returned by image.Decode
	Rect     svgpath.Rect // where the whole image is mapped
	Viewport svgpath.Rect // visible area
	Smooth   bool         // use a smooth interpolation when scaling
}

// NodeByID returns the first node labelled by id, walking the tree
// in document order, or nil.
func (t *Tree) NodeByID(id string) Node {
	var found Node
	Walk(t.Root, svgpath.Identity, func(n Node, _ svgpath.Matrix2D) bool {
		if found == nil && n.Common().ID == id {
			found = n
		}
		return found == nil
	})
	return found
}

// Walk calls fn on n and its descendants in document order, with
// the transform mapping the node coordinates to the ones of m.
// Returning false from fn stops the walk of the node children.
func Walk(n Node, m svgpath.Matrix2D, fn func(n Node, ctm svgpath.Matrix2D) bool) {
	ctm := m.Mult(n.Common().Transform)
	if !fn(n, ctm) {
		return
	}
	if g, ok := n.(*Group); ok {
		for _, child := range g.Children {
			Walk(child, ctm, fn)
		}
	}
}
