package svgdraw

import (
	"fmt"
	"image/color"
	"math"

	"github.com/benoitkugler/microsvg/svgfilter"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgtree"
)

// renderer walks a tree, issuing the drawing operations.
type renderer struct {
	canvas Canvas
	pixels PixelCanvas // nil if the canvas has no pixel access
	caps   Capabilities
	opts   Options

	depth  int
	diags  *svgtree.Diagnostics
	warned map[string]bool
}

func newRenderer(canvas Canvas, opts Options) *renderer {
	opts.setDefaults()
	r := &renderer{
		canvas: canvas,
		caps:   canvas.Capabilities(),
		opts:   opts,
		diags:  new(svgtree.Diagnostics),
		warned: map[string]bool{},
	}
	r.pixels, _ = canvas.(PixelCanvas)
	return r
}

// sub returns a renderer drawing on canvas, sharing the
// diagnostics and the depth of r.
func (r *renderer) sub(canvas Canvas) *renderer {
	out := &renderer{
		canvas: canvas,
		caps:   canvas.Capabilities(),
		opts:   r.opts,
		depth:  r.depth,
		diags:  r.diags,
		warned: r.warned,
	}
	out.pixels, _ = canvas.(PixelCanvas)
	return out
}

// warn adds a diagnostic, once per location and message.
func (r *renderer) warn(kind svgtree.Kind, location string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	key := location + "\x00" + msg
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	r.diags.Add(kind, location, "%s", msg)
}

func location(b *svgtree.Base) string {
	if b.ID != "" {
		return "#" + b.ID
	}
	return "render"
}

func (r *renderer) background() {
	if r.opts.Background.A == 0 {
		return
	}
	w, h := r.canvas.Size()
	r.canvas.SetTransform(svgpath.Identity)
	r.canvas.Fill(svgpath.Rect{W: float64(w), H: float64(h)}.Path(), svgpath.NonZero, ColorPaint(r.opts.Background))
}

// Render draws the whole tree, scaled to the canvas size.
// Rendering always completes; the issues met are returned.
func Render(tree *svgtree.Tree, canvas Canvas, opts Options) svgtree.Diagnostics {
	r := newRenderer(canvas, opts)
	r.background()
	if tree == nil || tree.Root == nil || !(tree.Width > 0 && tree.Height > 0) {
		return *r.diags
	}
	w, h := canvas.Size()
	base := svgpath.Identity.Scale(float64(w)/tree.Width, float64(h)/tree.Height)
	r.node(tree.Root, base, 1)
	return *r.diags
}

// RenderNode draws node, which must belong to tree, scaled so
// that its bounding box fills the canvas.
func RenderNode(tree *svgtree.Tree, node svgtree.Node, canvas Canvas, opts Options) svgtree.Diagnostics {
	r := newRenderer(canvas, opts)
	r.background()
	parent, ok := parentTransform(tree.Root, node, svgpath.Identity)
	if !ok {
		r.warn(svgtree.UnresolvableReference, "render", "node is not part of the tree")
		return *r.diags
	}
	bbox, ok := NodeBBox(tree, node)
	if !ok || bbox.IsEmpty() {
		return *r.diags
	}
	w, h := canvas.Size()
	base := svgpath.Identity.Scale(float64(w)/bbox.W, float64(h)/bbox.H).Translate(-bbox.X, -bbox.Y)
	r.node(node, base.Mult(parent), 1)
	return *r.diags
}

// NodeBBox returns the bounding box of node, stroke included and
// restricted by its clip path, in the coordinates of the document
// (before any fitting).
func NodeBBox(tree *svgtree.Tree, node svgtree.Node) (svgpath.Rect, bool) {
	parent, ok := parentTransform(tree.Root, node, svgpath.Identity)
	if !ok {
		return svgpath.Rect{}, false
	}
	b := node.Common()
	_, stroke, ok := b.ClippedBBoxes()
	if !ok {
		return svgpath.Rect{}, false
	}
	return stroke.Transform(parent.Mult(b.Transform)), true
}

// parentTransform returns the transform applied to the parent of target.
func parentTransform(n, target svgtree.Node, m svgpath.Matrix2D) (svgpath.Matrix2D, bool) {
	if n == target {
		return m, true
	}
	if g, ok := n.(*svgtree.Group); ok {
		ctm := m.Mult(g.Transform)
		for _, child := range g.Children {
			if pm, ok := parentTransform(child, target, ctm); ok {
				return pm, true
			}
		}
	}
	return svgpath.Matrix2D{}, false
}

// foldableOpacity returns true if the group opacity of n may be
// applied to its paints instead of using a layer.
func foldableOpacity(n svgtree.Node) bool {
	p, ok := n.(*svgtree.Path)
	if !ok {
		return false
	}
	hasFill := p.Fill != nil && p.Fill.Paint != nil
	hasStroke := p.Stroke != nil && p.Stroke.Paint != nil
	return !(hasFill && hasStroke)
}

// node draws n, whose parent is mapped to the device by parent.
// opacity is the inherited group opacity when no layer is used.
func (r *renderer) node(n svgtree.Node, parent svgpath.Matrix2D, opacity float64) {
	b := n.Common()
	ctm := parent.Mult(b.Transform)
	if !ctm.IsInvertible() || b.Opacity <= 0 {
		return
	}
	if r.depth >= r.opts.MaxDepth {
		r.warn(svgtree.ResourceLimitExceeded, location(b), "more than %d nested elements", r.opts.MaxDepth)
		return
	}
	r.depth++
	defer func() { r.depth-- }()

	filter, mask := b.Filter, b.Mask
	if filter != nil && filter.Rect.IsEmpty() {
		// an empty filter region disables the rendering
		return
	}
	if r.pixels == nil {
		if filter != nil {
			r.warn(svgtree.UnsupportedFeature, location(b), "filters are not supported by this canvas")
			filter = nil
		}
		if mask != nil {
			r.warn(svgtree.UnsupportedFeature, location(b), "masks are not supported by this canvas")
			mask = nil
		}
	}

	clips := 0
	var clipLayer *svgtree.ClipPath
	if b.Clip != nil {
		// clips apply after filters: the content must not be clipped
		if path, m, ok := b.Clip.SinglePath(); ok && filter == nil {
			r.canvas.SetTransform(ctm.Mult(m))
			r.canvas.PushClip(path.Geometry, path.Fill.Rule)
			clips = 1
		} else if r.pixels != nil {
			clipLayer = b.Clip
		} else {
			clips = r.pushClipOutline(b.Clip, ctm, location(b))
		}
	}

	layered := filter != nil || mask != nil || clipLayer != nil || b.Blend != svgtree.BlendNormal
	if b.Opacity < 1 {
		if layered || !foldableOpacity(n) {
			layered = true
		} else {
			opacity *= b.Opacity
		}
	}
	if layered {
		r.canvas.PushLayer()
	}
	childOpacity := opacity
	if layered {
		childOpacity = 1
	}

	switch n := n.(type) {
	case *svgtree.Group:
		for _, child := range n.Children {
			r.node(child, ctm, childOpacity)
		}
	case *svgtree.Path:
		r.path(n, ctm, childOpacity)
	case *svgtree.Image:
		r.image(n, ctm)
	}

	if filter != nil {
		r.filter(filter, ctm, location(b))
	}
	if clipLayer != nil {
		r.clipLayer(clipLayer, ctm)
	}
	if mask != nil {
		r.mask(mask, ctm)
	}
	if layered {
		r.canvas.PopLayer(b.Blend, b.Opacity*opacity)
	}
	for ; clips > 0; clips-- {
		r.canvas.PopClip()
	}
}

func (r *renderer) path(p *svgtree.Path, ctm svgpath.Matrix2D, opacity float64) {
	if p.Geometry.IsEmpty() {
		return
	}
	loc := location(&p.Base)
	if p.Fill != nil && p.Fill.Paint != nil {
		if paint, ok := r.paint(p.Fill.Paint, p.Fill.Opacity*opacity, ctm, loc); ok {
			r.canvas.SetTransform(ctm)
			r.canvas.Fill(p.Geometry, p.Fill.Rule, paint)
		}
	}
	if s := p.Stroke; s != nil && s.Paint != nil && s.Style.Width > 0 {
		paint, ok := r.paint(s.Paint, s.Opacity*opacity, ctm, loc)
		if !ok {
			return
		}
		r.canvas.SetTransform(ctm)
		if r.caps.NativeStroke && ctm.IsSimilarity() {
			r.canvas.Stroke(p.Geometry, s.Style, paint)
		} else {
			outline := svgpath.Stroke(p.Geometry, s.Style, r.opts.Tolerance/ctm.MeanScale())
			r.canvas.Fill(outline, svgpath.NonZero, paint)
		}
	}
}

func (r *renderer) image(img *svgtree.Image, ctm svgpath.Matrix2D) {
	if img.Data == nil || img.Rect.IsEmpty() {
		return
	}
	r.canvas.SetTransform(ctm)
	v, rect := img.Viewport, img.Rect
	overflows := rect.X < v.X || rect.Y < v.Y || rect.MaxX() > v.MaxX() || rect.MaxY() > v.MaxY()
	if overflows {
		r.canvas.PushClip(v.Path(), svgpath.NonZero)
	}
	r.canvas.DrawImage(img.Data, rect, img.Smooth)
	if overflows {
		r.canvas.PopClip()
	}
}

// paint resolves p for the current device transform.
func (r *renderer) paint(p svgtree.Paint, opacity float64, ctm svgpath.Matrix2D, loc string) (Paint, bool) {
	if opacity <= 0 {
		return Paint{}, false
	}
	stopColor := func(s svgtree.GradientStop) Paint {
		return Paint{Color: s.Color, Opacity: opacity * s.Opacity}
	}
	switch p := p.(type) {
	case svgtree.PlainColor:
		return Paint{Color: color.NRGBA(p), Opacity: opacity}, p.A != 0
	case *svgtree.LinearGradient:
		switch len(p.Stops) {
		case 0:
			return Paint{}, false
		case 1:
			return stopColor(p.Stops[0]), true
		}
		return Paint{Linear: p, Opacity: opacity}, true
	case *svgtree.RadialGradient:
		switch len(p.Stops) {
		case 0:
			return Paint{}, false
		case 1:
			return stopColor(p.Stops[0]), true
		}
		return Paint{Radial: p, Opacity: opacity}, true
	case *svgtree.Pattern:
		tile, ok := r.patternTile(p, ctm, loc)
		if !ok {
			return Paint{}, false
		}
		return Paint{Pattern: tile, Opacity: opacity}, true
	}
	return Paint{}, false
}

// patternTile renders one cell of pat, at the device resolution.
func (r *renderer) patternTile(pat *svgtree.Pattern, ctm svgpath.Matrix2D, loc string) (*Tile, bool) {
	if pat.Rect.IsEmpty() || pat.Content == nil || !pat.Transform.IsInvertible() {
		return nil, false
	}
	sx, sy := ctm.Mult(pat.Transform).ScaleFactors()
	size := func(v float64) int {
		n := int(math.Ceil(v - 1e-6))
		if n > r.opts.MaxTileSize {
			r.warn(svgtree.ResourceLimitExceeded, loc, "pattern tile reduced to %d pixels", r.opts.MaxTileSize)
			n = r.opts.MaxTileSize
		}
		return max(n, 1)
	}
	tw, th := size(pat.Rect.W*sx), size(pat.Rect.H*sy)
	off := r.canvas.NewOffscreen(tw, th)
	pixels, ok := off.(PixelCanvas)
	if !ok {
		r.warn(svgtree.UnsupportedFeature, loc, "patterns are not supported by this canvas")
		return nil, false
	}
	kx, ky := float64(tw)/pat.Rect.W, float64(th)/pat.Rect.H
	tileSpace := svgpath.Identity.Scale(kx, ky).Translate(-pat.Rect.X, -pat.Rect.Y)
	r.sub(off).node(pat.Content, tileSpace, 1)
	return &Tile{
		Image:     pixels.TakeLayer(),
		Transform: pat.Transform.Translate(pat.Rect.X, pat.Rect.Y).Scale(1/kx, 1/ky),
	}, true
}

// clipLayer intersects the current layer with the clip coverage.
func (r *renderer) clipLayer(clip *svgtree.ClipPath, ctm svgpath.Matrix2D) {
	r.canvas.PushLayer()
	r.node(clip.Root, ctm.Mult(clip.Transform), 1)
	if clip.Clip != nil {
		r.clipLayer(clip.Clip, ctm)
	}
	r.canvas.PopLayer(svgtree.BlendDestinationIn, 1)
}

// pushClipOutline approximates clip by the union of its paths, for
// canvas without pixel access. It returns the number of clips pushed.
func (r *renderer) pushClipOutline(clip *svgtree.ClipPath, ctm svgpath.Matrix2D, loc string) int {
	var outline svgpath.Path
	svgtree.Walk(clip.Root, clip.Transform, func(n svgtree.Node, m svgpath.Matrix2D) bool {
		if n.Common().Clip != nil {
			r.warn(svgtree.UnsupportedFeature, loc, "nested clip paths are ignored by this canvas")
		}
		if p, ok := n.(*svgtree.Path); ok && p.Fill != nil {
			if p.Fill.Rule == svgpath.EvenOdd && len(p.Geometry) > 1 {
				r.warn(svgtree.UnsupportedFeature, loc, "clip rules are approximated by this canvas")
			}
			outline.Append(p.Geometry.Transform(m))
		}
		return true
	})
	r.canvas.SetTransform(ctm)
	r.canvas.PushClip(outline, svgpath.NonZero)
	if clip.Clip != nil {
		return 1 + r.pushClipOutline(clip.Clip, ctm, loc)
	}
	return 1
}

// mask multiplies the current layer by the luminance of the mask.
func (r *renderer) mask(mask *svgtree.Mask, ctm svgpath.Matrix2D) {
	r.canvas.PushLayer()
	r.canvas.SetTransform(ctm)
	r.canvas.PushClip(mask.Rect.Path(), svgpath.NonZero)
	if mask.Root != nil {
		r.node(mask.Root, ctm, 1)
	}
	r.canvas.PopClip()
	if mask.Mask != nil {
		r.mask(mask.Mask, ctm)
	}
	svgfilter.LuminanceToAlpha(r.pixels.TakeLayer())
	r.canvas.PopLayer(svgtree.BlendDestinationIn, 1)
}
