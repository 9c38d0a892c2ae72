// Package svgsimplify converts a raw SVG document into a simplified
// drawing tree: styles are resolved, shapes converted to paths, and
// every reference (use, gradient, pattern, clip path, mask, filter)
// replaced by an owned descriptor.
//
// Simplification never fails: problems are reported as diagnostics and
// the faulty parts are replaced by well defined fallbacks.
package svgsimplify

import (
	"io"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraw"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtext"
	"github.com/benoitkugler/microsvg/svgtree"
	"golang.org/x/text/language"
)

// ImageResolver returns the content of an image referenced by a
// (non data) URL, for instance by reading a file.
type ImageResolver func(href string) ([]byte, error)

// Options configures the simplification.
type Options struct {
	svgstyle.Options

	// Tolerance is the maximum error allowed when approximating
	// arcs with cubic segments, in user units.
	Tolerance float64 `toml:"tolerance"`
	// KeepGroups disables the removal of the groups
	// without visual effect.
	KeepGroups bool `toml:"keep_groups"`
	// Languages are the user languages, used by the systemLanguage
	// conditional attribute.
	Languages []string `toml:"languages"`

	// MaxPatternDepth is the maximum number of nested patterns.
	MaxPatternDepth int `toml:"max_pattern_depth"`
	// MaxClipChain is the maximum number of chained clip paths.
	MaxClipChain int `toml:"max_clip_chain"`
	// MaxFilterPrimitives is the maximum number of primitives in one filter.
	MaxFilterPrimitives int `toml:"max_filter_primitives"`

	// Fonts provides the glyph outlines of text elements.
	// A nil value uses svgtext.GoFonts.
	Fonts svgtext.FontProvider `toml:"-"`
	// Images resolves the external images. If nil, only
	// the data URLs are supported.
	Images ImageResolver `toml:"-"`
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Options:             svgstyle.DefaultOptions(),
		Tolerance:           svgpath.DefaultTolerance,
		Languages:           []string{"en"},
		MaxPatternDepth:     16,
		MaxClipChain:        32,
		MaxFilterPrimitives: 200,
		Fonts:               svgtext.GoFonts,
	}
}

func (opts *Options) setDefaults() {
	def := DefaultOptions()
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = def.DefaultWidth
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = def.DefaultHeight
	}
	if opts.MaxUseDepth <= 0 {
		opts.MaxUseDepth = def.MaxUseDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if len(opts.Languages) == 0 {
		opts.Languages = def.Languages
	}
	if opts.MaxPatternDepth <= 0 {
		opts.MaxPatternDepth = def.MaxPatternDepth
	}
	if opts.MaxClipChain <= 0 {
		opts.MaxClipChain = def.MaxClipChain
	}
	if opts.MaxFilterPrimitives <= 0 {
		opts.MaxFilterPrimitives = def.MaxFilterPrimitives
	}
	if opts.Fonts == nil {
		opts.Fonts = def.Fonts
	}
}

// converter holds the state of one simplification.
type converter struct {
	opts      Options
	diags     *svgtree.Diagnostics
	index     svgstyle.Index
	languages []language.Base

	// definitions being converted, to break reference cycles
	visiting map[*svgstyle.Node]bool

	depth, patternDepth, clipChain int
	imageDepth                     int // nesting of svg images

	// budget is shared with the nested svg images
	budget *nodeBudget

	// clipMode is true when converting the content of a clip path:
	// paths are filled with an opaque color and their clip rule.
	clipMode bool
}

// Simplify converts the document. The returned tree is always valid,
// possibly empty, and the problems are reported in the diagnostics.
func Simplify(doc *svgraw.Document, opts Options) (*svgtree.Tree, svgtree.Diagnostics) {
	opts.setDefaults()
	var diags svgtree.Diagnostics
	tree := simplify(doc, opts, &diags, 0, &nodeBudget{left: opts.MaxNodes})
	return tree, diags
}

// nodeBudget bounds the number of converted elements. Definitions
// (masks, patterns, clip paths, filter images) are converted again
// for each element using them, so the tree may be much larger
// than the document.
type nodeBudget struct {
	left      int
	exhausted bool
}

// take returns false, reporting it once, if no element may be added.
func (c *converter) take(n *svgstyle.Node) bool {
	if c.budget.left <= 0 {
		if !c.budget.exhausted {
			c.budget.exhausted = true
			n.Warn(svgtree.ResourceLimitExceeded, "more than %d converted elements: tree truncated", c.opts.MaxNodes)
		}
		return false
	}
	c.budget.left--
	return true
}

// FromReader reads and simplifies an SVG file. Only an invalid
// XML input returns an error.
func FromReader(r io.Reader, opts Options) (*svgtree.Tree, svgtree.Diagnostics, error) {
	doc, err := svgraw.Read(r)
	if err != nil {
		return nil, nil, err
	}
	tree, diags := Simplify(doc, opts)
	return tree, diags, nil
}

func simplify(doc *svgraw.Document, opts Options, diags *svgtree.Diagnostics, imageDepth int, budget *nodeBudget) *svgtree.Tree {
	root, index := svgstyle.Resolve(doc, opts.Options, diags)
	c := &converter{
		opts:       opts,
		diags:      diags,
		index:      index,
		visiting:   make(map[*svgstyle.Node]bool),
		imageDepth: imageDepth,
		budget:     budget,
	}
	for _, l := range opts.Languages {
		tag, err := language.Parse(l)
		if err != nil {
			diags.Add(svgtree.MalformedInput, "options", "invalid language %q: %s", l, err)
			continue
		}
		base, _ := tag.Base()
		c.languages = append(c.languages, base)
	}
	if hasStyleSheet(doc.Root) {
		diags.Add(svgtree.UnsupportedFeature, "style", "style sheets are not supported and have been ignored")
	}
	return c.tree(root)
}

func hasStyleSheet(e *svgraw.Element) bool {
	if e.Tag == "style" {
		return true
	}
	for _, c := range e.Children {
		if hasStyleSheet(c) {
			return true
		}
	}
	return false
}

func (c *converter) tree(root *svgstyle.Node) *svgtree.Tree {
	w, h, vb := c.documentSize(root)
	g := &svgtree.Group{Base: svgtree.NewBase()}
	g.ID = root.ID()
	g.Transform = root.AspectRatio().ViewBoxTransform(vb, svgpath.Rect{W: w, H: h})
	if root.Prop("display") != "none" {
		c.children(root, g)
	}
	if wrapped, ok := c.applyCommon(root, g).(*svgtree.Group); ok {
		g = wrapped
	}
	if !c.opts.KeepGroups {
		reduce(g)
	}
	svgtree.ComputeBBoxes(g, c.opts.Tolerance)
	return &svgtree.Tree{Width: w, Height: h, ViewBox: vb, Root: g}
}

// rootLength returns the absolute size given by the root element.
// Percentages are ignored, since the root has no parent viewport.
func rootLength(root *svgstyle.Node, name string, axis svgstyle.Axis) (float64, bool) {
	l, ok := root.RawLength(name)
	if !ok || l.Unit == svgstyle.UnitPercent {
		return 0, false
	}
	return root.ResolveLength(l, axis), true
}

func (c *converter) documentSize(root *svgstyle.Node) (w, h float64, vb svgpath.Rect) {
	vb, hasVB := root.ViewBox()
	w, hasW := rootLength(root, "width", svgstyle.Horizontal)
	h, hasH := rootLength(root, "height", svgstyle.Vertical)
	switch {
	case hasW && hasH:
	case hasVB && hasW:
		h = w * vb.H / vb.W
	case hasVB && hasH:
		w = h * vb.W / vb.H
	case hasVB:
		w, h = vb.W, vb.H
	default:
		if !hasW {
			w = c.opts.DefaultWidth
		}
		if !hasH {
			h = c.opts.DefaultHeight
		}
	}
	if !(w > 0 && h > 0) {
		root.Warn(svgtree.MalformedInput, "invalid document size %gx%g, default used", w, h)
		w, h = c.opts.DefaultWidth, c.opts.DefaultHeight
	}
	if !hasVB {
		vb = svgpath.Rect{W: w, H: h}
	}
	return w, h, vb
}

type elementFunc func(c *converter, n *svgstyle.Node) svgtree.Node

var elementFuncs map[string]elementFunc

func init() {
	// avoids an initialization cycle, since groups convert their children
	elementFuncs = map[string]elementFunc{
		"svg":      svgF,
		"g":        groupF,
		"a":        groupF,
		"switch":   switchF,
		"path":     pathF,
		"rect":     rectF,
		"circle":   circleF,
		"ellipse":  ellipseF,
		"line":     lineF,
		"polyline": polylineF,
		"polygon":  polygonF,
		"image":    imageF,
		"text":     textF,
	}
}

// nonRendering are the elements silently skipped in place:
// definitions, descriptive elements and the ones only
// meaningful inside another element.
var nonRendering = map[string]bool{
	"defs": true, "linearGradient": true, "radialGradient": true, "pattern": true,
	"clipPath": true, "mask": true, "filter": true, "symbol": true, "marker": true,
	"title": true, "desc": true, "metadata": true, "style": true, "script": true,
	"stop": true, "tspan": true, "tref": true, "textPath": true, "cursor": true,
	"view": true, "font": true, "font-face": true, "glyph": true, "missing-glyph": true,
	"color-profile": true, "animate": true, "animateColor": true, "animateMotion": true,
	"animateTransform": true, "set": true, "mpath": true,
}

// convert returns the node for n, or nil if nothing has to be drawn.
func (c *converter) convert(n *svgstyle.Node) svgtree.Node {
	if n.IsText() {
		return nil
	}
	fn, ok := elementFuncs[n.Tag]
	if !ok {
		if !nonRendering[n.Tag] && !strings.HasPrefix(n.Tag, "fe") {
			n.Warn(svgtree.UnsupportedFeature, "element %s is not supported", n.Tag)
		}
		return nil
	}
	if n.Prop("display") == "none" || !c.conditionsPass(n) {
		return nil
	}
	if c.depth >= c.opts.MaxDepth {
		n.Warn(svgtree.ResourceLimitExceeded, "tree deeper than %d: element dropped", c.opts.MaxDepth)
		return nil
	}
	if !c.take(n) {
		return nil
	}
	c.depth++
	defer func() { c.depth-- }()

	node := fn(c, n)
	if node == nil {
		return nil
	}
	return c.applyCommon(n, node)
}

// children converts the children of n into g.
func (c *converter) children(n *svgstyle.Node, g *svgtree.Group) {
	for _, child := range n.Children {
		if node := c.convert(child); node != nil {
			g.Children = append(g.Children, node)
		}
	}
}

// applyCommon sets the fields shared by every node: id, opacity,
// blending and effects. The returned node is either node or a group
// wrapping it.
func (c *converter) applyCommon(n *svgstyle.Node, node svgtree.Node) svgtree.Node {
	b := node.Common()
	b.ID = n.ID()

	bbox := func() (svgpath.Rect, bool) {
		svgtree.ComputeBBoxes(node, c.opts.Tolerance)
		return b.BBox, b.HasBBox
	}

	if clip := c.clipPath(n, bbox); clip != nil {
		if b.Clip != nil { // the node already clips its content
			node = wrap(node)
			b = node.Common()
		}
		b.Clip = clip
	}
	if c.clipMode {
		return node
	}

	b.Opacity = n.Opacity("opacity")
	if n.HasProp("mix-blend-mode") {
		v := n.Prop("mix-blend-mode")
		mode, ok := svgtree.ParseBlendMode(strings.TrimSpace(v))
		if !ok {
			n.Warn(svgtree.MalformedInput, "invalid mix-blend-mode %q", v)
		}
		b.Blend = mode
	}
	b.Mask = c.mask(n, bbox)
	b.Filter = c.filter(n, bbox)
	return node
}

// wrap moves node into a new group, moving its transform and
// identifier to the group.
func wrap(node svgtree.Node) *svgtree.Group {
	b := node.Common()
	g := &svgtree.Group{Base: svgtree.NewBase(), Children: []svgtree.Node{node}}
	g.ID, b.ID = b.ID, ""
	g.Transform, b.Transform = b.Transform, svgpath.Identity
	return g
}

// conditionsPass evaluates the conditional processing attributes.
func (c *converter) conditionsPass(n *svgstyle.Node) bool {
	if _, ok := n.Attr("requiredExtensions"); ok {
		return false // no extension is supported
	}
	if v, ok := n.Attr("requiredFeatures"); ok && strings.TrimSpace(v) == "" {
		return false
	}
	if v, ok := n.Attr("systemLanguage"); ok {
		return c.matchLanguage(v)
	}
	return true
}

// matchLanguage returns true if one of the comma separated languages
// of list has the same base language as one of the user languages.
func (c *converter) matchLanguage(list string) bool {
	for _, l := range strings.Split(list, ",") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		for _, user := range c.languages {
			if base == user {
				return true
			}
		}
	}
	return false
}

func groupF(c *converter, n *svgstyle.Node) svgtree.Node {
	g := &svgtree.Group{Base: svgtree.NewBase()}
	g.Transform = n.Transform("transform")
	c.children(n, g)
	return g
}

// switchF renders the first direct child whose conditions pass.
func switchF(c *converter, n *svgstyle.Node) svgtree.Node {
	g := &svgtree.Group{Base: svgtree.NewBase()}
	g.Transform = n.Transform("transform")
	for _, child := range n.Children {
		if child.IsText() || elementFuncs[child.Tag] == nil || !c.conditionsPass(child) {
			continue
		}
		if node := c.convert(child); node != nil {
			g.Children = append(g.Children, node)
		}
		break
	}
	return g
}

// svgF handles nested svg elements, and the symbols instantiated by use.
func svgF(c *converter, n *svgstyle.Node) svgtree.Node {
	r := n.ViewportRect()
	if !(r.W > 0 && r.H > 0) {
		if r.W < 0 || r.H < 0 {
			n.Warn(svgtree.MalformedInput, "negative viewport size %gx%g", r.W, r.H)
		}
		return nil
	}
	inner := &svgtree.Group{Base: svgtree.NewBase()}
	if vb, ok := n.ViewBox(); ok {
		inner.Transform = n.AspectRatio().ViewBoxTransform(vb, r)
	} else {
		inner.Transform = svgpath.Identity.Translate(r.X, r.Y)
	}
	c.children(n, inner)

	// nested viewports clip their content, unless overflow is visible
	overflow := n.Prop("overflow")
	if n.HasProp("overflow") && (overflow == "visible" || overflow == "auto") {
		return inner
	}
	outer := &svgtree.Group{Base: svgtree.NewBase(), Children: []svgtree.Node{inner}}
	outer.Clip = rectClip(r)
	return outer
}

// rectClip returns a clip path restricting to r.
func rectClip(r svgpath.Rect) *svgtree.ClipPath {
	p := &svgtree.Path{Base: svgtree.NewBase(), Geometry: r.Path()}
	p.Fill = &svgtree.Fill{Paint: opaque, Opacity: 1, Rule: svgpath.NonZero}
	root := &svgtree.Group{Base: svgtree.NewBase(), Children: []svgtree.Node{p}}
	svgtree.ComputeBBoxes(root, 0)
	return &svgtree.ClipPath{Transform: svgpath.Identity, Root: root}
}

// opaque is the paint used for clip content.
var opaque = svgtree.PlainColor{A: 0xff}
