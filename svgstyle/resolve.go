package svgstyle

import (
	"fmt"
	"math"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraw"
	"github.com/benoitkugler/microsvg/svgtree"
)

// Options configures the resolution.
type Options struct {
	// DPI is used to convert absolute units (in, cm, mm, pt, pc).
	DPI float64 `toml:"dpi"`
	// FontSize is the size of the medium keyword, and the
	// initial font size.
	FontSize float64 `toml:"font_size"`
	// DefaultWidth and DefaultHeight are used when the root
	// element has neither size nor view box.
	DefaultWidth  float64 `toml:"default_width"`
	DefaultHeight float64 `toml:"default_height"`

	// MaxUseDepth is the maximum number of nested use expansions.
	MaxUseDepth int `toml:"max_use_depth"`
	// MaxNodes is the maximum number of resolved nodes,
	// use expansions included. The simplifier applies the same
	// bound to the elements it converts.
	MaxNodes int `toml:"max_nodes"`
	// MaxDepth is the maximum depth of the resolved tree.
	MaxDepth int `toml:"max_depth"`
}

// DefaultOptions returns the options used for a zero value.
func DefaultOptions() Options {
	return Options{
		DPI:           96,
		FontSize:      12,
		DefaultWidth:  100,
		DefaultHeight: 100,
		MaxUseDepth:   32,
		MaxNodes:      1_000_000,
		MaxDepth:      1024,
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
}

// Index maps ids to the resolved node of the first element
// carrying them, at its place in the document.
type Index map[string]*Node

type resolver struct {
	opts  Options
	doc   *svgraw.Document
	diags *svgtree.Diagnostics

	elems     map[string]*svgraw.Element // first element by id
	index     Index
	expanding map[*svgraw.Element]bool // elements on the walk stack

	useDepth  int
	useSize   *[2]string // size given by the use referencing a symbol or svg
	cloning   int        // > 0 inside use expansions
	depth     int
	count     int
	truncated bool
}

// Resolve walks the document, computing the styles of each element and
// expanding the use elements. Problems are reported in diags.
func Resolve(doc *svgraw.Document, opts Options, diags *svgtree.Diagnostics) (*Node, Index) {
	opts.setDefaults()
	r := &resolver{
		opts:      opts,
		doc:       doc,
		diags:     diags,
		elems:     make(map[string]*svgraw.Element),
		index:     make(Index),
		expanding: make(map[*svgraw.Element]bool),
	}
	r.collectIDs(doc.Root)
	viewport := svgpath.Rect{W: opts.DefaultWidth, H: opts.DefaultHeight}
	root := r.resolve(doc.Root, nil, viewport)
	return root, r.index
}

func (r *resolver) collectIDs(e *svgraw.Element) {
	if id := e.ID(); id != "" {
		if _, has := r.elems[id]; !has {
			r.elems[id] = e
		}
	}
	for _, c := range e.Children {
		if !c.IsText() {
			r.collectIDs(c)
		}
	}
}

func (r *resolver) resolve(e *svgraw.Element, parent *Node, viewport svgpath.Rect) *Node {
	if e.IsText() {
		return &Node{Text: e.Text, Parent: parent, r: r}
	}
	r.count++
	if r.count > r.opts.MaxNodes {
		if !r.truncated {
			r.truncated = true
			r.diags.Add(svgtree.ResourceLimitExceeded, e.Location(), "more than %d nodes: document truncated", r.opts.MaxNodes)
		}
		return nil
	}

	n := r.newNode(e, parent, viewport)
	if r.cloning == 0 {
		if id := n.ID(); id != "" {
			if _, has := r.index[id]; !has {
				r.index[id] = n
			}
		}
	}

	r.expanding[e] = true
	defer delete(r.expanding, e)

	if e.Tag == "use" {
		r.expandUse(n)
		return n
	}

	if r.depth >= r.opts.MaxDepth {
		r.diags.Add(svgtree.ResourceLimitExceeded, n.Location(), "tree deeper than %d: children dropped", r.opts.MaxDepth)
		return n
	}
	r.depth++
	defer func() { r.depth-- }()

	childViewport := viewport
	if n.Tag == "svg" {
		childViewport = n.ChildViewport()
	}
	for _, c := range e.Children {
		if child := r.resolve(c, n, childViewport); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func (r *resolver) newNode(e *svgraw.Element, parent *Node, viewport svgpath.Rect) *Node {
	n := &Node{
		Tag:      e.Tag,
		Elem:     e,
		Parent:   parent,
		Viewport: viewport,
		r:        r,
		attrs:    make(map[string]string, len(e.Attrs)),
		props:    make(map[string]string),
	}
	for _, a := range e.Attrs {
		n.attrs[a.Name] = a.Value
	}
	if r.useSize != nil && (e.Tag == "svg" || e.Tag == "symbol") {
		// the use size overrides the one of the referenced element
		n.Tag = "svg"
		for i, name := range [2]string{"width", "height"} {
			if v := r.useSize[i]; v != "" {
				n.attrs[name] = v
			} else if _, has := n.attrs[name]; !has {
				n.attrs[name] = "100%"
			}
		}
		r.useSize = nil
	}

	parentFontSize := r.opts.FontSize
	if parent != nil {
		parentFontSize = parent.FontSize
		for k, v := range parent.props {
			if IsInherited(k) {
				n.props[k] = v
			}
		}
	}
	style := r.doc.Style(e)
	for k, v := range style {
		if v == "inherit" {
			if parent != nil {
				n.props[k] = parent.Prop(k)
			} else {
				delete(n.props, k)
			}
			continue
		}
		n.props[k] = v
	}
	n.FontSize = parentFontSize
	if v, ok := style["font-size"]; ok && v != "inherit" {
		n.FontSize = n.computeFontSize(v, parentFontSize)
	}
	n.props["font-size"] = svgpath.FormatFloat(n.FontSize)
	return n
}

var fontSizeKeywords = map[string]float64{
	"xx-small": -3,
	"x-small":  -2,
	"small":    -1,
	"medium":   0,
	"large":    1,
	"x-large":  2,
	"xx-large": 3,
}

func (n *Node) computeFontSize(v string, parentSize float64) float64 {
	if exp, ok := fontSizeKeywords[v]; ok {
		return n.r.opts.FontSize * math.Pow(1.2, exp)
	}
	switch v {
	case "larger":
		return parentSize * 1.2
	case "smaller":
		return parentSize / 1.2
	}
	l, err := ParseLength(v)
	if err != nil {
		n.warn(svgtree.MalformedInput, "invalid font-size %q", v)
		return parentSize
	}
	if l.Unit == UnitPercent {
		return parentSize * l.Value / 100
	}
	ctx := n.unitContext()
	ctx.FontSize = parentSize
	return l.Resolve(ctx, Diagonal)
}

// expandUse turns the use node n into a group holding a copy of
// the referenced element, resolved in the context of the use.
func (r *resolver) expandUse(n *Node) {
	n.Tag = "g"
	n.fromUse = true
	x := n.Length("x", Horizontal, 0)
	y := n.Length("y", Vertical, 0)
	n.useOffset = svgpath.Point{X: x, Y: y}

	id, ok := n.Href()
	if !ok {
		n.warn(svgtree.MalformedInput, "use element without reference")
		return
	}
	target := r.elems[id]
	if target == nil {
		n.warn(svgtree.UnresolvableReference, "reference to unknown element %q", id)
		return
	}
	if r.expanding[target] {
		n.warn(svgtree.UnresolvableReference, "cyclic reference to %q replaced by an empty group", id)
		return
	}
	if r.useDepth >= r.opts.MaxUseDepth {
		n.warn(svgtree.ResourceLimitExceeded, "more than %d nested use elements", r.opts.MaxUseDepth)
		return
	}
	r.useDepth++
	r.cloning++
	defer func() {
		r.useDepth--
		r.cloning--
	}()
	if target.Tag == "svg" || target.Tag == "symbol" {
		w, _ := n.Attr("width")
		h, _ := n.Attr("height")
		r.useSize = &[2]string{w, h}
		defer func() { r.useSize = nil }()
	}
	if child := r.resolve(target, n, n.Viewport); child != nil {
		n.Children = append(n.Children, child)
	}
}

// Node is an element whose style has been computed.
type Node struct {
	// Tag is the element name; it is empty for character data.
	// Expanded use elements have the tag "g", and the symbols or svg
	// they reference the tag "svg".
	Tag  string
	Elem *svgraw.Element // source element
	Text string          // character data

	Parent   *Node
	Children []*Node

	// FontSize is the computed font size, in user units.
	FontSize float64
	// Viewport is the reference for percentages.
	Viewport svgpath.Rect

	attrs     map[string]string
	props     map[string]string // specified and inherited properties
	fromUse   bool
	useOffset svgpath.Point
	warned    map[string]bool
	r         *resolver
}

// IsText returns true for character data.
func (n *Node) IsText() bool { return n.Tag == "" }

// FromUse returns true for the groups replacing a use element.
func (n *Node) FromUse() bool { return n.fromUse }

// ID returns the id attribute.
func (n *Node) ID() string { return n.attrs["id"] }

// Location describes the node in diagnostics.
func (n *Node) Location() string {
	if n.Elem == nil {
		return "text"
	}
	return n.Elem.Location()
}

// Attr returns the raw value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Prop returns the computed value of a property.
func (n *Node) Prop(name string) string {
	if v, ok := n.props[name]; ok {
		return v
	}
	return Initial(name)
}

// HasProp returns true if the property is specified or inherited.
func (n *Node) HasProp(name string) bool {
	_, ok := n.props[name]
	return ok
}

// Diagnostics returns the list where problems are reported.
func (n *Node) Diagnostics() *svgtree.Diagnostics { return n.r.diags }

// DPI returns the resolution used to convert absolute units.
func (n *Node) DPI() float64 { return n.r.opts.DPI }

// warn reports a problem, once per node.
func (n *Node) warn(kind svgtree.Kind, format string, args ...interface{}) {
	key := fmt.Sprintf(format, args...)
	if n.warned[key] {
		return
	}
	if n.warned == nil {
		n.warned = make(map[string]bool)
	}
	n.warned[key] = true
	n.r.diags.Add(kind, n.Location(), format, args...)
}

// Warn records a diagnostic located at n.
func (n *Node) Warn(kind svgtree.Kind, format string, args ...interface{}) {
	n.warn(kind, format, args...)
}

// TextContent returns the concatenated character data of n and
// its descendants.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}
