package svgsimplify

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtext"
	"github.com/benoitkugler/microsvg/svgtree"
)

// Text elements are converted to the outlines of their glyphs, one path
// per run of characters sharing the same style.

// textChar is one character of a text element, with its positioning
// attributes.
type textChar struct {
	r    rune
	node *svgstyle.Node // innermost text or tspan element

	x, y, dx, dy             float64
	hasX, hasY, hasDX, hasDY bool
}

type textBuilder struct {
	c     *converter
	chars []textChar
	// lastSpace is true if the last character is a collapsible space
	lastSpace bool
}

// preserveSpace returns true if xml:space="preserve" applies to n.
func preserveSpace(n *svgstyle.Node) bool {
	for ; n != nil; n = n.Parent {
		if v, ok := n.Attr("xml:space"); ok {
			return strings.TrimSpace(v) == "preserve"
		}
	}
	return false
}

// addText appends the character data s, handling white spaces.
func (tb *textBuilder) addText(s string, node *svgstyle.Node) {
	s = norm.NFC.String(s)
	if preserveSpace(node) {
		for _, r := range s {
			if r == '\n' || r == '\r' || r == '\t' {
				r = ' '
			}
			tb.chars = append(tb.chars, textChar{r: r, node: node})
		}
		tb.lastSpace = false
		return
	}
	for _, r := range s {
		switch r {
		case '\n', '\r':
			continue
		case '\t', ' ':
			if tb.lastSpace {
				continue
			}
			tb.lastSpace = true
			tb.chars = append(tb.chars, textChar{r: ' ', node: node})
		default:
			tb.lastSpace = false
			tb.chars = append(tb.chars, textChar{r: r, node: node})
		}
	}
}

// collect walks the content of a text or tspan element.
func (tb *textBuilder) collect(n *svgstyle.Node) {
	start := len(tb.chars)
	for _, child := range n.Children {
		switch {
		case child.IsText():
			tb.addText(child.Text, n)
		case child.Tag == "tspan":
			if child.Prop("display") == "none" || !tb.c.conditionsPass(child) {
				continue
			}
			tb.collect(child)
		case child.Tag == "textPath", child.Tag == "tref":
			child.Warn(svgtree.UnsupportedFeature, "%s is not supported", child.Tag)
		}
	}
	tb.position(n, tb.chars[start:])
}

// position applies the x, y, dx and dy lists of n to its characters.
// The values of inner elements take precedence.
func (tb *textBuilder) position(n *svgstyle.Node, chars []textChar) {
	xs := n.Lengths("x", svgstyle.Horizontal)
	ys := n.Lengths("y", svgstyle.Vertical)
	dxs := n.Lengths("dx", svgstyle.Horizontal)
	dys := n.Lengths("dy", svgstyle.Vertical)
	for i := range chars {
		ch := &chars[i]
		if i < len(xs) && !ch.hasX {
			ch.x, ch.hasX = xs[i], true
		}
		if i < len(ys) && !ch.hasY {
			ch.y, ch.hasY = ys[i], true
		}
		if i < len(dxs) && !ch.hasDX {
			ch.dx, ch.hasDX = dxs[i], true
		}
		if i < len(dys) && !ch.hasDY {
			ch.dy, ch.hasDY = dys[i], true
		}
	}
}

// trimTrailingSpace removes a final collapsible space.
func (tb *textBuilder) trimTrailingSpace(text *svgstyle.Node) {
	if len(tb.chars) == 0 || preserveSpace(text) {
		return
	}
	last := tb.chars[len(tb.chars)-1]
	if last.r == ' ' && !preserveSpace(last.node) {
		tb.chars = tb.chars[:len(tb.chars)-1]
	}
}

// chunks splits the characters at each absolute position.
func chunks(chars []textChar) [][]textChar {
	var out [][]textChar
	start := 0
	for i := 1; i < len(chars); i++ {
		if chars[i].hasX || chars[i].hasY {
			out = append(out, chars[start:i])
			start = i
		}
	}
	if len(chars) > 0 {
		out = append(out, chars[start:])
	}
	return out
}

// visualOrder reorders a chunk for display when it contains
// right to left characters.
func visualOrder(chunk []textChar) []textChar {
	rtl := false
	for _, ch := range chunk {
		props, _ := bidi.LookupRune(ch.r)
		if cl := props.Class(); cl == bidi.R || cl == bidi.AL {
			rtl = true
			break
		}
	}
	if !rtl {
		return chunk
	}
	runes := make([]rune, len(chunk))
	for i, ch := range chunk {
		runes[i] = ch.r
	}
	var p bidi.Paragraph
	if _, err := p.SetString(string(runes)); err != nil {
		return chunk
	}
	ordering, err := p.Order()
	if err != nil {
		return chunk
	}
	out := make([]textChar, 0, len(chunk))
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		if start < 0 || end >= len(chunk) || start > end {
			return chunk
		}
		part := chunk[start : end+1]
		if run.Direction() == bidi.RightToLeft {
			for j := len(part) - 1; j >= 0; j-- {
				out = append(out, part[j])
			}
		} else {
			out = append(out, part...)
		}
	}
	if len(out) != len(chunk) {
		return chunk
	}
	// the positioning attributes stay in logical order
	for i := range out {
		out[i].x, out[i].hasX = chunk[i].x, chunk[i].hasX
		out[i].y, out[i].hasY = chunk[i].y, chunk[i].hasY
	}
	return out
}

// fontWeight resolves the relative weights against the parent element.
func fontWeight(n *svgstyle.Node) int {
	parent := 400
	if n.Parent != nil {
		parent = fontWeight(n.Parent)
	}
	return svgtext.ParseWeight(n.Prop("font-weight"), parent)
}

func fontQuery(n *svgstyle.Node) svgtext.Query {
	return svgtext.Query{
		Families: svgtext.ParseFamilies(n.Prop("font-family")),
		Weight:   fontWeight(n),
		Style:    svgtext.ParseStyle(n.Prop("font-style")),
		Size:     n.FontSize,
	}
}

// spacing returns the letter-spacing or word-spacing property.
func spacing(n *svgstyle.Node, name string) float64 {
	if n.Prop(name) == "normal" {
		return 0
	}
	return n.Length(name, svgstyle.Horizontal, 0)
}

// styledRun is a laid out run of characters sharing a style node.
type styledRun struct {
	node    *svgstyle.Node
	outline svgpath.Path
}

func textF(c *converter, n *svgstyle.Node) svgtree.Node {
	tb := textBuilder{c: c, lastSpace: true}
	tb.collect(n)
	tb.trimTrailingSpace(n)

	g := &svgtree.Group{Base: svgtree.NewBase()}
	g.Transform = n.Transform("transform")
	if len(tb.chars) == 0 {
		return g
	}
	if v := n.Prop("text-decoration"); v != "none" && v != "" {
		n.Warn(svgtree.UnsupportedFeature, "text-decoration is not supported")
	}
	if _, ok := n.Attr("rotate"); ok {
		n.Warn(svgtree.UnsupportedFeature, "glyph rotation is not supported")
	}

	var (
		runs     []styledRun
		pen      svgpath.Point
		fontMiss bool
	)
	for _, chunk := range chunks(tb.chars) {
		if chunk[0].hasX {
			pen.X = chunk[0].x
		}
		if chunk[0].hasY {
			pen.Y = chunk[0].y
		}
		startX, first := pen.X, len(runs)
		chunk = visualOrder(chunk)

		for len(chunk) > 0 {
			// characters sharing the same style
			end := 1
			for end < len(chunk) && chunk[end].node == chunk[0].node {
				end++
			}
			part := chunk[:end]
			chunk = chunk[end:]

			node := part[0].node
			runes := make([]rune, len(part))
			for i, ch := range part {
				runes[i] = ch.r
			}
			glyphs, ok := c.opts.Fonts.Glyphs(fontQuery(node), runes)
			if !ok || len(glyphs.Glyphs) != len(part) {
				fontMiss = true
				continue
			}
			letterSpacing, wordSpacing := spacing(node, "letter-spacing"), spacing(node, "word-spacing")
			var outline svgpath.Path
			for i, gl := range glyphs.Glyphs {
				pen.X += part[i].dx
				pen.Y += part[i].dy
				if len(gl.Outline) != 0 {
					outline.Append(gl.Outline.Transform(svgpath.Identity.Translate(pen.X, pen.Y)))
				}
				pen.X += gl.Advance + letterSpacing
				if gl.Rune == ' ' {
					pen.X += wordSpacing
				}
			}
			runs = append(runs, styledRun{node: node, outline: outline})
		}

		// text-anchor is given by the first character of the chunk
		anchorNode := n
		if first < len(runs) {
			anchorNode = runs[first].node
		}
		var shift float64
		switch anchorNode.Keyword("text-anchor", "start", "middle", "end") {
		case "middle":
			shift = -(pen.X - startX) / 2
		case "end":
			shift = -(pen.X - startX)
		}
		if shift != 0 {
			for i := first; i < len(runs); i++ {
				runs[i].outline = runs[i].outline.Transform(svgpath.Identity.Translate(shift, 0))
			}
		}
	}
	if fontMiss {
		n.Warn(svgtree.UnsupportedFeature, "no font available for %q", strings.TrimSpace(string(textRunes(tb.chars))))
	}

	// objectBoundingBox paints refer to the whole text
	var bbox svgpath.Rect
	hasBBox := false
	for _, run := range runs {
		if r, ok := run.outline.Bounds(); ok {
			if hasBBox {
				bbox = bbox.Union(r)
			} else {
				bbox, hasBBox = r, true
			}
		}
	}
	for _, run := range runs {
		if p := c.paintedPathIn(run.node, run.outline, bbox, hasBBox); p != nil {
			g.Children = append(g.Children, p)
		}
	}
	return g
}

func textRunes(chars []textChar) []rune {
	out := make([]rune, 0, len(chars))
	for _, ch := range chars {
		out = append(out, ch.r)
	}
	if len(out) > 40 {
		out = append(out[:37], []rune("...")...)
	}
	return out
}
