// Package svgraw reads SVG files into a raw element tree, and computes for
// each element its cascaded style: the presentation attributes overridden
// by the declarations of the `style` attribute.
//
// Values are kept as strings: their interpretation is done by svgstyle
// and svgsimplify.
package svgraw

import (
	"errors"
	"strings"
)

// ErrNoSVG is returned when the input has no root svg element.
var ErrNoSVG = errors.New("no svg element found")

// Attr is an attribute. Namespaced attributes are stored with their
// conventional prefix ("xml:space"), except xlink:href which is
// stored as "href".
type Attr struct {
	Name, Value string
}

// Element is a node of the raw tree. Character data is stored as
// children with an empty Tag.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []*Element
	Text     string // for character data nodes
}

// IsText returns true for character data nodes.
func (e *Element) IsText() bool { return e.Tag == "" }

// Attr returns the value of the attribute name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the id attribute, or an empty string.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Location returns a short description of the element,
// used in diagnostics.
func (e *Element) Location() string {
	if id := e.ID(); id != "" {
		return e.Tag + "#" + id
	}
	return e.Tag
}

// TextContent returns the concatenation of the character data of e
// and its descendants.
func (e *Element) TextContent() string {
	if e.IsText() {
		return e.Text
	}
	var b strings.Builder
	for _, c := range e.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Style maps property names to their cascaded raw value.
type Style map[string]string

// Document is the input of the simplification: the raw tree and
// the cascaded style of each element.
type Document struct {
	Root   *Element
	Styles map[*Element]Style
}

// Style returns the cascaded style of e (possibly empty).
func (doc *Document) Style(e *Element) Style {
	return doc.Styles[e]
}

// NewDocument computes the styles of the tree rooted at root,
// and returns the corresponding document.
func NewDocument(root *Element) *Document {
	doc := &Document{Root: root, Styles: make(map[*Element]Style)}
	doc.cascade(root)
	return doc
}

func (doc *Document) cascade(e *Element) {
	if e.IsText() {
		return
	}
	doc.Styles[e] = computeStyle(e.Attrs)
	for _, c := range e.Children {
		doc.cascade(c)
	}
}

// computeStyle merges the presentation attributes with the
// declarations of the style attribute, which take precedence.
func computeStyle(attrs []Attr) Style {
	style := make(Style)
	var declarations string
	for _, attr := range attrs {
		if attr.Name == "style" {
			declarations = attr.Value
		} else if presentationAttributes[attr.Name] {
			style[attr.Name] = strings.TrimSpace(attr.Value)
		}
	}
	important := make(map[string]bool)
	for _, pair := range strings.Split(declarations, ";") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if !presentationAttributes[k] || v == "" {
			continue
		}
		if strings.HasSuffix(v, "!important") {
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			important[k] = true
		} else if important[k] {
			continue
		}
		style[k] = v
	}
	return style
}

// presentationAttributes lists the properties which may be given as
// attributes or in a style declaration.
var presentationAttributes = map[string]bool{
	"alignment-baseline":          true,
	"baseline-shift":              true,
	"clip":                        true,
	"clip-path":                   true,
	"clip-rule":                   true,
	"color":                       true,
	"color-interpolation":         true,
	"color-interpolation-filters": true,
	"color-rendering":             true,
	"direction":                   true,
	"display":                     true,
	"dominant-baseline":           true,
	"fill":                        true,
	"fill-opacity":                true,
	"fill-rule":                   true,
	"filter":                      true,
	"flood-color":                 true,
	"flood-opacity":               true,
	"font":                        true,
	"font-family":                 true,
	"font-size":                   true,
	"font-size-adjust":            true,
	"font-stretch":                true,
	"font-style":                  true,
	"font-variant":                true,
	"font-weight":                 true,
	"image-rendering":             true,
	"isolation":                   true,
	"letter-spacing":              true,
	"lighting-color":              true,
	"marker":                      true,
	"marker-end":                  true,
	"marker-mid":                  true,
	"marker-start":                true,
	"mask":                        true,
	"mix-blend-mode":              true,
	"opacity":                     true,
	"overflow":                    true,
	"shape-rendering":             true,
	"stop-color":                  true,
	"stop-opacity":                true,
	"stroke":                      true,
	"stroke-dasharray":            true,
	"stroke-dashoffset":           true,
	"stroke-linecap":              true,
	"stroke-linejoin":             true,
	"stroke-miterlimit":           true,
	"stroke-opacity":              true,
	"stroke-width":                true,
	"text-anchor":                 true,
	"text-decoration":             true,
	"text-rendering":              true,
	"unicode-bidi":                true,
	"visibility":                  true,
	"word-spacing":                true,
	"writing-mode":                true,
}
