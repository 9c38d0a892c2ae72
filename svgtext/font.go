// Package svgtext provides the glyph outlines used to convert
// text elements to paths.
//
// The simplifier only depends on the FontProvider interface; GoFonts
// is a ready to use implementation backed by the Go font family.
package svgtext

import (
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
)

// Style is the slant of a font.
type Style uint8

const (
	StyleNormal Style = iota
	StyleItalic
	StyleOblique
)

// ParseStyle returns the style for a font-style value,
// defaulting to StyleNormal.
func ParseStyle(s string) Style {
	switch strings.TrimSpace(s) {
	case "italic":
		return StyleItalic
	case "oblique":
		return StyleOblique
	default:
		return StyleNormal
	}
}

// ParseWeight returns the numeric weight for a font-weight value.
// The relative keywords are resolved against parent.
func ParseWeight(s string, parent int) int {
	switch s = strings.TrimSpace(s); s {
	case "normal":
		return 400
	case "bold":
		return 700
	case "bolder":
		if parent < 400 {
			return 400
		} else if parent < 600 {
			return 700
		}
		return 900
	case "lighter":
		if parent > 700 {
			return 700
		} else if parent > 500 {
			return 400
		}
		return 100
	}
	switch s {
	case "100", "200", "300", "400", "500", "600", "700", "800", "900":
		return int(s[0]-'0') * 100
	}
	return 400
}

// Query describes the requested font.
type Query struct {
	Families []string // by order of preference
	Weight   int      // 100 to 900
	Style    Style
	Size     float64 // font size, in user units
}

// ParseFamilies splits a font-family value.
func ParseFamilies(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Glyph is the outline of one character.
type Glyph struct {
	Rune rune
	// Outline is expressed in user units, with the origin on the baseline
	// at the start of the glyph, and the y axis pointing down.
	Outline svgpath.Path
	// Advance is the horizontal advance, kerning with the next glyph included.
	Advance float64
}

// Run is the result of a glyph query.
type Run struct {
	Glyphs          []Glyph
	Ascent, Descent float64 // positive distances from the baseline
}

// Width returns the total advance of the run.
func (r Run) Width() float64 {
	var w float64
	for _, g := range r.Glyphs {
		w += g.Advance
	}
	return w
}

// FontProvider returns glyph outlines. It returns false
// if no suitable font is available for the query.
type FontProvider interface {
	Glyphs(q Query, text []rune) (Run, bool)
}
