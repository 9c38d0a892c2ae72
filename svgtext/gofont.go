package svgtext

import (
	"strings"
	"sync"

	"github.com/benoitkugler/microsvg/svgpath"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// face is a lazily parsed font file.
type face struct {
	src  []byte
	once sync.Once
	font *sfnt.Font
	err  error
}

func (f *face) load() (*sfnt.Font, error) {
	f.once.Do(func() { f.font, f.err = sfnt.Parse(f.src) })
	return f.font, f.err
}

var (
	faceRegular    = &face{src: goregular.TTF}
	faceBold       = &face{src: gobold.TTF}
	faceItalic     = &face{src: goitalic.TTF}
	faceBoldItalic = &face{src: gobolditalic.TTF}
	faceMono       = &face{src: gomono.TTF}
	faceMonoBold   = &face{src: gomonobold.TTF}
)

var monospaceFamilies = map[string]bool{
	"monospace":   true,
	"courier":     true,
	"courier new": true,
	"consolas":    true,
	"menlo":       true,
}

// goFonts serves every query with the Go font family.
type goFonts struct{}

// GoFonts is a FontProvider using the Go fonts for every family:
// the monospace families map to Go Mono, the others to Go.
// It is safe for concurrent use.
var GoFonts FontProvider = goFonts{}

func selectFace(q Query) *face {
	mono := false
	if len(q.Families) != 0 {
		fam := strings.ToLower(q.Families[0])
		mono = monospaceFamilies[fam] || strings.Contains(fam, "mono")
	}
	bold := q.Weight >= 600
	italic := q.Style != StyleNormal
	switch {
	case mono && bold:
		return faceMonoBold
	case mono:
		return faceMono
	case bold && italic:
		return faceBoldItalic
	case bold:
		return faceBold
	case italic:
		return faceItalic
	default:
		return faceRegular
	}
}

func (goFonts) Glyphs(q Query, text []rune) (Run, bool) {
	if q.Size <= 0 {
		return Run{}, false
	}
	f, err := selectFace(q).load()
	if err != nil {
		return Run{}, false
	}
	return layout(f, q.Size, text)
}

// layout loads the glyphs of text from f. Outlines are loaded at a
// ppem of one font unit per pixel, then scaled, to keep the precision
// of the font coordinates.
func layout(f *sfnt.Font, size float64, text []rune) (Run, bool) {
	var (
		b     sfnt.Buffer
		run   Run
		found bool
	)
	upem := f.UnitsPerEm()
	ppem := fixed.I(int(upem))
	scale := size / float64(upem)

	if m, err := f.Metrics(&b, ppem, font.HintingNone); err == nil {
		run.Ascent = fromFixed(m.Ascent) * scale
		run.Descent = fromFixed(m.Descent) * scale
	}

	indices := make([]sfnt.GlyphIndex, len(text))
	for i, r := range text {
		gi, err := f.GlyphIndex(&b, r)
		if err == nil && gi != 0 {
			found = true
		}
		indices[i] = gi
	}
	if !found {
		return Run{}, false
	}

	run.Glyphs = make([]Glyph, len(text))
	for i, gi := range indices {
		g := Glyph{Rune: text[i]}
		if adv, err := f.GlyphAdvance(&b, gi, ppem, font.HintingNone); err == nil {
			g.Advance = fromFixed(adv) * scale
		}
		if i+1 < len(indices) {
			// fonts without a kern table return an error
			if k, err := f.Kern(&b, gi, indices[i+1], ppem, font.HintingNone); err == nil {
				g.Advance += fromFixed(k) * scale
			}
		}
		if segs, err := f.LoadGlyph(&b, gi, ppem, nil); err == nil {
			g.Outline = segmentsToPath(segs, scale)
		}
		run.Glyphs[i] = g
	}
	return run, true
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toPoint(p fixed.Point26_6, scale float64) svgpath.Point {
	return svgpath.Point{X: fromFixed(p.X) * scale, Y: fromFixed(p.Y) * scale}
}

// segmentsToPath converts the glyph contours, which are always closed.
func segmentsToPath(segs sfnt.Segments, scale float64) svgpath.Path {
	var (
		p    svgpath.Path
		open bool
	)
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				p.Stop(true)
			}
			p.Start(toPoint(seg.Args[0], scale))
			open = false
		case sfnt.SegmentOpLineTo:
			p.Line(toPoint(seg.Args[0], scale))
			open = true
		case sfnt.SegmentOpQuadTo:
			p.QuadBezier(toPoint(seg.Args[0], scale), toPoint(seg.Args[1], scale))
			open = true
		case sfnt.SegmentOpCubeTo:
			p.CubeBezier(toPoint(seg.Args[0], scale), toPoint(seg.Args[1], scale), toPoint(seg.Args[2], scale))
			open = true
		}
	}
	if open {
		p.Stop(true)
	}
	return p
}
