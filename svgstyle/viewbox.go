package svgstyle

import (
	"errors"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
)

// ParseViewBox parses the viewBox attribute. A view box without
// area is an error, which disables it.
func ParseViewBox(s string) (svgpath.Rect, error) {
	points, err := ParseNumberList(s)
	if err != nil {
		return svgpath.Rect{}, err
	}
	if len(points) != 4 {
		return svgpath.Rect{}, errParamMismatch
	}
	vb := svgpath.Rect{X: points[0], Y: points[1], W: points[2], H: points[3]}
	if vb.IsEmpty() {
		return svgpath.Rect{}, errors.New("view box without area")
	}
	return vb, nil
}

// Align is the alignment part of preserveAspectRatio.
type Align uint8

const (
	AlignNone Align = iota
	AlignXMinYMin
	AlignXMidYMin
	AlignXMaxYMin
	AlignXMinYMid
	AlignXMidYMid
	AlignXMaxYMid
	AlignXMinYMax
	AlignXMidYMax
	AlignXMaxYMax
)

var alignNames = [...]string{
	AlignNone:     "none",
	AlignXMinYMin: "xMinYMin",
	AlignXMidYMin: "xMidYMin",
	AlignXMaxYMin: "xMaxYMin",
	AlignXMinYMid: "xMinYMid",
	AlignXMidYMid: "xMidYMid",
	AlignXMaxYMid: "xMaxYMid",
	AlignXMinYMax: "xMinYMax",
	AlignXMidYMax: "xMidYMax",
	AlignXMaxYMax: "xMaxYMax",
}

// AspectRatio is a parsed preserveAspectRatio attribute.
type AspectRatio struct {
	Align Align
	Slice bool // instead of meet
}

// DefaultAspectRatio is xMidYMid meet.
var DefaultAspectRatio = AspectRatio{Align: AlignXMidYMid}

// ParseAspectRatio parses preserveAspectRatio. The `defer` keyword
// is accepted and ignored.
func ParseAspectRatio(s string) (AspectRatio, error) {
	fields := strings.Fields(s)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	if len(fields) == 0 || len(fields) > 2 {
		return DefaultAspectRatio, errParamMismatch
	}
	var out AspectRatio
	found := false
	for i, name := range alignNames {
		if name == fields[0] {
			out.Align, found = Align(i), true
		}
	}
	if !found {
		return DefaultAspectRatio, errParamMismatch
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "meet":
		case "slice":
			out.Slice = true
		default:
			return DefaultAspectRatio, errParamMismatch
		}
	}
	return out, nil
}

// alignFactors returns the fraction of the free space placed
// before the content, for each axis.
func (a Align) alignFactors() (fx, fy float64) {
	if a == AlignNone {
		return 0, 0
	}
	i := int(a - AlignXMinYMin)
	return float64(i%3) / 2, float64(i/3) / 2
}

// ViewBoxTransform returns the transform mapping the view box vb
// to the viewport (x, y, w, h).
func (a AspectRatio) ViewBoxTransform(vb, viewport svgpath.Rect) svgpath.Matrix2D {
	sx, sy := viewport.W/vb.W, viewport.H/vb.H
	if a.Align == AlignNone {
		return svgpath.Identity.Translate(viewport.X, viewport.Y).Scale(sx, sy).Translate(-vb.X, -vb.Y)
	}
	s := sx
	if (a.Slice && sy > s) || (!a.Slice && sy < s) {
		s = sy
	}
	fx, fy := a.Align.alignFactors()
	tx := viewport.X + (viewport.W-vb.W*s)*fx
	ty := viewport.Y + (viewport.H-vb.H*s)*fy
	return svgpath.Identity.Translate(tx, ty).Scale(s, s).Translate(-vb.X, -vb.Y)
}

// FitRect returns where a content of size (w, h) is placed in
// the viewport, used for raster images.
func (a AspectRatio) FitRect(w, h float64, viewport svgpath.Rect) svgpath.Rect {
	m := a.ViewBoxTransform(svgpath.Rect{W: w, H: h}, viewport)
	return svgpath.Rect{W: w, H: h}.Transform(m)
}
