// Given a simplified SVG tree, implements how to
// draw it on screen.
// This requires a Canvas implementing the actual draw operations,
// such as a rasterizer to output .png images (see svgraster)
// or a pdf writer (see svgpdf).
package svgdraw

import (
	"image"
	"image/color"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgtree"
)

// Capabilities describes the optional features of a canvas.
type Capabilities struct {
	// NativeStroke is true if the canvas strokes paths itself.
	// Otherwise, and for transforms which are not similarities,
	// strokes are converted to outlines and filled.
	NativeStroke bool
}

// Tile is a pre-rendered pattern cell.
type Tile struct {
	Image *image.RGBA // premultiplied, with bounds starting at (0, 0)
	// Transform maps the tile pixels to the user space
	// of the painted element.
	Transform svgpath.Matrix2D
}

// Paint is the source used to fill or stroke. Exactly one of Linear,
// Radial and Pattern is non nil, or Color is used.
type Paint struct {
	Color   color.NRGBA
	Linear  *svgtree.LinearGradient
	Radial  *svgtree.RadialGradient
	Pattern *Tile
	// Opacity applies to the whole paint.
	Opacity float64
}

// ColorPaint returns a plain color paint.
func ColorPaint(c color.NRGBA) Paint { return Paint{Color: c, Opacity: 1} }

// Canvas is a drawing surface.
//
// Geometries are given in user space, mapped to the device by
// the transform last set with SetTransform. Clips and layers form a
// stack: each PushClip (resp. PushLayer) is matched by a PopClip
// (resp. PopLayer), and nesting is preserved.
type Canvas interface {
	Capabilities() Capabilities
	// Size returns the size of the device area, in pixels.
	Size() (width, height int)
	SetTransform(m svgpath.Matrix2D)

	Fill(p svgpath.Path, rule svgpath.FillRule, paint Paint)
	// Stroke is only called if the capabilities allow native stroking.
	Stroke(p svgpath.Path, style svgpath.StrokeStyle, paint Paint)
	// DrawImage maps img onto rect, in user space.
	DrawImage(img image.Image, rect svgpath.Rect, smooth bool)

	// PushClip restricts the following operations to p,
	// intersected with the current clip.
	PushClip(p svgpath.Path, rule svgpath.FillRule)
	PopClip()

	// PushLayer starts a new transparent layer, composited onto
	// the previous one by PopLayer with the given mode and opacity.
	PushLayer()
	PopLayer(mode svgtree.BlendMode, opacity float64)

	// NewOffscreen returns an independent canvas, used to
	// pre-render pattern tiles and filter images.
	NewOffscreen(width, height int) Canvas
}

// PixelCanvas is a canvas giving access to its pixels, which is
// required by masks and filters.
type PixelCanvas interface {
	Canvas
	// TakeLayer returns the pixels of the current layer, in device
	// space, as premultiplied colors. The image is owned by the canvas,
	// and may be modified in place.
	TakeLayer() *image.RGBA
	// PutLayer replaces the content of the current layer by img.
	// Pixels outside img bounds are cleared.
	PutLayer(img *image.RGBA)
}
