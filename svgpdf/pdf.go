// Implements a PDF backend to render SVG images,
// by wrapping github.com/jung-kurt/gofpdf.
//
// Geometry, strokes, gradients and clips are written as vector
// operations. Group opacity and blend modes are applied to each
// operation of the group, so overlapping shapes inside a translucent
// group are not isolated. Masks and filters need pixel access and
// are not supported; pattern tiles are drawn as images.
package svgpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraster"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgtree"
)

var _ svgdraw.Canvas = (*Canvas)(nil) // assert interface conformance

// maxTiles bounds the number of images used to paint one pattern.
const maxTiles = 4096

// state is the group opacity and blend mode in effect
// when an operation is replayed.
type state struct {
	alpha float64
	blend string
}

type op func(st state)

// Canvas writes to one page of a PDF document, whose
// units are the canvas pixels.
type Canvas struct {
	pdf           *gofpdf.Fpdf
	width, height int
	transform     svgpath.Matrix2D

	// layers records the operations of the opened groups,
	// which are written when the group is popped.
	layers [][]op

	images int // used to name the registered images
}

// NewCanvas returns a canvas writing on the current page of pdf,
// which should use a top-left origin.
func NewCanvas(pdf *gofpdf.Fpdf, width, height int) *Canvas {
	return &Canvas{pdf: pdf, width: max(width, 1), height: max(height, 1), transform: svgpath.Identity}
}

// NewDocument creates a one page document of the given size, in points.
func NewDocument(width, height int) *Canvas {
	width, height = max(width, 1), max(height, 1)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return NewCanvas(pdf, width, height)
}

// PDF returns the underlying document.
func (c *Canvas) PDF() *gofpdf.Fpdf { return c.pdf }

// Output writes the document to w.
func (c *Canvas) Output(w io.Writer) error {
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// Capabilities implements svgdraw.Canvas.
func (c *Canvas) Capabilities() svgdraw.Capabilities {
	return svgdraw.Capabilities{NativeStroke: true}
}

// Size implements svgdraw.Canvas.
func (c *Canvas) Size() (int, int) { return c.width, c.height }

// SetTransform implements svgdraw.Canvas.
func (c *Canvas) SetTransform(m svgpath.Matrix2D) { c.transform = m }

// NewOffscreen implements svgdraw.Canvas. Offscreen surfaces
// are rasterized, so that patterns and images may be embedded.
func (c *Canvas) NewOffscreen(width, height int) svgdraw.Canvas {
	return svgraster.NewCanvas(width, height)
}

// emit runs o, or records it if a group is opened.
func (c *Canvas) emit(o op) {
	if n := len(c.layers); n != 0 {
		c.layers[n-1] = append(c.layers[n-1], o)
		return
	}
	o(state{alpha: 1, blend: "Normal"})
}

// PushLayer implements svgdraw.Canvas.
func (c *Canvas) PushLayer() { c.layers = append(c.layers, nil) }

var blendNames = map[svgtree.BlendMode]string{
	svgtree.BlendMultiply:   "Multiply",
	svgtree.BlendScreen:     "Screen",
	svgtree.BlendOverlay:    "Overlay",
	svgtree.BlendDarken:     "Darken",
	svgtree.BlendLighten:    "Lighten",
	svgtree.BlendColorDodge: "ColorDodge",
	svgtree.BlendColorBurn:  "ColorBurn",
	svgtree.BlendHardLight:  "HardLight",
	svgtree.BlendSoftLight:  "SoftLight",
	svgtree.BlendDifference: "Difference",
	svgtree.BlendExclusion:  "Exclusion",
	svgtree.BlendHue:        "Hue",
	svgtree.BlendSaturation: "Saturation",
	svgtree.BlendColor:      "Color",
	svgtree.BlendLuminosity: "Luminosity",
}

// PopLayer implements svgdraw.Canvas. Porter-Duff operators
// are drawn as normal blending.
func (c *Canvas) PopLayer(mode svgtree.BlendMode, opacity float64) {
	n := len(c.layers)
	if n == 0 {
		return
	}
	ops := c.layers[n-1]
	c.layers = c.layers[:n-1]
	if opacity <= 0 || mode == svgtree.BlendClear {
		return
	}
	c.emit(func(st state) {
		inner := state{alpha: st.alpha * opacity, blend: st.blend}
		if name, ok := blendNames[mode]; ok {
			inner.blend = name
		}
		for _, o := range ops {
			o(inner)
		}
	})
}

// writePath adds the segments of p, mapped by m, to the current path.
func writePath(pdf *gofpdf.Fpdf, p svgpath.Path, m svgpath.Matrix2D) {
	for _, sp := range p {
		start := m.Transform(sp.Start)
		pdf.MoveTo(start.X, start.Y)
		for _, seg := range sp.Segments {
			c1, c2, end := m.Transform(seg.C1), m.Transform(seg.C2), m.Transform(seg.End)
			pdf.CurveBezierCubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
		}
		if sp.Closed {
			pdf.ClosePath()
		}
	}
}

// polygon returns the single flattened outline of p, in device space.
func polygon(p svgpath.Path, m svgpath.Matrix2D) ([]gofpdf.PointType, bool) {
	pls := p.Transform(m).Flatten(svgpath.DefaultTolerance)
	if len(pls) != 1 {
		return nil, false
	}
	out := make([]gofpdf.PointType, len(pls[0].Points))
	for i, pt := range pls[0].Points {
		out[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	return out, true
}

func alphaOf(c color.NRGBA, opacity float64) float64 {
	return math.Max(0, math.Min(1, opacity*float64(c.A)/255))
}

// averageColor approximates paint by one color.
func averageColor(paint svgdraw.Paint) (color.NRGBA, float64) {
	var stops []svgtree.GradientStop
	switch {
	case paint.Linear != nil:
		stops = paint.Linear.Stops
	case paint.Radial != nil:
		stops = paint.Radial.Stops
	case paint.Pattern != nil:
		return averageImage(paint.Pattern.Image), paint.Opacity
	default:
		return paint.Color, paint.Opacity
	}
	var r, g, b, a float64
	for _, s := range stops {
		w := s.Opacity * float64(s.Color.A) / 255
		r += float64(s.Color.R) * w
		g += float64(s.Color.G) * w
		b += float64(s.Color.B) * w
		a += w
	}
	if a == 0 {
		return color.NRGBA{}, 0
	}
	n := float64(len(stops))
	return color.NRGBA{uint8(r / a), uint8(g / a), uint8(b / a), uint8(255 * a / n)}, paint.Opacity
}

func averageImage(img *image.RGBA) color.NRGBA {
	var r, g, b, a float64
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r += float64(img.Pix[i])
		g += float64(img.Pix[i+1])
		b += float64(img.Pix[i+2])
		a += float64(img.Pix[i+3])
	}
	if a == 0 {
		return color.NRGBA{}
	}
	n := float64(len(img.Pix) / 4)
	return color.NRGBA{uint8(255 * r / a), uint8(255 * g / a), uint8(255 * b / a), uint8(a / n)}
}

func styleStr(rule svgpath.FillRule) string {
	if rule == svgpath.EvenOdd {
		return "f*"
	}
	return "f"
}

// Fill implements svgdraw.Canvas.
func (c *Canvas) Fill(p svgpath.Path, rule svgpath.FillRule, paint svgdraw.Paint) {
	if p.IsEmpty() {
		return
	}
	m := c.transform
	if paint.Linear != nil || paint.Radial != nil || paint.Pattern != nil {
		if poly, ok := polygon(p, m); ok {
			c.emit(func(st state) { c.fillComplex(p, poly, m, paint, st) })
			return
		}
	}
	col, opacity := averageColor(paint)
	c.emit(func(st state) {
		c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
		c.pdf.SetAlpha(alphaOf(col, opacity*st.alpha), st.blend)
		writePath(c.pdf, p, m)
		c.pdf.DrawPath(styleStr(rule))
	})
}

// fillComplex paints a gradient or a pattern, clipped to poly.
func (c *Canvas) fillComplex(p svgpath.Path, poly []gofpdf.PointType, m svgpath.Matrix2D, paint svgdraw.Paint, st state) {
	bounds, _ := p.Transform(m).Bounds()
	c.pdf.ClipPolygon(poly, false)
	defer c.pdf.ClipEnd()

	c.pdf.SetAlpha(math.Min(1, paint.Opacity*st.alpha), st.blend)
	switch {
	case paint.Linear != nil:
		c.linearGradient(paint.Linear, m, bounds)
	case paint.Radial != nil:
		c.radialGradient(paint.Radial, m, bounds)
	case paint.Pattern != nil:
		c.pattern(paint.Pattern, m, bounds, paint.Opacity*st.alpha, st.blend)
	}
}

// endColors returns the colors of the first and last stops.
// Stop opacities are ignored.
func endColors(g *svgtree.Gradient) (first, last color.NRGBA) {
	return g.Stops[0].Color, g.Stops[len(g.Stops)-1].Color
}

// linearGradient fills bounds, a device rectangle. The gradient is
// reduced to its end colors, and is padded.
func (c *Canvas) linearGradient(lg *svgtree.LinearGradient, m svgpath.Matrix2D, bounds svgpath.Rect) {
	if bounds.IsEmpty() || len(lg.Stops) == 0 {
		return
	}
	gm := m.Mult(lg.Transform)
	p1 := gm.Transform(svgpath.Point{X: lg.X1, Y: lg.Y1})
	p2 := gm.Transform(svgpath.Point{X: lg.X2, Y: lg.Y2})
	first, last := endColors(&lg.Gradient)
	// the gradient vector is relative to bounds, with a bottom-left origin
	rel := func(p svgpath.Point) (float64, float64) {
		return (p.X - bounds.X) / bounds.W, 1 - (p.Y-bounds.Y)/bounds.H
	}
	x1, y1 := rel(p1)
	x2, y2 := rel(p2)
	c.pdf.LinearGradient(bounds.X, bounds.Y, bounds.W, bounds.H,
		int(first.R), int(first.G), int(first.B), int(last.R), int(last.G), int(last.B),
		x1, y1, x2, y2)
}

// radialGradient fills bounds with the last stop color, then
// draws the gradient over the square enclosing its circle.
func (c *Canvas) radialGradient(rg *svgtree.RadialGradient, m svgpath.Matrix2D, bounds svgpath.Rect) {
	if bounds.IsEmpty() || len(rg.Stops) == 0 {
		return
	}
	gm := m.Mult(rg.Transform)
	center := gm.Transform(svgpath.Point{X: rg.CX, Y: rg.CY})
	focus := gm.Transform(svgpath.Point{X: rg.FX, Y: rg.FY})
	r := rg.R * gm.MeanScale()
	first, last := endColors(&rg.Gradient)

	c.pdf.SetFillColor(int(last.R), int(last.G), int(last.B))
	c.pdf.Rect(bounds.X, bounds.Y, bounds.W, bounds.H, "F")
	if r <= 0 {
		return
	}
	x, y, side := center.X-r, center.Y-r, 2*r
	rel := func(p svgpath.Point) (float64, float64) {
		return (p.X - x) / side, 1 - (p.Y-y)/side
	}
	fx, fy := rel(focus)
	cx, cy := rel(center)
	c.pdf.RadialGradient(x, y, side, side,
		int(first.R), int(first.G), int(first.B), int(last.R), int(last.G), int(last.B),
		fx, fy, cx, cy, 0.5)
}

// pattern repeats the tile image over bounds. Tiles which are
// not axis aligned, or too small, are replaced by their average color.
func (c *Canvas) pattern(tile *svgdraw.Tile, m svgpath.Matrix2D, bounds svgpath.Rect, alpha float64, blend string) {
	tm := m.Mult(tile.Transform)
	tw, th := float64(tile.Image.Rect.Dx()), float64(tile.Image.Rect.Dy())
	cell := svgpath.Rect{W: tw, H: th}.Transform(tm)
	count := math.Ceil(bounds.W/cell.W+1) * math.Ceil(bounds.H/cell.H+1)
	if tm.B != 0 || tm.C != 0 || cell.IsEmpty() || !(count <= maxTiles) {
		col := averageImage(tile.Image)
		c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
		c.pdf.SetAlpha(alphaOf(col, alpha), blend)
		c.pdf.Rect(bounds.X, bounds.Y, bounds.W, bounds.H, "F")
		return
	}
	name, ok := c.registerImage(tile.Image)
	if !ok {
		return
	}
	// align the first cell on the tile grid
	x0 := cell.X + math.Floor((bounds.X-cell.X)/cell.W)*cell.W
	y0 := cell.Y + math.Floor((bounds.Y-cell.Y)/cell.H)*cell.H
	for y := y0; y < bounds.MaxY(); y += cell.H {
		for x := x0; x < bounds.MaxX(); x += cell.W {
			c.pdf.ImageOptions(name, x, y, cell.W, cell.H, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}
}

// registerImage embeds img as a PNG and returns its name.
func (c *Canvas) registerImage(img image.Image) (string, bool) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.pdf.SetError(fmt.Errorf("encoding image: %w", err))
		return "", false
	}
	c.images++
	name := "img" + strconv.Itoa(c.images)
	c.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	return name, c.pdf.Ok()
}

var (
	capNames  = [...]string{svgpath.ButtCap: "butt", svgpath.RoundCap: "round", svgpath.SquareCap: "square"}
	joinNames = [...]string{svgpath.MiterJoin: "miter", svgpath.RoundJoin: "round", svgpath.BevelJoin: "bevel"}
)

// Stroke implements svgdraw.Canvas. Only plain colors are
// supported; other paints use their average color.
func (c *Canvas) Stroke(p svgpath.Path, style svgpath.StrokeStyle, paint svgdraw.Paint) {
	if p.IsEmpty() {
		return
	}
	m := c.transform
	scale := m.MeanScale()
	col, opacity := averageColor(paint)
	dash := style.DashPattern(p, svgpath.DefaultTolerance)
	for i := range dash {
		dash[i] *= scale
	}
	c.emit(func(st state) {
		c.pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
		c.pdf.SetAlpha(alphaOf(col, opacity*st.alpha), st.blend)
		c.pdf.SetLineWidth(style.Width * scale)
		c.pdf.SetLineCapStyle(capNames[style.Cap])
		c.pdf.SetLineJoinStyle(joinNames[style.Join])
		c.pdf.SetDashPattern(dash, style.DashOffset*scale)
		writePath(c.pdf, p, m)
		c.pdf.DrawPath("D")
	})
}

// DrawImage implements svgdraw.Canvas. Rotated images are drawn
// over their bounding box.
func (c *Canvas) DrawImage(img image.Image, rect svgpath.Rect, smooth bool) {
	if rect.IsEmpty() || img.Bounds().Empty() {
		return
	}
	dev := rect.Transform(c.transform)
	c.emit(func(st state) {
		name, ok := c.registerImage(img)
		if !ok {
			return
		}
		c.pdf.SetAlpha(math.Min(1, st.alpha), st.blend)
		c.pdf.ImageOptions(name, dev.X, dev.Y, dev.W, dev.H, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	})
}

// PushClip implements svgdraw.Canvas. A path made of several
// subpaths is approximated by its bounding box.
func (c *Canvas) PushClip(p svgpath.Path, rule svgpath.FillRule) {
	m := c.transform
	c.emit(func(state) {
		if poly, ok := polygon(p, m); ok {
			c.pdf.ClipPolygon(poly, false)
			return
		}
		b, _ := p.Transform(m).Bounds()
		c.pdf.ClipRect(b.X, b.Y, b.W, b.H, false)
	})
}

// PopClip implements svgdraw.Canvas.
func (c *Canvas) PopClip() {
	c.emit(func(state) { c.pdf.ClipEnd() })
}

// RenderSVGToPDF reads, simplifies and renders an SVG document,
// writing a one page PDF to w.
func RenderSVGToPDF(svg io.Reader, w io.Writer, simplifyOpts svgsimplify.Options, opts svgdraw.Options) (svgtree.Diagnostics, error) {
	tree, diags, err := svgsimplify.FromReader(svg, simplifyOpts)
	if err != nil {
		return diags, err
	}
	width, height := opts.Fit.Size(tree.Width, tree.Height)
	canvas := NewDocument(width, height)
	diags = append(diags, svgdraw.Render(tree, canvas, opts)...)
	return diags, canvas.Output(w)
}
