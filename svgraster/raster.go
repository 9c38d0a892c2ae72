// Implements a raster backend to render SVG images,
// by wrapping rasterx.
package svgraster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgfilter"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgtree"
)

var _ svgdraw.PixelCanvas = (*Canvas)(nil) // assert interface conformance

// Canvas is an in-memory, premultiplied RGBA surface.
// Clips are coverage masks, and layers are full size images.
type Canvas struct {
	width, height int
	transform     svgpath.Matrix2D

	layers []*image.RGBA  // layers[0] is the output
	clips  []*image.Alpha // the last one is the effective clip

	scratch *image.RGBA // used to draw with a clip
}

// NewCanvas returns a transparent canvas.
func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 1), max(height, 1)
	return &Canvas{
		width:     width,
		height:    height,
		transform: svgpath.Identity,
		layers:    []*image.RGBA{image.NewRGBA(image.Rect(0, 0, width, height))},
	}
}

func (c *Canvas) bounds() image.Rectangle { return image.Rect(0, 0, c.width, c.height) }

func (c *Canvas) current() *image.RGBA { return c.layers[len(c.layers)-1] }

// Capabilities implements svgdraw.Canvas.
func (c *Canvas) Capabilities() svgdraw.Capabilities {
	return svgdraw.Capabilities{NativeStroke: true}
}

// Size implements svgdraw.Canvas.
func (c *Canvas) Size() (int, int) { return c.width, c.height }

// SetTransform implements svgdraw.Canvas.
func (c *Canvas) SetTransform(m svgpath.Matrix2D) { c.transform = m }

// NewOffscreen implements svgdraw.Canvas.
func (c *Canvas) NewOffscreen(width, height int) svgdraw.Canvas { return NewCanvas(width, height) }

// target returns the image to draw onto and a function to
// call once the pixels in the given area are drawn.
func (c *Canvas) target() (draw.Image, func(r image.Rectangle)) {
	cur := c.current()
	if len(c.clips) == 0 {
		return cur, func(image.Rectangle) {}
	}
	if c.scratch == nil {
		c.scratch = image.NewRGBA(c.bounds())
	}
	mask := c.clips[len(c.clips)-1]
	return c.scratch, func(r image.Rectangle) {
		r = r.Intersect(c.bounds())
		draw.DrawMask(cur, r, c.scratch, r.Min, mask, r.Min, draw.Over)
		draw.Draw(c.scratch, r, image.Transparent, image.Point{}, draw.Src)
	}
}

// extent returns the pixels touched by the path added to s.
func extent(s rasterx.Scanner) image.Rectangle {
	e := s.GetPathExtent()
	return image.Rect(e.Min.X.Floor()-1, e.Min.Y.Floor()-1, e.Max.X.Ceil()+1, e.Max.Y.Ceil()+1)
}

// Fill implements svgdraw.Canvas.
func (c *Canvas) Fill(p svgpath.Path, rule svgpath.FillRule, paint svgdraw.Paint) {
	dst, flush := c.target()
	if rule == svgpath.EvenOdd {
		mask := c.coverageMask(p, rule)
		r := maskExtent(mask)
		if r.Empty() {
			return
		}
		src := image.NewRGBA(c.bounds())
		c.fillDevice(src, svgpath.Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(r.Dx()), H: float64(r.Dy())}.Path(), paint)
		draw.DrawMask(dst, r, src, r.Min, mask, r.Min, draw.Over)
		flush(r)
		return
	}
	scanner := rasterx.NewScannerGV(c.width, c.height, dst, c.bounds())
	filler := rasterx.NewFiller(c.width, c.height, scanner)
	p.AddTo(filler, c.transform)
	c.setPaint(scanner, paint)
	filler.Draw()
	flush(extent(scanner))
}

// fillDevice fills p, given in device space, with the nonzero rule.
func (c *Canvas) fillDevice(dst draw.Image, p svgpath.Path, paint svgdraw.Paint) {
	scanner := rasterx.NewScannerGV(c.width, c.height, dst, c.bounds())
	filler := rasterx.NewFiller(c.width, c.height, scanner)
	p.AddTo(filler, svgpath.Identity)
	c.setPaint(scanner, paint)
	filler.Draw()
}

// coverageMask rasterizes p with the given rule.
// The rasterx scanner only supports the nonzero rule.
func (c *Canvas) coverageMask(p svgpath.Path, rule svgpath.FillRule) *image.Alpha {
	cov := newCoverage(c.width, c.height)
	cov.addPath(p, c.transform)
	return cov.mask(rule)
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgpath.MiterJoin: rasterx.Miter,
		svgpath.RoundJoin: rasterx.Round,
		svgpath.BevelJoin: rasterx.Bevel,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgpath.ButtCap:   rasterx.ButtCap,
		svgpath.SquareCap: rasterx.SquareCap,
		svgpath.RoundCap:  rasterx.RoundCap,
	}
)

// Stroke implements svgdraw.Canvas. The current transform
// is expected to be a similarity.
func (c *Canvas) Stroke(p svgpath.Path, style svgpath.StrokeStyle, paint svgdraw.Paint) {
	scale := c.transform.MeanScale()
	var dash []float64
	for _, d := range style.DashPattern(p, svgpath.DefaultTolerance) {
		dash = append(dash, d*scale)
	}
	gap := rasterx.FlatGap
	if style.Join == svgpath.RoundJoin {
		gap = rasterx.RoundGap
	}

	dst, flush := c.target()
	scanner := rasterx.NewScannerGV(c.width, c.height, dst, c.bounds())
	dasher := rasterx.NewDasher(c.width, c.height, scanner)
	dasher.SetStroke(
		fixed.Int26_6(style.Width*scale*64), fixed.Int26_6(math.Max(style.MiterLimit, 1)*64),
		capToFunc[style.Cap], capToFunc[style.Cap], gap,
		joinToJoin[style.Join], dash, style.DashOffset*scale,
	)
	p.AddTo(dasher, c.transform)
	c.setPaint(scanner, paint)
	dasher.Draw()
	flush(extent(scanner))
}

// applyOpacity returns the non premultiplied color c, with its alpha scaled.
func applyOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Min(255, float64(c.A)*opacity+0.5))
	return c
}

var spreads = [...]rasterx.SpreadMethod{
	svgtree.PadSpread:     rasterx.PadSpread,
	svgtree.ReflectSpread: rasterx.ReflectSpread,
	svgtree.RepeatSpread:  rasterx.RepeatSpread,
}

// toRasterxGradient expresses g in device space: its geometry is
// given in gradient space, mapped by m.
func toRasterxGradient(g *svgtree.Gradient, points [5]float64, radial bool, m svgpath.Matrix2D) rasterx.Gradient {
	stops := make([]rasterx.GradStop, len(g.Stops))
	for i, s := range g.Stops {
		stops[i] = rasterx.GradStop{StopColor: s.Color, Offset: s.Offset, Opacity: s.Opacity}
	}
	out := rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Matrix:   rasterx.Matrix2D(m.Mult(g.Transform)),
		Spread:   spreads[g.Spread],
		Units:    rasterx.UserSpaceOnUse,
		IsRadial: radial,
	}
	// the bounds are only used to normalize the matrix
	out.Bounds.X, out.Bounds.Y, out.Bounds.W, out.Bounds.H = 0, 0, 1, 1
	return out
}

// setPaint resolves the color source.
func (c *Canvas) setPaint(scanner rasterx.Scanner, paint svgdraw.Paint) {
	switch {
	case paint.Linear != nil:
		lg := paint.Linear
		grad := toRasterxGradient(&lg.Gradient, [5]float64{lg.X1, lg.Y1, lg.X2, lg.Y2}, false, c.transform)
		scanner.SetColor(grad.GetColorFunction(paint.Opacity))
	case paint.Radial != nil:
		rg := paint.Radial
		grad := toRasterxGradient(&rg.Gradient, [5]float64{rg.CX, rg.CY, rg.FX, rg.FY, rg.R}, true, c.transform)
		scanner.SetColor(grad.GetColorFunction(paint.Opacity))
	case paint.Pattern != nil:
		scanner.SetColor(c.patternColor(paint.Pattern, paint.Opacity))
	default:
		scanner.SetColor(applyOpacity(paint.Color, paint.Opacity))
	}
}

// patternColor samples the tile, repeated over the plane.
func (c *Canvas) patternColor(tile *svgdraw.Tile, opacity float64) rasterx.ColorFunc {
	img := tile.Image
	inv, ok := c.transform.Mult(tile.Transform).Invert()
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if !ok || w == 0 || h == 0 {
		return func(int, int) color.Color { return color.Transparent }
	}
	mod := func(a, n int) int { return ((a % n) + n) % n }
	return func(x, y int) color.Color {
		p := inv.Transform(svgpath.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
		u := img.Rect.Min.X + mod(int(math.Floor(p.X)), w)
		v := img.Rect.Min.Y + mod(int(math.Floor(p.Y)), h)
		px := img.RGBAAt(u, v)
		if opacity < 1 {
			px.R = uint8(float64(px.R) * opacity)
			px.G = uint8(float64(px.G) * opacity)
			px.B = uint8(float64(px.B) * opacity)
			px.A = uint8(float64(px.A) * opacity)
		}
		return px
	}
}

// DrawImage implements svgdraw.Canvas.
func (c *Canvas) DrawImage(img image.Image, rect svgpath.Rect, smooth bool) {
	b := img.Bounds()
	if b.Empty() || rect.IsEmpty() {
		return
	}
	m := c.transform.Translate(rect.X, rect.Y).
		Scale(rect.W/float64(b.Dx()), rect.H/float64(b.Dy())).
		Translate(-float64(b.Min.X), -float64(b.Min.Y))
	var interp draw.Interpolator = draw.NearestNeighbor
	if smooth {
		interp = draw.CatmullRom
	}
	dst, flush := c.target()
	interp.Transform(dst, f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}, img, b, draw.Over, nil)
	dev := rect.Transform(c.transform)
	flush(image.Rect(int(math.Floor(dev.X))-1, int(math.Floor(dev.Y))-1, int(math.Ceil(dev.MaxX()))+1, int(math.Ceil(dev.MaxY()))+1))
}

// PushClip implements svgdraw.Canvas.
func (c *Canvas) PushClip(p svgpath.Path, rule svgpath.FillRule) {
	var mask *image.Alpha
	if rule == svgpath.EvenOdd {
		mask = c.coverageMask(p, rule)
	} else {
		mask = image.NewAlpha(c.bounds())
		scanner := rasterx.NewScannerGV(c.width, c.height, mask, c.bounds())
		filler := rasterx.NewFiller(c.width, c.height, scanner)
		p.AddTo(filler, c.transform)
		scanner.SetColor(color.Opaque)
		filler.Draw()
	}
	if len(c.clips) != 0 {
		prev := c.clips[len(c.clips)-1]
		for i, v := range prev.Pix {
			mask.Pix[i] = uint8((uint32(mask.Pix[i])*uint32(v) + 127) / 255)
		}
	}
	c.clips = append(c.clips, mask)
}

// PopClip implements svgdraw.Canvas.
func (c *Canvas) PopClip() {
	if len(c.clips) != 0 {
		c.clips = c.clips[:len(c.clips)-1]
	}
}

// PushLayer implements svgdraw.Canvas.
func (c *Canvas) PushLayer() {
	c.layers = append(c.layers, image.NewRGBA(c.bounds()))
}

// PopLayer implements svgdraw.Canvas.
func (c *Canvas) PopLayer(mode svgtree.BlendMode, opacity float64) {
	if len(c.layers) < 2 {
		return
	}
	top := c.current()
	c.layers = c.layers[:len(c.layers)-1]
	svgfilter.Composite(c.current(), top, mode, opacity)
}

// TakeLayer implements svgdraw.PixelCanvas.
func (c *Canvas) TakeLayer() *image.RGBA { return c.current() }

// PutLayer implements svgdraw.PixelCanvas.
func (c *Canvas) PutLayer(img *image.RGBA) {
	cur := c.current()
	clear(cur.Pix)
	draw.Draw(cur, img.Rect, img, img.Rect.Min, draw.Src)
}

// RGBA returns the rendered, premultiplied, pixels.
func (c *Canvas) RGBA() *image.RGBA { return c.layers[0] }

// Image returns the rendered image, with non premultiplied colors.
func (c *Canvas) Image() *image.NRGBA {
	out := image.NewNRGBA(c.bounds())
	draw.Draw(out, out.Rect, c.layers[0], image.Point{}, draw.Src)
	return out
}

// WritePNG encodes the rendered image.
func (c *Canvas) WritePNG(w io.Writer) error {
	if err := png.Encode(w, c.Image()); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// RasterSVGToImage reads, simplifies and renders an SVG document,
// returning the canvas and the issues met.
func RasterSVGToImage(svg io.Reader, simplifyOpts svgsimplify.Options, opts svgdraw.Options) (*Canvas, svgtree.Diagnostics, error) {
	tree, diags, err := svgsimplify.FromReader(svg, simplifyOpts)
	if err != nil {
		return nil, diags, err
	}
	w, h := opts.Fit.Size(tree.Width, tree.Height)
	canvas := NewCanvas(w, h)
	diags = append(diags, svgdraw.Render(tree, canvas, opts)...)
	return canvas, diags, nil
}
