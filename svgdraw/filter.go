package svgdraw

import (
	"image"
	"math"

	"github.com/benoitkugler/microsvg/svgfilter"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgtree"
)

// Filters are executed in device space, on the pixels of the layer
// holding the filtered element. Lengths are converted with the scale
// factors of the current transform.

// filterResult is an intermediate image of a filter graph.
type filterResult struct {
	img    *image.RGBA
	space  svgtree.ColorSpace
	region image.Rectangle // primitive subregion
}

type filterRun struct {
	r       *renderer
	ctm     svgpath.Matrix2D
	sx, sy  float64
	loc     string
	region  image.Rectangle // filter region, in device space
	source  filterResult
	results map[string]filterResult
}

// deviceRect returns the pixels covered by rect, in user space.
func deviceRect(rect svgpath.Rect, m svgpath.Matrix2D) image.Rectangle {
	t := rect.Transform(m)
	return image.Rect(
		int(math.Floor(t.X+1e-6)), int(math.Floor(t.Y+1e-6)),
		int(math.Ceil(t.MaxX()-1e-6)), int(math.Ceil(t.MaxY()-1e-6)),
	)
}

// filter replaces the current layer by the result of f.
func (r *renderer) filter(f *svgtree.Filter, ctm svgpath.Matrix2D, loc string) {
	layer := r.pixels.TakeLayer()
	region := deviceRect(f.Rect, ctm).Intersect(layer.Rect)
	if region.Empty() {
		r.pixels.PutLayer(image.NewRGBA(image.Rectangle{}))
		return
	}
	if region.Dx()*region.Dy() > r.opts.MaxFilterPixels {
		r.warn(svgtree.ResourceLimitExceeded, loc, "filter region of %dx%d pixels not applied", region.Dx(), region.Dy())
		return
	}
	run := filterRun{
		r: r, ctm: ctm, loc: loc,
		region:  region,
		source:  filterResult{img: svgfilter.Crop(layer, region), space: svgtree.SRGB, region: region},
		results: map[string]filterResult{},
	}
	run.sx, run.sy = ctm.ScaleFactors()

	last := run.source
	for _, p := range f.Primitives {
		last = run.apply(p)
		run.results[p.Result] = last
	}
	out := run.convert(last, last.region, svgtree.SRGB)
	r.pixels.PutLayer(svgfilter.Crop(out, region))
}

// lookup returns the image designated by in, and a flag
// indicating it is transparent.
func (run *filterRun) lookup(in svgtree.Input) (filterResult, bool) {
	switch in.Kind {
	case svgtree.SourceGraphic:
		return run.source, true
	case svgtree.SourceAlpha:
		alpha := svgfilter.Crop(run.source.img, run.source.region)
		for i := 0; i+3 < len(alpha.Pix); i += 4 {
			alpha.Pix[i], alpha.Pix[i+1], alpha.Pix[i+2] = 0, 0, 0
		}
		return filterResult{img: alpha, space: run.source.space, region: run.source.region}, true
	case svgtree.BackgroundImage, svgtree.BackgroundAlpha:
		run.r.warn(svgtree.UnsupportedFeature, run.loc, "%s is not supported", in)
	case svgtree.Reference:
		res, ok := run.results[in.Name]
		return res, ok
	}
	return filterResult{}, false
}

// convert returns a copy of res restricted to sub, in the given space.
func (run *filterRun) convert(res filterResult, sub image.Rectangle, space svgtree.ColorSpace) *image.RGBA {
	if res.img == nil {
		return image.NewRGBA(sub)
	}
	out := svgfilter.Crop(res.img, sub)
	if res.space != space {
		if space == svgtree.LinearRGB {
			svgfilter.ToLinearRGB(out)
		} else {
			svgfilter.ToSRGB(out)
		}
	}
	return out
}

func (run *filterRun) input(in svgtree.Input, sub image.Rectangle, space svgtree.ColorSpace) *image.RGBA {
	res, _ := run.lookup(in)
	return run.convert(res, sub, space)
}

func round(v float64) int { return int(math.Round(v)) }

// clampLength bounds a length in pixels by the size of the subregion.
func (run *filterRun) clampLength(v float64, size int, name string) float64 {
	if limit := float64(max(size, 1)); v > limit {
		run.r.warn(svgtree.ResourceLimitExceeded, run.loc, "%s of %g pixels reduced to %g", name, v, limit)
		return limit
	}
	return v
}

var compositeModes = [...]svgtree.BlendMode{
	svgtree.CompositeOver: svgtree.BlendNormal,
	svgtree.CompositeIn:   svgtree.BlendSourceIn,
	svgtree.CompositeOut:  svgtree.BlendSourceOut,
	svgtree.CompositeAtop: svgtree.BlendSourceAtop,
	svgtree.CompositeXor:  svgtree.BlendXor,
}

// apply executes one primitive.
func (run *filterRun) apply(p svgtree.FilterPrimitive) filterResult {
	sub := deviceRect(p.Rect, run.ctm).Intersect(run.region)
	space := p.ColorSpace
	in := func(i svgtree.Input) *image.RGBA { return run.input(i, sub, space) }

	var img *image.RGBA
	switch k := p.Kind.(type) {
	case svgtree.FeGaussianBlur:
		dx, dy := k.StdDevX*run.sx, k.StdDevY*run.sy
		if dx > float64(sub.Dx()) || dy > float64(sub.Dy()) {
			run.r.warn(svgtree.ResourceLimitExceeded, run.loc, "blur deviation larger than the filter region: approximated by box blurs")
		}
		img = svgfilter.Blur(in(k.In), dx, dy)
	case svgtree.FeOffset:
		v := run.ctm.TransformVector(svgpath.Point{X: k.DX, Y: k.DY})
		img = svgfilter.Offset(in(k.In), round(v.X), round(v.Y))
	case svgtree.FeFlood:
		c := k.Color
		img = svgfilter.Flood(sub, c.R, c.G, c.B, k.Opacity*float64(c.A)/255)
		space = svgtree.SRGB
	case svgtree.FeBlend:
		img = svgfilter.Blend(in(k.In), in(k.In2), k.Mode)
	case svgtree.FeComposite:
		if k.Operator == svgtree.CompositeArithmetic {
			img = svgfilter.Arithmetic(in(k.In), in(k.In2), k.K1, k.K2, k.K3, k.K4)
		} else {
			img = svgfilter.Blend(in(k.In), in(k.In2), compositeModes[k.Operator])
		}
	case svgtree.FeMerge:
		layers := make([]*image.RGBA, len(k.In))
		for i, input := range k.In {
			layers[i] = in(input)
		}
		img = svgfilter.Merge(sub, layers...)
	case svgtree.FeColorMatrix:
		img = svgfilter.ColorMatrix(in(k.In), k.Matrix)
	case svgtree.FeComponentTransfer:
		img = svgfilter.ComponentTransfer(in(k.In), k.R, k.G, k.B, k.A)
	case svgtree.FeMorphology:
		rx := run.clampLength(k.RadiusX*run.sx, sub.Dx(), "morphology radius")
		ry := run.clampLength(k.RadiusY*run.sy, sub.Dy(), "morphology radius")
		img = svgfilter.Morphology(in(k.In), k.Operator == svgtree.Dilate, round(rx), round(ry))
	case svgtree.FeDisplacementMap:
		img = svgfilter.DisplacementMap(in(k.In), in(k.In2), k.Scale*run.sx, k.Scale*run.sy, k.XChannel, k.YChannel)
	case svgtree.FeTurbulence:
		inv, _ := run.ctm.Invert()
		toUser := func(x, y float64) (float64, float64) {
			u := inv.Transform(svgpath.Point{X: x, Y: y})
			return u.X, u.Y
		}
		tile := [4]float64{p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H}
		img = svgfilter.Turbulence(sub, toUser, tile, k)
	case svgtree.FeTile:
		res, _ := run.lookup(k.In)
		src := run.convert(res, res.region, space)
		img = svgfilter.Tile(src, res.region, sub)
	case svgtree.FeImage:
		img = run.image(k.Node, sub)
		space = svgtree.SRGB
	case svgtree.FeConvolveMatrix:
		img = svgfilter.Convolve(in(k.In), k)
	case svgtree.FePassThrough:
		img = in(k.In)
	default:
		img = image.NewRGBA(sub)
	}
	return filterResult{img: svgfilter.Crop(img, sub), space: space, region: sub}
}

// image renders node in the user space of the filtered element.
func (run *filterRun) image(node svgtree.Node, sub image.Rectangle) *image.RGBA {
	if node == nil {
		return image.NewRGBA(sub)
	}
	w, h := run.r.canvas.Size()
	off := run.r.canvas.NewOffscreen(w, h)
	pixels, ok := off.(PixelCanvas)
	if !ok {
		return image.NewRGBA(sub)
	}
	run.r.sub(off).node(node, run.ctm, 1)
	return svgfilter.Crop(pixels.TakeLayer(), sub)
}
