// Package svgfilter implements the pixel operations needed by the filter
// effects, masks and layer compositing, on premultiplied *image.RGBA
// buffers.
//
// Operations never modify their inputs, except the ones documented as
// working in place (Composite, LuminanceToAlpha, ToLinearRGB, ToSRGB).
package svgfilter

import (
	"image"
	"math"

	"github.com/benoitkugler/microsvg/svgtree"
)

// pixel is a premultiplied color with components in [0, 1].
type pixel struct{ r, g, b, a float64 }

func at(img *image.RGBA, x, y int) pixel {
	if !(image.Point{x, y}.In(img.Rect)) {
		return pixel{}
	}
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	return pixel{float64(s[0]) / 255, float64(s[1]) / 255, float64(s[2]) / 255, float64(s[3]) / 255}
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func set(img *image.RGBA, x, y int, p pixel) {
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	a := to8(p.a)
	// keep a valid premultiplied color
	s[0], s[1], s[2], s[3] = min(to8(p.r), a), min(to8(p.g), a), min(to8(p.b), a), a
}

// clone returns a copy of img.
func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

// Composite draws src onto dst, in place, with the given blend mode or
// Porter-Duff operator. opacity scales src. Every pixel of dst is
// updated, src being transparent outside its bounds, so that operators
// like destination-in also clear the area not covered by src.
func Composite(dst, src *image.RGBA, mode svgtree.BlendMode, opacity float64) {
	if mode == svgtree.BlendNormal && opacity >= 1 {
		compositeOver(dst, src)
		return
	}
	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := at(src, x, y)
			if opacity < 1 {
				s = pixel{s.r * opacity, s.g * opacity, s.b * opacity, s.a * opacity}
			}
			d := at(dst, x, y)
			set(dst, x, y, blend(d, s, mode))
		}
	}
}

// compositeOver is the fast path for source-over.
func compositeOver(dst, src *image.RGBA) {
	r := dst.Rect.Intersect(src.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			si := src.PixOffset(x, y)
			sa := uint32(src.Pix[si+3])
			if sa == 0 {
				continue
			}
			di := dst.PixOffset(x, y)
			if sa == 255 {
				copy(dst.Pix[di:di+4], src.Pix[si:si+4])
				continue
			}
			k := 255 - sa
			for c := 0; c < 4; c++ {
				v := uint32(src.Pix[si+c]) + (uint32(dst.Pix[di+c])*k+127)/255
				dst.Pix[di+c] = uint8(min(v, 255))
			}
		}
	}
}

// blend combines the backdrop d and the source s.
func blend(d, s pixel, mode svgtree.BlendMode) pixel {
	switch mode {
	case svgtree.BlendNormal:
		return pixel{s.r + d.r*(1-s.a), s.g + d.g*(1-s.a), s.b + d.b*(1-s.a), s.a + d.a*(1-s.a)}
	case svgtree.BlendClear:
		return pixel{}
	case svgtree.BlendDestinationOver:
		return blend(s, d, svgtree.BlendNormal)
	case svgtree.BlendSourceIn:
		return scale(s, d.a)
	case svgtree.BlendDestinationIn:
		return scale(d, s.a)
	case svgtree.BlendSourceOut:
		return scale(s, 1-d.a)
	case svgtree.BlendDestinationOut:
		return scale(d, 1-s.a)
	case svgtree.BlendSourceAtop:
		return add(scale(s, d.a), scale(d, 1-s.a))
	case svgtree.BlendDestinationAtop:
		return add(scale(d, s.a), scale(s, 1-d.a))
	case svgtree.BlendXor:
		return add(scale(s, 1-d.a), scale(d, 1-s.a))
	}

	// blend modes: the mixed color is weighted by both alphas
	if s.a == 0 {
		return d
	}
	if d.a == 0 {
		return s
	}
	cb := [3]float64{d.r / d.a, d.g / d.a, d.b / d.a}
	cs := [3]float64{s.r / s.a, s.g / s.a, s.b / s.a}
	var mixed [3]float64
	if mode.IsSeparable() {
		for i := range mixed {
			mixed[i] = separable(cb[i], cs[i], mode)
		}
	} else {
		mixed = nonSeparable(cb, cs, mode)
	}
	sd := s.a * d.a
	out := pixel{a: s.a + d.a - sd}
	out.r = s.r*(1-d.a) + d.r*(1-s.a) + sd*mixed[0]
	out.g = s.g*(1-d.a) + d.g*(1-s.a) + sd*mixed[1]
	out.b = s.b*(1-d.a) + d.b*(1-s.a) + sd*mixed[2]
	return out
}

func scale(p pixel, f float64) pixel { return pixel{p.r * f, p.g * f, p.b * f, p.a * f} }

func add(p, q pixel) pixel { return pixel{p.r + q.r, p.g + q.g, p.b + q.b, p.a + q.a} }

// separable returns B(cb, cs) for non premultiplied components.
func separable(cb, cs float64, mode svgtree.BlendMode) float64 {
	switch mode {
	case svgtree.BlendMultiply:
		return cb * cs
	case svgtree.BlendScreen:
		return cb + cs - cb*cs
	case svgtree.BlendOverlay:
		return separable(cs, cb, svgtree.BlendHardLight)
	case svgtree.BlendDarken:
		return math.Min(cb, cs)
	case svgtree.BlendLighten:
		return math.Max(cb, cs)
	case svgtree.BlendColorDodge:
		switch {
		case cb == 0:
			return 0
		case cs >= 1:
			return 1
		}
		return math.Min(1, cb/(1-cs))
	case svgtree.BlendColorBurn:
		switch {
		case cb >= 1:
			return 1
		case cs <= 0:
			return 0
		}
		return 1 - math.Min(1, (1-cb)/cs)
	case svgtree.BlendHardLight:
		if cs <= 0.5 {
			return cb * 2 * cs
		}
		return separable(cb, 2*cs-1, svgtree.BlendScreen)
	case svgtree.BlendSoftLight:
		if cs <= 0.5 {
			return cb - (1-2*cs)*cb*(1-cb)
		}
		var d float64
		if cb <= 0.25 {
			d = ((16*cb-12)*cb + 4) * cb
		} else {
			d = math.Sqrt(cb)
		}
		return cb + (2*cs-1)*(d-cb)
	case svgtree.BlendDifference:
		return math.Abs(cb - cs)
	case svgtree.BlendExclusion:
		return cb + cs - 2*cb*cs
	}
	return cs
}

func lum(c [3]float64) float64 { return 0.3*c[0] + 0.59*c[1] + 0.11*c[2] }

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	for i := range c {
		if n < 0 {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
		if x > 1 {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	return clipColor([3]float64{c[0] + d, c[1] + d, c[2] + d})
}

func sat(c [3]float64) float64 {
	return math.Max(c[0], math.Max(c[1], c[2])) - math.Min(c[0], math.Min(c[1], c[2]))
}

func setSat(c [3]float64, s float64) [3]float64 {
	// indices of the min, mid and max components
	i0, i1, i2 := 0, 1, 2
	if c[i0] > c[i1] {
		i0, i1 = i1, i0
	}
	if c[i1] > c[i2] {
		i1, i2 = i2, i1
	}
	if c[i0] > c[i1] {
		i0, i1 = i1, i0
	}
	var out [3]float64
	if c[i2] > c[i0] {
		out[i1] = (c[i1] - c[i0]) * s / (c[i2] - c[i0])
		out[i2] = s
	}
	return out
}

func nonSeparable(cb, cs [3]float64, mode svgtree.BlendMode) [3]float64 {
	switch mode {
	case svgtree.BlendHue:
		return setLum(setSat(cs, sat(cb)), lum(cb))
	case svgtree.BlendSaturation:
		return setLum(setSat(cb, sat(cs)), lum(cb))
	case svgtree.BlendColor:
		return setLum(cs, lum(cb))
	default: // luminosity
		return setLum(cb, lum(cs))
	}
}

// Merge composites the images in order, source-over, into a new
// image with the given bounds.
func Merge(bounds image.Rectangle, layers ...*image.RGBA) *image.RGBA {
	out := image.NewRGBA(bounds)
	for _, l := range layers {
		compositeOver(out, l)
	}
	return out
}

// Blend returns the result of compositing in over in2 with mode.
func Blend(in, in2 *image.RGBA, mode svgtree.BlendMode) *image.RGBA {
	out := clone(in2)
	Composite(out, in, mode, 1)
	return out
}

// Arithmetic returns k1*i1*i2 + k2*i1 + k3*i2 + k4, computed on
// premultiplied components and clamped.
func Arithmetic(in, in2 *image.RGBA, k1, k2, k3, k4 float64) *image.RGBA {
	out := image.NewRGBA(in.Rect.Union(in2.Rect))
	b := out.Rect
	f := func(c1, c2 float64) float64 { return k1*c1*c2 + k2*c1 + k3*c2 + k4 }
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p, q := at(in, x, y), at(in2, x, y)
			set(out, x, y, pixel{f(p.r, q.r), f(p.g, q.g), f(p.b, q.b), f(p.a, q.a)})
		}
	}
	return out
}
