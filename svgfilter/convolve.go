package svgfilter

import (
	"image"

	"github.com/benoitkugler/microsvg/svgtree"
)

// Convolve applies the convolution matrix described by p, whose kernel
// has already been validated.
func Convolve(img *image.RGBA, p svgtree.FeConvolveMatrix) *image.RGBA {
	b := img.Rect
	out := image.NewRGBA(b)
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return out
	}
	divisor := p.Divisor
	if divisor == 0 {
		divisor = 1
	}
	sample := func(x, y int) pixel {
		switch p.Edge {
		case svgtree.EdgeDuplicate:
			x = max(b.Min.X, min(x, b.Max.X-1))
			y = max(b.Min.Y, min(y, b.Max.Y-1))
		case svgtree.EdgeWrap:
			x = b.Min.X + ((x-b.Min.X)%w+w)%w
			y = b.Min.Y + ((y-b.Min.Y)%h+h)%h
		}
		return at(img, x, y)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum pixel
			for j := 0; j < p.OrderY; j++ {
				for i := 0; i < p.OrderX; i++ {
					k := p.Kernel[(p.OrderY-j-1)*p.OrderX+(p.OrderX-i-1)]
					if k == 0 {
						continue
					}
					s := sample(x-p.TargetX+i, y-p.TargetY+j)
					if p.PreserveAlpha && s.a != 0 {
						s = pixel{s.r / s.a, s.g / s.a, s.b / s.a, s.a}
					}
					sum = add(sum, scale(s, k))
				}
			}
			res := scale(sum, 1/divisor)
			if p.PreserveAlpha {
				a := at(img, x, y).a
				res = pixel{(res.r + p.Bias) * a, (res.g + p.Bias) * a, (res.b + p.Bias) * a, a}
			} else {
				res = add(res, pixel{p.Bias, p.Bias, p.Bias, p.Bias})
			}
			set(out, x, y, res)
		}
	}
	return out
}

func channel(p pixel, c svgtree.Channel) float64 {
	switch c {
	case svgtree.ChannelR:
		return p.r
	case svgtree.ChannelG:
		return p.g
	case svgtree.ChannelB:
		return p.b
	}
	return p.a
}

// DisplacementMap moves the pixels of img using the channels of the
// displacement image dmap. sx and sy are the displacement scale in
// device pixels along each axis.
func DisplacementMap(img, dmap *image.RGBA, sx, sy float64, xc, yc svgtree.Channel) *image.RGBA {
	b := img.Rect
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := at(dmap, x, y)
			// the map colors are used demultiplied
			if d.a != 0 {
				d = pixel{d.r / d.a, d.g / d.a, d.b / d.a, d.a}
			}
			px := float64(x) + sx*(channel(d, xc)-0.5)
			py := float64(y) + sy*(channel(d, yc)-0.5)
			set(out, x, y, at(img, int(px+0.5), int(py+0.5)))
		}
	}
	return out
}
