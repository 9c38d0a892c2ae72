package svgfilter

import (
	"image"
	"math"

	"github.com/benoitkugler/microsvg/svgtree"
)

var (
	toLinear [256]uint8
	toSRGB   [256]uint8
)

func init() {
	for i := range toLinear {
		c := float64(i) / 255
		var l float64
		if c <= 0.04045 {
			l = c / 12.92
		} else {
			l = math.Pow((c+0.055)/1.055, 2.4)
		}
		toLinear[i] = to8(l)

		var s float64
		if c <= 0.0031308 {
			s = c * 12.92
		} else {
			s = 1.055*math.Pow(c, 1/2.4) - 0.055
		}
		toSRGB[i] = to8(s)
	}
}

// mapColors applies lut to the color components, demultiplied.
func mapColors(img *image.RGBA, lut *[256]uint8) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := uint32(img.Pix[i+3])
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			v := uint32(img.Pix[i+c])
			if a != 255 {
				v = min(v*255/a, 255)
			}
			v = uint32(lut[v])
			if a != 255 {
				v = (v*a + 127) / 255
			}
			img.Pix[i+c] = uint8(v)
		}
	}
}

// ToLinearRGB converts img, in place, from sRGB to linearRGB.
func ToLinearRGB(img *image.RGBA) { mapColors(img, &toLinear) }

// ToSRGB converts img, in place, from linearRGB to sRGB.
func ToSRGB(img *image.RGBA) { mapColors(img, &toSRGB) }

// LuminanceToAlpha replaces, in place, each pixel by its luminance, used
// as coverage. This is how a mask content is applied.
func LuminanceToAlpha(img *image.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		l := 0.2125*float64(p[0]) + 0.7154*float64(p[1]) + 0.0721*float64(p[2])
		v := uint8(math.Min(255, l+0.5))
		p[0], p[1], p[2], p[3] = v, v, v, v
	}
}

// mapPixels applies f to the demultiplied colors of img, returning a
// new image.
func mapPixels(img *image.RGBA, f func(c [4]float64) [4]float64) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		var c [4]float64
		if a := float64(p[3]) / 255; a != 0 {
			c = [4]float64{float64(p[0]) / 255 / a, float64(p[1]) / 255 / a, float64(p[2]) / 255 / a, a}
		}
		c = f(c)
		a := math.Max(0, math.Min(1, c[3]))
		q := out.Pix[i : i+4 : i+4]
		for k := 0; k < 3; k++ {
			q[k] = to8(math.Max(0, math.Min(1, c[k])) * a)
		}
		q[3] = to8(a)
	}
	return out
}

// ColorMatrix applies the 4x5 row major matrix m to the demultiplied
// colors.
func ColorMatrix(img *image.RGBA, m [20]float64) *image.RGBA {
	return mapPixels(img, func(c [4]float64) [4]float64 {
		var out [4]float64
		for row := range out {
			r := m[5*row : 5*row+5]
			out[row] = r[0]*c[0] + r[1]*c[1] + r[2]*c[2] + r[3]*c[3] + r[4]
		}
		return out
	})
}

// Transfer evaluates the transfer function for a component in [0, 1].
func Transfer(f svgtree.TransferFunc, c float64) float64 {
	switch f.Kind {
	case svgtree.TransferTable:
		n := len(f.Table) - 1
		if n < 0 {
			return c
		}
		if n == 0 {
			return f.Table[0]
		}
		k := int(c * float64(n))
		if k >= n {
			return f.Table[n]
		}
		k = max(k, 0)
		return f.Table[k] + (c-float64(k)/float64(n))*float64(n)*(f.Table[k+1]-f.Table[k])
	case svgtree.TransferDiscrete:
		n := len(f.Table)
		if n == 0 {
			return c
		}
		k := int(c * float64(n))
		return f.Table[max(0, min(k, n-1))]
	case svgtree.TransferLinear:
		return f.Slope*c + f.Intercept
	case svgtree.TransferGamma:
		return f.Amplitude*math.Pow(c, f.Exponent) + f.Offset
	}
	return c
}

// ComponentTransfer remaps each demultiplied component independently.
func ComponentTransfer(img *image.RGBA, r, g, b, a svgtree.TransferFunc) *image.RGBA {
	funcs := [4]svgtree.TransferFunc{r, g, b, a}
	// components are 8 bits: tabulate the functions
	var luts [4][256]float64
	for k, f := range funcs {
		for i := range luts[k] {
			luts[k][i] = Transfer(f, float64(i)/255)
		}
	}
	return mapPixels(img, func(c [4]float64) [4]float64 {
		for k := range c {
			c[k] = luts[k][to8(c[k])]
		}
		return c
	})
}

// Flood returns an image with bounds filled with the given color.
func Flood(bounds image.Rectangle, r, g, b uint8, opacity float64) *image.RGBA {
	out := image.NewRGBA(bounds)
	a := to8(opacity)
	pm := func(v uint8) uint8 { return uint8((uint32(v)*uint32(a) + 127) / 255) }
	px := [4]uint8{pm(r), pm(g), pm(b), a}
	if a == 0 {
		return out
	}
	for i := 0; i+3 < len(out.Pix); i += 4 {
		copy(out.Pix[i:i+4], px[:])
	}
	return out
}
