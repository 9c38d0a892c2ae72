package svgfilter

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Blur applies a gaussian blur with the given standard deviations, in
// pixels. A zero deviation disables the blur along its axis.
//
// Isotropic blurs use a true gaussian kernel, when it is not wider than
// the image. Other blurs are approximated by three successive box blurs,
// as suggested by the SVG recommendation: they run in linear time
// whatever the deviation.
func Blur(img *image.RGBA, sx, sy float64) *image.RGBA {
	if sx <= 0 && sy <= 0 || img.Rect.Empty() {
		return clone(img)
	}
	if sx == sy && 3*sx <= float64(max(img.Rect.Dx(), img.Rect.Dy())) {
		return gaussian(img, sx)
	}
	out := clone(img)
	if sx > 0 {
		boxBlur3(out, sx, true)
	}
	if sy > 0 {
		boxBlur3(out, sy, false)
	}
	return out
}

// gaussian blurs img, padded with transparent pixels so that the
// content fades at the edges. imaging weights the colors by their alpha,
// which is equivalent to blurring premultiplied values.
func gaussian(img *image.RGBA, sigma float64) *image.RGBA {
	pad := int(math.Ceil(sigma * 3))
	b := img.Rect
	src := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	draw.Draw(src, image.Rect(pad, pad, pad+b.Dx(), pad+b.Dy()), img, b.Min, draw.Src)
	blurred := imaging.Blur(src, sigma)
	out := image.NewRGBA(b)
	draw.Draw(out, b, blurred, image.Pt(pad, pad), draw.Src)
	return out
}

// maxBoxSize bounds the box blur sizes. Wider boxes
// leave nothing visible.
const maxBoxSize = 1 << 24

// boxSizes returns the sizes of the three box blurs approximating a
// gaussian of deviation s.
func boxSizes(s float64) [3]int {
	d := int(math.Floor(math.Min(s*3*math.Sqrt(2*math.Pi)/4+0.5, maxBoxSize)))
	if d < 1 {
		d = 1
	}
	if d%2 == 1 {
		return [3]int{d, d, d}
	}
	return [3]int{d, d, d + 1}
}

// boxBlur3 applies three box blurs along one axis, in place.
func boxBlur3(img *image.RGBA, s float64, horizontal bool) {
	b := img.Rect
	length, lines := b.Dx(), b.Dy()
	if !horizontal {
		length, lines = lines, length
	}
	offset := func(line, i int) int {
		if horizontal {
			return img.PixOffset(b.Min.X+i, b.Min.Y+line)
		}
		return img.PixOffset(b.Min.X+line, b.Min.Y+i)
	}
	buf := make([][4]float64, length)
	tmp := make([][4]float64, length)
	for line := 0; line < lines; line++ {
		for i := range buf {
			o := offset(line, i)
			buf[i] = [4]float64{float64(img.Pix[o]), float64(img.Pix[o+1]), float64(img.Pix[o+2]), float64(img.Pix[o+3])}
		}
		for pass, d := range boxSizes(s) {
			// even sizes are shifted alternately left and right
			left := d / 2
			if d%2 == 0 && pass == 1 {
				left = d/2 - 1
			}
			boxPass(buf, tmp, d, left)
			buf, tmp = tmp, buf
		}
		for i := range buf {
			o := offset(line, i)
			a := uint8(math.Min(255, buf[i][3]+0.5))
			for c := 0; c < 3; c++ {
				img.Pix[o+c] = min(uint8(math.Min(255, buf[i][c]+0.5)), a)
			}
			img.Pix[o+3] = a
		}
	}
}

// boxPass averages src over windows of size d, starting left pixels
// before the current one, treating the outside as transparent.
func boxPass(src, dst [][4]float64, d, left int) {
	var sum [4]float64
	n := len(src)
	for i := max(-left, 0); i < min(d-left, n); i++ {
		for c := range sum {
			sum[c] += src[i][c]
		}
	}
	for i := 0; i < n; i++ {
		for c := range sum {
			dst[i][c] = sum[c] / float64(d)
		}
		if out := i - left; out >= 0 && out < n {
			for c := range sum {
				sum[c] -= src[out][c]
			}
		}
		if in := i - left + d; in >= 0 && in < n {
			for c := range sum {
				sum[c] += src[in][c]
			}
		}
	}
}

// Morphology erodes (or dilates) img with a rectangle of the given
// radii, in pixels, taking the minimum (or maximum) of each component.
// The outside of img is transparent.
func Morphology(img *image.RGBA, dilate bool, rx, ry int) *image.RGBA {
	if rx <= 0 && ry <= 0 {
		return clone(img)
	}
	out := clone(img)
	morphologyPass(out, dilate, rx, true)
	morphologyPass(out, dilate, ry, false)
	return out
}

// morphologyPass applies a window of 2r+1 pixels along one axis, in
// place. The extremum of each window is tracked with a monotonic queue,
// so that the cost does not depend on r.
func morphologyPass(img *image.RGBA, dilate bool, r int, horizontal bool) {
	if r <= 0 {
		return
	}
	b := img.Rect
	length, lines := b.Dx(), b.Dy()
	if !horizontal {
		length, lines = lines, length
	}
	offset := func(line, i int) int {
		if horizontal {
			return img.PixOffset(b.Min.X+i, b.Min.Y+line)
		}
		return img.PixOffset(b.Min.X+line, b.Min.Y+i)
	}
	// wider windows cover the whole line
	r = min(r, length)
	// better returns true if v replaces w as the extremum
	better := func(v, w uint8) bool { return v <= w }
	if dilate {
		better = func(v, w uint8) bool { return v >= w }
	}
	values := make([]uint8, length)
	result := make([]uint8, length)
	queue := make([]int, 0, length)
	for line := 0; line < lines; line++ {
		for c := 0; c < 4; c++ {
			for i := range values {
				values[i] = img.Pix[offset(line, i)+c]
			}
			queue = queue[:0]
			head, next := 0, 0
			for i := 0; i < length; i++ {
				for ; next < length && next <= i+r; next++ {
					for len(queue) > head && better(values[next], values[queue[len(queue)-1]]) {
						queue = queue[:len(queue)-1]
					}
					queue = append(queue, next)
				}
				for queue[head] < i-r {
					head++
				}
				v := values[queue[head]]
				if !dilate && (i-r < 0 || i+r >= length) {
					v = 0 // the window overlaps the transparent outside
				}
				result[i] = v
			}
			for i, v := range result {
				img.Pix[offset(line, i)+c] = v
			}
		}
	}
}

// Offset translates img by (dx, dy) pixels, keeping its bounds.
func Offset(img *image.RGBA, dx, dy int) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	draw.Draw(out, img.Rect.Add(image.Pt(dx, dy)), img, img.Rect.Min, draw.Src)
	return out
}

// Tile fills bounds with copies of the tile area of img.
func Tile(img *image.RGBA, tile, bounds image.Rectangle) *image.RGBA {
	out := image.NewRGBA(bounds)
	tile = tile.Intersect(img.Rect)
	if tile.Empty() {
		return out
	}
	w, h := tile.Dx(), tile.Dy()
	mod := func(a, n int) int { return ((a % n) + n) % n }
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		sy := tile.Min.Y + mod(y-tile.Min.Y, h)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sx := tile.Min.X + mod(x-tile.Min.X, w)
			i, o := img.PixOffset(sx, sy), out.PixOffset(x, y)
			copy(out.Pix[o:o+4], img.Pix[i:i+4])
		}
	}
	return out
}

// Crop returns a copy of img restricted to r, transparent outside img.
func Crop(img *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	draw.Draw(out, r, img, r.Min, draw.Src)
	return out
}
