package svgraster

import (
	"image"
	"math"

	"github.com/benoitkugler/microsvg/svgpath"
)

// flattenTolerance is used to flatten paths in device space, in pixels.
const flattenTolerance = 0.1

// coverage accumulates the signed area covered by the edges of a
// path, one cell per pixel. Summing a row from the left gives the
// winding number of each pixel, weighted by its coverage.
// It is used for the even-odd rule, which rasterx scanners do not support.
type coverage struct {
	width, height int
	stride        int // width + 2, so that x = width stays on its row
	acc           []float32
}

func newCoverage(width, height int) *coverage {
	stride := width + 2
	return &coverage{width: width, height: height, stride: stride, acc: make([]float32, stride*height)}
}

// addPath adds the outline of p, mapped by m. Subpaths are implicitly closed.
func (c *coverage) addPath(p svgpath.Path, m svgpath.Matrix2D) {
	for _, pl := range p.Transform(m).Flatten(flattenTolerance) {
		pts := pl.Points
		for i := range pts {
			c.line(pts[i], pts[(i+1)%len(pts)])
		}
	}
}

// line splits the segment where it crosses the vertical sides of the
// canvas. Pieces outside are projected on the sides, which keeps
// the winding of the pixels inside.
func (c *coverage) line(a, b svgpath.Point) {
	if math.IsNaN(a.X+a.Y+b.X+b.Y) || math.IsInf(a.X+a.Y+b.X+b.Y, 0) {
		return
	}
	w := float64(c.width)
	pts := [4]svgpath.Point{a}
	n := 1
	ts := [2]float64{}
	nt := 0
	for _, side := range [2]float64{0, w} {
		if (a.X < side) != (b.X < side) {
			ts[nt] = (side - a.X) / (b.X - a.X)
			nt++
		}
	}
	if nt == 2 && ts[0] > ts[1] {
		ts[0], ts[1] = ts[1], ts[0]
	}
	for _, t := range ts[:nt] {
		pts[n] = a.Lerp(b, t)
		n++
	}
	pts[n] = b
	n++
	for i := 1; i < n; i++ {
		p0, p1 := pts[i-1], pts[i]
		p0.X = math.Min(math.Max(p0.X, 0), w)
		p1.X = math.Min(math.Max(p1.X, 0), w)
		c.clampedLine(p0, p1)
	}
}

// clampedLine accumulates a segment with 0 <= x <= width,
// computing the exact area on its right, row by row.
func (c *coverage) clampedLine(p0, p1 svgpath.Point) {
	dir := float32(1)
	if p0.Y > p1.Y {
		dir = -1
		p0, p1 = p1, p0
	}
	if p0.Y == p1.Y || p1.Y <= 0 || p0.Y >= float64(c.height) {
		return
	}
	dxdy := (p1.X - p0.X) / (p1.Y - p0.Y)
	x := p0.X
	if p0.Y < 0 {
		x = math.Min(math.Max(x-p0.Y*dxdy, 0), float64(c.width))
	}
	yStart := int(math.Max(p0.Y, 0))
	yEnd := int(math.Ceil(math.Min(p1.Y, float64(c.height))))
	for y := yStart; y < yEnd; y++ {
		row := c.acc[y*c.stride : (y+1)*c.stride]
		dy := math.Min(float64(y+1), p1.Y) - math.Max(float64(y), p0.Y)
		xNext := math.Min(math.Max(x+dxdy*dy, 0), float64(c.width))
		d := float32(dy) * dir
		x0, x1 := x, xNext
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		x0Floor := math.Floor(x0)
		x0i := int(x0Floor)
		x1Ceil := math.Ceil(x1)
		x1i := int(x1Ceil)
		if x1i <= x0i+1 {
			// the segment stays in one pixel
			xm := float32(0.5*(x+xNext) - x0Floor)
			row[x0i] += d - d*xm
			row[x0i+1] += d * xm
		} else {
			s := float32(1 / (x1 - x0))
			x0f := float32(x0 - x0Floor)
			a0 := 0.5 * s * (1 - x0f) * (1 - x0f)
			x1f := float32(x1 - x1Ceil + 1)
			am := 0.5 * s * x1f * x1f
			row[x0i] += d * a0
			if x1i == x0i+2 {
				row[x0i+1] += d * (1 - a0 - am)
			} else {
				a1 := s * (1.5 - x0f)
				row[x0i+1] += d * (a1 - a0)
				for xi := x0i + 2; xi < x1i-1; xi++ {
					row[xi] += d * s
				}
				a2 := a1 + float32(x1i-x0i-3)*s
				row[x1i-1] += d * (1 - a2 - am)
			}
			row[x1i] += d * am
		}
		x = xNext
	}
}

// mask returns the coverage of the pixels, for the given rule.
func (c *coverage) mask(rule svgpath.FillRule) *image.Alpha {
	out := image.NewAlpha(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		row := c.acc[y*c.stride : (y+1)*c.stride]
		var winding float32
		for x := 0; x < c.width; x++ {
			winding += row[x]
			a := float64(winding)
			if a < 0 {
				a = -a
			}
			if rule == svgpath.EvenOdd {
				a = math.Mod(a, 2)
				if a > 1 {
					a = 2 - a
				}
			} else {
				a = math.Min(a, 1)
			}
			out.Pix[y*out.Stride+x] = uint8(a*255 + 0.5)
		}
	}
	return out
}

// maskExtent returns the pixels with a non zero coverage.
func maskExtent(m *image.Alpha) image.Rectangle {
	var r image.Rectangle
	for y := 0; y < m.Rect.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+m.Rect.Dx()]
		for x, v := range row {
			if v != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}
