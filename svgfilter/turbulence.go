package svgfilter

import (
	"image"
	"math"

	"github.com/benoitkugler/microsvg/svgtree"
)

// The noise generator is the one described by the feTurbulence
// reference implementation, so that outputs match other renderers.

const (
	bSize   = 0x100
	bMask   = 0xff
	perlinN = 0x1000

	randM = 2147483647
	randA = 16807
	randQ = 127773 // randM / randA
	randR = 2836   // randM % randA
)

type noiseTables struct {
	lattice  [bSize + bSize + 2]int
	gradient [4][bSize + bSize + 2][2]float64
}

type stitchInfo struct {
	width, height int
	wrapX, wrapY  int
}

func setupSeed(seed int64) int64 {
	if seed <= 0 {
		seed = -(seed % (randM - 1)) + 1
	}
	if seed > randM-1 {
		seed = randM - 1
	}
	return seed
}

func random(seed int64) int64 {
	r := randA*(seed%randQ) - randR*(seed/randQ)
	if r <= 0 {
		r += randM
	}
	return r
}

func newNoiseTables(seed int64) *noiseTables {
	t := new(noiseTables)
	seed = setupSeed(seed)
	for k := 0; k < 4; k++ {
		for i := 0; i < bSize; i++ {
			t.lattice[i] = i
			for j := 0; j < 2; j++ {
				seed = random(seed)
				t.gradient[k][i][j] = float64(seed%(bSize+bSize)-bSize) / bSize
			}
			g := &t.gradient[k][i]
			s := math.Sqrt(g[0]*g[0] + g[1]*g[1])
			if s != 0 {
				g[0] /= s
				g[1] /= s
			}
		}
	}
	for i := bSize - 1; i > 0; i-- {
		k := t.lattice[i]
		seed = random(seed)
		j := int(seed % bSize)
		t.lattice[i] = t.lattice[j]
		t.lattice[j] = k
	}
	for i := 0; i < bSize+2; i++ {
		t.lattice[bSize+i] = t.lattice[i]
		for k := 0; k < 4; k++ {
			t.gradient[k][bSize+i] = t.gradient[k][i]
		}
	}
	return t
}

func sCurve(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func (t *noiseTables) noise2(channel int, vx, vy float64, stitch *stitchInfo) float64 {
	tx := vx + perlinN
	bx0 := int(tx) & bMask
	bx1 := (bx0 + 1) & bMask
	rx0 := tx - math.Trunc(tx)
	rx1 := rx0 - 1

	ty := vy + perlinN
	by0 := int(ty) & bMask
	by1 := (by0 + 1) & bMask
	ry0 := ty - math.Trunc(ty)
	ry1 := ry0 - 1

	if stitch != nil {
		if bx0 >= stitch.wrapX {
			bx0 -= stitch.width
		}
		if bx1 >= stitch.wrapX {
			bx1 -= stitch.width
		}
		if by0 >= stitch.wrapY {
			by0 -= stitch.height
		}
		if by1 >= stitch.wrapY {
			by1 -= stitch.height
		}
	}
	bx0 &= bMask
	bx1 &= bMask
	by0 &= bMask
	by1 &= bMask

	i, j := t.lattice[bx0], t.lattice[bx1]
	b00, b10 := t.lattice[i+by0], t.lattice[j+by0]
	b01, b11 := t.lattice[i+by1], t.lattice[j+by1]
	sx, sy := sCurve(rx0), sCurve(ry0)

	g := &t.gradient[channel]
	u := rx0*g[b00][0] + ry0*g[b00][1]
	v := rx1*g[b10][0] + ry0*g[b10][1]
	a := lerp(sx, u, v)
	u = rx0*g[b01][0] + ry1*g[b01][1]
	v = rx1*g[b11][0] + ry1*g[b11][1]
	b := lerp(sx, u, v)
	return lerp(sy, a, b)
}

// stitchFrequency adjusts freq so that an integral number of periods
// fits in size.
func stitchFrequency(freq, size float64) float64 {
	if freq == 0 || size == 0 {
		return freq
	}
	lo := math.Floor(size*freq) / size
	hi := math.Ceil(size*freq) / size
	if lo != 0 && freq/lo < hi/freq {
		return lo
	}
	return hi
}

func (t *noiseTables) turbulence(channel int, px, py float64, p svgtree.FeTurbulence, tile [4]float64) float64 {
	fx, fy := p.BaseFrequencyX, p.BaseFrequencyY
	var stitch *stitchInfo
	if p.StitchTiles {
		fx = stitchFrequency(fx, tile[2])
		fy = stitchFrequency(fy, tile[3])
		st := stitchInfo{
			width:  int(tile[2]*fx + 0.5),
			height: int(tile[3]*fy + 0.5),
		}
		st.wrapX = int(tile[0]*fx + perlinN + float64(st.width))
		st.wrapY = int(tile[1]*fy + perlinN + float64(st.height))
		stitch = &st
	}
	var sum float64
	vx, vy := px*fx, py*fy
	ratio := 1.
	for octave := 0; octave < p.NumOctaves; octave++ {
		n := t.noise2(channel, vx, vy, stitch)
		if p.FractalNoise {
			sum += n / ratio
		} else {
			sum += math.Abs(n) / ratio
		}
		vx *= 2
		vy *= 2
		ratio *= 2
		if stitch != nil {
			stitch.width *= 2
			stitch.wrapX = 2*stitch.wrapX - perlinN
			stitch.height *= 2
			stitch.wrapY = 2*stitch.wrapY - perlinN
		}
	}
	return sum
}

// Turbulence renders the noise over bounds. toUser maps a pixel to the
// user space where the frequencies are expressed, and tile is the
// (x, y, width, height) area used for stitching, in user space.
func Turbulence(bounds image.Rectangle, toUser func(x, y float64) (float64, float64), tile [4]float64, p svgtree.FeTurbulence) *image.RGBA {
	out := image.NewRGBA(bounds)
	if p.BaseFrequencyX < 0 || p.BaseFrequencyY < 0 {
		return out
	}
	t := newNoiseTables(int64(math.Round(p.Seed)))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ux, uy := toUser(float64(x), float64(y))
			var c [4]float64
			for ch := range c {
				v := t.turbulence(ch, ux, uy, p, tile)
				if p.FractalNoise {
					v = (v + 1) / 2
				}
				c[ch] = math.Max(0, math.Min(1, v))
			}
			set(out, x, y, pixel{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]})
		}
	}
	return out
}
