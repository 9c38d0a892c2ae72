package svgpath

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathData = []string{
	"M10 10 L20 20 H30 V40 Z",
	"m10 10 l10 10 h10 v20 z m5 5 l1 1",
	"M0,0 C10,0 20,10 20,20 S30,40 40,40",
	"M0 0 Q10 0 10 10 T20 20 t10 10",
	"M10 10 A5 5 0 0 1 20 10 A5 10 30 1 0 30 30",
	"M-1.5e1.5.5-3 L2-3",
	"M 0 0 a 10 10 0 1 1 20 0 z",
	"M0 0 10 10 20 0 z",
}

func assertPathsNear(t *testing.T, exp, got Path, tol float64) {
	t.Helper()
	require.Equal(t, len(exp), len(got), "number of subpaths")
	for i := range exp {
		e, g := exp[i], got[i]
		assert.True(t, e.Start.Sub(g.Start).Len() < tol, "start %v != %v", e.Start, g.Start)
		assert.Equal(t, e.Closed, g.Closed)
		require.Equal(t, len(e.Segments), len(g.Segments), "subpath %d", i)
		for j := range e.Segments {
			ec, gc := e.Segments[j], g.Segments[j]
			for _, pts := range [][2]Point{{ec.C1, gc.C1}, {ec.C2, gc.C2}, {ec.End, gc.End}} {
				assert.True(t, pts[0].Sub(pts[1]).Len() < tol, "segment %d: %v != %v", j, pts[0], pts[1])
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, d := range pathData {
		p, err := ParsePathData(d, DefaultTolerance)
		require.NoError(t, err, d)
		require.False(t, p.IsEmpty(), d)

		emitted := p.ToSVGPath()
		p2, err := ParsePathData(emitted, DefaultTolerance)
		require.NoError(t, err, emitted)

		assertPathsNear(t, p, p2, 1e-5)
	}
}

func TestParseErrors(t *testing.T) {
	p, err := ParsePathData("M10 10 L20 20 L30 x", DefaultTolerance)
	assert.True(t, errors.Is(err, ErrInvalidPathData))
	// the path is kept up to the error
	require.Len(t, p, 1)
	assert.Len(t, p[0].Segments, 1)

	p, err = ParsePathData("L10 10", DefaultTolerance)
	assert.Error(t, err)
	assert.True(t, p.IsEmpty())

	cmds, err := ParseCommands("M1 2 3 4 m1 1 2 2")
	require.NoError(t, err)
	ops := ""
	for _, c := range cmds {
		ops += string(c.Op)
	}
	assert.Equal(t, "MLml", ops)

	cmds, err = ParseCommands("M0 0a25,25 -30 0,1 50,-25")
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 25, -30, 0, 1, 50, -25}, cmds[1].Args)

	// flags glued together
	cmds, err = ParseCommands("M0 0a25 25 0 1150 0")
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 25, 0, 1, 1, 50, 0}, cmds[1].Args)
}

func TestQuadElevation(t *testing.T) {
	var p Path
	p.Start(Point{0, 0})
	p.QuadBezier(Point{10, 20}, Point{20, 0})
	c := p[0].Segments[0]
	// the cubic and the quadratic agree at t = 0.5
	mid := c.pointAt(Point{0, 0}, 0.5)
	assert.InDelta(t, 10, mid.X, 1e-9)
	assert.InDelta(t, 10, mid.Y, 1e-9)
}

func TestDegenerateArcs(t *testing.T) {
	// null radius : straight line
	p, err := ParsePathData("M0 0 A0 5 0 0 1 10 0", DefaultTolerance)
	require.NoError(t, err)
	require.Len(t, p[0].Segments, 1)
	assert.True(t, p[0].Segments[0].isLine(Point{}))

	// identical endpoints : omitted
	p, err = ParsePathData("M0 0 A5 5 0 0 1 0 0", DefaultTolerance)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	// radii too small are scaled up : half circle
	p, err = ParsePathData("M0 0 A1 1 0 0 1 10 0", DefaultTolerance)
	require.NoError(t, err)
	b, ok := p.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 5, b.H, 1e-3)
	assert.InDelta(t, 10, b.W, 1e-9)
}

func TestArcTolerance(t *testing.T) {
	var coarse, fine Path
	coarse.Start(Point{0, 0})
	coarse.Arc(100, 100, 0, false, true, Point{200, 0}, 10)
	fine.Start(Point{0, 0})
	fine.Arc(100, 100, 0, false, true, Point{200, 0}, 1e-4)
	assert.Less(t, len(coarse[0].Segments), len(fine[0].Segments))

	// points stay on the circle
	from := fine[0].Start
	for _, c := range fine[0].Segments {
		mid := c.pointAt(from, 0.5)
		assert.InDelta(t, 100, mid.Sub(Point{100, 0}).Len(), 1e-3)
		from = c.End
	}
}

func TestRect(t *testing.T) {
	p := NewRect(0, 0, 10, 10, 0, 0)
	require.Len(t, p, 1)
	assert.True(t, p[0].Closed)
	assert.Len(t, p[0].Segments, 4)
	b, _ := p.Bounds()
	assert.Equal(t, Rect{0, 0, 10, 10}, b)

	rounded := NewRect(0, 0, 10, 20, 20, 2)
	b, _ = rounded.Bounds()
	assert.InDelta(t, 10, b.W, 1e-9)
	assert.InDelta(t, 20, b.H, 1e-9)
	assert.Len(t, rounded[0].Segments, 8)

	assert.True(t, NewRect(0, 0, 0, 10, 0, 0).IsEmpty())
}

func TestEllipse(t *testing.T) {
	p := NewEllipse(50, 50, 20, 10)
	require.Len(t, p, 1)
	assert.Len(t, p[0].Segments, 4)
	b, _ := p.Bounds()
	assert.InDelta(t, 30, b.X, 1e-9)
	assert.InDelta(t, 40, b.Y, 1e-9)
	assert.InDelta(t, 40, b.W, 1e-9)
	assert.InDelta(t, 20, b.H, 1e-9)
}

func TestBoundsCurve(t *testing.T) {
	var p Path
	p.Start(Point{0, 0})
	p.CubeBezier(Point{0, 10}, Point{10, 10}, Point{10, 0})
	b, ok := p.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 7.5, b.H, 1e-9) // maximum at t = 0.5
	assert.InDelta(t, 10, b.W, 1e-9)

	_, ok = Path{}.Bounds()
	assert.False(t, ok)
}

func TestMatrix(t *testing.T) {
	m := Identity.Translate(10, 5).Rotate(math.Pi / 2).Scale(2, 2)
	q := m.Transform(Point{1, 0})
	assert.InDelta(t, 10, q.X, 1e-9)
	assert.InDelta(t, 7, q.Y, 1e-9)

	inv, ok := m.Invert()
	require.True(t, ok)
	back := inv.Transform(q)
	assert.InDelta(t, 1, back.X, 1e-9)
	assert.InDelta(t, 0, back.Y, 1e-9)

	assert.True(t, m.IsSimilarity())
	assert.False(t, Identity.Scale(1, 2).IsSimilarity())
	_, ok = Identity.Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestStrokeZeroWidth(t *testing.T) {
	p := NewRect(0, 0, 10, 10, 0, 0)
	assert.True(t, Stroke(p, StrokeStyle{Width: 0}, DefaultTolerance).IsEmpty())
}

func countCurvedSubpaths(p Path) int {
	n := 0
	for _, sp := range p {
		from := sp.Start
		for _, c := range sp.Segments {
			if !c.isLine(from) {
				n++
				break
			}
			from = c.End
		}
	}
	return n
}

func TestStrokeRoundJoins(t *testing.T) {
	tri := NewPolygon([]float64{0, 0, 100, 0, 50, 80})
	out := Stroke(tri, StrokeStyle{Width: 10, Join: RoundJoin, MiterLimit: 4}, DefaultTolerance)
	// one arc per vertex
	assert.Equal(t, 3, countCurvedSubpaths(out))

	// the arcs are tangent continuous
	for _, sp := range out {
		from, prevFrom := sp.Start, sp.Start
		var prev *Cubic
		for i := range sp.Segments {
			c := sp.Segments[i]
			if prev != nil && !c.isLine(from) && !prev.isLine(prevFrom) {
				in := prev.End.Sub(prev.C2).Unit()
				outDir := c.C1.Sub(from).Unit()
				assert.InDelta(t, 0, in.Cross(outDir), 1e-6)
			}
			prev = &sp.Segments[i]
			prevFrom, from = from, c.End
		}
	}

	b, ok := out.Bounds()
	require.True(t, ok)
	assert.InDelta(t, -5, b.X, 0.01)
	assert.InDelta(t, 110, b.W, 0.02)
}

func TestStrokeCapsAndMiter(t *testing.T) {
	line := NewLine(0, 0, 10, 0)
	butt, _ := Stroke(line, StrokeStyle{Width: 2, Cap: ButtCap}, DefaultTolerance).Bounds()
	assert.InDelta(t, 10, butt.W, 1e-9)
	assert.InDelta(t, 2, butt.H, 1e-9)

	square, _ := Stroke(line, StrokeStyle{Width: 2, Cap: SquareCap}, DefaultTolerance).Bounds()
	assert.InDelta(t, 12, square.W, 1e-9)

	round, _ := Stroke(line, StrokeStyle{Width: 2, Cap: RoundCap}, DefaultTolerance).Bounds()
	assert.InDelta(t, 12, round.W, 1e-6)

	// sharp angle : the miter is cut to a bevel by the limit
	sharp := NewPolyline([]float64{0, 0, 100, 0, 0, 10})
	miter, _ := Stroke(sharp, StrokeStyle{Width: 4, Join: MiterJoin, MiterLimit: 100}, DefaultTolerance).Bounds()
	bevel, _ := Stroke(sharp, StrokeStyle{Width: 4, Join: MiterJoin, MiterLimit: 4}, DefaultTolerance).Bounds()
	assert.Greater(t, miter.MaxX(), bevel.MaxX()+10)
}

func TestStrokeDot(t *testing.T) {
	p, err := ParsePathData("M10 10 z", DefaultTolerance)
	require.NoError(t, err)
	assert.True(t, Stroke(p, StrokeStyle{Width: 4, Cap: ButtCap}, DefaultTolerance).IsEmpty())
	dot, ok := Stroke(p, StrokeStyle{Width: 4, Cap: RoundCap}, DefaultTolerance).Bounds()
	require.True(t, ok)
	assert.InDelta(t, 4, dot.W, 1e-6)
}

func TestDash(t *testing.T) {
	line := NewLine(0, 0, 100, 0)
	dashed := Dash(line, []float64{10, 10}, 0, DefaultTolerance)
	assert.Len(t, dashed, 5)
	assert.InDelta(t, 50, dashed.Length(DefaultTolerance), 1e-9)

	// odd arrays are repeated, offsets shift the pattern
	dashed = Dash(line, []float64{10}, 5, DefaultTolerance)
	assert.Len(t, dashed, 6)
	assert.InDelta(t, 5, dashed[0].End().X, 1e-9)

	// invalid patterns are ignored
	assert.Equal(t, line, Dash(line, []float64{-1, 2}, 0, DefaultTolerance))
	assert.Equal(t, line, Dash(line, []float64{0, 0}, 0, DefaultTolerance))

	// closed path : the last dash is merged with the first one
	square := NewRect(0, 0, 10, 10, 0, 0)
	dashed = Dash(square, []float64{15, 5}, 0, DefaultTolerance)
	assert.Len(t, dashed, 2)
}

func TestDashTooDense(t *testing.T) {
	line := NewLine(0, 0, 1000, 0)
	assert.Equal(t, line, Dash(line, []float64{0.0001}, 0, DefaultTolerance))

	style := StrokeStyle{Width: 1, Dash: []float64{0.0001}}
	assert.Nil(t, style.DashPattern(line, DefaultTolerance))
	solid := Stroke(line, StrokeStyle{Width: 1}, DefaultTolerance)
	assert.Equal(t, solid, Stroke(line, style, DefaultTolerance))

	// the returned pattern is a copy
	style.Dash = []float64{10, 5}
	pattern := style.DashPattern(line, DefaultTolerance)
	pattern[0] = 1
	assert.Equal(t, 10., style.Dash[0])
}

func TestFlattenTolerance(t *testing.T) {
	c := NewEllipse(0, 0, 100, 100)
	coarse := c.Flatten(1)
	fine := c.Flatten(0.01)
	assert.Less(t, len(coarse[0].Points), len(fine[0].Points))
	assert.InDelta(t, 2*math.Pi*100, c.Length(0.001), 0.5)
}
