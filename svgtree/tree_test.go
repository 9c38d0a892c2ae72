package svgtree

import (
	"bytes"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redSquare(x, y, size float64) *Path {
	return &Path{
		Base:     NewBase(),
		Geometry: svgpath.NewRect(x, y, size, size, 0, 0),
		Fill:     &Fill{Paint: PlainColor{255, 0, 0, 255}, Opacity: 1},
	}
}

func sampleTree() *Tree {
	inner := &Group{Base: NewBase(), Children: []Node{redSquare(0, 0, 10)}}
	inner.Transform = svgpath.Identity.Translate(20, 0)
	inner.ID = "inner"
	root := &Group{Base: NewBase(), Children: []Node{redSquare(0, 0, 10), inner}}
	return &Tree{Width: 40, Height: 20, ViewBox: svgpath.Rect{W: 40, H: 20}, Root: root}
}

func TestComputeBBoxes(t *testing.T) {
	tree := sampleTree()
	ComputeBBoxes(tree.Root, svgpath.DefaultTolerance)
	require.True(t, tree.Root.HasBBox)
	assert.Equal(t, svgpath.Rect{X: 0, Y: 0, W: 30, H: 10}, tree.Root.BBox)

	stroked := redSquare(0, 0, 10)
	stroked.Stroke = &Stroke{Paint: PlainColor{A: 255}, Opacity: 1, Style: svgpath.DefaultStrokeStyle}
	stroked.Stroke.Style.Width = 2
	ComputeBBoxes(stroked, svgpath.DefaultTolerance)
	assert.Equal(t, svgpath.Rect{X: 0, Y: 0, W: 10, H: 10}, stroked.BBox)
	assert.InDelta(t, -1, stroked.StrokeBBox.X, 1e-6)
	assert.InDelta(t, 12, stroked.StrokeBBox.W, 1e-6)

	empty := &Group{Base: NewBase()}
	ComputeBBoxes(empty, svgpath.DefaultTolerance)
	assert.False(t, empty.HasBBox)
}

func TestClippedBBoxes(t *testing.T) {
	clip := &ClipPath{
		Transform: svgpath.Identity.Translate(5, 5),
		Root:      &Group{Base: NewBase(), Children: []Node{redSquare(0, 0, 10)}},
	}
	ComputeBBoxes(clip.Root, svgpath.DefaultTolerance)
	big := redSquare(0, 0, 100)
	big.Clip = clip
	g := &Group{Base: NewBase(), Children: []Node{big}}
	ComputeBBoxes(g, svgpath.DefaultTolerance)
	require.True(t, g.HasBBox)
	assert.Equal(t, svgpath.Rect{X: 5, Y: 5, W: 10, H: 10}, g.BBox)
	assert.Equal(t, svgpath.Rect{X: 5, Y: 5, W: 10, H: 10}, g.StrokeBBox)
	// the node itself keeps its geometric bounding box
	assert.Equal(t, svgpath.Rect{W: 100, H: 100}, big.BBox)

	// an empty clip hides the child
	big.Clip = &ClipPath{Transform: svgpath.Identity, Root: &Group{Base: NewBase()}}
	ComputeBBoxes(g, svgpath.DefaultTolerance)
	assert.False(t, g.HasBBox)
}

func TestNodeByID(t *testing.T) {
	tree := sampleTree()
	n := tree.NodeByID("inner")
	require.NotNil(t, n)
	assert.Equal(t, "inner", n.Common().ID)
	assert.Nil(t, tree.NodeByID("missing"))
}

func TestClipSinglePath(t *testing.T) {
	square := redSquare(0, 0, 10)
	square.Transform = svgpath.Identity.Scale(2, 2)
	cp := &ClipPath{Transform: svgpath.Identity.Translate(5, 0), Root: &Group{Base: NewBase(), Children: []Node{square}}}
	p, m, ok := cp.SinglePath()
	require.True(t, ok)
	assert.Equal(t, square, p)
	assert.Equal(t, svgpath.Point{X: 25, Y: 20}, m.Transform(svgpath.Point{X: 10, Y: 10}))

	cp.Root.Children = append(cp.Root.Children, redSquare(0, 0, 1))
	_, _, ok = cp.SinglePath()
	assert.False(t, ok)
}

func TestDiagnosticsLogged(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	var ds Diagnostics
	ds.Add(UnresolvableReference, "use#a", "dangling reference to %q", "b")
	ds.Add(MalformedInput, "", "bad number")
	assert.Equal(t, 1, ds.Count(UnresolvableReference))
	assert.True(t, ds.Has(MalformedInput))
	assert.False(t, ds.Has(ResourceLimitExceeded))
	assert.Contains(t, buf.String(), "dangling reference")
	assert.Contains(t, ds.String(), "unresolvable reference: use#a")
}

func TestBlendModeNames(t *testing.T) {
	for _, name := range []string{"normal", "multiply", "color-dodge", "luminosity"} {
		mode, ok := ParseBlendMode(name)
		assert.True(t, ok)
		assert.Equal(t, name, mode.String())
	}
	_, ok := ParseBlendMode("destination-in") // not a mix-blend-mode value
	assert.False(t, ok)
	assert.True(t, BlendMultiply.IsSeparable())
	assert.False(t, BlendHue.IsSeparable())
}

func TestWriteMicroSVG(t *testing.T) {
	tree := sampleTree()
	grad := &LinearGradient{
		Gradient: Gradient{
			Stops:     []GradientStop{{Offset: 0, Color: color.NRGBA{0, 0, 255, 255}, Opacity: 1}, {Offset: 1, Color: color.NRGBA{0, 255, 0, 255}, Opacity: 0.5}},
			Transform: svgpath.Identity,
		},
		X2: 10,
	}
	p := redSquare(0, 0, 5)
	p.Fill.Paint = grad
	p.Fill.Rule = svgpath.EvenOdd
	p.Stroke = &Stroke{Paint: PlainColor{0, 0, 0, 255}, Opacity: 0.5, Style: svgpath.DefaultStrokeStyle}
	p.Stroke.Style.Dash = []float64{1, 2}
	tree.Root.Children = append(tree.Root.Children, p)
	tree.Root.Filter = &Filter{
		Rect: svgpath.Rect{W: 40, H: 20},
		Primitives: []FilterPrimitive{
			{Result: "r0", Kind: FeGaussianBlur{In: Input{Kind: SourceGraphic}, StdDevX: 2, StdDevY: 2}},
			{Result: "r1", Kind: FeMerge{In: []Input{{Kind: Reference, Name: "r0"}, {Kind: SourceGraphic}}}},
		},
	}

	var buf bytes.Buffer
	n, err := tree.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	out := buf.String()
	for _, exp := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20">`,
		`d="M0,0 L10,0 L10,10 L0,10 Z"`,
		`fill="#ff0000"`,
		`id="inner" transform="matrix(1 0 0 1 20 0)"`,
		`fill-rule="evenodd"`,
		`stroke-opacity="0.5"`,
		`stroke-dasharray="1 2"`,
		`<linearGradient x1="0" y1="0" x2="10" y2="0">`,
		`stop-opacity="0.5"`,
		`<feGaussianBlur x="0" y="0" width="0" height="0" result="r0" color-interpolation-filters="linearRGB" in="SourceGraphic" stdDeviation="2 2">`,
		`<feMergeNode in="r0">`,
	} {
		assert.Contains(t, out, exp)
	}
	assert.NotContains(t, out, "url(")
	assert.Equal(t, 1, strings.Count(out, "<linearGradient"))
}
