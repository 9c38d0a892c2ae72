package svgstyle

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraw"
	"github.com/benoitkugler/microsvg/svgtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolveString returns the diagnostics by pointer: values are
// parsed, and reported, when they are read from the nodes.
func resolveString(t *testing.T, src string, opts Options) (*Node, Index, *svgtree.Diagnostics) {
	t.Helper()
	doc, err := svgraw.Read(strings.NewReader(src))
	require.NoError(t, err)
	diags := new(svgtree.Diagnostics)
	root, index := Resolve(doc, opts, diags)
	require.NotNil(t, root)
	return root, index, diags
}

func TestLengths(t *testing.T) {
	ctx := UnitContext{DPI: 96, FontSize: 10, ViewportWidth: 200, ViewportHeight: 100}
	for _, test := range []struct {
		in   string
		axis Axis
		exp  float64
	}{
		{"12", Horizontal, 12},
		{"12px", Horizontal, 12},
		{"1in", Horizontal, 96},
		{"2.54cm", Horizontal, 96},
		{"72pt", Horizontal, 96},
		{"6pc", Horizontal, 96},
		{"25.4mm", Vertical, 96},
		{"2em", Horizontal, 20},
		{"2ex", Horizontal, 10},
		{"50%", Horizontal, 100},
		{"50%", Vertical, 50},
		{"100%", Diagonal, math.Sqrt(200*200+100*100) / math.Sqrt2},
		{"-1.5e1", Horizontal, -15},
	} {
		l, err := ParseLength(test.in)
		require.NoError(t, err, test.in)
		assert.InDelta(t, test.exp, l.Resolve(ctx, test.axis), 1e-9, test.in)
	}
	for _, bad := range []string{"", "px", "12qq", "1..2"} {
		_, err := ParseLength(bad)
		assert.Error(t, err, bad)
	}
}

func TestColors(t *testing.T) {
	current := color.NRGBA{1, 2, 3, 255}
	for _, test := range []struct {
		in  string
		exp color.NRGBA
	}{
		{"red", color.NRGBA{255, 0, 0, 255}},
		{"  LightGray ", color.NRGBA{211, 211, 211, 255}},
		{"#f00", color.NRGBA{255, 0, 0, 255}},
		{"#00Ff80", color.NRGBA{0, 255, 128, 255}},
		{"rgb(10, 20, 300)", color.NRGBA{10, 20, 255, 255}},
		{"rgb(100%, 50%, 0%)", color.NRGBA{255, 128, 0, 255}},
		{"rgba(0, 0, 255, 0.5)", color.NRGBA{0, 0, 255, 128}},
		{"hsl(120, 100%, 50%)", color.NRGBA{0, 255, 0, 255}},
		{"currentColor", current},
		{"transparent", color.NRGBA{}},
	} {
		c, err := ParseColor(test.in, current)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.exp, c, test.in)
	}
	for _, bad := range []string{"", "#12", "#ggg", "rgb(1,2)", "notacolor", "url(#a)"} {
		_, err := ParseColor(bad, current)
		assert.Error(t, err, bad)
	}
}

func TestPaints(t *testing.T) {
	p, err := ParsePaint("url(#grad) #00ff00", color.NRGBA{})
	require.NoError(t, err)
	assert.Equal(t, Paint{Kind: PaintURL, URL: "grad", Color: color.NRGBA{0, 255, 0, 255}, HasFallback: true}, p)

	p, err = ParsePaint("url('#grad') none", color.NRGBA{})
	require.NoError(t, err)
	assert.True(t, p.FallbackNone)

	p, err = ParsePaint("none", color.NRGBA{})
	require.NoError(t, err)
	assert.Equal(t, PaintNone, p.Kind)

	_, err = ParsePaint("url(grad)", color.NRGBA{})
	assert.Error(t, err)
}

func TestTransforms(t *testing.T) {
	m, err := ParseTransform("translate(10,20) scale(2)")
	require.NoError(t, err)
	assert.Equal(t, svgpath.Point{X: 12, Y: 22}, m.Transform(svgpath.Point{X: 1, Y: 1}))

	m, err = ParseTransform("rotate(90, 10 10)")
	require.NoError(t, err)
	p := m.Transform(svgpath.Point{X: 20, Y: 10})
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 20, p.Y, 1e-9)

	m, err = ParseTransform("matrix(1 0 0 1 5 6), skewX(0)")
	require.NoError(t, err)
	assert.Equal(t, svgpath.Identity.Translate(5, 6), m)

	m, err = ParseTransform("scale(1,2,3)")
	assert.Error(t, err)
	assert.Equal(t, svgpath.Identity, m)
	_, err = ParseTransform("shear(2)")
	assert.Error(t, err)
}

func TestViewBoxTransform(t *testing.T) {
	vb, err := ParseViewBox("0 0 10 20")
	require.NoError(t, err)
	viewport := svgpath.Rect{W: 100, H: 100}

	m := DefaultAspectRatio.ViewBoxTransform(vb, viewport) // scale 5, centered horizontally
	assert.Equal(t, svgpath.Point{X: 25, Y: 0}, m.Transform(svgpath.Point{}))
	assert.Equal(t, svgpath.Point{X: 75, Y: 100}, m.Transform(svgpath.Point{X: 10, Y: 20}))

	ar, err := ParseAspectRatio("xMinYMax slice") // scale 10
	require.NoError(t, err)
	m = ar.ViewBoxTransform(vb, viewport)
	assert.Equal(t, svgpath.Point{X: 0, Y: -100}, m.Transform(svgpath.Point{}))

	ar, err = ParseAspectRatio("none")
	require.NoError(t, err)
	m = ar.ViewBoxTransform(vb, viewport)
	assert.Equal(t, svgpath.Point{X: 100, Y: 100}, m.Transform(svgpath.Point{X: 10, Y: 20}))

	_, err = ParseViewBox("0 0 -1 10")
	assert.Error(t, err)
	_, err = ParseAspectRatio("xMidYMid cover")
	assert.Error(t, err)
}

func TestInheritance(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100" font-size="10">
		<g fill="red" opacity="0.5" stroke-width="2em" font-size="2em" color="blue">
			<rect id="r" width="50%" height="50%" stroke="currentColor" fill-opacity="150%"/>
			<rect id="i" fill="inherit" opacity="inherit" font-size="larger"/>
			<rect id="bad" x="12qq" fill="#12"/>
		</g>
	</svg>`
	_, index, diags := resolveString(t, src, Options{})
	r := index["r"]
	require.NotNil(t, r)
	assert.Equal(t, "red", r.Prop("fill"))
	assert.Equal(t, "1", r.Prop("opacity")) // not inherited
	assert.Equal(t, 20., r.FontSize)
	assert.Equal(t, 40., r.Length("stroke-width", Diagonal, 1)) // specified on g, in g's font size
	assert.Equal(t, 100., r.Length("width", Horizontal, 0))
	assert.Equal(t, 50., r.Length("height", Vertical, 0))
	assert.Equal(t, 1., r.Opacity("fill-opacity"))
	assert.Equal(t, Paint{Kind: PaintColor, Color: color.NRGBA{0, 0, 255, 255}}, r.Paint("stroke"))

	i := index["i"]
	assert.Equal(t, "0.5", i.Prop("opacity"))
	assert.Equal(t, 24., i.FontSize)

	bad := index["bad"]
	assert.Equal(t, 7., bad.Length("x", Horizontal, 7))
	assert.Equal(t, PaintNone, bad.Paint("fill").Kind)
	assert.Equal(t, 2, diags.Count(svgtree.MalformedInput))
}

func TestUseExpansion(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="100">
		<defs>
			<rect id="r" width="10" height="10"/>
			<symbol id="s" viewBox="0 0 10 10"><circle id="c" r="5"/></symbol>
		</defs>
		<use id="u1" xlink:href="#r" x="5" y="6" transform="scale(2)" fill="green"/>
		<use id="u2" href="#s" width="50"/>
	</svg>`
	root, index, diags := resolveString(t, src, Options{})
	assert.Empty(t, diags)

	u1 := index["u1"]
	assert.Equal(t, "g", u1.Tag)
	assert.True(t, u1.FromUse())
	assert.Equal(t, svgpath.Point{X: 10, Y: 12}, u1.Transform("transform").Transform(svgpath.Point{}))
	require.Len(t, u1.Children, 1)
	clone := u1.Children[0]
	assert.Equal(t, "rect", clone.Tag)
	assert.Equal(t, "green", clone.Prop("fill"))
	assert.Same(t, index["r"].Elem, clone.Elem)
	assert.NotSame(t, index["r"], clone) // the index keeps the original

	u2 := index["u2"]
	require.Len(t, u2.Children, 1)
	sym := u2.Children[0]
	assert.Equal(t, "svg", sym.Tag)
	w, _ := sym.Attr("width")
	h, _ := sym.Attr("height")
	assert.Equal(t, "50", w)
	assert.Equal(t, "100%", h)

	assert.Equal(t, "symbol", index["s"].Tag)
	assert.Len(t, root.Children, 3)
}

func TestUseCycles(t *testing.T) {
	for n := 1; n <= 5; n++ {
		var b strings.Builder
		b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg">`)
		for i := 0; i < n; i++ { // g0 -> g1 -> ... -> g0
			fmt.Fprintf(&b, `<g id="g%d"><use href="#g%d"/></g>`, i, (i+1)%n)
		}
		b.WriteString(`</svg>`)

		_, _, diags := resolveString(t, b.String(), Options{})
		assert.True(t, diags.Has(svgtree.UnresolvableReference), "cycle of length %d", n)
		assert.False(t, diags.Has(svgtree.ResourceLimitExceeded))
	}

	_, index, diags := resolveString(t, `<svg xmlns="http://www.w3.org/2000/svg"><use id="self" href="#self"/></svg>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.UnresolvableReference))
	assert.Empty(t, index["self"].Children)
}

func TestUseLimits(t *testing.T) {
	// each level uses the previous one twice: the expansion is exponential
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg"><defs><rect id="l0" width="1" height="1"/>`)
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, `<g id="l%d"><use href="#l%d"/><use href="#l%d"/></g>`, i, i-1, i-1)
	}
	b.WriteString(`</defs><use href="#l30"/></svg>`)

	_, _, diags := resolveString(t, b.String(), Options{MaxNodes: 10000})
	assert.True(t, diags.Has(svgtree.ResourceLimitExceeded))

	_, _, diags = resolveString(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g id="a"><use href="#b"/></g><g id="b"><use href="#c"/></g><g id="c"><rect/></g>
		<use href="#a"/></svg>`, Options{MaxUseDepth: 2})
	assert.Equal(t, 1, diags.Count(svgtree.ResourceLimitExceeded))
}
