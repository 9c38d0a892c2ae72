package svgpdf

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgtree"
)

func output(t *testing.T, c *Canvas) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Output(&buf))
	return buf.Bytes()
}

func TestDocument(t *testing.T) {
	c := NewDocument(100, 50)
	w, h := c.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.True(t, c.Capabilities().NativeStroke)

	c.Fill(svgpath.Rect{W: 10, H: 10}.Path(), svgpath.NonZero, svgdraw.ColorPaint(color.NRGBA{255, 0, 0, 255}))
	out := output(t, c)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestLayerReplay(t *testing.T) {
	c := NewDocument(10, 10)
	c.PushLayer()
	c.PushLayer()
	c.Fill(svgpath.Rect{W: 10, H: 10}.Path(), svgpath.NonZero, svgdraw.ColorPaint(color.NRGBA{255, 0, 0, 255}))
	assert.Len(t, c.layers[1], 1, "operations are recorded")

	c.PopLayer(svgtree.BlendMultiply, 0.5)
	assert.Len(t, c.layers, 1)
	assert.Len(t, c.layers[0], 1)

	var got []state
	c.layers[0] = append(c.layers[0], func(st state) { got = append(got, st) })
	c.PushLayer()
	c.emit(func(st state) { got = append(got, st) })
	c.PopLayer(svgtree.BlendScreen, 0.5)
	c.PopLayer(svgtree.BlendNormal, 0.5)

	require.Len(t, got, 2)
	assert.Equal(t, state{alpha: 0.5, blend: "Normal"}, got[0])
	assert.Equal(t, state{alpha: 0.25, blend: "Screen"}, got[1])
	assert.Empty(t, c.layers)

	c.PopLayer(svgtree.BlendNormal, 1) // unbalanced: ignored
	output(t, c)
}

func TestAverageColor(t *testing.T) {
	g := &svgtree.LinearGradient{Gradient: svgtree.Gradient{Stops: []svgtree.GradientStop{
		{Offset: 0, Color: color.NRGBA{0, 0, 255, 255}, Opacity: 1},
		{Offset: 1, Color: color.NRGBA{255, 0, 0, 255}, Opacity: 0},
	}}}
	col, opacity := averageColor(svgdraw.Paint{Linear: g, Opacity: 0.8})
	assert.Equal(t, color.NRGBA{0, 0, 255, 127}, col)
	assert.Equal(t, 0.8, opacity)

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{128, 0, 0, 128})
	assert.Equal(t, color.NRGBA{255, 0, 0, 64}, averageImage(img))
	assert.Equal(t, color.NRGBA{}, averageImage(image.NewRGBA(image.Rect(0, 0, 2, 2))))
}

func TestPolygon(t *testing.T) {
	pts, ok := polygon(svgpath.Rect{X: 1, Y: 1, W: 2, H: 2}.Path(), svgpath.Identity.Scale(2, 2))
	require.True(t, ok)
	assert.Len(t, pts, 4)
	assert.Equal(t, 2., pts[0].X)

	two := svgpath.Rect{W: 1, H: 1}.Path()
	two.Append(svgpath.Rect{X: 2, W: 1, H: 1}.Path())
	_, ok = polygon(two, svgpath.Identity)
	assert.False(t, ok)
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="60" height="40">
	<defs>
		<linearGradient id="l"><stop offset="0" stop-color="red"/><stop offset="1" stop-color="blue"/></linearGradient>
		<radialGradient id="r"><stop offset="0" stop-color="white"/><stop offset="1" stop-color="green"/></radialGradient>
		<pattern id="p" width="4" height="4" patternUnits="userSpaceOnUse"><circle cx="2" cy="2" r="1"/></pattern>
		<clipPath id="c"><rect width="30" height="30"/></clipPath>
	</defs>
	<g opacity="0.7" style="mix-blend-mode: multiply">
		<rect width="20" height="20" fill="url(#l)" stroke="black" stroke-dasharray="3 1"/>
		<circle cx="40" cy="10" r="8" fill="url(#r)"/>
	</g>
	<rect y="20" width="60" height="20" fill="url(#p)" clip-path="url(#c)"/>
	<path d="M0 0 L60 40" stroke="orange" stroke-width="2" stroke-linecap="round" transform="skewX(10)"/>
</svg>`

func TestRenderSVGToPDF(t *testing.T) {
	var buf bytes.Buffer
	_, err := RenderSVGToPDF(strings.NewReader(testSVG), &buf, svgsimplify.DefaultOptions(), svgdraw.Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	_, err = RenderSVGToPDF(strings.NewReader("<svg"), &buf, svgsimplify.DefaultOptions(), svgdraw.Options{})
	assert.Error(t, err)
}

func TestUnsupportedEffects(t *testing.T) {
	var buf bytes.Buffer
	diags, err := RenderSVGToPDF(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">
		<filter id="f"><feGaussianBlur stdDeviation="1"/></filter>
		<rect width="5" height="5" filter="url(#f)"/></svg>`), &buf, svgsimplify.DefaultOptions(), svgdraw.Options{})
	require.NoError(t, err)
	assert.True(t, diags.Has(svgtree.UnsupportedFeature))
}
