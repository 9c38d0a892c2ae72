package svgdraw_test

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgraster"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgtree"
)

func parse(t *testing.T, svg string) *svgtree.Tree {
	t.Helper()
	tree, _, err := svgsimplify.FromReader(strings.NewReader(svg), svgsimplify.DefaultOptions())
	require.NoError(t, err)
	return tree
}

func render(t *testing.T, svg string, opts svgdraw.Options) (*image.RGBA, svgtree.Diagnostics) {
	t.Helper()
	tree := parse(t, svg)
	w, h := opts.Fit.Size(tree.Width, tree.Height)
	canvas := svgraster.NewCanvas(w, h)
	diags := svgdraw.Render(tree, canvas, opts)
	return canvas.RGBA(), diags
}

const svgHeader = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="20" height="20">`

func TestRenderRect(t *testing.T) {
	img, diags := render(t, svgHeader+`<rect width="10" height="20" fill="red"/></svg>`, svgdraw.Options{})
	assert.Empty(t, diags)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(15, 5))
}

func TestRenderViewBox(t *testing.T) {
	img, _ := render(t, `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 2 2">
		<rect width="1" height="1" fill="blue"/></svg>`, svgdraw.Options{})
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).B)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 15).A)
}

func TestRenderNestedOpacity(t *testing.T) {
	img, _ := render(t, svgHeader+`<g opacity="0.5"><g opacity="0.5">
		<rect width="20" height="20" fill="red" stroke="blue" stroke-width="4"/>
		</g></g></svg>`, svgdraw.Options{})
	assert.InDelta(t, 64, float64(img.RGBAAt(10, 10).A), 2)
}

func TestRenderOverlapOpacity(t *testing.T) {
	// the group is composited once: overlapping children do not accumulate
	img, _ := render(t, svgHeader+`<g opacity="0.5">
		<rect width="20" height="20" fill="red"/><rect width="20" height="20" fill="red"/>
		</g></svg>`, svgdraw.Options{})
	assert.InDelta(t, 128, float64(img.RGBAAt(10, 10).A), 2)
}

func TestRenderDeterministic(t *testing.T) {
	const svg = svgHeader + `<defs><radialGradient id="g"><stop offset="0" stop-color="white"/><stop offset="1" stop-color="navy"/></radialGradient></defs>
		<circle cx="10" cy="10" r="8" fill="url(#g)" stroke="black" stroke-dasharray="2 1"/></svg>`
	a, _ := render(t, svg, svgdraw.Options{})
	b, _ := render(t, svg, svgdraw.Options{})
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRenderBackground(t *testing.T) {
	img, _ := render(t, svgHeader+`</svg>`, svgdraw.Options{Background: color.NRGBA{0, 255, 0, 255}})
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(3, 17))
}

func TestRenderClip(t *testing.T) {
	img, _ := render(t, svgHeader+`<clipPath id="c"><rect width="10" height="10"/><rect x="10" y="10" width="10" height="10"/></clipPath>
		<rect width="20" height="20" fill="red" clip-path="url(#c)"/></svg>`, svgdraw.Options{})
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(255), img.RGBAAt(15, 15).A)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 15).A)
}

func TestRenderMask(t *testing.T) {
	img, _ := render(t, svgHeader+`<mask id="m" maskUnits="userSpaceOnUse" x="0" y="0" width="20" height="20">
		<rect width="10" height="20" fill="white"/><rect x="10" width="10" height="20" fill="black"/></mask>
		<rect width="20" height="20" fill="red" mask="url(#m)"/></svg>`, svgdraw.Options{})
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 5).A)
}

func TestRenderFilterFlood(t *testing.T) {
	img, _ := render(t, svgHeader+`<filter id="f"><feFlood flood-color="lime"/></filter>
		<rect x="5" y="5" width="10" height="10" fill="red" filter="url(#f)"/></svg>`, svgdraw.Options{})
	// default region extends by 10% on each side
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(4, 4))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, uint8(0), img.RGBAAt(2, 2).A)
}

func TestRenderFilterBlur(t *testing.T) {
	img, _ := render(t, svgHeader+`<filter id="f" x="-1" y="-1" width="3" height="3"><feGaussianBlur stdDeviation="2"/></filter>
		<rect x="8" y="8" width="4" height="4" fill="black" filter="url(#f)"/></svg>`, svgdraw.Options{})
	center, edge := img.RGBAAt(10, 10).A, img.RGBAAt(6, 10).A
	assert.Less(t, center, uint8(255))
	assert.Greater(t, edge, uint8(0))
	assert.Greater(t, center, edge)
}

func TestRenderFilterLimit(t *testing.T) {
	img, diags := render(t, svgHeader+`<filter id="f"><feFlood flood-color="lime"/></filter>
		<rect x="5" y="5" width="10" height="10" fill="red" filter="url(#f)"/></svg>`, svgdraw.Options{MaxFilterPixels: 4})
	assert.True(t, diags.Has(svgtree.ResourceLimitExceeded))
	// drawn without filter
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(10, 10))
}

func TestRenderFilterHugeParameters(t *testing.T) {
	for _, primitive := range []string{
		`<feGaussianBlur stdDeviation="200000"/>`,
		`<feGaussianBlur stdDeviation="1e12 3"/>`,
		`<feMorphology operator="dilate" radius="1e12"/>`,
		`<feMorphology radius="1e12"/>`,
	} {
		_, diags := render(t, svgHeader+`<filter id="f">`+primitive+`</filter>
		<rect x="5" y="5" width="10" height="10" fill="red" filter="url(#f)"/></svg>`, svgdraw.Options{})
		assert.True(t, diags.Has(svgtree.ResourceLimitExceeded), primitive)
	}

	img, _ := render(t, svgHeader+`<filter id="f"><feMorphology operator="dilate" radius="1e12"/></filter>
		<rect x="5" y="5" width="10" height="10" fill="red" filter="url(#f)"/></svg>`, svgdraw.Options{})
	// the whole filter region is dilated
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(4, 4))
}

func TestRenderPattern(t *testing.T) {
	img, _ := render(t, svgHeader+`<pattern id="p" patternUnits="userSpaceOnUse" width="4" height="4">
		<rect width="2" height="2" fill="red"/></pattern>
		<rect width="8" height="8" fill="url(#p)"/></svg>`, svgdraw.Options{})
	assert.Equal(t, uint8(255), img.RGBAAt(1, 1).A)
	assert.Equal(t, uint8(0), img.RGBAAt(3, 1).A)
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(10, 10).A)
}

func TestRenderFit(t *testing.T) {
	img, _ := render(t, svgHeader+`<rect width="10" height="10" fill="red"/></svg>`,
		svgdraw.Options{Fit: svgdraw.Fit{Kind: svgdraw.FitWidth, Value: 40}})
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Rect)
	assert.Equal(t, uint8(255), img.RGBAAt(15, 15).A)
	assert.Equal(t, uint8(0), img.RGBAAt(25, 25).A)
}

func TestRenderNode(t *testing.T) {
	tree := parse(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
		<g transform="translate(10 0)"><rect id="r" x="10" y="10" width="5" height="5" fill="red"/></g></svg>`)
	node := tree.NodeByID("r")
	require.NotNil(t, node)

	bbox, ok := svgdraw.NodeBBox(tree, node)
	require.True(t, ok)
	assert.InDelta(t, 20, bbox.X, 1e-6)
	assert.InDelta(t, 10, bbox.Y, 1e-6)
	assert.InDelta(t, 5, bbox.W, 1e-6)

	canvas := svgraster.NewCanvas(10, 10)
	svgdraw.RenderNode(tree, node, canvas, svgdraw.Options{})
	img := canvas.RGBA()
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), img.RGBAAt(9, 9).A)
}

func TestNodeBBoxClipped(t *testing.T) {
	tree := parse(t, svgHeader+`<clipPath id="cp"><rect x="2" y="3" width="5" height="5"/></clipPath>
		<rect id="r" width="100" height="100" clip-path="url(#cp)"/></svg>`)
	node := tree.NodeByID("r")
	require.NotNil(t, node)
	bbox, ok := svgdraw.NodeBBox(tree, node)
	require.True(t, ok)
	assert.InDelta(t, 2, bbox.X, 1e-6)
	assert.InDelta(t, 3, bbox.Y, 1e-6)
	assert.InDelta(t, 5, bbox.W, 1e-6)
	assert.InDelta(t, 5, bbox.H, 1e-6)
}

func TestFitSize(t *testing.T) {
	for _, test := range []struct {
		fit  svgdraw.Fit
		w, h float64
		W, H int
	}{
		{svgdraw.Fit{}, 100, 50, 100, 50},
		{svgdraw.Fit{}, 10.2, 0.3, 11, 1},
		{svgdraw.Fit{Kind: svgdraw.FitWidth, Value: 200}, 100, 50, 200, 100},
		{svgdraw.Fit{Kind: svgdraw.FitHeight, Value: 25}, 100, 50, 50, 25},
		{svgdraw.Fit{Kind: svgdraw.FitZoom, Value: 1.5}, 100, 50, 150, 75},
		{svgdraw.Fit{Kind: svgdraw.FitZoom, Value: 0}, 100, 50, 1, 1},
	} {
		W, H := test.fit.Size(test.w, test.h)
		assert.Equal(t, test.W, W, test.fit)
		assert.Equal(t, test.H, H, test.fit)
	}
}

func TestFitKindText(t *testing.T) {
	var k svgdraw.FitKind
	require.NoError(t, k.UnmarshalText([]byte(" Zoom")))
	assert.Equal(t, svgdraw.FitZoom, k)
	b, err := k.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zoom", string(b))
	assert.Error(t, k.UnmarshalText([]byte("stretch")))
}

// recorder is a canvas without pixel access.
type recorder struct {
	fills, strokes, clips int
	transforms            []svgpath.Matrix2D
}

func (r *recorder) Capabilities() svgdraw.Capabilities                      { return svgdraw.Capabilities{} }
func (r *recorder) Size() (int, int)                                        { return 20, 20 }
func (r *recorder) SetTransform(m svgpath.Matrix2D)                         { r.transforms = append(r.transforms, m) }
func (r *recorder) Fill(svgpath.Path, svgpath.FillRule, svgdraw.Paint)      { r.fills++ }
func (r *recorder) Stroke(svgpath.Path, svgpath.StrokeStyle, svgdraw.Paint) { r.strokes++ }
func (r *recorder) DrawImage(image.Image, svgpath.Rect, bool)               {}
func (r *recorder) PushClip(svgpath.Path, svgpath.FillRule)                 { r.clips++ }
func (r *recorder) PopClip()                                                {}
func (r *recorder) PushLayer()                                              {}
func (r *recorder) PopLayer(svgtree.BlendMode, float64)                     {}
func (r *recorder) NewOffscreen(w, h int) svgdraw.Canvas                    { return &recorder{} }

func TestRenderVectorCanvas(t *testing.T) {
	tree := parse(t, svgHeader+`<clipPath id="c"><circle cx="10" cy="10" r="5"/></clipPath>
		<mask id="m"><rect width="20" height="20" fill="white"/></mask>
		<rect width="10" height="10" fill="red" stroke="black" clip-path="url(#c)"/>
		<rect width="10" height="10" fill="red" mask="url(#m)"/></svg>`)
	rec := &recorder{}
	diags := svgdraw.Render(tree, rec, svgdraw.Options{})

	assert.True(t, diags.Has(svgtree.UnsupportedFeature), "mask needs pixel access")
	assert.Equal(t, 1, rec.clips)
	assert.Equal(t, 0, rec.strokes, "strokes are converted to outlines")
	assert.GreaterOrEqual(t, rec.fills, 3)
}
