package svgsimplify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"strings"
	"testing"

	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgstyle"
	"github.com/benoitkugler/microsvg/svgtext"
	"github.com/benoitkugler/microsvg/svgtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simplifyString(t *testing.T, content string, opts Options) (*svgtree.Tree, svgtree.Diagnostics) {
	t.Helper()
	src := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="100">` +
		content + `</svg>`
	tree, diags, err := FromReader(strings.NewReader(src), opts)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree, diags
}

// onlyPath returns the single path of the tree.
func onlyPath(t *testing.T, tree *svgtree.Tree) *svgtree.Path {
	t.Helper()
	require.Len(t, tree.Root.Children, 1)
	p, ok := tree.Root.Children[0].(*svgtree.Path)
	require.True(t, ok, "unexpected node %T", tree.Root.Children[0])
	return p
}

func TestRedRect(t *testing.T) {
	tree, diags := simplifyString(t, `<rect x="10" y="10" width="50" height="50" fill="red"/>`, Options{})
	assert.Empty(t, diags)
	assert.Equal(t, 100., tree.Width)
	assert.Equal(t, 100., tree.Height)

	p := onlyPath(t, tree)
	require.Len(t, p.Geometry, 1)
	assert.Len(t, p.Geometry[0].Segments, 4)
	assert.True(t, p.Geometry[0].Closed)
	require.NotNil(t, p.Fill)
	assert.Equal(t, svgtree.PlainColor{R: 255, A: 255}, p.Fill.Paint)
	assert.Nil(t, p.Stroke)
	assert.Equal(t, svgpath.Rect{X: 10, Y: 10, W: 50, H: 50}, p.BBox)
}

func TestDocumentSize(t *testing.T) {
	for _, test := range []struct {
		root  string
		w, h  float64
		vbBox svgpath.Rect
	}{
		{`width="200" height="100"`, 200, 100, svgpath.Rect{W: 200, H: 100}},
		{`viewBox="0 0 50 25"`, 50, 25, svgpath.Rect{W: 50, H: 25}},
		{`width="100" viewBox="0 0 50 25"`, 100, 50, svgpath.Rect{W: 50, H: 25}},
		{`width="100%" height="100%" viewBox="10 10 40 40"`, 40, 40, svgpath.Rect{X: 10, Y: 10, W: 40, H: 40}},
		{``, 100, 100, svgpath.Rect{W: 100, H: 100}},
	} {
		src := `<svg xmlns="http://www.w3.org/2000/svg" ` + test.root + `/>`
		tree, _, err := FromReader(strings.NewReader(src), Options{})
		require.NoError(t, err)
		assert.Equal(t, test.w, tree.Width, test.root)
		assert.Equal(t, test.h, tree.Height, test.root)
		assert.Equal(t, test.vbBox, tree.ViewBox, test.root)
	}
}

func TestObjectBoundingBoxGradient(t *testing.T) {
	tree, diags := simplifyString(t, `
	<linearGradient id="g">
		<stop offset="0" stop-color="red"/>
		<stop offset="1" stop-color="blue"/>
	</linearGradient>
	<rect x="10" y="10" width="20" height="20" fill="url(#g)"/>`, Options{})
	assert.Empty(t, diags)

	p := onlyPath(t, tree)
	require.NotNil(t, p.Fill)
	lg, ok := p.Fill.Paint.(*svgtree.LinearGradient)
	require.True(t, ok)
	start, end := lg.Absolute()
	assert.InDelta(t, 10, start.X, 1e-9)
	assert.InDelta(t, 10, start.Y, 1e-9)
	assert.InDelta(t, 30, end.X, 1e-9)
	assert.InDelta(t, 10, end.Y, 1e-9)
	require.Len(t, lg.Stops, 2)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, lg.Stops[1].Color)
}

func TestGradientStops(t *testing.T) {
	tree, _ := simplifyString(t, `
	<linearGradient id="g" gradientUnits="userSpaceOnUse">
		<stop offset="0.5" stop-color="red"/>
		<stop offset="0.2" stop-color="green"/>
		<stop offset="150%" stop-color="blue" stop-opacity="0.5"/>
	</linearGradient>
	<rect width="20" height="20" fill="url(#g)"/>`, Options{})
	lg := onlyPath(t, tree).Fill.Paint.(*svgtree.LinearGradient)
	var offsets []float64
	for _, s := range lg.Stops {
		offsets = append(offsets, s.Offset)
	}
	assert.Equal(t, []float64{0.5, 0.5, 1}, offsets)
	assert.Equal(t, 0.5, lg.Stops[2].Opacity)

	// no stop: none
	tree, _ = simplifyString(t, `<linearGradient id="g"/><rect width="20" height="20" fill="url(#g)"/>`, Options{})
	assert.Nil(t, onlyPath(t, tree).Fill)

	// one stop: plain color
	tree, _ = simplifyString(t, `<radialGradient id="g"><stop stop-color="lime"/></radialGradient>
	<rect width="20" height="20" fill="url(#g)"/>`, Options{})
	assert.Equal(t, svgtree.PlainColor{G: 255, A: 255}, onlyPath(t, tree).Fill.Paint)

	// empty bounding box
	tree, _ = simplifyString(t, `<linearGradient id="g"><stop stop-color="red"/><stop offset="1" stop-color="blue"/></linearGradient>
	<line x1="0" y1="10" x2="50" y2="10" stroke="url(#g)"/>`, Options{})
	assert.Nil(t, onlyPath(t, tree).Stroke)
}

func TestGradientInheritance(t *testing.T) {
	tree, diags := simplifyString(t, `
	<linearGradient id="base" spreadMethod="reflect">
		<stop offset="0" stop-color="red"/><stop offset="1" stop-color="blue"/>
	</linearGradient>
	<radialGradient id="g" xlink:href="#base" gradientUnits="userSpaceOnUse" cx="50" cy="50" r="10" fx="100" fy="50"/>
	<rect width="100" height="100" fill="url(#g)"/>`, Options{})
	assert.Empty(t, diags)
	rg, ok := onlyPath(t, tree).Fill.Paint.(*svgtree.RadialGradient)
	require.True(t, ok)
	assert.Len(t, rg.Stops, 2)
	assert.Equal(t, svgtree.ReflectSpread, rg.Spread)
	assert.Equal(t, 10., rg.R)
	// focal point moved on the circle
	assert.InDelta(t, 60, rg.FX, 1e-9)
	assert.InDelta(t, 50, rg.FY, 1e-9)
}

func TestPaintFallback(t *testing.T) {
	tree, diags := simplifyString(t, `<rect width="10" height="10" fill="url(#missing) green"/>`, Options{})
	assert.Empty(t, diags)
	assert.Equal(t, svgtree.PlainColor{G: 128, A: 255}, onlyPath(t, tree).Fill.Paint)

	tree, diags = simplifyString(t, `<rect width="10" height="10" fill="url(#missing)"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.UnresolvableReference))
	p := onlyPath(t, tree) // kept for its bounding box
	assert.Nil(t, p.Fill)
}

func TestStroke(t *testing.T) {
	tree, diags := simplifyString(t, `<path d="M0 0 L10 10" stroke="blue" stroke-width="4"
		stroke-linecap="round" stroke-linejoin="bevel" stroke-dasharray="1 2" stroke-miterlimit="0.5" fill="none"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.MalformedInput))
	p := onlyPath(t, tree)
	assert.Nil(t, p.Fill)
	require.NotNil(t, p.Stroke)
	assert.Equal(t, svgpath.StrokeStyle{
		Width:      4,
		Cap:        svgpath.RoundCap,
		Join:       svgpath.BevelJoin,
		MiterLimit: 4,
		Dash:       []float64{1, 2},
	}, p.Stroke.Style)
	assert.Greater(t, p.StrokeBBox.W, p.BBox.W)
}

func TestShapes(t *testing.T) {
	for _, test := range []struct {
		shape string
		bbox  svgpath.Rect
	}{
		{`<circle cx="50" cy="50" r="10"/>`, svgpath.Rect{X: 40, Y: 40, W: 20, H: 20}},
		{`<ellipse cx="50" cy="50" rx="10" ry="5"/>`, svgpath.Rect{X: 40, Y: 45, W: 20, H: 10}},
		{`<rect x="1" y="2" width="10" height="20" rx="2"/>`, svgpath.Rect{X: 1, Y: 2, W: 10, H: 20}},
		{`<polygon points="0,0 10,0 10,10"/>`, svgpath.Rect{W: 10, H: 10}},
		{`<polyline points="0,0 10,0 10,10 5"/>`, svgpath.Rect{W: 10, H: 10}},
		{`<path d="M10 10 h 10 v 10 z"/>`, svgpath.Rect{X: 10, Y: 10, W: 10, H: 10}},
	} {
		tree, _ := simplifyString(t, test.shape, Options{})
		p := onlyPath(t, tree)
		assert.InDelta(t, test.bbox.X, p.BBox.X, 1e-6, test.shape)
		assert.InDelta(t, test.bbox.Y, p.BBox.Y, 1e-6, test.shape)
		assert.InDelta(t, test.bbox.W, p.BBox.W, 1e-6, test.shape)
		assert.InDelta(t, test.bbox.H, p.BBox.H, 1e-6, test.shape)
	}

	// empty shapes are dropped
	for _, shape := range []string{
		`<rect width="0" height="10"/>`,
		`<circle r="0"/>`,
		`<ellipse rx="-1" ry="2"/>`,
		`<path d=""/>`,
		`<rect width="10" height="10" visibility="hidden"/>`,
		`<rect width="10" height="10" display="none"/>`,
	} {
		tree, _ := simplifyString(t, shape, Options{})
		assert.Empty(t, tree.Root.Children, shape)
	}
}

func TestReduce(t *testing.T) {
	content := `<g transform="translate(10 0)"><g transform="scale(2)"><rect width="10" height="10"/></g></g><g/>`
	tree, _ := simplifyString(t, content, Options{})
	p := onlyPath(t, tree)
	assert.Equal(t, svgpath.Identity.Translate(10, 0).Scale(2, 2), p.Transform)
	assert.Equal(t, svgpath.Rect{X: 10, W: 20, H: 20}, tree.Root.BBox)

	tree, _ = simplifyString(t, content, Options{KeepGroups: true})
	require.Len(t, tree.Root.Children, 2)
	_, isGroup := tree.Root.Children[0].(*svgtree.Group)
	assert.True(t, isGroup)

	// groups with an id or an opacity are kept
	tree, _ = simplifyString(t, `<g id="layer"><rect width="10" height="10"/></g><g opacity="0.5"><rect width="10" height="10"/></g>`, Options{})
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "layer", tree.Root.Children[0].Common().ID)
	assert.Equal(t, 0.5, tree.Root.Children[1].Common().Opacity)
	assert.NotNil(t, tree.NodeByID("layer"))
}

func TestSwitch(t *testing.T) {
	content := `<switch>
		<rect systemLanguage="fr" width="10" height="10" fill="blue"/>
		<rect systemLanguage="en-US, de" width="10" height="10" fill="red"/>
		<rect width="10" height="10" fill="green"/>
	</switch>`
	tree, _ := simplifyString(t, content, Options{})
	assert.Equal(t, svgtree.PlainColor{R: 255, A: 255}, onlyPath(t, tree).Fill.Paint)

	tree, _ = simplifyString(t, content, Options{Languages: []string{"fr-CA"}})
	assert.Equal(t, svgtree.PlainColor{B: 255, A: 255}, onlyPath(t, tree).Fill.Paint)

	tree, _ = simplifyString(t, content, Options{Languages: []string{"it"}})
	assert.Equal(t, svgtree.PlainColor{G: 128, A: 255}, onlyPath(t, tree).Fill.Paint)

	tree, _ = simplifyString(t, `<rect requiredExtensions="http://example.org/ext" width="10" height="10"/>`, Options{})
	assert.Empty(t, tree.Root.Children)
}

func TestClipPath(t *testing.T) {
	tree, diags := simplifyString(t, `
	<clipPath id="c" clipPathUnits="objectBoundingBox">
		<rect width="0.5" height="1" fill="none" clip-rule="evenodd"/>
		<g><rect width="1" height="1"/></g>
	</clipPath>
	<rect x="10" y="10" width="20" height="20" clip-path="url(#c)"/>`, Options{})
	assert.False(t, diags.Has(svgtree.UnresolvableReference))

	p := onlyPath(t, tree)
	require.NotNil(t, p.Clip)
	assert.Equal(t, svgpath.Identity.Translate(10, 10).Scale(20, 20), p.Clip.Transform)
	require.Len(t, p.Clip.Root.Children, 1)
	cp := p.Clip.Root.Children[0].(*svgtree.Path)
	require.NotNil(t, cp.Fill)
	assert.Equal(t, svgpath.EvenOdd, cp.Fill.Rule)
	assert.Equal(t, svgtree.PlainColor{A: 255}, cp.Fill.Paint)

	_, m, ok := p.Clip.SinglePath()
	assert.True(t, ok)
	assert.Equal(t, p.Clip.Transform, m)
}

func TestClipPathChainAndCycles(t *testing.T) {
	tree, diags := simplifyString(t, `
	<clipPath id="a" clip-path="url(#b)"><rect width="50" height="50"/></clipPath>
	<clipPath id="b"><circle cx="25" cy="25" r="25"/></clipPath>
	<clipPath id="self" clip-path="url(#self)"><rect width="50" height="50"/></clipPath>
	<rect width="100" height="100" clip-path="url(#a)"/>
	<rect width="100" height="100" clip-path="url(#self)"/>
	<rect width="100" height="100" clip-path="url(#missing)"/>`, Options{})
	require.Len(t, tree.Root.Children, 3)

	chained := tree.Root.Children[0].Common().Clip
	require.NotNil(t, chained)
	require.NotNil(t, chained.Clip)
	assert.Nil(t, chained.Clip.Clip)

	self := tree.Root.Children[1].Common().Clip
	require.NotNil(t, self)
	assert.Nil(t, self.Clip)

	assert.Nil(t, tree.Root.Children[2].Common().Clip)
	assert.Equal(t, 2, diags.Count(svgtree.UnresolvableReference))
}

func TestMask(t *testing.T) {
	tree, diags := simplifyString(t, `
	<mask id="m"><rect width="100" height="100" fill="white"/></mask>
	<rect width="10" height="10" mask="url(#m)"/>`, Options{})
	assert.Empty(t, diags)
	m := onlyPath(t, tree).Mask
	require.NotNil(t, m)
	assert.InDelta(t, -1, m.Rect.X, 1e-9)
	assert.InDelta(t, -1, m.Rect.Y, 1e-9)
	assert.InDelta(t, 12, m.Rect.W, 1e-9)
	assert.InDelta(t, 12, m.Rect.H, 1e-9)
	assert.Len(t, m.Root.Children, 1)

	// a mask whose content uses the mask
	tree, diags = simplifyString(t, `
	<mask id="m"><rect width="100" height="100" fill="white" mask="url(#m)"/></mask>
	<rect width="10" height="10" mask="url(#m)"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.UnresolvableReference))
	m = onlyPath(t, tree).Mask
	require.NotNil(t, m)
	assert.Nil(t, m.Root.Children[0].Common().Mask)
}

// countNodes counts the nodes of n, including the content of its masks.
func countNodes(n svgtree.Node) int {
	count := 1
	if m := n.Common().Mask; m != nil && m.Root != nil {
		count += countNodes(m.Root)
	}
	if g, ok := n.(*svgtree.Group); ok {
		for _, child := range g.Children {
			count += countNodes(child)
		}
	}
	return count
}

func TestMaskFanOut(t *testing.T) {
	// each mask holds four elements masked by the next one:
	// the expanded tree would have 4^12 elements
	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, `<mask id="m%d">`, i)
		for j := 0; j < 4; j++ {
			if i < 11 {
				fmt.Fprintf(&b, `<rect width="100" height="100" fill="white" mask="url(#m%d)"/>`, i+1)
			} else {
				b.WriteString(`<rect width="100" height="100" fill="white"/>`)
			}
		}
		b.WriteString(`</mask>`)
	}
	b.WriteString(`<rect width="10" height="10" mask="url(#m0)"/>`)

	tree, diags := simplifyString(t, b.String(), Options{Options: svgstyle.Options{MaxNodes: 500}})
	assert.Equal(t, 1, diags.Count(svgtree.ResourceLimitExceeded))
	// converted elements, plus one group per mask
	assert.LessOrEqual(t, countNodes(tree.Root), 2*500+1)
}

func TestFilter(t *testing.T) {
	tree, diags := simplifyString(t, `
	<filter id="f">
		<feGaussianBlur stdDeviation="2 3" result="blur"/>
		<feOffset in="unknown" dx="5"/>
		<feFlood flood-color="red" flood-opacity="0.5" result="blur"/>
		<feComposite in="SourceGraphic" in2="blur" operator="arithmetic" k2="1"/>
		<feMerge><feMergeNode in="SourceAlpha"/><feMergeNode/></feMerge>
		<feDiffuseLighting/>
	</filter>
	<rect width="100" height="50" filter="url(#f)"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.MalformedInput))
	assert.Equal(t, 1, diags.Count(svgtree.UnsupportedFeature))

	f := onlyPath(t, tree).Filter
	require.NotNil(t, f)
	assert.InDelta(t, -10, f.Rect.X, 1e-9)
	assert.InDelta(t, -5, f.Rect.Y, 1e-9)
	assert.InDelta(t, 120, f.Rect.W, 1e-9)
	assert.InDelta(t, 60, f.Rect.H, 1e-9)
	require.Len(t, f.Primitives, 6)

	assert.Equal(t, svgtree.FeGaussianBlur{In: svgtree.Input{Kind: svgtree.SourceGraphic}, StdDevX: 2, StdDevY: 3}, f.Primitives[0].Kind)
	assert.Equal(t, svgtree.LinearRGB, f.Primitives[0].ColorSpace)
	assert.Equal(t, svgtree.FeOffset{In: svgtree.Input{Kind: svgtree.Reference, Name: "result1"}, DX: 5}, f.Primitives[1].Kind)

	comp := f.Primitives[3].Kind.(svgtree.FeComposite)
	// the latest primitive named "blur" is the flood
	assert.Equal(t, svgtree.Input{Kind: svgtree.Reference, Name: "result3"}, comp.In2)
	assert.Equal(t, svgtree.CompositeArithmetic, comp.Operator)
	assert.Equal(t, 1., comp.K2)

	merge := f.Primitives[4].Kind.(svgtree.FeMerge)
	assert.Equal(t, []svgtree.Input{
		{Kind: svgtree.SourceAlpha},
		{Kind: svgtree.Reference, Name: "result4"},
	}, merge.In)
	assert.IsType(t, svgtree.FePassThrough{}, f.Primitives[5].Kind)

	// results are unique
	seen := map[string]bool{}
	for _, p := range f.Primitives {
		assert.False(t, seen[p.Result])
		seen[p.Result] = true
	}
}

func TestFilterLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<filter id="f">`)
	for i := 0; i < 10; i++ {
		b.WriteString(`<feOffset dx="1"/>`)
	}
	b.WriteString(`</filter><rect width="10" height="10" filter="url(#f)"/>`)
	tree, diags := simplifyString(t, b.String(), Options{MaxFilterPrimitives: 4})
	assert.Equal(t, 1, diags.Count(svgtree.ResourceLimitExceeded))
	assert.Len(t, onlyPath(t, tree).Filter.Primitives, 4)

	// the filtered element has no bounding box: empty region
	tree, _ = simplifyString(t, `<filter id="f"><feFlood/></filter><g filter="url(#f)"/>`, Options{})
	require.Len(t, tree.Root.Children, 1)
	f := tree.Root.Children[0].Common().Filter
	require.NotNil(t, f)
	assert.True(t, f.Rect.IsEmpty())
}

func TestTurbulence(t *testing.T) {
	tree, diags := simplifyString(t, `<filter id="f" primitiveUnits="objectBoundingBox">
		<feTurbulence baseFrequency="2 4" numOctaves="100000000"/>
	</filter>
	<rect width="40" height="20" filter="url(#f)"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.ResourceLimitExceeded))

	f := onlyPath(t, tree).Filter
	require.NotNil(t, f)
	require.Len(t, f.Primitives, 1)
	turb := f.Primitives[0].Kind.(svgtree.FeTurbulence)
	assert.Equal(t, maxOctaves, turb.NumOctaves)
	// frequencies are converted to user space
	assert.InDelta(t, 0.05, turb.BaseFrequencyX, 1e-12)
	assert.InDelta(t, 0.2, turb.BaseFrequencyY, 1e-12)
}

func TestColorMatrix(t *testing.T) {
	tree, _ := simplifyString(t, `
	<filter id="f">
		<feColorMatrix type="saturate" values="1"/>
		<feColorMatrix type="hueRotate" values="0"/>
		<feColorMatrix type="matrix" values="1 2 3"/>
	</filter>
	<rect width="10" height="10" filter="url(#f)"/>`, Options{})
	f := onlyPath(t, tree).Filter
	for _, p := range f.Primitives {
		m := p.Kind.(svgtree.FeColorMatrix).Matrix
		for i, v := range m {
			assert.InDelta(t, identityColorMatrix[i], v, 1e-3)
		}
	}
}

func TestPattern(t *testing.T) {
	tree, diags := simplifyString(t, `
	<pattern id="p" width="10" height="10" patternUnits="userSpaceOnUse" patternTransform="rotate(45)">
		<circle cx="5" cy="5" r="3" fill="green"/>
	</pattern>
	<pattern id="q" xlink:href="#p"/>
	<rect width="100" height="100" fill="url(#q)"/>`, Options{})
	assert.Empty(t, diags)
	pat, ok := onlyPath(t, tree).Fill.Paint.(*svgtree.Pattern)
	require.True(t, ok)
	assert.Equal(t, svgpath.Rect{W: 10, H: 10}, pat.Rect)
	assert.Equal(t, svgtree.UserSpaceOnUse, pat.Units)
	assert.False(t, pat.Transform.IsIdentity())
	require.NotNil(t, pat.Content)
	assert.Len(t, pat.Content.Children, 1)

	// self referencing content
	_, diags = simplifyString(t, `
	<pattern id="p" width="10" height="10" patternUnits="userSpaceOnUse">
		<rect width="5" height="5" fill="url(#p)"/>
	</pattern>
	<rect width="100" height="100" fill="url(#p)"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.UnresolvableReference))
}

func TestNestedSVGClipsBBox(t *testing.T) {
	tree, _ := simplifyString(t, `<g id="g"><svg width="20" height="20"><rect width="100" height="100"/></svg></g>`, Options{})
	g := tree.NodeByID("g")
	require.NotNil(t, g)
	assert.Equal(t, svgpath.Rect{W: 20, H: 20}, g.Common().BBox)
	assert.Equal(t, svgpath.Rect{W: 20, H: 20}, tree.Root.BBox)
}

func TestNestedSVG(t *testing.T) {
	tree, _ := simplifyString(t, `<svg x="10" y="10" width="20" height="20" viewBox="0 0 10 10">
		<rect width="10" height="10"/></svg>`, Options{})
	require.Len(t, tree.Root.Children, 1)
	outer := tree.Root.Children[0].(*svgtree.Group)
	require.NotNil(t, outer.Clip)
	assert.Equal(t, svgpath.Rect{X: 10, Y: 10, W: 20, H: 20}, outer.BBox)

	tree, _ = simplifyString(t, `<svg width="20" height="20" overflow="visible"><rect width="50" height="50"/></svg>`, Options{})
	p := onlyPath(t, tree)
	assert.Nil(t, p.Clip)
}

func TestUnsupported(t *testing.T) {
	_, diags := simplifyString(t, `<style>rect { fill: red }</style><foreignObject/><path d="M0 0 L 10 10" marker-end="url(#m)"/>`, Options{})
	assert.Equal(t, 3, diags.Count(svgtree.UnsupportedFeature))
}

func TestText(t *testing.T) {
	tree, diags := simplifyString(t, `<text x="10" y="50" font-size="20" fill="blue">  Hi   there </text>`, Options{})
	assert.Empty(t, diags)
	p := onlyPath(t, tree)
	assert.Equal(t, svgtree.PlainColor{B: 255, A: 255}, p.Fill.Paint)
	assert.GreaterOrEqual(t, p.BBox.X, 10.)
	assert.InDelta(t, 50, p.BBox.MaxY(), 6) // baseline, with descenders
	assert.Less(t, p.BBox.Y, 50.)

	tree, _ = simplifyString(t, `<text x="10" y="50" font-size="20" text-anchor="end">Hi</text>`, Options{})
	p = onlyPath(t, tree)
	assert.LessOrEqual(t, p.BBox.MaxX(), 10.)

	// one path per styled run
	tree, _ = simplifyString(t, `<text x="0" y="20">A<tspan fill="red" dy="5">B</tspan></text>`, Options{})
	require.Len(t, tree.Root.Children, 1)
	g := tree.Root.Children[0].(*svgtree.Group)
	assert.Len(t, g.Children, 2)
	assert.Greater(t, g.Children[1].Common().BBox.MaxY(), g.Children[0].Common().BBox.MaxY())
}

type noFonts struct{}

func (noFonts) Glyphs(q svgtext.Query, text []rune) (svgtext.Run, bool) { return svgtext.Run{}, false }

func TestTextNoFont(t *testing.T) {
	tree, diags := simplifyString(t, `<text x="10" y="50">Hello</text>`, Options{Fonts: noFonts{}})
	assert.Equal(t, 1, diags.Count(svgtree.UnsupportedFeature))
	assert.Empty(t, tree.Root.Children)
}

func pngDataURL(t *testing.T, w, h int) string {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImage(t *testing.T) {
	href := pngDataURL(t, 4, 2)
	tree, diags := simplifyString(t, `<image x="10" y="10" width="40" href="`+href+`"/>`, Options{})
	assert.Empty(t, diags)
	require.Len(t, tree.Root.Children, 1)
	img, ok := tree.Root.Children[0].(*svgtree.Image)
	require.True(t, ok)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, svgpath.Rect{X: 10, Y: 10, W: 40, H: 20}, img.Viewport)
	assert.Equal(t, svgpath.Rect{X: 10, Y: 10, W: 40, H: 20}, img.Rect)
	assert.True(t, img.Smooth)

	// nested svg image
	svgHref := "data:image/svg+xml," + url.PathEscape(
		`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	tree, diags = simplifyString(t, `<image width="20" height="20" href="`+svgHref+`"/>`, Options{})
	assert.Empty(t, diags)
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, svgpath.Rect{W: 20, H: 20}, tree.Root.BBox)

	// external images need a resolver
	_, diags = simplifyString(t, `<image width="20" height="20" href="photo.png"/>`, Options{})
	assert.Equal(t, 1, diags.Count(svgtree.UnresolvableReference))

	var asked string
	resolver := func(href string) ([]byte, error) {
		asked = href
		raw, err := parseDataURLString(pngDataURL(t, 2, 2))
		return raw, err
	}
	tree, diags = simplifyString(t, `<image width="20" height="20" href="photo.png"/>`, Options{Images: resolver})
	assert.Empty(t, diags)
	assert.Equal(t, "photo.png", asked)
	assert.Len(t, tree.Root.Children, 1)
}

func parseDataURLString(href string) ([]byte, error) {
	data, _, err := parseDataURL(href)
	return data, err
}

func TestDataURL(t *testing.T) {
	data, mediaType, err := parseDataURL("data:text/plain;charset=utf-8,a%20b")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mediaType)
	assert.Equal(t, "a b", string(data))

	data, _, err = parseDataURL("data:;base64,aGVs\nbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, _, err = parseDataURL("data:image/png;base64")
	assert.Error(t, err)
}
