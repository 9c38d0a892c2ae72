package svgraw

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="ISO-8859-1"?>
<!DOCTYPE svg [ <!ENTITY main_color "#00ff00"> ]>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"
	xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape" width="100" height="50">
	<inkscape:perspective id="ignored"><rect/></inkscape:perspective>
	<rect id="r" fill="red" stroke="&main_color;" style="fill: blue ; stroke-width:2;bogus:1" inkscape:label="x"/>
	<use xlink:href="#r" x="10"/>
	<text x="1"> Hello <tspan>world</tspan></text>
	<g style="opacity:0.5 !important; opacity: 1"/>
</svg>`

func TestRead(t *testing.T) {
	doc, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	root := doc.Root
	assert.Equal(t, "svg", root.Tag)
	require.Len(t, root.Children, 4) // foreign element and blank text removed

	rect := root.Children[0]
	assert.Equal(t, "rect#r", rect.Location())
	assert.Len(t, rect.Attrs, 4) // the inkscape label is dropped
	style := doc.Style(rect)
	assert.Equal(t, "blue", style["fill"])
	assert.Equal(t, "#00ff00", style["stroke"])
	assert.Equal(t, "2", style["stroke-width"])
	_, ok := style["bogus"]
	assert.False(t, ok)

	use := root.Children[1]
	href, ok := use.Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "#r", href)

	text := root.Children[2]
	require.Len(t, text.Children, 2)
	assert.Equal(t, " Hello ", text.Children[0].Text)
	assert.Equal(t, " Hello world", text.TextContent())

	assert.Equal(t, "0.5", doc.Style(root.Children[3])["opacity"])
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(`<html></html>`))
	assert.True(t, errors.Is(err, ErrNoSVG))

	_, err = Read(strings.NewReader(``))
	assert.True(t, errors.Is(err, ErrNoSVG))

	_, err = Read(strings.NewReader(`<svg><rect></svg>`))
	assert.Error(t, err)
}
