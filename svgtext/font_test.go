package svgtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, []string{"Times New Roman", "serif"}, ParseFamilies(` "Times New Roman", serif ,`))
	assert.Equal(t, 700, ParseWeight("bold", 400))
	assert.Equal(t, 900, ParseWeight("bolder", 700))
	assert.Equal(t, 100, ParseWeight("lighter", 400))
	assert.Equal(t, 300, ParseWeight("300", 400))
	assert.Equal(t, 400, ParseWeight("heavy", 700))
	assert.Equal(t, StyleItalic, ParseStyle("italic"))
	assert.Equal(t, StyleNormal, ParseStyle("slanted"))
}

func TestGoFonts(t *testing.T) {
	run, ok := GoFonts.Glyphs(Query{Families: []string{"sans-serif"}, Weight: 400, Size: 20}, []rune("Hi !"))
	require.True(t, ok)
	require.Len(t, run.Glyphs, 4)
	assert.Greater(t, run.Ascent, 10.)
	assert.Greater(t, run.Descent, 0.)

	h := run.Glyphs[0]
	assert.Equal(t, 'H', h.Rune)
	assert.Greater(t, h.Advance, 5.)
	assert.False(t, h.Outline.IsEmpty())
	bounds, ok := h.Outline.Bounds()
	require.True(t, ok)
	assert.Less(t, bounds.Y, 0.) // above the baseline
	assert.InDelta(t, 0, bounds.MaxY(), 0.5)
	for _, sp := range h.Outline {
		assert.True(t, sp.Closed)
	}

	assert.True(t, run.Glyphs[2].Outline.IsEmpty()) // space
	assert.Greater(t, run.Glyphs[2].Advance, 0.)

	mono, ok := GoFonts.Glyphs(Query{Families: []string{"monospace"}, Size: 20}, []rune("il"))
	require.True(t, ok)
	assert.InDelta(t, mono.Glyphs[0].Advance, mono.Glyphs[1].Advance, 1e-9)

	_, ok = GoFonts.Glyphs(Query{Size: 0}, []rune("a"))
	assert.False(t, ok)
	_, ok = GoFonts.Glyphs(Query{Size: 10}, []rune("\U0001F600"))
	assert.False(t, ok)
}
