package cli

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/microsvg/svgdraw"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10">
	<rect id="left" width="10" height="10" fill="red"/>
	<g id="group" transform="translate(10 0)"><rect id="right" width="5" height="5" fill="blue"/></g>
</svg>`

func writeInput(t *testing.T) (dir, input string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "in.svg")
	require.NoError(t, os.WriteFile(input, []byte(testSVG), 0o644))
	return dir, input
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRenderPNG(t *testing.T) {
	dir, input := writeInput(t)
	output := filepath.Join(dir, "out.png")
	_, _, err := execute(t, input, output, "-z", "2", "--background", "white")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, color.NRGBAModel.Convert(img.At(5, 5)))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, color.NRGBAModel.Convert(img.At(35, 15)))
}

func TestHeightShorthand(t *testing.T) {
	dir, input := writeInput(t)
	output := filepath.Join(dir, "out.png")
	_, _, err := execute(t, input, output, "-h", "20")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "--height")
}

func TestRenderPDF(t *testing.T) {
	dir, input := writeInput(t)
	output := filepath.Join(dir, "out.pdf")
	_, _, err := execute(t, input, output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderStdout(t *testing.T) {
	_, input := writeInput(t)
	stdout, _, err := execute(t, input, "-", "--backend", "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "%PDF-"))
}

func TestExportID(t *testing.T) {
	dir, input := writeInput(t)
	output := filepath.Join(dir, "out.png")
	_, _, err := execute(t, input, output, "--export-id", "right")
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	_, _, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), b)

	_, _, err = execute(t, input, output, "--export-id", "missing")
	assert.Error(t, err)
}

func TestQueryAll(t *testing.T) {
	_, input := writeInput(t)
	stdout, _, err := execute(t, input, "--query-all", "-w", "40")
	require.NoError(t, err)
	assert.Equal(t, "left,0,0,20,20\ngroup,20,0,10,10\nright,20,0,10,10\n", stdout)
}

func TestDumpSVG(t *testing.T) {
	_, input := writeInput(t)
	stdout, _, err := execute(t, input, "--dump-svg", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<svg")
	assert.Contains(t, stdout, `id="left"`)
}

func TestPretend(t *testing.T) {
	_, input := writeInput(t)
	stdout, _, err := execute(t, input, "--pretend", "--perf", "-v")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestInvalidArgs(t *testing.T) {
	_, input := writeInput(t)

	_, _, err := execute(t, input)
	assert.ErrorIs(t, err, errMissingOutput)

	_, _, err = execute(t, input, "out.png", "-w", "10", "-z", "2")
	assert.Error(t, err)

	_, _, err = execute(t, input, "out.png", "--backend", "svg")
	assert.Error(t, err)

	_, _, err = execute(t, input, "out.png", "--background", "notacolor")
	assert.Error(t, err)

	_, _, err = execute(t, filepath.Join(t.TempDir(), "missing.svg"), "out.png")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend = "pdf"
background = "#00ff00"

[simplify]
dpi = 72
font_size = 16

[render]
tolerance = 0.5
[render.fit]
kind = "zoom"
value = 3
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.validate())
	assert.Equal(t, backendPDF, cfg.Backend)
	assert.Equal(t, 72., cfg.Simplify.DPI)
	assert.Equal(t, 16., cfg.Simplify.FontSize)
	assert.Equal(t, 0.5, cfg.Render.Tolerance)
	assert.Equal(t, svgdraw.Fit{Kind: svgdraw.FitZoom, Value: 3}, cfg.Render.Fit)
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, cfg.Render.Background)
	// defaults are kept
	assert.Equal(t, svgdraw.DefaultOptions().MaxDepth, cfg.Render.MaxDepth)

	require.NoError(t, os.WriteFile(path, []byte(`unknown = 1`), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[render.fit]
kind = "stretch"`), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestFileResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("data"), 0o644))
	resolve := fileResolver(dir)

	data, err := resolve("a.png")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	data, err = resolve("file://" + filepath.ToSlash(filepath.Join(dir, "a.png")))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	_, err = resolve("https://example.com/a.png")
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, log.WarnLevel, logLevel(false, false))
	assert.Equal(t, log.DebugLevel, logLevel(true, false))
	assert.Equal(t, log.ErrorLevel, logLevel(false, true))
}
