package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgpath"
	"github.com/benoitkugler/microsvg/svgpdf"
	"github.com/benoitkugler/microsvg/svgraster"
	"github.com/benoitkugler/microsvg/svgraw"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgtree"
)

var errMissingOutput = errors.New("missing output file")

// run is one invocation of the command.
type run struct {
	cfg    config
	f      flags
	logger *log.Logger
	timer  *timer

	stdin  io.Reader
	stdout io.Writer
}

// newRun merges the configuration file and the flags which
// have been set on the command line.
func newRun(cmd *cobra.Command, f flags, stderr io.Writer) (*run, error) {
	logger := newLogger(stderr, logLevel(f.verbose, f.quiet))
	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	switch {
	case changed("width"):
		cfg.Render.Fit = svgdraw.Fit{Kind: svgdraw.FitWidth, Value: f.width}
	case changed("height"):
		cfg.Render.Fit = svgdraw.Fit{Kind: svgdraw.FitHeight, Value: f.height}
	case changed("zoom"):
		cfg.Render.Fit = svgdraw.Fit{Kind: svgdraw.FitZoom, Value: f.zoom}
	}
	if changed("dpi") {
		cfg.Simplify.DPI = f.dpi
	}
	if changed("background") {
		cfg.Background = f.background
	}
	if changed("backend") {
		cfg.Backend = backend(f.backend)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Render.Fit.Kind != svgdraw.FitOriginal && !(cfg.Render.Fit.Value > 0) {
		return nil, fmt.Errorf("invalid %s value %g", cfg.Render.Fit.Kind, cfg.Render.Fit.Value)
	}
	return &run{cfg: cfg, f: f, logger: logger, timer: newTimer(logger, f.perf)}, nil
}

// fileResolver loads the images referenced by relative or file URLs,
// relative to dir.
func fileResolver(dir string) svgsimplify.ImageResolver {
	return func(href string) ([]byte, error) {
		path := href
		if u, err := url.Parse(href); err == nil && u.Scheme != "" {
			if u.Scheme != "file" {
				return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
			}
			path = u.Path
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return os.ReadFile(path)
	}
}

func (r *run) readTree(input string) (*svgtree.Tree, error) {
	var (
		in  = r.stdin
		dir = "."
	)
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		in, dir = file, filepath.Dir(input)
	}
	doc, err := svgraw.Read(in)
	if err != nil {
		return nil, err
	}
	r.timer.step("parsing")

	opts := r.cfg.Simplify
	opts.Images = fileResolver(dir)
	tree, diags := svgsimplify.Simplify(doc, opts)
	r.timer.step("simplifying")
	r.logger.Debug("simplified", "input", input, "width", tree.Width, "height", tree.Height, "diagnostics", len(diags))
	return tree, nil
}

func (r *run) execute(args []string) error {
	output := ""
	if len(args) == 2 {
		output = args[1]
	}
	if output == "" && !r.f.pretend && !r.f.queryAll && r.f.dumpSVG == "" {
		return errMissingOutput
	}

	tree, err := r.readTree(args[0])
	if err != nil {
		return err
	}

	if r.f.dumpSVG != "" {
		if err := writeFile(r.f.dumpSVG, r.stdout, func(w io.Writer) error {
			_, err := tree.WriteTo(w)
			return err
		}); err != nil {
			return err
		}
	}
	if r.f.queryAll {
		if err := r.query(tree); err != nil {
			return err
		}
	}
	if output == "" && !r.f.pretend {
		return nil
	}

	save, err := r.render(tree, output)
	if err != nil {
		return err
	}
	if r.f.pretend {
		return nil
	}
	if err := writeFile(output, r.stdout, save); err != nil {
		return err
	}
	r.timer.step("saving")
	return nil
}

// query prints the bounding box of every element with an id,
// in the coordinates of the output image.
func (r *run) query(tree *svgtree.Tree) error {
	w, h := r.cfg.Render.Fit.Size(tree.Width, tree.Height)
	sx, sy := float64(w)/tree.Width, float64(h)/tree.Height
	var err error
	svgtree.Walk(tree.Root, svgpath.Identity, func(n svgtree.Node, _ svgpath.Matrix2D) bool {
		id := n.Common().ID
		if id == "" || err != nil {
			return err == nil
		}
		bbox, ok := svgdraw.NodeBBox(tree, n)
		if !ok {
			r.logger.Debug("no bounding box", "id", id)
			return true
		}
		bbox = bbox.Transform(svgpath.Identity.Scale(sx, sy))
		_, err = fmt.Fprintf(r.stdout, "%s,%s,%s,%s,%s\n", id,
			svgpath.FormatFloat(bbox.X), svgpath.FormatFloat(bbox.Y),
			svgpath.FormatFloat(bbox.W), svgpath.FormatFloat(bbox.H))
		return true
	})
	return err
}

// render draws the tree (or the exported node) and returns
// the function writing the result.
func (r *run) render(tree *svgtree.Tree, output string) (func(io.Writer) error, error) {
	var node svgtree.Node
	w, h := r.cfg.Render.Fit.Size(tree.Width, tree.Height)
	if id := r.f.exportID; id != "" {
		node = tree.NodeByID(id)
		if node == nil {
			return nil, fmt.Errorf("no element with id %q", id)
		}
		bbox, ok := svgdraw.NodeBBox(tree, node)
		if !ok || bbox.IsEmpty() {
			return nil, fmt.Errorf("element %q has an empty bounding box", id)
		}
		w, h = r.cfg.Render.Fit.Size(bbox.W, bbox.H)
	}

	var (
		canvas svgdraw.Canvas
		save   func(io.Writer) error
	)
	kind := r.cfg.Backend
	if kind == backendAuto {
		kind = backendRaster
		if isPDF(output) {
			kind = backendPDF
		}
	}
	switch kind {
	case backendPDF:
		c := svgpdf.NewDocument(w, h)
		canvas, save = c, c.Output
	default:
		c := svgraster.NewCanvas(w, h)
		canvas, save = c, c.WritePNG
	}

	var diags svgtree.Diagnostics
	if node != nil {
		diags = svgdraw.RenderNode(tree, node, canvas, r.cfg.Render)
	} else {
		diags = svgdraw.Render(tree, canvas, r.cfg.Render)
	}
	r.timer.step("rendering")
	r.logger.Debug("rendered", "backend", kind, "width", w, "height", h, "diagnostics", len(diags))
	return save, nil
}

// writeFile calls write on the named file, or on stdout for "-".
func writeFile(name string, stdout io.Writer, write func(io.Writer) error) error {
	if name == "-" {
		return write(stdout)
	}
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(name), err)
	}
	return file.Close()
}

// isPDF returns true for file names with a .pdf extension.
func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
