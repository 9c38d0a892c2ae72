// Package cli implements the rendersvg command-line interface.
//
// rendersvg reads an SVG file, simplifies it and renders it as a PNG
// image or a PDF page. Settings come from an optional TOML file
// (--config), overridden by the command line flags. Diagnostics
// are logged to stderr with charmbracelet/log.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// flags holds the command line settings.
type flags struct {
	config     string
	width      float64
	height     float64
	zoom       float64
	dpi        float64
	background string
	backend    string
	exportID   string
	queryAll   bool
	dumpSVG    string
	pretend    bool
	perf       bool
	verbose    bool
	quiet      bool
}

// newRootCmd returns the rendersvg command, writing its
// results to stdout and its logs to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "rendersvg [flags] in.svg [out.png|out.pdf]",
		Short: "Render SVG files to PNG or PDF",
		Long: `rendersvg simplifies an SVG document (resolving styles, references and text)
and renders it with a raster or a PDF backend. Use "-" for the standard
input or output.`,
		Version:       version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRun(cmd, f, stderr)
			if err != nil {
				return err
			}
			r.stdout = stdout
			r.stdin = cmd.InOrStdin()
			return r.execute(args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(fmt.Sprintf("rendersvg %s\ncommit: %s\n", version, commit))

	fl := cmd.Flags()
	// -h is the height: the help flag has no shorthand
	fl.Bool("help", false, "help for rendersvg")
	fl.StringVar(&f.config, "config", "", "TOML configuration file")
	fl.Float64VarP(&f.width, "width", "w", 0, "output width, in pixels (keeps the aspect ratio)")
	fl.Float64VarP(&f.height, "height", "h", 0, "output height, in pixels (keeps the aspect ratio)")
	fl.Float64VarP(&f.zoom, "zoom", "z", 0, "zoom factor")
	fl.Float64Var(&f.dpi, "dpi", 0, "resolution used to convert absolute units (default 96)")
	fl.StringVar(&f.background, "background", "", "background color (e.g. white, #ff000080)")
	fl.StringVar(&f.backend, "backend", "", "output backend: raster or pdf (default raster)")
	fl.StringVar(&f.exportID, "export-id", "", "render only the element with this id")
	fl.BoolVar(&f.queryAll, "query-all", false, "print the bounding boxes of the elements with an id, as id,x,y,w,h")
	fl.StringVar(&f.dumpSVG, "dump-svg", "", "write the simplified SVG to this file")
	fl.BoolVar(&f.pretend, "pretend", false, "render without saving the output")
	fl.BoolVar(&f.perf, "perf", false, "print the time spent in each step")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
	cmd.MarkFlagsMutuallyExclusive("width", "height", "zoom")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	return cmd
}

// Execute runs the rendersvg command.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}
