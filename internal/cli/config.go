package cli

import (
	"fmt"
	"image/color"

	"github.com/BurntSushi/toml"

	"github.com/benoitkugler/microsvg/svgdraw"
	"github.com/benoitkugler/microsvg/svgsimplify"
	"github.com/benoitkugler/microsvg/svgstyle"
)

// backend is the output format. The empty value selects
// it from the output file extension.
type backend string

const (
	backendAuto   backend = ""
	backendRaster backend = "raster"
	backendPDF    backend = "pdf"
)

// config gathers the settings which may be given in a TOML file.
// Command line flags override them.
type config struct {
	Backend    backend             `toml:"backend"`
	Background string              `toml:"background"`
	Simplify   svgsimplify.Options `toml:"simplify"`
	Render     svgdraw.Options     `toml:"render"`
}

func defaultConfig() config {
	return config{
		Simplify: svgsimplify.DefaultOptions(),
		Render:   svgdraw.DefaultOptions(),
	}
}

// loadConfig reads the file at path over the defaults.
// An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return cfg, fmt.Errorf("reading config: unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}

// validate checks the values which are not checked by the decoder,
// and resolves the background color.
func (cfg *config) validate() error {
	switch cfg.Backend {
	case backendAuto, backendRaster, backendPDF:
	default:
		return fmt.Errorf("invalid backend %q (expected raster or pdf)", cfg.Backend)
	}
	cfg.Render.Background = color.NRGBA{}
	if cfg.Background != "" {
		c, err := svgstyle.ParseColor(cfg.Background, color.NRGBA{A: 255})
		if err != nil {
			return fmt.Errorf("invalid background: %w", err)
		}
		cfg.Render.Background = c
	}
	return nil
}
