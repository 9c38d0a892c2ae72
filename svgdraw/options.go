package svgdraw

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
)

// FitKind selects how the output size is computed.
type FitKind uint8

const (
	FitOriginal FitKind = iota // keep the document size
	FitWidth                   // scale to a given width
	FitHeight                  // scale to a given height
	FitZoom                    // scale by a factor
)

var fitNames = [...]string{FitOriginal: "original", FitWidth: "width", FitHeight: "height", FitZoom: "zoom"}

func (f FitKind) String() string {
	if int(f) < len(fitNames) {
		return fitNames[f]
	}
	return "<unknown FitKind>"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FitKind) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range fitNames {
		if name == s {
			*f = FitKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid fit kind %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (f FitKind) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Fit describes the output size.
type Fit struct {
	Kind  FitKind `toml:"kind"`
	Value float64 `toml:"value"` // width, height or zoom factor
}

// Size returns the output size, in pixels, for a content
// of size w x h. It is never smaller than 1 x 1.
func (f Fit) Size(w, h float64) (width, height int) {
	sx, sy := w, h
	switch f.Kind {
	case FitWidth:
		if w > 0 {
			sx, sy = f.Value, h*f.Value/w
		}
	case FitHeight:
		if h > 0 {
			sx, sy = w*f.Value/h, f.Value
		}
	case FitZoom:
		sx, sy = w*f.Value, h*f.Value
	}
	clamp := func(v float64) int {
		if !(v >= 1) || math.IsInf(v, 0) {
			return 1
		}
		return int(math.Ceil(v - 1e-9))
	}
	return clamp(sx), clamp(sy)
}

// Options tunes the rendering.
type Options struct {
	Fit Fit `toml:"fit"`
	// Background, if not transparent, is filled before rendering.
	Background color.NRGBA `toml:"-"`
	// Tolerance is the maximum error allowed when flattening and
	// stroking, in device pixels.
	Tolerance float64 `toml:"tolerance"`
	// MaxDepth bounds the nesting of groups, clips, masks
	// and patterns.
	MaxDepth int `toml:"max_depth"`
	// MaxFilterPixels is the maximum area of a filter region;
	// larger filters are not applied.
	MaxFilterPixels int `toml:"max_filter_pixels"`
	// MaxTileSize bounds the size of the pattern tiles, in pixels.
	MaxTileSize int `toml:"max_tile_size"`
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Tolerance:       svgpath.DefaultTolerance,
		MaxDepth:        256,
		MaxFilterPixels: 1 << 24,
		MaxTileSize:     2048,
	}
}

func (opts *Options) setDefaults() {
	def := DefaultOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxFilterPixels <= 0 {
		opts.MaxFilterPixels = def.MaxFilterPixels
	}
	if opts.MaxTileSize <= 0 {
		opts.MaxTileSize = def.MaxTileSize
	}
}
