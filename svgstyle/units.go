// Package svgstyle resolves the cascaded styles of a raw SVG document:
// it computes the inherited properties, converts relative units to
// absolute user units, parses the attribute values and expands the
// use elements.
package svgstyle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errParamMismatch = errors.New("param mismatch")
	errEmptyValue    = errors.New("empty value")
)

// Unit is the unit of a length.
type Unit uint8

const (
	UnitNone Unit = iota // user units
	UnitPx
	UnitPt
	UnitPc
	UnitMm
	UnitCm
	UnitIn
	UnitEm
	UnitEx
	UnitPercent
)

var unitSuffixes = [...]string{
	UnitPx:      "px",
	UnitPt:      "pt",
	UnitPc:      "pc",
	UnitMm:      "mm",
	UnitCm:      "cm",
	UnitIn:      "in",
	UnitEm:      "em",
	UnitEx:      "ex",
	UnitPercent: "%",
}

// Length is a number with a unit.
type Length struct {
	Value float64
	Unit  Unit
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64) + unitSuffixes[l.Unit]
}

// ParseLength parses a length, with an optional unit.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Length{}, errEmptyValue
	}
	unit := UnitNone
	for u := UnitPx; u <= UnitPercent; u++ {
		if strings.HasSuffix(s, unitSuffixes[u]) {
			unit = u
			s = strings.TrimSpace(s[:len(s)-len(unitSuffixes[u])])
			break
		}
	}
	v, err := parseFloat(s)
	if err != nil {
		return Length{}, err
	}
	return Length{Value: v, Unit: unit}, nil
}

// ParseLengthList parses a list of lengths separated by spaces or commas.
func ParseLengthList(s string) ([]Length, error) {
	fields := splitOnCommaOrSpace(s)
	out := make([]Length, len(fields))
	for i, f := range fields {
		l, err := ParseLength(f)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}

// ParseNumberList parses a list of numbers separated by spaces or commas.
func ParseNumberList(s string) ([]float64, error) {
	fields := splitOnCommaOrSpace(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Axis selects the reference used for percentages.
type Axis uint8

const (
	Horizontal Axis = iota // viewport width
	Vertical               // viewport height
	Diagonal               // normalized diagonal
)

// UnitContext is the frame used to convert lengths to user units.
type UnitContext struct {
	DPI                           float64
	FontSize                      float64 // current font size, in user units
	ViewportWidth, ViewportHeight float64
}

// Resolve converts the length to user units.
func (l Length) Resolve(ctx UnitContext, axis Axis) float64 {
	switch l.Unit {
	case UnitPt:
		return l.Value * ctx.DPI / 72
	case UnitPc:
		return l.Value * ctx.DPI / 6
	case UnitMm:
		return l.Value * ctx.DPI / 25.4
	case UnitCm:
		return l.Value * ctx.DPI / 2.54
	case UnitIn:
		return l.Value * ctx.DPI
	case UnitEm:
		return l.Value * ctx.FontSize
	case UnitEx:
		return l.Value * ctx.FontSize / 2
	case UnitPercent:
		var ref float64
		switch axis {
		case Horizontal:
			ref = ctx.ViewportWidth
		case Vertical:
			ref = ctx.ViewportHeight
		default:
			w, h := ctx.ViewportWidth, ctx.ViewportHeight
			ref = math.Sqrt(w*w+h*h) / math.Sqrt2
		}
		return l.Value * ref / 100
	default: // px and user units
		return l.Value
	}
}

// ParseFraction parses a number or a percentage, returning a fraction.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	d := 1.0
	if strings.HasSuffix(s, "%") {
		d = 100
		s = strings.TrimSuffix(s, "%")
	}
	f, err := parseFloat(s)
	return f / d, err
}
