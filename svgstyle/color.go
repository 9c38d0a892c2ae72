package svgstyle

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses an SVG color: keywords (SVG 1.1 names, `transparent`),
// #rgb, #rrggbb, rgb() and rgba() with integers or percentages, and hsl().
// `currentColor` is replaced by current.
func ParseColor(s string, current color.NRGBA) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	v := strings.ToLower(s)
	switch v {
	case "":
		return color.NRGBA{}, errEmptyValue
	case "currentcolor":
		return current, nil
	case "transparent":
		return color.NRGBA{}, nil
	}
	if cn, ok := colornames.Map[v]; ok {
		return color.NRGBA{cn.R, cn.G, cn.B, 0xff}, nil
	}
	if v[0] == '#' {
		r, g, b, err := parseColorNum(v[1:])
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{r, g, b, 0xff}, nil
	}
	fn, args, ok := splitFunction(v)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	vals := strings.Split(args, ",")
	alpha := uint8(0xff)
	if (fn == "rgba" || fn == "hsla") && len(vals) == 4 {
		a, err := ParseFraction(vals[3])
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha = uint8(math.Round(clamp01(a) * 0xff))
		vals = vals[:3]
	}
	if len(vals) != 3 {
		return color.NRGBA{}, errParamMismatch
	}
	switch fn {
	case "rgb", "rgba":
		var cvals [3]uint8
		for i := range cvals {
			c, err := parseColorValue(vals[i])
			if err != nil {
				return color.NRGBA{}, err
			}
			cvals[i] = c
		}
		return color.NRGBA{cvals[0], cvals[1], cvals[2], alpha}, nil
	case "hsl", "hsla":
		h, err := parseFloat(strings.TrimSpace(vals[0]))
		if err != nil {
			return color.NRGBA{}, err
		}
		sat, err := ParseFraction(vals[1])
		if err != nil {
			return color.NRGBA{}, err
		}
		l, err := ParseFraction(vals[2])
		if err != nil {
			return color.NRGBA{}, err
		}
		r, g, b := hslToRGB(h, clamp01(sat), clamp01(l))
		return color.NRGBA{r, g, b, alpha}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
}

// splitFunction splits "name(args)".
func splitFunction(v string) (name, args string, ok bool) {
	i := strings.IndexByte(v, '(')
	if i == -1 || !strings.HasSuffix(v, ")") {
		return "", "", false
	}
	return strings.TrimSpace(v[:i]), v[i+1 : len(v)-1], true
}

func parseColorNum(hex string) (r, g, b uint8, err error) {
	switch len(hex) {
	case 3: // duplicate characters
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return 0, 0, 0, fmt.Errorf("invalid color #%s", hex)
	}
	for _, v := range []struct {
		c *uint8
		s string
	}{
		{&r, hex[0:2]},
		{&g, hex[2:4]},
		{&b, hex[4:6]},
	} {
		t, err := strconv.ParseUint(v.s, 16, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid color #%s", hex)
		}
		*v.c = uint8(t)
	}
	return r, g, b, nil
}

// parseColorValue parses an integer or a percentage, clamped to [0, 255].
func parseColorValue(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		n, err := parseFloat(strings.TrimSpace(v[:len(v)-1]))
		if err != nil {
			return 0, err
		}
		return uint8(math.Round(clamp01(n/100) * 0xff)), nil
	}
	n, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(math.Max(0, math.Min(n, 255)))), nil
}

func clamp01(f float64) float64 { return math.Max(0, math.Min(f, 1)) }

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360
	var m2 float64
	if l <= 0.5 {
		m2 = l * (s + 1)
	} else {
		m2 = l + s - l*s
	}
	m1 := l*2 - m2
	hue := func(h float64) uint8 {
		if h < 0 {
			h++
		} else if h > 1 {
			h--
		}
		var v float64
		switch {
		case h*6 < 1:
			v = m1 + (m2-m1)*h*6
		case h*2 < 1:
			v = m2
		case h*3 < 2:
			v = m1 + (m2-m1)*(2./3-h)*6
		default:
			v = m1
		}
		return uint8(math.Round(v * 0xff))
	}
	return hue(h + 1./3), hue(h), hue(h - 1./3)
}

// PaintKind is the type of a paint value.
type PaintKind uint8

const (
	PaintNone PaintKind = iota
	PaintColor
	PaintURL // reference to a paint server, with an optional fallback
)

// Paint is a parsed fill or stroke value.
type Paint struct {
	Kind  PaintKind
	Color color.NRGBA // for PaintColor, and the fallback of PaintURL
	URL   string      // referenced id, for PaintURL

	// HasFallback is true if a color (or none) is given after the
	// reference, FallbackNone if it is none.
	HasFallback, FallbackNone bool
}

// ParsePaint parses a <paint> value.
func ParsePaint(s string, current color.NRGBA) (Paint, error) {
	s = strings.TrimSpace(s)
	if s == "none" {
		return Paint{Kind: PaintNone}, nil
	}
	if strings.HasPrefix(s, "url(") {
		end := strings.IndexByte(s, ')')
		if end == -1 {
			return Paint{}, fmt.Errorf("invalid paint %q", s)
		}
		id, ok := parseIRI(s[4:end])
		if !ok {
			return Paint{}, fmt.Errorf("invalid paint %q", s)
		}
		p := Paint{Kind: PaintURL, URL: id}
		if fallback := strings.TrimSpace(s[end+1:]); fallback != "" {
			p.HasFallback = true
			if fallback == "none" {
				p.FallbackNone = true
			} else {
				c, err := ParseColor(fallback, current)
				if err != nil {
					return p, err
				}
				p.Color = c
			}
		}
		return p, nil
	}
	c, err := ParseColor(s, current)
	if err != nil {
		return Paint{}, err
	}
	return Paint{Kind: PaintColor, Color: c}, nil
}

// parseIRI extracts the id from "#id", possibly quoted.
func parseIRI(s string) (string, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if !strings.HasPrefix(s, "#") || len(s) == 1 {
		return "", false
	}
	return s[1:], true
}

// ParseFuncIRI parses "url(#id)", returning the id.
func ParseFuncIRI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "url(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return parseIRI(s[4 : len(s)-1])
}
