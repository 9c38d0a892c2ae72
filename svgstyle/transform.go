package svgstyle

import (
	"fmt"
	"math"
	"strings"

	"github.com/benoitkugler/microsvg/svgpath"
)

func readTransformAttr(m1 svgpath.Matrix2D, k string, points []float64) (svgpath.Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(svgpath.Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5],
			})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, fmt.Errorf("unknown transform %q", k)
	}
	return m1, nil
}

// ParseTransform parses a transform list. On error, the identity
// is returned, as for an unset attribute.
func ParseTransform(v string) (svgpath.Matrix2D, error) {
	m1 := svgpath.Identity
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(t)
		t = strings.TrimLeft(t, ", \t\n")
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return svgpath.Identity, errParamMismatch // badly formed transformation
		}
		points, err := svgpath.ParseNumbers(d[1])
		if err != nil {
			return svgpath.Identity, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return svgpath.Identity, err
		}
	}
	return m1, nil
}
