package svgpath

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidPathData is returned (wrapped) when the path data is malformed.
// The path built from the commands before the error is still valid.
var ErrInvalidPathData = errors.New("invalid path data")

// Command is one path data command with its arguments, as
// written in a `d` attribute. Implicit repetitions are expanded,
// so that each Command has exactly the number of arguments
// required by its operator.
type Command struct {
	Op   byte // one of MmLlHhVvCcSsQqTtAaZz
	Args []float64
}

// argCount returns the number of arguments of op, or -1
// for an unknown operator.
func argCount(op byte) int {
	switch op {
	case 'M', 'm', 'L', 'l', 'T', 't':
		return 2
	case 'H', 'h', 'V', 'v':
		return 1
	case 'C', 'c':
		return 6
	case 'S', 's', 'Q', 'q':
		return 4
	case 'A', 'a':
		return 7
	case 'Z', 'z':
		return 0
	default:
		return -1
	}
}

// pathScanner tokenizes path data and other number lists.
type pathScanner struct {
	s   string
	pos int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

func (sc *pathScanner) skipSpaces() {
	for sc.pos < len(sc.s) && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
}

// skipSeparator skips spaces and at most one comma.
func (sc *pathScanner) skipSeparator() {
	sc.skipSpaces()
	if sc.pos < len(sc.s) && sc.s[sc.pos] == ',' {
		sc.pos++
		sc.skipSpaces()
	}
}

func (sc *pathScanner) done() bool { return sc.pos >= len(sc.s) }

// startsNumber returns true if a number starts at the current position.
func (sc *pathScanner) startsNumber() bool {
	if sc.done() {
		return false
	}
	c := sc.s[sc.pos]
	return c == '+' || c == '-' || c == '.' || ('0' <= c && c <= '9')
}

// number reads a number, following the SVG grammar, where
// "1.5.5" is two numbers and "1-2" too.
func (sc *pathScanner) number() (float64, error) {
	start := sc.pos
	i := sc.pos
	if i < len(sc.s) && (sc.s[i] == '+' || sc.s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(sc.s) && '0' <= sc.s[i] && sc.s[i] <= '9' {
		i++
		digits++
	}
	if i < len(sc.s) && sc.s[i] == '.' {
		i++
		for i < len(sc.s) && '0' <= sc.s[i] && sc.s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: expected number at offset %d", ErrInvalidPathData, start)
	}
	if i < len(sc.s) && (sc.s[i] == 'e' || sc.s[i] == 'E') {
		j := i + 1
		if j < len(sc.s) && (sc.s[j] == '+' || sc.s[j] == '-') {
			j++
		}
		if j < len(sc.s) && '0' <= sc.s[j] && sc.s[j] <= '9' {
			for j < len(sc.s) && '0' <= sc.s[j] && sc.s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	f, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPathData, err)
	}
	sc.pos = i
	return f, nil
}

// flag reads an arc flag, which may be glued to the next token.
func (sc *pathScanner) flag() (float64, error) {
	if sc.done() {
		return 0, fmt.Errorf("%w: expected flag at end of data", ErrInvalidPathData)
	}
	switch sc.s[sc.pos] {
	case '0':
		sc.pos++
		return 0, nil
	case '1':
		sc.pos++
		return 1, nil
	}
	return 0, fmt.Errorf("%w: invalid arc flag at offset %d", ErrInvalidPathData, sc.pos)
}

// ParseNumbers reads a list of numbers separated by spaces and/or commas,
// as used by the `points` attribute or transforms.
func ParseNumbers(s string) ([]float64, error) {
	sc := pathScanner{s: s}
	var out []float64
	sc.skipSpaces()
	for !sc.done() {
		f, err := sc.number()
		if err != nil {
			return out, err
		}
		out = append(out, f)
		sc.skipSeparator()
	}
	return out, nil
}

// ParseCommands tokenizes the path data d. On error, the
// commands read before the faulty one are returned alongside the error.
func ParseCommands(d string) ([]Command, error) {
	sc := pathScanner{s: d}
	var (
		out    []Command
		lastOp byte
	)
	sc.skipSpaces()
	for !sc.done() {
		op := lastOp
		c := sc.s[sc.pos]
		if argCount(c) >= 0 {
			op = c
			sc.pos++
			sc.skipSpaces()
		} else if !sc.startsNumber() || lastOp == 0 || argCount(lastOp) == 0 {
			return out, fmt.Errorf("%w: unexpected character %q at offset %d", ErrInvalidPathData, c, sc.pos)
		}
		if len(out) == 0 && op != 'M' && op != 'm' {
			return nil, fmt.Errorf("%w: path data must start with a moveto", ErrInvalidPathData)
		}
		n := argCount(op)
		cmd := Command{Op: op, Args: make([]float64, n)}
		for i := 0; i < n; i++ {
			var err error
			if (op == 'A' || op == 'a') && (i == 3 || i == 4) {
				cmd.Args[i], err = sc.flag()
			} else {
				cmd.Args[i], err = sc.number()
			}
			if err != nil {
				return out, err
			}
			sc.skipSeparator()
		}
		out = append(out, cmd)
		// subsequent pairs after a moveto are implicit linetos
		switch op {
		case 'M':
			lastOp = 'L'
		case 'm':
			lastOp = 'l'
		default:
			lastOp = op
		}
	}
	return out, nil
}

// Normalize converts path data commands to the canonical cubic representation.
// `tolerance` bounds the error of the arc approximation, in user units.
func Normalize(cmds []Command, tolerance float64) Path {
	var (
		p              Path
		current, start Point
		lastCtrl       Point // last control point, for S and T reflections
		lastOp         byte
	)
	for _, cmd := range cmds {
		a := cmd.Args
		rel := cmd.Op >= 'a'
		off := Point{}
		if rel {
			off = current
		}
		op := cmd.Op
		if rel {
			op -= 'a' - 'A'
		}
		switch op {
		case 'M':
			current = Point{a[0], a[1]}.Add(off)
			start = current
			p.Start(current)
		case 'L':
			current = Point{a[0], a[1]}.Add(off)
			p.Line(current)
		case 'H':
			if rel {
				current.X += a[0]
			} else {
				current.X = a[0]
			}
			p.Line(current)
		case 'V':
			if rel {
				current.Y += a[0]
			} else {
				current.Y = a[0]
			}
			p.Line(current)
		case 'C':
			c1, c2, end := Point{a[0], a[1]}.Add(off), Point{a[2], a[3]}.Add(off), Point{a[4], a[5]}.Add(off)
			p.CubeBezier(c1, c2, end)
			lastCtrl, current = c2, end
		case 'S':
			c1 := current
			if lastOp == 'C' || lastOp == 'S' {
				c1 = current.Mul(2).Sub(lastCtrl)
			}
			c2, end := Point{a[0], a[1]}.Add(off), Point{a[2], a[3]}.Add(off)
			p.CubeBezier(c1, c2, end)
			lastCtrl, current = c2, end
		case 'Q':
			c, end := Point{a[0], a[1]}.Add(off), Point{a[2], a[3]}.Add(off)
			p.QuadBezier(c, end)
			lastCtrl, current = c, end
		case 'T':
			c := current
			if lastOp == 'Q' || lastOp == 'T' {
				c = current.Mul(2).Sub(lastCtrl)
			}
			end := Point{a[0], a[1]}.Add(off)
			p.QuadBezier(c, end)
			lastCtrl, current = c, end
		case 'A':
			end := Point{a[5], a[6]}.Add(off)
			p.Arc(a[0], a[1], a[2], a[3] != 0, a[4] != 0, end, tolerance)
			current = end
		case 'Z':
			p.Stop(true)
			current = start
		}
		lastOp = op
	}
	return p
}

// ParsePathData parses and normalizes the `d` attribute of a path element.
// On malformed data, the path up to the error is returned with the error, as
// required by the SVG error handling rules.
func ParsePathData(d string, tolerance float64) (Path, error) {
	cmds, err := ParseCommands(d)
	return Normalize(cmds, tolerance), err
}
