package svgpath

import "math"

// Dash splits the path into the "on" pieces of the dash pattern.
// The pattern restarts at each subpath. The result is made of open
// polylines; it is the input path when the pattern is solid or
// too dense.
func Dash(p Path, dashes []float64, offset, tolerance float64) Path {
	style := StrokeStyle{Dash: dashes, DashOffset: offset}
	lines := p.Flatten(tolerance)
	pattern := style.dashFor(lines)
	if pattern == nil {
		return p
	}
	return polylinesToPath(dashPolylines(lines, pattern, offset))
}

// dasher walks the dash pattern
type dasher struct {
	pattern   []float64
	index     int
	remaining float64 // length left in the current dash or gap
}

func newDasher(pattern []float64, offset float64) dasher {
	var sum float64
	for _, d := range pattern {
		sum += d
	}
	offset = math.Mod(offset, sum)
	if offset < 0 {
		offset += sum
	}
	d := dasher{pattern: pattern}
	for offset > 0 {
		if offset < pattern[d.index] {
			break
		}
		offset -= pattern[d.index]
		d.index = (d.index + 1) % len(pattern)
	}
	d.remaining = pattern[d.index] - offset
	return d
}

func (d *dasher) on() bool { return d.index%2 == 0 }

func (d *dasher) next() {
	d.index = (d.index + 1) % len(d.pattern)
	d.remaining = d.pattern[d.index]
}

// dashPolylines applies the pattern to each polyline.
func dashPolylines(pls []Polyline, pattern []float64, offset float64) []Polyline {
	var out []Polyline
	for _, pl := range pls {
		out = append(out, dashPolyline(pl, pattern, offset)...)
	}
	return out
}

func dashPolyline(pl Polyline, pattern []float64, offset float64) []Polyline {
	pts, corners := pl.Points, pl.corners
	if pl.Closed && len(pts) > 1 {
		pts = append(append([]Point(nil), pts...), pts[0])
		corners = append(append([]bool(nil), corners...), true)
	}
	if len(pts) < 2 {
		return nil
	}

	d := newDasher(pattern, offset)
	startsOn := d.on()
	var (
		out     []Polyline
		current *Polyline
	)
	begin := func(pt Point, dir Point) {
		out = append(out, Polyline{dir: dir})
		current = &out[len(out)-1]
		current.add(pt, true)
	}
	if d.on() {
		begin(pts[0], pts[1].Sub(pts[0]).Unit())
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := b.Sub(a)
		segLen := seg.Len()
		dir := seg.Unit()
		pos := 0.
		for segLen-pos > d.remaining {
			pos += d.remaining
			pt := a.Add(dir.Mul(pos))
			if d.on() {
				current.add(pt, true)
				current = nil
			}
			d.next()
			if d.on() {
				begin(pt, dir)
			}
		}
		d.remaining -= segLen - pos
		if d.on() {
			current.add(b, corners[i])
		}
	}

	// merge the last dash with the first one for closed paths,
	// when the pattern is "on" at the joining point
	if pl.Closed && startsOn && current != nil && len(out) > 1 {
		first := out[0]
		last := &out[len(out)-1]
		for j, pt := range first.Points {
			last.add(pt, first.corners[j])
		}
		out = out[1:]
	} else if pl.Closed && startsOn && current != nil && len(out) == 1 {
		// the pattern never switched off: the whole contour is drawn
		whole := pl
		return []Polyline{whole}
	}
	return out
}
