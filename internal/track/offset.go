package track

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Side is the side of the center line a track runs on, relative to the
// direction of travel along the center line.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// QuadrantSegments is the number of chords used for a quarter circle of a round join.
const QuadrantSegments = 16

// GeometryError reports input that cannot produce a usable line.
type GeometryError struct {
	Op     string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

type offsetSegment struct {
	a, b orb.Point
	dir  orb.Point // unit direction of the source segment
}

// Offset returns the line parallel to line at the given perpendicular
// distance on side, with round joins at convex vertices. Both sides keep the
// orientation of the input.
//
// Parts of the raw offset curve that come closer than distance to the input
// are cut away. If that leaves several pieces, the longest one is returned.
// If the curve collapses to a single point, that point is returned twice.
func Offset(line orb.LineString, distance float64, side Side) (orb.LineString, error) {
	var sign float64
	switch side {
	case Left:
		sign = 1
	case Right:
		sign = -1
	default:
		return nil, &GeometryError{Op: "offset", Reason: fmt.Sprintf("invalid side %q", side)}
	}
	if distance < 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, &GeometryError{Op: "offset", Reason: fmt.Sprintf("invalid distance %v", distance)}
	}

	pts := dedupe(line)
	switch {
	case len(pts) == 0:
		return nil, &GeometryError{Op: "offset", Reason: "empty line"}
	case len(pts) == 1:
		return orb.LineString{pts[0], pts[0]}, nil
	case distance == 0:
		return pts, nil
	}

	raw := rawOffsetCurve(pts, distance, sign)
	pieces := clipNear(raw, pts, distance)
	return pickPiece(pieces)
}

func rawOffsetCurve(pts orb.LineString, distance, sign float64) orb.LineString {
	segs := make([]offsetSegment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		length := planar.Distance(a, b)
		dir := orb.Point{(b[0] - a[0]) / length, (b[1] - a[1]) / length}
		normal := orb.Point{-dir[1] * sign * distance, dir[0] * sign * distance}
		segs = append(segs, offsetSegment{
			a:   orb.Point{a[0] + normal[0], a[1] + normal[1]},
			b:   orb.Point{b[0] + normal[0], b[1] + normal[1]},
			dir: dir,
		})
	}

	raw := orb.LineString{segs[0].a}
	for i, seg := range segs {
		if i > 0 {
			raw = appendJoin(raw, pts[i], segs[i-1], seg, distance, sign)
		}
		raw = append(raw, seg.b)
	}
	return dedupe(raw)
}

// appendJoin connects the end of prev to the start of next around vertex.
// On entry the last point of raw is prev.b.
func appendJoin(raw orb.LineString, vertex orb.Point, prev, next offsetSegment, distance, sign float64) orb.LineString {
	cross := prev.dir[0]*next.dir[1] - prev.dir[1]*next.dir[0]
	dot := prev.dir[0]*next.dir[0] + prev.dir[1]*next.dir[1]
	theta := math.Atan2(cross, dot)

	const straight = 1e-12
	reversal := math.Abs(cross) <= straight && dot < 0

	switch {
	case !reversal && math.Abs(theta) <= straight:
		return append(raw, next.a)
	case reversal || sign*theta < 0:
		sweep := theta
		if reversal {
			sweep = -sign * math.Pi
		}
		return appendArc(raw, vertex, prev.b, sweep, distance, next.a)
	default:
		if p, ok := segmentIntersection(prev.a, prev.b, next.a, next.b); ok {
			raw[len(raw)-1] = p
			return raw
		}
		return append(raw, next.a)
	}
}

// appendArc adds the points of a circular arc of the given radius around
// center, starting after from and sweeping by sweep radians, then adds to.
func appendArc(raw orb.LineString, center, from orb.Point, sweep, radius float64, to orb.Point) orb.LineString {
	step := math.Pi / 2 / QuadrantSegments
	n := int(math.Ceil(math.Abs(sweep) / step))
	start := math.Atan2(from[1]-center[1], from[0]-center[0])
	for k := 1; k < n; k++ {
		angle := start + sweep*float64(k)/float64(n)
		raw = append(raw, orb.Point{
			center[0] + radius*math.Cos(angle),
			center[1] + radius*math.Sin(angle),
		})
	}
	return append(raw, to)
}

func segmentIntersection(p1, p2, q1, q2 orb.Point) (orb.Point, bool) {
	r := orb.Point{p2[0] - p1[0], p2[1] - p1[1]}
	s := orb.Point{q2[0] - q1[0], q2[1] - q1[1]}
	denom := r[0]*s[1] - r[1]*s[0]
	if math.Abs(denom) < 1e-15 {
		return orb.Point{}, false
	}
	qp := orb.Point{q1[0] - p1[0], q1[1] - p1[1]}
	t := (qp[0]*s[1] - qp[1]*s[0]) / denom
	u := (qp[0]*r[1] - qp[1]*r[0]) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}
	return orb.Point{p1[0] + t*r[0], p1[1] + t*r[1]}, true
}

// clipNear splits raw into the pieces that stay at least distance away from base.
func clipNear(raw, base orb.LineString, distance float64) []orb.LineString {
	// arc chords sag inside the circle, so allow for the sagitta
	step := math.Pi / 2 / QuadrantSegments
	tol := distance*(1-math.Cos(step/2))*1.5 + 1e-9
	keep := func(p orb.Point) bool {
		return distanceToLine(base, p) >= distance-tol
	}

	maxStep := distance / 2
	var pieces []orb.LineString
	var current orb.LineString

	inside := keep(raw[0])
	if inside {
		current = orb.LineString{raw[0]}
	}

	for i := 1; i < len(raw); i++ {
		a, b := raw[i-1], raw[i]
		n := int(math.Ceil(planar.Distance(a, b) / maxStep))
		n = max(1, min(n, 512))

		prevT, prevIn := 0.0, inside
		for k := 1; k <= n; k++ {
			t := float64(k) / float64(n)
			p := b
			if k < n {
				p = lerp(a, b, t)
			}
			in := keep(p)
			if in != prevIn {
				boundary := lerp(a, b, bisect(a, b, prevT, t, prevIn, keep))
				if prevIn {
					pieces = append(pieces, append(current, boundary))
					current = nil
				} else {
					current = orb.LineString{boundary}
				}
			}
			prevT, prevIn = t, in
		}
		if prevIn {
			current = append(current, b)
		}
		inside = prevIn
	}
	if current != nil {
		pieces = append(pieces, current)
	}

	return mergeTouching(pieces, distance*0.02+1e-9)
}

// bisect finds the parameter in [lo, hi] where keep changes from loIn.
func bisect(a, b orb.Point, lo, hi float64, loIn bool, keep func(orb.Point) bool) float64 {
	for i := 0; i < 48; i++ {
		mid := (lo + hi) / 2
		if keep(lerp(a, b, mid)) == loIn {
			lo = mid
		} else {
			hi = mid
		}
	}
	if loIn {
		return lo
	}
	return hi
}

func mergeTouching(pieces []orb.LineString, tol float64) []orb.LineString {
	if len(pieces) < 2 {
		for i := range pieces {
			pieces[i] = dedupe(pieces[i])
		}
		return pieces
	}

	merged := []orb.LineString{pieces[0]}
	for _, piece := range pieces[1:] {
		last := merged[len(merged)-1]
		if planar.Distance(last[len(last)-1], piece[0]) <= tol {
			merged[len(merged)-1] = append(last, piece[1:]...)
			continue
		}
		merged = append(merged, piece)
	}
	for i := range merged {
		merged[i] = dedupe(merged[i])
	}
	return merged
}

func pickPiece(pieces []orb.LineString) (orb.LineString, error) {
	if len(pieces) == 0 {
		return nil, &GeometryError{Op: "offset", Reason: "offset curve is empty"}
	}

	var best orb.LineString
	bestLength := 0.0
	for _, piece := range pieces {
		if len(piece) < 2 {
			continue
		}
		if l := planar.Length(piece); l > bestLength {
			best, bestLength = piece, l
		}
	}

	if best == nil {
		p := pieces[0][0]
		return orb.LineString{p, p}, nil
	}
	return best, nil
}

func distanceToLine(line orb.LineString, p orb.Point) float64 {
	d := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		d = math.Min(d, planar.DistanceFromSegment(line[i], line[i+1], p))
	}
	return d
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// dedupe drops consecutive repeated points.
func dedupe(line orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(line))
	for i, p := range line {
		if i > 0 && p.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, p)
	}
	return out
}
