package track

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Segment is one fixed-length piece of a track. Distances are arc lengths
// measured from the start of the track the segment was cut from.
type Segment struct {
	Start         orb.Point `json:"start"`
	End           orb.Point `json:"end"`
	Length        float64   `json:"length"`
	StartDistance float64   `json:"startDistance"`
	EndDistance   float64   `json:"endDistance"`
}

// SegmentLine cuts line into consecutive pieces of interval length, walking
// the arc length from 0. The last piece is clamped to the end of the line and
// may be shorter than interval. End points are interpolated along the line.
func SegmentLine(line orb.LineString, interval float64) ([]Segment, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, &GeometryError{Op: "segment", Reason: fmt.Sprintf("invalid interval %v", interval)}
	}
	if len(line) < 2 {
		return nil, &GeometryError{Op: "segment", Reason: fmt.Sprintf("line has %d points, need at least 2", len(line))}
	}

	cumulative := cumulativeLengths(line)
	total := cumulative[len(cumulative)-1]
	eps := 1e-9 * math.Max(1, total)

	var segments []Segment
	for i := 0; ; i++ {
		start := float64(i) * interval
		if start >= total-eps {
			break
		}
		end := min(float64(i+1)*interval, total)
		if total-end <= eps {
			end = total
		}
		segments = append(segments, Segment{
			Start:         pointAt(line, cumulative, start),
			End:           pointAt(line, cumulative, end),
			Length:        end - start,
			StartDistance: start,
			EndDistance:   end,
		})
		if end >= total {
			break
		}
	}
	return segments, nil
}

// LineLength returns the planar arc length of line.
func LineLength(line orb.LineString) float64 {
	return planar.Length(line)
}

// PointAt returns the point at the given arc distance along line. Distances
// outside [0, length] are clamped.
func PointAt(line orb.LineString, distance float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	return pointAt(line, cumulativeLengths(line), distance)
}

func cumulativeLengths(line orb.LineString) []float64 {
	cumulative := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		cumulative[i] = cumulative[i-1] + planar.Distance(line[i-1], line[i])
	}
	return cumulative
}

func pointAt(line orb.LineString, cumulative []float64, distance float64) orb.Point {
	last := len(line) - 1
	if distance <= 0 {
		return line[0]
	}
	if distance >= cumulative[last] {
		return line[last]
	}

	// first vertex at or beyond distance
	j := sort.SearchFloat64s(cumulative, distance)
	if cumulative[j] == distance {
		return line[j]
	}
	i := j - 1
	span := cumulative[j] - cumulative[i]
	if span == 0 {
		return line[j]
	}
	return lerp(line[i], line[j], (distance-cumulative[i])/span)
}
