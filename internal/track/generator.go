// Package track builds the left and right track lines of a road from its
// center line, and cuts them into fixed-length segments.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/utils"
)

// Transformer converts between geographic lng/lat and a metric projection.
// *geoconv.Client satisfies it.
type Transformer interface {
	ToProjected(ctx context.Context, points []orb.Point) ([]orb.Point, error)
	ToGeographic(ctx context.Context, points []orb.Point) ([]orb.Point, error)
}

// Result holds the generated lines in geographic coordinates. Segment lengths
// and distances are meters measured in the projected space.
type Result struct {
	CenterLine    orb.LineString `json:"centerLine"`
	LeftTrack     orb.LineString `json:"leftTrack"`
	RightTrack    orb.LineString `json:"rightTrack"`
	LeftSegments  []Segment      `json:"leftSegments,omitempty"`
	RightSegments []Segment      `json:"rightSegments,omitempty"`
}

// Segmented reports whether segments were requested.
func (r *Result) Segmented() bool {
	return r.LeftSegments != nil || r.RightSegments != nil
}

// SegmentAt returns segment index of the track on side.
func (r *Result) SegmentAt(side Side, index int) (Segment, error) {
	var segments []Segment
	switch side {
	case Left:
		segments = r.LeftSegments
	case Right:
		segments = r.RightSegments
	default:
		return Segment{}, &GeometryError{Op: "segment lookup", Reason: fmt.Sprintf("invalid side %q", side)}
	}
	if index < 0 || index >= len(segments) {
		return Segment{}, &GeometryError{
			Op:     "segment lookup",
			Reason: fmt.Sprintf("%s track has %d segments, no segment %d", side, len(segments), index),
		}
	}
	return segments[index], nil
}

// FeatureCollection returns the three lines as GeoJSON features tagged with
// a "track" property of center, left or right.
func (r *Result) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, entry := range []struct {
		name string
		line orb.LineString
	}{
		{"center", r.CenterLine},
		{"left", r.LeftTrack},
		{"right", r.RightTrack},
	} {
		f := geojson.NewFeature(entry.line)
		f.Properties["track"] = entry.name
		fc.Append(f)
	}
	return fc
}

// EncodedTracks are the track lines in encoded polyline form.
type EncodedTracks struct {
	Center string `json:"center"`
	Left   string `json:"left"`
	Right  string `json:"right"`
}

func (r *Result) Encoded() EncodedTracks {
	return EncodedTracks{
		Center: encodeLine(r.CenterLine),
		Left:   encodeLine(r.LeftTrack),
		Right:  encodeLine(r.RightTrack),
	}
}

func encodeLine(line orb.LineString) string {
	coords := make([][]float64, len(line))
	for i, p := range line {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}

type Generator struct {
	transformer Transformer
	logger      *slog.Logger
}

func NewGenerator(transformer Transformer, logger *slog.Logger) *Generator {
	return &Generator{
		transformer: transformer,
		logger:      logging.OrDefault(logger).With(slog.String("component", "track_generator")),
	}
}

// Generate offsets center by width/2 to each side in projected space. With
// interval > 0 both tracks are also cut into segments of that length. Both
// tracks keep the orientation of center, so segment i on either side runs
// alongside the same stretch of road.
func (g *Generator) Generate(ctx context.Context, center orb.LineString, width, interval float64) (*Result, error) {
	start := time.Now()

	if len(center) < 2 {
		return nil, &GeometryError{Op: "generate", Reason: fmt.Sprintf("center line has %d points, need at least 2", len(center))}
	}
	if width <= 0 {
		return nil, &GeometryError{Op: "generate", Reason: fmt.Sprintf("width must be positive, got %v", width)}
	}
	for i, p := range center {
		if err := utils.ValidateLongitude(p.Lon()); err != nil {
			return nil, &GeometryError{Op: "generate", Reason: fmt.Sprintf("point %d: %v", i, err)}
		}
		if err := utils.ValidateLatitude(p.Lat()); err != nil {
			return nil, &GeometryError{Op: "generate", Reason: fmt.Sprintf("point %d: %v", i, err)}
		}
	}

	projected, err := g.transformer.ToProjected(ctx, center)
	if err != nil {
		return nil, fmt.Errorf("projecting center line: %w", err)
	}
	if len(projected) != len(center) {
		return nil, fmt.Errorf("projecting center line: got %d points for %d", len(projected), len(center))
	}
	line := orb.LineString(projected)

	left, err := Offset(line, width/2, Left)
	if err != nil {
		return nil, err
	}
	right, err := Offset(line, width/2, Right)
	if err != nil {
		return nil, err
	}

	var leftSegs, rightSegs []Segment
	if interval > 0 {
		if leftSegs, err = SegmentLine(left, interval); err != nil {
			return nil, err
		}
		if rightSegs, err = SegmentLine(right, interval); err != nil {
			return nil, err
		}
	}

	// one round trip for both tracks, one for all segment end points
	lines := make([]orb.Point, 0, len(left)+len(right))
	lines = append(lines, left...)
	lines = append(lines, right...)
	geoLines, err := g.transformer.ToGeographic(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("converting tracks: %w", err)
	}
	if len(geoLines) != len(lines) {
		return nil, fmt.Errorf("converting tracks: got %d points for %d", len(geoLines), len(lines))
	}

	result := &Result{
		CenterLine: append(orb.LineString(nil), center...),
		LeftTrack:  orb.LineString(geoLines[:len(left)]),
		RightTrack: orb.LineString(geoLines[len(left):]),
	}

	if interval > 0 {
		ends := make([]orb.Point, 0, 2*(len(leftSegs)+len(rightSegs)))
		for _, seg := range append(append([]Segment(nil), leftSegs...), rightSegs...) {
			ends = append(ends, seg.Start, seg.End)
		}
		geoEnds, err := g.transformer.ToGeographic(ctx, ends)
		if err != nil {
			return nil, fmt.Errorf("converting segment end points: %w", err)
		}
		if len(geoEnds) != len(ends) {
			return nil, fmt.Errorf("converting segment end points: got %d points for %d", len(geoEnds), len(ends))
		}
		result.LeftSegments = withEnds(leftSegs, geoEnds[:2*len(leftSegs)])
		result.RightSegments = withEnds(rightSegs, geoEnds[2*len(leftSegs):])
	}

	logging.LogOperation(g.logger, "tracks_generated",
		slog.Int("center_points", len(center)),
		slog.Int("left_segments", len(leftSegs)),
		slog.Int("right_segments", len(rightSegs)),
		slog.Float64("width", width),
		slog.Float64("interval", interval),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func withEnds(segments []Segment, ends []orb.Point) []Segment {
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		seg.Start, seg.End = ends[2*i], ends[2*i+1]
		out[i] = seg
	}
	return out
}
