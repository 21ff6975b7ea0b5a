// Package stake parses station (stake) notation and splits a station range
// into fixed-interval segments.
package stake

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// LegacyInterval is the step used by the bare kilometre range form.
const LegacyInterval = 100

// MaxMeters bounds a station offset. Larger stakes are format errors, which
// keeps offset arithmetic within int range on every platform.
const MaxMeters = 1_000_000_000

var (
	stakePattern  = regexp.MustCompile(`^K(\d+)\+(\d+)$`)
	legacyPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
)

// Segment is one interval of a station range. Stakes are rendered in
// K<km>+<meters> form.
type Segment struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Index       int    `json:"index"`
	StartMeters int    `json:"startMeters"`
	EndMeters   int    `json:"endMeters"`
}

// Length returns the segment length in meters.
func (s Segment) Length() int {
	return s.EndMeters - s.StartMeters
}

// FormatError reports station text that is not in a recognised notation.
type FormatError struct {
	Field string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q, expected K0+000 format", e.Field, e.Value)
}

// RangeError reports numeric station bounds that cannot be segmented.
type RangeError struct {
	Field  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseStake converts K<km>+<meters> text into a linear offset in meters.
func ParseStake(text string) (int, error) {
	m := stakePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, &FormatError{Field: "stake", Value: text}
	}
	km, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &FormatError{Field: "stake", Value: text}
	}
	meters, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, &FormatError{Field: "stake", Value: text}
	}
	if km > MaxMeters/1000 || meters > MaxMeters-km*1000 {
		return 0, &FormatError{Field: "stake", Value: text}
	}
	return km*1000 + meters, nil
}

// Format renders a linear offset in meters as K<km>+<meters>, meters padded to three digits.
func Format(meters int) string {
	return fmt.Sprintf("K%d+%03d", meters/1000, meters%1000)
}

// Parse splits the range between two stakes into segments of interval meters.
// The last segment is clamped to the end stake, so it may be shorter than
// interval but never longer. The second return value is the range length in km.
func Parse(startStake, endStake string, interval int) ([]Segment, float64, error) {
	start, err := ParseStake(startStake)
	if err != nil {
		return nil, 0, &FormatError{Field: "start stake", Value: startStake}
	}
	end, err := ParseStake(endStake)
	if err != nil {
		return nil, 0, &FormatError{Field: "end stake", Value: endStake}
	}

	if end <= start {
		return nil, 0, &RangeError{
			Field:  "stake range",
			Reason: fmt.Sprintf("end stake %s must be greater than start stake %s", endStake, startStake),
		}
	}

	span := end - start
	if interval <= 0 {
		return nil, 0, &RangeError{Field: "interval", Reason: fmt.Sprintf("must be greater than 0, got %d", interval)}
	}
	if interval > span {
		return nil, 0, &RangeError{
			Field:  "interval",
			Reason: fmt.Sprintf("%d m exceeds the range length of %d m", interval, span),
		}
	}

	return split(start, end, interval), float64(span) / 1000.0, nil
}

// ParseLegacy handles the older "<start_km>-<end_km>" decimal form, which
// always segments at LegacyInterval.
func ParseLegacy(text string) ([]Segment, float64, error) {
	m := legacyPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, 0, &FormatError{Field: "km range", Value: text}
	}
	startKm, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, 0, &FormatError{Field: "km range", Value: text}
	}
	endKm, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, 0, &FormatError{Field: "km range", Value: text}
	}

	if startKm*1000 > MaxMeters || endKm*1000 > MaxMeters {
		return nil, 0, &FormatError{Field: "km range", Value: text}
	}
	start := int(math.Round(startKm * 1000))
	end := int(math.Round(endKm * 1000))
	if end <= start {
		return nil, 0, &RangeError{
			Field:  "km range",
			Reason: fmt.Sprintf("end %.3f km must be greater than start %.3f km", endKm, startKm),
		}
	}

	return split(start, end, LegacyInterval), float64(end-start) / 1000.0, nil
}

// Count returns how many segments a range of span meters yields at interval.
func Count(span, interval int) int {
	if span <= 0 || interval <= 0 {
		return 0
	}
	return (span + interval - 1) / interval
}

func split(start, end, interval int) []Segment {
	segments := make([]Segment, 0, Count(end-start, interval))
	for current := start; current < end; {
		next := min(current+interval, end)
		segments = append(segments, Segment{
			Start:       Format(current),
			End:         Format(next),
			Index:       len(segments),
			StartMeters: current,
			EndMeters:   next,
		})
		current = next
	}
	return segments
}
