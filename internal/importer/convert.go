package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"roadnet.roadmap.org/internal/network"
)

// Location is the zone sheet dates are read in.
var Location = time.FixedZone("CST", 8*60*60)

var laneCounts = map[string]int{
	"单车道": 1,
	"双车道": 2,
	"三车道": 3,
	"四车道": 4,
	"五车道": 5,
	"六车道": 6,
	"七车道": 7,
	"八车道": 8,
}

// ParseLaneCount converts lane text such as 双车道 to a count. Plain numbers
// from 1 to 8 are accepted too.
func ParseLaneCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if n, ok := laneCounts[text]; ok {
		return n, nil
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= 8 {
		return n, nil
	}
	return 0, &network.FieldError{Field: ColLaneCount, Reason: fmt.Sprintf("unknown lane count %q", text)}
}

var (
	serialPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

	// day-first layouts come after month-first ones, so 03/04/2024 is March 4
	dateLayouts = []string{
		"2006-1-2",
		"2006/1/2",
		"2006年1月2日",
		"2006-1-2 15:04:05",
		"2006/1/2 15:04:05",
		"1/2/2006",
		"2/1/2006",
		"2006.1.2",
		"2.1.2006",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	// Excel counts 1900-01-01 as day 1 and treats 1900 as a leap year.
	excelEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, Location)
)

// ParseTimestamp converts a sheet date to milliseconds since the Unix epoch.
// Numeric values are Excel date serials.
func ParseTimestamp(field, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if serialPattern.MatchString(value) {
		serial, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, &network.FieldError{Field: field, Reason: err.Error()}
		}
		days := (serial - 2) * 24 * float64(time.Hour/time.Millisecond)
		return excelEpoch.UnixMilli() + int64(math.Round(days)), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, Location); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, &network.FieldError{Field: field, Reason: fmt.Sprintf("unrecognised date %q", value)}
}

func parseFloat(field string, c Cell) (float64, error) {
	v, err := strconv.ParseFloat(c.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &network.FieldError{Field: field, Reason: fmt.Sprintf("%q is not a number", c.String())}
	}
	return v, nil
}

// parseInterval accepts whole numbers written as floats, such as 100.0.
func parseInterval(c Cell) (int, error) {
	v, err := parseFloat(ColInterval, c)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, &network.FieldError{Field: ColInterval, Reason: fmt.Sprintf("%q is not a whole number of meters", c.String())}
	}
	return int(v), nil
}
