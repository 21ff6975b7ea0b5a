package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"
)

var (
	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	// Detect HTML/script tags
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// MaxTrackPoints bounds the center line accepted by track generation.
const MaxTrackPoints = 10000

// ValidateLabel validates a short dictionary label such as a direction name
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}

	if utf8.RuneCountInString(label) > 50 {
		return errors.New("label too long (max 50 characters)")
	}

	if dangerousPattern.MatchString(label) {
		return errors.New("label contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateTrackParams validates the input of a track generation request.
// Only the first bad point is reported.
func ValidateTrackParams(line orb.LineString, width, interval float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	switch {
	case len(line) < 2:
		fieldErrors["coordinates"] = append(fieldErrors["coordinates"], "at least 2 points are required")
	case len(line) > MaxTrackPoints:
		fieldErrors["coordinates"] = append(fieldErrors["coordinates"], fmt.Sprintf("too many points (max %d)", MaxTrackPoints))
	}
	for i, p := range line {
		err := ValidateLongitude(p.Lon())
		if err == nil {
			err = ValidateLatitude(p.Lat())
		}
		if err != nil {
			fieldErrors["coordinates"] = append(fieldErrors["coordinates"], fmt.Sprintf("point %d: %v", i, err))
			break
		}
	}

	if math.IsNaN(width) || width <= 0 {
		fieldErrors["width"] = append(fieldErrors["width"], "width must be positive")
	}

	if math.IsNaN(interval) || interval < 0 {
		fieldErrors["interval"] = append(fieldErrors["interval"], "interval must be non-negative")
	}

	return fieldErrors
}

// SanitizeInput removes HTML tags and other potentially dangerous content
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}
