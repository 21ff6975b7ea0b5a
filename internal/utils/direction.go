package utils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Bearing returns the initial bearing from a to b in degrees, 0-360 clockwise from north.
func Bearing(a, b orb.Point) float64 {
	return math.Mod(geo.Bearing(a, b)+360, 360)
}

// BearingToCompass converts a bearing (0-360°) to 8-point compass direction
func BearingToCompass(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	index := int((bearing+22.5)/45.0) % 8
	return directions[index]
}

// Heading is the compass direction from the first to the last point of line.
// Lines with fewer than two distinct end points have no heading.
func Heading(line orb.LineString) string {
	if len(line) < 2 || line[0].Equal(line[len(line)-1]) {
		return ""
	}
	return BearingToCompass(Bearing(line[0], line[len(line)-1]))
}
