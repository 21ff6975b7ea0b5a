package utils

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestBearing(t *testing.T) {
	tests := []struct {
		name      string
		a, b      orb.Point
		expected  float64
		tolerance float64
	}{
		{"north", orb.Point{104.0, 30.0}, orb.Point{104.0, 31.0}, 0, 1},
		{"east", orb.Point{104.0, 30.0}, orb.Point{105.0, 30.0}, 90, 1},
		{"south", orb.Point{104.0, 30.0}, orb.Point{104.0, 29.0}, 180, 1},
		{"west", orb.Point{104.0, 30.0}, orb.Point{103.0, 30.0}, 270, 1},
		{"northeast", orb.Point{104.0, 30.0}, orb.Point{104.7, 30.6}, 45, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Bearing(tt.a, tt.b), tt.tolerance)
		})
	}
}

func TestBearingToCompass(t *testing.T) {
	tests := []struct {
		bearing  float64
		expected string
	}{
		{0.0, "N"},
		{45.0, "NE"},
		{90.0, "E"},
		{135.0, "SE"},
		{180.0, "S"},
		{225.0, "SW"},
		{270.0, "W"},
		{315.0, "NW"},
		{360.0, "N"},
		{22.0, "N"},
		{23.0, "NE"},
		{67.0, "NE"},
		{68.0, "E"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f degrees", tt.bearing), func(t *testing.T) {
			assert.Equal(t, tt.expected, BearingToCompass(tt.bearing))
		})
	}
}

func TestHeading(t *testing.T) {
	// the middle point does not matter
	assert.Equal(t, "E", Heading(orb.LineString{{104.0, 30.0}, {104.005, 30.01}, {104.01, 30.0}}))
	assert.Equal(t, "S", Heading(orb.LineString{{104.0, 30.0}, {104.0, 29.9}}))
	assert.Equal(t, "", Heading(orb.LineString{{104.0, 30.0}}))
	assert.Equal(t, "", Heading(orb.LineString{{104.0, 30.0}, {104.1, 30.0}, {104.0, 30.0}}))
}
