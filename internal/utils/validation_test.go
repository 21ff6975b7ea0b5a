package utils

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
		errMsg  string
	}{
		{name: "chinese label", label: "东侧", wantErr: false},
		{name: "ascii label", label: "upbound", wantErr: false},
		{name: "empty label", label: " ", wantErr: true, errMsg: "label cannot be empty"},
		{name: "label too long", label: strings.Repeat("东", 51), wantErr: true, errMsg: "label too long (max 50 characters)"},
		{name: "label with tags", label: "东侧<script>", wantErr: true, errMsg: "label contains invalid characters"},
		{name: "label with SQL comment", label: "东侧'; --", wantErr: true, errMsg: "label contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.label)
			if tt.wantErr {
				assert.Error(t, err, "ValidateLabel should return error for invalid label")
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err, "ValidateLabel should not return error for valid label")
			}
		})
	}
}

func TestValidateLatitude(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		wantErr bool
	}{
		{"valid latitude", 30.6598, false},
		{"equator", 0.0, false},
		{"north pole", 90.0, false},
		{"south pole", -90.0, false},
		{"too high", 90.1, true},
		{"too low", -90.1, true},
		{"not a number", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLatitude(tt.lat)
			if tt.wantErr {
				assert.EqualError(t, err, "latitude must be between -90 and 90")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLongitude(t *testing.T) {
	tests := []struct {
		name    string
		lon     float64
		wantErr bool
	}{
		{"valid longitude", 104.0657, false},
		{"prime meridian", 0.0, false},
		{"date line east", 180.0, false},
		{"date line west", -180.0, false},
		{"too high", 180.1, true},
		{"too low", -180.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLongitude(tt.lon)
			if tt.wantErr {
				assert.EqualError(t, err, "longitude must be between -180 and 180")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTrackParams(t *testing.T) {
	line := orb.LineString{{104.0, 30.0}, {104.01, 30.0}}

	assert.Empty(t, ValidateTrackParams(line, 12, 100))
	assert.Empty(t, ValidateTrackParams(line, 12, 0))

	errs := ValidateTrackParams(orb.LineString{{104.0, 30.0}}, 0, -1)
	assert.Equal(t, []string{"at least 2 points are required"}, errs["coordinates"])
	assert.Equal(t, []string{"width must be positive"}, errs["width"])
	assert.Equal(t, []string{"interval must be non-negative"}, errs["interval"])

	errs = ValidateTrackParams(orb.LineString{{104.0, 30.0}, {30.0, 104.0}, {200, 95}}, 12, 100)
	assert.Equal(t, []string{"point 1: latitude must be between -90 and 90"}, errs["coordinates"])
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal input unchanged", "县道X015", "县道X015"},
		{"script tags removed", "<script>alert('xss')</script>县道", "alert('xss')县道"},
		{"multiple tags removed", "<p><strong>东侧</strong> 西侧</p>", "东侧 西侧"},
		{"empty input", "", ""},
		{"only tags", "<script></script><div></div>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeInput(tt.input))
		})
	}
}
