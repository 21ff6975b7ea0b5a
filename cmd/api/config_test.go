package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet.roadmap.org/internal/appconf"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestParseSettingsDefaults(t *testing.T) {
	s, err := parseSettings(nil, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, 4000, s.config.Port)
	assert.Equal(t, appconf.Development, s.config.Env)
	assert.Equal(t, []string{"test"}, s.config.ApiKeys)
	assert.Equal(t, 10, s.config.RateLimit)
	assert.Equal(t, time.Second, s.config.RateLimitWindow)
	assert.Equal(t, 300*time.Millisecond, s.config.GeoconvSpacing)
	assert.Equal(t, 10*time.Second, s.config.GeoconvTimeout)
	assert.Empty(t, s.config.DirectionConfigPath)
	assert.Equal(t, "info", s.logLevel)
}

func TestParseSettingsFromEnvironment(t *testing.T) {
	s, err := parseSettings(nil, envMap(map[string]string{
		"PORT":              "8080",
		"APP_ENV":           "production",
		"API_KEYS":          " a , b ,,",
		"BAIDU_AK":          "ak-123",
		"GEOCONV_SPACING":   "500",
		"GEOCONV_TIMEOUT":   "3s",
		"ROAD_API_TOKEN":    "token",
		"RATE_LIMIT_WINDOW": "1m",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, s.config.Port)
	assert.Equal(t, appconf.Production, s.config.Env)
	assert.Equal(t, []string{"a", "b"}, s.config.ApiKeys)
	assert.Equal(t, "ak-123", s.config.GeoconvAK)
	assert.Equal(t, 500*time.Millisecond, s.config.GeoconvSpacing)
	assert.Equal(t, 3*time.Second, s.config.GeoconvTimeout)
	assert.Equal(t, "token", s.config.RoadAPIToken)
	assert.Equal(t, time.Minute, s.config.RateLimitWindow)
}

func TestParseSettingsFlagsOverrideEnvironment(t *testing.T) {
	s, err := parseSettings(
		[]string{"-port", "9000", "-rate-limit", "-1", "-direction-config", "assets/direction_mapping.json"},
		envMap(map[string]string{"PORT": "8080", "RATE_LIMIT": "5"}))
	require.NoError(t, err)

	assert.Equal(t, 9000, s.config.Port)
	assert.Equal(t, -1, s.config.RateLimit)
	assert.Equal(t, "assets/direction_mapping.json", s.config.DirectionConfigPath)
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad port", []string{"-port", "70000"}},
		{"bad timeout", []string{"-geoconv-timeout", "0s"}},
		{"unknown flag", []string{"-no-such-flag", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSettings(tt.args, envMap(nil))
			assert.Error(t, err)
		})
	}
}

func TestBuildApplication(t *testing.T) {
	s, err := parseSettings([]string{"-ref-db", ":memory:", "-env", "test"}, envMap(nil))
	require.NoError(t, err)

	application, err := buildApplication(s.config, nil)
	require.NoError(t, err)
	defer application.RefDB.Close()

	assert.NotNil(t, application.Importer)
	side, err := application.Directions.Resolve("东侧")
	require.NoError(t, err)
	assert.Equal(t, "right", string(side))
}

func TestBuildApplicationBadDirectionConfig(t *testing.T) {
	s, err := parseSettings([]string{"-ref-db", ":memory:", "-direction-config", "does-not-exist.json"}, envMap(nil))
	require.NoError(t, err)

	_, err = buildApplication(s.config, nil)
	assert.Error(t, err)
}
