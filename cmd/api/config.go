package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/geoconv"
)

// settings are the parsed command line. Flag defaults come from the
// environment, so flags win over .env values.
type settings struct {
	config   appconf.Config
	logLevel string
}

func parseSettings(args []string, getenv func(string) string) (settings, error) {
	var s settings
	var env, apiKeys string

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&s.config.Port, "port", envInt(getenv, "PORT", 4000), "API server port")
	fs.StringVar(&env, "env", envString(getenv, "APP_ENV", "development"), "Environment (development|test|production)")
	fs.StringVar(&apiKeys, "api-keys", envString(getenv, "API_KEYS", "test"), "Comma Separated API Keys (test, etc)")
	fs.IntVar(&s.config.RateLimit, "rate-limit", envInt(getenv, "RATE_LIMIT", 10), "Requests per window per API key, negative disables limiting")
	fs.DurationVar(&s.config.RateLimitWindow, "rate-limit-window", envDuration(getenv, "RATE_LIMIT_WINDOW", time.Second), "Window the rate limit applies to")
	fs.StringVar(&s.config.RefDBPath, "ref-db", envString(getenv, "REF_DB_PATH", "roadnet.db"), "Path to the SQLite reference database")
	fs.StringVar(&s.config.AreaCSVPath, "area-csv", envString(getenv, "AREA_CSV_PATH", ""), "Area table CSV loaded into the reference database at startup")
	fs.StringVar(&s.config.RoadAPIBaseURL, "road-api-url", envString(getenv, "ROAD_API_URL", "http://localhost:48080"), "Base URL of the road record service")
	fs.StringVar(&s.config.RoadAPIToken, "road-api-token", envString(getenv, "ROAD_API_TOKEN", ""), "Bearer token for the road record service")
	fs.StringVar(&s.config.GeoconvURL, "geoconv-url", envString(getenv, "BAIDU_GEOCONV_URL", geoconv.DefaultBaseURL), "Coordinate transform service URL")
	fs.StringVar(&s.config.GeoconvAK, "geoconv-ak", envString(getenv, "BAIDU_AK", ""), "Coordinate transform service access key")
	fs.DurationVar(&s.config.GeoconvSpacing, "geoconv-spacing", envDuration(getenv, "GEOCONV_SPACING", 300*time.Millisecond), "Minimum gap between transform requests")
	fs.DurationVar(&s.config.GeoconvTimeout, "geoconv-timeout", envDuration(getenv, "GEOCONV_TIMEOUT", 10*time.Second), "Timeout of one transform request")
	fs.StringVar(&s.config.DirectionConfigPath, "direction-config", envString(getenv, "DIRECTION_CONFIG_PATH", ""), "Direction mapping JSON, built-in table when empty")
	fs.StringVar(&s.logLevel, "log-level", envString(getenv, "LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}

	s.config.Env = appconf.EnvFlagToEnvironment(env)
	for _, key := range strings.Split(apiKeys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			s.config.ApiKeys = append(s.config.ApiKeys, key)
		}
	}

	if s.config.Port <= 0 || s.config.Port > 65535 {
		return settings{}, fmt.Errorf("invalid port %d", s.config.Port)
	}
	if s.config.GeoconvTimeout <= 0 {
		return settings{}, fmt.Errorf("geoconv timeout must be positive, got %s", s.config.GeoconvTimeout)
	}
	return s, nil
}

func envString(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(key))); err == nil {
		return n
	}
	return fallback
}

// envDuration accepts Go durations and plain milliseconds.
func envDuration(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
