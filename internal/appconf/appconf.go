package appconf

import (
	"strings"
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment converts the -env flag value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds all the configuration settings for the Application.
type Config struct {
	Port            int
	Env             Environment
	ApiKeys         []string
	RateLimit       int           // requests per RateLimitWindow per API key
	RateLimitWindow time.Duration // one second when unset

	// Reference data used to resolve spreadsheet labels to identifiers.
	RefDBPath   string
	AreaCSVPath string

	// Road-record service that receives created nodes.
	RoadAPIBaseURL string
	RoadAPIToken   string

	// Coordinate transform service.
	GeoconvURL     string
	GeoconvAK      string
	GeoconvSpacing time.Duration
	GeoconvTimeout time.Duration

	DirectionConfigPath string
}

// Redacted returns a copy of the config that is safe to show on debug pages.
func (c Config) Redacted() Config {
	out := c
	if out.RoadAPIToken != "" {
		out.RoadAPIToken = "***"
	}
	if out.GeoconvAK != "" {
		out.GeoconvAK = "***"
	}
	if len(out.ApiKeys) > 0 {
		out.ApiKeys = []string{"***"}
	}
	return out
}
