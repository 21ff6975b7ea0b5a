package restapi

import (
	"net/http"
	"time"

	"roadnet.roadmap.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a RestAPI limiting each key to Config.RateLimit requests
// per Config.RateLimitWindow.
func NewRestAPI(app *app.Application) *RestAPI {
	window := app.Config.RateLimitWindow
	if window <= 0 {
		window = time.Second
	}
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, window),
	}
}
