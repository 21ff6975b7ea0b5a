package restapi

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"roadnet.roadmap.org/internal/models"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// keyed checks the API key and then the key's rate limit.
func (api *RestAPI) keyed(h handlerFunc) http.Handler {
	protected := validateAPIKey(api, h)
	if api.rateLimiter == nil {
		return protected
	}
	return api.rateLimiter(protected)
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.Handler(http.MethodPost, "/countryside/import_data", api.keyed(api.importHandler))
	router.Handler(http.MethodPost, "/tracks", api.keyed(api.tracksHandler))
	router.Handler(http.MethodGet, "/directions/:label", api.keyed(api.directionHandler))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.notFoundResponse(w, r, "not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendResponse(w, r, http.StatusMethodNotAllowed, models.NewFailedResponse("method not allowed", nil))
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.Logger.Error("handler panic", slog.Any("panic", v), slog.String("path", r.URL.Path))
		api.sendResponse(w, r, http.StatusInternalServerError, models.NewFailedResponse("internal server error", nil))
	}
}

// WithMiddleware wraps the router in the shared middleware: request logging
// outermost, then compression and security headers.
func (api *RestAPI) WithMiddleware(handler http.Handler) http.Handler {
	handler = api.WithSecurityHeaders(handler)
	handler = CompressionMiddleware(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}
