package restapi

import (
	"errors"
	"log/slog"
	"net/http"

	"roadnet.roadmap.org/internal/geoconv"
	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/models"
)

// invalidAPIKeyResponse sends a 401 Unauthorized response for a missing or unknown key
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, http.StatusUnauthorized, models.NewFailedResponse("permission denied", nil))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.sendResponse(w, r, http.StatusInternalServerError, models.NewFailedResponse("internal server error", nil))
}

// upstreamErrorResponse sends a 502 Bad Gateway when a service this one
// depends on failed.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "upstream service failed", err,
		slog.String("path", r.URL.Path))
	api.sendResponse(w, r, http.StatusBadGateway, models.NewFailedResponse(err.Error(), nil))
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := models.NewFailedResponse("validation failed", struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	})
	api.sendResponse(w, r, http.StatusBadRequest, response)
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.sendResponse(w, r, http.StatusBadRequest, models.NewFailedResponse(err.Error(), nil))
}

func (api *RestAPI) notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendResponse(w, r, http.StatusNotFound, models.NewFailedResponse(message, nil))
}

func isServiceError(err error) bool {
	var serviceErr *geoconv.ServiceError
	return errors.As(err, &serviceErr)
}
