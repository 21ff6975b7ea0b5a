package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/internal/models"
	"roadnet.roadmap.org/internal/track"
	"roadnet.roadmap.org/internal/utils"
)

const maxTracksBodyBytes = 4 << 20

type tracksRequest struct {
	Coordinates importer.Coordinates `json:"coordinates"`
	Width       float64              `json:"width"`
	Interval    float64              `json:"interval"`
}

func (api *RestAPI) tracksHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTracksBodyBytes)

	var req tracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.badRequestResponse(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	center := req.Coordinates.LineString()
	if fieldErrors := utils.ValidateTrackParams(center, req.Width, req.Interval); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Tracks.Generate(r.Context(), center, req.Width, req.Interval)
	if err != nil {
		var geomErr *track.GeometryError
		switch {
		case errors.As(err, &geomErr):
			api.validationErrorResponse(w, r, map[string][]string{"coordinates": {geomErr.Error()}})
		case isServiceError(err):
			api.upstreamErrorResponse(w, r, err)
		default:
			api.serverErrorResponse(w, r, err)
		}
		return
	}

	api.sendResponse(w, r, http.StatusOK, models.NewOKResponse(models.NewTracksData(result)))
}
