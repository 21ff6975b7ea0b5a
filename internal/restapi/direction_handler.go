package restapi

import (
	"errors"
	"net/http"

	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/models"
	"roadnet.roadmap.org/internal/utils"
)

type directionEntry struct {
	Label string         `json:"label"`
	Side  direction.Side `json:"side"`
}

// directionHandler reports which track a driving direction label runs on.
func (api *RestAPI) directionHandler(w http.ResponseWriter, r *http.Request) {
	label := utils.SanitizeInput(utils.ExtractParam(r, "label"))
	if err := utils.ValidateLabel(label); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"label": {err.Error()}})
		return
	}

	side, err := api.Directions.Resolve(label)
	if err != nil {
		var unknown *direction.UnknownDirectionError
		if errors.As(err, &unknown) {
			api.sendResponse(w, r, http.StatusNotFound, models.NewFailedResponse(err.Error(), struct {
				KnownLabels []string `json:"knownLabels"`
			}{api.Directions.Labels()}))
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, http.StatusOK, models.NewOKResponse(directionEntry{Label: label, Side: side}))
}
