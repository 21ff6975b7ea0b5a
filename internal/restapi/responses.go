package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, status int, response models.ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err,
			slog.String("path", r.URL.Path))
	}
}
