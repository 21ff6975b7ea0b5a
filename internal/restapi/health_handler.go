package restapi

import (
	"net/http"

	"roadnet.roadmap.org/internal/models"
)

type healthData struct {
	Status    string         `json:"status"`
	Env       string         `json:"env"`
	RefTables map[string]int `json:"refTables,omitempty"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	data := healthData{Status: "ok", Env: api.Config.Env.String()}

	if api.RefDB != nil {
		counts, err := api.RefDB.TableCounts(r.Context())
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		data.RefTables = counts
	}

	api.sendResponse(w, r, http.StatusOK, models.NewOKResponse(data))
}
