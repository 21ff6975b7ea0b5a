package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/internal/models"
)

const maxImportBodyBytes = 32 << 20

type importRequest struct {
	Rows []importer.Row `json:"rows"`
}

// importHandler runs one import batch. The batch is answered with 200 only
// when every row was imported.
func (api *RestAPI) importHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodyBytes)

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.badRequestResponse(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Rows) == 0 {
		api.validationErrorResponse(w, r, map[string][]string{
			"rows": {"at least one row is required"},
		})
		return
	}

	summary := api.Importer.Run(r.Context(), req.Rows)

	status, code := http.StatusOK, models.CodeOK
	if !summary.Success {
		status, code = http.StatusBadRequest, models.CodeFailed
	}
	api.sendResponse(w, r, status, models.NewResponse(code, models.NewImportData(summary), summary.Message))
}
