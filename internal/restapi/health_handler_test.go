package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"roadnet.roadmap.org/internal/models"
)

func TestHealthHandler(t *testing.T) {
	api, _ := createTestApi(t)

	// no key required
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.CodeOK, model.Code)

	var data healthData
	decodeData(t, model, &data)
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "test", data.Env)
	assert.Equal(t, 1, data.RefTables["system_project"])
	assert.Equal(t, 4, data.RefTables["system_dict_data"])
}

func TestUnknownRoute(t *testing.T) {
	api, _ := createTestApi(t)

	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/where/stops", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeFailed, model.Code)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/tracks?key=TEST", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
