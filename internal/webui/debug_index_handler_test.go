package webui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"

	"roadnet.roadmap.org/internal/app"
	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/importer"
)

func newTestWebUI() *WebUI {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &WebUI{Application: &app.Application{
		Config: appconf.Config{
			Env:          appconf.Test,
			ApiKeys:      []string{"TEST"},
			RoadAPIToken: "road-secret",
		},
		Logger:     logger,
		Directions: direction.NewMapper(direction.DefaultTable()),
		Importer:   importer.NewImporter(nil, nil, nil, nil, logger),
	}}
}

func getDebugPage(t *testing.T, webUI *WebUI, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := httprouter.New()
	webUI.SetWebUIRoutes(router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func TestDebugIndexHandler(t *testing.T) {
	webUI := newTestWebUI()

	tests := []struct {
		name     string
		target   string
		contains []string
		excludes []string
	}{
		{"directions", "/debug/?dataType=directions", []string{"Direction Mapping", "东侧", "right"}, nil},
		{"config redacts secrets", "/debug/?dataType=config", []string{"Configuration", "***"}, []string{"road-secret", "TEST"}},
		{"no import yet", "/debug/?dataType=last_import", []string{"Last Import", "no import has run yet"}, nil},
		{"unknown type", "/debug/", []string{"Choose a data type", "last_import"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := getDebugPage(t, webUI, tt.target)
			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Contains(t, recorder.Header().Get("Content-Type"), "text/html")

			body := recorder.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestDebugIndexHandlerLastImport(t *testing.T) {
	webUI := newTestWebUI()

	// a batch that fails validation still becomes the last summary
	webUI.Importer.Run(context.Background(), []importer.Row{{}})

	body := getDebugPage(t, webUI, "/debug/?dataType=last_import").Body.String()
	assert.Contains(t, body, "validation failed")
}
