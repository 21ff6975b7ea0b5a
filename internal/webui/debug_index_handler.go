package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"roadnet.roadmap.org/internal/app"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// WebUI serves debug pages that dump the running importer's state.
type WebUI struct {
	*app.Application
}

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "directions":
		data = webUI.Directions.Table()
		title = "Direction Mapping"
	case "config":
		data = webUI.Config.Redacted()
		title = "Configuration"
	case "last_import":
		if summary := webUI.Importer.LastSummary(); summary != nil {
			data = summary
		} else {
			data = map[string]string{"status": "no import has run yet"}
		}
		title = "Last Import"
	default:
		data = map[string]string{
			"error": "Please use one of the following: directions, config, last_import.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
