// Package app holds the dependencies shared by the HTTP handlers.
package app

import (
	"log/slog"

	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/refdb"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config     appconf.Config
	Logger     *slog.Logger
	RefDB      *refdb.Client
	Directions *direction.Mapper
	Tracks     importer.TrackGenerator
	Importer   *importer.Importer
}
