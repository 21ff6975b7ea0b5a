package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"

	"roadnet.roadmap.org/internal/app"
	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/geoconv"
	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/network"
	"roadnet.roadmap.org/internal/restapi"
	"roadnet.roadmap.org/internal/roadapi"
	"roadnet.roadmap.org/internal/track"
	"roadnet.roadmap.org/internal/webui"
	"roadnet.roadmap.org/refdb"
)

func main() {
	_ = godotenv.Load(".env")

	s, err := parseSettings(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg := s.config

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(s.logLevel))

	application, err := buildApplication(cfg, logger)
	if err != nil {
		logging.LogError(logger, "failed to initialize application", err)
		os.Exit(1)
	}

	api := restapi.NewRestAPI(application)
	router := httprouter.New()
	api.SetRoutes(router)
	if cfg.Env != appconf.Production {
		(&webui.WebUI{Application: application}).SetWebUIRoutes(router)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     api.WithMiddleware(router),
		IdleTimeout: time.Minute,
		ReadTimeout: 30 * time.Second,
		// imports transform and create nodes row by row
		WriteTimeout: 10 * time.Minute,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
	err = srv.ListenAndServe()
	logger.Error(err.Error())
	logging.SafeCloseWithLogging(application.RefDB, logger, "reference database")
	os.Exit(1)
}

func buildApplication(cfg appconf.Config, logger *slog.Logger) (*app.Application, error) {
	db, err := refdb.NewClient(refdb.NewConfig(cfg.RefDBPath, cfg.Env, logger))
	if err != nil {
		return nil, err
	}
	if cfg.AreaCSVPath != "" {
		n, err := db.LoadAreaCSV(context.Background(), cfg.AreaCSVPath)
		if err != nil {
			logging.SafeCloseWithLogging(db, logger, "reference database")
			return nil, err
		}
		logging.LogOperation(logger, "areas_loaded", slog.Int("count", n), slog.String("path", cfg.AreaCSVPath))
	}

	mapper := direction.NewMapper(direction.DefaultTable())
	if cfg.DirectionConfigPath != "" {
		if mapper, err = direction.LoadMapper(cfg.DirectionConfigPath); err != nil {
			logging.SafeCloseWithLogging(db, logger, "reference database")
			return nil, err
		}
	}

	transformer := geoconv.NewClient(cfg.GeoconvURL, cfg.GeoconvAK,
		geoconv.WithSpacing(cfg.GeoconvSpacing),
		geoconv.WithTimeout(cfg.GeoconvTimeout),
		geoconv.WithLogger(logger))
	roads := roadapi.NewClient(cfg.RoadAPIBaseURL, cfg.RoadAPIToken, roadapi.WithLogger(logger))
	tracks := track.NewGenerator(transformer, logger)

	return &app.Application{
		Config:     cfg,
		Logger:     logger,
		RefDB:      db,
		Directions: mapper,
		Tracks:     tracks,
		Importer:   importer.NewImporter(db, mapper, tracks, network.NewAssembler(roads, logger), logger),
	}, nil
}
