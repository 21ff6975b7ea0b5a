// Package importer turns country road sheet rows into road networks: it
// resolves the row's labels, generates its tracks and hands the corridor to
// the network assembler, one row at a time.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/network"
	"roadnet.roadmap.org/internal/stake"
	"roadnet.roadmap.org/internal/track"
	"roadnet.roadmap.org/refdb"
)

// MaxDisplayErrors bounds the errors shown to the user for one batch.
const MaxDisplayErrors = 10

// lengthTolerance is how far, in km, the declared road length may differ from
// the station range before a warning is logged.
const lengthTolerance = 0.1

// Resolver looks up reference identifiers. *refdb.Client implements it.
type Resolver interface {
	ResolveProject(ctx context.Context, name string) (refdb.Project, error)
	ResolveDictValue(ctx context.Context, dictType, label string) (string, error)
	ResolveCompany(ctx context.Context, name, typeLabel string) (int64, error)
	ResolveArea(ctx context.Context, name string) (int64, error)
}

// TrackGenerator builds the side tracks of a center line. *track.Generator implements it.
type TrackGenerator interface {
	Generate(ctx context.Context, center orb.LineString, width, interval float64) (*track.Result, error)
}

// NetworkBuilder creates the road tree of a corridor. *network.Assembler implements it.
type NetworkBuilder interface {
	Build(ctx context.Context, batch *network.BatchContext, c network.Corridor, ids network.Identifiers, tracks *track.Result, segments []stake.Segment) (*network.Result, error)
}

// RowError is a row that could not be turned into a corridor.
type RowError struct {
	Row int // spreadsheet row number
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RowResult is the outcome of one row.
type RowResult struct {
	Row          int      `json:"row"`
	RoadName     string   `json:"road_name"`
	Level1ID     int64    `json:"level1_id,omitempty"`
	Level1Reused bool     `json:"level1_reused,omitempty"`
	Level2IDs    []int64  `json:"level2_ids"`
	Level3IDs    []int64  `json:"level3_ids"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Summary is the outcome of one import run.
type Summary struct {
	BatchID       string        `json:"batch_id"`
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	TotalRows     int           `json:"total_rows"`
	ProcessedRows int           `json:"processed_rows"`
	FailedRows    int           `json:"failed_rows"`
	RoadResults   []RowResult   `json:"road_results"`
	Errors        []string      `json:"errors"`
	Duration      time.Duration `json:"-"`
}

// DisplayErrors returns at most MaxDisplayErrors errors.
func (s *Summary) DisplayErrors() []string {
	if len(s.Errors) <= MaxDisplayErrors {
		return s.Errors
	}
	return s.Errors[:MaxDisplayErrors]
}

type Importer struct {
	resolver Resolver
	mapper   *direction.Mapper
	tracks   TrackGenerator
	builder  NetworkBuilder
	logger   *slog.Logger

	last atomic.Pointer[Summary]
}

func NewImporter(resolver Resolver, mapper *direction.Mapper, tracks TrackGenerator, builder NetworkBuilder, logger *slog.Logger) *Importer {
	return &Importer{
		resolver: resolver,
		mapper:   mapper,
		tracks:   tracks,
		builder:  builder,
		logger:   logging.OrDefault(logger).With(slog.String("component", "importer")),
	}
}

// LastSummary returns the summary of the most recent run, or nil.
func (im *Importer) LastSummary() *Summary {
	return im.last.Load()
}

// Run imports rows in order under a new batch. Rows with empty required
// columns fail the whole batch before anything is created; otherwise each
// row succeeds or fails on its own.
func (im *Importer) Run(ctx context.Context, rows []Row) *Summary {
	start := time.Now()
	batch := network.NewBatchContext(uuid.NewString())
	logger := im.logger.With(slog.String("batch_id", batch.ID))
	summary := &Summary{BatchID: batch.ID, RoadResults: []RowResult{}, Errors: []string{}}
	defer func() {
		summary.Duration = time.Since(start)
		im.last.Store(summary)
	}()

	if msgs := ValidateRequired(rows); len(msgs) > 0 {
		summary.Message = "validation failed"
		summary.Errors = msgs
		logging.LogWarning(logger, "import rejected", errors.New(summary.Message),
			slog.Int("rows", len(rows)),
			slog.Int("missing", len(msgs)))
		return summary
	}

	summary.TotalRows = len(rows)
	for i, row := range rows {
		rowNum := i + FirstDataRow
		if err := ctx.Err(); err != nil {
			remaining := len(rows) - i
			summary.FailedRows += remaining
			summary.Errors = append(summary.Errors, fmt.Sprintf("rows %d-%d not imported: %v", rowNum, len(rows)+FirstDataRow-1, err))
			break
		}

		result, err := im.importRow(ctx, batch, rowNum, row)
		if err != nil {
			summary.FailedRows++
			summary.Errors = append(summary.Errors, err.Error())
			summary.RoadResults = append(summary.RoadResults, RowResult{
				Row:       rowNum,
				RoadName:  row.RoadName.String(),
				Level2IDs: []int64{},
				Level3IDs: []int64{},
				Errors:    []string{err.Error()},
			})
			logging.LogError(logger, "row import failed", err, slog.Int("row", rowNum))
			continue
		}

		summary.RoadResults = append(summary.RoadResults, *result)
		if len(result.Errors) > 0 {
			summary.FailedRows++
			for _, msg := range result.Errors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %s", rowNum, msg))
			}
			continue
		}
		summary.ProcessedRows++
	}

	if summary.FailedRows > 0 {
		summary.Message = fmt.Sprintf("partial failure: %d rows imported, %d rows failed", summary.ProcessedRows, summary.FailedRows)
	} else {
		summary.Success = true
		summary.Message = fmt.Sprintf("all rows imported: %d rows", summary.ProcessedRows)
	}

	logging.LogOperation(logger, "import_completed",
		slog.Int("total_rows", summary.TotalRows),
		slog.Int("processed_rows", summary.ProcessedRows),
		slog.Int("failed_rows", summary.FailedRows),
		slog.Duration("duration", time.Since(start)))

	return summary
}

// importRow returns an error when the row failed before any node below
// level 1 was attempted.
func (im *Importer) importRow(ctx context.Context, batch *network.BatchContext, rowNum int, row Row) (*RowResult, error) {
	logger := im.logger.With(slog.String("batch_id", batch.ID), slog.Int("row", rowNum))
	fail := func(err error) (*RowResult, error) {
		return nil, &RowError{Row: rowNum, Err: err}
	}
	var warnings []string
	warn := func(msg string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", msg, err))
		logging.LogWarning(logger, msg, err)
	}

	project, err := im.resolver.ResolveProject(ctx, row.Project.String())
	if err != nil {
		return fail(err)
	}
	lanes, err := ParseLaneCount(row.LaneCount.String())
	if err != nil {
		return fail(err)
	}
	roadType, err := im.resolver.ResolveDictValue(ctx, refdb.DictRoadType, row.RoadType.String())
	if err != nil {
		return fail(err)
	}

	stations, err := parseStations(row)
	if err != nil {
		return fail(err)
	}
	segments, computedKm, interval := stations.segments, stations.km, stations.interval
	declaredKm, err := parseFloat(ColLengthKm, row.LengthKm)
	if err != nil {
		return fail(err)
	}
	if math.Abs(declaredKm-computedKm) > lengthTolerance {
		logger.Warn("declared road length differs from station range",
			slog.Float64("declared_km", declaredKm),
			slog.Float64("computed_km", computedKm))
	}

	structure, err := im.resolver.ResolveDictValue(ctx, refdb.DictStructure, row.Structure.String())
	if err != nil {
		return fail(err)
	}

	directions, err := im.mapper.ResolveAll(row.DriveDirection.String())
	if err != nil {
		return fail(err)
	}
	codes := make(map[string]string, len(directions))
	for _, d := range directions {
		code, err := im.resolver.ResolveDictValue(ctx, refdb.DictDriveDirection, d.Label)
		if err != nil {
			return fail(err)
		}
		codes[d.Label] = code
	}

	maintStart, err := ParseTimestamp(ColMaintenanceStart, row.MaintenanceStart.String())
	if err != nil {
		return fail(err)
	}
	maintEnd, err := ParseTimestamp(ColMaintenanceEnd, row.MaintenanceEnd.String())
	if err != nil {
		return fail(err)
	}

	width, err := parseFloat(ColWidth, row.Width)
	if err != nil {
		return fail(err)
	}

	corridor := network.Corridor{
		Name:       row.RoadName.String(),
		LengthKm:   declaredKm,
		Width:      width,
		LaneCount:  lanes,
		RoadType:   roadType,
		StartStake: stations.start,
		EndStake:   stations.end,
		Interval:   interval,
		Directions: directions,
		CenterLine: row.Coordinates.LineString(),
	}
	if err := corridor.Validate(); err != nil {
		return fail(err)
	}

	// bad geometry only costs the row its tracks; a failed transform fails the row
	tracks, err := im.tracks.Generate(ctx, corridor.CenterLine, width, float64(interval))
	if err != nil {
		var geomErr *track.GeometryError
		if !errors.As(err, &geomErr) {
			return fail(err)
		}
		warn("tracks not generated, roads created without geometry", err)
		tracks = nil
	}

	ids := network.Identifiers{
		Scope:            network.Scope{ProjectID: project.ID, TenantID: project.TenantID},
		StructureCode:    structure,
		DirectionCodes:   codes,
		MaintenanceStart: maintStart,
		MaintenanceEnd:   maintEnd,
	}
	im.resolveOptional(ctx, logger, row, &ids)

	// node failures below level 1 are in built.Errors; a non-nil err means
	// the level-1 road was not created and nothing else was attempted
	built, err := im.builder.Build(ctx, batch, corridor, ids, tracks, segments)
	if err != nil {
		return fail(err)
	}
	if built == nil {
		built = &network.Result{RoadName: corridor.Name}
	}

	return &RowResult{
		Row:          rowNum,
		RoadName:     corridor.Name,
		Level1ID:     built.Level1ID,
		Level1Reused: built.Level1Reused,
		Level2IDs:    nonNil(built.Level2IDs),
		Level3IDs:    nonNil(built.Level3IDs),
		Errors:       built.ErrorMessages(),
		Warnings:     append(warnings, built.Warnings...),
	}, nil
}

// resolveOptional fills in the company and district ids a row names. A name
// that cannot be resolved is logged and left out.
func (im *Importer) resolveOptional(ctx context.Context, logger *slog.Logger, row Row, ids *network.Identifiers) {
	companies := []struct {
		typeLabel string
		name      Cell
		dst       *int64
	}{
		{"设计单位", row.DesignUnit, &ids.Companies.Designer},
		{"施工单位", row.ConstructionUnit, &ids.Companies.Construction},
		{"管理单位", row.ManagerUnit, &ids.Companies.Manager},
		{"建设单位", row.OwnerUnit, &ids.Companies.Owner},
		{"监理单位", row.SupervisionUnit, &ids.Companies.Supervision},
		{"养护单位", row.OperationUnit, &ids.Companies.Operation},
	}
	for _, c := range companies {
		if c.name.Empty() {
			continue
		}
		id, err := im.resolver.ResolveCompany(ctx, c.name.String(), c.typeLabel)
		if err != nil {
			logging.LogWarning(logger, "company not resolved", err,
				slog.String("company_type", c.typeLabel),
				slog.String("name", c.name.String()))
			continue
		}
		*c.dst = id
	}

	if !row.District.Empty() {
		id, err := im.resolver.ResolveArea(ctx, row.District.String())
		if err != nil {
			logging.LogWarning(logger, "district not resolved", err,
				slog.String("district", row.District.String()))
			return
		}
		ids.DistrictID = id
	}
}

type stationRange struct {
	segments   []stake.Segment
	km         float64
	start, end string
	interval   int
}

// parseStations reads the station columns. A start stake written as a km
// range such as 0-1.5 is the legacy form: it is cut at stake.LegacyInterval
// and the end stake and interval columns are ignored.
func parseStations(row Row) (stationRange, error) {
	if _, err := stake.ParseStake(row.StartStake.String()); err != nil {
		if segments, km, legacyErr := stake.ParseLegacy(row.StartStake.String()); legacyErr == nil {
			return stationRange{
				segments: segments,
				km:       km,
				start:    segments[0].Start,
				end:      segments[len(segments)-1].End,
				interval: min(stake.LegacyInterval, segments[0].Length()),
			}, nil
		}
	}

	interval, err := parseInterval(row.Interval)
	if err != nil {
		return stationRange{}, err
	}
	segments, km, err := stake.Parse(row.StartStake.String(), row.EndStake.String(), interval)
	if err != nil {
		return stationRange{}, err
	}
	return stationRange{
		segments: segments,
		km:       km,
		start:    row.StartStake.String(),
		end:      row.EndStake.String(),
		interval: interval,
	}, nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
