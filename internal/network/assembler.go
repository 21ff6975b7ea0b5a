package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/stake"
	"roadnet.roadmap.org/internal/track"
)

// NodeCreator creates one road node and returns its id.
type NodeCreator interface {
	CreateNode(ctx context.Context, scope Scope, payload Payload) (int64, error)
}

// NodeError is a failed node creation that did not stop the corridor.
type NodeError struct {
	Level int
	Name  string
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("level %d road %s: %v", e.Level, e.Name, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Result is the outcome of assembling one corridor.
type Result struct {
	RoadName     string
	Level1ID     int64
	Level1Reused bool
	Level2IDs    []int64
	Level3IDs    []int64
	Errors       []error
	Warnings     []string
}

// ErrorMessages returns the node errors as text.
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

type Assembler struct {
	creator NodeCreator
	logger  *slog.Logger
}

func NewAssembler(creator NodeCreator, logger *slog.Logger) *Assembler {
	return &Assembler{
		creator: creator,
		logger:  logging.OrDefault(logger).With(slog.String("component", "network_assembler")),
	}
}

// Build creates the road tree of c. The level-1 road is taken from batch when
// a road of the same name was already created in this run. A failed level-2
// or level-3 creation is recorded in the result and the rest continue; only a
// level-1 failure stops the corridor, and is returned as the error.
//
// tracks may be nil, in which case level-3 roads are created without geometry.
func (a *Assembler) Build(ctx context.Context, batch *BatchContext, c Corridor, ids Identifiers, tracks *track.Result, segments []stake.Segment) (*Result, error) {
	start := time.Now()
	result := &Result{RoadName: c.Name}
	logger := a.logger.With(slog.String("road", c.Name), slog.String("batch_id", batch.ID))

	level1ID, reused, err := batch.ResolveLevel1(c.Name, func() (int64, error) {
		payload, err := NewLevel1Payload(c)
		if err != nil {
			return 0, err
		}
		return a.creator.CreateNode(ctx, ids.Scope, payload)
	})
	if err != nil {
		err = &NodeError{Level: 1, Name: c.Name, Err: err}
		result.Errors = append(result.Errors, err)
		logging.LogError(logger, "level-1 road creation failed", err)
		return result, err
	}
	result.Level1ID, result.Level1Reused = level1ID, reused
	if reused {
		logger.Info("reusing level-1 road", slog.Int64("level1_id", level1ID))
	}

	for _, seg := range segments {
		level2ID, err := a.createLevel2(ctx, level1ID, seg, ids)
		if err != nil {
			result.Errors = append(result.Errors, err)
			logging.LogError(logger, "level-2 road creation failed", err, slog.Int("segment", seg.Index))
			continue
		}
		result.Level2IDs = append(result.Level2IDs, level2ID)

		for i, dir := range c.Directions {
			startStake, endStake := seg.Start, seg.End
			if i > 0 {
				// opposite direction of travel over the same segment
				startStake, endStake = seg.End, seg.Start
			}

			payload, err := NewLevel3Payload(level2ID, dir.Label, startStake, endStake, c, ids)
			if err != nil {
				result.Errors = append(result.Errors, &NodeError{Level: 3, Name: dir.Label, Err: err})
				continue
			}
			if tracks != nil && tracks.Segmented() {
				geo, err := segmentGeometry(tracks, dir.Side, seg.Index)
				if err != nil {
					msg := fmt.Sprintf("%s: geometry skipped: %v", payload.Name, err)
					result.Warnings = append(result.Warnings, msg)
					logging.LogWarning(logger, "level-3 road created without geometry", err,
						slog.String("name", payload.Name))
				}
				payload.GeoJSON = geo
			}

			level3ID, err := a.creator.CreateNode(ctx, ids.Scope, payload)
			if err != nil {
				err = &NodeError{Level: 3, Name: payload.Name, Err: err}
				result.Errors = append(result.Errors, err)
				logging.LogError(logger, "level-3 road creation failed", err, slog.Int("segment", seg.Index))
				continue
			}
			result.Level3IDs = append(result.Level3IDs, level3ID)
		}
	}

	logging.LogOperation(logger, "road_network_built",
		slog.Int64("level1_id", level1ID),
		slog.Int("level2_count", len(result.Level2IDs)),
		slog.Int("level3_count", len(result.Level3IDs)),
		slog.Int("error_count", len(result.Errors)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (a *Assembler) createLevel2(ctx context.Context, parentID int64, seg stake.Segment, ids Identifiers) (int64, error) {
	payload, err := NewLevel2Payload(parentID, seg, ids)
	if err != nil {
		return 0, &NodeError{Level: 2, Name: seg.Start + "-" + seg.End, Err: err}
	}
	id, err := a.creator.CreateNode(ctx, ids.Scope, payload)
	if err != nil {
		return 0, &NodeError{Level: 2, Name: payload.Name, Err: err}
	}
	return id, nil
}

func segmentGeometry(tracks *track.Result, side track.Side, index int) (string, error) {
	seg, err := tracks.SegmentAt(side, index)
	if err != nil {
		return "", err
	}
	return SegmentGeoJSON(seg)
}
