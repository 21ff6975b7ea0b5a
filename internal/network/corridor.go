// Package network assembles the three-level road hierarchy of a corridor:
// one level-1 road, a level-2 road per station segment, and a level-3 road
// per segment and driving direction.
package network

import (
	"fmt"

	"github.com/paulmach/orb"

	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/stake"
)

// FieldError reports an input field that fails validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Corridor describes one road as read from an import row.
type Corridor struct {
	Name       string
	LengthKm   float64
	Width      float64 // meters
	LaneCount  int
	RoadType   string // dictionary code
	StartStake string
	EndStake   string
	Interval   int // meters
	Directions []direction.Resolved
	CenterLine orb.LineString // lng/lat
}

func (c Corridor) Validate() error {
	if c.Name == "" {
		return &FieldError{Field: "name", Reason: "must not be empty"}
	}
	if c.Width <= 0 {
		return &FieldError{Field: "width", Reason: fmt.Sprintf("must be positive, got %v", c.Width)}
	}
	if c.LaneCount < 1 {
		return &FieldError{Field: "lane count", Reason: fmt.Sprintf("must be at least 1, got %d", c.LaneCount)}
	}
	if len(c.Directions) == 0 {
		return &FieldError{Field: "directions", Reason: "at least one driving direction is required"}
	}
	if len(c.CenterLine) < 2 {
		return &FieldError{Field: "center line", Reason: fmt.Sprintf("has %d points, need at least 2", len(c.CenterLine))}
	}

	start, err := stake.ParseStake(c.StartStake)
	if err != nil {
		return &stake.FormatError{Field: "start stake", Value: c.StartStake}
	}
	end, err := stake.ParseStake(c.EndStake)
	if err != nil {
		return &stake.FormatError{Field: "end stake", Value: c.EndStake}
	}
	if end <= start {
		return &stake.RangeError{Field: "stake range", Reason: "end stake must be greater than start stake"}
	}
	if c.Interval <= 0 || c.Interval > end-start {
		return &stake.RangeError{
			Field:  "interval",
			Reason: fmt.Sprintf("%d m must be in (0, %d]", c.Interval, end-start),
		}
	}
	return nil
}

// Level3LaneCount is the lane count of one direction: half the road, at least one.
func (c Corridor) Level3LaneCount() int {
	return max(1, c.LaneCount/2)
}

// Companies holds the optional company ids of a level-2 road. Zero means unset.
type Companies struct {
	Manager      int64
	Owner        int64
	Supervision  int64
	Operation    int64
	Designer     int64
	Construction int64
}

// Identifiers are the looked-up codes and ids a corridor's nodes refer to.
type Identifiers struct {
	Scope         Scope
	StructureCode string
	// DirectionCodes maps each direction label to its drive_direction code.
	DirectionCodes   map[string]string
	Companies        Companies
	DistrictID       int64
	MaintenanceStart int64 // ms since epoch
	MaintenanceEnd   int64
}

// Scope selects the project and tenant node creation runs under.
type Scope struct {
	ProjectID int64
	TenantID  int64
}
