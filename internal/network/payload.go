package network

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"

	"roadnet.roadmap.org/internal/stake"
	"roadnet.roadmap.org/internal/track"
)

// Payload is the body of one node creation request.
type Payload interface {
	Level() int
	DisplayName() string
}

type Level1Payload struct {
	Name           string  `json:"name"`
	Length         float64 `json:"length"` // km
	LaneCount      string  `json:"ext3"`
	AdministerFlag bool    `json:"administerFlag"`
	Hierarchy      int     `json:"hierarchy"`
	RoadType       string  `json:"ext1"`
}

func NewLevel1Payload(c Corridor) (*Level1Payload, error) {
	if c.Name == "" {
		return nil, &FieldError{Field: "name", Reason: "must not be empty"}
	}
	if c.LaneCount < 1 {
		return nil, &FieldError{Field: "lane count", Reason: fmt.Sprintf("must be at least 1, got %d", c.LaneCount)}
	}
	return &Level1Payload{
		Name:           c.Name,
		Length:         c.LengthKm,
		LaneCount:      strconv.Itoa(c.LaneCount),
		AdministerFlag: true,
		Hierarchy:      1,
		RoadType:       c.RoadType,
	}, nil
}

func (p *Level1Payload) Level() int          { return 1 }
func (p *Level1Payload) DisplayName() string { return p.Name }

type Level2Payload struct {
	Name            string `json:"name"`
	ParentID        int64  `json:"parentId"`
	Length          int    `json:"length"` // meters
	AdministerFlag  bool   `json:"administerFlag"`
	Hierarchy       int    `json:"hierarchy"`
	SegmentStartID  string `json:"segmentStartId"`
	SegmentEndID    string `json:"segmentEndId"`
	OptStartDate    int64  `json:"optStartDate,omitempty"`
	OptEndDate      int64  `json:"optEndDate,omitempty"`
	Structure       string `json:"ext2,omitempty"`
	ManagerCom      int64  `json:"managerCom,omitempty"`
	OwnerCom        int64  `json:"ownerCom,omitempty"`
	SupervisionCom  int64  `json:"supervisionCom,omitempty"`
	OperationCom    int64  `json:"operationCom,omitempty"`
	DesignerCom     int64  `json:"designerCom,omitempty"`
	ConstructionCom int64  `json:"constructionCom,omitempty"`
	District        int64  `json:"district,omitempty"`
}

// NewLevel2Payload builds the level-2 road for one station segment. Its
// length is the segment's own length, so the clamped last segment reports
// its real size.
func NewLevel2Payload(parentID int64, seg stake.Segment, ids Identifiers) (*Level2Payload, error) {
	if parentID == 0 {
		return nil, &FieldError{Field: "parent id", Reason: "level-2 road needs a level-1 parent"}
	}
	if seg.Length() <= 0 {
		return nil, &FieldError{Field: "segment", Reason: fmt.Sprintf("%s-%s has no length", seg.Start, seg.End)}
	}
	return &Level2Payload{
		Name:            seg.Start + "-" + seg.End,
		ParentID:        parentID,
		Length:          seg.Length(),
		AdministerFlag:  true,
		Hierarchy:       2,
		SegmentStartID:  seg.Start,
		SegmentEndID:    seg.End,
		OptStartDate:    ids.MaintenanceStart,
		OptEndDate:      ids.MaintenanceEnd,
		Structure:       ids.StructureCode,
		ManagerCom:      ids.Companies.Manager,
		OwnerCom:        ids.Companies.Owner,
		SupervisionCom:  ids.Companies.Supervision,
		OperationCom:    ids.Companies.Operation,
		DesignerCom:     ids.Companies.Designer,
		ConstructionCom: ids.Companies.Construction,
		District:        ids.DistrictID,
	}, nil
}

func (p *Level2Payload) Level() int          { return 2 }
func (p *Level2Payload) DisplayName() string { return p.Name }

type Level3Payload struct {
	Name           string  `json:"name"`
	ParentID       int64   `json:"parentId"`
	LaneCount      string  `json:"ext3"`
	AdministerFlag bool    `json:"administerFlag"`
	Hierarchy      int     `json:"hierarchy"`
	SegmentStartID string  `json:"segmentStartId"`
	SegmentEndID   string  `json:"segmentEndId"`
	DriveDirection string  `json:"driveDirection"`
	Width          float64 `json:"width"`
	GeoJSON        string  `json:"geojson,omitempty"`
}

// NewLevel3Payload builds the level-3 road of one direction over a segment.
// Callers pass the stakes already ordered for the direction of travel.
func NewLevel3Payload(parentID int64, label, startStake, endStake string, c Corridor, ids Identifiers) (*Level3Payload, error) {
	if parentID == 0 {
		return nil, &FieldError{Field: "parent id", Reason: "level-3 road needs a level-2 parent"}
	}
	code := ids.DirectionCodes[label]
	if code == "" {
		return nil, &FieldError{Field: "drive direction", Reason: fmt.Sprintf("no code for %q", label)}
	}
	return &Level3Payload{
		Name:           fmt.Sprintf("(%s)%s-%s", label, startStake, endStake),
		ParentID:       parentID,
		LaneCount:      strconv.Itoa(c.Level3LaneCount()),
		AdministerFlag: true,
		Hierarchy:      3,
		SegmentStartID: startStake,
		SegmentEndID:   endStake,
		DriveDirection: code,
		Width:          c.Width / 2,
	}, nil
}

func (p *Level3Payload) Level() int          { return 3 }
func (p *Level3Payload) DisplayName() string { return p.Name }

type lineGeometry struct {
	Type        string         `json:"type"`
	Coordinates orb.LineString `json:"coordinates"`
	Length      float64        `json:"length"` // km
}

type lineFeature struct {
	Type     string       `json:"type"`
	Geometry lineGeometry `json:"geometry"`
}

// SegmentGeoJSON renders a track segment as the single-feature array the
// road record service stores: a two-point LineString with its length in km.
func SegmentGeoJSON(seg track.Segment) (string, error) {
	features := []lineFeature{{
		Type: "Feature",
		Geometry: lineGeometry{
			Type:        "LineString",
			Coordinates: orb.LineString{seg.Start, seg.End},
			Length:      seg.Length / 1000,
		},
	}}
	b, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encoding segment geometry: %w", err)
	}
	return string(b), nil
}
