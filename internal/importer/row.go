package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// FirstDataRow is the spreadsheet row number of the first data row: the
// sheet has a title row and a header row above the data.
const FirstDataRow = 3

// Cell is a spreadsheet value. JSON strings are kept as is and numbers keep
// their literal text, so Excel date serials and numeric columns survive.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cell must be a string or a number, got %s", string(data))
		}
		*c = Cell(n.String())
	}
	return nil
}

// String returns the trimmed cell text.
func (c Cell) String() string {
	return strings.TrimSpace(string(c))
}

func (c Cell) Empty() bool {
	return c.String() == ""
}

// Coordinates is the center line of a road as [lng, lat] pairs. The column
// may hold the array itself or the array written out as text.
type Coordinates [][]float64

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*c = nil
			return nil
		}
		data = []byte(s)
	}

	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("coordinates must be a list of [lng, lat] pairs: %w", err)
	}
	for i, p := range pairs {
		if len(p) < 2 {
			return fmt.Errorf("coordinate %d has %d values, need lng and lat", i, len(p))
		}
	}
	*c = pairs
	return nil
}

func (c Coordinates) LineString() orb.LineString {
	line := make(orb.LineString, len(c))
	for i, p := range c {
		line[i] = orb.Point{p[0], p[1]}
	}
	return line
}

// Row is one data row of the country road import sheet.
type Row struct {
	Project          Cell        `json:"project"`
	RoadName         Cell        `json:"roadName"`
	LengthKm         Cell        `json:"lengthKm"`
	Width            Cell        `json:"width"`
	LaneCount        Cell        `json:"laneCount"`
	RoadType         Cell        `json:"roadType"`
	StartStake       Cell        `json:"startStake"`
	EndStake         Cell        `json:"endStake"`
	Interval         Cell        `json:"interval"`
	Structure        Cell        `json:"structure"`
	DriveDirection   Cell        `json:"driveDirection"`
	MaintenanceStart Cell        `json:"maintenanceStart"`
	MaintenanceEnd   Cell        `json:"maintenanceEnd"`
	StartPosition    Cell        `json:"startPosition"`
	EndPosition      Cell        `json:"endPosition"`
	Coordinates      Coordinates `json:"coordinates"`

	// Optional columns.
	DesignUnit       Cell `json:"designUnit,omitempty"`
	ConstructionUnit Cell `json:"constructionUnit,omitempty"`
	ManagerUnit      Cell `json:"managerUnit,omitempty"`
	OwnerUnit        Cell `json:"ownerUnit,omitempty"`
	SupervisionUnit  Cell `json:"supervisionUnit,omitempty"`
	OperationUnit    Cell `json:"operationUnit,omitempty"`
	District         Cell `json:"district,omitempty"`
}

// Column headers as they appear on the sheet.
const (
	ColProject          = "所属项目"
	ColRoadName         = "道路名称"
	ColLengthKm         = "道路长度(km)"
	ColWidth            = "道路宽度(m)"
	ColLaneCount        = "车道数"
	ColRoadType         = "道路类型"
	ColStartStake       = "道路起点桩号"
	ColEndStake         = "道路终点桩号"
	ColInterval         = "里程桩间隔(m)"
	ColStructure        = "道路结构名称"
	ColDriveDirection   = "行车方向"
	ColMaintenanceStart = "养护开始时间(年、月、日)"
	ColMaintenanceEnd   = "养护结束时间(年、月、日)"
	ColStartPosition    = "道路起点桩号位置"
	ColEndPosition      = "道路终点桩号位置"
	ColCoordinates      = "道路轨迹坐标"
	ColDistrict         = "行政辖区"
)

var requiredColumns = []struct {
	name    string
	present func(Row) bool
}{
	{ColProject, func(r Row) bool { return !r.Project.Empty() }},
	{ColRoadName, func(r Row) bool { return !r.RoadName.Empty() }},
	{ColLengthKm, func(r Row) bool { return !r.LengthKm.Empty() }},
	{ColWidth, func(r Row) bool { return !r.Width.Empty() }},
	{ColLaneCount, func(r Row) bool { return !r.LaneCount.Empty() }},
	{ColRoadType, func(r Row) bool { return !r.RoadType.Empty() }},
	{ColStartStake, func(r Row) bool { return !r.StartStake.Empty() }},
	{ColEndStake, func(r Row) bool { return !r.EndStake.Empty() }},
	{ColInterval, func(r Row) bool { return !r.Interval.Empty() }},
	{ColStructure, func(r Row) bool { return !r.Structure.Empty() }},
	{ColDriveDirection, func(r Row) bool { return !r.DriveDirection.Empty() }},
	{ColMaintenanceStart, func(r Row) bool { return !r.MaintenanceStart.Empty() }},
	{ColMaintenanceEnd, func(r Row) bool { return !r.MaintenanceEnd.Empty() }},
	{ColStartPosition, func(r Row) bool { return !r.StartPosition.Empty() }},
	{ColEndPosition, func(r Row) bool { return !r.EndPosition.Empty() }},
	{ColCoordinates, func(r Row) bool { return len(r.Coordinates) > 0 }},
}

// ValidateRequired returns one message per row with empty required columns.
func ValidateRequired(rows []Row) []string {
	var msgs []string
	for i, row := range rows {
		var missing []string
		for _, col := range requiredColumns {
			if !col.present(row) {
				missing = append(missing, col.name)
			}
		}
		if len(missing) > 0 {
			msgs = append(msgs, fmt.Sprintf("row %d: missing %s", i+FirstDataRow, strings.Join(missing, ", ")))
		}
	}
	return msgs
}
