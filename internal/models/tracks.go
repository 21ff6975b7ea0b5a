package models

import (
	"github.com/paulmach/orb/geojson"

	"roadnet.roadmap.org/internal/track"
	"roadnet.roadmap.org/internal/utils"
)

// TracksData is the data of a track generation response.
type TracksData struct {
	Heading       string                     `json:"heading,omitempty"`
	Tracks        *geojson.FeatureCollection `json:"tracks"`
	Encoded       track.EncodedTracks        `json:"encoded"`
	LeftSegments  []track.Segment            `json:"leftSegments"`
	RightSegments []track.Segment            `json:"rightSegments"`
}

func NewTracksData(r *track.Result) TracksData {
	data := TracksData{
		Heading:       utils.Heading(r.CenterLine),
		Tracks:        r.FeatureCollection(),
		Encoded:       r.Encoded(),
		LeftSegments:  r.LeftSegments,
		RightSegments: r.RightSegments,
	}
	if data.LeftSegments == nil {
		data.LeftSegments = []track.Segment{}
	}
	if data.RightSegments == nil {
		data.RightSegments = []track.Segment{}
	}
	return data
}
