package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/internal/track"
)

func TestNewResponse(t *testing.T) {
	response := NewResponse(CodeFailed, map[string]string{"key": "value"}, "validation failed")
	assert.Equal(t, CodeFailed, response.Code)
	assert.Equal(t, "validation failed", response.Message)
	assert.Equal(t, map[string]string{"key": "value"}, response.Data)

	ok := NewOKResponse(nil)
	assert.Equal(t, CodeOK, ok.Code)
	assert.Equal(t, "OK", ok.Message)

	b, err := json.Marshal(NewFailedResponse("boom", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"message":"boom","data":null}`, string(b))
}

func TestNewImportData(t *testing.T) {
	t.Run("success lists road results", func(t *testing.T) {
		data := NewImportData(&importer.Summary{
			BatchID:       "b1",
			Success:       true,
			TotalRows:     1,
			ProcessedRows: 1,
			RoadResults:   []importer.RowResult{{Row: 3, RoadName: "县道X015"}},
		})
		assert.Equal(t, "b1", data.BatchID)
		assert.Len(t, data.RoadResults, 1)
		assert.Nil(t, data.Errors)
	})

	t.Run("failure lists at most ten errors", func(t *testing.T) {
		s := &importer.Summary{TotalRows: 12, FailedRows: 12, RoadResults: []importer.RowResult{{Row: 3}}}
		for i := 0; i < 12; i++ {
			s.Errors = append(s.Errors, fmt.Sprintf("row %d: failed", i+3))
		}
		data := NewImportData(s)
		assert.Len(t, data.Errors, importer.MaxDisplayErrors)
		assert.Nil(t, data.RoadResults)

		b, err := json.Marshal(data)
		require.NoError(t, err)
		assert.NotContains(t, string(b), "road_results")
	})
}

func TestNewTracksData(t *testing.T) {
	r := &track.Result{
		CenterLine: orb.LineString{{104, 30}, {104.001, 30}},
		LeftTrack:  orb.LineString{{104, 30.0001}, {104.001, 30.0001}},
		RightTrack: orb.LineString{{104, 29.9999}, {104.001, 29.9999}},
	}
	data := NewTracksData(r)
	assert.Len(t, data.Tracks.Features, 3)
	assert.NotEmpty(t, data.Encoded.Center)
	assert.Equal(t, "E", data.Heading)
	assert.NotNil(t, data.LeftSegments)
	assert.NotNil(t, data.RightSegments)
}
