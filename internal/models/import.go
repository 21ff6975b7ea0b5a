package models

import "roadnet.roadmap.org/internal/importer"

// ImportData is the data of an import response. A failed batch lists its
// errors instead of the per-row results.
type ImportData struct {
	BatchID       string               `json:"batchId"`
	TotalRows     int                  `json:"total_rows"`
	ProcessedRows int                  `json:"processed_rows"`
	FailedRows    int                  `json:"failed_rows"`
	RoadResults   []importer.RowResult `json:"road_results,omitempty"`
	Errors        []string             `json:"errors,omitempty"`
}

func NewImportData(s *importer.Summary) ImportData {
	data := ImportData{
		BatchID:       s.BatchID,
		TotalRows:     s.TotalRows,
		ProcessedRows: s.ProcessedRows,
		FailedRows:    s.FailedRows,
	}
	if s.Success {
		data.RoadResults = s.RoadResults
		if data.RoadResults == nil {
			data.RoadResults = []importer.RowResult{}
		}
	} else {
		data.Errors = s.DisplayErrors()
	}
	return data
}
