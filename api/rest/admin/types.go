package admin

import "time"

type LoadFacilitiesResponse struct {
	Status           string `json:"status"`
	FacilitiesLoaded int    `json:"facilities_loaded"`
	Generation       int64  `json:"generation"`
	Dimension        int    `json:"dimension"`
}

type VectorStatsResponse struct {
	Ready          bool       `json:"ready"`
	TotalDocuments int        `json:"total_documents"`
	Dimension      int        `json:"dimension"`
	Generation     int64      `json:"generation"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
	SampleNames    []string   `json:"sample_facility_names"`
}
